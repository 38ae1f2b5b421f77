package schedule

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/convoy-cloud/convoy/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Schedule defines the stored job-template service.
type Schedule interface {
	List() (models.Schedules, error)
	Get(uuid.UUID) (*models.Schedule, error)
	Create(*CreateRequest) (*models.Schedule, error)
	Delete(uuid.UUID) error
}

type scheduleService struct {
	ctx context.Context
	db  *gorm.DB
}

// Service builds a schedule service bound to ctx.
func Service(ctx context.Context, db *gorm.DB) Schedule {
	return &scheduleService{ctx: ctx, db: db}
}

func (s *scheduleService) List() (models.Schedules, error) {
	var (
		schedules = make(models.Schedules, 0)
		q         = s.db.WithContext(s.ctx)
	)

	return schedules, q.Order("alias").Find(&schedules).Error
}

func (s *scheduleService) Get(id uuid.UUID) (*models.Schedule, error) {
	var (
		schedule = &models.Schedule{ID: id}
		q        = s.db.WithContext(s.ctx)
	)

	return schedule, q.First(schedule).Error
}

type CreateRequest struct {
	Alias       string   `json:"alias"`
	Expression  string   `json:"expression"`
	DeviceIDs   []string `json:"device_ids"`
	Commands    []string `json:"commands"`
	BatchSize   int      `json:"batch_size"`
	RatePerHour int      `json:"rate_per_hour"`
}

func (s *scheduleService) Create(req *CreateRequest) (*models.Schedule, error) {
	if req.Alias == "" {
		return nil, fmt.Errorf("schedule alias is required")
	}
	if req.Expression == "" {
		return nil, fmt.Errorf("schedule expression is required")
	}
	if len(req.DeviceIDs) == 0 {
		return nil, fmt.Errorf("schedule device list is empty")
	}
	if len(req.Commands) == 0 {
		return nil, fmt.Errorf("schedule command list is empty")
	}
	if req.BatchSize < 2 {
		return nil, fmt.Errorf("schedule batch size %d is below the minimum of 2", req.BatchSize)
	}

	for _, raw := range req.DeviceIDs {
		if _, err := uuid.Parse(raw); err != nil {
			return nil, fmt.Errorf("invalid device id %q: %w", raw, err)
		}
	}

	ids, err := json.Marshal(req.DeviceIDs)
	if err != nil {
		return nil, err
	}

	commands, err := json.Marshal(req.Commands)
	if err != nil {
		return nil, err
	}

	schedule := &models.Schedule{
		ID:          uuid.New(),
		Alias:       req.Alias,
		Expression:  req.Expression,
		DeviceIDs:   ids,
		Commands:    commands,
		BatchSize:   req.BatchSize,
		RatePerHour: req.RatePerHour,
	}

	return schedule, s.db.WithContext(s.ctx).Create(schedule).Error
}

func (s *scheduleService) Delete(id uuid.UUID) error {
	return s.db.WithContext(s.ctx).Delete(&models.Schedule{}, id).Error
}
