package device

import (
	"context"
	"fmt"

	"github.com/convoy-cloud/convoy/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Device defines the inventory service's interface.
type Device interface {
	List(*ListRequest) (models.Devices, error)
	Get(uuid.UUID) (*models.Device, error)
	Create(*CreateRequest) (*models.Device, error)
	Delete(uuid.UUID) error
}

type deviceService struct {
	ctx context.Context
	db  *gorm.DB
}

// Service builds an inventory service bound to ctx.
func Service(ctx context.Context, db *gorm.DB) Device {
	return &deviceService{ctx: ctx, db: db}
}

type ListRequest struct {
	Country  string
	Protocol string
	Limit    int
}

func (s *deviceService) List(req *ListRequest) (models.Devices, error) {
	var (
		devices = make(models.Devices, 0)
		q       = s.db.WithContext(s.ctx)
	)

	if req.Country != "" {
		q = q.Where("country = ?", req.Country)
	}

	if req.Protocol != "" {
		q = q.Where("protocol = ?", req.Protocol)
	}

	if req.Limit > 0 {
		q = q.Limit(req.Limit)
	}

	return devices, q.Order("name").Find(&devices).Error
}

func (s *deviceService) Get(id uuid.UUID) (*models.Device, error) {
	var (
		device = &models.Device{ID: id}
		q      = s.db.WithContext(s.ctx)
	)

	return device, q.First(device).Error
}

type CreateRequest struct {
	Name           string          `json:"name"`
	Address        string          `json:"address"`
	Protocol       models.Protocol `json:"protocol"`
	Port           int             `json:"port"`
	CredentialsRef string          `json:"credentials_ref"`
	Country        string          `json:"country"`
}

func (s *deviceService) Create(req *CreateRequest) (*models.Device, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("device name is required")
	}
	if req.Address == "" {
		return nil, fmt.Errorf("device address is required")
	}

	switch req.Protocol {
	case models.ProtocolSSH, models.ProtocolTelnet:
	default:
		return nil, fmt.Errorf("unsupported protocol: %v", req.Protocol)
	}

	if req.Port == 0 {
		switch req.Protocol {
		case models.ProtocolSSH:
			req.Port = 22
		case models.ProtocolTelnet:
			req.Port = 23
		}
	}

	device := &models.Device{
		ID:             uuid.New(),
		Name:           req.Name,
		Address:        req.Address,
		Protocol:       req.Protocol,
		Port:           req.Port,
		CredentialsRef: req.CredentialsRef,
		Country:        req.Country,
	}

	return device, s.db.WithContext(s.ctx).Create(device).Error
}

func (s *deviceService) Delete(id uuid.UUID) error {
	return s.db.WithContext(s.ctx).Delete(&models.Device{}, id).Error
}
