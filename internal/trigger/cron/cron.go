package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/convoy-cloud/convoy/internal/engine"
	"github.com/convoy-cloud/convoy/internal/models"
	"github.com/convoy-cloud/convoy/pkg/log"
	"github.com/google/uuid"
	"github.com/robfig/cron"
)

// Submitter is the slice of the job manager a trigger
// needs.
type Submitter interface {
	Create(ctx context.Context, req *engine.CreateRequest) (*engine.CreateResponse, error)
}

// Cron fires a stored schedule's job template on its cron
// expression.
type Cron struct {
	schedule  cron.Schedule
	id        uuid.UUID
	alias     string
	request   *engine.CreateRequest
	submitter Submitter
}

// New parses a stored schedule into a runnable trigger.
func New(s *models.Schedule, submitter Submitter) (*Cron, error) {
	parser := cron.NewParser(
		cron.Minute |
			cron.Hour |
			cron.Dom |
			cron.Month |
			cron.Dow,
	)

	sched, err := parser.Parse(s.Expression)
	if err != nil {
		return nil, fmt.Errorf("schedule %v: %w", s.Alias, err)
	}

	var rawIDs []string
	if err := json.Unmarshal(s.DeviceIDs, &rawIDs); err != nil {
		return nil, fmt.Errorf("schedule %v device ids: %w", s.Alias, err)
	}

	ids := make([]uuid.UUID, len(rawIDs))
	for i, raw := range rawIDs {
		if ids[i], err = uuid.Parse(raw); err != nil {
			return nil, fmt.Errorf("schedule %v device id %q: %w", s.Alias, raw, err)
		}
	}

	var commands []string
	if err := json.Unmarshal(s.Commands, &commands); err != nil {
		return nil, fmt.Errorf("schedule %v commands: %w", s.Alias, err)
	}

	return &Cron{
		schedule: sched,
		id:       s.ID,
		alias:    s.Alias,
		request: &engine.CreateRequest{
			DeviceIDs:   ids,
			Commands:    commands,
			BatchSize:   s.BatchSize,
			RatePerHour: s.RatePerHour,
		},
		submitter: submitter,
	}, nil
}

// Listen fires the schedule at every tick until ctx is
// cancelled.
func (c *Cron) Listen(ctx context.Context) {
	log.Info("schedule listening", "id", c.id, "alias", c.alias)

	for {
		select {
		case <-time.After(time.Until(c.schedule.Next(time.Now()))):
			if err := c.Fire(ctx); err != nil {
				log.Error("schedule fire failure", "id", c.id, "alias", c.alias, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Fire submits one job from the schedule's template.
func (c *Cron) Fire(ctx context.Context) error {
	log.Info("schedule firing", "id", c.id, "alias", c.alias)

	resp, err := c.submitter.Create(ctx, c.request)
	if err != nil {
		return err
	}

	log.Info("scheduled job submitted",
		"id", c.id,
		"alias", c.alias,
		"job_id", resp.JobID,
		"batches", resp.TotalBatches)

	return nil
}

// ID returns the schedule's identifier.
func (c *Cron) ID() uuid.UUID {
	return c.id
}
