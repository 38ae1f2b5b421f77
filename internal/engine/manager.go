package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/convoy-cloud/convoy/internal/event"
	"github.com/convoy-cloud/convoy/internal/inventory"
	"github.com/convoy-cloud/convoy/internal/output"
	"github.com/convoy-cloud/convoy/internal/session"
	"github.com/convoy-cloud/convoy/pkg/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrNotFound is returned for unknown job IDs.
var ErrNotFound = errors.New("job not found")

// ErrNotTerminal is returned when deleting a job that is
// still running.
var ErrNotTerminal = errors.New("job has not finished")

// SubmissionError rejects an invalid job synchronously at
// creation; nothing with this error ever enters the
// pipeline.
type SubmissionError struct {
	Reason string
}

func (e *SubmissionError) Error() string {
	return "invalid submission: " + e.Reason
}

// Manager owns every job record. The manager map carries
// its own lock for lookups only; each job serializes its
// mutations through a per-job writer lock so unrelated jobs
// never contend.
type Manager struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*jobEntry

	ctx       context.Context
	inventory inventory.Reader
	factory   session.Factory
	outputs   output.Store
	bus       event.Bus

	connectTimeout time.Duration
	commandTimeout time.Duration
	mockSessions   bool
}

type jobEntry struct {
	mu  sync.RWMutex
	job *Job
}

func (e *jobEntry) update(fn func(*Job)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.job)
}

func (e *jobEntry) read(fn func(*Job)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.job)
}

// Config carries the manager's collaborators and timeouts.
type Config struct {
	Inventory      inventory.Reader
	Factory        session.Factory
	Outputs        output.Store
	Bus            event.Bus
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
	MockSessions   bool
}

// NewManager builds the job manager. ctx bounds every
// scheduler the manager spawns; cancelling it stops all
// jobs cooperatively.
func NewManager(ctx context.Context, cfg Config) *Manager {
	return &Manager{
		jobs:           make(map[uuid.UUID]*jobEntry),
		ctx:            ctx,
		inventory:      cfg.Inventory,
		factory:        cfg.Factory,
		outputs:        cfg.Outputs,
		bus:            cfg.Bus,
		connectTimeout: cfg.ConnectTimeout,
		commandTimeout: cfg.CommandTimeout,
		mockSessions:   cfg.MockSessions,
	}
}

// CreateRequest is one job submission.
type CreateRequest struct {
	DeviceIDs   []uuid.UUID
	Commands    []string
	BatchSize   int
	RatePerHour int
}

// CreateResponse identifies the accepted job.
type CreateResponse struct {
	JobID        uuid.UUID `json:"job_id"`
	TotalBatches int       `json:"total_batches"`
}

// Create validates a submission, materializes the job's
// batches and device executions, and spawns its scheduler.
// It returns before any device is contacted.
func (m *Manager) Create(ctx context.Context, req *CreateRequest) (*CreateResponse, error) {
	if len(req.DeviceIDs) == 0 {
		return nil, &SubmissionError{Reason: "device list is empty"}
	}
	if len(req.Commands) == 0 {
		return nil, &SubmissionError{Reason: "command list is empty"}
	}
	if req.BatchSize < 2 {
		return nil, &SubmissionError{Reason: fmt.Sprintf("batch size %d is below the minimum of 2", req.BatchSize)}
	}
	if req.RatePerHour < 0 {
		return nil, &SubmissionError{Reason: "rate limit cannot be negative"}
	}

	devices := make([]*DeviceExecution, 0, len(req.DeviceIDs))

	for _, id := range req.DeviceIDs {
		record, err := m.inventory.Get(ctx, id)
		if err != nil {
			return nil, &SubmissionError{Reason: fmt.Sprintf("unknown device %v", id)}
		}

		commands := make([]*CommandExecution, len(req.Commands))
		for i, text := range req.Commands {
			commands[i] = &CommandExecution{Text: text, Status: CommandPending}
		}

		devices = append(devices, &DeviceExecution{
			Device: session.Device{
				ID:             record.ID.String(),
				Name:           record.Name,
				Address:        record.Address,
				Protocol:       record.Protocol,
				Port:           record.Port,
				CredentialsRef: record.CredentialsRef,
				Country:        record.Country,
			},
			Status:   DevicePending,
			Commands: commands,
		})
	}

	job := &Job{
		ID:           uuid.New(),
		Commands:     append([]string(nil), req.Commands...),
		BatchSize:    req.BatchSize,
		RatePerHour:  req.RatePerHour,
		MockSessions: m.mockSessions,
		Status:       JobPending,
		CreatedAt:    time.Now().UTC(),
		Batches:      partition(len(devices), req.BatchSize),
		Devices:      devices,
	}

	entry := &jobEntry{job: job}

	m.mu.Lock()
	m.jobs[job.ID] = entry
	m.mu.Unlock()

	m.publish(event.TypeJobCreated, job.ID, "", map[string]interface{}{
		"devices":       len(devices),
		"commands":      len(req.Commands),
		"batches":       len(job.Batches),
		"mock_sessions": job.MockSessions,
	})

	log.Info("job created",
		"job_id", job.ID,
		"devices", len(devices),
		"batches", len(job.Batches),
		"batch_size", req.BatchSize,
		"rate_per_hour", req.RatePerHour)

	go m.schedule(entry)

	return &CreateResponse{JobID: job.ID, TotalBatches: len(job.Batches)}, nil
}

// Snapshot derives the progress view for one job. It is a
// pure read under the job's read lock and never observes a
// torn update.
func (m *Manager) Snapshot(jobID uuid.UUID) (*Progress, error) {
	entry, err := m.entry(jobID)
	if err != nil {
		return nil, err
	}

	var view *Progress
	entry.read(func(j *Job) {
		view = aggregate(j)
	})

	return view, nil
}

// List returns a summary of every retained job.
func (m *Manager) List() []*Summary {
	m.mu.RLock()
	entries := make([]*jobEntry, 0, len(m.jobs))
	for _, e := range m.jobs {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	summaries := make([]*Summary, 0, len(entries))
	for _, e := range entries {
		e.read(func(j *Job) {
			summaries = append(summaries, summarize(j))
		})
	}

	return summaries
}

// RequestStop sets the job's cooperative stop flag. It
// never blocks and never tears sessions down itself; the
// workers that opened them observe the flag and close them.
func (m *Manager) RequestStop(jobID uuid.UUID) error {
	entry, err := m.entry(jobID)
	if err != nil {
		return err
	}

	entry.update(func(j *Job) {
		if !j.Status.Terminal() {
			j.StopRequested = true
		}
	})

	log.Info("stop requested", "job_id", jobID)

	return nil
}

// Delete removes a terminal job from the manager.
func (m *Manager) Delete(jobID uuid.UUID) error {
	entry, err := m.entry(jobID)
	if err != nil {
		return err
	}

	terminal := false
	entry.read(func(j *Job) {
		terminal = j.Status.Terminal()
	})
	if !terminal {
		return ErrNotTerminal
	}

	m.mu.Lock()
	delete(m.jobs, jobID)
	m.mu.Unlock()

	return nil
}

func (m *Manager) entry(jobID uuid.UUID) (*jobEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}

	return entry, nil
}

func (m *Manager) publish(t event.Type, jobID uuid.UUID, deviceID string, payload map[string]interface{}) {
	if m.bus == nil {
		return
	}

	e := event.Event{
		Type:      t,
		JobID:     jobID,
		DeviceID:  deviceID,
		Timestamp: time.Now().UTC(),
	}

	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			e.Payload = data
		}
	}

	m.bus.Publish(e)
}
