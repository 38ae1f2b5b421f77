package engine

import (
	"time"

	"github.com/convoy-cloud/convoy/internal/session"
	"github.com/google/uuid"
)

// JobStatus enumerates a job's lifecycle states. A job only
// ends failed when the orchestrator itself breaks; device
// and command failures never escalate.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobStopped   JobStatus = "stopped"
)

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobStopped
}

// BatchStatus enumerates a batch's lifecycle states.
type BatchStatus string

const (
	BatchPending   BatchStatus = "pending"
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
)

// DeviceStatus enumerates a device execution's states.
type DeviceStatus string

const (
	DevicePending   DeviceStatus = "pending"
	DeviceRunning   DeviceStatus = "running"
	DeviceCompleted DeviceStatus = "completed"
	DeviceFailed    DeviceStatus = "failed"
)

// CommandStatus enumerates a single command's states. A
// command interrupted by a stop request stays pending and
// never transitions.
type CommandStatus string

const (
	CommandPending CommandStatus = "pending"
	CommandRunning CommandStatus = "running"
	CommandSuccess CommandStatus = "success"
	CommandFailed  CommandStatus = "failed"
)

// Terminal reports whether the command reached an end
// state.
func (s CommandStatus) Terminal() bool {
	return s == CommandSuccess || s == CommandFailed
}

// Job is one automation run. It is owned by the Manager:
// every mutation goes through the job's single writer lock
// and reads only ever see consistent snapshots.
type Job struct {
	ID          uuid.UUID
	Commands    []string
	BatchSize   int
	RatePerHour int
	// MockSessions is the audit record of the session mode
	// the job ran under.
	MockSessions  bool
	Status        JobStatus
	StopRequested bool
	Error         string
	CreatedAt     time.Time
	CompletedAt   *time.Time
	Batches       []*Batch
	Devices       []*DeviceExecution
}

// Batch is one contiguous slice of the job's device list,
// identified by the device indexes it covers. Batches
// partition the device list exactly, in original order.
type Batch struct {
	Index       int
	Start       int
	End         int // exclusive
	Status      BatchStatus
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// DeviceExecution is the per-device state within a job. The
// inventory fields are copied at job creation so later
// inventory edits never change a running job's view.
type DeviceExecution struct {
	Device      session.Device
	Status      DeviceStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	Commands    []*CommandExecution
}

// CommandExecution is one command against one device.
type CommandExecution struct {
	Text      string
	Status    CommandStatus
	Duration  time.Duration
	Error     string
	OutputRef string
}

// partition materializes the job's batches:
// ceil(n/batchSize) contiguous, order-preserving slices
// with at most one short remainder batch at the end.
func partition(deviceCount, batchSize int) []*Batch {
	batches := make([]*Batch, 0, (deviceCount+batchSize-1)/batchSize)

	for start := 0; start < deviceCount; start += batchSize {
		end := start + batchSize
		if end > deviceCount {
			end = deviceCount
		}
		batches = append(batches, &Batch{
			Index:  len(batches),
			Start:  start,
			End:    end,
			Status: BatchPending,
		})
	}

	return batches
}
