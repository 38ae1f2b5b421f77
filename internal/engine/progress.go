package engine

import (
	"time"

	"github.com/google/uuid"
)

// Progress is the derived, read-only view of one job at
// every granularity. It is recomputed from the job record
// on each read rather than maintained incrementally, so it
// can never drift.
type Progress struct {
	JobID             uuid.UUID                  `json:"job_id"`
	Status            JobStatus                  `json:"status"`
	MockSessions      bool                       `json:"mock_sessions"`
	CreatedAt         time.Time                  `json:"created_at"`
	CompletedAt       *time.Time                 `json:"completed_at,omitempty"`
	Error             string                     `json:"error,omitempty"`
	OverallPercent    float64                    `json:"overall_percent"`
	TotalBatches      int                        `json:"total_batches"`
	CompletedBatches  int                        `json:"completed_batches"`
	TotalDevices      int                        `json:"total_devices"`
	CompletedDevices  int                        `json:"completed_devices"`
	TotalCommands     int                        `json:"total_commands"`
	CompletedCommands int                        `json:"completed_commands"`
	CurrentDevice     *CurrentExecution          `json:"current_device,omitempty"`
	CountryStats      map[string]*CountryStats   `json:"country_stats"`
	DeviceProgress    map[string]*DeviceProgress `json:"device_progress"`
}

// CurrentExecution points at one device+command currently
// running. Absent when no command is in flight.
type CurrentExecution struct {
	DeviceID       string `json:"device_id"`
	DeviceName     string `json:"device_name"`
	CurrentCommand string `json:"current_command"`
	CommandIndex   int    `json:"command_index"`
	TotalCommands  int    `json:"total_commands"`
}

// CountryStats aggregates device states for one country,
// grouped by the country attribute captured at job
// creation.
type CountryStats struct {
	TotalDevices     int     `json:"total_devices"`
	CompletedDevices int     `json:"completed_devices"`
	RunningDevices   int     `json:"running_devices"`
	FailedDevices    int     `json:"failed_devices"`
	PendingDevices   int     `json:"pending_devices"`
	Percent          float64 `json:"percent"`
}

// DeviceProgress is the per-device slice of the view.
type DeviceProgress struct {
	Name     string         `json:"name"`
	Country  string         `json:"country"`
	Status   DeviceStatus   `json:"status"`
	Percent  float64        `json:"percent"`
	Error    string         `json:"error,omitempty"`
	Commands []*CommandView `json:"commands"`
}

// CommandView is one command row of the view.
type CommandView struct {
	Command    string        `json:"command"`
	Status     CommandStatus `json:"status"`
	DurationMs int64         `json:"duration_ms,omitempty"`
	Error      string        `json:"error,omitempty"`
	OutputRef  string        `json:"output_ref,omitempty"`
}

// Summary is the list-view shape of a job.
type Summary struct {
	JobID          uuid.UUID  `json:"job_id"`
	Status         JobStatus  `json:"status"`
	OverallPercent float64    `json:"overall_percent"`
	TotalDevices   int        `json:"total_devices"`
	TotalBatches   int        `json:"total_batches"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// aggregate recomputes the full progress view from one
// job's consistent snapshot. Linear in device and command
// count. Callers hold the job's read lock.
func aggregate(j *Job) *Progress {
	view := &Progress{
		JobID:          j.ID,
		Status:         j.Status,
		MockSessions:   j.MockSessions,
		CreatedAt:      j.CreatedAt,
		CompletedAt:    j.CompletedAt,
		Error:          j.Error,
		TotalBatches:   len(j.Batches),
		TotalDevices:   len(j.Devices),
		CountryStats:   make(map[string]*CountryStats),
		DeviceProgress: make(map[string]*DeviceProgress, len(j.Devices)),
	}

	for _, b := range j.Batches {
		if b.Status == BatchCompleted {
			view.CompletedBatches++
		}
	}

	for _, d := range j.Devices {
		cs, ok := view.CountryStats[d.Device.Country]
		if !ok {
			cs = &CountryStats{}
			view.CountryStats[d.Device.Country] = cs
		}
		cs.TotalDevices++

		switch d.Status {
		case DeviceCompleted:
			cs.CompletedDevices++
			view.CompletedDevices++
		case DeviceRunning:
			cs.RunningDevices++
		case DeviceFailed:
			cs.FailedDevices++
		default:
			cs.PendingDevices++
		}

		dp := &DeviceProgress{
			Name:     d.Device.Name,
			Country:  d.Device.Country,
			Status:   d.Status,
			Error:    d.Error,
			Commands: make([]*CommandView, len(d.Commands)),
		}

		var done int
		for i, c := range d.Commands {
			dp.Commands[i] = &CommandView{
				Command:    c.Text,
				Status:     c.Status,
				DurationMs: c.Duration.Milliseconds(),
				Error:      c.Error,
				OutputRef:  c.OutputRef,
			}

			view.TotalCommands++

			if c.Status.Terminal() {
				done++
				view.CompletedCommands++
			}

			if c.Status == CommandRunning && view.CurrentDevice == nil {
				view.CurrentDevice = &CurrentExecution{
					DeviceID:       d.Device.ID,
					DeviceName:     d.Device.Name,
					CurrentCommand: c.Text,
					CommandIndex:   i,
					TotalCommands:  len(d.Commands),
				}
			}
		}

		if len(d.Commands) > 0 {
			dp.Percent = percent(done, len(d.Commands))
		}

		view.DeviceProgress[d.Device.ID] = dp
	}

	// per-country percent: completed commands over total
	// commands, restricted to that country's devices
	countryDone := make(map[string]int)
	countryTotal := make(map[string]int)
	for _, d := range j.Devices {
		for _, c := range d.Commands {
			countryTotal[d.Device.Country]++
			if c.Status.Terminal() {
				countryDone[d.Device.Country]++
			}
		}
	}
	for country, cs := range view.CountryStats {
		cs.Percent = percent(countryDone[country], countryTotal[country])
	}

	view.OverallPercent = percent(view.CompletedCommands, view.TotalCommands)

	return view
}

func summarize(j *Job) *Summary {
	var total, done int
	for _, d := range j.Devices {
		for _, c := range d.Commands {
			total++
			if c.Status.Terminal() {
				done++
			}
		}
	}

	return &Summary{
		JobID:          j.ID,
		Status:         j.Status,
		OverallPercent: percent(done, total),
		TotalDevices:   len(j.Devices),
		TotalBatches:   len(j.Batches),
		CreatedAt:      j.CreatedAt,
		CompletedAt:    j.CompletedAt,
	}
}

func percent(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}
