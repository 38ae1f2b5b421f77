package engine

import (
	"testing"
	"time"

	"github.com/convoy-cloud/convoy/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testJob() *Job {
	mk := func(name, country string, status DeviceStatus, cmds ...CommandStatus) *DeviceExecution {
		d := &DeviceExecution{
			Device: session.Device{
				ID:      uuid.NewString(),
				Name:    name,
				Country: country,
			},
			Status: status,
		}
		for i, s := range cmds {
			d.Commands = append(d.Commands, &CommandExecution{
				Text:     "show version",
				Status:   s,
				Duration: time.Duration(i) * time.Second,
			})
		}
		return d
	}

	return &Job{
		ID:        uuid.New(),
		Commands:  []string{"show version", "show ip route"},
		BatchSize: 2,
		Status:    JobRunning,
		CreatedAt: time.Now().UTC(),
		Batches:   partition(4, 2),
		Devices: []*DeviceExecution{
			mk("dev-01", "de", DeviceCompleted, CommandSuccess, CommandSuccess),
			mk("dev-02", "de", DeviceRunning, CommandSuccess, CommandRunning),
			mk("dev-03", "fr", DeviceFailed, CommandFailed, CommandFailed),
			mk("dev-04", "fr", DevicePending, CommandPending, CommandPending),
		},
	}
}

func TestAggregateOverallCounts(t *testing.T) {
	view := aggregate(testJob())

	require.Equal(t, 8, view.TotalCommands)
	require.Equal(t, 5, view.CompletedCommands)
	require.Equal(t, 1, view.CompletedDevices)
	require.Equal(t, 4, view.TotalDevices)
	require.InDelta(t, 62.5, view.OverallPercent, 0.001)
}

func TestAggregateCountryStats(t *testing.T) {
	view := aggregate(testJob())

	de := view.CountryStats["de"]
	require.NotNil(t, de)
	require.Equal(t, 2, de.TotalDevices)
	require.Equal(t, 1, de.CompletedDevices)
	require.Equal(t, 1, de.RunningDevices)
	require.InDelta(t, 75.0, de.Percent, 0.001)

	fr := view.CountryStats["fr"]
	require.NotNil(t, fr)
	require.Equal(t, 1, fr.FailedDevices)
	require.Equal(t, 1, fr.PendingDevices)
	require.InDelta(t, 50.0, fr.Percent, 0.001)
}

func TestAggregateCurrentExecutionPointer(t *testing.T) {
	j := testJob()
	view := aggregate(j)

	require.NotNil(t, view.CurrentDevice)
	require.Equal(t, "dev-02", view.CurrentDevice.DeviceName)
	require.Equal(t, 1, view.CurrentDevice.CommandIndex)
	require.Equal(t, 2, view.CurrentDevice.TotalCommands)

	// absent when nothing is in flight
	j.Devices[1].Commands[1].Status = CommandSuccess
	require.Nil(t, aggregate(j).CurrentDevice)
}

func TestAggregateDeviceProgress(t *testing.T) {
	j := testJob()
	view := aggregate(j)

	dp := view.DeviceProgress[j.Devices[2].Device.ID]
	require.Equal(t, DeviceFailed, dp.Status)
	require.InDelta(t, 100.0, dp.Percent, 0.001)
	require.Len(t, dp.Commands, 2)

	pending := view.DeviceProgress[j.Devices[3].Device.ID]
	require.InDelta(t, 0.0, pending.Percent, 0.001)
}

func TestSummarize(t *testing.T) {
	s := summarize(testJob())
	require.Equal(t, JobRunning, s.Status)
	require.Equal(t, 4, s.TotalDevices)
	require.Equal(t, 2, s.TotalBatches)
	require.InDelta(t, 62.5, s.OverallPercent, 0.001)
}
