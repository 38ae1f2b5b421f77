package engine

import (
	"fmt"
	"time"

	"github.com/convoy-cloud/convoy/internal/event"
	"github.com/convoy-cloud/convoy/internal/metrics"
	"github.com/convoy-cloud/convoy/internal/session"
	"github.com/convoy-cloud/convoy/pkg/log"
)

// runDevice is one batch worker: it owns exactly one
// session for the device's whole command list and closes it
// on every exit path, including stop requests and panics.
func (m *Manager) runDevice(entry *jobEntry, batchIndex, deviceIndex int) {
	var (
		jobID  = entry.job.ID
		device session.Device
	)

	defer func() {
		if r := recover(); r != nil {
			// worker defect outside the failure taxonomy:
			// surface it at the job level via the batch
			log.Error("device worker panic",
				"job_id", jobID,
				"device", device.Name,
				"panic", r)
			m.failDevice(entry, deviceIndex, fmt.Sprintf("worker failure: %v", r))
			entry.update(func(j *Job) {
				j.Batches[batchIndex].Status = BatchFailed
			})
		}
	}()

	now := time.Now().UTC()
	entry.update(func(j *Job) {
		d := j.Devices[deviceIndex]
		d.Status = DeviceRunning
		d.StartedAt = &now
		device = d.Device
	})

	m.publish(event.TypeDeviceStarted, jobID, device.ID, nil)

	sess, err := m.factory.Open(m.ctx, device, m.connectTimeout)
	if err != nil {
		kind := session.KindOf(err)
		metrics.SessionFailuresTotal.WithLabelValues(string(kind)).Inc()
		log.Warn("session open failure",
			"job_id", jobID,
			"device", device.Name,
			"kind", kind,
			"error", err)
		m.failDevice(entry, deviceIndex, err.Error())
		return
	}

	metrics.SessionsOpenedTotal.WithLabelValues(string(device.Protocol)).Inc()

	// scoped acquisition: whoever opened the session closes
	// it, on every exit path
	defer func() {
		if err := sess.Close(); err != nil {
			log.Error("session close failure",
				"job_id", jobID,
				"device", device.Name,
				"error", err)
		}
	}()

	var commandCount int
	entry.read(func(j *Job) {
		commandCount = len(j.Devices[deviceIndex].Commands)
	})

	for i := 0; i < commandCount; i++ {
		if m.stopped(entry) {
			// remaining commands stay pending and never
			// transition
			m.releaseDevice(entry, deviceIndex)
			return
		}

		if aborted := m.runCommand(entry, deviceIndex, i, sess, device); aborted {
			return
		}
	}

	done := time.Now().UTC()
	entry.update(func(j *Job) {
		d := j.Devices[deviceIndex]
		d.Status = DeviceCompleted
		d.CompletedAt = &done
	})

	m.publish(event.TypeDeviceCompleted, jobID, device.ID, nil)
}

// runCommand executes one command on the open session. It
// returns true when the session broke and the device's
// remaining commands were aborted.
func (m *Manager) runCommand(entry *jobEntry, deviceIndex, cmdIndex int, sess session.Session, device session.Device) bool {
	var (
		jobID = entry.job.ID
		text  string
	)

	entry.update(func(j *Job) {
		c := j.Devices[deviceIndex].Commands[cmdIndex]
		c.Status = CommandRunning
		text = c.Text
	})

	m.publish(event.TypeCommandStarted, jobID, device.ID, map[string]interface{}{
		"command": text,
		"index":   cmdIndex,
	})

	out, elapsed, err := sess.Execute(m.ctx, text, m.commandTimeout)

	status := CommandSuccess
	if err != nil {
		status = CommandFailed
	}

	metrics.CommandsTotal.WithLabelValues(string(status)).Inc()
	metrics.CommandDurationSeconds.WithLabelValues(string(status)).Observe(elapsed.Seconds())

	if err != nil && session.KindOf(err) == session.ClosedMidCommand {
		// connection-level failure: this device's remaining
		// commands cannot run; other devices are unaffected
		entry.update(func(j *Job) {
			d := j.Devices[deviceIndex]
			c := d.Commands[cmdIndex]
			c.Status = CommandFailed
			c.Duration = elapsed
			c.Error = err.Error()

			for _, rest := range d.Commands[cmdIndex+1:] {
				rest.Status = CommandFailed
				rest.Error = "connection lost before command ran"
			}

			now := time.Now().UTC()
			d.Status = DeviceFailed
			d.Error = err.Error()
			d.CompletedAt = &now
		})

		m.publish(event.TypeDeviceFailed, jobID, device.ID, map[string]interface{}{
			"error": err.Error(),
		})

		return true
	}

	var ref string
	if err == nil && m.outputs != nil {
		ref, err = m.outputs.Write(jobID.String(), device.Name, text, out)
		if err != nil {
			err = fmt.Errorf("output not persisted: %w", err)
			status = CommandFailed
		}
	}

	entry.update(func(j *Job) {
		c := j.Devices[deviceIndex].Commands[cmdIndex]
		c.Status = status
		c.Duration = elapsed
		c.OutputRef = ref
		if err != nil {
			c.Error = err.Error()
		}
	})

	m.publish(event.TypeCommandFinished, jobID, device.ID, map[string]interface{}{
		"command": text,
		"index":   cmdIndex,
		"status":  status,
	})

	// a failed or timed-out command does not abort the rest
	// of the device's list
	return false
}

// failDevice marks a device execution failed before any of
// its commands ran: every pending command is failed with
// the device's reason so completed counts still add up.
func (m *Manager) failDevice(entry *jobEntry, deviceIndex int, reason string) {
	var deviceID string

	now := time.Now().UTC()
	entry.update(func(j *Job) {
		d := j.Devices[deviceIndex]
		d.Status = DeviceFailed
		d.Error = reason
		d.CompletedAt = &now
		deviceID = d.Device.ID

		for _, c := range d.Commands {
			if !c.Status.Terminal() {
				c.Status = CommandFailed
				c.Error = reason
			}
		}
	})

	m.publish(event.TypeDeviceFailed, entry.job.ID, deviceID, map[string]interface{}{
		"error": reason,
	})
}

// releaseDevice returns a device interrupted by a stop
// request to the pending state, keeping whatever command
// history it already accumulated.
func (m *Manager) releaseDevice(entry *jobEntry, deviceIndex int) {
	entry.update(func(j *Job) {
		d := j.Devices[deviceIndex]
		if d.Status == DeviceRunning {
			d.Status = DevicePending
		}
	})
}
