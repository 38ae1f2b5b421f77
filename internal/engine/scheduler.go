package engine

import (
	"fmt"
	"time"

	"github.com/convoy-cloud/convoy/internal/event"
	"github.com/convoy-cloud/convoy/internal/metrics"
	"github.com/convoy-cloud/convoy/internal/worker"
	"github.com/convoy-cloud/convoy/pkg/log"
)

// stopPoll bounds how long a stop request can go unnoticed
// inside the inter-batch rate-limit sleep.
const stopPoll = 250 * time.Millisecond

// schedule drives one job: batches strictly in index order,
// devices within a batch on a pool sized to the batch.
// Batch N+1 never starts before every worker of batch N has
// returned, including their session-close calls.
func (m *Manager) schedule(entry *jobEntry) {
	var (
		jobID   = entry.job.ID
		started = time.Now()
	)

	defer func() {
		if r := recover(); r != nil {
			// orchestrator defect: the one case that fails
			// the whole job
			log.Error("scheduler panic", "job_id", jobID, "panic", r)
			m.finish(entry, JobFailed, fmt.Sprintf("orchestrator failure: %v", r), started)
		}
	}()

	entry.update(func(j *Job) {
		j.Status = JobRunning
	})
	metrics.JobsActive.Inc()
	defer metrics.JobsActive.Dec()

	var batchCount int
	entry.read(func(j *Job) { batchCount = len(j.Batches) })

	for i := 0; i < batchCount; i++ {
		if m.stopped(entry) {
			m.finish(entry, JobStopped, "", started)
			return
		}

		m.runBatch(entry, i)

		if wait := m.interBatchDelay(entry, i); wait > 0 {
			if !m.sleepInterruptible(entry, wait) {
				m.finish(entry, JobStopped, "", started)
				return
			}
		}
	}

	if m.stopped(entry) {
		m.finish(entry, JobStopped, "", started)
		return
	}

	workerDefect := false
	entry.read(func(j *Job) {
		for _, b := range j.Batches {
			if b.Status == BatchFailed {
				workerDefect = true
			}
		}
	})

	if workerDefect {
		m.finish(entry, JobFailed, "worker crashed outside the failure taxonomy", started)
		return
	}

	if m.outputs != nil {
		if err := m.outputs.MarkComplete(jobID.String()); err != nil {
			log.Error("failed to mark run complete", "job_id", jobID, "error", err)
		}
	}

	m.finish(entry, JobCompleted, "", started)
}

func (m *Manager) runBatch(entry *jobEntry, index int) {
	var (
		jobID = entry.job.ID
		start int
		end   int
	)

	now := time.Now().UTC()
	entry.update(func(j *Job) {
		b := j.Batches[index]
		b.Status = BatchRunning
		b.StartedAt = &now
		start, end = b.Start, b.End
	})

	m.publish(event.TypeBatchStarted, jobID, "", map[string]interface{}{
		"batch":   index,
		"devices": end - start,
	})

	log.Info("batch started", "job_id", jobID, "batch", index, "devices", end-start)

	pool := worker.NewPool(end - start)

	for i := start; i < end; i++ {
		i := i
		// the pool is sized to the batch, so Submit never
		// blocks and the only error is manager shutdown
		if err := pool.Submit(m.ctx, func() {
			m.runDevice(entry, index, i)
		}); err != nil {
			m.failDevice(entry, i, fmt.Sprintf("worker not started: %v", err))
		}
	}

	pool.Wait()

	done := time.Now().UTC()
	entry.update(func(j *Job) {
		b := j.Batches[index]
		b.CompletedAt = &done
		if b.Status == BatchRunning {
			b.Status = BatchCompleted
		}
	})

	m.publish(event.TypeBatchCompleted, jobID, "", map[string]interface{}{
		"batch": index,
	})

	log.Info("batch completed", "job_id", jobID, "batch", index)
}

// interBatchDelay returns the pause required after batch
// index so the cumulative device rate stays at or below the
// configured devices per hour. Zero after the final batch
// or when no rate limit is set.
func (m *Manager) interBatchDelay(entry *jobEntry, index int) time.Duration {
	var wait time.Duration

	entry.read(func(j *Job) {
		if j.RatePerHour <= 0 || index == len(j.Batches)-1 {
			return
		}

		b := j.Batches[index]
		processed := b.End - b.Start
		wait = time.Duration(float64(processed) / float64(j.RatePerHour) * float64(time.Hour))
	})

	return wait
}

// sleepInterruptible pauses for d while polling the stop
// flag. It returns false when the sleep was interrupted by
// a stop request or manager shutdown.
func (m *Manager) sleepInterruptible(entry *jobEntry, d time.Duration) bool {
	deadline := time.Now().Add(d)

	for time.Now().Before(deadline) {
		if m.stopped(entry) {
			return false
		}

		remaining := time.Until(deadline)
		if remaining > stopPoll {
			remaining = stopPoll
		}

		select {
		case <-m.ctx.Done():
			return false
		case <-time.After(remaining):
		}
	}

	return !m.stopped(entry)
}

func (m *Manager) stopped(entry *jobEntry) bool {
	if m.ctx.Err() != nil {
		return true
	}

	var stop bool
	entry.read(func(j *Job) {
		stop = j.StopRequested
	})

	return stop
}

func (m *Manager) finish(entry *jobEntry, status JobStatus, reason string, started time.Time) {
	jobID := entry.job.ID
	now := time.Now().UTC()

	entry.update(func(j *Job) {
		if j.Status.Terminal() {
			return
		}
		j.Status = status
		j.Error = reason
		j.CompletedAt = &now
	})

	metrics.JobsTotal.WithLabelValues(string(status)).Inc()
	metrics.JobDurationSeconds.WithLabelValues(string(status)).Observe(time.Since(started).Seconds())

	switch status {
	case JobStopped:
		m.publish(event.TypeJobStopped, jobID, "", nil)
	case JobFailed:
		m.publish(event.TypeJobFailed, jobID, "", map[string]interface{}{"error": reason})
	default:
		m.publish(event.TypeJobCompleted, jobID, "", nil)
	}

	log.Info("job finished", "job_id", jobID, "status", status, "elapsed", time.Since(started))
}
