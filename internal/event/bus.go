package event

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type classifies engine events.
type Type string

const (
	TypeJobCreated      Type = "job_created"
	TypeJobCompleted    Type = "job_completed"
	TypeJobStopped      Type = "job_stopped"
	TypeJobFailed       Type = "job_failed"
	TypeBatchStarted    Type = "batch_started"
	TypeBatchCompleted  Type = "batch_completed"
	TypeDeviceStarted   Type = "device_started"
	TypeDeviceCompleted Type = "device_completed"
	TypeDeviceFailed    Type = "device_failed"
	TypeCommandStarted  Type = "command_started"
	TypeCommandFinished Type = "command_finished"
)

// Event is one engine state transition.
type Event struct {
	Type      Type            `json:"type"`
	JobID     uuid.UUID       `json:"job_id,omitempty"`
	DeviceID  string          `json:"device_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Filter defines criteria for receiving events.
type Filter struct {
	JobID uuid.UUID
	Types []Type
}

// Bus fans engine events out to subscribers.
type Bus interface {
	Publish(e Event)
	Subscribe(ctx context.Context, filter Filter) (<-chan Event, error)
}

type bus struct {
	subscribers map[chan Event]Filter
	mu          sync.RWMutex
}

// New creates a new event bus.
func New() Bus {
	return &bus{
		subscribers: make(map[chan Event]Filter),
	}
}

func (b *bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch, filter := range b.subscribers {
		if b.matches(filter, e) {
			select {
			case ch <- e:
			default:
				// drop rather than block a publisher on a
				// slow subscriber
			}
		}
	}
}

func (b *bus) Subscribe(ctx context.Context, filter Filter) (<-chan Event, error) {
	ch := make(chan Event, 100)

	b.mu.Lock()
	b.subscribers[ch] = filter
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subscribers, ch)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}

func (b *bus) matches(filter Filter, e Event) bool {
	if filter.JobID != uuid.Nil && filter.JobID != e.JobID {
		return false
	}
	if len(filter.Types) > 0 {
		found := false
		for _, t := range filter.Types {
			if t == e.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
