package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestSubscribeReceivesMatchingEvents(t *testing.T) {
	bus := New()
	jobID := uuid.New()

	ch, err := bus.Subscribe(context.Background(), Filter{JobID: jobID})
	require.NoError(t, err)

	published := Event{Type: TypeJobCreated, JobID: jobID, Timestamp: time.Now()}
	bus.Publish(published)
	bus.Publish(Event{Type: TypeJobCreated, JobID: uuid.New(), Timestamp: time.Now()})

	got := receive(t, ch)
	if diff := cmp.Diff(published, got); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}

	select {
	case e := <-ch:
		t.Fatalf("unexpected event for job %v", e.JobID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeFiltersByType(t *testing.T) {
	bus := New()

	ch, err := bus.Subscribe(context.Background(), Filter{
		Types: []Type{TypeCommandFinished},
	})
	require.NoError(t, err)

	bus.Publish(Event{Type: TypeBatchStarted, Timestamp: time.Now()})
	bus.Publish(Event{Type: TypeCommandFinished, Timestamp: time.Now()})

	require.Equal(t, TypeCommandFinished, receive(t, ch).Type)
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	bus := New()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := bus.Subscribe(ctx, Filter{})
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok, "channel must be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}
