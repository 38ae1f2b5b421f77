// Package mock provides a simulated session factory. It is
// only wired in when the MockSessions environment flag is
// set, and that flag is recorded on every job it serves; a
// real connection failure is never silently replaced by a
// mock session.
package mock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/convoy-cloud/convoy/internal/session"
)

// Factory fabricates sessions that echo their commands. It
// counts opens and closes so tests can assert that every
// opened session was released.
type Factory struct {
	mu       sync.Mutex
	opened   int
	closed   int
	failures map[string]session.ErrorKind
	execErrs map[string]error
	latency  time.Duration
}

func NewFactory() *Factory {
	return &Factory{
		failures: make(map[string]session.ErrorKind),
		execErrs: make(map[string]error),
	}
}

// FailOpen makes Open return a typed error of the given
// kind for the named device.
func (f *Factory) FailOpen(device string, kind session.ErrorKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[device] = kind
}

// FailCommand makes Execute return err for the given
// command text on every device.
func (f *Factory) FailCommand(command string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execErrs[command] = err
}

// SetLatency adds an artificial delay to every Execute.
func (f *Factory) SetLatency(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latency = d
}

func (f *Factory) Open(ctx context.Context, device session.Device, connectTimeout time.Duration) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if kind, ok := f.failures[device.Name]; ok {
		return nil, session.NewError(kind, device.Name, nil)
	}

	f.opened++

	return &mockSession{device: device.Name, factory: f}, nil
}

// Opened returns how many sessions the factory has handed
// out.
func (f *Factory) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

// Closed returns how many sessions have been closed.
func (f *Factory) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type mockSession struct {
	device  string
	factory *Factory
	closed  int32
}

func (s *mockSession) Execute(ctx context.Context, command string, timeout time.Duration) (string, time.Duration, error) {
	if atomic.LoadInt32(&s.closed) == 1 {
		return "", 0, session.NewError(session.ClosedMidCommand, s.device, nil)
	}

	s.factory.mu.Lock()
	err, fails := s.factory.execErrs[command]
	latency := s.factory.latency
	s.factory.mu.Unlock()

	start := time.Now()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return "", time.Since(start), ctx.Err()
		}
	}

	if fails {
		return "", time.Since(start), err
	}

	return s.device + "> " + command + "\nok\n", time.Since(start), nil
}

func (s *mockSession) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}

	s.factory.mu.Lock()
	s.factory.closed++
	s.factory.mu.Unlock()

	return nil
}
