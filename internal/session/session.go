package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/convoy-cloud/convoy/internal/models"
)

// Session defines the interface for a single open remote
// command channel to one device. A Session is never shared
// across workers; the worker that opened it owns it for the
// device's whole command list and must close it on every
// exit path.
type Session interface {
	// Execute runs one command and returns its output and
	// wall-clock duration. A command that exceeds timeout
	// returns a Timeout error; the session stays open and
	// usable for subsequent commands unless it reports
	// ClosedMidCommand.
	Execute(ctx context.Context, command string, timeout time.Duration) (string, time.Duration, error)
	// Close tears the channel down. Idempotent.
	Close() error
}

// Factory builds a Session for a device record. A Factory
// is protocol-aware: it inspects the device's Protocol
// field and dials accordingly.
type Factory interface {
	Open(ctx context.Context, device Device, connectTimeout time.Duration) (Session, error)
}

// Device carries the inventory fields a factory needs,
// copied out of the inventory at job creation.
type Device struct {
	ID             string
	Name           string
	Address        string
	Protocol       models.Protocol
	Port           int
	CredentialsRef string
	Country        string
}

// ErrorKind classifies session failures.
type ErrorKind string

const (
	// Timeout occurs when a dial or a command exceeds its
	// deadline.
	Timeout ErrorKind = "timeout"
	// AuthFailure occurs when the device rejects the
	// credentials.
	AuthFailure ErrorKind = "auth_failure"
	// Unreachable occurs when the device cannot be dialed
	// at all.
	Unreachable ErrorKind = "unreachable"
	// ClosedMidCommand occurs when the channel breaks while
	// a command list is in flight. The remaining commands
	// for that device cannot run.
	ClosedMidCommand ErrorKind = "closed_mid_command"
)

// Error is the typed session failure surfaced to the
// engine. A real connection failure is always reported as
// one of these, never masked by a simulated session.
type Error struct {
	Kind   ErrorKind
	Device string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session %v on %v: %v", e.Kind, e.Device, e.Err)
	}
	return fmt.Sprintf("session %v on %v", e.Kind, e.Device)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a typed session error.
func NewError(kind ErrorKind, device string, err error) *Error {
	return &Error{Kind: kind, Device: device, Err: err}
}

// KindOf returns the error's kind, or an empty kind when
// err is not a session error.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
