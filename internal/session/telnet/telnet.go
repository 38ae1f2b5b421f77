package telnet

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/convoy-cloud/convoy/internal/session"
)

const prompt = "#"

// Factory opens line-oriented sessions for devices that
// only speak a telnet-style TCP line discipline.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Open(ctx context.Context, device session.Device, creds session.Credentials, connectTimeout time.Duration) (session.Session, error) {
	addr := net.JoinHostPort(device.Address, fmt.Sprint(device.Port))

	dialer := net.Dialer{Timeout: connectTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, session.NewError(session.Timeout, device.Name, err)
		}
		return nil, session.NewError(session.Unreachable, device.Name, err)
	}

	s := &telnetSession{
		device: device.Name,
		conn:   conn,
		reader: bufio.NewReader(conn),
	}

	if err := s.login(creds, connectTimeout); err != nil {
		conn.Close()
		return nil, session.NewError(session.AuthFailure, device.Name, err)
	}

	return s, nil
}

type telnetSession struct {
	device string
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
	closed bool
}

func (s *telnetSession) login(creds session.Credentials, timeout time.Duration) error {
	if err := s.conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	defer s.conn.SetDeadline(time.Time{})

	for _, line := range []string{creds.Username, creds.Password} {
		if _, err := fmt.Fprintf(s.conn, "%s\r\n", line); err != nil {
			return err
		}
	}

	banner, err := s.readUntilPrompt()
	if err != nil {
		return err
	}

	if strings.Contains(strings.ToLower(banner), "denied") {
		return fmt.Errorf("login rejected")
	}

	return nil
}

func (s *telnetSession) Execute(ctx context.Context, command string, timeout time.Duration) (string, time.Duration, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return "", 0, session.NewError(session.ClosedMidCommand, s.device, nil)
	}

	start := time.Now()

	deadline := start.Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetDeadline(deadline); err != nil {
		// a conn that rejects deadlines is already broken
		s.markClosed()
		return "", 0, session.NewError(session.ClosedMidCommand, s.device, err)
	}
	defer s.conn.SetDeadline(time.Time{})

	if _, err := fmt.Fprintf(s.conn, "%s\r\n", command); err != nil {
		s.markClosed()
		return "", time.Since(start), session.NewError(session.ClosedMidCommand, s.device, err)
	}

	output, err := s.readUntilPrompt()
	elapsed := time.Since(start)

	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			// the line discipline cannot recover mid-read
			s.markClosed()
			return output, elapsed, session.NewError(session.Timeout, s.device, err)
		}
		s.markClosed()
		return output, elapsed, session.NewError(session.ClosedMidCommand, s.device, err)
	}

	return output, elapsed, nil
}

func (s *telnetSession) readUntilPrompt() (string, error) {
	var b strings.Builder

	for {
		line, err := s.reader.ReadString('\n')
		b.WriteString(line)
		if err != nil {
			return b.String(), err
		}
		if strings.HasSuffix(strings.TrimRight(line, "\r\n "), prompt) {
			return b.String(), nil
		}
	}
}

func (s *telnetSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.conn.Close()
}

// markClosed tears the connection down after a mid-command
// failure so it never outlives the session.
func (s *telnetSession) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	s.conn.Close()
}
