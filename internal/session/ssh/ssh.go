package ssh

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/convoy-cloud/convoy/internal/session"
	"github.com/skeema/knownhosts"
	"golang.org/x/crypto/ssh"
)

// Factory opens interactive SSH sessions. Host keys are
// verified against a known_hosts file unless the insecure
// flag was set explicitly.
type Factory struct {
	knownHosts *knownhosts.HostKeyDB
	insecure   bool
}

// NewFactory builds the SSH protocol factory.
// knownHostsFile may be empty only when insecure is true.
func NewFactory(knownHostsFile string, insecure bool) (*Factory, error) {
	f := &Factory{insecure: insecure}

	if !insecure {
		db, err := knownhosts.NewDB(knownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("known hosts: %w", err)
		}
		f.knownHosts = db
	}

	return f, nil
}

func (f *Factory) Open(ctx context.Context, device session.Device, creds session.Credentials, connectTimeout time.Duration) (session.Session, error) {
	addr := net.JoinHostPort(device.Address, fmt.Sprint(device.Port))

	config := &ssh.ClientConfig{
		User:    creds.Username,
		Auth:    []ssh.AuthMethod{ssh.Password(creds.Password)},
		Timeout: connectTimeout,
	}

	if f.insecure {
		config.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	} else {
		config.HostKeyCallback = f.knownHosts.HostKeyCallback()
		config.HostKeyAlgorithms = f.knownHosts.HostKeyAlgorithms(addr)
	}

	dialer := net.Dialer{Timeout: connectTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, session.NewError(classifyDial(err), device.Name, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, session.NewError(classifyHandshake(err), device.Name, err)
	}

	return &sshSession{
		device: device.Name,
		client: ssh.NewClient(sshConn, chans, reqs),
	}, nil
}

type sshSession struct {
	device string
	client *ssh.Client
	mu     sync.Mutex
	closed bool
}

func (s *sshSession) Execute(ctx context.Context, command string, timeout time.Duration) (string, time.Duration, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return "", 0, session.NewError(session.ClosedMidCommand, s.device, nil)
	}

	ch, err := s.client.NewSession()
	if err != nil {
		s.markClosed()
		return "", 0, session.NewError(session.ClosedMidCommand, s.device, err)
	}
	defer ch.Close()

	type result struct {
		output []byte
		err    error
	}

	start := time.Now()
	done := make(chan result, 1)

	go func() {
		out, err := ch.CombinedOutput(command)
		done <- result{output: out, err: err}
	}()

	select {
	case res := <-done:
		elapsed := time.Since(start)
		if res.err != nil {
			if _, ok := res.err.(*ssh.ExitError); ok {
				return string(res.output), elapsed, res.err
			}
			s.markClosed()
			return string(res.output), elapsed, session.NewError(session.ClosedMidCommand, s.device, res.err)
		}
		return string(res.output), elapsed, nil
	case <-time.After(timeout):
		// the channel is torn down by the deferred close;
		// the client connection stays usable
		return "", time.Since(start), session.NewError(session.Timeout, s.device,
			fmt.Errorf("command exceeded %v", timeout))
	case <-ctx.Done():
		return "", time.Since(start), ctx.Err()
	}
}

func (s *sshSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.client.Close()
}

// markClosed tears the transport down after a mid-command
// failure so the connection never outlives the session.
func (s *sshSession) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	s.client.Close()
}

func classifyDial(err error) session.ErrorKind {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return session.Timeout
	}
	return session.Unreachable
}

func classifyHandshake(err error) session.ErrorKind {
	if strings.Contains(err.Error(), "unable to authenticate") ||
		strings.Contains(err.Error(), "permission denied") {
		return session.AuthFailure
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return session.Timeout
	}
	return session.Unreachable
}
