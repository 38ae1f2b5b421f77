package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/convoy-cloud/convoy/internal/models"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(Timeout, "core-rtr-01", fmt.Errorf("dial tcp: i/o timeout"))
	require.Contains(t, err.Error(), "timeout")
	require.Contains(t, err.Error(), "core-rtr-01")

	bare := NewError(Unreachable, "edge-01", nil)
	require.Contains(t, bare.Error(), "unreachable")
}

func TestKindOf(t *testing.T) {
	err := NewError(AuthFailure, "core-rtr-01", nil)
	require.Equal(t, AuthFailure, KindOf(err))

	wrapped := fmt.Errorf("device worker: %w", err)
	require.Equal(t, AuthFailure, KindOf(wrapped))

	require.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	require.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("CONVOY_CRED_CORE_NET_USERNAME", "automation")
	t.Setenv("CONVOY_CRED_CORE_NET_PASSWORD", "hunter2")

	creds, err := EnvCredentials("core-net")
	require.NoError(t, err)
	require.Equal(t, "automation", creds.Username)
	require.Equal(t, "hunter2", creds.Password)

	_, err = EnvCredentials("missing")
	require.Error(t, err)
}

type stubProtocol struct {
	opened []Device
	creds  Credentials
}

func (s *stubProtocol) Open(_ context.Context, device Device, creds Credentials, _ time.Duration) (Session, error) {
	s.opened = append(s.opened, device)
	s.creds = creds
	return nil, NewError(Unreachable, device.Name, nil)
}

func TestFactoryDispatchesByProtocol(t *testing.T) {
	stub := &stubProtocol{}

	resolve := func(ref string) (Credentials, error) {
		return Credentials{Username: "automation"}, nil
	}

	f := NewFactory(resolve, map[models.Protocol]ProtocolFactory{
		models.ProtocolSSH: stub,
	})

	_, err := f.Open(context.Background(), Device{
		Name:     "core-rtr-01",
		Protocol: models.ProtocolSSH,
	}, time.Second)
	require.Equal(t, Unreachable, KindOf(err))
	require.Len(t, stub.opened, 1)
	require.Equal(t, "automation", stub.creds.Username)

	_, err = f.Open(context.Background(), Device{
		Name:     "legacy-sw-01",
		Protocol: models.Protocol("x25"),
	}, time.Second)
	require.Equal(t, Unreachable, KindOf(err))
	require.Len(t, stub.opened, 1, "unsupported protocol must not reach a factory")
}

func TestFactorySurfacesCredentialFailureAsAuth(t *testing.T) {
	resolve := func(ref string) (Credentials, error) {
		return Credentials{}, fmt.Errorf("reference %q not found", ref)
	}

	f := NewFactory(resolve, map[models.Protocol]ProtocolFactory{
		models.ProtocolSSH: &stubProtocol{},
	})

	_, err := f.Open(context.Background(), Device{
		Name:     "core-rtr-01",
		Protocol: models.ProtocolSSH,
	}, time.Second)
	require.Equal(t, AuthFailure, KindOf(err))
}
