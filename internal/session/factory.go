package session

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/convoy-cloud/convoy/internal/models"
)

// Credentials is a resolved username/password pair.
type Credentials struct {
	Username string
	Password string
}

// CredentialResolver maps a device's credentials reference
// to a concrete pair. The engine deliberately carries no
// fallback chain: one reference, one lookup.
type CredentialResolver func(ref string) (Credentials, error)

// EnvCredentials resolves a reference against the process
// environment. A reference "core" reads
// CONVOY_CRED_CORE_USERNAME and CONVOY_CRED_CORE_PASSWORD.
func EnvCredentials(ref string) (Credentials, error) {
	key := strings.ToUpper(strings.ReplaceAll(ref, "-", "_"))

	user, ok := os.LookupEnv(fmt.Sprintf("CONVOY_CRED_%s_USERNAME", key))
	if !ok {
		return Credentials{}, fmt.Errorf("credentials reference %q not found", ref)
	}

	pass := os.Getenv(fmt.Sprintf("CONVOY_CRED_%s_PASSWORD", key))

	return Credentials{Username: user, Password: pass}, nil
}

// ProtocolFactory opens sessions for one protocol.
type ProtocolFactory interface {
	Open(ctx context.Context, device Device, creds Credentials, connectTimeout time.Duration) (Session, error)
}

type factory struct {
	resolve   CredentialResolver
	protocols map[models.Protocol]ProtocolFactory
}

// NewFactory builds the protocol-dispatching session
// factory.
func NewFactory(resolve CredentialResolver, protocols map[models.Protocol]ProtocolFactory) Factory {
	return &factory{resolve: resolve, protocols: protocols}
}

func (f *factory) Open(ctx context.Context, device Device, connectTimeout time.Duration) (Session, error) {
	pf, ok := f.protocols[device.Protocol]
	if !ok {
		return nil, NewError(Unreachable, device.Name,
			fmt.Errorf("unsupported protocol: %v", device.Protocol))
	}

	creds, err := f.resolve(device.CredentialsRef)
	if err != nil {
		return nil, NewError(AuthFailure, device.Name, err)
	}

	return pf.Open(ctx, device, creds, connectTimeout)
}
