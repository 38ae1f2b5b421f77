package env

import (
	"time"

	"github.com/convoy-cloud/convoy/pkg/log"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

var variables = new(Environment)

// Process the environment variables set for convoy.
func Process() error {
	if err := envconfig.Process("convoy", variables); err != nil {
		return errors.Wrap(err, "failed to process environment variables")
	}

	// set the log level
	if err := log.SetLevel(variables.LogLevel); err != nil {
		return errors.Wrap(err, "failed to set log level")
	}

	return nil
}

// Variables returns the processed environment variables.
func Variables() Environment {
	return *variables
}

// Environment defines the environment variables used
// by convoy.
type Environment struct {
	LogLevel       string        `default:"info" split_words:"true"`
	Port           int           `default:"8080"`
	DatabaseType   string        `default:"sqlite" split_words:"true"`
	DatabaseDSN    string        `default:"convoy.db" envconfig:"database_dsn"`
	OutputDir      string        `default:"/var/lib/convoy/output" split_words:"true"`
	ConnectTimeout time.Duration `default:"30s" split_words:"true"`
	CommandTimeout time.Duration `default:"60s" split_words:"true"`
	// MockSessions enables the simulated session factory. It is
	// recorded on every job it creates and is never enabled as a
	// fallback from a real connection failure.
	MockSessions        bool   `default:"false" split_words:"true"`
	KnownHostsFile      string `default:"" split_words:"true"`
	InsecureSkipHostKey bool   `default:"false" split_words:"true"`
}
