package start

import (
	"context"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/convoy-cloud/convoy/api"
	"github.com/convoy-cloud/convoy/internal/engine"
	"github.com/convoy-cloud/convoy/internal/event"
	"github.com/convoy-cloud/convoy/internal/inventory"
	"github.com/convoy-cloud/convoy/internal/metrics"
	"github.com/convoy-cloud/convoy/internal/models"
	"github.com/convoy-cloud/convoy/internal/output"
	"github.com/convoy-cloud/convoy/internal/session"
	"github.com/convoy-cloud/convoy/internal/session/mock"
	sshfactory "github.com/convoy-cloud/convoy/internal/session/ssh"
	"github.com/convoy-cloud/convoy/internal/session/telnet"
	croncfg "github.com/convoy-cloud/convoy/internal/trigger/cron"
	"github.com/convoy-cloud/convoy/pkg/db"
	"github.com/convoy-cloud/convoy/pkg/env"
	"github.com/convoy-cloud/convoy/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const (
	usage   = "start"
	short   = "Start a convoy automation instance"
	long    = "This command starts a convoy batch device-automation instance"
	example = "convoy start"
)

var (
	// Cmd is the start command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		Aliases:    []string{"s"},
		SuggestFor: []string{"launch", "boot", "up", "run", "begin"},
		Example:    example,
		RunE:       start,
	}
)

var cancel context.CancelFunc

func start(cmd *cobra.Command, args []string) error {
	signalChan := make(chan os.Signal, 1)

	go func() {
		for s := range signalChan {
			switch s {
			case syscall.SIGUSR1:
				log.Info("dumping stack traces due to SIGUSR1 signal")
				if profile := pprof.Lookup("goroutine"); profile != nil {
					if err := profile.WriteTo(os.Stdout, 1); err != nil {
						log.Error("write goroutine profile", "error", err)
					}
				}
			case syscall.SIGINT:
				log.Info("gracefully shutting down due to SIGINT signal")
				shutdown()
				os.Exit(0)
			}
		}
	}()

	signal.Notify(signalChan, syscall.SIGUSR1, syscall.SIGINT)

	var errs = make(chan error)
	ctx, cancelFunc := context.WithCancel(context.Background())
	cancel = cancelFunc

	log.Info("migrating database")
	if err := db.Migrate(); err != nil {
		log.Fatal("database migration failure", "error", err)
	}

	vars := env.Variables()

	factory, err := buildFactory(vars)
	if err != nil {
		log.Fatal("session factory configuration failure", "error", err)
	}

	outputs, err := output.NewFileStore(vars.OutputDir)
	if err != nil {
		log.Fatal("output store configuration failure", "error", err)
	}

	metrics.Register(prometheus.DefaultRegisterer)

	bus := event.New()
	conn := db.Connection()

	manager := engine.NewManager(ctx, engine.Config{
		Inventory:      inventory.NewReader(conn),
		Factory:        factory,
		Outputs:        outputs,
		Bus:            bus,
		ConnectTimeout: vars.ConnectTimeout,
		CommandTimeout: vars.CommandTimeout,
		MockSessions:   vars.MockSessions,
	})

	var schedules models.Schedules
	if err := conn.Find(&schedules).Error; err != nil {
		log.Fatal("schedule load failure", "error", err)
	}

	for _, s := range schedules {
		trigger, err := croncfg.New(s, manager)
		if err != nil {
			log.Error("schedule skipped", "alias", s.Alias, "error", err)
			continue
		}

		go trigger.Listen(ctx)
	}

	go func() {
		log.Info("spinning up api", "port", vars.Port)
		errs <- api.Start(manager, conn, bus)
	}()

	defer shutdown()

	return <-errs
}

func buildFactory(vars env.Environment) (session.Factory, error) {
	if vars.MockSessions {
		log.Warn("mock sessions enabled; no real devices will be contacted")
		return mock.NewFactory(), nil
	}

	ssh, err := sshfactory.NewFactory(vars.KnownHostsFile, vars.InsecureSkipHostKey)
	if err != nil {
		return nil, err
	}

	return session.NewFactory(session.EnvCredentials, map[models.Protocol]session.ProtocolFactory{
		models.ProtocolSSH:    ssh,
		models.ProtocolTelnet: telnet.NewFactory(),
	}), nil
}

func shutdown() {
	if cancel != nil {
		cancel()
	}
	if err := api.Shutdown(); err != nil {
		log.Error("api shutdown failure", "error", err)
	}
}
