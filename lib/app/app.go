// Package app assembles the process-wide dependencies of a binary from its
// configuration.
package app

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/mitchfriedman/soirees/lib/config"
	database "github.com/mitchfriedman/soirees/lib/db"
	"github.com/mitchfriedman/soirees/lib/discovery"
	"github.com/mitchfriedman/soirees/lib/filestore"
	"github.com/mitchfriedman/soirees/lib/logging"
	"github.com/mitchfriedman/soirees/lib/metrics"
)

const traceAgentPort = "8126"

var serviceTags = []string{"api", "microservice", "soirees"}

type App struct {
	Config   *config.Config
	Logger   *logging.LogEntry
	Statsd   *statsd.Client
	Consul   *api.Client
	Registry *discovery.Registry

	db *database.DB
}

func New(serviceName string, port int) (*App, error) {
	cfg, err := config.Load(serviceName, port)
	if err != nil {
		return nil, err
	}

	logger := logging.NewWithLevel(cfg.Service.Name, os.Stdout, cfg.Log.Level, cfg.Log.Format)

	sd, err := metrics.LoadStatsd(cfg.Statsd.Host, cfg.Statsd.Port, cfg.Service.Name, []string{"service:" + cfg.Service.Name}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create statsd client")
	}

	if cfg.Statsd.Host != "" {
		tracer.Start(
			tracer.WithServiceName(cfg.Service.Name),
			tracer.WithAgentAddr(net.JoinHostPort(cfg.Statsd.Host, traceAgentPort)),
		)
	}

	consul, err := discovery.NewConsulClient(cfg.Consul.Address())
	if err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Statsd:   sd,
		Consul:   consul,
		Registry: discovery.NewRegistry(consul),
	}, nil
}

// Locator resolves sibling services through Consul, falling back to the
// configured static addresses.
func (a *App) Locator() *discovery.Locator {
	return discovery.NewLocator(
		discovery.NewConsulBackend(a.Consul),
		a.Config.Fallback.Table(),
		a.Logger,
		discovery.WithTTL(a.Config.Discovery.TTL),
		discovery.WithTimeout(a.Config.Discovery.Timeout),
	)
}

// Registration describes an HTTP service checked on /health.
func (a *App) Registration() discovery.Registration {
	s := a.Config.Service
	return discovery.Registration{
		ID:         fmt.Sprintf("%s-%s-%d", s.Name, s.Host, s.Port),
		Name:       s.Name,
		Address:    s.Host,
		Port:       s.Port,
		Tags:       serviceTags,
		HealthPath: "/health",
	}
}

func (a *App) Listen() (net.Listener, error) {
	addr := fmt.Sprintf(":%d", a.Config.Service.Port)
	ln, err := net.Listen("tcp", addr)
	return ln, errors.Wrapf(err, "failed to listen on %s", addr)
}

// FileStore is true when records live in JSON files rather than a database.
func (a *App) FileStore() bool {
	return a.Config.Store.Driver == config.DriverFile
}

func (a *App) Collection(name string) (*filestore.Collection, error) {
	return filestore.New(a.Config.Store.DataDir, name)
}

// Database opens and migrates the configured database on first use.
func (a *App) Database() (*database.DB, error) {
	if a.db != nil {
		return a.db, nil
	}

	var db *database.DB
	var err error
	switch a.Config.Store.Driver {
	case config.DriverPostgres:
		url := a.Config.Store.DatabaseURL
		db, err = database.Connect(url, url, false, a.Logger)
	case config.DriverSQLite:
		if err := os.MkdirAll(a.Config.Store.DataDir, 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create data dir")
		}
		db, err = database.OpenSQLite(filepath.Join(a.Config.Store.DataDir, a.Config.Service.Name+".db"), false, a.Logger)
	default:
		return nil, errors.Errorf("store driver %q has no database", a.Config.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(db, a.Logger); err != nil {
		db.Close()
		return nil, err
	}
	a.db = db
	return db, nil
}

func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.WithError(err).Warn("failed to close database")
		}
	}
	if err := a.Statsd.Close(); err != nil {
		a.Logger.WithError(err).Warn("failed to close statsd client")
	}
	if a.Config.Statsd.Host != "" {
		tracer.Stop()
	}
}
