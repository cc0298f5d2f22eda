// Package app provides the application context and dependency management
// for the clef CLI. It centralizes configuration, logging and the
// lazily opened catalog and inventory connections.
package app

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coecms/clef/internal/appcontext"
	"github.com/coecms/clef/pkg/errors"
	"github.com/coecms/clef/pkg/esgf"
	"github.com/coecms/clef/pkg/inventory"
	"github.com/coecms/clef/pkg/reconcile"
)

// App represents the clef application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	out    io.Writer
	now    func() time.Time

	mu        sync.Mutex
	catalog   esgf.Searcher
	inventory reconcile.Inventory
	store     *inventory.Store
}

// Option configures an App.
type Option func(*App) error

// WithConfig replaces the loaded configuration.
func WithConfig(c *Config) Option {
	return func(a *App) error {
		if c == nil {
			return errors.NewConfigError("app", "nil config", nil)
		}
		a.config = c
		return nil
	}
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = l
		return nil
	}
}

// WithCatalog sets the catalog instead of connecting to esgf.node.
func WithCatalog(s esgf.Searcher) Option {
	return func(a *App) error {
		a.catalog = s
		return nil
	}
}

// WithInventory sets the inventory instead of opening database.dsn.
func WithInventory(inv reconcile.Inventory) Option {
	return func(a *App) error {
		a.inventory = inv
		return nil
	}
}

// WithOutput sets where command results are written.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}

// WithClock sets the time source used for request files and the query log.
func WithClock(now func() time.Time) Option {
	return func(a *App) error {
		a.now = now
		return nil
	}
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		out:     os.Stdout,
		now:     time.Now,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the --format value.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Settings returns the queue and request locations.
func (a *App) Settings() appcontext.Settings {
	return appcontext.Settings{
		QueueDir:   a.config.QueueDir,
		RequestDir: a.config.RequestDir,
		User:       a.config.User,
	}
}

// Now returns the current time.
func (a *App) Now() time.Time {
	return a.now()
}

// LogQuery records the query in the audit log.
func (a *App) LogQuery(project, flow, text string, constraints map[string][]string) {
	q := &queryLog{dir: a.config.QueryLogDir, logger: a.logger, now: a.now}
	q.record(a.config.User, project, flow, constraints, text)
}

// Reconciler returns a reconciler over the catalog and the inventory.
// Connections are opened on first use and reused afterwards.
func (a *App) Reconciler() (*reconcile.Reconciler, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.catalog == nil {
		a.catalog = esgf.NewClient(
			esgf.WithNode(a.config.ESGFNode),
			esgf.WithTimeout(a.config.ESGFTimeout),
			esgf.WithLogger(a.logger),
		)
	}
	if a.inventory == nil {
		store, err := inventory.Open(inventory.Config{
			Driver: a.config.DatabaseDriver,
			DSN:    a.config.DatabaseDSN,
			Debug:  a.config.DatabaseDebug,
		})
		if err != nil {
			return nil, err
		}
		a.store = store.WithLogger(a.logger)
		a.inventory = a.store
	}
	return reconcile.New(a.catalog, a.inventory, reconcile.WithLogger(a.logger)), nil
}

// Shutdown closes the inventory connection if one was opened.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return errors.WrapResource("close", "inventory", "", err)
}

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)
