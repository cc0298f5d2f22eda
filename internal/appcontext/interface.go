// Package appcontext defines what commands need from the application:
// a reconciler wired to the catalog and the inventory, a logger, and
// the settings that locate the download queue and request files.
package appcontext

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/coecms/clef/pkg/reconcile"
)

// Settings locate the files the download flows read and write.
type Settings struct {
	// QueueDir holds the <PROJECT>_clef_table.csv queue tables.
	QueueDir string
	// RequestDir receives request files.
	RequestDir string
	// User is written into request file names and the query log.
	User string
}

// Interface is implemented by the application and by Mock.
type Interface interface {
	// Reconciler returns the reconciler, connecting to the catalog and
	// the inventory on first use.
	Reconciler() (*reconcile.Reconciler, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format.
	OutputFormat() string

	// Settings returns the queue and request locations.
	Settings() Settings

	// Now returns the current time, used to stamp request files.
	Now() time.Time

	// LogQuery writes one audit line for a query.
	LogQuery(project, flow, text string, constraints map[string][]string)

	// Version returns the application version string.
	Version() string
	// Commit returns the git commit hash.
	Commit() string
	// Date returns the build date.
	Date() string
	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
