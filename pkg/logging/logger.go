// Package logging wraps zerolog for clef. Interactive runs get console
// output on stderr; anything else gets JSON so batch jobs leave
// parseable logs behind.
//
//	ctx = logging.WithLogger(ctx, app.Logger())
//	ctx = logging.WithProject(ctx, "CMIP6")
//	logging.FromContext(ctx).Debug().Int("found", n).Msg("catalog search")
package logging

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger atomic.Pointer[zerolog.Logger]

func init() {
	l := NewLoggerFromConfig(ConfigFromEnv())
	defaultLogger.Store(&l)
}

// Default returns the process-wide logger. Packages fall back to it when
// no logger was injected.
func Default() *zerolog.Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide logger, including zerolog's
// global log.Logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger.Store(&logger)
	log.Logger = logger
}

// New returns a timestamped JSON logger writing to w at the global level.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(zerolog.GlobalLevel()).With().Timestamp().Logger()
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
