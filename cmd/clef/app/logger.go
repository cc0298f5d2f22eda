package app

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/coecms/clef/pkg/constants"
	"github.com/coecms/clef/pkg/logging"
)

// NewLogger creates a configured logger based on the application configuration.
// Log level precedence (highest to lowest):
//  1. --log-level flag or LOG_LEVEL
//  2. --debug/--verbose flag (shortcut for debug)
//  3. -q/--quiet flag (shortcut for warn)
//  4. Default (warn, so query output stays clean)
func NewLogger(config *Config) zerolog.Logger {
	level := determineLogLevel(config)
	return logging.NewLoggerFromConfig(&logging.Config{
		Level:     level,
		Format:    config.LogFormat,
		Output:    config.LogOutput,
		AddCaller: level == "debug" || level == "trace",
	})
}

func determineLogLevel(config *Config) string {
	if config.LogLevel != "" {
		validated := validateLogLevel(config.LogLevel)
		if validated != config.LogLevel {
			fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", config.LogLevel, validated)
		}
		return validated
	}
	if config.Verbose && config.Quiet {
		fmt.Fprintf(os.Stderr, "Warning: both --debug and --quiet specified, using --quiet\n")
		return "error"
	}
	if config.Verbose {
		return "debug"
	}
	if config.Quiet {
		return "error"
	}
	return "warn"
}

func validateLogLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	}
	return "info"
}

// queryLog records who asked for what. Lines go to a monthly file under
// dir when dir is set, otherwise to the application logger.
type queryLog struct {
	dir    string
	logger *zerolog.Logger
	now    func() time.Time
}

func (q *queryLog) record(user, project, flow string, args map[string][]string, text string) {
	keys := make([]string, 0, len(args))
	for k, v := range args {
		keys = append(keys, k+"="+strings.Join(v, ","))
	}
	slices.Sort(keys)

	write := func(l zerolog.Logger) {
		l.Info().
			Str("user", user).
			Str("project", project).
			Str("flow", flow).
			Str("query", text).
			Strs("constraints", keys).
			Msg("query")
	}

	if q.dir == "" {
		write(*q.logger)
		return
	}
	name := filepath.Join(q.dir, "clef_log_"+q.now().Format("200601")+".txt")
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions) //nolint:gosec // directory comes from configuration
	if err != nil {
		q.logger.Debug().Err(err).Str("file", name).Msg("query log unavailable")
		write(*q.logger)
		return
	}
	defer func() { _ = f.Close() }()
	write(zerolog.New(f).With().Timestamp().Logger())
}
