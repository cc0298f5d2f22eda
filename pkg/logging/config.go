package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/coecms/clef/pkg/constants"
	"github.com/rs/zerolog"
)

// Config describes where log lines go and how they look.
type Config struct {
	Level     string // trace, debug, info, warn, error, off
	Format    string // json, console or auto
	Output    string // stderr, stdout, discard or a file path
	NoColor   bool
	AddCaller bool
	Fields    map[string]any
}

// DefaultConfig logs info and above to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:   "info",
		Format:  "auto",
		Output:  "stderr",
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// ConfigFromEnv starts from DefaultConfig and applies LOG_LEVEL,
// LOG_FORMAT and LOG_OUTPUT. DEBUG set without LOG_LEVEL means debug.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = v
	} else if os.Getenv("DEBUG") != "" {
		cfg.Level = "debug"
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		cfg.Output = v
	}
	return cfg
}

// NewLoggerFromConfig builds a logger and sets zerolog's global level to
// match. Debug and trace loggers record the caller.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level := levelOf(cfg.Level)
	zerolog.SetGlobalLevel(level)

	lc := zerolog.New(cfg.writer()).Level(level).With().Timestamp()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		lc = lc.Caller()
	}
	if len(cfg.Fields) > 0 {
		lc = lc.Fields(cfg.Fields)
	}
	return lc.Logger()
}

// Configure builds a logger from cfg and makes it the default.
func Configure(cfg *Config) {
	SetDefault(NewLoggerFromConfig(cfg))
}

var levelAliases = map[string]zerolog.Level{
	"":        zerolog.InfoLevel,
	"warning": zerolog.WarnLevel,
	"off":     zerolog.Disabled,
	"none":    zerolog.Disabled,
}

// levelOf maps a level name to zerolog. Unknown names mean info.
func levelOf(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if l, ok := levelAliases[name]; ok {
		return l
	}
	l, err := zerolog.ParseLevel(name)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

func (c *Config) writer() io.Writer {
	out := openOutput(c.Output)

	format := strings.ToLower(c.Format)
	if format == "" || format == "auto" {
		format = "json"
		if out == os.Stderr && stderrIsTerminal() {
			format = "console"
		}
	}
	if format != "console" && format != "pretty" {
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: c.NoColor}
}

// openOutput falls back to stderr when a log file cannot be opened.
func openOutput(target string) io.Writer {
	switch strings.ToLower(target) {
	case "", "stderr":
		return os.Stderr
	case "stdout":
		return os.Stdout
	case "discard", "none":
		return io.Discard
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return os.Stderr
	}
	return f
}
