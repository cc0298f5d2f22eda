package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/coecms/clef/pkg/constants"
	"github.com/coecms/clef/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	Format  string

	// Config file
	ConfigFile string

	// Inventory database
	DatabaseDriver string
	DatabaseDSN    string
	DatabaseDebug  bool

	// ESGF search
	ESGFNode    string
	ESGFTimeout time.Duration

	// Download queue and requests
	QueueDir   string
	RequestDir string
	User       string

	// QueryLogDir receives one audit line per query when set.
	QueryLogDir string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.clef.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return loadConfig(viper.New(), "")
}

func loadConfig(v *viper.Viper, configFile string) (*Config, error) {
	loadEnvFiles()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("esgf.node", constants.DefaultNode)
	v.SetDefault("esgf.timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("queue.dir", "/g/data/ua8/Download/CMIP6")
	v.SetDefault("request.dir", ".")

	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+configFile, err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".clef")
		// a missing default config file is fine
		_ = v.ReadInConfig()
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		DatabaseDriver: v.GetString("database.driver"),
		DatabaseDSN:    v.GetString("database.dsn"),
		DatabaseDebug:  v.GetBool("database.debug"),

		ESGFNode:    v.GetString("esgf.node"),
		ESGFTimeout: v.GetDuration("esgf.timeout"),

		QueueDir:    v.GetString("queue.dir"),
		RequestDir:  v.GetString("request.dir"),
		User:        getEnvOrDefault("USER", "unknown"),
		QueryLogDir: v.GetString("query_log.dir"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if config.ESGFTimeout <= 0 {
		config.ESGFTimeout = constants.DefaultHTTPTimeout
	}
	return config, nil
}

// UpdateFromFlags applies parsed global flags. Flag values take
// precedence over config file and environment.
func (c *Config) UpdateFromFlags(verbose, quiet bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
