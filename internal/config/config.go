// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Database types
const (
	SQLiteDatabase = "sqlite"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	PrivateKey  string   `mapstructure:"privatekey"`

	// Visitor identity settings
	VisitorCookieDays int `mapstructure:"visitorcookiedays"`

	// Ingestion settings
	IngestTimeoutMs int `mapstructure:"ingesttimeoutms"`
	IngestQueueSize int `mapstructure:"ingestqueuesize"`
	IngestWorkers   int `mapstructure:"ingestworkers"`

	// File paths
	DatabasePath          string `mapstructure:"storagepath"`
	DatabaseName          string `mapstructure:"-"` // Derived from other settings
	GeoDBPath             string `mapstructure:"geodbpath"`
	PublicDirectory       string `mapstructure:"publicdir"`
	PublicAssetsUrlPrefix string `mapstructure:"publicassetsurlprefix"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseType         string `mapstructure:"dbtype"`
	DatabaseMaxOpenConns int    `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int    `mapstructure:"dbmaxidleconns"`

	// Job scheduling settings
	JobIntervalSeconds int `mapstructure:"jobintervalseconds"`

	// Data retention settings (0 disables the cleanup job)
	EventRetentionDays int `mapstructure:"eventretentiondays"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		// Set defaults
		v.SetDefault("appname", "backbeat")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("privatekey", "88888888888888888888888888888888")
		v.SetDefault("visitorcookiedays", 90)
		v.SetDefault("ingesttimeoutms", 2000)
		v.SetDefault("ingestqueuesize", 1024)
		v.SetDefault("ingestworkers", 4)
		v.SetDefault("storagepath", "storage")
		v.SetDefault("geodbpath", "storage/GeoLite2-Country.mmdb")
		v.SetDefault("publicdir", "web/dist/assets")
		v.SetDefault("publicassetsurlprefix", "/")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbtype", SQLiteDatabase)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("jobintervalseconds", 300)
		v.SetDefault("eventretentiondays", 90)

		// Bind environment variables
		v.BindEnv("appname", "BACKBEAT_APP_NAME")
		v.BindEnv("appport", "BACKBEAT_APP_PORT")
		v.BindEnv("environment", "BACKBEAT_ENV")
		v.BindEnv("loglevel", "BACKBEAT_LOG_LEVEL")
		v.BindEnv("privatekey", "BACKBEAT_PRIVATE_KEY")
		v.BindEnv("visitorcookiedays", "BACKBEAT_VISITOR_COOKIE_DAYS")
		v.BindEnv("ingesttimeoutms", "BACKBEAT_INGEST_TIMEOUT_MS")
		v.BindEnv("ingestqueuesize", "BACKBEAT_INGEST_QUEUE_SIZE")
		v.BindEnv("ingestworkers", "BACKBEAT_INGEST_WORKERS")
		v.BindEnv("storagepath", "BACKBEAT_STORAGE_PATH")
		v.BindEnv("geodbpath", "BACKBEAT_GEO_DB_PATH")
		v.BindEnv("publicdir", "BACKBEAT_PUBLIC_DIR")
		v.BindEnv("publicassetsurlprefix", "BACKBEAT_PUBLIC_ASSETS_URL_PREFIX")
		v.BindEnv("logsdir", "BACKBEAT_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "BACKBEAT_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "BACKBEAT_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "BACKBEAT_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbtype", "BACKBEAT_DB_TYPE")
		v.BindEnv("dbmaxopenconns", "BACKBEAT_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "BACKBEAT_DB_MAX_IDLE_CONNS")
		v.BindEnv("jobintervalseconds", "BACKBEAT_JOB_INTERVAL_SECONDS")
		v.BindEnv("eventretentiondays", "BACKBEAT_EVENT_RETENTION_DAYS")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		// Validate
		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		// Set derived values
		cfg.DatabaseName = cfg.GetDatabasePath()

		// Validate private key - in production, must be explicitly set (not empty, not default)
		defaultKey := "88888888888888888888888888888888"
		if cfg.PrivateKey == "" {
			log.Fatal("Private key is required")
		}
		if cfg.IsProduction() && cfg.PrivateKey == defaultKey {
			log.Fatal("Production requires a unique BACKBEAT_PRIVATE_KEY (cannot use default)")
		}
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validDBTypes := map[string]bool{
		SQLiteDatabase: true,
	}
	if !validDBTypes[c.DatabaseType] {
		return fmt.Errorf("invalid database type: %s", c.DatabaseType)
	}

	if c.VisitorCookieDays <= 0 {
		return fmt.Errorf("invalid visitor cookie window: %d days", c.VisitorCookieDays)
	}

	if c.IngestTimeoutMs <= 0 {
		return fmt.Errorf("invalid ingest timeout: %dms", c.IngestTimeoutMs)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetPublicDirectory returns the path to public/static assets (implements cartridge.Config interface).
func (c *Config) GetPublicDirectory() string {
	return c.PublicDirectory
}

// GetAssetsPrefix returns the URL prefix for static assets (implements cartridge.Config interface).
func (c *Config) GetAssetsPrefix() string {
	return c.PublicAssetsUrlPrefix
}

// GetAppName returns the application name (implements cartridge.FactoryConfig interface).
func (c *Config) GetAppName() string {
	return c.AppName
}

// DatabaseDSN returns the database connection string (implements cartridge.FactoryConfig interface).
func (c *Config) DatabaseDSN() string {
	return c.GetDatabasePath()
}

// GetSessionSecret returns the session encryption key (implements cartridge.FactoryConfig interface).
func (c *Config) GetSessionSecret() string {
	return c.PrivateKey
}

// GetVisitorCookieMaxAge returns the visitor cookie lifetime in seconds.
// The window is sliding: it is re-applied on every request that presents
// or receives the cookie.
func (c *Config) GetVisitorCookieMaxAge() int {
	return c.VisitorCookieDays * 24 * 60 * 60
}

// GetIngestTimeout returns the write budget for one ingestion task.
func (c *Config) GetIngestTimeout() time.Duration {
	return time.Duration(c.IngestTimeoutMs) * time.Millisecond
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1 (required for E2E test stability)
// - Development/Production: 10 (allows concurrent reads for parallel stats queries)
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
