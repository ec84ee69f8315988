package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Scheduler SchedulerConfig
	Jobs      JobsConfig
	OpenAI    OpenAIConfig
	Mail      MailConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	ServerID           string
	BasicAuth          []string
	CorsAllowedOrigins []string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB name for Postgres
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type SchedulerConfig struct {
	Enabled        bool
	RunInterval    time.Duration
	LockTTL        time.Duration
	InterSlotDelay time.Duration
	// MaxPublishAttempts caps how many scheduled runs may retry the publish
	// step of a failed post before the slot becomes a no-op.
	MaxPublishAttempts int
	DefaultKeywords    []string
	HistorySize        int
}

type JobsConfig struct {
	QueueSize   int
	MaxAttempts int
	RetryDelay  time.Duration
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	debug := getEnvBool("APP_DEBUG", false)

	appCfg := AppConfig{
		Version:            "v1.4.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              debug,
		Environment:        getEnv("APP_ENV", "development"),
		ServerID:           getEnv("SERVER_ID", ""),
		BasicAuth:          getEnvList("APP_BASIC_AUTH", nil),
		CorsAllowedOrigins: getEnvList("APP_CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	dbCfg := DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", "sqlite"),
		Name:            getEnv("DB_NAME", filepath.Join(baseDir, "blogsmith.db")),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "blogsmith:"),
	}

	schedCfg := SchedulerConfig{
		Enabled:            getEnvBool("SCHEDULER_ENABLED", true),
		RunInterval:        getEnvDuration("SCHEDULER_RUN_INTERVAL", 10*time.Minute),
		LockTTL:            getEnvDuration("SCHEDULER_LOCK_TTL", 9*time.Minute),
		InterSlotDelay:     getEnvDuration("SCHEDULER_INTER_SLOT_DELAY", 5*time.Second),
		MaxPublishAttempts: getEnvInt("SCHEDULER_MAX_PUBLISH_ATTEMPTS", 5),
		DefaultKeywords:    getEnvList("SCHEDULER_DEFAULT_KEYWORDS", nil),
		HistorySize:        getEnvInt("SCHEDULER_HISTORY_SIZE", 3),
	}

	jobsCfg := JobsConfig{
		QueueSize:   getEnvInt("JOBS_QUEUE_SIZE", 100),
		MaxAttempts: getEnvInt("JOBS_MAX_ATTEMPTS", 3),
		RetryDelay:  getEnvDuration("JOBS_RETRY_DELAY", 30*time.Second),
	}

	openAICfg := OpenAIConfig{
		APIKey:  getEnv("OPENAI_API_KEY", ""),
		Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		Timeout: getEnvDuration("OPENAI_TIMEOUT", 120*time.Second),
	}

	mailCfg := MailConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     getEnvInt("SMTP_PORT", 587),
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "noreply@blogsmith.app"),
	}

	// The lock TTL must stay below the run interval so a crashed holder
	// never blocks the next window's run.
	if schedCfg.LockTTL >= schedCfg.RunInterval {
		return nil, fmt.Errorf("scheduler lock TTL (%v) must be shorter than the run interval (%v)",
			schedCfg.LockTTL, schedCfg.RunInterval)
	}

	cfg := &Config{
		App:       appCfg,
		Database:  dbCfg,
		Scheduler: schedCfg,
		Jobs:      jobsCfg,
		OpenAI:    openAICfg,
		Mail:      mailCfg,
	}

	Global = cfg
	return cfg, nil
}
