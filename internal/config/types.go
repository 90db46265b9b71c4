// Package config manages application configuration from defaults, an optional
// config.yaml file, and BOT_* environment variables.
package config

import "time"

// Config defines the full application configuration for ResumoBot.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Retention RetentionConfig `mapstructure:"retention"`
	Summary   SummaryConfig   `mapstructure:"summary"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds gateway settings.
type TelegramConfig struct {
	Token       string        `mapstructure:"token"        validate:"required"`
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"required,min=1s,max=1m"`
}

// GeminiConfig holds summarizer backend settings. The defaults mirror the
// production deployment: a deterministic, bounded generation so redelivered
// commands produce stable output.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"             validate:"required"`
	ModelName         string        `mapstructure:"model_name"          validate:"required"`
	Temperature       float32       `mapstructure:"temperature"         validate:"min=0,max=2"`
	MaxOutputTokens   int32         `mapstructure:"max_output_tokens"   validate:"required,min=1,max=8192"`
	Instruction       string        `mapstructure:"instruction"         validate:"required"`
	Timeout           time.Duration `mapstructure:"timeout"             validate:"required,min=1s,max=10m"`
	MaxRetries        int           `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int           `mapstructure:"retry_delay_seconds" validate:"min=0,max=60"`
}

// DatabaseConfig holds store settings.
type DatabaseConfig struct {
	Path      string        `mapstructure:"path"       validate:"required"`
	OpTimeout time.Duration `mapstructure:"op_timeout" validate:"required,min=100ms,max=1m"`
}

// RetentionConfig holds record expiry windows. Retention is the only deletion
// mechanism: markers and messages carry an expires_at and a scheduled purge
// removes them, while reads always filter expired rows so correctness never
// depends on purge timing.
type RetentionConfig struct {
	MarkerTTL  time.Duration `mapstructure:"marker_ttl"  validate:"required,min=1h"`
	MessageTTL time.Duration `mapstructure:"message_ttl" validate:"required,min=1h"`
}

// SummaryConfig holds summarization window settings.
type SummaryConfig struct {
	DefaultLimit int `mapstructure:"default_limit" validate:"required,min=1"`
	MaxLimit     int `mapstructure:"max_limit"     validate:"required,min=1,gtefield=DefaultLimit"`
}

// SchedulerConfig maps task names to their cron schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds user-facing reply templates.
type MessagesConfig struct {
	ReadingHistory   string `mapstructure:"reading_history"    validate:"required"`
	NothingToSum     string `mapstructure:"nothing_to_sum"     validate:"required"`
	SummarizerFailed string `mapstructure:"summarizer_failed"  validate:"required"`
	Welcome          string `mapstructure:"welcome"            validate:"required"`
	Help             string `mapstructure:"help"               validate:"required"`
}
