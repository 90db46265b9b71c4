package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps all configuration loading and validation failures.
var ErrConfiguration = errors.New("configuration error")

const defaultInstruction = `You are a data analysis engine for group chat logs.
Process the provided <logs> data and extract the key information.
Rules:
1. No introductions or conclusions. Output only the summary body.
2. Maintain strict chronological order.
3. Identify key topics, decisions and schedules.
4. Tone: dry, objective, concise.
5. Format: Markdown bullet points (-).`

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at configPath (optional)
// 3. BOT_* environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
		}
		// Missing config file is fine, defaults plus env vars apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", true)

	v.SetDefault("telegram.send_timeout", 10*time.Second)

	v.SetDefault("gemini.model_name", "gemini-2.5-flash-lite")
	v.SetDefault("gemini.temperature", 0.0)
	v.SetDefault("gemini.max_output_tokens", 1000)
	v.SetDefault("gemini.instruction", defaultInstruction)
	v.SetDefault("gemini.timeout", 2*time.Minute)
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.retry_delay_seconds", 2)

	v.SetDefault("database.path", "storage.db")
	v.SetDefault("database.op_timeout", 5*time.Second)

	v.SetDefault("retention.marker_ttl", 24*time.Hour)
	v.SetDefault("retention.message_ttl", 7*24*time.Hour)

	v.SetDefault("summary.default_limit", 50)
	v.SetDefault("summary.max_limit", 300)

	v.SetDefault("scheduler.tasks", map[string]TaskConfig{
		"retention_purge": {Enabled: true, Schedule: "0 * * * *"},
		"sql_maintenance": {Enabled: true, Schedule: "0 4 * * *"},
	})

	v.SetDefault("messages.reading_history", "Reading the chat history...")
	v.SetDefault("messages.nothing_to_sum", "There is nothing to summarize yet.")
	v.SetDefault("messages.summarizer_failed", "Sorry, I could not produce a summary right now. Please try again later.")
	v.SetDefault("messages.welcome", "Hi! I keep track of this chat and summarize it on demand. Use /sum [count] to get a summary.")
	v.SetDefault("messages.help", "Commands:\n/sum [count] - summarize the most recent messages\n/help - show this message")
}
