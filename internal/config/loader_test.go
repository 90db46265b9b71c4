package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edgard/resumobot/internal/config"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, `
telegram:
  token: "123456:test-token"
gemini:
  api_key: "test-api-key"
`)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Logger.Level != "info" {
		t.Errorf("Logger.Level = %q, want %q", cfg.Logger.Level, "info")
	}
	if cfg.Gemini.ModelName != "gemini-2.5-flash-lite" {
		t.Errorf("Gemini.ModelName = %q, want default model", cfg.Gemini.ModelName)
	}
	if cfg.Gemini.Temperature != 0 {
		t.Errorf("Gemini.Temperature = %v, want 0", cfg.Gemini.Temperature)
	}
	if cfg.Gemini.MaxOutputTokens != 1000 {
		t.Errorf("Gemini.MaxOutputTokens = %d, want 1000", cfg.Gemini.MaxOutputTokens)
	}
	if cfg.Retention.MarkerTTL != 24*time.Hour {
		t.Errorf("Retention.MarkerTTL = %v, want 24h", cfg.Retention.MarkerTTL)
	}
	if cfg.Retention.MessageTTL != 7*24*time.Hour {
		t.Errorf("Retention.MessageTTL = %v, want 168h", cfg.Retention.MessageTTL)
	}
	if cfg.Summary.DefaultLimit != 50 || cfg.Summary.MaxLimit != 300 {
		t.Errorf("Summary limits = (%d, %d), want (50, 300)", cfg.Summary.DefaultLimit, cfg.Summary.MaxLimit)
	}
	if task, ok := cfg.Scheduler.Tasks["retention_purge"]; !ok || !task.Enabled {
		t.Errorf("Scheduler.Tasks[retention_purge] = %+v, want enabled default", task)
	}
	if cfg.Messages.NothingToSum == "" {
		t.Error("Messages.NothingToSum is empty, want default template")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfigFile(t, `
telegram:
  token: "123456:test-token"
gemini:
  api_key: "test-api-key"
  max_output_tokens: 2000
summary:
  default_limit: 25
  max_limit: 100
retention:
  marker_ttl: 48h
`)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Gemini.MaxOutputTokens != 2000 {
		t.Errorf("Gemini.MaxOutputTokens = %d, want 2000", cfg.Gemini.MaxOutputTokens)
	}
	if cfg.Summary.DefaultLimit != 25 || cfg.Summary.MaxLimit != 100 {
		t.Errorf("Summary limits = (%d, %d), want (25, 100)", cfg.Summary.DefaultLimit, cfg.Summary.MaxLimit)
	}
	if cfg.Retention.MarkerTTL != 48*time.Hour {
		t.Errorf("Retention.MarkerTTL = %v, want 48h", cfg.Retention.MarkerTTL)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "Missing telegram token",
			content: "gemini:\n  api_key: \"key\"\n",
		},
		{
			name:    "Missing gemini api key",
			content: "telegram:\n  token: \"tok\"\n",
		},
		{
			name: "Max limit below default limit",
			content: `
telegram:
  token: "tok"
gemini:
  api_key: "key"
summary:
  default_limit: 100
  max_limit: 50
`,
		},
		{
			name: "Invalid log level",
			content: `
telegram:
  token: "tok"
gemini:
  api_key: "key"
logger:
  level: verbose
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := config.LoadConfig(path)
			if err == nil {
				t.Fatal("LoadConfig() error = nil, want validation error")
			}
			if !errors.Is(err, config.ErrConfiguration) {
				t.Errorf("LoadConfig() error = %v, want ErrConfiguration", err)
			}
		})
	}
}
