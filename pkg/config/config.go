// Package config resolves the process configuration from the
// environment, once, at startup.
//
// The config struct is constructed in the cmd layer and passed by
// reference into everything that needs it; no package reads the
// environment on its own. A local .env file is loaded first when
// present, which keeps ad-hoc runs convenient without a settings-file
// resolution cascade.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything bookwatch needs for one invocation.
// All variables carry the COBOT_ prefix (e.g. COBOT_ACCESS_TOKEN).
type Config struct {
	AccessToken string `envconfig:"ACCESS_TOKEN" required:"true"`
	SpaceID     string `envconfig:"SPACE_ID" required:"true"`
	APIBase     string `envconfig:"API_BASE" default:"https://api.cobot.me"`
	DataDir     string `envconfig:"DATA_DIR" default:".bookwatch"`

	FetchTimeout  time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	NotifyTimeout time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`

	// Telegram channel. Unset token or chat id disables the channel.
	TelegramToken  string `envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID string `envconfig:"TELEGRAM_CHAT_ID"`
	TelegramFormat string `envconfig:"TELEGRAM_FORMAT" default:"plain"`

	// Email channel via Resend. Unset API key disables the channel.
	ResendAPIKey string   `envconfig:"RESEND_API_KEY"`
	EmailFrom    string   `envconfig:"EMAIL_FROM"`
	EmailTo      []string `envconfig:"EMAIL_TO"`
}

// Load reads .env (if present) and the COBOT_* environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("cobot", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.TelegramFormat != "plain" && cfg.TelegramFormat != "markdown" {
		return nil, fmt.Errorf("load config: COBOT_TELEGRAM_FORMAT must be plain or markdown, got %q", cfg.TelegramFormat)
	}
	return &cfg, nil
}

// AuditLogPath returns the audit log destination under the data dir.
func (c *Config) AuditLogPath() string {
	return filepath.Join(c.DataDir, "audit.log")
}

// LedgerPath returns the dispatch ledger destination under the data dir.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "ledger.db")
}
