package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("COBOT_ACCESS_TOKEN", "tok")
	t.Setenv("COBOT_SPACE_ID", "space-1")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "https://api.cobot.me" {
		t.Fatalf("APIBase = %q", cfg.APIBase)
	}
	if cfg.DataDir != ".bookwatch" {
		t.Fatalf("DataDir = %q", cfg.DataDir)
	}
	if cfg.FetchTimeout != 30*time.Second || cfg.NotifyTimeout != 10*time.Second {
		t.Fatalf("timeouts = %s / %s", cfg.FetchTimeout, cfg.NotifyTimeout)
	}
	if cfg.TelegramFormat != "plain" {
		t.Fatalf("TelegramFormat = %q", cfg.TelegramFormat)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("COBOT_ACCESS_TOKEN", "")
	t.Setenv("COBOT_SPACE_ID", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing required vars")
	}
}

func TestLoad_BadTelegramFormat(t *testing.T) {
	setRequired(t)
	t.Setenv("COBOT_TELEGRAM_FORMAT", "html")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "TELEGRAM_FORMAT") {
		t.Fatalf("err = %v, want telegram format validation error", err)
	}
}

func TestLoad_EmailRecipients(t *testing.T) {
	setRequired(t)
	t.Setenv("COBOT_EMAIL_TO", "a@example.com,b@example.com")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.EmailTo) != 2 || cfg.EmailTo[1] != "b@example.com" {
		t.Fatalf("EmailTo = %v", cfg.EmailTo)
	}
}

func TestPaths_UnderDataDir(t *testing.T) {
	setRequired(t)
	t.Setenv("COBOT_DATA_DIR", "/var/lib/bookwatch")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AuditLogPath() != "/var/lib/bookwatch/audit.log" {
		t.Fatalf("AuditLogPath = %q", cfg.AuditLogPath())
	}
	if cfg.LedgerPath() != "/var/lib/bookwatch/ledger.db" {
		t.Fatalf("LedgerPath = %q", cfg.LedgerPath())
	}
}
