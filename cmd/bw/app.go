package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bookwatch/bookwatch/pkg/audit"
	"github.com/bookwatch/bookwatch/pkg/cobot"
	"github.com/bookwatch/bookwatch/pkg/config"
	"github.com/bookwatch/bookwatch/pkg/ledger"
	"github.com/bookwatch/bookwatch/pkg/model"
	"github.com/bookwatch/bookwatch/pkg/monitor"
	"github.com/bookwatch/bookwatch/pkg/notify"
	"github.com/bookwatch/bookwatch/pkg/snaplog"
)

// app holds shared state for all CLI subcommands.
type app struct {
	cfg      *config.Config
	client   *cobot.Client
	snaps    *snaplog.Store
	outbox   *ledger.Ledger
	auditLog *audit.Logger
	notifier notify.Notifier
}

// newApp resolves configuration and opens the data directory, snapshot
// store, dispatch ledger, and audit log.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	snaps, err := snaplog.New(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	outbox, err := ledger.New(cfg.LedgerPath())
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger %q: %w", cfg.LedgerPath(), err)
	}

	return &app{
		cfg:      cfg,
		client:   cobot.New(cfg.APIBase, cfg.AccessToken, cfg.SpaceID, cfg.FetchTimeout),
		snaps:    snaps,
		outbox:   outbox,
		auditLog: audit.New(cfg.AuditLogPath()),
		notifier: buildNotifier(cfg),
	}, nil
}

// Close releases the ledger and the audit log file.
func (a *app) Close() {
	a.outbox.Close()
	a.auditLog.Close()
}

// buildNotifier assembles the configured channels. No configured
// channel means Noop: the monitor never special-cases the unconfigured
// state.
func buildNotifier(cfg *config.Config) notify.Notifier {
	var channels notify.Multi
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		channels = append(channels, notify.NewTelegram(
			cfg.TelegramToken, cfg.TelegramChatID,
			notify.Format(cfg.TelegramFormat), cfg.NotifyTimeout))
	}
	if cfg.ResendAPIKey != "" && len(cfg.EmailTo) > 0 {
		channels = append(channels, notify.NewEmail(
			cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailTo, cfg.NotifyTimeout))
	}
	switch len(channels) {
	case 0:
		return notify.Noop{}
	case 1:
		return channels[0]
	default:
		return channels
	}
}

// runner wires the monitor loop from the app's collaborators.
func (a *app) runner() *monitor.Runner {
	return &monitor.Runner{
		SpaceID:   a.cfg.SpaceID,
		Fetcher:   a.client,
		Snapshots: a.snaps,
		Outbox:    a.outbox,
		Audit:     a.auditLog,
		Notifier:  a.notifier,
	}
}

// splitResources parses the --resource flag: a comma-separated list of
// resource ids, empty meaning "whole space".
func splitResources(flagVal string) []string {
	if flagVal == "" {
		return nil
	}
	var out []string
	for _, r := range strings.Split(flagVal, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// --- rendering helpers ---

// formatDate renders a booking date, e.g. "Thu 15 Feb".
func formatDate(t time.Time) string {
	return t.UTC().Format("Mon 02 Jan")
}

// formatTimeRange renders a booking window, e.g. "09:00 - 10:30".
func formatTimeRange(from, to time.Time) string {
	return from.UTC().Format("15:04") + " - " + to.UTC().Format("15:04")
}

// formatBookingInfo renders "name: title", falling back to N/A for an
// empty name and dropping an empty title.
func formatBookingInfo(name, title string) string {
	if name == "" {
		name = "N/A"
	}
	if title == "" {
		return name
	}
	return name + ": " + title
}

// changeMarker renders the per-kind marker used in table output.
func changeMarker(kind model.ChangeKind) string {
	if kind == model.Cancelled {
		return "[-]"
	}
	return "[+]"
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
