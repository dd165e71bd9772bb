// Command bw is the bookwatch CLI — it polls a Cobot booking calendar,
// detects new and cancelled reservations between runs, keeps a full
// audit trail of every observation, and notifies configured channels.
package main

import (
	"fmt"
	"os"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "--help", "-h", "help":
		printUsage()
		return
	case "--version", "-v", "version":
		fmt.Println("bw", version)
		return
	}

	a, err := newApp()
	if err != nil {
		fatal("%v", err)
	}
	defer a.Close()

	switch os.Args[1] {
	case "monitor":
		os.Exit(a.cmdMonitor(os.Args[2:]))
	case "bookings":
		os.Exit(a.cmdBookings(os.Args[2:]))
	case "schedule":
		os.Exit(a.cmdSchedule(os.Args[2:]))
	case "history":
		os.Exit(a.cmdHistory(os.Args[2:]))
	case "pending":
		os.Exit(a.cmdPending(os.Args[2:]))
	case "redeliver":
		os.Exit(a.cmdRedeliver(os.Args[2:]))

	default:
		fmt.Fprintf(os.Stderr, "bw: unknown command %q\n", os.Args[1])
		fmt.Fprintln(os.Stderr, "Run 'bw --help' for usage.")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`bw — booking monitor for Cobot coworking spaces

Polls the booking calendar, diffs against the last observation, stores
every snapshot in a per-resource append-only log, and notifies the
configured channels about new and cancelled bookings.

Usage:
  bw <command> [flags]

Commands:
  monitor [--resource IDS] [--days N]   Run one observation cycle
  bookings [--resource ID] [--days N]   List current bookings
  schedule <resource> [--days N]        Weekly schedule for a resource
  history [--resource ID] [--limit N]   Inspect recorded snapshots
  pending                               List undelivered notifications
  redeliver                             Retry undelivered notifications

Environment (all prefixed COBOT_):
  COBOT_ACCESS_TOKEN   API access token (required)
  COBOT_SPACE_ID       Cobot space id (required)
  COBOT_API_BASE       API endpoint (default: https://api.cobot.me)
  COBOT_DATA_DIR       Snapshot/audit/ledger dir (default: .bookwatch)
  COBOT_TELEGRAM_TOKEN, COBOT_TELEGRAM_CHAT_ID, COBOT_TELEGRAM_FORMAT
  COBOT_RESEND_API_KEY, COBOT_EMAIL_FROM, COBOT_EMAIL_TO

A .env file in the working directory is loaded if present.
All commands support --json for machine-readable output.

Exit codes:
  0  success
  1  error
  2  partial monitor cycle (some resource failed fetch or persist)
`)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "bw: "+format+"\n", args...)
	os.Exit(1)
}
