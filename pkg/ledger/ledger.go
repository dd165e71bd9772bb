// Package ledger records notification dispatch in SQLite.
//
// The snapshot log alone gives "no duplicates": events are diffed
// against the last persisted snapshot, so a change is only ever derived
// once. But persist-then-notify loses notifications when the process
// dies between the two steps. The ledger closes that gap as an outbox:
// change events are enqueued right after the snapshot append succeeds,
// dispatched, and marked delivered. Rows left pending by a crash or a
// failed channel are retried on the next invocation.
//
// SQLite in WAL mode with a busy timeout handles the case where a
// scheduler overlaps two invocations on the same ledger file.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bookwatch/bookwatch/pkg/model"

	_ "modernc.org/sqlite"
)

// Ledger manages the outbox table.
type Ledger struct {
	db *sql.DB
}

// Entry is one outbox row: a change event awaiting (or past) delivery.
type Entry struct {
	ID          string            `json:"id"`
	ResourceID  string            `json:"resource_id"`
	Event       model.ChangeEvent `json:"event"`
	EnqueuedAt  time.Time         `json:"enqueued_at"`
	DeliveredAt *time.Time        `json:"delivered_at,omitempty"`
}

// New opens (or creates) the ledger database and initializes the schema.
func New(path string) (*Ledger, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error { return l.db.Close() }

func (l *Ledger) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS outbox (
		seq          INTEGER PRIMARY KEY AUTOINCREMENT,
		id           TEXT NOT NULL UNIQUE,
		resource_id  TEXT NOT NULL,
		event        TEXT NOT NULL,
		enqueued_at  TEXT NOT NULL,
		delivered_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(delivered_at) WHERE delivered_at IS NULL;
	CREATE INDEX IF NOT EXISTS idx_outbox_resource ON outbox(resource_id, seq);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Enqueue inserts one row per change event, in diff order, in a single
// transaction. seq preserves per-resource dispatch order across runs.
func (l *Ledger) Enqueue(resourceID string, events []model.ChangeEvent) ([]Entry, error) {
	if len(events) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	entries := make([]Entry, 0, len(events))

	err := retryOnContention(func() error {
		tx, err := l.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		inserted := make([]Entry, 0, len(events))
		for _, e := range events {
			body, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("marshal event for %s: %w", e.Booking.ID, err)
			}
			entry := Entry{
				ID:         uuid.NewString(),
				ResourceID: resourceID,
				Event:      e,
				EnqueuedAt: now,
			}
			_, err = tx.Exec(
				`INSERT INTO outbox (id, resource_id, event, enqueued_at) VALUES (?, ?, ?, ?)`,
				entry.ID, resourceID, string(body), now.Format(time.RFC3339Nano),
			)
			if err != nil {
				return err
			}
			inserted = append(inserted, entry)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		entries = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Pending returns undelivered entries in enqueue order. An empty
// resourceID selects all resources.
func (l *Ledger) Pending(resourceID string) ([]Entry, error) {
	query := `SELECT id, resource_id, event, enqueued_at, delivered_at
	          FROM outbox WHERE delivered_at IS NULL`
	args := []any{}
	if resourceID != "" {
		query += ` AND resource_id = ?`
		args = append(args, resourceID)
	}
	query += ` ORDER BY seq`

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// MarkDelivered stamps an entry as delivered. Idempotent: a second call
// keeps the original delivery time.
func (l *Ledger) MarkDelivered(id string) error {
	return retryOnContention(func() error {
		_, err := l.db.Exec(
			`UPDATE outbox SET delivered_at = ? WHERE id = ? AND delivered_at IS NULL`,
			time.Now().UTC().Format(time.RFC3339Nano), id,
		)
		return err
	})
}

// CountPending returns the number of undelivered entries.
func (l *Ledger) CountPending() (int64, error) {
	var n int64
	err := l.db.QueryRow(`SELECT COUNT(*) FROM outbox WHERE delivered_at IS NULL`).Scan(&n)
	return n, err
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			entry       Entry
			body        string
			enqueuedAt  string
			deliveredAt sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.ResourceID, &body, &enqueuedAt, &deliveredAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(body), &entry.Event); err != nil {
			return nil, fmt.Errorf("decode outbox entry %s: %w", entry.ID, err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, enqueuedAt); err == nil {
			entry.EnqueuedAt = ts
		}
		if deliveredAt.Valid {
			if ts, err := time.Parse(time.RFC3339Nano, deliveredAt.String); err == nil {
				entry.DeliveredAt = &ts
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
