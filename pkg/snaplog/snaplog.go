// Package snaplog persists booking snapshots as per-resource,
// append-only JSONL logs.
//
// One file per resource (bookings_<resource_id>.jsonl), one complete
// JSON record per line, synced before Append returns. The log is the
// permanent audit trail: nothing is ever compacted, rewritten, or
// deleted, and "latest snapshot" is simply the last valid line.
//
// The record format is a durable contract. Unknown fields in old or
// future records are ignored on read, and a torn final line left by a
// crashed writer is skipped rather than treated as corruption.
package snaplog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bookwatch/bookwatch/pkg/model"
)

// ErrNoSnapshot is returned by Latest when no snapshot has ever been
// recorded for the resource.
var ErrNoSnapshot = errors.New("no snapshot recorded")

// maxRecordSize bounds a single snapshot line on read. 8 MiB covers
// thousands of bookings per snapshot.
const maxRecordSize = 8 << 20

// Store writes and reads per-resource snapshot logs under a data
// directory. Logs for different resources are independent files, so
// appends for resource A never block reads or appends for resource B.
type Store struct {
	dir string
}

// New creates the data directory if needed and returns a store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the log file path for a resource.
func (s *Store) Path(resourceID string) string {
	return filepath.Join(s.dir, "bookings_"+sanitize(resourceID)+".jsonl")
}

// sanitize keeps resource ids safe for use in file names. Upstream ids
// are opaque strings; anything outside [A-Za-z0-9._-] becomes '-'.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_' || r == '-':
			return r
		default:
			return '-'
		}
	}, id)
}

// Append durably writes one snapshot to the resource's log. The record
// is marshalled to a single line, written with one Write call on an
// O_APPEND handle, and fsynced before Append returns. A crash mid-call
// leaves at most a torn final line, which readers skip; earlier entries
// are never affected.
func (s *Store) Append(snap model.Snapshot) error {
	line, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot for %s: %w", snap.ResourceID, err)
	}
	line = append(line, '\n')

	path := s.Path(snap.ResourceID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open snapshot log %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append snapshot to %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync snapshot log %s: %w", path, err)
	}
	return nil
}

// Latest returns the most recently appended snapshot for the resource,
// or ErrNoSnapshot if the log is absent or holds no valid record.
func (s *Store) Latest(resourceID string) (model.Snapshot, error) {
	entries, err := s.scan(resourceID, 1)
	if err != nil {
		return model.Snapshot{}, err
	}
	if len(entries) == 0 {
		return model.Snapshot{}, ErrNoSnapshot
	}
	return entries[len(entries)-1], nil
}

// History returns up to limit most recent snapshots for the resource,
// oldest first. limit <= 0 means all.
func (s *Store) History(resourceID string, limit int) ([]model.Snapshot, error) {
	return s.scan(resourceID, limit)
}

// scan reads the whole log linearly and keeps the last keep entries
// (keep <= 0 keeps all). Invalid lines are skipped: a torn final line
// from a crashed writer must not poison the log, and forward
// compatibility means we never reject a line for unknown fields.
func (s *Store) scan(resourceID string, keep int) ([]model.Snapshot, error) {
	path := s.Path(resourceID)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open snapshot log %s: %w", path, err)
	}
	defer f.Close()

	var entries []model.Snapshot
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var snap model.Snapshot
		if err := json.Unmarshal(line, &snap); err != nil {
			continue
		}
		entries = append(entries, snap)
		if keep > 0 && len(entries) > keep {
			entries = entries[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot log %s: %w", path, err)
	}
	return entries, nil
}
