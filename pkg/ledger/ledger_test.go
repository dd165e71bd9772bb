package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/bookwatch/bookwatch/pkg/model"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := New(path)
	if err != nil {
		t.Fatalf("New(%q): %v", path, err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func changeEvent(id string, kind model.ChangeKind) model.ChangeEvent {
	start, _ := time.Parse(time.RFC3339, "2024-02-15T09:00:00Z")
	return model.ChangeEvent{
		Kind: kind,
		Booking: model.Booking{
			ID:         id,
			ResourceID: "r1",
			Start:      start,
			End:        start.Add(time.Hour),
			PersonName: "Alice",
			Title:      "Sync",
		},
		DetectedAt: start,
	}
}

// --- Enqueue / Pending ---

func TestEnqueue_Empty(t *testing.T) {
	l := newTestLedger(t)
	entries, err := l.Enqueue("r1", nil)
	if err != nil {
		t.Fatalf("Enqueue(nil): %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("got %d entries, want 0", len(entries))
	}
}

func TestEnqueueThenPending(t *testing.T) {
	l := newTestLedger(t)
	events := []model.ChangeEvent{
		changeEvent("a", model.Cancelled),
		changeEvent("b", model.Added),
	}
	entries, err := l.Enqueue("r1", events)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Enqueue returned %d entries, want 2", len(entries))
	}

	pending, err := l.Pending("r1")
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("got %d pending, want 2", len(pending))
	}
	if pending[0].Event.Booking.ID != "a" || pending[1].Event.Booking.ID != "b" {
		t.Fatalf("pending order broken: %s, %s",
			pending[0].Event.Booking.ID, pending[1].Event.Booking.ID)
	}
	if pending[0].Event.Kind != model.Cancelled {
		t.Fatalf("event kind lost in round-trip: %s", pending[0].Event.Kind)
	}
	if pending[0].DeliveredAt != nil {
		t.Fatal("fresh entry already marked delivered")
	}
}

func TestPending_AllResources(t *testing.T) {
	l := newTestLedger(t)
	if _, err := l.Enqueue("r1", []model.ChangeEvent{changeEvent("a", model.Added)}); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Enqueue("r2", []model.ChangeEvent{changeEvent("b", model.Added)}); err != nil {
		t.Fatal(err)
	}

	all, err := l.Pending("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("Pending(\"\") = %d entries, want 2", len(all))
	}
	only, err := l.Pending("r2")
	if err != nil {
		t.Fatal(err)
	}
	if len(only) != 1 || only[0].ResourceID != "r2" {
		t.Fatalf("Pending(r2) = %+v", only)
	}
}

// --- MarkDelivered ---

func TestMarkDelivered(t *testing.T) {
	l := newTestLedger(t)
	entries, err := l.Enqueue("r1", []model.ChangeEvent{
		changeEvent("a", model.Added),
		changeEvent("b", model.Added),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := l.MarkDelivered(entries[0].ID); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}

	pending, err := l.Pending("r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != entries[1].ID {
		t.Fatalf("pending after delivery = %+v", pending)
	}

	n, err := l.CountPending()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("CountPending = %d, want 1", n)
	}
}

func TestMarkDelivered_Idempotent(t *testing.T) {
	l := newTestLedger(t)
	entries, err := l.Enqueue("r1", []model.ChangeEvent{changeEvent("a", model.Added)})
	if err != nil {
		t.Fatal(err)
	}
	if err := l.MarkDelivered(entries[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := l.MarkDelivered(entries[0].ID); err != nil {
		t.Fatalf("second MarkDelivered: %v", err)
	}
}

// --- Persistence across opens ---

func TestPendingSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Enqueue("r1", []model.ChangeEvent{changeEvent("a", model.Added)}); err != nil {
		t.Fatal(err)
	}
	l.Close()

	l2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Close()

	pending, err := l2.Pending("")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending lost across reopen: %d entries", len(pending))
	}
}

// --- Retry plumbing ---

func TestIsTransientSQLiteErr(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"SQLITE_BUSY: database is busy", true},
		{"database is locked (5)", true},
		{"IOERR_SHORT_READ (522)", true},
		{"UNIQUE constraint failed: outbox.id", false},
		{"no such table: outbox", false},
	}
	for _, c := range cases {
		if got := isTransientSQLiteErr(errString(c.msg)); got != c.want {
			t.Fatalf("isTransientSQLiteErr(%q) = %v, want %v", c.msg, got, c.want)
		}
	}
	if isTransientSQLiteErr(nil) {
		t.Fatal("nil error classified as transient")
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func TestRetryOp_StopsOnNonTransient(t *testing.T) {
	calls := 0
	err := retryOp(retryConfig{maxRetries: 3, baseDelay: time.Millisecond, maxDelay: time.Millisecond}, func() error {
		calls++
		return errString("no such table: outbox")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("non-transient error retried %d times", calls)
	}
}

func TestRetryOp_RetriesTransient(t *testing.T) {
	calls := 0
	err := retryOp(retryConfig{maxRetries: 3, baseDelay: time.Millisecond, maxDelay: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return errString("SQLITE_BUSY")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retryOp: %v", err)
	}
	if calls != 3 {
		t.Fatalf("got %d calls, want 3", calls)
	}
}
