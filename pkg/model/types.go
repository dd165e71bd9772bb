// Package model defines the core domain types for bookwatch.
//
// Bookwatch turns a sequence of point-in-time booking fetches into a
// reliable change feed. The vocabulary is small:
//
//   - Booking: one reservation as reported by the upstream calendar.
//     Immutable value record; an edit upstream surfaces as the old id
//     disappearing and a new id appearing.
//
//   - Snapshot: one full observation of a resource's bookings at a
//     point in time. Snapshots are append-only and never rewritten;
//     together they form the audit trail.
//
//   - ChangeEvent: one classified transition (Added or Cancelled)
//     derived by diffing two successive snapshots of the same resource.
package model

import (
	"fmt"
	"time"
)

// AllResources is the resource-id sentinel for the unfiltered mode,
// where one snapshot covers every resource in the space.
const AllResources = "all"

// Booking is a single reservation. Fields mirror the persisted snapshot
// record format, which is a durable contract: readers must stay able to
// parse records written by prior versions, so fields are only ever added.
type Booking struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	PersonName string    `json:"person_name"`
	Title      string    `json:"title,omitempty"`
}

// Validate checks the required-field and ordering invariants. Bookings
// that fail validation are rejected at decode time and reported as a
// fetch error; loosely-shaped records never reach the diff engine.
func (b Booking) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("booking missing id")
	}
	if b.Start.IsZero() || b.End.IsZero() {
		return fmt.Errorf("booking %s: missing start or end", b.ID)
	}
	if !b.Start.Before(b.End) {
		return fmt.Errorf("booking %s: start %s not before end %s",
			b.ID, b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339))
	}
	return nil
}

// Snapshot is one observation: the complete set of bookings for a
// resource (or the whole space, see AllResources) at ObservedAt.
type Snapshot struct {
	ObservedAt time.Time `json:"observed_at"`
	SpaceID    string    `json:"space_id"`
	ResourceID string    `json:"resource_id"`
	Bookings   []Booking `json:"bookings"`
}

// NewSnapshot builds a snapshot, enforcing the unique-id invariant.
// Duplicate booking ids indicate a malformed upstream payload.
func NewSnapshot(observedAt time.Time, spaceID, resourceID string, bookings []Booking) (Snapshot, error) {
	seen := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		if seen[b.ID] {
			return Snapshot{}, fmt.Errorf("duplicate booking id %q in snapshot for %s", b.ID, resourceID)
		}
		seen[b.ID] = true
	}
	return Snapshot{
		ObservedAt: observedAt.UTC(),
		SpaceID:    spaceID,
		ResourceID: resourceID,
		Bookings:   bookings,
	}, nil
}

// IDs returns the set of booking ids in the snapshot.
func (s Snapshot) IDs() map[string]bool {
	ids := make(map[string]bool, len(s.Bookings))
	for _, b := range s.Bookings {
		ids[b.ID] = true
	}
	return ids
}

// ChangeKind classifies a booking transition between two snapshots.
type ChangeKind string

const (
	// Added: the booking id is present in the new snapshot but not the prior one.
	Added ChangeKind = "added"
	// Cancelled: the booking id was present in the prior snapshot but is gone.
	Cancelled ChangeKind = "cancelled"
)

// ChangeEvent is one classified transition produced by a diff.
// DetectedAt is the time of the diff, not the booking's own times.
type ChangeEvent struct {
	Kind       ChangeKind `json:"kind"`
	Booking    Booking    `json:"booking"`
	DetectedAt time.Time  `json:"detected_at"`
}

// Describe renders the human-readable audit-log form of the event.
func (e ChangeEvent) Describe() string {
	verb := "New"
	if e.Kind == Cancelled {
		verb = "Cancelled"
	}
	b := e.Booking
	title := b.Title
	if title == "" {
		title = "N/A"
	}
	return fmt.Sprintf("%s booking: %s - %s at %s to %s",
		verb, b.PersonName, title,
		b.Start.UTC().Format(time.RFC3339), b.End.UTC().Format(time.RFC3339))
}
