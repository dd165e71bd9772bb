// Package diff classifies booking transitions between two successive
// snapshots of the same resource.
//
// Classification is by id presence only: a booking edited upstream with
// a stable id is invisible here, and an edit that changes the id shows
// up as a Cancelled+Added pair. There is deliberately no Modified kind.
package diff

import (
	"sort"
	"time"

	"github.com/bookwatch/bookwatch/pkg/model"
)

// Changes compares the current snapshot against the most recent prior
// one and returns the transitions, ordered by booking start time
// ascending with id as tiebreak.
//
// A nil previous snapshot means this is the first observation ever for
// the resource: it establishes the baseline and yields no events, so a
// first run never floods the channel with "Added" for every existing
// booking.
//
// Pure function: no I/O, no side effects, deterministic output.
func Changes(previous *model.Snapshot, current model.Snapshot, detectedAt time.Time) []model.ChangeEvent {
	if previous == nil {
		return nil
	}

	prevIDs := previous.IDs()
	curIDs := current.IDs()

	var events []model.ChangeEvent
	for _, b := range current.Bookings {
		if !prevIDs[b.ID] {
			events = append(events, model.ChangeEvent{
				Kind:       model.Added,
				Booking:    b,
				DetectedAt: detectedAt,
			})
		}
	}
	for _, b := range previous.Bookings {
		if !curIDs[b.ID] {
			events = append(events, model.ChangeEvent{
				Kind:       model.Cancelled,
				Booking:    b,
				DetectedAt: detectedAt,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		bi, bj := events[i].Booking, events[j].Booking
		if !bi.Start.Equal(bj.Start) {
			return bi.Start.Before(bj.Start)
		}
		return bi.ID < bj.ID
	})
	return events
}
