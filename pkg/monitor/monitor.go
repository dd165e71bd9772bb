// Package monitor orchestrates one observation cycle per resource:
// fetch, diff against the last snapshot, persist, then report.
//
// Error policy, per failure class:
//
//   - fetch errors (network, auth, malformed payload): the resource is
//     skipped for this cycle; the error is audited and notified; other
//     resources continue.
//   - store errors (snapshot cannot be read or appended): the
//     resource's cycle aborts and NO change events are reported — an
//     observation that cannot be durably recorded must not produce a
//     change feed that cannot later be reconstructed.
//   - audit and notify errors: best-effort, swallowed after a side
//     report; one failed notification never suppresses the next.
//
// One invocation runs exactly one cycle. Repeated monitoring is an
// external scheduler's job.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bookwatch/bookwatch/pkg/audit"
	"github.com/bookwatch/bookwatch/pkg/diff"
	"github.com/bookwatch/bookwatch/pkg/ledger"
	"github.com/bookwatch/bookwatch/pkg/model"
	"github.com/bookwatch/bookwatch/pkg/notify"
	"github.com/bookwatch/bookwatch/pkg/snaplog"
)

// Fetcher supplies the current set of bookings for a window. An empty
// resourceID means the whole space.
type Fetcher interface {
	FetchBookings(ctx context.Context, resourceID string, from, to time.Time) ([]model.Booking, error)
}

// SnapshotStore persists observations. Latest returns
// snaplog.ErrNoSnapshot when the resource has no baseline yet.
type SnapshotStore interface {
	Append(model.Snapshot) error
	Latest(resourceID string) (model.Snapshot, error)
}

// Outbox records change events for at-least-once dispatch.
type Outbox interface {
	Enqueue(resourceID string, events []model.ChangeEvent) ([]ledger.Entry, error)
	Pending(resourceID string) ([]ledger.Entry, error)
	MarkDelivered(id string) error
}

// Runner wires the collaborators for one invocation. All fields are
// required except Now, which defaults to time.Now.
type Runner struct {
	SpaceID   string
	Fetcher   Fetcher
	Snapshots SnapshotStore
	Outbox    Outbox
	Audit     *audit.Logger
	Notifier  notify.Notifier
	Now       func() time.Time
}

// Result is the outcome of one resource's cycle.
type Result struct {
	ResourceID string              `json:"resource_id"`
	Events     []model.ChangeEvent `json:"events"`
	Err        error               `json:"-"`
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// Run executes one cycle for each resource. Resources are fully
// independent: their snapshot logs are separate files and their
// dispatch order is per-resource, so parallel mode fans them out with
// an errgroup without weakening any ordering guarantee. An empty
// resource list monitors the whole space under the all-resources
// sentinel.
func (r *Runner) Run(ctx context.Context, resources []string, days int, parallel bool) []Result {
	if len(resources) == 0 {
		resources = []string{model.AllResources}
	}
	if days <= 0 {
		days = 7
	}

	results := make([]Result, len(resources))
	if !parallel {
		for i, res := range resources {
			results[i] = r.cycle(ctx, res, days)
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, res := range resources {
		i, res := i, res
		g.Go(func() error {
			results[i] = r.cycle(gctx, res, days)
			return nil
		})
	}
	_ = g.Wait() // cycles never return errors; failures land in Result.Err
	return results
}

// cycle runs fetch -> load prior -> diff -> persist -> report for one
// resource.
func (r *Runner) cycle(ctx context.Context, resourceID string, days int) Result {
	result := Result{ResourceID: resourceID}
	now := r.now()

	filter := resourceID
	if filter == model.AllResources {
		filter = ""
	}

	bookings, err := r.Fetcher.FetchBookings(ctx, filter, now, now.AddDate(0, 0, days))
	if err != nil {
		result.Err = fmt.Errorf("fetch: %w", err)
		r.reportError(ctx, resourceID, "fetch failed: %v", err)
		return result
	}

	snap, err := model.NewSnapshot(now, r.SpaceID, resourceID, bookings)
	if err != nil {
		// Duplicate ids are a malformed payload, i.e. a fetch error.
		result.Err = fmt.Errorf("fetch: %w", err)
		r.reportError(ctx, resourceID, "fetch returned malformed data: %v", err)
		return result
	}

	var previous *model.Snapshot
	prev, err := r.Snapshots.Latest(resourceID)
	switch {
	case err == nil:
		previous = &prev
	case errors.Is(err, snaplog.ErrNoSnapshot):
		// First observation: establishes the baseline, no events.
	default:
		result.Err = fmt.Errorf("store: %w", err)
		r.reportError(ctx, resourceID, "cannot read snapshot log: %v", err)
		return result
	}

	events := diff.Changes(previous, snap, now)

	// Persist before reporting: events from an observation that was
	// never durably recorded must not reach any channel.
	if err := r.Snapshots.Append(snap); err != nil {
		result.Err = fmt.Errorf("store: %w", err)
		r.reportError(ctx, resourceID, "cannot append snapshot: %v", err)
		return result
	}
	result.Events = events

	// Audit each fresh event exactly once, at detection time.
	for _, e := range events {
		r.Audit.Record(e)
	}

	entries, err := r.Outbox.Enqueue(resourceID, events)
	if err != nil {
		// The ledger only upgrades delivery to at-least-once; without
		// it we still dispatch this cycle's events best-effort.
		r.Audit.Errorf("outbox unavailable for %s, dispatching without delivery tracking: %v", resourceID, err)
		for _, e := range events {
			if nerr := r.Notifier.Notify(ctx, e); nerr != nil {
				r.Audit.Warnf("notification failed for booking %s: %v", e.Booking.ID, nerr)
			}
		}
		return result
	}

	pending, err := r.Outbox.Pending(resourceID)
	if err != nil {
		r.Audit.Errorf("cannot list pending notifications for %s: %v", resourceID, err)
		pending = entries
	}
	r.dispatch(ctx, pending)
	return result
}

// dispatch attempts delivery for each outbox entry in order, marking
// successes. A failed delivery is audited and left pending for the
// next invocation; it never blocks the entries behind it.
func (r *Runner) dispatch(ctx context.Context, entries []ledger.Entry) (delivered, failed int) {
	for _, entry := range entries {
		if err := r.Notifier.Notify(ctx, entry.Event); err != nil {
			failed++
			r.Audit.Warnf("notification failed for booking %s (%s): %v",
				entry.Event.Booking.ID, entry.Event.Kind, err)
			continue
		}
		delivered++
		if err := r.Outbox.MarkDelivered(entry.ID); err != nil {
			r.Audit.Warnf("cannot mark notification %s delivered: %v", entry.ID, err)
		}
	}
	return delivered, failed
}

// Redeliver drains every pending outbox entry across all resources.
// Backs the redeliver subcommand and lets an operator flush a backlog
// left by a dead channel.
func (r *Runner) Redeliver(ctx context.Context) (delivered, failed int, err error) {
	pending, err := r.Outbox.Pending("")
	if err != nil {
		return 0, 0, fmt.Errorf("list pending: %w", err)
	}
	delivered, failed = r.dispatch(ctx, pending)
	return delivered, failed, nil
}

// reportError audits a fetch/store failure and sends one best-effort
// error notification. Error notifications are not ledgered: only
// booking change events carry delivery guarantees.
func (r *Runner) reportError(ctx context.Context, resourceID, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Audit.Errorf("%s: %s", resourceID, msg)
	if err := r.Notifier.NotifyError(ctx, resourceID, msg); err != nil {
		r.Audit.Warnf("error notification failed for %s: %v", resourceID, err)
	}
}
