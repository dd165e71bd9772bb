// Package notify delivers change notifications to external channels.
//
// Delivery is best-effort and fire-and-forget per event: the monitor
// swallows notifier errors after auditing them, and a failure to
// deliver one notification never blocks the next. When no channel is
// configured the Noop notifier stands in, so the monitor never
// special-cases the unconfigured state.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bookwatch/bookwatch/pkg/model"
)

// Format selects how outgoing messages are marked up.
type Format string

const (
	FormatPlain    Format = "plain"
	FormatMarkdown Format = "markdown"
)

// Notifier is one outbound channel.
type Notifier interface {
	// Notify delivers a message describing one detected change.
	Notify(ctx context.Context, e model.ChangeEvent) error
	// NotifyError delivers a short diagnostic for a failed fetch or
	// store operation, with the resource as context.
	NotifyError(ctx context.Context, resourceID, message string) error
}

// Message renders the outbound text for a change event: a marker, the
// date and time window, the person, and the title.
func Message(e model.ChangeEvent, f Format) string {
	b := e.Booking
	title := b.Title
	if title == "" {
		title = "N/A"
	}
	when := fmt.Sprintf("%s %s - %s",
		b.Start.UTC().Format("Mon 02 Jan"),
		b.Start.UTC().Format("15:04"),
		b.End.UTC().Format("15:04"))

	marker, verb := "[+]", "New booking"
	if e.Kind == model.Cancelled {
		marker, verb = "[-]", "Cancelled booking"
	}

	if f == FormatMarkdown {
		return fmt.Sprintf("%s *%s*\n%s\n%s: %s", marker, verb, when, b.PersonName, title)
	}
	return fmt.Sprintf("%s %s: %s, %s: %s", marker, verb, when, b.PersonName, title)
}

// ErrorMessage renders the outbound text for a fetch or store failure.
func ErrorMessage(resourceID, message string, f Format) string {
	if resourceID == "" {
		resourceID = model.AllResources
	}
	if f == FormatMarkdown {
		return fmt.Sprintf("[!] *monitor error* (resource %s)\n%s", resourceID, message)
	}
	return fmt.Sprintf("[!] monitor error (resource %s): %s", resourceID, message)
}

// Noop is the notifier used when no channel is configured. It always
// succeeds without doing anything.
type Noop struct{}

func (Noop) Notify(context.Context, model.ChangeEvent) error   { return nil }
func (Noop) NotifyError(context.Context, string, string) error { return nil }

// Console writes notifications to a writer. Useful for local runs and
// as the fake channel in tests.
type Console struct {
	W io.Writer
}

func (c Console) Notify(_ context.Context, e model.ChangeEvent) error {
	_, err := fmt.Fprintln(c.W, Message(e, FormatPlain))
	return err
}

func (c Console) NotifyError(_ context.Context, resourceID, message string) error {
	_, err := fmt.Fprintln(c.W, ErrorMessage(resourceID, message, FormatPlain))
	return err
}

// Multi fans one notification out to several channels. Every channel is
// attempted; failures are joined so the caller can audit them, but one
// channel failing never stops the others.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e model.ChangeEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) NotifyError(ctx context.Context, resourceID, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyError(ctx, resourceID, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withTimeout bounds a delivery attempt. A channel that hangs is a
// failure, never a stall of the whole cycle.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}
