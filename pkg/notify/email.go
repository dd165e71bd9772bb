package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/bookwatch/bookwatch/pkg/model"
)

// Email delivers notifications as emails via the Resend API.
type Email struct {
	From    string
	To      []string
	Timeout time.Duration

	client *resend.Client
}

// NewEmail returns an Email notifier using the given Resend API key.
func NewEmail(apiKey, from string, to []string, timeout time.Duration) *Email {
	return &Email{
		From:    from,
		To:      to,
		Timeout: timeout,
		client:  resend.NewClient(apiKey),
	}
}

func (m *Email) Notify(ctx context.Context, e model.ChangeEvent) error {
	subject := "Booking change: " + string(e.Kind)
	return m.send(ctx, subject, Message(e, FormatPlain))
}

func (m *Email) NotifyError(ctx context.Context, resourceID, message string) error {
	return m.send(ctx, "Booking monitor error", ErrorMessage(resourceID, message, FormatPlain))
}

func (m *Email) send(ctx context.Context, subject, text string) error {
	ctx, cancel := withTimeout(ctx, m.Timeout)
	defer cancel()

	params := &resend.SendEmailRequest{
		From:    m.From,
		To:      m.To,
		Subject: subject,
		Text:    text,
	}
	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("email: send %q: %w", subject, err)
	}
	return nil
}
