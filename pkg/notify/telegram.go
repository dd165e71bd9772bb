package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bookwatch/bookwatch/pkg/model"
)

// Telegram delivers notifications via the Telegram Bot API sendMessage
// call. Each attempt is bounded by Timeout; a hung API is a delivery
// failure, not a hung cycle.
type Telegram struct {
	Token   string
	ChatID  string
	Format  Format
	Timeout time.Duration

	// BaseURL overrides the API endpoint in tests. Empty means the
	// real Telegram API.
	BaseURL string

	client *http.Client
}

// NewTelegram returns a Telegram notifier for the given bot token and
// destination chat.
func NewTelegram(token, chatID string, format Format, timeout time.Duration) *Telegram {
	return &Telegram{
		Token:   token,
		ChatID:  chatID,
		Format:  format,
		Timeout: timeout,
		client:  &http.Client{},
	}
}

func (t *Telegram) Notify(ctx context.Context, e model.ChangeEvent) error {
	return t.send(ctx, Message(e, t.Format))
}

func (t *Telegram) NotifyError(ctx context.Context, resourceID, message string) error {
	return t.send(ctx, ErrorMessage(resourceID, message, t.Format))
}

func (t *Telegram) send(ctx context.Context, text string) error {
	ctx, cancel := withTimeout(ctx, t.Timeout)
	defer cancel()

	payload := map[string]string{
		"chat_id": t.ChatID,
		"text":    text,
	}
	if t.Format == FormatMarkdown {
		payload["parse_mode"] = "Markdown"
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	base := t.BaseURL
	if base == "" {
		base = "https://api.telegram.org"
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", base, t.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.client
	if client == nil {
		client = &http.Client{}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram: sendMessage returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
