// Package cobot fetches bookings from the Cobot coworking API.
//
// The API speaks JSON:API: booking attributes live under
// data[].attributes, and the resource association under
// data[].relationships.resource.data.id. The decode step is strict —
// a record missing its id or time window fails the whole fetch, so
// loosely-shaped payloads surface as a fetch error instead of leaking
// into the diff engine.
package cobot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bookwatch/bookwatch/pkg/model"
)

// DefaultBaseURL is the production Cobot API endpoint.
const DefaultBaseURL = "https://api.cobot.me"

// Client is a Cobot API client scoped to one space.
type Client struct {
	BaseURL string
	Token   string
	SpaceID string
	Timeout time.Duration

	httpClient *http.Client
}

// New returns a client for the given space using a bearer access token.
func New(baseURL, token, spaceID string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		SpaceID:    spaceID,
		Timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// bookingsResponse mirrors the JSON:API payload shape.
type bookingsResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			From  string `json:"from"`
			To    string `json:"to"`
			Name  string `json:"name"`
			Title string `json:"title"`
		} `json:"attributes"`
		Relationships struct {
			Resource struct {
				Data struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"resource"`
		} `json:"relationships"`
	} `json:"data"`
}

// FetchBookings returns the current bookings in [from, to). An empty
// resourceID fetches the whole space; otherwise results are filtered to
// the one resource (the API has no server-side resource filter, so the
// filter is applied client-side as the upstream tool does).
func (c *Client) FetchBookings(ctx context.Context, resourceID string, from, to time.Time) ([]model.Booking, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	u := fmt.Sprintf("%s/spaces/%s/bookings", c.BaseURL, url.PathEscape(c.SpaceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("cobot: build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("filter[from]", from.UTC().Format(time.RFC3339))
	q.Set("filter[to]", to.UTC().Format(time.RFC3339))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/vnd.api+json")

	client := c.httpClient
	if client == nil {
		client = &http.Client{}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cobot: fetch bookings: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("cobot: authentication failed (%d)", resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("cobot: unexpected status %d: %s", resp.StatusCode, snippet)
	}

	var payload bookingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("cobot: malformed response: %w", err)
	}

	bookings := make([]model.Booking, 0, len(payload.Data))
	for _, rec := range payload.Data {
		b, err := decodeBooking(rec.ID, rec.Attributes.From, rec.Attributes.To,
			rec.Attributes.Name, rec.Attributes.Title, rec.Relationships.Resource.Data.ID)
		if err != nil {
			return nil, fmt.Errorf("cobot: malformed response: %w", err)
		}
		if resourceID != "" && b.ResourceID != resourceID {
			continue
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

// decodeBooking converts one JSON:API record into a Booking, failing
// fast on missing required fields.
func decodeBooking(id, from, to, name, title, resourceID string) (model.Booking, error) {
	if id == "" {
		return model.Booking{}, fmt.Errorf("booking record missing id")
	}
	start, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return model.Booking{}, fmt.Errorf("booking %s: bad from %q: %w", id, from, err)
	}
	end, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return model.Booking{}, fmt.Errorf("booking %s: bad to %q: %w", id, to, err)
	}
	b := model.Booking{
		ID:         id,
		ResourceID: resourceID,
		Start:      start.UTC(),
		End:        end.UTC(),
		PersonName: name,
		Title:      title,
	}
	if err := b.Validate(); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}
