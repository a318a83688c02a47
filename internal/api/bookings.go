// ABOUTME: Booking list retrieval and status transitions for the admin surface
// ABOUTME: Defensive shape check - a non-list /bookings body is an error, not a crash

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ErrUnexpectedShape is returned when the backend responds with a body
// that does not match the contract (e.g. /bookings returning an object).
var ErrUnexpectedShape = errors.New("unexpected response shape")

// Booking is the client's read replica of one backend booking. The
// backend owns the record; the client never patches it locally.
type Booking struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	CarType     string  `json:"car_type"`
	PickupDate  string  `json:"pickup_date"`
	ReturnDate  string  `json:"return_date"`
	TotalPrice  float64 `json:"total_price"`
	Status      string  `json:"status"`
	CNICURL     string  `json:"cnic_url,omitempty"`
	CNICBackURL string  `json:"cnic_back_url,omitempty"`
	SelfieURL   string  `json:"selfie_url,omitempty"`
}

// ListBookings fetches the full booking list. A response body that is not
// a JSON array is rejected with ErrUnexpectedShape.
func (c *Client) ListBookings(ctx context.Context) ([]Booking, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/bookings", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching bookings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.decodeError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading bookings body: %w", err)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		c.logger.Warn("bookings response is not a list", "prefix", previewOf(trimmed))
		return nil, ErrUnexpectedShape
	}

	var bookings []Booking
	if err := json.Unmarshal(trimmed, &bookings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	return bookings, nil
}

// UpdateStatus transitions a booking's status server-side. The caller is
// expected to re-fetch the list afterwards; there is no partial patch.
func (c *Client) UpdateStatus(ctx context.Context, bookingID, status string) error {
	q := url.Values{}
	q.Set("booking_id", bookingID)
	q.Set("status", status)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/update-status?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("updating booking status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(resp)
	}
	return nil
}

func previewOf(body []byte) string {
	const max = 40
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
