// ABOUTME: Typed HTTP client for the rental backend contract
// ABOUTME: Chat, document upload, verification, bookings, and protected media fetches

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// tunnelSkipHeader suppresses the tunnel provider's browser interstitial,
// which would otherwise replace binary responses with an HTML warning page.
const tunnelSkipHeader = "ngrok-skip-browser-warning"

// APIError is a non-2xx response from the backend. Detail carries the
// server-supplied human-readable message when one was present.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// Client talks to the rental backend over HTTP.
type Client struct {
	baseURL           string
	origin            string
	skipTunnelWarning bool
	httpClient        *http.Client
	logger            *slog.Logger
}

// New creates a backend client rooted at baseURL (the API root, including
// any path prefix such as /api).
func New(baseURL string, skipTunnelWarning bool, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		origin:            originOf(baseURL),
		skipTunnelWarning: skipTunnelWarning,
		httpClient:        &http.Client{Timeout: 60 * time.Second},
		logger:            logger.With("component", "api"),
	}
}

// Origin returns the scheme://host of the backend, used by the media
// loader to rewrite development-host locators.
func (c *Client) Origin() string {
	return c.origin
}

func originOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// chatRequest is the JSON body sent to POST /chat.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// chatResponse is the JSON response from POST /chat.
type chatResponse struct {
	Response string `json:"response"`
}

// Chat sends one user turn to the booking agent and returns its reply text.
func (c *Client) Chat(ctx context.Context, message, sessionID string) (string, error) {
	var out chatResponse
	if err := c.postJSON(ctx, "/chat", chatRequest{Message: message, SessionID: sessionID}, &out); err != nil {
		return "", fmt.Errorf("sending chat message: %w", err)
	}
	return out.Response, nil
}

// FetchMedia retrieves a protected binary resource from an absolute locator.
// The caller owns the returned bytes; lifecycle discipline lives in the
// media loader, not here.
func (c *Client) FetchMedia(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.decodeError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading media body: %w", err)
	}
	return data, nil
}

// postJSON posts body as JSON to the given API path and decodes the
// response into out (skipped when out is nil).
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	if c.skipTunnelWarning {
		req.Header.Set(tunnelSkipHeader, "true")
	}
}

// decodeError turns a non-2xx response into an *APIError, pulling the
// backend's detail string out of the body when it provides one.
func (c *Client) decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var errBody struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
			if errBody.Detail != "" {
				apiErr.Detail = errBody.Detail
			} else if errBody.Error != "" {
				apiErr.Detail = errBody.Error
			}
		}
	}

	c.logger.Debug("backend error response", "status", resp.StatusCode, "detail", apiErr.Detail)
	return apiErr
}
