// Package statusclient is a thin HTTP client for a running provider's
// status listener (pkg/status), used by cmd/sdcgoctl to read debug
// state from the command line.
package statusclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to a provider's status/debug HTTP listener.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client against a status listener at baseURL, e.g.
// "http://localhost:9090".
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Health is the decoded response of GET /healthz.
type Health struct {
	Status    string `json:"status"`
	UptimeSec int64  `json:"uptime_sec"`
}

// MdibStatus is the decoded response of GET /debug/mdib.
type MdibStatus struct {
	MdibVersion uint64 `json:"mdib_version"`
	SequenceId  string `json:"sequence_id"`
}

// SubscriptionRow is one element of the decoded response of
// GET /debug/subscriptions.
type SubscriptionRow struct {
	Identifier       string        `json:"Identifier"`
	NotifyTo         string        `json:"NotifyTo"`
	RemainingSeconds float64       `json:"RemainingSeconds"`
	MaxRoundTrip     time.Duration `json:"MaxRoundTrip"`
}

// Health fetches /healthz.
func (c *Client) Health() (*Health, error) {
	var h Health
	if err := c.get("/healthz", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Mdib fetches /debug/mdib. A 503 response (no MDIB wired on the
// provider side) is reported as an error.
func (c *Client) Mdib() (*MdibStatus, error) {
	var m MdibStatus
	if err := c.get("/debug/mdib", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Subscriptions fetches /debug/subscriptions.
func (c *Client) Subscriptions() ([]SubscriptionRow, error) {
	var rows []SubscriptionRow
	if err := c.get("/debug/subscriptions", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errBody map[string]any
		if json.Unmarshal(body, &errBody) == nil && errBody["error"] != nil {
			return fmt.Errorf("%s: %v", c.baseURL+path, errBody["error"])
		}
		return fmt.Errorf("%s: status %d", c.baseURL+path, resp.StatusCode)
	}

	if len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
