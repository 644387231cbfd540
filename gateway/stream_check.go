package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// StreamChecker reports whether a player's stream is offline. The first
// player's stream must be off before a game may start.
type StreamChecker interface {
	IsInactive(ctx context.Context, streamURL string) (bool, error)
}

type httpStreamChecker struct {
	client   *http.Client
	endpoint string
}

// NewHTTPStreamChecker builds a checker that queries an external status
// endpoint. An empty endpoint disables verification and treats every
// stream as inactive.
func NewHTTPStreamChecker(endpoint string, timeout time.Duration) StreamChecker {
	return &httpStreamChecker{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}
}

func (c *httpStreamChecker) IsInactive(ctx context.Context, streamURL string) (bool, error) {
	parsed, err := url.Parse(streamURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		// Unverifiable URL, do not confirm the stream is down.
		return false, nil
	}
	if c.endpoint == "" {
		return true, nil
	}

	checkURL := fmt.Sprintf("%s?url=%s", c.endpoint, url.QueryEscape(streamURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build stream check request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("stream check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var body struct {
		Live bool `json:"live"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode stream check response: %w", err)
	}
	return !body.Live, nil
}
