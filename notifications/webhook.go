package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Notifier delivers out-of-band announcements (season warnings, referee
// pings). Delivery is best-effort, callers log failures and move on.
type Notifier interface {
	Notify(ctx context.Context, content string) error
}

type webhookNotifier struct {
	client     *http.Client
	webhookURL string
}

// NewWebhookNotifier posts messages to a Discord-compatible webhook.
func NewWebhookNotifier(webhookURL string, timeout time.Duration) Notifier {
	return &webhookNotifier{
		client:     &http.Client{Timeout: timeout},
		webhookURL: webhookURL,
	}
}

func (n *webhookNotifier) Notify(ctx context.Context, content string) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification rejected with status %d", resp.StatusCode)
	}
	return nil
}

// NoopNotifier drops every message, used when no webhook is configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string) error { return nil }

// LoggingNotifier wraps another notifier and logs failed deliveries instead
// of propagating them.
type LoggingNotifier struct {
	Next   Notifier
	Logger *slog.Logger
}

func (n *LoggingNotifier) Notify(ctx context.Context, content string) error {
	if err := n.Next.Notify(ctx, content); err != nil {
		n.Logger.Warn("notification delivery failed", "error", err)
	}
	return nil
}
