// Package webhooknotify implements gateways.NotificationGateway as an
// HTTP POST of the notification as JSON, the same dispatch shape as
// the teacher's internal/notification.Dispatcher.sendWebhook: marshal,
// POST with a content-type header, treat any non-2xx status as
// failure. Delivery is retried with backoff rather than given up on
// after one attempt, since notification delivery runs on a detached
// worker and has no caller waiting on it.
package webhooknotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/geoplaces/core/internal/gateways"
)

// Gateway POSTs each notification to a single configured webhook URL.
type Gateway struct {
	url        string
	httpClient *http.Client
	maxRetries uint64
}

// New builds a Gateway posting to url with a 10s per-request timeout
// and up to maxRetries retries on failure.
func New(url string, maxRetries uint64) *Gateway {
	return &Gateway{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: maxRetries,
	}
}

type wirePayload struct {
	Kind       string            `json:"kind"`
	PlaceID    string            `json:"place_id,omitempty"`
	EventID    string            `json:"event_id,omitempty"`
	Recipients []string          `json:"recipients,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
}

func (g *Gateway) Notify(ctx context.Context, n gateways.Notification) error {
	payload := wirePayload{
		Kind:       n.Kind.String(),
		Recipients: n.Recipients,
		Data:       n.Data,
	}
	if n.PlaceID != nil {
		payload.PlaceID = n.PlaceID.String()
	}
	if n.EventID != nil {
		payload.EventID = n.EventID.String()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.maxRetries), ctx)
	return backoff.Retry(func() error {
		return g.post(ctx, body)
	}, policy)
}

func (g *Gateway) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build webhook request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Geoplaces-Event", "notification")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

var _ gateways.NotificationGateway = (*Gateway)(nil)
