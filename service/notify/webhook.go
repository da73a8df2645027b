package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/viant/procflow/internal/clock"
	"github.com/viant/procflow/internal/idgen"
)

// Webhook posts messages as JSON. When URL is empty every recipient is
// treated as an endpoint.
type Webhook struct {
	URL     string
	Headers map[string]string
	client  *http.Client
}

// Notify posts message
func (w *Webhook) Notify(ctx context.Context, message *Message) (*Receipt, error) {
	targets := message.Recipients
	if w.URL != "" {
		targets = []string{w.URL}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("webhook: no target url")
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("webhook: failed to encode message: %w", err)
	}
	for _, target := range targets {
		if err = w.post(ctx, target, payload); err != nil {
			return nil, err
		}
	}
	return &Receipt{
		ID:          idgen.WithPrefix("ntf"),
		Channel:     message.Channel,
		Recipients:  targets,
		Status:      "delivered",
		DeliveredAt: clock.Now(),
	}, nil
}

func (w *Webhook) post(ctx context.Context, URL string, payload []byte) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("webhook: invalid request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	for k, v := range w.Headers {
		request.Header.Set(k, v)
	}
	response, err := w.client.Do(request)
	if err != nil {
		return fmt.Errorf("webhook: %s: %w", URL, err)
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("webhook: %s: unexpected status %d", URL, response.StatusCode)
	}
	return nil
}

// NewWebhook creates a webhook notifier; a nil client uses an otelhttp
// instrumented client.
func NewWebhook(URL string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Webhook{URL: URL, client: client, Headers: map[string]string{}}
}
