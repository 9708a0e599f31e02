package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

const (
	HeaderSignature = "X-Vigia-Signature"
	HeaderEvent     = "X-Vigia-Event"
	HeaderDelivery  = "X-Vigia-Delivery"
)

// Sender POSTs signed payloads to one URL
type Sender struct {
	url    string
	secret string
	client *http.Client
}

func NewSender(cfg Config) *Sender {
	return &Sender{
		url:    cfg.URL,
		secret: cfg.Secret,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (s *Sender) Send(ctx context.Context, j job) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(j.payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, string(j.eventType))
	req.Header.Set(HeaderDelivery, j.id.String())
	req.Header.Set("User-Agent", "Vigia-Webhook/1.0")
	if s.secret != "" {
		req.Header.Set(HeaderSignature, Sign(s.secret, j.payload))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
