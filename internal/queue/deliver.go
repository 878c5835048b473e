package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Envelope is the wire form of a replayed submission.
type Envelope struct {
	Token     string          `json:"token"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// defaultClient is used when HTTPDeliverer.Client is nil.
var defaultClient = &http.Client{Timeout: DefaultDeliverTimeout}

// HTTPDeliverer POSTs submissions as JSON envelopes to a sync endpoint.
type HTTPDeliverer struct {
	Endpoint string
	Client   *http.Client // nil means a client with DefaultDeliverTimeout
}

// Deliver implements Deliverer. Any 2xx response confirms delivery. A 4xx
// other than 408 or 429 returns a *RejectedError.
func (h *HTTPDeliverer) Deliver(ctx context.Context, s Submission) error {
	body, err := json.Marshal(Envelope{Token: s.Token, Kind: s.Kind, Payload: s.Payload, CreatedAt: s.CreatedAt})
	if err != nil {
		return fmt.Errorf("queue: encode envelope: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("queue: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", s.Token)

	client := h.Client
	if client == nil {
		client = defaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("queue: post %s: %w", h.Endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("queue: post %s: status %d: %s", h.Endpoint, resp.StatusCode, bytes.TrimSpace(msg))
		if permanent(resp.StatusCode) {
			return &RejectedError{Status: resp.StatusCode, Err: err}
		}
		return err
	}
	return nil
}

func permanent(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return status >= 400 && status < 500
}
