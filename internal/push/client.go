package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the subscription endpoints of a running server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Subscribe POSTs sub to the intake endpoint.
func (c *Client) Subscribe(ctx context.Context, sub Subscription) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encoding subscription: %w", err)
	}
	_, err = c.post(ctx, "/api/subscribe", payload)
	return err
}

// SendTest triggers the demonstration fan-out and returns the server's report.
func (c *Client) SendTest(ctx context.Context) (*SendResponse, error) {
	body, err := c.post(ctx, "/api/send-test-notification", nil)
	if err != nil {
		return nil, err
	}
	var resp SendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var e errorResponse
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	return body, nil
}
