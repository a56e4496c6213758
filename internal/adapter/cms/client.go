// Package cms posts completed conversation references to a company's CMS
// endpoint. Publishing is best-effort: callers log failures and move on.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ThreadRecord is the payload published for one completed conversation turn.
type ThreadRecord struct {
	ThreadID  string `json:"threadId"`
	Message   string `json:"message"`
	Company   string `json:"company"`
	Assistant string `json:"assistant"`
}

// Client posts thread records to per-company CMS endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new CMS client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Publish posts a thread record to the given endpoint.
func (c *Client) Publish(ctx context.Context, endpoint string, record ThreadRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal thread record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create cms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to publish thread record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cms returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
