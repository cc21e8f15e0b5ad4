package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ombresaco/shortsmaker/internal/queue"
)

// Client talks to a remote queue server running the same API.
type Client struct {
	logger  zerolog.Logger
	baseURL string
	http    *http.Client
}

// NewClient creates a remote queue client.
func NewClient(logger zerolog.Logger, baseURL string) *Client {
	return &Client{
		logger:  logger.With().Str("component", "remote").Logger(),
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Items fetches the remote queue.
func (c *Client) Items(ctx context.Context) ([]queue.Item, error) {
	var resp QueueResponse
	if err := c.do(ctx, http.MethodGet, "/api/queue/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Merge pushes local items to the remote queue and returns how many were
// new there.
func (c *Client) Merge(ctx context.Context, items []queue.Item) (int, error) {
	var resp MergeResponse
	if err := c.do(ctx, http.MethodPost, "/api/queue/", MergeRequest{Items: items}, &resp); err != nil {
		return 0, err
	}
	return resp.Added, nil
}

// PurgeCompleted removes completed items remotely. Satisfies
// queue.RemotePurger.
func (c *Client) PurgeCompleted(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/queue/completed", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("remote queue %s %s returned %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
