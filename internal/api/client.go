// Package api is the HTTP client for the restaurant backend's kitchen
// endpoints: the active-order snapshot and the item/order status patches.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"kitchen-display/internal/domain"
)

type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Snapshot fetches the current list of active kitchen orders with nested
// items.
func (c *Client) Snapshot(ctx context.Context) ([]domain.Order, error) {
	url := fmt.Sprintf("%s/api/kitchen/orders", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot: unexpected status %d", resp.StatusCode)
	}
	var payload struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return payload.Orders, nil
}

// PatchItemStatus sets one item's status. Success or failure only: the
// response body, if any, is discarded so a fetched value can never race a
// pending optimistic patch for the same field.
func (c *Client) PatchItemStatus(ctx context.Context, orderID, itemID string, status domain.ItemStatus) error {
	url := fmt.Sprintf("%s/api/orders/%s/items/%s", c.baseURL, orderID, itemID)
	return c.patch(ctx, url, map[string]string{"status": string(status)})
}

// PatchOrderStatus sets the order's coarse status. Same contract as
// PatchItemStatus; used only for the best-effort order advance.
func (c *Client) PatchOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	url := fmt.Sprintf("%s/api/orders/%s", c.baseURL, orderID)
	return c.patch(ctx, url, map[string]string{"status": string(status)})
}

func (c *Client) patch(ctx context.Context, url string, body map[string]string) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	// Drain without decoding.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("patch: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
