package rest

import (
	"context"
	"fmt"
)

// Ping wakes the realtime server before a socket connects. It is sent to the
// API origin without credentials.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Post(c.origin + "/keepalive-ping")
	if err != nil {
		return fmt.Errorf("keepalive ping: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("keepalive ping: status %d", resp.StatusCode())
	}
	return nil
}
