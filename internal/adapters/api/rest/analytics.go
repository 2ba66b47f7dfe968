package rest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bnema/wadash/internal/domain"
)

// DailyStats returns the per-day bot activity of the last days, oldest first.
func (c *Client) DailyStats(ctx context.Context, days int) ([]domain.DailyStats, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	if days > 0 {
		req.SetQueryParam("days", strconv.Itoa(days))
	}

	var stats []domain.DailyStats
	resp, err := req.Get("/analytics")
	if err := c.check(ctx, resp, err); err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	if err := decodeBody(resp.Body(), &stats); err != nil {
		return nil, fmt.Errorf("decode daily stats: %w", err)
	}
	return domain.SortDailyStats(stats), nil
}

func (c *Client) RealtimeStats(ctx context.Context, clientID string) (domain.RealtimeStats, error) {
	req, err := c.request(ctx)
	if err != nil {
		return domain.RealtimeStats{}, err
	}
	if clientID != "" {
		req.SetQueryParam("clientId", clientID)
	}

	var stats domain.RealtimeStats
	resp, err := req.Get("/analytics/realtime")
	if err := c.check(ctx, resp, err); err != nil {
		return domain.RealtimeStats{}, fmt.Errorf("realtime stats: %w", err)
	}
	if err := decodeBody(resp.Body(), &stats); err != nil {
		return domain.RealtimeStats{}, fmt.Errorf("decode realtime stats: %w", err)
	}
	return stats, nil
}
