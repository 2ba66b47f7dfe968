package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

func (c *Client) ListEntities(ctx context.Context, kind domain.EntityKind, opts ports.ListOptions) ([]domain.Entity, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("list entities: unknown kind %q", kind)
	}

	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	if opts.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(opts.Limit))
	}
	if kind == domain.KindLead && opts.ClientID != "" {
		req.SetQueryParam("clientId", opts.ClientID)
	}

	resp, err := req.Get("/" + kind.Schema().Resource)
	if err := c.check(ctx, resp, err); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	items, skipped, err := decodeList(kind, resp.Body())
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		c.log.Warn().Str("kind", string(kind)).Int("skipped", skipped).Msg("dropped list items without an id")
	}
	return items, nil
}

func (c *Client) DeleteAppointment(ctx context.Context, id string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.SetPathParam("id", id).Delete("/appointments/{id}")
	if err := c.check(ctx, resp, err); err != nil {
		return fmt.Errorf("delete appointment %s: %w", id, err)
	}
	return nil
}

type leadDetailsResponse struct {
	Lead         json.RawMessage `json:"lead"`
	Orders       json.RawMessage `json:"orders"`
	Conversation json.RawMessage `json:"conversation"`
}

func (c *Client) LeadDetails(ctx context.Context, id string) (domain.LeadDetails, error) {
	req, err := c.request(ctx)
	if err != nil {
		return domain.LeadDetails{}, err
	}
	resp, err := req.SetPathParam("id", id).Get("/analytics/lead/{id}")
	if err := c.check(ctx, resp, err); err != nil {
		return domain.LeadDetails{}, fmt.Errorf("lead details %s: %w", id, err)
	}

	var body leadDetailsResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return domain.LeadDetails{}, fmt.Errorf("decode lead details: %w", err)
	}

	lead, err := domain.DecodeEntity(domain.KindLead, body.Lead)
	if err != nil {
		return domain.LeadDetails{}, fmt.Errorf("decode lead details: %w", err)
	}
	orders, _, err := decodeList(domain.KindOrder, body.Orders)
	if err != nil {
		return domain.LeadDetails{}, fmt.Errorf("decode lead details: %w", err)
	}
	conversation, err := decodeOptionalEntity(domain.KindConversation, body.Conversation)
	if err != nil {
		return domain.LeadDetails{}, fmt.Errorf("decode lead details: %w", err)
	}

	return domain.LeadDetails{Lead: lead, Orders: orders, Conversation: conversation}, nil
}
