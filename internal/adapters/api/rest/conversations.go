package rest

import (
	"context"
	"fmt"

	"github.com/bnema/wadash/internal/domain"
)

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	resp, err := req.
		SetPathParam("id", conversationID).
		Get("/conversations/{id}/messages")
	if err := c.check(ctx, resp, err); err != nil {
		return nil, fmt.Errorf("list messages for %s: %w", conversationID, err)
	}
	if err := decodeBody(resp.Body(), &messages); err != nil {
		return nil, fmt.Errorf("decode messages for %s: %w", conversationID, err)
	}
	return messages, nil
}

func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (domain.Message, error) {
	req, err := c.request(ctx)
	if err != nil {
		return domain.Message{}, err
	}

	var message domain.Message
	resp, err := req.
		SetPathParam("id", conversationID).
		SetBody(sendMessageRequest{Content: content}).
		Post("/conversations/{id}/messages")
	if err := c.check(ctx, resp, err); err != nil {
		return domain.Message{}, fmt.Errorf("send message to %s: %w", conversationID, err)
	}
	if err := decodeBody(resp.Body(), &message); err != nil {
		return domain.Message{}, fmt.Errorf("decode sent message: %w", err)
	}
	if message.ConversationID == "" {
		message.ConversationID = conversationID
	}
	return message, nil
}

func (c *Client) Takeover(ctx context.Context, conversationID string) error {
	return c.setHandler(ctx, conversationID, "takeover")
}

func (c *Client) Release(ctx context.Context, conversationID string) error {
	return c.setHandler(ctx, conversationID, "release")
}

func (c *Client) setHandler(ctx context.Context, conversationID, action string) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.
		SetPathParam("id", conversationID).
		SetPathParam("action", action).
		Put("/conversations/{id}/{action}")
	if err := c.check(ctx, resp, err); err != nil {
		return fmt.Errorf("%s conversation %s: %w", action, conversationID, err)
	}
	return nil
}
