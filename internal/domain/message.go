package domain

import (
	"errors"
	"fmt"
	"time"
)

const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

type Message struct {
	ID             string    `json:"_id,omitempty"`
	ConversationID string    `json:"conversationId,omitempty"`
	Content        string    `json:"content"`
	Direction      string    `json:"direction"`
	Timestamp      time.Time `json:"timestamp"`
}

func (m Message) Outgoing() bool {
	return m.Direction == DirectionOutgoing
}

var ErrMessageMissingConversation = errors.New("message has no conversation id")

// DecodeMessage reads a pushed message. Ids may be plain strings, numbers or
// {"$oid": ...} objects and the timestamp may be RFC 3339 or epoch millis.
func DecodeMessage(raw []byte) (Message, error) {
	var fields map[string]any
	if err := decodeNumbers(raw, &fields); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}

	msg := Message{
		ID:             idString(fields["_id"]),
		ConversationID: idString(fields["conversationId"]),
	}
	if msg.ID == "" {
		msg.ID = idString(fields["id"])
	}
	if msg.ConversationID == "" {
		return Message{}, ErrMessageMissingConversation
	}
	msg.Content, _ = fields["content"].(string)
	msg.Direction, _ = fields["direction"].(string)
	for _, key := range []string{"timestamp", "createdAt"} {
		if ts, ok := parseRecency(fields[key]); ok {
			msg.Timestamp = ts
			break
		}
	}
	return msg, nil
}

// Transcript is the message history of one conversation in arrival order.
type Transcript struct {
	ConversationID string
	Messages       []Message
}

func NewTranscript(conversationID string, messages []Message) Transcript {
	out := make([]Message, len(messages))
	copy(out, messages)
	return Transcript{ConversationID: conversationID, Messages: out}
}

// Append adds a pushed message for this conversation. Events for other
// conversations and messages whose id is already present are ignored. The
// input transcript is never modified.
func (t Transcript) Append(event Event) (Transcript, bool) {
	if event.Type != EventMessage || event.Message == nil {
		return t, false
	}
	msg := *event.Message
	if msg.ConversationID != t.ConversationID {
		return t, false
	}
	if msg.ID != "" {
		for _, existing := range t.Messages {
			if existing.ID == msg.ID {
				return t, false
			}
		}
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = event.ReceivedAt
	}

	messages := make([]Message, 0, len(t.Messages)+1)
	messages = append(messages, t.Messages...)
	messages = append(messages, msg)
	return Transcript{ConversationID: t.ConversationID, Messages: messages}, true
}

type LeadDetails struct {
	Lead         Entity   `json:"lead"`
	Orders       []Entity `json:"orders"`
	Conversation *Entity  `json:"conversation,omitempty"`
}

type Campaign struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	TemplateName string `json:"templateName,omitempty"`
	Recipients   int    `json:"recipients,omitempty"`
	Status       string `json:"status,omitempty"`
}
