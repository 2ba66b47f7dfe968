package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"_id":{"$oid":"m1"},"conversationId":"c1","content":"Bonjour","direction":"incoming","timestamp":"2026-03-01T09:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, Message{
		ID:             "m1",
		ConversationID: "c1",
		Content:        "Bonjour",
		Direction:      DirectionIncoming,
		Timestamp:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}, msg)

	msg, err = DecodeMessage([]byte(`{"id":7,"conversationId":"c1","content":"ok","createdAt":1772355600000}`))
	require.NoError(t, err)
	assert.Equal(t, "7", msg.ID)
	assert.Equal(t, time.UnixMilli(1772355600000).UTC(), msg.Timestamp)

	_, err = DecodeMessage([]byte(`{"content":"orphan"}`))
	assert.ErrorIs(t, err, ErrMessageMissingConversation)

	_, err = DecodeMessage([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestTranscriptAppendsMessagesForItsConversation(t *testing.T) {
	received := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)
	initial := []Message{{ID: "m1", ConversationID: "c1", Content: "Bonjour"}}
	transcript := NewTranscript("c1", initial)

	next, ok := transcript.Append(Event{Type: EventMessage, Message: &Message{ID: "m2", ConversationID: "c1", Content: "Encore là ?"}, ReceivedAt: received})
	require.True(t, ok)
	require.Len(t, next.Messages, 2)
	assert.Equal(t, "Encore là ?", next.Messages[1].Content)
	assert.Equal(t, received, next.Messages[1].Timestamp)
	assert.Len(t, transcript.Messages, 1)

	tests := []struct {
		name  string
		event Event
	}{
		{name: "other conversation", event: Event{Type: EventMessage, Message: &Message{ID: "m3", ConversationID: "c2"}}},
		{name: "duplicate id", event: Event{Type: EventMessage, Message: &Message{ID: "m2", ConversationID: "c1"}}},
		{name: "no message", event: Event{Type: EventMessage}},
		{name: "entity event", event: Event{Type: EventEntityUpdate, Message: &Message{ConversationID: "c1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := next.Append(tt.event)
			assert.False(t, ok)
			assert.Equal(t, next, out)
		})
	}

	initial[0].Content = "mutated"
	assert.Equal(t, "Bonjour", transcript.Messages[0].Content)
}
