// Package wire decodes realtime frames shared by every transport into domain
// events.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/wadash/internal/domain"
)

// Legacy event names still emitted by the bot server.
const (
	ConversationUpdate = "conversation_update"
	NewLead            = "new_lead"
	StatsUpdate        = "stats_update"
	AppointmentsUpdate = "appointments_update"
)

var statsCounterFields = map[string]string{
	"link_click":    "linkClicks",
	"add_to_cart":   "addToCartCount",
	"agent_request": "agentRequests",
}

var ErrEmptyEventName = errors.New("frame has no event name")

// Frame is one websocket text message.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Meta and Envelope describe a broker message.
type Meta struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Time time.Time `json:"time"`
}

type Envelope struct {
	Meta Meta            `json:"meta"`
	Data json.RawMessage `json:"data"`
}

func ParseFrame(raw []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if strings.TrimSpace(frame.Event) == "" {
		return Frame{}, ErrEmptyEventName
	}
	return frame, nil
}

// ParseEnvelope returns the decoded envelope together with ErrEmptyEventName
// when meta.type is missing, so callers can supply the name themselves.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if strings.TrimSpace(envelope.Meta.Type) == "" {
		return envelope, ErrEmptyEventName
	}
	return envelope, nil
}

type entityPayload struct {
	Kind   string          `json:"kind"`
	Entity json.RawMessage `json:"entity"`
}

type counterPayload struct {
	Kind     string          `json:"kind"`
	TargetID json.RawMessage `json:"target_id"`
	Field    string          `json:"field"`
	Delta    *int64          `json:"delta"`
}

type statsPayload struct {
	Type   string          `json:"type"`
	LeadID json.RawMessage `json:"leadId"`
}

type refreshPayload struct {
	Kind string `json:"kind"`
}

// Decode maps one named event to a domain event. Unknown names produce an
// event whose Type is not Known so the sync client can count and drop it.
// Only malformed JSON is reported as an error.
func Decode(name string, data []byte, receivedAt time.Time) (domain.Event, error) {
	event := domain.Event{
		Type:       domain.EventType(name),
		Name:       name,
		ReceivedAt: receivedAt,
	}

	switch name {
	case string(domain.EventEntityUpdate), string(domain.EventNewEntity):
		var payload entityPayload
		if err := unmarshal(data, &payload); err != nil {
			return domain.Event{}, fmt.Errorf("decode %s: %w", name, err)
		}
		event.Kind = parseKind(payload.Kind)
		event.Entity = decodeEntity(event.Kind, payload.Entity)

	case string(domain.EventCounter):
		var payload counterPayload
		if err := unmarshal(data, &payload); err != nil {
			return domain.Event{}, fmt.Errorf("decode %s: %w", name, err)
		}
		event.Kind = parseKind(payload.Kind)
		event.Counter = &domain.CounterDelta{
			TargetID: rawID(payload.TargetID),
			Field:    payload.Field,
			Delta:    1,
		}
		if payload.Delta != nil {
			event.Counter.Delta = *payload.Delta
		}

	case string(domain.EventRefreshHint):
		var payload refreshPayload
		if err := unmarshal(data, &payload); err != nil {
			return domain.Event{}, fmt.Errorf("decode %s: %w", name, err)
		}
		event.Kind = parseKind(payload.Kind)

	case ConversationUpdate:
		event.Type = domain.EventEntityUpdate
		event.Kind = domain.KindConversation
		event.Entity = decodeEntity(event.Kind, data)

	case NewLead:
		event.Type = domain.EventNewEntity
		event.Kind = domain.KindLead
		event.Entity = decodeEntity(event.Kind, data)

	case StatsUpdate:
		var payload statsPayload
		if err := unmarshal(data, &payload); err != nil {
			return domain.Event{}, fmt.Errorf("decode %s: %w", name, err)
		}
		field, ok := statsCounterFields[payload.Type]
		if !ok {
			event.Type = domain.EventType(name + ":" + payload.Type)
			break
		}
		event.Type = domain.EventCounter
		event.Kind = domain.KindLead
		event.Counter = &domain.CounterDelta{
			TargetID: rawID(payload.LeadID),
			Field:    field,
			Delta:    1,
		}

	case AppointmentsUpdate:
		event.Type = domain.EventRefreshHint
		event.Kind = domain.KindAppointment

	case string(domain.EventMessage):
		event.Kind = domain.KindConversation
		if isNull(data) {
			break
		}
		msg, err := domain.DecodeMessage(data)
		if errors.Is(err, domain.ErrMessageMissingConversation) {
			break
		}
		if err != nil {
			return domain.Event{}, fmt.Errorf("decode %s: %w", name, err)
		}
		event.Message = &msg
	}

	return event, nil
}

// DecodeFrame parses and decodes a websocket text message.
func DecodeFrame(raw []byte, receivedAt time.Time) (domain.Event, error) {
	frame, err := ParseFrame(raw)
	if err != nil {
		return domain.Event{}, err
	}
	return Decode(frame.Event, frame.Data, receivedAt)
}

// DecodeEnvelope parses and decodes a broker message. The envelope time wins
// over receivedAt when set.
func DecodeEnvelope(raw []byte, receivedAt time.Time) (domain.Event, error) {
	envelope, err := ParseEnvelope(raw)
	if err != nil {
		return domain.Event{}, err
	}
	if !envelope.Meta.Time.IsZero() {
		receivedAt = envelope.Meta.Time
	}
	return Decode(envelope.Meta.Type, envelope.Data, receivedAt)
}

func unmarshal(data []byte, target any) error {
	if isNull(data) {
		return nil
	}
	return json.Unmarshal(data, target)
}

// decodeEntity returns nil when the payload is absent or unusable so the
// event is counted as missing its payload instead of being dropped here.
func decodeEntity(kind domain.EntityKind, raw []byte) *domain.Entity {
	if isNull(raw) || !kind.Valid() {
		return nil
	}
	entity, err := domain.DecodeEntity(kind, raw)
	if err != nil {
		return nil
	}
	return &entity
}

func parseKind(raw string) domain.EntityKind {
	kind, err := domain.ParseEntityKind(raw)
	if err != nil {
		return domain.EntityKind(raw)
	}
	return kind
}

func rawID(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		return number.String()
	}
	var oid struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(raw, &oid); err == nil {
		return oid.OID
	}
	return ""
}

func isNull(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
