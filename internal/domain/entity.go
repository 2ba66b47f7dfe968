package domain

import (
	"fmt"
	"strings"
	"time"
)

type EntityKind string

const (
	KindConversation EntityKind = "conversation"
	KindLead         EntityKind = "lead"
	KindOrder        EntityKind = "order"
	KindAppointment  EntityKind = "appointment"
)

// Schema describes how an entity kind is laid out on the wire.
type Schema struct {
	Kind           EntityKind
	Resource       string
	RecencyFields  []string
	CounterFields  []string
	PluralLabel    string
	SummaryColumns []string
}

var schemas = map[EntityKind]Schema{
	KindConversation: {
		Kind:           KindConversation,
		Resource:       "conversations",
		RecencyFields:  []string{"lastMessageAt"},
		PluralLabel:    "Conversations",
		SummaryColumns: []string{"phone", "status", "lastMessage"},
	},
	KindLead: {
		Kind:           KindLead,
		Resource:       "analytics/leads",
		RecencyFields:  []string{"lastInteraction", "createdAt"},
		CounterFields:  []string{"linkClicks", "addToCartCount", "ordersCount", "agentRequests"},
		PluralLabel:    "Leads",
		SummaryColumns: []string{"name", "phoneNumber", "chatSummary"},
	},
	KindOrder: {
		Kind:           KindOrder,
		Resource:       "orders",
		RecencyFields:  []string{"updatedAt", "date", "createdAt"},
		PluralLabel:    "Orders",
		SummaryColumns: []string{"orderId", "customer", "amount", "status"},
	},
	KindAppointment: {
		Kind:           KindAppointment,
		Resource:       "appointments",
		RecencyFields:  []string{"updatedAt", "createdAt", "date"},
		PluralLabel:    "Appointments",
		SummaryColumns: []string{"name", "phone", "service", "doctor", "time"},
	},
}

func Kinds() []EntityKind {
	return []EntityKind{KindConversation, KindLead, KindOrder, KindAppointment}
}

func ParseEntityKind(raw string) (EntityKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.TrimSuffix(normalized, "s")
	kind := EntityKind(normalized)
	if _, ok := schemas[kind]; !ok {
		return "", fmt.Errorf("unknown entity kind %q", raw)
	}
	return kind, nil
}

func (k EntityKind) Valid() bool {
	_, ok := schemas[k]
	return ok
}

func (k EntityKind) Schema() Schema {
	if schema, ok := schemas[k]; ok {
		return schema
	}
	return Schema{Kind: k, Resource: string(k) + "s", PluralLabel: string(k)}
}

func (s Schema) IsCounter(field string) bool {
	for _, counter := range s.CounterFields {
		if counter == field {
			return true
		}
	}
	return false
}

type Entity struct {
	ID        string
	Kind      EntityKind
	UpdatedAt time.Time
	Counters  map[string]int64
	Payload   map[string]any

	idField      string
	recencyField string
}

func (e Entity) Counter(field string) int64 {
	return e.Counters[field]
}

// Field returns a payload value rendered as display text.
func (e Entity) Field(name string) string {
	if value, ok := e.Counters[name]; ok {
		return fmt.Sprintf("%d", value)
	}
	raw, ok := e.Payload[name]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return v
	case map[string]any:
		if label, ok := v["name"].(string); ok {
			return label
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Clone returns a deep copy of the mutable parts of the entity.
func (e Entity) Clone() Entity {
	out := e
	if e.Counters != nil {
		out.Counters = make(map[string]int64, len(e.Counters))
		for key, value := range e.Counters {
			out.Counters[key] = value
		}
	}
	if e.Payload != nil {
		out.Payload = clonePayload(e.Payload)
	}
	return out
}

func clonePayload(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return clonePayload(v)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = cloneValue(item)
		}
		return items
	default:
		return v
	}
}
