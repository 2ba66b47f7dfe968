package domain

import "time"

type EventType string

const (
	EventEntityUpdate EventType = "entity_update"
	EventNewEntity    EventType = "new_entity"
	EventCounter      EventType = "counter_event"
	EventRefreshHint  EventType = "refresh_hint"
	EventMessage      EventType = "new_message"
)

func (t EventType) Known() bool {
	switch t {
	case EventEntityUpdate, EventNewEntity, EventCounter, EventRefreshHint, EventMessage:
		return true
	default:
		return false
	}
}

type CounterDelta struct {
	TargetID string
	Field    string
	Delta    int64
}

// Event is a push notification from the realtime channel. Entity is set for
// entity_update and new_entity, Counter for counter_event and Message for
// new_message.
type Event struct {
	Type       EventType
	Kind       EntityKind
	Name       string
	Entity     *Entity
	Counter    *CounterDelta
	Message    *Message
	ReceivedAt time.Time
}

func (e Event) EffectiveKind() EntityKind {
	if e.Kind != "" {
		return e.Kind
	}
	if e.Entity != nil {
		return e.Entity.Kind
	}
	return ""
}

type ApplyOutcome string

const (
	OutcomeInserted       ApplyOutcome = "inserted"
	OutcomeReplaced       ApplyOutcome = "replaced"
	OutcomeIncremented    ApplyOutcome = "incremented"
	OutcomeRefresh        ApplyOutcome = "refresh"
	OutcomeUnknownType    ApplyOutcome = "ignored_unknown_type"
	OutcomeWrongKind      ApplyOutcome = "ignored_wrong_kind"
	OutcomeMissingTarget  ApplyOutcome = "ignored_missing_target"
	OutcomeMissingPayload ApplyOutcome = "ignored_missing_payload"
	// OutcomeTranscript marks message events, which belong to a transcript
	// rather than the conversation list.
	OutcomeTranscript ApplyOutcome = "transcript"
)

func (o ApplyOutcome) Mutated() bool {
	switch o {
	case OutcomeInserted, OutcomeReplaced, OutcomeIncremented:
		return true
	default:
		return false
	}
}

func (o ApplyOutcome) Ignored() bool {
	return !o.Mutated() && o != OutcomeRefresh
}

// ApplyEvent merges one event into the collection and returns the result. The
// input collection is never modified.
func ApplyEvent(c Collection, event Event) (Collection, ApplyOutcome) {
	if !event.Type.Known() {
		return c, OutcomeUnknownType
	}
	if kind := event.EffectiveKind(); kind != "" && c.Kind != "" && kind != c.Kind {
		return c, OutcomeWrongKind
	}

	switch event.Type {
	case EventRefreshHint:
		return c, OutcomeRefresh
	case EventCounter:
		return applyCounter(c, event.Counter)
	case EventMessage:
		return c, OutcomeTranscript
	default:
		return applyEntity(c, event)
	}
}

func applyEntity(c Collection, event Event) (Collection, ApplyOutcome) {
	if event.Entity == nil || event.Entity.ID == "" {
		return c, OutcomeMissingPayload
	}
	incoming := event.Entity.Clone()
	if incoming.Kind == "" {
		incoming.Kind = c.Kind
	}

	idx := c.IndexOf(incoming.ID)
	if idx < 0 {
		if incoming.UpdatedAt.IsZero() {
			incoming.UpdatedAt = event.ReceivedAt
		}
		pos := insertionIndex(c.Items, incoming)
		items := make([]Entity, 0, len(c.Items)+1)
		items = append(items, c.Items[:pos]...)
		items = append(items, incoming)
		items = append(items, c.Items[pos:]...)
		out := Collection{Kind: c.Kind, Items: items, Limit: c.Limit}
		return out.truncated(), OutcomeInserted
	}

	current := c.Items[idx]
	if incoming.UpdatedAt.IsZero() {
		incoming.UpdatedAt = current.UpdatedAt
		if incoming.recencyField == "" {
			incoming.recencyField = current.recencyField
		}
	}

	if incoming.UpdatedAt.Equal(current.UpdatedAt) {
		items := make([]Entity, len(c.Items))
		copy(items, c.Items)
		items[idx] = incoming
		return Collection{Kind: c.Kind, Items: items, Limit: c.Limit}, OutcomeReplaced
	}

	rest := make([]Entity, 0, len(c.Items))
	rest = append(rest, c.Items[:idx]...)
	rest = append(rest, c.Items[idx+1:]...)
	pos := insertionIndex(rest, incoming)
	items := make([]Entity, 0, len(c.Items))
	items = append(items, rest[:pos]...)
	items = append(items, incoming)
	items = append(items, rest[pos:]...)
	out := Collection{Kind: c.Kind, Items: items, Limit: c.Limit}
	return out.truncated(), OutcomeReplaced
}

func applyCounter(c Collection, delta *CounterDelta) (Collection, ApplyOutcome) {
	if delta == nil || delta.Field == "" {
		return c, OutcomeMissingPayload
	}
	if delta.TargetID == "" {
		return c, OutcomeMissingTarget
	}
	idx := c.IndexOf(delta.TargetID)
	if idx < 0 {
		return c, OutcomeMissingTarget
	}

	updated := c.Items[idx].Clone()
	if updated.Counters == nil {
		updated.Counters = make(map[string]int64, 1)
	}
	if _, tracked := updated.Counters[delta.Field]; !tracked {
		if seed, ok := numberValue(updated.Payload[delta.Field]); ok {
			updated.Counters[delta.Field] = seed
			delete(updated.Payload, delta.Field)
		}
	}
	updated.Counters[delta.Field] += delta.Delta

	items := make([]Entity, len(c.Items))
	copy(items, c.Items)
	items[idx] = updated
	return Collection{Kind: c.Kind, Items: items, Limit: c.Limit}, OutcomeIncremented
}
