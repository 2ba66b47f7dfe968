package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	primaryIDField  = "_id"
	fallbackIDField = "id"
)

var ErrEntityMissingID = errors.New("entity has no id")

var recencyLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DecodeEntity parses a single JSON object of the given kind.
func DecodeEntity(kind EntityKind, raw []byte) (Entity, error) {
	var fields map[string]any
	if err := decodeNumbers(raw, &fields); err != nil {
		return Entity{}, fmt.Errorf("decode %s: %w", kind, err)
	}
	if fields == nil {
		return Entity{}, fmt.Errorf("decode %s: empty object", kind)
	}
	return NewEntity(kind, fields)
}

// DecodeEntities parses a JSON array of objects of the given kind.
func DecodeEntities(kind EntityKind, raw []byte) ([]Entity, error) {
	var items []map[string]any
	if err := decodeNumbers(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", kind, err)
	}
	out := make([]Entity, 0, len(items))
	for i, fields := range items {
		entity, err := NewEntity(kind, fields)
		if err != nil {
			return nil, fmt.Errorf("decode %s list item %d: %w", kind, i, err)
		}
		out = append(out, entity)
	}
	return out, nil
}

// NewEntity builds an entity from decoded JSON fields. Numbers are expected as
// json.Number but float64 and int values are accepted too.
func NewEntity(kind EntityKind, fields map[string]any) (Entity, error) {
	schema := kind.Schema()
	payload := clonePayload(fields)

	entity := Entity{Kind: kind, Payload: payload}

	for _, key := range []string{primaryIDField, fallbackIDField} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		id := idString(raw)
		if id == "" {
			continue
		}
		entity.ID = id
		entity.idField = key
		break
	}
	if entity.ID == "" {
		return Entity{}, fmt.Errorf("decode %s: %w", kind, ErrEntityMissingID)
	}

	for _, field := range schema.RecencyFields {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		ts, ok := parseRecency(raw)
		if !ok {
			continue
		}
		entity.UpdatedAt = ts
		entity.recencyField = field
		break
	}

	for _, field := range schema.CounterFields {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		value, ok := numberValue(raw)
		if !ok {
			continue
		}
		if entity.Counters == nil {
			entity.Counters = make(map[string]int64, len(schema.CounterFields))
		}
		entity.Counters[field] = value
		delete(payload, field)
	}

	return entity, nil
}

func (e Entity) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Payload)+len(e.Counters)+2)
	for key, value := range e.Payload {
		out[key] = value
	}

	idField := e.idField
	if idField == "" {
		idField = primaryIDField
	}
	out[idField] = e.ID

	if !e.UpdatedAt.IsZero() {
		field := e.recencyField
		if field == "" {
			if recency := e.Kind.Schema().RecencyFields; len(recency) > 0 {
				field = recency[0]
			}
		}
		if field != "" {
			existing, parsed := parseRecency(out[field])
			if !parsed || !existing.Equal(e.UpdatedAt) {
				out[field] = e.UpdatedAt.UTC().Format(time.RFC3339Nano)
			}
		}
	}

	for key, value := range e.Counters {
		out[key] = value
	}

	return json.Marshal(out)
}

// WithPayloadField returns a copy of the entity with one payload field set.
func (e Entity) WithPayloadField(key string, value any) Entity {
	out := e.Clone()
	if out.Payload == nil {
		out.Payload = map[string]any{}
	}
	out.Payload[key] = value
	return out
}

func decodeNumbers(raw []byte, target any) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	return decoder.Decode(target)
}

func idString(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case map[string]any:
		if oid, ok := v["$oid"].(string); ok {
			return oid
		}
	}
	return ""
}

func parseRecency(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return time.Time{}, false
		}
		for _, layout := range recencyLayouts {
			if ts, err := time.Parse(layout, text); err == nil {
				return ts.UTC(), true
			}
		}
		if millis, err := strconv.ParseInt(text, 10, 64); err == nil {
			return time.UnixMilli(millis).UTC(), true
		}
	case json.Number, float64, int, int64:
		if millis, ok := numberValue(v); ok {
			return time.UnixMilli(millis).UTC(), true
		}
	case time.Time:
		return v.UTC(), !v.IsZero()
	}
	return time.Time{}, false
}

func numberValue(raw any) (int64, bool) {
	switch v := raw.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return int64(f), true
		}
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
