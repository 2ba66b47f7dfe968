package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/wadash/internal/domain"
)

const maxErrorMessage = 200

var listEnvelopeKeys = map[domain.EntityKind]string{
	domain.KindLead: "leads",
}

// decodeList accepts either a bare array or an object wrapping it. Items
// without an id are skipped.
func decodeList(kind domain.EntityKind, body []byte) ([]domain.Entity, int, error) {
	raw, err := unwrapList(kind, body)
	if err != nil {
		return nil, 0, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, 0, fmt.Errorf("decode %s list: %w", kind, err)
	}

	out := make([]domain.Entity, 0, len(items))
	skipped := 0
	for i, item := range items {
		entity, err := domain.DecodeEntity(kind, item)
		if err != nil {
			if errors.Is(err, domain.ErrEntityMissingID) {
				skipped++
				continue
			}
			return nil, 0, fmt.Errorf("decode %s list item %d: %w", kind, i, err)
		}
		out = append(out, entity)
	}
	return out, skipped, nil
}

func unwrapList(kind domain.EntityKind, body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []byte("[]"), nil
	}
	if trimmed[0] == '[' {
		return trimmed, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", kind, err)
	}
	keys := []string{string(kind) + "s", "items", "data"}
	if key, ok := listEnvelopeKeys[kind]; ok {
		keys = append([]string{key}, keys...)
	}
	for _, key := range keys {
		if raw, ok := envelope[key]; ok {
			return unwrapList(kind, raw)
		}
	}
	return nil, fmt.Errorf("decode %s list: response has no list field", kind)
}

// decodeBody reads a JSON response regardless of its Content-Type. An empty
// body leaves v untouched.
func decodeBody(body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	return json.Unmarshal(trimmed, v)
}

func decodeOptionalEntity(kind domain.EntityKind, raw json.RawMessage) (*domain.Entity, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	entity, err := domain.DecodeEntity(kind, trimmed)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	message := strings.TrimSpace(string(body))
	if len(message) > maxErrorMessage {
		message = message[:maxErrorMessage] + "..."
	}
	return message
}
