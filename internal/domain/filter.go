package domain

import (
	"strings"
	"time"
	"unicode"
)

const (
	ConversationHumanTakeover = "HUMAN_TAKEOVER"
	ConversationBotActive     = "BOT_ACTIVE"
)

type ConversationFilter struct {
	Term string
	Days int
	Now  time.Time
}

func NormalizeDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FilterConversations keeps conversations whose phone digits contain the
// term's digits or whose last message contains the term. A positive Days keeps
// only conversations with a message inside the window.
func FilterConversations(items []Entity, filter ConversationFilter) []Entity {
	term := strings.ToLower(strings.TrimSpace(filter.Term))
	termDigits := NormalizeDigits(term)

	var cutoff time.Time
	if filter.Days > 0 {
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		cutoff = now.AddDate(0, 0, -filter.Days)
	}

	out := make([]Entity, 0, len(items))
	for _, item := range items {
		if term != "" {
			matchPhone := termDigits != "" && strings.Contains(NormalizeDigits(item.Field("phone")), termDigits)
			matchMessage := strings.Contains(strings.ToLower(item.Field("lastMessage")), term)
			if !matchPhone && !matchMessage {
				continue
			}
		}
		if !cutoff.IsZero() {
			if item.UpdatedAt.IsZero() || item.UpdatedAt.Before(cutoff) {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

var searchFields = map[EntityKind][]string{
	KindAppointment: {"name", "phone", "doctor"},
	KindOrder:       {"customer", "orderId"},
	KindLead:        {"name", "phoneNumber"},
}

// SearchEntities keeps items whose searchable fields contain the term,
// case-insensitively. Conversations go through FilterConversations.
func SearchEntities(kind EntityKind, items []Entity, term string) []Entity {
	if kind == KindConversation {
		return FilterConversations(items, ConversationFilter{Term: term})
	}
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return items
	}
	fields := searchFields[kind]
	out := make([]Entity, 0, len(items))
	for _, item := range items {
		for _, field := range fields {
			if strings.Contains(strings.ToLower(item.Field(field)), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}
