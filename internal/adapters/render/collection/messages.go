package collection

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/wadash/internal/domain"
)

// RenderMessages prints a conversation transcript, oldest first.
func RenderMessages(conversationID string, messages []domain.Message, now time.Time) string {
	s := newStyles()
	lines := []string{s.title.Render(fmt.Sprintf("Conversation %s", shortID(conversationID)))}
	if len(messages) == 0 {
		lines = append(lines, s.empty.Render("No messages yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, message := range messages {
		lines = append(lines, messageLine(message, now, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RenderMessage prints one transcript line, as appended while following.
func RenderMessage(message domain.Message, now time.Time) string {
	return messageLine(message, now, newStyles())
}

func messageLine(message domain.Message, now time.Time, s styles) string {
	who, style := "customer", s.detail
	if message.Outgoing() {
		who, style = "bot", s.selected.Padding(0)
	}
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.detailKey.Render(fmt.Sprintf("%-8s %-9s", formatRelative(message.Timestamp, now), who)),
		" ",
		style.Render(strings.TrimSpace(message.Content)),
	)
}
