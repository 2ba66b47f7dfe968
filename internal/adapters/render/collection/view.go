package collection

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bnema/wadash/internal/application"
	"github.com/bnema/wadash/internal/domain"
)

const maxCellWidth = 40

type RenderOptions struct {
	Now time.Time
	// Live adds the realtime channel and poll status line.
	Live bool
	// Details renders every payload field of the selected entity.
	Details bool
}

func renderView(snapshot application.Snapshot, opts RenderOptions, s styles) string {
	kind := snapshot.Collection.Kind
	schema := kind.Schema()

	lines := []string{
		s.title.Render(titleFor(schema)),
		s.header.Render(fmt.Sprintf("%s: %d", strings.ToLower(schema.PluralLabel), snapshot.Collection.Len())),
	}
	if opts.Live {
		lines = append(lines, statusLine(snapshot, opts.Now, s))
	}

	if snapshot.Collection.Len() == 0 {
		lines = append(lines, s.empty.Render(fmt.Sprintf("No %s yet.", strings.ToLower(schema.PluralLabel))))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines, s.section.Render(renderTable(snapshot, opts.Now, s)))

	if opts.Details {
		if selected, ok := snapshot.Selected(); ok {
			lines = append(lines, s.section.Render(renderDetails(selected, s)))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func titleFor(schema domain.Schema) string {
	if schema.PluralLabel == "" {
		return "Dashboard"
	}
	return schema.PluralLabel
}

func renderTable(snapshot application.Snapshot, now time.Time, s styles) string {
	columns := snapshot.Collection.Kind.Schema().SummaryColumns
	headers := make([]string, 0, len(columns)+2)
	headers = append(headers, "id")
	headers = append(headers, columns...)
	headers = append(headers, "updated")

	rows := make([][]string, 0, snapshot.Collection.Len())
	selectedRow := -1
	for i, item := range snapshot.Collection.Items {
		row := make([]string, 0, len(headers))
		row = append(row, shortID(item.ID))
		for _, column := range columns {
			row = append(row, truncate(item.Field(column), maxCellWidth))
		}
		row = append(row, formatRelative(item.UpdatedAt, now))
		rows = append(rows, row)
		if item.ID == snapshot.SelectedID {
			selectedRow = i
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return s.header.Padding(0, 1)
			case row == selectedRow:
				return s.selected
			default:
				return s.cell
			}
		}).
		String()
}

func renderDetails(entity domain.Entity, s styles) string {
	keys := make([]string, 0, len(entity.Payload)+len(entity.Counters))
	for key := range entity.Payload {
		keys = append(keys, key)
	}
	for key := range entity.Counters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.detailKey.Render(key+":"),
			" ",
			s.detail.Render(truncate(entity.Field(key), 2*maxCellWidth)),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func statusLine(snapshot application.Snapshot, now time.Time, s styles) string {
	parts := []string{connLabel(snapshot.Conn, s)}

	if snapshot.PollFailing {
		parts = append(parts, s.warning.Render("[poll failing]"))
	}
	if !snapshot.LastPollAt.IsZero() {
		parts = append(parts, s.detailKey.Render("polled "+formatRelative(snapshot.LastPollAt, now)))
	}

	return strings.Join(parts, " ")
}

func connLabel(state domain.ConnState, s styles) string {
	switch {
	case state.Live():
		return s.live.Render("● live")
	case state.Degraded():
		return s.warning.Render("● offline (polling only)")
	case state.Status == domain.ConnReconnecting:
		return s.pending.Render(fmt.Sprintf("● reconnecting (attempt %d)", state.Attempt))
	case state.Status == domain.ConnConnecting:
		return s.pending.Render("● connecting")
	case state.Status == domain.ConnIdle || state.Status == "":
		return s.empty.Render("● polling only")
	default:
		return s.empty.Render("● " + state.String())
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return "-"
	}
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	return string(runes[:width-1]) + "…"
}

func formatRelative(at, now time.Time) string {
	if at.IsZero() {
		return "-"
	}
	if now.IsZero() {
		return at.UTC().Format("2006-01-02 15:04")
	}

	elapsed := now.Sub(at)
	if elapsed < 0 {
		return "just now"
	}
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	case elapsed < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(math.Floor(elapsed.Hours()/24)))
	default:
		return at.Format("02 Jan 2006")
	}
}
