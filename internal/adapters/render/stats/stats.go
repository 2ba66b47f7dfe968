// Package stats renders analytics reports.
package stats

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bnema/wadash/internal/domain"
)

const dateLayout = "2006-01-02"

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	total  lipgloss.Style
	border lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	empty  lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true),
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241")).Padding(0, 1),
		cell:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1),
		total:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1),
		border: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		value:  lipgloss.NewStyle().Bold(true),
		empty:  lipgloss.NewStyle().Faint(true),
	}
}

var dailyHeaders = []string{"date", "chats", "users", "appointments", "messages", "birthdays", "reminders"}

// RenderDaily prints one row per day, oldest first, followed by a totals row.
func RenderDaily(stats []domain.DailyStats) string {
	s := newStyles()
	title := s.title.Render(fmt.Sprintf("Daily activity (%d days)", len(stats)))
	if len(stats) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, s.empty.Render("No activity recorded."))
	}

	sorted := domain.SortDailyStats(stats)
	rows := make([][]string, 0, len(sorted)+1)
	for _, day := range sorted {
		rows = append(rows, []string{
			day.Date.Format(dateLayout),
			itoa(day.TotalChats),
			itoa(day.UniqueUsers),
			itoa(day.AppointmentsBooked),
			itoa(day.TotalMessagesExchanged),
			itoa(day.BirthdayRemindersSent),
			itoa(day.AppointmentRemindersSent),
		})
	}
	totals := domain.SumDailyStats(sorted)
	rows = append(rows, []string{
		"total",
		itoa(totals.Chats),
		itoa(totals.Users),
		itoa(totals.Appointments),
		itoa(totals.Messages),
		itoa(totals.Birthdays),
		itoa(totals.AppointmentReminders),
	})
	totalRow := len(rows) - 1

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.border).
		Headers(dailyHeaders...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return s.header
			case row == totalRow:
				return s.total
			default:
				return s.cell
			}
		})

	return lipgloss.JoinVertical(lipgloss.Left, title, t.String())
}

// RenderRealtime prints the live lead and order counters.
func RenderRealtime(stats domain.RealtimeStats) string {
	s := newStyles()
	line := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render(label+":"), " ", s.value.Render(value))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		s.title.Render("Realtime"),
		line("leads", fmt.Sprintf("%d (%d today)", stats.Leads.Total, stats.Leads.NewToday)),
		line("orders", fmt.Sprintf("%d (%.2f revenue)", stats.Orders.Count, stats.Orders.Revenue)),
		line("link clicks", itoa(stats.LinkClicks)),
		line("add to cart", itoa(stats.AddToCarts)),
		line("agent requests", itoa(stats.AgentRequests)),
	)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
