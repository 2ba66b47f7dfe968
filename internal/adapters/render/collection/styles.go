package collection

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	cell      lipgloss.Style
	selected  lipgloss.Style
	border    lipgloss.Style
	detailKey lipgloss.Style
	detail    lipgloss.Style
	live      lipgloss.Style
	pending   lipgloss.Style
	warning   lipgloss.Style
	section   lipgloss.Style
	empty     lipgloss.Style
	help      lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241")),
		cell:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1),
		selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1),
		border:    lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		detailKey: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		detail:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		live:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		pending:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		warning:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:   lipgloss.NewStyle().MarginTop(1),
		empty:     lipgloss.NewStyle().Faint(true),
		help:      lipgloss.NewStyle().Faint(true),
	}
}
