package collection

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/wadash/internal/application"
)

const clockTick = 15 * time.Second

// Controller is the part of a sync client the watch view drives.
type Controller interface {
	Select(id string)
	Refresh(ctx context.Context) error
}

// Feed keeps only the newest snapshot so a slow renderer never blocks the
// sync loop.
type Feed struct {
	ch chan application.Snapshot
}

func NewFeed() *Feed {
	return &Feed{ch: make(chan application.Snapshot, 1)}
}

// Push never blocks.
func (f *Feed) Push(snapshot application.Snapshot) {
	for {
		select {
		case f.ch <- snapshot:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

func (f *Feed) C() <-chan application.Snapshot {
	return f.ch
}

type snapshotMsg application.Snapshot

type feedClosedMsg struct{}

type refreshDoneMsg struct {
	err error
}

type tickMsg time.Time

type WatchModel struct {
	ctx        context.Context
	snapshot   application.Snapshot
	updates    <-chan application.Snapshot
	done       <-chan struct{}
	controller Controller
	now        func() time.Time
	styles     styles

	refreshing bool
	err        error
	quitting   bool
}

// NewWatchModel builds the live view. done is closed when the sync client is
// torn down, which ends the program.
func NewWatchModel(ctx context.Context, initial application.Snapshot, updates <-chan application.Snapshot, done <-chan struct{}, controller Controller, now func() time.Time) WatchModel {
	if now == nil {
		now = time.Now
	}
	return WatchModel{
		ctx:        ctx,
		snapshot:   initial,
		updates:    updates,
		done:       done,
		controller: controller,
		now:        now,
		styles:     newStyles(),
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.waitForSnapshot(), tick())
}

func (m WatchModel) waitForSnapshot() tea.Cmd {
	updates, done := m.updates, m.done
	return func() tea.Msg {
		select {
		case snapshot, ok := <-updates:
			if !ok {
				return feedClosedMsg{}
			}
			return snapshotMsg(snapshot)
		case <-done:
			return feedClosedMsg{}
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(clockTick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snapshot = application.Snapshot(msg)
		return m, m.waitForSnapshot()
	case feedClosedMsg:
		m.quitting = true
		return m, tea.Quit
	case tickMsg:
		return m, tick()
	case refreshDoneMsg:
		m.refreshing = false
		m.err = msg.err
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m WatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "j", "down":
		return m.moveSelection(1), nil
	case "k", "up":
		return m.moveSelection(-1), nil
	case "r":
		if m.refreshing || m.controller == nil {
			return m, nil
		}
		m.refreshing = true
		controller, ctx := m.controller, m.ctx
		return m, func() tea.Msg {
			return refreshDoneMsg{err: controller.Refresh(ctx)}
		}
	default:
		return m, nil
	}
}

func (m WatchModel) moveSelection(step int) WatchModel {
	items := m.snapshot.Collection.Items
	if len(items) == 0 {
		return m
	}

	next := 0
	if index := m.snapshot.Collection.IndexOf(m.snapshot.SelectedID); index >= 0 {
		next = index + step
	}
	if next < 0 {
		next = 0
	}
	if next >= len(items) {
		next = len(items) - 1
	}

	id := items[next].ID
	m.snapshot.SelectedID = id
	if m.controller != nil {
		m.controller.Select(id)
	}
	return m
}

func (m WatchModel) Snapshot() application.Snapshot {
	return m.snapshot
}

func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	parts := []string{renderView(m.snapshot, RenderOptions{Now: m.now(), Live: true, Details: true}, m.styles)}
	if m.refreshing {
		parts = append(parts, m.styles.pending.Render("refreshing..."))
	}
	if m.err != nil {
		parts = append(parts, m.styles.warning.Render("refresh failed: "+m.err.Error()))
	}
	parts = append(parts, m.styles.help.Render("j/k select • r refresh • q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
