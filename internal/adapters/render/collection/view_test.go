package collection

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wadash/internal/application"
	"github.com/bnema/wadash/internal/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func entity(t *testing.T, kind domain.EntityKind, fields map[string]any) domain.Entity {
	t.Helper()
	e, err := domain.NewEntity(kind, fields)
	require.NoError(t, err)
	return e
}

func leadSnapshot(t *testing.T) application.Snapshot {
	t.Helper()
	items := []domain.Entity{
		entity(t, domain.KindLead, map[string]any{
			"_id":             "65f0aa11bb22cc33dd44ee01",
			"name":            "Ana Souza",
			"phoneNumber":     "+33612345678",
			"chatSummary":     "Asked about   delivery\ntimes for the blue sofa and whether assembly is included",
			"linkClicks":      3,
			"lastInteraction": now.Add(-5 * time.Minute).Format(time.RFC3339),
		}),
		entity(t, domain.KindLead, map[string]any{
			"_id":             "l2",
			"phoneNumber":     "+33700000000",
			"lastInteraction": now.Add(-3 * time.Hour).Format(time.RFC3339),
		}),
	}
	return application.Snapshot{
		Collection:  domain.NewCollection(domain.KindLead, items, 0),
		Initialized: true,
	}
}

func TestRenderListsSummaryColumns(t *testing.T) {
	output, err := Render(leadSnapshot(t), RenderOptions{Now: now})
	require.NoError(t, err)

	assert.Contains(t, output, "Leads")
	assert.Contains(t, output, "leads: 2")
	assert.Contains(t, output, "phoneNumber")
	assert.Contains(t, output, "dd44ee01")
	assert.Contains(t, output, "Ana Souza")
	assert.Contains(t, output, "Asked about delivery times")
	assert.Contains(t, output, "…")
	assert.Contains(t, output, "5m ago")
	assert.Contains(t, output, "3h ago")
	assert.NotContains(t, output, "● live")
}

func TestRenderEmptyCollection(t *testing.T) {
	output, err := Render(application.Snapshot{
		Collection: domain.NewCollection(domain.KindAppointment, nil, 0),
	}, RenderOptions{Now: now})
	require.NoError(t, err)

	assert.Contains(t, output, "appointments: 0")
	assert.Contains(t, output, "No appointments yet.")
}

func TestRenderLiveStatusLine(t *testing.T) {
	tests := []struct {
		name        string
		conn        domain.ConnState
		pollFailing bool
		want        []string
	}{
		{name: "connected", conn: domain.ConnState{Status: domain.ConnConnected}, want: []string{"● live"}},
		{name: "no realtime channel", conn: domain.ConnState{Status: domain.ConnIdle}, want: []string{"● polling only"}},
		{name: "reconnecting", conn: domain.ConnState{Status: domain.ConnReconnecting, Attempt: 2}, want: []string{"reconnecting (attempt 2)"}},
		{
			name:        "degraded with failing poll",
			conn:        domain.ConnState{Status: domain.ConnDisconnected, Err: errors.New("gave up")},
			pollFailing: true,
			want:        []string{"offline (polling only)", "[poll failing]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := leadSnapshot(t)
			snapshot.Conn = tt.conn
			snapshot.PollFailing = tt.pollFailing
			snapshot.LastPollAt = now.Add(-2 * time.Minute)

			output, err := Render(snapshot, RenderOptions{Now: now, Live: true})
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, output, want)
			}
			assert.Contains(t, output, "polled 2m ago")
		})
	}
}

func TestRenderSelectedDetails(t *testing.T) {
	snapshot := leadSnapshot(t)
	snapshot.SelectedID = "l2"

	output, err := Render(snapshot, RenderOptions{Now: now, Details: true})
	require.NoError(t, err)
	assert.Contains(t, output, "phoneNumber: +33700000000")
}

func TestFormatRelative(t *testing.T) {
	tests := []struct {
		at   time.Time
		want string
	}{
		{at: time.Time{}, want: "-"},
		{at: now.Add(10 * time.Second), want: "just now"},
		{at: now.Add(-30 * time.Second), want: "just now"},
		{at: now.Add(-42 * time.Minute), want: "42m ago"},
		{at: now.Add(-26 * time.Hour), want: "1d ago"},
		{at: now.Add(-10 * 24 * time.Hour), want: "19 Feb 2026"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatRelative(tt.at, now))
	}
	assert.Equal(t, "2026-03-01 11:00", formatRelative(now.Add(-time.Hour), time.Time{}))
}

func TestFeedKeepsNewestSnapshot(t *testing.T) {
	feed := NewFeed()
	feed.Push(application.Snapshot{Version: 1})
	feed.Push(application.Snapshot{Version: 2})
	feed.Push(application.Snapshot{Version: 3})

	got := <-feed.C()
	assert.Equal(t, uint64(3), got.Version)

	select {
	case extra := <-feed.C():
		t.Fatalf("unexpected snapshot %d", extra.Version)
	default:
	}
}

type fakeController struct {
	mu       sync.Mutex
	selected []string
	refresh  error
}

func (c *fakeController) Select(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = append(c.selected, id)
}

func (c *fakeController) Refresh(context.Context) error {
	return c.refresh
}

func press(t *testing.T, m WatchModel, key string) (WatchModel, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	model, ok := next.(WatchModel)
	require.True(t, ok)
	return model, cmd
}

func TestWatchModelMovesSelectionWithinBounds(t *testing.T) {
	controller := &fakeController{}
	m := NewWatchModel(context.Background(), leadSnapshot(t), nil, nil, controller, func() time.Time { return now })

	m, _ = press(t, m, "j")
	assert.Equal(t, "65f0aa11bb22cc33dd44ee01", m.Snapshot().SelectedID)
	m, _ = press(t, m, "down")
	m, _ = press(t, m, "down")
	assert.Equal(t, "l2", m.Snapshot().SelectedID)
	m, _ = press(t, m, "up")
	m, _ = press(t, m, "k")
	assert.Equal(t, "65f0aa11bb22cc33dd44ee01", m.Snapshot().SelectedID)

	assert.Equal(t, []string{
		"65f0aa11bb22cc33dd44ee01",
		"l2",
		"l2",
		"65f0aa11bb22cc33dd44ee01",
		"65f0aa11bb22cc33dd44ee01",
	}, controller.selected)
	assert.Contains(t, m.View(), "j/k select")
}

func TestWatchModelRefreshReportsError(t *testing.T) {
	controller := &fakeController{refresh: errors.New("timeout")}
	m := NewWatchModel(context.Background(), leadSnapshot(t), nil, nil, controller, func() time.Time { return now })

	m, cmd := press(t, m, "r")
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "refreshing...")

	_, second := press(t, m, "r")
	assert.Nil(t, second)

	next, _ := m.Update(cmd())
	m = next.(WatchModel)
	assert.Contains(t, m.View(), "refresh failed: timeout")
}

func TestWatchModelAppliesSnapshotsAndQuitsWhenClientStops(t *testing.T) {
	feed := NewFeed()
	done := make(chan struct{})
	m := NewWatchModel(context.Background(), application.Snapshot{Collection: domain.NewCollection(domain.KindLead, nil, 0)}, feed.C(), done, nil, func() time.Time { return now })

	feed.Push(leadSnapshot(t))
	next, cmd := m.Update(m.waitForSnapshot()())
	m = next.(WatchModel)
	require.NotNil(t, cmd)
	assert.Equal(t, 2, m.Snapshot().Collection.Len())
	assert.True(t, strings.Contains(m.View(), "Ana Souza"))

	close(done)
	next, cmd = m.Update(cmd())
	m = next.(WatchModel)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestRenderMessages(t *testing.T) {
	t.Parallel()

	out := RenderMessages("65f0aa11bb22cc33dd44ee99", []domain.Message{
		{Content: "  Is the sofa in stock? ", Direction: domain.DirectionIncoming, Timestamp: now.Add(-10 * time.Minute)},
		{Content: "Yes, ships tomorrow.", Direction: domain.DirectionOutgoing, Timestamp: now.Add(-9 * time.Minute)},
	}, now)

	assert.Contains(t, out, "Conversation dd44ee99")
	assert.Contains(t, out, "Is the sofa in stock?")
	assert.Contains(t, out, "customer")
	assert.Contains(t, out, "bot")
	assert.Less(t, strings.Index(out, "in stock"), strings.Index(out, "ships tomorrow"))

	assert.Contains(t, RenderMessages("c1", nil, now), "No messages yet.")

	line := RenderMessage(domain.Message{Content: "Merci !", Direction: domain.DirectionIncoming, Timestamp: now.Add(-2 * time.Minute)}, now)
	assert.Contains(t, line, "2m ago")
	assert.Contains(t, line, "customer")
	assert.Contains(t, line, "Merci !")
	assert.NotContains(t, line, "\n")
}
