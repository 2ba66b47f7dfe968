package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wadash/internal/domain"
)

func scrape(t *testing.T, recorder *Recorder) string {
	t.Helper()

	server := httptest.NewServer(recorder.Handler())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecorderExposesSyncActivity(t *testing.T) {
	t.Parallel()

	recorder := NewRecorder()
	recorder.ObserveEvent(domain.KindLead, domain.OutcomeInserted)
	recorder.ObserveEvent(domain.KindLead, domain.OutcomeInserted)
	recorder.ObserveEvent(domain.KindLead, domain.OutcomeWrongKind)
	recorder.ObservePoll(domain.KindLead, nil, 120*time.Millisecond)
	recorder.ObservePoll(domain.KindLead, errors.New("timeout"), time.Second)
	recorder.ObserveConnState(domain.KindLead, domain.ConnState{Status: domain.ConnConnected})

	body := scrape(t, recorder)

	assert.Contains(t, body, `wadash_sync_events_total{kind="lead",outcome="inserted"} 2`)
	assert.Contains(t, body, `wadash_sync_events_total{kind="lead",outcome="ignored_wrong_kind"} 1`)
	assert.Contains(t, body, `wadash_sync_polls_total{kind="lead",result="ok"} 1`)
	assert.Contains(t, body, `wadash_sync_polls_total{kind="lead",result="error"} 1`)
	assert.Contains(t, body, `wadash_sync_poll_duration_seconds_count{kind="lead"} 2`)
	assert.Contains(t, body, `wadash_realtime_state_transitions_total{kind="lead",status="connected"} 1`)
	assert.Contains(t, body, `wadash_realtime_connected{kind="lead"} 1`)
}

func TestRecorderConnectedGaugeDropsOnDisconnect(t *testing.T) {
	t.Parallel()

	recorder := NewRecorder()
	recorder.ObserveConnState(domain.KindOrder, domain.ConnState{Status: domain.ConnConnected})
	recorder.ObserveConnState(domain.KindOrder, domain.ConnState{Status: domain.ConnReconnecting, Attempt: 1})

	body := scrape(t, recorder)
	assert.Contains(t, body, `wadash_realtime_connected{kind="order"} 0`)
	assert.Contains(t, body, `wadash_realtime_state_transitions_total{kind="order",status="reconnecting"} 1`)
}

func TestRecordersAreIndependent(t *testing.T) {
	t.Parallel()

	first := NewRecorder()
	second := NewRecorder()
	first.ObserveEvent(domain.KindConversation, domain.OutcomeReplaced)

	assert.NotContains(t, scrape(t, second), "wadash_sync_events_total{")
}
