package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

type fakeStream struct {
	events []domain.Event
	err    error
	block  bool
	closed bool
}

func (s *fakeStream) Run(ctx context.Context, onEvent ports.EventHandler) error {
	for _, event := range s.events {
		onEvent(event)
	}
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.err
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type stateRecorder struct {
	mu     sync.Mutex
	states []domain.ConnState
}

func (r *stateRecorder) record(state domain.ConnState) {
	r.mu.Lock()
	r.states = append(r.states, state)
	r.mu.Unlock()
}

func (r *stateRecorder) statuses() []domain.ConnStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ConnStatus, 0, len(r.states))
	for _, state := range r.states {
		out = append(out, state.Status)
	}
	return out
}

func (r *stateRecorder) last() domain.ConnState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[len(r.states)-1]
}

func TestRetryPolicyBackoff(t *testing.T) {
	t.Parallel()

	policy := DefaultRetryPolicy()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 500 * time.Millisecond},
		{attempt: 1, want: 500 * time.Millisecond},
		{attempt: 2, want: time.Second},
		{attempt: 3, want: 2 * time.Second},
		{attempt: 4, want: 2 * time.Second},
		{attempt: 30, want: 2 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, policy.Backoff(tt.attempt), "attempt %d", tt.attempt)
	}

	assert.Equal(t, 300*time.Millisecond, RetryPolicy{Delay: 300 * time.Millisecond}.Backoff(3))
}

func TestSuperviseGivesUpAfterBudget(t *testing.T) {
	t.Parallel()

	dialErr := errors.New("connection refused")
	dials := 0
	dial := func(context.Context) (Stream, error) {
		dials++
		return nil, dialErr
	}
	var sleeps []time.Duration
	wait := func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	recorder := &stateRecorder{}

	Supervise(context.Background(), DefaultRetryPolicy(), dial, func(domain.Event) {}, recorder.record, zerolog.Nop(), wait)

	assert.Equal(t, 6, dials)
	assert.Equal(t, []time.Duration{
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		2 * time.Second,
		2 * time.Second,
	}, sleeps)

	assert.Equal(t, []domain.ConnStatus{
		domain.ConnConnecting,
		domain.ConnReconnecting,
		domain.ConnReconnecting,
		domain.ConnReconnecting,
		domain.ConnReconnecting,
		domain.ConnReconnecting,
		domain.ConnDisconnected,
	}, recorder.statuses())

	final := recorder.last()
	assert.True(t, final.Degraded())
	require.ErrorIs(t, final.Err, domain.ErrSubscriptionFailed)
	require.ErrorIs(t, final.Err, dialErr)

	var subErr *domain.SubscriptionError
	require.ErrorAs(t, final.Err, &subErr)
	assert.Equal(t, 5, subErr.Attempts)
}

func TestSuperviseResetsAttemptsAfterConnect(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dropped := errors.New("read: connection reset")
	script := []func() (Stream, error){
		func() (Stream, error) { return nil, errors.New("refused") },
		func() (Stream, error) {
			return &fakeStream{events: []domain.Event{{Type: domain.EventRefreshHint}}, err: dropped}, nil
		},
		func() (Stream, error) { return &fakeStream{block: true}, nil },
	}
	dials := 0
	dial := func(context.Context) (Stream, error) {
		step := script[dials]
		dials++
		if dials == len(script) {
			defer cancel()
		}
		return step()
	}

	var events []domain.Event
	recorder := &stateRecorder{}
	wait := func(context.Context, time.Duration) error { return nil }

	Supervise(ctx, DefaultRetryPolicy(), dial, func(e domain.Event) { events = append(events, e) }, recorder.record, zerolog.Nop(), wait)

	assert.Equal(t, 3, dials)
	require.Len(t, events, 1)
	assert.Equal(t, []domain.ConnStatus{
		domain.ConnConnecting,
		domain.ConnReconnecting,
		domain.ConnConnected,
		domain.ConnReconnecting,
	}, recorder.statuses())

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Equal(t, 1, recorder.states[1].Attempt)
	assert.Equal(t, 1, recorder.states[3].Attempt)
	assert.ErrorIs(t, recorder.states[3].Err, dropped)
}

func TestStartUnsubscribeStopsReporting(t *testing.T) {
	t.Parallel()

	connected := make(chan struct{})
	stream := &fakeStream{block: true}
	dial := func(context.Context) (Stream, error) {
		close(connected)
		return stream, nil
	}
	recorder := &stateRecorder{}

	unsubscribe := Start(context.Background(), DefaultRetryPolicy(), dial, func(domain.Event) {}, recorder.record, zerolog.Nop())

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("stream was never dialed")
	}

	unsubscribe()
	unsubscribe()

	assert.True(t, stream.closed)
	assert.NotContains(t, recorder.statuses(), domain.ConnDisconnected)
}
