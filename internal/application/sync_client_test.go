package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
	"github.com/bnema/wadash/internal/ports/mocks"
)

var syncBase = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func lead(id string, seconds int) domain.Entity {
	return domain.Entity{ID: id, Kind: domain.KindLead, UpdatedAt: syncBase.Add(time.Duration(seconds) * time.Second)}
}

type fakeEventSource struct {
	mu           sync.Mutex
	onEvent      ports.EventHandler
	onState      ports.StateHandler
	err          error
	unsubscribed atomic.Int32
}

func (f *fakeEventSource) Subscribe(_ context.Context, onEvent ports.EventHandler, onState ports.StateHandler) (ports.Unsubscribe, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.onEvent = onEvent
	f.onState = onState
	f.mu.Unlock()
	onState(domain.ConnState{Status: domain.ConnConnected})
	return func() { f.unsubscribed.Add(1) }, nil
}

func (f *fakeEventSource) emit(event domain.Event) {
	f.mu.Lock()
	handler := f.onEvent
	f.mu.Unlock()
	handler(event)
}

func (f *fakeEventSource) state(state domain.ConnState) {
	f.mu.Lock()
	handler := f.onState
	f.mu.Unlock()
	handler(state)
}

func newTestSyncClient(t *testing.T, source ports.EntitySource, events ports.EventSource, opts ...SyncOption) *SyncClient {
	t.Helper()
	client := NewSyncClient(SyncConfig{Kind: domain.KindLead, PollInterval: -1}, source, events, opts...)
	t.Cleanup(client.Teardown)
	return client
}

func flush(t *testing.T, client *SyncClient) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, client.Flush(ctx))
}

func TestSyncClientInitializeSortsFetchResult(t *testing.T) {
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, ports.ListOptions{}).
		Return([]domain.Entity{lead("1", 5), lead("2", 10), lead("1", 1)}, nil).
		Once()

	client := newTestSyncClient(t, source, nil)
	collection, err := client.Initialize(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, collection.IDs())

	snapshot := client.Snapshot()
	assert.True(t, snapshot.Initialized)
	assert.Equal(t, []string{"2", "1"}, snapshot.Collection.IDs())
	assert.Equal(t, domain.ConnIdle, snapshot.Conn.Status)
}

func TestSyncClientInitializeFailureAllowsRetry(t *testing.T) {
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return(nil, errors.New("connection refused")).
		Once()
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{lead("1", 1)}, nil).
		Once()

	client := newTestSyncClient(t, source, nil)

	_, err := client.Initialize(context.Background())
	require.ErrorIs(t, err, domain.ErrFetchFailed)
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, domain.KindLead, fetchErr.Kind)
	assert.False(t, client.Snapshot().Initialized)
	assert.ErrorIs(t, client.Refresh(context.Background()), ErrSyncNotInitialized)

	collection, err := client.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, collection.IDs())

	_, err = client.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrSyncAlreadyInitialized)
}

func TestSyncClientAppliesEventsInArrivalOrder(t *testing.T) {
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{lead("1", 10), lead("2", 5)}, nil).
		Once()
	events := &fakeEventSource{}

	client := newTestSyncClient(t, source, events)
	_, err := client.Initialize(context.Background())
	require.NoError(t, err)

	replaced := lead("2", 20)
	events.emit(domain.Event{Type: domain.EventEntityUpdate, Kind: domain.KindLead, Entity: &replaced})
	fresh := lead("3", 30)
	events.emit(domain.Event{Type: domain.EventNewEntity, Kind: domain.KindLead, Entity: &fresh})
	events.emit(domain.Event{Type: "frobnicate"})
	flush(t, client)

	snapshot := client.Snapshot()
	assert.Equal(t, []string{"3", "2", "1"}, snapshot.Collection.IDs())
	assert.Equal(t, domain.ConnConnected, snapshot.Conn.Status)
}

func TestSyncClientCounterWithoutTargetUsesSelection(t *testing.T) {
	first := lead("1", 10)
	first.Counters = map[string]int64{"linkClicks": 3}
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{first, lead("2", 5)}, nil).
		Once()
	events := &fakeEventSource{}

	client := newTestSyncClient(t, source, events)
	_, err := client.Initialize(context.Background())
	require.NoError(t, err)

	counter := domain.Event{Type: domain.EventCounter, Kind: domain.KindLead, Counter: &domain.CounterDelta{Field: "linkClicks", Delta: 1}}
	events.emit(counter)
	flush(t, client)
	assert.Equal(t, int64(3), client.Snapshot().Collection.Items[0].Counter("linkClicks"), "no selection means no target")

	client.Select("1")
	events.emit(counter)
	flush(t, client)

	snapshot := client.Snapshot()
	selected, ok := snapshot.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(4), selected.Counter("linkClicks"))
	assert.Equal(t, []string{"1", "2"}, snapshot.Collection.IDs())
	assert.Empty(t, counter.Counter.TargetID, "caller event untouched")
}

func TestSyncClientPollKeepsSelectionWhileEntityExists(t *testing.T) {
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{lead("1", 10), lead("2", 5)}, nil).
		Once()
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{lead("3", 30), lead("2", 6)}, nil).
		Once()
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{lead("3", 30)}, nil).
		Once()

	client := newTestSyncClient(t, source, nil)
	_, err := client.Initialize(context.Background())
	require.NoError(t, err)

	client.Select("2")
	require.NoError(t, client.Refresh(context.Background()))
	snapshot := client.Snapshot()
	assert.Equal(t, "2", snapshot.SelectedID)
	assert.Equal(t, []string{"3", "2"}, snapshot.Collection.IDs())

	require.NoError(t, client.Refresh(context.Background()))
	assert.Empty(t, client.Snapshot().SelectedID)
}

func TestSyncClientFailedPollLeavesCollectionUnchanged(t *testing.T) {
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{lead("1", 10), lead("2", 5)}, nil).
		Once()
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return(nil, errors.New("timeout")).
		Once()
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{lead("1", 10)}, nil).
		Once()

	client := newTestSyncClient(t, source, nil)
	_, err := client.Initialize(context.Background())
	require.NoError(t, err)
	flush(t, client)
	before := client.Snapshot().Collection

	err = client.Refresh(context.Background())
	require.ErrorIs(t, err, domain.ErrPollFailed)
	var pollErr *domain.PollError
	require.ErrorAs(t, err, &pollErr)

	snapshot := client.Snapshot()
	assert.Equal(t, before, snapshot.Collection)
	assert.True(t, snapshot.PollFailing)
	assert.Error(t, snapshot.PollErr)

	require.NoError(t, client.Refresh(context.Background()))
	snapshot = client.Snapshot()
	assert.False(t, snapshot.PollFailing)
	assert.NoError(t, snapshot.PollErr)
	assert.Equal(t, []string{"1"}, snapshot.Collection.IDs())
}

func TestSyncClientPollOverridesEarlierEventsOnly(t *testing.T) {
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{lead("1", 10)}, nil).
		Once()
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{lead("1", 12)}, nil).
		Once()
	events := &fakeEventSource{}

	client := newTestSyncClient(t, source, events)
	_, err := client.Initialize(context.Background())
	require.NoError(t, err)

	early := lead("1", 50)
	events.emit(domain.Event{Type: domain.EventEntityUpdate, Entity: &early})
	require.NoError(t, client.Refresh(context.Background()))
	got, ok := client.Snapshot().Collection.Get("1")
	require.True(t, ok)
	assert.Equal(t, lead("1", 12).UpdatedAt, got.UpdatedAt)

	late := lead("1", 60)
	events.emit(domain.Event{Type: domain.EventEntityUpdate, Entity: &late})
	flush(t, client)
	got, _ = client.Snapshot().Collection.Get("1")
	assert.Equal(t, late.UpdatedAt, got.UpdatedAt)
}

func TestSyncClientTeardownDropsLateCallbacks(t *testing.T) {
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{lead("1", 10)}, nil).
		Once()
	events := &fakeEventSource{}

	client := newTestSyncClient(t, source, events)
	_, err := client.Initialize(context.Background())
	require.NoError(t, err)
	flush(t, client)
	before := client.Snapshot()

	client.Teardown()
	client.Teardown()

	late := lead("9", 99)
	require.NotPanics(t, func() {
		events.emit(domain.Event{Type: domain.EventNewEntity, Entity: &late})
		events.state(domain.ConnState{Status: domain.ConnReconnecting, Attempt: 1})
		client.Select("1")
	})

	assert.Equal(t, before, client.Snapshot())
	assert.Equal(t, int32(1), events.unsubscribed.Load())
	assert.ErrorIs(t, client.Flush(context.Background()), ErrSyncClosed)
	assert.ErrorIs(t, client.Refresh(context.Background()), ErrSyncClosed)
	_, err = client.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrSyncClosed)

	select {
	case <-client.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestSyncClientTeardownDuringInitialFetch(t *testing.T) {
	var client *SyncClient
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		RunAndReturn(func(context.Context, domain.EntityKind, ports.ListOptions) ([]domain.Entity, error) {
			client.Teardown()
			return nil, &domain.AuthError{StatusCode: 401, Message: "jwt expired"}
		}).
		Once()
	events := &fakeEventSource{}
	client = newTestSyncClient(t, source, events)

	result := make(chan error, 1)
	go func() {
		_, err := client.Initialize(context.Background())
		result <- err
	}()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrSyncClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("initialize did not return after teardown")
	}
	assert.False(t, client.Snapshot().Initialized)
	assert.Equal(t, int32(0), events.unsubscribed.Load())
}

func TestSyncClientRejectsConcurrentInitialize(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		RunAndReturn(func(context.Context, domain.EntityKind, ports.ListOptions) ([]domain.Entity, error) {
			close(started)
			<-release
			return []domain.Entity{lead("1", 1)}, nil
		}).
		Once()

	client := newTestSyncClient(t, source, nil)
	result := make(chan error, 1)
	go func() {
		_, err := client.Initialize(context.Background())
		result <- err
	}()
	<-started

	_, err := client.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrSyncInitializing)

	close(release)
	require.NoError(t, <-result)
	_, err = client.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrSyncAlreadyInitialized)
}

func TestSyncClientTeardownDropsQueuedPollResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{lead("1", 10)}, nil).
		Once()
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		RunAndReturn(func(context.Context, domain.EntityKind, ports.ListOptions) ([]domain.Entity, error) {
			close(started)
			<-release
			return []domain.Entity{lead("2", 20), lead("3", 30)}, nil
		}).
		Once()

	client := newTestSyncClient(t, source, nil)
	_, err := client.Initialize(context.Background())
	require.NoError(t, err)
	flush(t, client)
	before := client.Snapshot()

	refreshed := make(chan error, 1)
	go func() { refreshed <- client.Refresh(context.Background()) }()
	<-started

	client.Teardown()
	close(release)

	select {
	case err := <-refreshed:
		assert.ErrorIs(t, err, ErrSyncClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not return after teardown")
	}
	assert.Equal(t, before, client.Snapshot())
	assert.Equal(t, []string{"1"}, client.Snapshot().Collection.IDs())
}

func TestSyncClientRefreshHintTriggersPoll(t *testing.T) {
	polled := make(chan struct{}, 1)
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindAppointment, mock.Anything).
		Return([]domain.Entity{{ID: "a1", Kind: domain.KindAppointment, UpdatedAt: syncBase}}, nil).
		Once()
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindAppointment, mock.Anything).
		Run(func(context.Context, domain.EntityKind, ports.ListOptions) { polled <- struct{}{} }).
		Return([]domain.Entity{{ID: "a2", Kind: domain.KindAppointment, UpdatedAt: syncBase}}, nil).
		Once()
	events := &fakeEventSource{}

	client := NewSyncClient(SyncConfig{Kind: domain.KindAppointment, PollInterval: -1}, source, events)
	t.Cleanup(client.Teardown)
	_, err := client.Initialize(context.Background())
	require.NoError(t, err)

	events.emit(domain.Event{Type: domain.EventRefreshHint, Kind: domain.KindLead})
	events.emit(domain.Event{Type: domain.EventRefreshHint, Kind: domain.KindAppointment})

	select {
	case <-polled:
	case <-time.After(time.Second):
		t.Fatal("refresh hint did not trigger a poll")
	}
	require.Eventually(t, func() bool {
		return client.Snapshot().Collection.Contains("a2")
	}, time.Second, 5*time.Millisecond)
}

func TestSyncClientTickerPolls(t *testing.T) {
	var calls atomic.Int32
	source := ports.EntitySourceFunc(func(context.Context, domain.EntityKind, ports.ListOptions) ([]domain.Entity, error) {
		n := calls.Add(1)
		return []domain.Entity{lead("1", int(n))}, nil
	})

	client := NewSyncClient(SyncConfig{Kind: domain.KindLead, PollInterval: 5 * time.Millisecond}, source, nil)
	t.Cleanup(client.Teardown)
	_, err := client.Initialize(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	client.Teardown()
	stopped := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), stopped+1)
}

func TestSyncClientSubscriptionFailureDegrades(t *testing.T) {
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{lead("1", 10)}, nil).
		Once()
	events := &fakeEventSource{err: errors.New("dial refused")}

	client := newTestSyncClient(t, source, events)
	_, err := client.Initialize(context.Background())
	require.NoError(t, err)
	flush(t, client)

	conn := client.Snapshot().Conn
	assert.True(t, conn.Degraded())
	assert.ErrorIs(t, conn.Err, domain.ErrSubscriptionFailed)
}

func TestSyncClientSubscribeNotifiesListeners(t *testing.T) {
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{lead("1", 10)}, nil).
		Once()
	events := &fakeEventSource{}

	client := newTestSyncClient(t, source, events)
	var mu sync.Mutex
	var versions []uint64
	unsubscribe := client.Subscribe(func(s Snapshot) {
		mu.Lock()
		versions = append(versions, s.Version)
		mu.Unlock()
	})

	_, err := client.Initialize(context.Background())
	require.NoError(t, err)
	flush(t, client)

	mu.Lock()
	seen := len(versions)
	mu.Unlock()
	assert.GreaterOrEqual(t, seen, 2, "initialize and connect both publish")

	unsubscribe()
	events.state(domain.ConnState{Status: domain.ConnReconnecting, Attempt: 1})
	flush(t, client)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, versions, seen)
	assert.Equal(t, domain.ConnReconnecting, client.Snapshot().Conn.Status)
}

func TestSyncClientRecordsMetrics(t *testing.T) {
	source := mocks.NewMockEntitySource(t)
	source.EXPECT().
		ListEntities(mockAnyContext(), domain.KindLead, mock.Anything).
		Return([]domain.Entity{lead("1", 10)}, nil)
	metrics := mocks.NewMockSyncMetrics(t)
	metrics.EXPECT().ObserveConnState(domain.KindLead, domain.ConnState{Status: domain.ConnConnected}).Return().Once()
	metrics.EXPECT().ObserveEvent(domain.KindLead, domain.OutcomeReplaced).Return().Once()
	metrics.EXPECT().ObserveEvent(domain.KindLead, domain.OutcomeUnknownType).Return().Once()
	metrics.EXPECT().ObservePoll(domain.KindLead, nil, mock.AnythingOfType("time.Duration")).Return().Once()
	events := &fakeEventSource{}

	client := newTestSyncClient(t, source, events, WithSyncMetrics(metrics))
	_, err := client.Initialize(context.Background())
	require.NoError(t, err)

	update := lead("1", 20)
	events.emit(domain.Event{Type: domain.EventEntityUpdate, Entity: &update})
	events.emit(domain.Event{Type: "frobnicate"})
	require.NoError(t, client.Refresh(context.Background()))
}

func mockAnyContext() interface{} {
	return mock.Anything
}
