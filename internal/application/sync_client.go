package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

const (
	DefaultPollInterval = 30 * time.Second
	defaultMailboxSize  = 64
)

var (
	ErrSyncAlreadyInitialized = errors.New("sync client already initialized")
	ErrSyncNotInitialized     = errors.New("sync client not initialized")
	ErrSyncInitializing       = errors.New("sync client initialization in progress")
	ErrSyncClosed             = errors.New("sync client torn down")
)

type SyncConfig struct {
	Kind         domain.EntityKind
	Limit        int
	ClientID     string
	PollInterval time.Duration
	MailboxSize  int
}

// Snapshot is a point-in-time copy of the client state for readers.
type Snapshot struct {
	Collection  domain.Collection
	SelectedID  string
	Conn        domain.ConnState
	PollFailing bool
	PollErr     error
	Initialized bool
	LastPollAt  time.Time
	Version     uint64
}

func (s Snapshot) Selected() (domain.Entity, bool) {
	if s.SelectedID == "" {
		return domain.Entity{}, false
	}
	return s.Collection.Get(s.SelectedID)
}

func (s Snapshot) clone() Snapshot {
	s.Collection = s.Collection.Clone()
	return s
}

type SyncOption func(*SyncClient)

func WithSyncLogger(log zerolog.Logger) SyncOption {
	return func(c *SyncClient) { c.log = log }
}

func WithSyncMetrics(metrics ports.SyncMetrics) SyncOption {
	return func(c *SyncClient) {
		if metrics != nil {
			c.metrics = metrics
		}
	}
}

func WithSyncClock(clock ports.Clock) SyncOption {
	return func(c *SyncClient) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// SyncClient keeps one entity collection current from an initial fetch,
// periodic polls and realtime events. Every state change runs on a single
// loop goroutine in arrival order. Call Teardown to release it.
type SyncClient struct {
	cfg     SyncConfig
	source  ports.EntitySource
	events  ports.EventSource
	metrics ports.SyncMetrics
	clock   ports.Clock
	log     zerolog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	mailbox  chan func()
	done     chan struct{}
	stopOnce sync.Once
	polling  atomic.Bool

	// initMu guards the lifecycle fields only. It is never held across a
	// fetch so auth failure hooks may tear the client down mid-request.
	initMu       sync.Mutex
	initializing bool
	initialized  bool
	unsubscribe  ports.Unsubscribe

	mu        sync.RWMutex
	published Snapshot
	listeners map[string]func(Snapshot)

	// Owned by the loop goroutine.
	state Snapshot
}

func NewSyncClient(cfg SyncConfig, source ports.EntitySource, events ports.EventSource, opts ...SyncOption) *SyncClient {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = defaultMailboxSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &SyncClient{
		cfg:       cfg,
		source:    source,
		events:    events,
		metrics:   ports.NopSyncMetrics{},
		clock:     ports.SystemClock{},
		log:       zerolog.Nop(),
		ctx:       ctx,
		cancel:    cancel,
		mailbox:   make(chan func(), cfg.MailboxSize),
		done:      make(chan struct{}),
		listeners: make(map[string]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "sync").Str("kind", string(cfg.Kind)).Logger()

	c.state = Snapshot{
		Collection: domain.NewCollection(cfg.Kind, nil, cfg.Limit),
		Conn:       domain.ConnState{Status: domain.ConnIdle},
	}
	c.published = c.state.clone()

	go c.loop()

	return c
}

func (c *SyncClient) Kind() domain.EntityKind {
	return c.cfg.Kind
}

// Initialize performs the initial fetch and, on success, starts polling and
// the realtime subscription. A failed fetch leaves the client ready for
// another attempt.
func (c *SyncClient) Initialize(ctx context.Context) (domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return domain.Collection{}, err
	}

	if err := c.beginInitialize(); err != nil {
		return domain.Collection{}, err
	}
	initialized := false
	defer func() { c.endInitialize(initialized) }()

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	items, err := c.source.ListEntities(fetchCtx, c.cfg.Kind, c.listOptions())
	if err != nil {
		if c.closed() {
			return domain.Collection{}, ErrSyncClosed
		}
		c.log.Warn().Err(err).Msg("initial fetch failed")
		return domain.Collection{}, &domain.FetchError{Kind: c.cfg.Kind, Err: err}
	}

	collection := domain.NewCollection(c.cfg.Kind, items, c.cfg.Limit)
	reply := make(chan struct{})
	if !c.enqueue(func() {
		c.state.Collection = collection
		c.state.Initialized = true
		c.state.LastPollAt = c.clock.Now()
		if c.state.SelectedID != "" && !collection.Contains(c.state.SelectedID) {
			c.state.SelectedID = ""
		}
		c.publish()
		close(reply)
	}) {
		return domain.Collection{}, ErrSyncClosed
	}
	select {
	case <-reply:
	case <-c.done:
		return domain.Collection{}, ErrSyncClosed
	}

	initialized = true
	c.log.Info().Int("items", collection.Len()).Msg("sync started")

	if c.cfg.PollInterval > 0 {
		go c.pollLoop()
	}
	c.subscribe()

	return collection.Clone(), nil
}

func (c *SyncClient) beginInitialize() error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	switch {
	case c.closed():
		return ErrSyncClosed
	case c.initialized:
		return ErrSyncAlreadyInitialized
	case c.initializing:
		return ErrSyncInitializing
	}
	c.initializing = true
	return nil
}

func (c *SyncClient) endInitialize(initialized bool) {
	c.initMu.Lock()
	c.initializing = false
	c.initialized = c.initialized || initialized
	c.initMu.Unlock()
}

// Refresh polls immediately and waits for the result to be applied. On
// failure the collection is left untouched and a *domain.PollError is
// returned.
func (c *SyncClient) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.closed() {
		return ErrSyncClosed
	}
	c.initMu.Lock()
	initialized := c.initialized
	c.initMu.Unlock()
	if !initialized {
		return ErrSyncNotInitialized
	}
	return c.poll(ctx)
}

func (c *SyncClient) Select(id string) {
	c.enqueue(func() {
		if id != "" && !c.state.Collection.Contains(id) {
			c.log.Debug().Str("id", id).Msg("select ignored for unknown id")
			return
		}
		if c.state.SelectedID == id {
			return
		}
		c.state.SelectedID = id
		c.publish()
	})
}

func (c *SyncClient) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.published.clone()
}

// Subscribe registers a listener called from the loop goroutine after every
// change. Listeners must not block.
func (c *SyncClient) Subscribe(fn func(Snapshot)) func() {
	id := uuid.NewString()

	c.mu.Lock()
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Flush returns once every operation queued before the call has run.
func (c *SyncClient) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	if !c.enqueue(func() { close(reply) }) {
		return ErrSyncClosed
	}
	select {
	case <-reply:
		return nil
	case <-c.done:
		return ErrSyncClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *SyncClient) Done() <-chan struct{} {
	return c.done
}

// Teardown stops the loop, the poll timer and the subscription. Late
// callbacks are dropped. Safe to call more than once and from listeners.
func (c *SyncClient) Teardown() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.cancel()

		c.initMu.Lock()
		unsubscribe := c.unsubscribe
		c.unsubscribe = nil
		c.initMu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}

		c.mu.Lock()
		c.listeners = make(map[string]func(Snapshot))
		c.mu.Unlock()

		c.log.Info().Msg("sync stopped")
	})
}

func (c *SyncClient) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *SyncClient) enqueue(fn func()) bool {
	if c.closed() {
		return false
	}
	select {
	case c.mailbox <- fn:
		return true
	case <-c.done:
		return false
	}
}

func (c *SyncClient) loop() {
	for {
		select {
		case <-c.done:
			return
		case fn := <-c.mailbox:
			if c.closed() {
				return
			}
			fn()
		}
	}
}

func (c *SyncClient) pollLoop() {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.triggerPoll()
		}
	}
}

// triggerPoll starts a background poll unless one is already in flight.
func (c *SyncClient) triggerPoll() {
	if !c.polling.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.polling.Store(false)
		_ = c.poll(c.ctx)
	}()
}

func (c *SyncClient) poll(ctx context.Context) error {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	started := c.clock.Now()
	items, err := c.source.ListEntities(fetchCtx, c.cfg.Kind, c.listOptions())
	elapsed := c.clock.Now().Sub(started)

	var pollErr error
	if err != nil {
		pollErr = &domain.PollError{Kind: c.cfg.Kind, Err: err}
	}

	reply := make(chan struct{})
	if !c.enqueue(func() {
		c.applyPoll(items, pollErr, elapsed)
		close(reply)
	}) {
		return ErrSyncClosed
	}

	select {
	case <-reply:
		return pollErr
	case <-c.done:
		return ErrSyncClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *SyncClient) applyPoll(items []domain.Entity, err error, elapsed time.Duration) {
	c.metrics.ObservePoll(c.cfg.Kind, err, elapsed)

	if err != nil {
		c.log.Warn().Err(err).Dur("elapsed", elapsed).Msg("poll failed, keeping current collection")
		c.state.PollFailing = true
		c.state.PollErr = err
		c.publish()
		return
	}

	c.state.Collection = domain.NewCollection(c.cfg.Kind, items, c.cfg.Limit)
	if c.state.SelectedID != "" && !c.state.Collection.Contains(c.state.SelectedID) {
		c.log.Debug().Str("id", c.state.SelectedID).Msg("selection cleared, entity gone")
		c.state.SelectedID = ""
	}
	c.state.PollFailing = false
	c.state.PollErr = nil
	c.state.LastPollAt = c.clock.Now()
	c.publish()
}

func (c *SyncClient) subscribe() {
	if c.events == nil {
		return
	}

	unsubscribe, err := c.events.Subscribe(c.ctx, c.handleEvent, c.handleState)
	if err != nil {
		c.log.Warn().Err(err).Msg("realtime subscription failed, polling only")
		c.handleState(domain.ConnState{
			Status: domain.ConnDisconnected,
			Err:    &domain.SubscriptionError{Err: err},
		})
		return
	}
	c.initMu.Lock()
	if c.closed() {
		c.initMu.Unlock()
		unsubscribe()
		return
	}
	c.unsubscribe = unsubscribe
	c.initMu.Unlock()
}

func (c *SyncClient) handleEvent(event domain.Event) {
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = c.clock.Now()
	}
	c.enqueue(func() {
		c.applyEvent(event)
	})
}

func (c *SyncClient) handleState(state domain.ConnState) {
	c.enqueue(func() {
		c.metrics.ObserveConnState(c.cfg.Kind, state)
		if state.Degraded() {
			c.log.Warn().Err(state.Err).Msg("realtime channel disconnected, polling only")
		} else {
			c.log.Debug().Str("status", state.String()).Int("attempt", state.Attempt).Msg("connection state changed")
		}
		c.state.Conn = state
		c.publish()
	})
}

func (c *SyncClient) applyEvent(event domain.Event) {
	if event.Type == domain.EventCounter && event.Counter != nil && event.Counter.TargetID == "" && c.state.SelectedID != "" {
		delta := *event.Counter
		delta.TargetID = c.state.SelectedID
		event.Counter = &delta
	}

	next, outcome := domain.ApplyEvent(c.state.Collection, event)
	c.metrics.ObserveEvent(c.cfg.Kind, outcome)

	switch {
	case outcome == domain.OutcomeRefresh:
		c.log.Debug().Str("event", event.Name).Msg("refresh requested")
		c.triggerPoll()
	case outcome == domain.OutcomeTranscript:
		c.log.Debug().Str("event", event.Name).Msg("message event left to transcript followers")
	case outcome == domain.OutcomeWrongKind:
		c.log.Debug().Str("event", event.Name).Str("event_kind", string(event.EffectiveKind())).Msg("event for another kind")
	case outcome.Ignored():
		c.log.Warn().Str("event", event.Name).Str("type", string(event.Type)).Str("outcome", string(outcome)).Msg("event ignored")
	default:
		c.log.Debug().Str("type", string(event.Type)).Str("outcome", string(outcome)).Msg("event applied")
		c.state.Collection = next
		c.publish()
	}
}

func (c *SyncClient) listOptions() ports.ListOptions {
	return ports.ListOptions{Limit: c.cfg.Limit, ClientID: c.cfg.ClientID}
}

// publish runs on the loop goroutine.
func (c *SyncClient) publish() {
	c.state.Version++
	snapshot := c.state.clone()

	c.mu.Lock()
	c.published = snapshot
	listeners := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot.clone())
	}
}
