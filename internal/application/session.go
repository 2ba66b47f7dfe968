package application

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

var ErrSessionDisposed = errors.New("session disposed")

// Session is the logged-in scope. It owns every SyncClient created through it
// and tears them down on Dispose.
type Session struct {
	id      string
	profile domain.Profile
	log     zerolog.Logger

	mu      sync.Mutex
	clients map[*SyncClient]struct{}

	done chan struct{}
	once sync.Once
}

func newSession(profile domain.Profile, log zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:      id,
		profile: profile,
		log:     log.With().Str("component", "session").Str("session", id).Logger(),
		clients: make(map[*SyncClient]struct{}),
		done:    make(chan struct{}),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Profile() domain.Profile {
	return s.profile
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Disposed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// NewSyncClient creates a client owned by the session. An empty ClientID
// defaults to the profile's.
func (s *Session) NewSyncClient(cfg SyncConfig, source ports.EntitySource, events ports.EventSource, opts ...SyncOption) (*SyncClient, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = s.profile.ClientID
	}
	client := NewSyncClient(cfg, source, events, opts...)
	if err := s.Track(client); err != nil {
		return nil, err
	}
	return client, nil
}

// Track hands ownership of client to the session. A disposed session tears
// the client down immediately.
func (s *Session) Track(client *SyncClient) error {
	s.mu.Lock()
	if s.Disposed() {
		s.mu.Unlock()
		client.Teardown()
		return ErrSessionDisposed
	}
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	go func() {
		select {
		case <-client.Done():
			s.mu.Lock()
			delete(s.clients, client)
			s.mu.Unlock()
		case <-s.done:
		}
	}()
	return nil
}

func (s *Session) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Session) Dispose() {
	s.once.Do(func() {
		s.mu.Lock()
		close(s.done)
		clients := make([]*SyncClient, 0, len(s.clients))
		for client := range s.clients {
			clients = append(clients, client)
		}
		s.clients = make(map[*SyncClient]struct{})
		s.mu.Unlock()

		for _, client := range clients {
			client.Teardown()
		}
		s.log.Debug().Int("clients", len(clients)).Msg("session disposed")
	})
}
