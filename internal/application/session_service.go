package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

var ErrMissingCredentials = errors.New("email and password are required")

type SessionService struct {
	auth     ports.AuthAPI
	store    ports.SecretStore
	profiles ports.ProfileRepository
	clock    ports.Clock
	log      zerolog.Logger

	mu     sync.Mutex
	active *Session
	token  string
}

var _ ports.TokenSource = (*SessionService)(nil)

func NewSessionService(auth ports.AuthAPI, store ports.SecretStore, profiles ports.ProfileRepository, clock ports.Clock, log zerolog.Logger) *SessionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &SessionService{
		auth:     auth,
		store:    store,
		profiles: profiles,
		clock:    clock,
		log:      log.With().Str("component", "session_service").Logger(),
	}
}

func (s *SessionService) Login(ctx context.Context, email, password string) (domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return domain.Profile{}, err
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Profile{}, ErrMissingCredentials
	}

	result, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("login: %w", err)
	}
	if strings.TrimSpace(result.Token) == "" {
		return domain.Profile{}, errors.New("login: server returned an empty token")
	}

	profile := result.Profile
	if profile.Email == "" {
		profile.Email = email
	}
	profile.BusinessType = domain.ClassifyBusinessType(profile.Email, profile.BusinessType)
	profile.TokenRef = domain.TokenRefForEmail(profile.Email)
	profile.LoggedInAt = s.clock.Now()

	previous, err := s.profiles.Load(ctx)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		return domain.Profile{}, fmt.Errorf("load previous profile: %w", err)
	}

	if err := s.store.Put(ctx, profile.TokenRef, result.Token); err != nil {
		return domain.Profile{}, fmt.Errorf("store session token: %w", err)
	}

	if err := s.profiles.Save(ctx, profile); err != nil {
		if rollbackErr := s.store.Delete(ctx, profile.TokenRef); rollbackErr != nil {
			return domain.Profile{}, fmt.Errorf("save profile and rollback stored token: %w", errors.Join(err, rollbackErr))
		}
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}

	if previous.TokenRef != "" && previous.TokenRef != profile.TokenRef {
		if err := s.store.Delete(ctx, previous.TokenRef); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
			s.log.Warn().Err(err).Str("token_ref", previous.TokenRef).Msg("failed to remove previous session token")
		}
	}

	s.mu.Lock()
	previousSession := s.active
	s.active = nil
	s.token = result.Token
	s.mu.Unlock()
	if previousSession != nil {
		previousSession.Dispose()
	}

	s.log.Info().Str("email", profile.Email).Str("business_type", profile.BusinessType).Msg("logged in")
	return profile, nil
}

func (s *SessionService) Logout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	defer s.disposeActive()

	profile, err := s.profiles.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return domain.ErrNotLoggedIn
		}
		return fmt.Errorf("load profile: %w", err)
	}

	return s.clear(ctx, profile)
}

// Open returns the active session, creating it from the cached profile when
// needed.
func (s *SessionService) Open(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.active != nil && !s.active.Disposed() {
		active := s.active
		s.mu.Unlock()
		return active, nil
	}
	s.mu.Unlock()

	profile, token, err := s.loadCredentials(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && !s.active.Disposed() {
		return s.active, nil
	}
	s.active = newSession(profile, s.log)
	s.token = token
	return s.active, nil
}

func (s *SessionService) Active() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.Disposed() {
		return nil
	}
	return s.active
}

// Profile returns the cached profile without opening a session.
func (s *SessionService) Profile(ctx context.Context) (domain.Profile, error) {
	profile, err := s.profiles.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return domain.Profile{}, domain.ErrNotLoggedIn
		}
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

func (s *SessionService) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token != "" {
		return token, nil
	}

	_, token, err := s.loadCredentials(ctx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return token, nil
}

// HandleAuthFailure drops the stored credentials and disposes the active
// session after the server rejected the token.
func (s *SessionService) HandleAuthFailure(ctx context.Context, cause error) error {
	s.log.Warn().Err(cause).Msg("authorization rejected, clearing session")

	defer s.disposeActive()

	profile, err := s.profiles.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil
		}
		return fmt.Errorf("load profile: %w", err)
	}

	return s.clear(ctx, profile)
}

func (s *SessionService) clear(ctx context.Context, profile domain.Profile) error {
	var errs []error
	if profile.TokenRef != "" {
		if err := s.store.Delete(ctx, profile.TokenRef); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
			errs = append(errs, fmt.Errorf("delete session token: %w", err))
		}
	}
	if err := s.profiles.Delete(ctx); err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		errs = append(errs, fmt.Errorf("delete profile: %w", err))
	}
	return errors.Join(errs...)
}

func (s *SessionService) disposeActive() {
	s.mu.Lock()
	active := s.active
	s.active = nil
	s.token = ""
	s.mu.Unlock()

	if active != nil {
		active.Dispose()
	}
}

func (s *SessionService) loadCredentials(ctx context.Context) (domain.Profile, string, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return domain.Profile{}, "", err
	}
	if profile.TokenRef == "" {
		return domain.Profile{}, "", domain.ErrNotLoggedIn
	}

	token, err := s.store.Get(ctx, profile.TokenRef)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return domain.Profile{}, "", domain.ErrNotLoggedIn
		}
		return domain.Profile{}, "", fmt.Errorf("read session token: %w", err)
	}
	return profile, token, nil
}
