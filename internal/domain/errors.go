package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFetchFailed        = errors.New("initial fetch failed")
	ErrPollFailed         = errors.New("poll failed")
	ErrSubscriptionFailed = errors.New("realtime subscription failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrSecretNotFound     = errors.New("secret not found")
)

type FetchError struct {
	Kind EntityKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

type PollError struct {
	Kind EntityKind
	Err  error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll %s: %v", e.Kind, e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }

func (e *PollError) Is(target error) bool { return target == ErrPollFailed }

type SubscriptionError struct {
	Attempts int
	Err      error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("realtime channel gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

func (e *SubscriptionError) Is(target error) bool { return target == ErrSubscriptionFailed }

type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unauthorized (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("unauthorized (status %d): %s", e.StatusCode, e.Message)
}

func (e *AuthError) Is(target error) bool { return target == ErrUnauthorized }

func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
