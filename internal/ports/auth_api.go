package ports

import (
	"context"

	"github.com/bnema/wadash/internal/domain"
)

type LoginResult struct {
	Token   string
	Profile domain.Profile
}

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
}

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
