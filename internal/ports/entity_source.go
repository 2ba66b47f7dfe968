package ports

import (
	"context"

	"github.com/bnema/wadash/internal/domain"
)

type ListOptions struct {
	Limit    int
	ClientID string
}

// EntitySource lists the current server-side state of one entity kind.
type EntitySource interface {
	ListEntities(ctx context.Context, kind domain.EntityKind, opts ListOptions) ([]domain.Entity, error)
}

type EntitySourceFunc func(ctx context.Context, kind domain.EntityKind, opts ListOptions) ([]domain.Entity, error)

func (f EntitySourceFunc) ListEntities(ctx context.Context, kind domain.EntityKind, opts ListOptions) ([]domain.Entity, error) {
	return f(ctx, kind, opts)
}
