package tracking

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"trailmark.org/internal/pagination"
)

var (
	ErrNotFound = errors.New("tracking: link not found")
	ErrExists   = errors.New("tracking: link already exists")
)

// Store persists tracking links.
type Store interface {
	Create(ctx context.Context, link *TrackingLink) error
	Find(ctx context.Context, id uuid.UUID) (*TrackingLink, error)
	FindByHash(ctx context.Context, urlHash string) (*TrackingLink, error)
	List(ctx context.Context, filter ListFilter, params pagination.PageParams) ([]*TrackingLink, int, error)
	Update(ctx context.Context, link *TrackingLink) error
	Delete(ctx context.Context, id uuid.UUID) error
}
