package store

import "context"

// UpdateFunc maps the stored list to the list to persist. The stored list is
// nil when the owner has none yet.
type UpdateFunc func(battles []Fight) ([]Fight, error)

// Repository persists battle lists keyed by owner. Update runs fn as one
// atomic read-modify-write.
type Repository interface {
	Update(ctx context.Context, owner string, fn UpdateFunc) ([]Fight, error)
	Close() error
}

type ErrorResponse struct {
	Message string `json:"message"`
}
