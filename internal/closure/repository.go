package closure

import (
	"context"

	"github.com/google/uuid"
)

// Repository contains the closure persistence the registry needs.
type Repository interface {
	FindByDate(ctx context.Context, date string) (*Closure, error)
	Create(ctx context.Context, c *Closure) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]Closure, error)
}
