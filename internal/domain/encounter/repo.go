package encounter

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Episode) error
	GetByID(ctx context.Context, id uuid.UUID) (*Episode, error)
	Update(ctx context.Context, e *Episode) error
	List(ctx context.Context, status EpisodeStatus, limit, offset int) ([]*Episode, int, error)
}
