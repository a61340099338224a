package diagnosis

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Diagnosis) error
	GetByID(ctx context.Context, id uuid.UUID) (*Diagnosis, error)
	Update(ctx context.Context, d *Diagnosis) error
	ListByEpisode(ctx context.Context, episodeID uuid.UUID) ([]*Diagnosis, error)
	// ListByEpisodeForUpdate locks the episode's diagnosis rows so the
	// primary slot cannot change underneath the caller. Must run inside a
	// transaction.
	ListByEpisodeForUpdate(ctx context.Context, episodeID uuid.UUID) ([]*Diagnosis, error)
}
