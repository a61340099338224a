package registry

import (
	"context"

	"github.com/google/uuid"
)

type CareUnitRepository interface {
	Create(ctx context.Context, u *CareUnit) error
	GetByID(ctx context.Context, id uuid.UUID) (*CareUnit, error)
	Update(ctx context.Context, u *CareUnit) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*CareUnit, int, error)
}

type ProfessionalRepository interface {
	Create(ctx context.Context, p *Professional) error
	GetByID(ctx context.Context, id uuid.UUID) (*Professional, error)
	Update(ctx context.Context, p *Professional) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Professional, int, error)
}
