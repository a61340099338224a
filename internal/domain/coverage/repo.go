package coverage

import (
	"context"

	"github.com/google/uuid"
)

type InsurerRepository interface {
	Create(ctx context.Context, i *Insurer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Insurer, error)
	Update(ctx context.Context, i *Insurer) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Insurer, int, error)
}

type PlanRepository interface {
	Create(ctx context.Context, p *Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	Update(ctx context.Context, p *Plan) error
	ListByInsurer(ctx context.Context, insurerID uuid.UUID, activeOnly bool, limit, offset int) ([]*Plan, int, error)
}

type TariffRepository interface {
	Upsert(ctx context.Context, t *PlanTariff) error
	GetByPlanAndService(ctx context.Context, planID uuid.UUID, serviceCode string) (*PlanTariff, error)
	ListByPlan(ctx context.Context, planID uuid.UUID, limit, offset int) ([]*PlanTariff, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
