package coverage

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicops/clinicd/internal/platform/apperr"
)

type Service struct {
	insurers InsurerRepository
	plans    PlanRepository
	tariffs  TariffRepository
}

func NewService(insurers InsurerRepository, plans PlanRepository, tariffs TariffRepository) *Service {
	return &Service{insurers: insurers, plans: plans, tariffs: tariffs}
}

// -- Insurers --

func (s *Service) CreateInsurer(ctx context.Context, i *Insurer) (*Insurer, error) {
	var missing []string
	if strings.TrimSpace(i.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(i.TaxID) == "" {
		missing = append(missing, "tax_id")
	}
	if len(missing) > 0 {
		return nil, apperr.Invalid("required fields are missing", missing...)
	}
	i.Active = true
	if err := s.insurers.Create(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Service) GetInsurer(ctx context.Context, id uuid.UUID) (*Insurer, error) {
	return s.insurers.GetByID(ctx, id)
}

func (s *Service) DeactivateInsurer(ctx context.Context, id uuid.UUID) (*Insurer, error) {
	i, err := s.insurers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	i.Active = false
	if err := s.insurers.Update(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Service) ListInsurers(ctx context.Context, activeOnly bool, limit, offset int) ([]*Insurer, int, error) {
	return s.insurers.List(ctx, activeOnly, limit, offset)
}

// -- Plans --

func (s *Service) CreatePlan(ctx context.Context, p *Plan) (*Plan, error) {
	var missing []string
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(p.Code) == "" {
		missing = append(missing, "code")
	}
	if len(missing) > 0 {
		return nil, apperr.Invalid("required fields are missing", missing...)
	}
	ins, err := s.insurers.GetByID(ctx, p.InsurerID)
	if err != nil {
		return nil, err
	}
	if !ins.Active {
		return nil, apperr.Guard("insurer is inactive")
	}
	p.Active = true
	if err := s.plans.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return s.plans.GetByID(ctx, id)
}

func (s *Service) DeactivatePlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Active = false
	if err := s.plans.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListPlans(ctx context.Context, insurerID uuid.UUID, activeOnly bool, limit, offset int) ([]*Plan, int, error) {
	if _, err := s.insurers.GetByID(ctx, insurerID); err != nil {
		return nil, 0, err
	}
	return s.plans.ListByInsurer(ctx, insurerID, activeOnly, limit, offset)
}

// -- Tariffs --

// SetTariff creates or replaces the price a plan pays for a service code.
func (s *Service) SetTariff(ctx context.Context, t *PlanTariff) (*PlanTariff, error) {
	if strings.TrimSpace(t.ServiceCode) == "" {
		return nil, apperr.Invalid("required fields are missing", "service_code")
	}
	if t.AmountCents < 0 {
		return nil, apperr.Invalid("amount_cents must not be negative", "amount_cents")
	}
	plan, err := s.plans.GetByID(ctx, t.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, apperr.Guard("plan is inactive")
	}
	if err := s.tariffs.Upsert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Quote returns the tariff for a service under a plan, or NotFound if the
// plan has no negotiated price for it.
func (s *Service) Quote(ctx context.Context, planID uuid.UUID, serviceCode string) (*PlanTariff, error) {
	if strings.TrimSpace(serviceCode) == "" {
		return nil, apperr.Invalid("required fields are missing", "service_code")
	}
	return s.tariffs.GetByPlanAndService(ctx, planID, serviceCode)
}

func (s *Service) ListTariffs(ctx context.Context, planID uuid.UUID, limit, offset int) ([]*PlanTariff, int, error) {
	if _, err := s.plans.GetByID(ctx, planID); err != nil {
		return nil, 0, err
	}
	return s.tariffs.ListByPlan(ctx, planID, limit, offset)
}

func (s *Service) DeleteTariff(ctx context.Context, id uuid.UUID) error {
	return s.tariffs.Delete(ctx, id)
}
