package registry

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicops/clinicd/internal/platform/apperr"
)

type Service struct {
	units         CareUnitRepository
	professionals ProfessionalRepository
}

func NewService(units CareUnitRepository, professionals ProfessionalRepository) *Service {
	return &Service{units: units, professionals: professionals}
}

// -- Care units --

func (s *Service) CreateCareUnit(ctx context.Context, u *CareUnit) (*CareUnit, error) {
	var missing []string
	if strings.TrimSpace(u.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(u.Code) == "" {
		missing = append(missing, "code")
	}
	if len(missing) > 0 {
		return nil, apperr.Invalid("required fields are missing", missing...)
	}
	u.Active = true
	if err := s.units.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) GetCareUnit(ctx context.Context, id uuid.UUID) (*CareUnit, error) {
	return s.units.GetByID(ctx, id)
}

func (s *Service) UpdateCareUnit(ctx context.Context, u *CareUnit) (*CareUnit, error) {
	if strings.TrimSpace(u.Name) == "" || strings.TrimSpace(u.Code) == "" {
		return nil, apperr.Invalid("name and code are required")
	}
	if err := s.units.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeactivateCareUnit flips the active flag; the unit stays referencable.
func (s *Service) DeactivateCareUnit(ctx context.Context, id uuid.UUID) (*CareUnit, error) {
	u, err := s.units.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Active = false
	if err := s.units.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) ListCareUnits(ctx context.Context, activeOnly bool, limit, offset int) ([]*CareUnit, int, error) {
	return s.units.List(ctx, activeOnly, limit, offset)
}

// -- Professionals --

func (s *Service) CreateProfessional(ctx context.Context, p *Professional) (*Professional, error) {
	var missing []string
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(p.LicenseNumber) == "" {
		missing = append(missing, "license_number")
	}
	if len(missing) > 0 {
		return nil, apperr.Invalid("required fields are missing", missing...)
	}
	if p.CareUnitID != nil {
		if _, err := s.units.GetByID(ctx, *p.CareUnitID); err != nil {
			return nil, err
		}
	}
	p.Active = true
	if err := s.professionals.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetProfessional(ctx context.Context, id uuid.UUID) (*Professional, error) {
	return s.professionals.GetByID(ctx, id)
}

func (s *Service) UpdateProfessional(ctx context.Context, p *Professional) (*Professional, error) {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.LicenseNumber) == "" {
		return nil, apperr.Invalid("name and license_number are required")
	}
	if p.CareUnitID != nil {
		if _, err := s.units.GetByID(ctx, *p.CareUnitID); err != nil {
			return nil, err
		}
	}
	if err := s.professionals.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeactivateProfessional(ctx context.Context, id uuid.UUID) (*Professional, error) {
	p, err := s.professionals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Active = false
	if err := s.professionals.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListProfessionals(ctx context.Context, activeOnly bool, limit, offset int) ([]*Professional, int, error) {
	return s.professionals.List(ctx, activeOnly, limit, offset)
}
