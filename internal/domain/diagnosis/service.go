package diagnosis

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicops/clinicd/internal/domain/record"
	"github.com/clinicops/clinicd/internal/platform/apperr"
)

type Service struct {
	repo  Repository
	cases record.CaseContextSource
	tx    record.Transactor
}

func NewService(repo Repository, cases record.CaseContextSource, tx record.Transactor) *Service {
	return &Service{repo: repo, cases: cases, tx: tx}
}

func (s *Service) guardEpisode(ctx context.Context, episodeID uuid.UUID, op record.Mutation) error {
	cc, err := s.cases.GetCaseContext(ctx, episodeID)
	if err != nil {
		return err
	}
	if cc.Kind != record.CaseEpisode {
		return apperr.Invalid("diagnoses belong to episodes", "episode_id")
	}
	return record.CanMutate(cc, op)
}

// Create records a diagnosis on an open episode. A create may claim the
// primary slot only while it is empty; an occupied slot must be transferred
// through MakePrimary.
func (s *Service) Create(ctx context.Context, episodeID uuid.UUID, d *Diagnosis) (*Diagnosis, error) {
	if err := validate(d); err != nil {
		return nil, err
	}
	if err := s.guardEpisode(ctx, episodeID, record.MutationCreate); err != nil {
		return nil, err
	}

	d.EpisodeID = episodeID
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if d.IsPrimary {
			existing, err := s.repo.ListByEpisodeForUpdate(ctx, episodeID)
			if err != nil {
				return err
			}
			if findPrimary(existing) != nil {
				return apperr.Conflict("a primary diagnosis already exists for this episode")
			}
		}
		return s.repo.Create(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Diagnosis, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByEpisode(ctx context.Context, episodeID uuid.UUID) ([]*Diagnosis, error) {
	return s.repo.ListByEpisode(ctx, episodeID)
}

// Update overwrites a diagnosis in place. Setting is_primary while a
// different diagnosis holds it is rejected; use MakePrimary to transfer.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Diagnosis, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guardEpisode(ctx, d.EpisodeID, record.MutationUpdate); err != nil {
		return nil, err
	}

	if patch.Code != nil {
		d.Code = *patch.Code
	}
	if patch.Description != nil {
		d.Description = *patch.Description
	}
	if patch.Certainty != nil {
		d.Certainty = *patch.Certainty
	}
	if err := validate(d); err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if patch.IsPrimary != nil && *patch.IsPrimary && !d.IsPrimary {
			existing, err := s.repo.ListByEpisodeForUpdate(ctx, d.EpisodeID)
			if err != nil {
				return err
			}
			if holder := findPrimary(existing); holder != nil && holder.ID != d.ID {
				return apperr.Conflict("a primary diagnosis already exists for this episode")
			}
			d.IsPrimary = true
		}
		if patch.IsPrimary != nil && !*patch.IsPrimary {
			d.IsPrimary = false
		}
		return s.repo.Update(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// MakePrimary atomically transfers the primary flag to the target
// diagnosis, demoting the current holder. Calling it on the current primary
// is a no-op transfer that still returns the consistent pair.
func (s *Service) MakePrimary(ctx context.Context, episodeID, diagnosisID uuid.UUID) (*PrimaryTransfer, error) {
	if err := s.guardEpisode(ctx, episodeID, record.MutationUpdate); err != nil {
		return nil, err
	}

	var transfer *PrimaryTransfer
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.ListByEpisodeForUpdate(ctx, episodeID)
		if err != nil {
			return err
		}

		var target *Diagnosis
		for _, d := range existing {
			if d.ID == diagnosisID {
				target = d
				break
			}
		}
		if target == nil {
			return apperr.NotFound("diagnosis", diagnosisID.String())
		}

		current := findPrimary(existing)
		if current != nil && current.ID == target.ID {
			transfer = &PrimaryTransfer{PreviousPrimary: target, NewPrimary: target}
			return nil
		}

		// Demote first so the partial unique index never sees two holders.
		if current != nil {
			current.IsPrimary = false
			if err := s.repo.Update(ctx, current); err != nil {
				return err
			}
		}
		target.IsPrimary = true
		if err := s.repo.Update(ctx, target); err != nil {
			return err
		}
		transfer = &PrimaryTransfer{PreviousPrimary: current, NewPrimary: target}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

func findPrimary(list []*Diagnosis) *Diagnosis {
	for _, d := range list {
		if d.IsPrimary {
			return d
		}
	}
	return nil
}

func validate(d *Diagnosis) error {
	var offending []string
	if strings.TrimSpace(d.Code) == "" {
		offending = append(offending, "code")
	}
	if strings.TrimSpace(d.Description) == "" {
		offending = append(offending, "description")
	}
	if d.Certainty != CertaintyPresumptive && d.Certainty != CertaintyDefinitive {
		offending = append(offending, "certainty")
	}
	if len(offending) > 0 {
		return apperr.Invalid("required fields are missing or invalid", offending...)
	}
	return nil
}
