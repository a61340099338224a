package encounter

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinicd/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Open starts a new episode in the open state.
func (s *Service) Open(ctx context.Context, e *Episode) (*Episode, error) {
	var missing []string
	if strings.TrimSpace(e.PatientName) == "" {
		missing = append(missing, "patient_name")
	}
	if strings.TrimSpace(e.RecordNumber) == "" {
		missing = append(missing, "record_number")
	}
	if len(missing) > 0 {
		return nil, apperr.Invalid("required fields are missing", missing...)
	}

	e.Status = EpisodeOpen
	e.ClosedAt = nil
	if e.OpenedAt.IsZero() {
		e.OpenedAt = time.Now()
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Episode, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, status EpisodeStatus, limit, offset int) ([]*Episode, int, error) {
	if status != "" && status != EpisodeOpen && status != EpisodeClosed {
		return nil, 0, apperr.Invalid("unknown episode status", "status")
	}
	return s.repo.List(ctx, status, limit, offset)
}

// Close transitions an open episode to closed, freezing its record.
func (s *Service) Close(ctx context.Context, id uuid.UUID) (*Episode, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == EpisodeClosed {
		return nil, apperr.Conflict("episode is already closed")
	}
	now := time.Now()
	e.Status = EpisodeClosed
	e.ClosedAt = &now
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Reopen reverts a closed episode to open, e.g. when a record needs a late
// correction. The close timestamp is cleared.
func (s *Service) Reopen(ctx context.Context, id uuid.UUID) (*Episode, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == EpisodeOpen {
		return nil, apperr.Conflict("episode is already open")
	}
	e.Status = EpisodeOpen
	e.ClosedAt = nil
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}
