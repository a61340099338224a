package orders

import (
	"context"
	"fmt"
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

// Issue creates a new order in the issued state.
func (s *Service) Issue(ctx context.Context, o *Order) (*Order, error) {
	if strings.TrimSpace(o.ServiceCode) == "" {
		return nil, apperr.Invalid("required fields are missing", "service_code")
	}
	o.Status = OrderIssued
	o.VoidReason = nil
	o.CompletedAt = nil
	if o.IssuedAt.IsZero() {
		o.IssuedAt = time.Now()
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, status OrderStatus, episodeID *uuid.UUID, limit, offset int) ([]*Order, int, error) {
	if status != "" {
		if _, ok := transitions[status]; !ok {
			return nil, 0, apperr.Invalid("unknown order status", "status")
		}
	}
	return s.repo.List(ctx, status, episodeID, limit, offset)
}

// Transition advances an order along its status machine. Void must go
// through Void so a reason is recorded.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to OrderStatus) (*Order, error) {
	if _, ok := transitions[to]; !ok {
		return nil, apperr.Invalid("unknown order status", "status")
	}
	if to == OrderVoided {
		return nil, apperr.Invalid("void an order through its void operation", "status")
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, to) {
		return nil, apperr.Conflict(fmt.Sprintf("order cannot move from %s to %s", o.Status, to))
	}

	o.Status = to
	if to == OrderCompleted {
		now := time.Now()
		o.CompletedAt = &now
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Void terminally cancels an order. Completed and already-voided orders
// cannot be voided.
func (s *Service) Void(ctx context.Context, id uuid.UUID, reason string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, OrderVoided) {
		return nil, apperr.Conflict(fmt.Sprintf("order cannot be voided from %s", o.Status))
	}

	o.Status = OrderVoided
	if reason != "" {
		o.VoidReason = &reason
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
