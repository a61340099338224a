package record

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicops/clinicd/internal/platform/apperr"
)

type CaseKind string

const (
	CaseEpisode CaseKind = "episode"
	CaseOrder   CaseKind = "order"
)

// CaseContext is the read-only view of the owning case that the guard
// evaluates. It is produced by the encounter/orders packages through the
// CaseContextSource adapter wired at startup.
type CaseContext struct {
	ID     uuid.UUID
	Kind   CaseKind
	Status string
}

type CaseContextSource interface {
	GetCaseContext(ctx context.Context, id uuid.UUID) (*CaseContext, error)
}

type Mutation int

const (
	MutationCreate Mutation = iota
	MutationUpdate
	MutationDelete
)

// CanMutate decides whether the case context permits the requested mutation
// of its child documents. Episodes accept any mutation while open. Orders
// accept result creation while in progress or completed, updates unless
// voided, and deletion until the order completes or is voided. Denials are
// GuardViolations carrying a human-readable reason; the function performs
// no writes.
func CanMutate(cc *CaseContext, op Mutation) error {
	switch cc.Kind {
	case CaseEpisode:
		if cc.Status != "open" {
			return apperr.Guard("episode is closed")
		}
		return nil
	case CaseOrder:
		switch op {
		case MutationCreate:
			if cc.Status != "in-progress" && cc.Status != "completed" {
				return apperr.Guard(fmt.Sprintf("order is %s", cc.Status))
			}
		case MutationUpdate:
			if cc.Status == "voided" {
				return apperr.Guard("order is voided")
			}
		case MutationDelete:
			if cc.Status == "completed" || cc.Status == "voided" {
				return apperr.Guard(fmt.Sprintf("order is %s", cc.Status))
			}
		}
		return nil
	default:
		return apperr.Guard(fmt.Sprintf("unknown case kind %q", cc.Kind))
	}
}
