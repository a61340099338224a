package record

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/clinicops/clinicd/internal/platform/apperr"
)

func TestCanMutate_Episode(t *testing.T) {
	open := &CaseContext{ID: uuid.New(), Kind: CaseEpisode, Status: "open"}
	closed := &CaseContext{ID: uuid.New(), Kind: CaseEpisode, Status: "closed"}

	for _, op := range []Mutation{MutationCreate, MutationUpdate, MutationDelete} {
		if err := CanMutate(open, op); err != nil {
			t.Errorf("open episode should permit mutation %d: %v", op, err)
		}
		err := CanMutate(closed, op)
		var gv *apperr.GuardViolation
		if !errors.As(err, &gv) {
			t.Errorf("closed episode should deny mutation %d, got %v", op, err)
		} else if gv.Reason != "episode is closed" {
			t.Errorf("unexpected reason: %s", gv.Reason)
		}
	}
}

func TestCanMutate_Order(t *testing.T) {
	cases := []struct {
		status  string
		op      Mutation
		allowed bool
	}{
		{"issued", MutationCreate, false},
		{"authorized", MutationCreate, false},
		{"in-progress", MutationCreate, true},
		{"completed", MutationCreate, true},
		{"voided", MutationCreate, false},

		{"issued", MutationUpdate, true},
		{"in-progress", MutationUpdate, true},
		{"completed", MutationUpdate, true},
		{"voided", MutationUpdate, false},

		{"issued", MutationDelete, true},
		{"in-progress", MutationDelete, true},
		{"completed", MutationDelete, false},
		{"voided", MutationDelete, false},
	}

	for _, tc := range cases {
		cc := &CaseContext{ID: uuid.New(), Kind: CaseOrder, Status: tc.status}
		err := CanMutate(cc, tc.op)
		if tc.allowed && err != nil {
			t.Errorf("order %s op %d: expected allowed, got %v", tc.status, tc.op, err)
		}
		if !tc.allowed {
			var gv *apperr.GuardViolation
			if !errors.As(err, &gv) {
				t.Errorf("order %s op %d: expected GuardViolation, got %v", tc.status, tc.op, err)
			}
		}
	}
}

func TestCanMutate_VoidedOrderReason(t *testing.T) {
	cc := &CaseContext{ID: uuid.New(), Kind: CaseOrder, Status: "voided"}
	err := CanMutate(cc, MutationUpdate)
	var gv *apperr.GuardViolation
	if !errors.As(err, &gv) {
		t.Fatalf("expected GuardViolation, got %v", err)
	}
	if gv.Reason != "order is voided" {
		t.Errorf("unexpected reason: %s", gv.Reason)
	}
}

func TestCanMutate_UnknownKind(t *testing.T) {
	cc := &CaseContext{ID: uuid.New(), Kind: "appointment", Status: "open"}
	err := CanMutate(cc, MutationCreate)
	var gv *apperr.GuardViolation
	if !errors.As(err, &gv) {
		t.Fatalf("expected GuardViolation, got %v", err)
	}
}
