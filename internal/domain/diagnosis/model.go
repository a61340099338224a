// Package diagnosis manages episode diagnoses and the single-primary
// invariant: at most one diagnosis per episode is flagged primary, and the
// flag is only transferred through the explicit make-primary operation.
package diagnosis

import (
	"time"

	"github.com/google/uuid"
)

type Certainty string

const (
	CertaintyPresumptive Certainty = "presumptive"
	CertaintyDefinitive  Certainty = "definitive"
)

// Diagnosis maps to the diagnosis table. Diagnoses are not versioned;
// edits overwrite in place, gated by the episode status.
type Diagnosis struct {
	ID          uuid.UUID `db:"id" json:"id"`
	EpisodeID   uuid.UUID `db:"episode_id" json:"episode_id"`
	Code        string    `db:"code" json:"code"`
	Description string    `db:"description" json:"description"`
	Certainty   Certainty `db:"certainty" json:"certainty"`
	IsPrimary   bool      `db:"is_primary" json:"is_primary"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Patch carries the updatable fields of a diagnosis; nil means unchanged.
type Patch struct {
	Code        *string    `json:"code,omitempty"`
	Description *string    `json:"description,omitempty"`
	Certainty   *Certainty `json:"certainty,omitempty"`
	IsPrimary   *bool      `json:"is_primary,omitempty"`
}

// PrimaryTransfer is the outcome of a make-primary call. PreviousPrimary is
// nil when the episode had no primary before the transfer.
type PrimaryTransfer struct {
	PreviousPrimary *Diagnosis `json:"previous_primary,omitempty"`
	NewPrimary      *Diagnosis `json:"new_primary"`
}
