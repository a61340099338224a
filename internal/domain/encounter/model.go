// Package encounter manages clinical episodes: the case contexts that own
// clinical documents and diagnoses. An episode accepts record mutations only
// while it is open; closing it freezes the record.
package encounter

import (
	"time"

	"github.com/google/uuid"
)

type EpisodeStatus string

const (
	EpisodeOpen   EpisodeStatus = "open"
	EpisodeClosed EpisodeStatus = "closed"
)

// Episode maps to the episode table.
type Episode struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	PatientName    string        `db:"patient_name" json:"patient_name"`
	RecordNumber   string        `db:"record_number" json:"record_number"`
	CareUnitID     *uuid.UUID    `db:"care_unit_id" json:"care_unit_id,omitempty"`
	ProfessionalID *uuid.UUID    `db:"professional_id" json:"professional_id,omitempty"`
	Reason         *string       `db:"reason" json:"reason,omitempty"`
	Status         EpisodeStatus `db:"status" json:"status"`
	OpenedAt       time.Time     `db:"opened_at" json:"opened_at"`
	ClosedAt       *time.Time    `db:"closed_at" json:"closed_at,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}
