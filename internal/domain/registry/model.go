// Package registry holds the clinic's reference data: care units and the
// professionals who staff them. Both use an active flag rather than
// deletion so historical records keep valid references.
package registry

import (
	"time"

	"github.com/google/uuid"
)

// CareUnit maps to the care_unit table.
type CareUnit struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Professional maps to the professional table.
type Professional struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	LicenseNumber string     `db:"license_number" json:"license_number"`
	Specialty     *string    `db:"specialty" json:"specialty,omitempty"`
	CareUnitID    *uuid.UUID `db:"care_unit_id" json:"care_unit_id,omitempty"`
	Active        bool       `db:"active" json:"active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
