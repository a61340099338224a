// Package coverage models the payer side of the clinic: insurers, the
// plans they offer, and the per-service tariffs negotiated for each plan.
// Tariff amounts are stored in cents to avoid floating point money.
package coverage

import (
	"time"

	"github.com/google/uuid"
)

// Insurer maps to the insurer table.
type Insurer struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	TaxID     string    `db:"tax_id" json:"tax_id"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Plan maps to the plan table. Code is unique per insurer.
type Plan struct {
	ID        uuid.UUID `db:"id" json:"id"`
	InsurerID uuid.UUID `db:"insurer_id" json:"insurer_id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PlanTariff maps to the plan_tariff table: the price a plan pays for a
// given service code.
type PlanTariff struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PlanID      uuid.UUID `db:"plan_id" json:"plan_id"`
	ServiceCode string    `db:"service_code" json:"service_code"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
