// Package orders manages service orders: diagnostic or procedure requests
// whose lifecycle status gates the results recorded against them. Orders
// advance issued -> authorized -> in-progress -> completed; void is a
// terminal exit available until the order completes. Orders are never
// deleted.
package orders

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderIssued     OrderStatus = "issued"
	OrderAuthorized OrderStatus = "authorized"
	OrderInProgress OrderStatus = "in-progress"
	OrderCompleted  OrderStatus = "completed"
	OrderVoided     OrderStatus = "voided"
)

// transitions lists the permitted next statuses for each status.
var transitions = map[OrderStatus][]OrderStatus{
	OrderIssued:     {OrderAuthorized, OrderVoided},
	OrderAuthorized: {OrderInProgress, OrderVoided},
	OrderInProgress: {OrderCompleted, OrderVoided},
	OrderCompleted:  {},
	OrderVoided:     {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order maps to the service_order table.
type Order struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	EpisodeID      *uuid.UUID  `db:"episode_id" json:"episode_id,omitempty"`
	ServiceCode    string      `db:"service_code" json:"service_code"`
	ServiceDisplay *string     `db:"service_display" json:"service_display,omitempty"`
	RequestedBy    *uuid.UUID  `db:"requested_by" json:"requested_by,omitempty"`
	Status         OrderStatus `db:"status" json:"status"`
	VoidReason     *string     `db:"void_reason" json:"void_reason,omitempty"`
	IssuedAt       time.Time   `db:"issued_at" json:"issued_at"`
	CompletedAt    *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}
