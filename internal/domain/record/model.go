// Package record implements the versioned clinical record engine: documents
// whose content evolves as an append-only chain of immutable versions, with
// a denormalized current-version mirror on the document row for fast reads.
// Mutations are gated by the lifecycle status of the owning case context
// (an episode or a service order).
package record

import (
	"time"

	"github.com/google/uuid"
)

type DocumentKind string

const (
	// KindNote is a clinical note in four narrative sections. Notes belong
	// to episodes and are permanent: they can be amended but never deleted.
	KindNote DocumentKind = "note"
	// KindResult is a diagnostic result. Results belong to service orders
	// and may be retracted while the order allows it.
	KindResult DocumentKind = "result"
)

// Content is the writable payload of a version. Which fields apply depends
// on the document kind: notes carry the four narrative sections, results
// carry the summary. The attachment reference is optional for both.
type Content struct {
	Subjective    *string `db:"subjective" json:"subjective,omitempty"`
	Objective     *string `db:"objective" json:"objective,omitempty"`
	Assessment    *string `db:"assessment" json:"assessment,omitempty"`
	Plan          *string `db:"plan" json:"plan,omitempty"`
	Summary       *string `db:"summary" json:"summary,omitempty"`
	AttachmentRef *string `db:"attachment_ref" json:"attachment_ref,omitempty"`
}

// Document maps to the clinical_document table. CurrentVersionNumber and
// Current mirror the latest version; they are rewritten in the same
// transaction that appends a version and never independently.
type Document struct {
	ID                   uuid.UUID    `db:"id" json:"id"`
	CaseID               uuid.UUID    `db:"case_id" json:"case_id"`
	Kind                 DocumentKind `db:"kind" json:"kind"`
	CurrentVersionNumber int          `db:"current_version_number" json:"current_version_number"`
	Current              Content      `json:"current"`
	CreatedAt            time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time    `db:"updated_at" json:"updated_at"`
}

// Version maps to the clinical_document_version table. Rows are write-once:
// no update or delete statement ever touches this table except the cascade
// when a result document is retracted.
type Version struct {
	ID         uuid.UUID `db:"id" json:"id"`
	DocumentID uuid.UUID `db:"document_id" json:"document_id"`
	Number     int       `db:"version_number" json:"version_number"`
	Content    Content   `json:"content"`
	AuthorID   *string   `db:"author_id" json:"author_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
