package record

import (
	"context"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	// GetForUpdate loads the document under a row lock, serializing
	// concurrent amendments. Must run inside a transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Document, error)
	UpdateMirror(ctx context.Context, d *Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByCase(ctx context.Context, caseID uuid.UUID, kind DocumentKind, limit, offset int) ([]*Document, int, error)
}

// VersionStore is the append-only storage primitive for version rows. It
// exposes no update or delete; history is write-once by construction.
type VersionStore interface {
	// Append inserts the next version (max existing number + 1) inside the
	// caller's transaction. The store never opens its own transaction.
	Append(ctx context.Context, documentID uuid.UUID, content Content, authorID *string) (*Version, error)
	Latest(ctx context.Context, documentID uuid.UUID) (*Version, error)
	ByID(ctx context.Context, versionID uuid.UUID) (*Version, error)
	History(ctx context.Context, documentID uuid.UUID) ([]*Version, error)
}

// Transactor runs fn inside a single database transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
