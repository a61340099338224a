package record

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicops/clinicd/internal/platform/apperr"
	"github.com/clinicops/clinicd/internal/platform/auth"
)

// minNarrativeLen is the minimum length of every required content field.
const minNarrativeLen = 10

type Service struct {
	docs     DocumentRepository
	versions VersionStore
	cases    CaseContextSource
	tx       Transactor
}

func NewService(docs DocumentRepository, versions VersionStore, cases CaseContextSource, tx Transactor) *Service {
	return &Service{docs: docs, versions: versions, cases: cases, tx: tx}
}

// Create records a new document on the case with its initial version.
// Validation runs before the guard; document insert, version 1 append and
// mirror population happen in one transaction.
func (s *Service) Create(ctx context.Context, caseID uuid.UUID, kind DocumentKind, content Content) (*Document, error) {
	if err := validateContent(kind, content); err != nil {
		return nil, err
	}

	cc, err := s.cases.GetCaseContext(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := matchKind(kind, cc.Kind); err != nil {
		return nil, err
	}
	if err := CanMutate(cc, MutationCreate); err != nil {
		return nil, err
	}

	author := authorFromContext(ctx)
	doc := &Document{
		CaseID:               caseID,
		Kind:                 kind,
		CurrentVersionNumber: 1,
		Current:              content,
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.docs.Create(ctx, doc); err != nil {
			return err
		}
		v, err := s.versions.Append(ctx, doc.ID, content, author)
		if err != nil {
			return err
		}
		doc.CurrentVersionNumber = v.Number
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Amend appends the next version and repoints the mirror, in one
// transaction. The document row is locked for the duration of
// read-max -> insert -> mirror update so concurrent amendments serialize.
func (s *Service) Amend(ctx context.Context, documentID uuid.UUID, content Content) (*Document, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := validateContent(doc.Kind, content); err != nil {
		return nil, err
	}

	cc, err := s.cases.GetCaseContext(ctx, doc.CaseID)
	if err != nil {
		return nil, err
	}
	if err := CanMutate(cc, MutationUpdate); err != nil {
		return nil, err
	}

	author := authorFromContext(ctx)
	var amended *Document
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		d, err := s.docs.GetForUpdate(ctx, documentID)
		if err != nil {
			return err
		}
		v, err := s.versions.Append(ctx, d.ID, content, author)
		if err != nil {
			return err
		}
		d.CurrentVersionNumber = v.Number
		d.Current = content
		if err := s.docs.UpdateMirror(ctx, d); err != nil {
			return err
		}
		amended = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amended, nil
}

// Delete retracts a result document and its versions. Clinical notes are
// permanent medical record and have no delete path.
func (s *Service) Delete(ctx context.Context, documentID uuid.UUID) error {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.Kind != KindResult {
		return apperr.Guard("clinical notes are permanent and cannot be deleted")
	}

	cc, err := s.cases.GetCaseContext(ctx, doc.CaseID)
	if err != nil {
		return err
	}
	if err := CanMutate(cc, MutationDelete); err != nil {
		return err
	}

	return s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.docs.Delete(ctx, documentID)
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	return s.docs.GetByID(ctx, id)
}

func (s *Service) ListByCase(ctx context.Context, caseID uuid.UUID, kind DocumentKind, limit, offset int) ([]*Document, int, error) {
	if kind != "" && kind != KindNote && kind != KindResult {
		return nil, 0, apperr.Invalid("unknown document kind", "kind")
	}
	return s.docs.ListByCase(ctx, caseID, kind, limit, offset)
}

func (s *Service) History(ctx context.Context, documentID uuid.UUID) ([]*Version, error) {
	if _, err := s.docs.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.versions.History(ctx, documentID)
}

func (s *Service) Latest(ctx context.Context, documentID uuid.UUID) (*Version, error) {
	if _, err := s.docs.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.versions.Latest(ctx, documentID)
}

func (s *Service) GetVersion(ctx context.Context, versionID uuid.UUID) (*Version, error) {
	return s.versions.ByID(ctx, versionID)
}

func authorFromContext(ctx context.Context) *string {
	if uid := auth.UserIDFromContext(ctx); uid != "" {
		return &uid
	}
	return nil
}

func matchKind(kind DocumentKind, caseKind CaseKind) error {
	switch kind {
	case KindNote:
		if caseKind != CaseEpisode {
			return apperr.Invalid("clinical notes belong to episodes", "kind")
		}
	case KindResult:
		if caseKind != CaseOrder {
			return apperr.Invalid("results belong to orders", "kind")
		}
	}
	return nil
}

func validateContent(kind DocumentKind, c Content) error {
	var offending []string
	short := func(v *string, field string) {
		if v == nil || len(strings.TrimSpace(*v)) < minNarrativeLen {
			offending = append(offending, field)
		}
	}

	switch kind {
	case KindNote:
		short(c.Subjective, "subjective")
		short(c.Objective, "objective")
		short(c.Assessment, "assessment")
		short(c.Plan, "plan")
	case KindResult:
		short(c.Summary, "summary")
	default:
		return apperr.Invalid("unknown document kind", "kind")
	}

	if len(offending) > 0 {
		return apperr.Invalid("content fields must be present and at least 10 characters", offending...)
	}
	return nil
}
