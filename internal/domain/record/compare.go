package record

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicops/clinicd/internal/platform/apperr"
)

// FieldChange records one content field whose value differs between two
// versions, including transitions between absent and present.
type FieldChange struct {
	Field    string  `json:"field"`
	OldValue *string `json:"old_value"`
	NewValue *string `json:"new_value"`
}

// Comparison is a direct diff of two versions of the same document. The
// A/B order preserves the caller's argument order, not chronology.
type Comparison struct {
	Document *Document     `json:"document"`
	VersionA *Version      `json:"version_a"`
	VersionB *Version      `json:"version_b"`
	Changes  []FieldChange `json:"changes"`
}

type contentField struct {
	name string
	get  func(*Content) *string
}

var noteFields = []contentField{
	{"subjective", func(c *Content) *string { return c.Subjective }},
	{"objective", func(c *Content) *string { return c.Objective }},
	{"assessment", func(c *Content) *string { return c.Assessment }},
	{"plan", func(c *Content) *string { return c.Plan }},
	{"attachment_ref", func(c *Content) *string { return c.AttachmentRef }},
}

var resultFields = []contentField{
	{"summary", func(c *Content) *string { return c.Summary }},
	{"attachment_ref", func(c *Content) *string { return c.AttachmentRef }},
}

func trackedFields(kind DocumentKind) []contentField {
	if kind == KindResult {
		return resultFields
	}
	return noteFields
}

// DiffContent lists the tracked fields, in their fixed order, whose values
// differ between two content snapshots. Equal fields are omitted.
func DiffContent(kind DocumentKind, a, b Content) []FieldChange {
	var changes []FieldChange
	for _, f := range trackedFields(kind) {
		oldV, newV := f.get(&a), f.get(&b)
		if equalValue(oldV, newV) {
			continue
		}
		changes = append(changes, FieldChange{Field: f.name, OldValue: oldV, NewValue: newV})
	}
	return changes
}

func equalValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Compare fetches two versions of the document and diffs their content.
// Both version ids must belong to the document and must differ; belonging
// is verified first, so foreign ids are reported as such even when equal.
func (s *Service) Compare(ctx context.Context, documentID, versionA, versionB uuid.UUID) (*Comparison, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	va, err := s.versions.ByID(ctx, versionA)
	if err != nil {
		return nil, err
	}
	vb, err := s.versions.ByID(ctx, versionB)
	if err != nil {
		return nil, err
	}
	if va.DocumentID != documentID || vb.DocumentID != documentID {
		return nil, apperr.Invalid("version does not belong to document", "version")
	}
	if versionA == versionB {
		return nil, apperr.Invalid("versions must differ", "version_a", "version_b")
	}

	return &Comparison{
		Document: doc,
		VersionA: va,
		VersionB: vb,
		Changes:  DiffContent(doc.Kind, va.Content, vb.Content),
	}, nil
}
