package record

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicops/clinicd/internal/platform/apperr"
	"github.com/clinicops/clinicd/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// uniqueViolation is the Postgres error code raised when the unique index
// on (document_id, version_number) rejects a duplicate append.
const uniqueViolation = "23505"

// =========== Document Repository ===========

type documentRepoPG struct{ pool *pgxpool.Pool }

func NewDocumentRepoPG(pool *pgxpool.Pool) DocumentRepository {
	return &documentRepoPG{pool: pool}
}

const documentCols = `id, case_id, kind, current_version_number,
	subjective, objective, assessment, plan, summary, attachment_ref,
	created_at, updated_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.CaseID, &d.Kind, &d.CurrentVersionNumber,
		&d.Current.Subjective, &d.Current.Objective, &d.Current.Assessment,
		&d.Current.Plan, &d.Current.Summary, &d.Current.AttachmentRef,
		&d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *documentRepoPG) Create(ctx context.Context, d *Document) error {
	d.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO clinical_document (id, case_id, kind, current_version_number,
			subjective, objective, assessment, plan, summary, attachment_ref)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		d.ID, d.CaseID, d.Kind, d.CurrentVersionNumber,
		d.Current.Subjective, d.Current.Objective, d.Current.Assessment,
		d.Current.Plan, d.Current.Summary, d.Current.AttachmentRef)
	return apperr.FromStorage("create document", err)
}

func (r *documentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	d, err := scanDocument(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+documentCols+` FROM clinical_document WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("document", id.String())
	}
	if err != nil {
		return nil, apperr.FromStorage("get document", err)
	}
	return d, nil
}

func (r *documentRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Document, error) {
	d, err := scanDocument(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+documentCols+` FROM clinical_document WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("document", id.String())
	}
	if err != nil {
		return nil, apperr.FromStorage("lock document", err)
	}
	return d, nil
}

func (r *documentRepoPG) UpdateMirror(ctx context.Context, d *Document) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE clinical_document SET current_version_number = $2,
			subjective = $3, objective = $4, assessment = $5, plan = $6,
			summary = $7, attachment_ref = $8, updated_at = now()
		WHERE id = $1`,
		d.ID, d.CurrentVersionNumber,
		d.Current.Subjective, d.Current.Objective, d.Current.Assessment,
		d.Current.Plan, d.Current.Summary, d.Current.AttachmentRef)
	if err != nil {
		return apperr.FromStorage("update document mirror", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("document", d.ID.String())
	}
	return nil
}

func (r *documentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	// Version rows cascade via the FK.
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM clinical_document WHERE id = $1`, id)
	if err != nil {
		return apperr.FromStorage("delete document", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("document", id.String())
	}
	return nil
}

func (r *documentRepoPG) ListByCase(ctx context.Context, caseID uuid.UUID, kind DocumentKind, limit, offset int) ([]*Document, int, error) {
	var (
		total int
		rows  pgx.Rows
		err   error
	)
	if kind != "" {
		if err = conn(ctx, r.pool).QueryRow(ctx,
			`SELECT COUNT(*) FROM clinical_document WHERE case_id = $1 AND kind = $2`,
			caseID, kind).Scan(&total); err != nil {
			return nil, 0, apperr.FromStorage("count documents", err)
		}
		rows, err = conn(ctx, r.pool).Query(ctx,
			`SELECT `+documentCols+` FROM clinical_document
			 WHERE case_id = $1 AND kind = $2 ORDER BY created_at LIMIT $3 OFFSET $4`,
			caseID, kind, limit, offset)
	} else {
		if err = conn(ctx, r.pool).QueryRow(ctx,
			`SELECT COUNT(*) FROM clinical_document WHERE case_id = $1`,
			caseID).Scan(&total); err != nil {
			return nil, 0, apperr.FromStorage("count documents", err)
		}
		rows, err = conn(ctx, r.pool).Query(ctx,
			`SELECT `+documentCols+` FROM clinical_document
			 WHERE case_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`,
			caseID, limit, offset)
	}
	if err != nil {
		return nil, 0, apperr.FromStorage("list documents", err)
	}
	defer rows.Close()

	var result []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, apperr.FromStorage("scan document", err)
		}
		result = append(result, d)
	}
	return result, total, rows.Err()
}

// =========== Version Store ===========

type versionStorePG struct{ pool *pgxpool.Pool }

func NewVersionStorePG(pool *pgxpool.Pool) VersionStore {
	return &versionStorePG{pool: pool}
}

const versionCols = `id, document_id, version_number,
	subjective, objective, assessment, plan, summary, attachment_ref,
	author_id, created_at`

func scanVersion(row pgx.Row) (*Version, error) {
	var v Version
	err := row.Scan(&v.ID, &v.DocumentID, &v.Number,
		&v.Content.Subjective, &v.Content.Objective, &v.Content.Assessment,
		&v.Content.Plan, &v.Content.Summary, &v.Content.AttachmentRef,
		&v.AuthorID, &v.CreatedAt)
	return &v, err
}

func (s *versionStorePG) Append(ctx context.Context, documentID uuid.UUID, content Content, authorID *string) (*Version, error) {
	q := conn(ctx, s.pool)

	var exists bool
	if err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM clinical_document WHERE id = $1)`,
		documentID).Scan(&exists); err != nil {
		return nil, apperr.FromStorage("append version", err)
	}
	if !exists {
		return nil, apperr.NotFound("document", documentID.String())
	}

	v := &Version{
		ID:         uuid.New(),
		DocumentID: documentID,
		Content:    content,
		AuthorID:   authorID,
	}
	err := q.QueryRow(ctx, `
		INSERT INTO clinical_document_version
			(id, document_id, version_number,
			 subjective, objective, assessment, plan, summary, attachment_ref, author_id)
		SELECT $1, $2, COALESCE(MAX(version_number), 0) + 1, $3,$4,$5,$6,$7,$8,$9
		FROM clinical_document_version WHERE document_id = $2
		RETURNING version_number, created_at`,
		v.ID, documentID,
		content.Subjective, content.Objective, content.Assessment,
		content.Plan, content.Summary, content.AttachmentRef, authorID).
		Scan(&v.Number, &v.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperr.Conflict("concurrent amendment detected, retry")
		}
		return nil, apperr.FromStorage("append version", err)
	}
	return v, nil
}

func (s *versionStorePG) Latest(ctx context.Context, documentID uuid.UUID) (*Version, error) {
	v, err := scanVersion(conn(ctx, s.pool).QueryRow(ctx,
		`SELECT `+versionCols+` FROM clinical_document_version
		 WHERE document_id = $1 ORDER BY version_number DESC LIMIT 1`, documentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("version", "")
	}
	if err != nil {
		return nil, apperr.FromStorage("latest version", err)
	}
	return v, nil
}

func (s *versionStorePG) ByID(ctx context.Context, versionID uuid.UUID) (*Version, error) {
	v, err := scanVersion(conn(ctx, s.pool).QueryRow(ctx,
		`SELECT `+versionCols+` FROM clinical_document_version WHERE id = $1`, versionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("version", versionID.String())
	}
	if err != nil {
		return nil, apperr.FromStorage("get version", err)
	}
	return v, nil
}

func (s *versionStorePG) History(ctx context.Context, documentID uuid.UUID) ([]*Version, error) {
	rows, err := conn(ctx, s.pool).Query(ctx,
		`SELECT `+versionCols+` FROM clinical_document_version
		 WHERE document_id = $1 ORDER BY version_number`, documentID)
	if err != nil {
		return nil, apperr.FromStorage("version history", err)
	}
	defer rows.Close()

	var result []*Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, apperr.FromStorage("scan version", err)
		}
		result = append(result, v)
	}
	return result, rows.Err()
}
