package encounter

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const episodeCols = `id, patient_name, record_number, care_unit_id, professional_id,
	reason, status, opened_at, closed_at, created_at, updated_at`

func scanEpisode(row pgx.Row) (*Episode, error) {
	var e Episode
	err := row.Scan(&e.ID, &e.PatientName, &e.RecordNumber, &e.CareUnitID, &e.ProfessionalID,
		&e.Reason, &e.Status, &e.OpenedAt, &e.ClosedAt, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Episode) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO episode (id, patient_name, record_number, care_unit_id, professional_id,
			reason, status, opened_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.PatientName, e.RecordNumber, e.CareUnitID, e.ProfessionalID,
		e.Reason, e.Status, e.OpenedAt)
	return apperr.FromStorage("create episode", err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Episode, error) {
	e, err := scanEpisode(r.conn(ctx).QueryRow(ctx,
		`SELECT `+episodeCols+` FROM episode WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("episode", id.String())
	}
	if err != nil {
		return nil, apperr.FromStorage("get episode", err)
	}
	return e, nil
}

func (r *repoPG) Update(ctx context.Context, e *Episode) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE episode SET status = $2, closed_at = $3, reason = $4,
			care_unit_id = $5, professional_id = $6, updated_at = now()
		WHERE id = $1`,
		e.ID, e.Status, e.ClosedAt, e.Reason, e.CareUnitID, e.ProfessionalID)
	if err != nil {
		return apperr.FromStorage("update episode", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("episode", e.ID.String())
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, status EpisodeStatus, limit, offset int) ([]*Episode, int, error) {
	var (
		total int
		rows  pgx.Rows
		err   error
	)
	if status != "" {
		if err = r.conn(ctx).QueryRow(ctx,
			`SELECT COUNT(*) FROM episode WHERE status = $1`, status).Scan(&total); err != nil {
			return nil, 0, apperr.FromStorage("count episodes", err)
		}
		rows, err = r.conn(ctx).Query(ctx,
			`SELECT `+episodeCols+` FROM episode WHERE status = $1 ORDER BY opened_at DESC LIMIT $2 OFFSET $3`,
			status, limit, offset)
	} else {
		if err = r.conn(ctx).QueryRow(ctx,
			`SELECT COUNT(*) FROM episode`).Scan(&total); err != nil {
			return nil, 0, apperr.FromStorage("count episodes", err)
		}
		rows, err = r.conn(ctx).Query(ctx,
			`SELECT `+episodeCols+` FROM episode ORDER BY opened_at DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, 0, apperr.FromStorage("list episodes", err)
	}
	defer rows.Close()

	var result []*Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, 0, apperr.FromStorage("scan episode", err)
		}
		result = append(result, e)
	}
	return result, total, rows.Err()
}
