package diagnosis

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

// uniqueViolation fires on the partial unique index over
// (episode_id) WHERE is_primary, the database-level backstop for the
// single-primary invariant.
const uniqueViolation = "23505"

const diagnosisCols = `id, episode_id, code, description, certainty, is_primary,
	created_at, updated_at`

func scanDiagnosis(row pgx.Row) (*Diagnosis, error) {
	var d Diagnosis
	err := row.Scan(&d.ID, &d.EpisodeID, &d.Code, &d.Description, &d.Certainty,
		&d.IsPrimary, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func classifyWrite(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Conflict("a primary diagnosis already exists for this episode")
	}
	return apperr.FromStorage(op, err)
}

func (r *repoPG) Create(ctx context.Context, d *Diagnosis) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO diagnosis (id, episode_id, code, description, certainty, is_primary)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		d.ID, d.EpisodeID, d.Code, d.Description, d.Certainty, d.IsPrimary)
	return classifyWrite("create diagnosis", err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Diagnosis, error) {
	d, err := scanDiagnosis(r.conn(ctx).QueryRow(ctx,
		`SELECT `+diagnosisCols+` FROM diagnosis WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("diagnosis", id.String())
	}
	if err != nil {
		return nil, apperr.FromStorage("get diagnosis", err)
	}
	return d, nil
}

func (r *repoPG) Update(ctx context.Context, d *Diagnosis) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE diagnosis SET code = $2, description = $3, certainty = $4,
			is_primary = $5, updated_at = now()
		WHERE id = $1`,
		d.ID, d.Code, d.Description, d.Certainty, d.IsPrimary)
	if err != nil {
		return classifyWrite("update diagnosis", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("diagnosis", d.ID.String())
	}
	return nil
}

func (r *repoPG) ListByEpisode(ctx context.Context, episodeID uuid.UUID) ([]*Diagnosis, error) {
	return r.list(ctx, episodeID, false)
}

func (r *repoPG) ListByEpisodeForUpdate(ctx context.Context, episodeID uuid.UUID) ([]*Diagnosis, error) {
	return r.list(ctx, episodeID, true)
}

func (r *repoPG) list(ctx context.Context, episodeID uuid.UUID, lock bool) ([]*Diagnosis, error) {
	q := `SELECT ` + diagnosisCols + ` FROM diagnosis WHERE episode_id = $1 ORDER BY created_at`
	if lock {
		q += ` FOR UPDATE`
	}
	rows, err := r.conn(ctx).Query(ctx, q, episodeID)
	if err != nil {
		return nil, apperr.FromStorage("list diagnoses", err)
	}
	defer rows.Close()

	var result []*Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, apperr.FromStorage("scan diagnosis", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}
