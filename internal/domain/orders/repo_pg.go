package orders

import (
	"context"
	"errors"
	"strconv"

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

const orderCols = `id, episode_id, service_code, service_display, requested_by,
	status, void_reason, issued_at, completed_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.EpisodeID, &o.ServiceCode, &o.ServiceDisplay, &o.RequestedBy,
		&o.Status, &o.VoidReason, &o.IssuedAt, &o.CompletedAt, &o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *repoPG) Create(ctx context.Context, o *Order) error {
	o.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO service_order (id, episode_id, service_code, service_display,
			requested_by, status, issued_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.EpisodeID, o.ServiceCode, o.ServiceDisplay, o.RequestedBy, o.Status, o.IssuedAt)
	return apperr.FromStorage("create order", err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := scanOrder(r.conn(ctx).QueryRow(ctx,
		`SELECT `+orderCols+` FROM service_order WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("order", id.String())
	}
	if err != nil {
		return nil, apperr.FromStorage("get order", err)
	}
	return o, nil
}

func (r *repoPG) Update(ctx context.Context, o *Order) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE service_order SET status = $2, void_reason = $3, completed_at = $4,
			updated_at = now()
		WHERE id = $1`,
		o.ID, o.Status, o.VoidReason, o.CompletedAt)
	if err != nil {
		return apperr.FromStorage("update order", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("order", o.ID.String())
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, status OrderStatus, episodeID *uuid.UUID, limit, offset int) ([]*Order, int, error) {
	where := ``
	args := []interface{}{}
	n := 0
	if status != "" {
		n++
		where = ` WHERE status = $1`
		args = append(args, status)
	}
	if episodeID != nil {
		n++
		if where == "" {
			where = ` WHERE episode_id = $1`
		} else {
			where += ` AND episode_id = $2`
		}
		args = append(args, *episodeID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM service_order`+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromStorage("count orders", err)
	}

	limitClause := ` ORDER BY issued_at DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+orderCols+` FROM service_order`+where+limitClause,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, apperr.FromStorage("list orders", err)
	}
	defer rows.Close()

	var result []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, apperr.FromStorage("scan order", err)
		}
		result = append(result, o)
	}
	return result, total, rows.Err()
}
