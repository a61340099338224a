package coverage

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

// -- Insurers --

type insurerRepoPG struct{ pool *pgxpool.Pool }

func NewInsurerRepoPG(pool *pgxpool.Pool) InsurerRepository { return &insurerRepoPG{pool: pool} }

const insurerCols = `id, name, tax_id, active, created_at, updated_at`

func scanInsurer(row pgx.Row) (*Insurer, error) {
	var i Insurer
	err := row.Scan(&i.ID, &i.Name, &i.TaxID, &i.Active, &i.CreatedAt, &i.UpdatedAt)
	return &i, err
}

func (r *insurerRepoPG) Create(ctx context.Context, i *Insurer) error {
	i.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO insurer (id, name, tax_id, active)
		VALUES ($1,$2,$3,$4)`,
		i.ID, i.Name, i.TaxID, i.Active)
	return apperr.FromStorage("create insurer", err)
}

func (r *insurerRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Insurer, error) {
	i, err := scanInsurer(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+insurerCols+` FROM insurer WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("insurer", id.String())
	}
	if err != nil {
		return nil, apperr.FromStorage("get insurer", err)
	}
	return i, nil
}

func (r *insurerRepoPG) Update(ctx context.Context, i *Insurer) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE insurer SET name = $2, tax_id = $3, active = $4, updated_at = now()
		WHERE id = $1`,
		i.ID, i.Name, i.TaxID, i.Active)
	if err != nil {
		return apperr.FromStorage("update insurer", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("insurer", i.ID.String())
	}
	return nil
}

func (r *insurerRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Insurer, int, error) {
	var (
		total int
		rows  pgx.Rows
		err   error
	)
	if activeOnly {
		if err = conn(ctx, r.pool).QueryRow(ctx,
			`SELECT COUNT(*) FROM insurer WHERE active`).Scan(&total); err != nil {
			return nil, 0, apperr.FromStorage("count insurers", err)
		}
		rows, err = conn(ctx, r.pool).Query(ctx,
			`SELECT `+insurerCols+` FROM insurer WHERE active ORDER BY name LIMIT $1 OFFSET $2`,
			limit, offset)
	} else {
		if err = conn(ctx, r.pool).QueryRow(ctx,
			`SELECT COUNT(*) FROM insurer`).Scan(&total); err != nil {
			return nil, 0, apperr.FromStorage("count insurers", err)
		}
		rows, err = conn(ctx, r.pool).Query(ctx,
			`SELECT `+insurerCols+` FROM insurer ORDER BY name LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, 0, apperr.FromStorage("list insurers", err)
	}
	defer rows.Close()

	var result []*Insurer
	for rows.Next() {
		i, err := scanInsurer(rows)
		if err != nil {
			return nil, 0, apperr.FromStorage("scan insurer", err)
		}
		result = append(result, i)
	}
	return result, total, rows.Err()
}

// -- Plans --

type planRepoPG struct{ pool *pgxpool.Pool }

func NewPlanRepoPG(pool *pgxpool.Pool) PlanRepository { return &planRepoPG{pool: pool} }

const planCols = `id, insurer_id, name, code, active, created_at, updated_at`

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.InsurerID, &p.Name, &p.Code, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *planRepoPG) Create(ctx context.Context, p *Plan) error {
	p.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO plan (id, insurer_id, name, code, active)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.InsurerID, p.Name, p.Code, p.Active)
	return apperr.FromStorage("create plan", err)
}

func (r *planRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	p, err := scanPlan(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+planCols+` FROM plan WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("plan", id.String())
	}
	if err != nil {
		return nil, apperr.FromStorage("get plan", err)
	}
	return p, nil
}

func (r *planRepoPG) Update(ctx context.Context, p *Plan) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE plan SET name = $2, code = $3, active = $4, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Name, p.Code, p.Active)
	if err != nil {
		return apperr.FromStorage("update plan", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("plan", p.ID.String())
	}
	return nil
}

func (r *planRepoPG) ListByInsurer(ctx context.Context, insurerID uuid.UUID, activeOnly bool, limit, offset int) ([]*Plan, int, error) {
	var (
		total int
		rows  pgx.Rows
		err   error
	)
	if activeOnly {
		if err = conn(ctx, r.pool).QueryRow(ctx,
			`SELECT COUNT(*) FROM plan WHERE insurer_id = $1 AND active`, insurerID).Scan(&total); err != nil {
			return nil, 0, apperr.FromStorage("count plans", err)
		}
		rows, err = conn(ctx, r.pool).Query(ctx,
			`SELECT `+planCols+` FROM plan WHERE insurer_id = $1 AND active ORDER BY name LIMIT $2 OFFSET $3`,
			insurerID, limit, offset)
	} else {
		if err = conn(ctx, r.pool).QueryRow(ctx,
			`SELECT COUNT(*) FROM plan WHERE insurer_id = $1`, insurerID).Scan(&total); err != nil {
			return nil, 0, apperr.FromStorage("count plans", err)
		}
		rows, err = conn(ctx, r.pool).Query(ctx,
			`SELECT `+planCols+` FROM plan WHERE insurer_id = $1 ORDER BY name LIMIT $2 OFFSET $3`,
			insurerID, limit, offset)
	}
	if err != nil {
		return nil, 0, apperr.FromStorage("list plans", err)
	}
	defer rows.Close()

	var result []*Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, apperr.FromStorage("scan plan", err)
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

// -- Tariffs --

type tariffRepoPG struct{ pool *pgxpool.Pool }

func NewTariffRepoPG(pool *pgxpool.Pool) TariffRepository { return &tariffRepoPG{pool: pool} }

const tariffCols = `id, plan_id, service_code, amount_cents, created_at, updated_at`

func scanTariff(row pgx.Row) (*PlanTariff, error) {
	var t PlanTariff
	err := row.Scan(&t.ID, &t.PlanID, &t.ServiceCode, &t.AmountCents, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

// Upsert inserts or replaces the tariff for (plan, service code). The unique
// index on that pair makes the operation idempotent per service.
func (r *tariffRepoPG) Upsert(ctx context.Context, t *PlanTariff) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	row := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO plan_tariff (id, plan_id, service_code, amount_cents)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (plan_id, service_code)
		DO UPDATE SET amount_cents = EXCLUDED.amount_cents, updated_at = now()
		RETURNING id, created_at, updated_at`,
		t.ID, t.PlanID, t.ServiceCode, t.AmountCents)
	if err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return apperr.FromStorage("upsert tariff", err)
	}
	return nil
}

func (r *tariffRepoPG) GetByPlanAndService(ctx context.Context, planID uuid.UUID, serviceCode string) (*PlanTariff, error) {
	t, err := scanTariff(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+tariffCols+` FROM plan_tariff WHERE plan_id = $1 AND service_code = $2`,
		planID, serviceCode))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("tariff", planID.String()+"/"+serviceCode)
	}
	if err != nil {
		return nil, apperr.FromStorage("get tariff", err)
	}
	return t, nil
}

func (r *tariffRepoPG) ListByPlan(ctx context.Context, planID uuid.UUID, limit, offset int) ([]*PlanTariff, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM plan_tariff WHERE plan_id = $1`, planID).Scan(&total); err != nil {
		return nil, 0, apperr.FromStorage("count tariffs", err)
	}

	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+tariffCols+` FROM plan_tariff WHERE plan_id = $1 ORDER BY service_code LIMIT $2 OFFSET $3`,
		planID, limit, offset)
	if err != nil {
		return nil, 0, apperr.FromStorage("list tariffs", err)
	}
	defer rows.Close()

	var result []*PlanTariff
	for rows.Next() {
		t, err := scanTariff(rows)
		if err != nil {
			return nil, 0, apperr.FromStorage("scan tariff", err)
		}
		result = append(result, t)
	}
	return result, total, rows.Err()
}

func (r *tariffRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM plan_tariff WHERE id = $1`, id)
	if err != nil {
		return apperr.FromStorage("delete tariff", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("tariff", id.String())
	}
	return nil
}
