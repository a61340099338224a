package registry

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

// =========== Care Unit Repository ===========

type careUnitRepoPG struct{ pool *pgxpool.Pool }

func NewCareUnitRepoPG(pool *pgxpool.Pool) CareUnitRepository {
	return &careUnitRepoPG{pool: pool}
}

const careUnitCols = `id, name, code, active, created_at, updated_at`

func scanCareUnit(row pgx.Row) (*CareUnit, error) {
	var u CareUnit
	err := row.Scan(&u.ID, &u.Name, &u.Code, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (r *careUnitRepoPG) Create(ctx context.Context, u *CareUnit) error {
	u.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO care_unit (id, name, code, active) VALUES ($1,$2,$3,$4)`,
		u.ID, u.Name, u.Code, u.Active)
	return apperr.FromStorage("create care unit", err)
}

func (r *careUnitRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*CareUnit, error) {
	u, err := scanCareUnit(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+careUnitCols+` FROM care_unit WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("care unit", id.String())
	}
	if err != nil {
		return nil, apperr.FromStorage("get care unit", err)
	}
	return u, nil
}

func (r *careUnitRepoPG) Update(ctx context.Context, u *CareUnit) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE care_unit SET name = $2, code = $3, active = $4, updated_at = now()
		WHERE id = $1`,
		u.ID, u.Name, u.Code, u.Active)
	if err != nil {
		return apperr.FromStorage("update care unit", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("care unit", u.ID.String())
	}
	return nil
}

func (r *careUnitRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*CareUnit, int, error) {
	where := ``
	if activeOnly {
		where = ` WHERE active`
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM care_unit`+where).Scan(&total); err != nil {
		return nil, 0, apperr.FromStorage("count care units", err)
	}

	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+careUnitCols+` FROM care_unit`+where+` ORDER BY name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, apperr.FromStorage("list care units", err)
	}
	defer rows.Close()

	var result []*CareUnit
	for rows.Next() {
		u, err := scanCareUnit(rows)
		if err != nil {
			return nil, 0, apperr.FromStorage("scan care unit", err)
		}
		result = append(result, u)
	}
	return result, total, rows.Err()
}

// =========== Professional Repository ===========

type professionalRepoPG struct{ pool *pgxpool.Pool }

func NewProfessionalRepoPG(pool *pgxpool.Pool) ProfessionalRepository {
	return &professionalRepoPG{pool: pool}
}

const professionalCols = `id, name, license_number, specialty, care_unit_id,
	active, created_at, updated_at`

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional
	err := row.Scan(&p.ID, &p.Name, &p.LicenseNumber, &p.Specialty, &p.CareUnitID,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *professionalRepoPG) Create(ctx context.Context, p *Professional) error {
	p.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO professional (id, name, license_number, specialty, care_unit_id, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Name, p.LicenseNumber, p.Specialty, p.CareUnitID, p.Active)
	return apperr.FromStorage("create professional", err)
}

func (r *professionalRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	p, err := scanProfessional(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+professionalCols+` FROM professional WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("professional", id.String())
	}
	if err != nil {
		return nil, apperr.FromStorage("get professional", err)
	}
	return p, nil
}

func (r *professionalRepoPG) Update(ctx context.Context, p *Professional) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE professional SET name = $2, license_number = $3, specialty = $4,
			care_unit_id = $5, active = $6, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Name, p.LicenseNumber, p.Specialty, p.CareUnitID, p.Active)
	if err != nil {
		return apperr.FromStorage("update professional", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("professional", p.ID.String())
	}
	return nil
}

func (r *professionalRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Professional, int, error) {
	where := ``
	if activeOnly {
		where = ` WHERE active`
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM professional`+where).Scan(&total); err != nil {
		return nil, 0, apperr.FromStorage("count professionals", err)
	}

	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+professionalCols+` FROM professional`+where+` ORDER BY name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, apperr.FromStorage("list professionals", err)
	}
	defer rows.Close()

	var result []*Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, 0, apperr.FromStorage("scan professional", err)
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}
