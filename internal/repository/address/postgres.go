package address

import (
	"context"

	"pharmacy-store/internal/db"
	"pharmacy-store/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const selectAddress = `
SELECT a.id::text, a.user_id::text, a.full_name, a.phone,
       a.province_code, p.name, a.district_code, d.name, a.ward_code, w.name,
       a.detail, a.is_default, a.created_at
FROM addresses a
JOIN provinces p ON p.code = a.province_code
JOIN districts d ON d.code = a.district_code
JOIN wards w ON w.code = a.ward_code
`

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *postgresRepo) List(ctx context.Context, userID string) ([]domain.Address, error) {
	rows, err := r.pool.Query(ctx, selectAddress+`WHERE a.user_id = $1 ORDER BY a.is_default DESC, a.created_at ASC`, userID)
	if err != nil {
		if db.IsInvalidInput(err) {
			return []domain.Address{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	out := []domain.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Get(ctx context.Context, userID, id string) (*domain.Address, error) {
	return get(ctx, r.pool, userID, id)
}

func (r *postgresRepo) Create(ctx context.Context, userID string, in Input) (*domain.Address, error) {
	var id string
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var existing int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM addresses WHERE user_id = $1`, userID).Scan(&existing); err != nil {
			return err
		}
		isDefault := in.IsDefault || existing == 0
		if isDefault {
			if err := clearDefault(ctx, tx, userID); err != nil {
				return err
			}
		}
		const q = `
INSERT INTO addresses (user_id, full_name, phone, province_code, district_code, ward_code, detail, is_default)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id::text
`
		return tx.QueryRow(ctx, q, userID, in.FullName, in.Phone, in.ProvinceCode, in.DistrictCode, in.WardCode, in.Detail, isDefault).Scan(&id)
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return get(ctx, r.pool, userID, id)
}

func (r *postgresRepo) Update(ctx context.Context, userID, id string, in Input) (*domain.Address, error) {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if in.IsDefault {
			if err := clearDefault(ctx, tx, userID); err != nil {
				return err
			}
		}
		const q = `
UPDATE addresses
SET full_name = $3, phone = $4, province_code = $5, district_code = $6, ward_code = $7, detail = $8,
    is_default = is_default OR $9
WHERE id = $1 AND user_id = $2
`
		cmd, err := tx.Exec(ctx, q, id, userID, in.FullName, in.Phone, in.ProvinceCode, in.DistrictCode, in.WardCode, in.Detail, in.IsDefault)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return get(ctx, r.pool, userID, id)
}

func (r *postgresRepo) Delete(ctx context.Context, userID, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return translateErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) SetDefault(ctx context.Context, userID, id string) (*domain.Address, error) {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := clearDefault(ctx, tx, userID); err != nil {
			return err
		}
		cmd, err := tx.Exec(ctx, `UPDATE addresses SET is_default = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, translateErr(err)
	}
	return get(ctx, r.pool, userID, id)
}

func clearDefault(ctx context.Context, tx pgx.Tx, userID string) error {
	_, err := tx.Exec(ctx, `UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID)
	return err
}

func get(ctx context.Context, q querier, userID, id string) (*domain.Address, error) {
	return scanAddress(q.QueryRow(ctx, selectAddress+`WHERE a.id = $1 AND a.user_id = $2`, id, userID))
}

func scanAddress(row pgx.Row) (*domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.UserID, &a.FullName, &a.Phone,
		&a.ProvinceCode, &a.ProvinceName, &a.DistrictCode, &a.DistrictName, &a.WardCode, &a.WardName,
		&a.Detail, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		if db.NotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func translateErr(err error) error {
	if db.IsForeignKeyViolation(err) || db.IsInvalidInput(err) {
		return domain.ErrNotFound
	}
	return err
}
