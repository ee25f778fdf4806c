package location

import (
	"context"

	"pharmacy-store/internal/db"
	"pharmacy-store/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Provinces(ctx context.Context) ([]domain.Province, error) {
	rows, err := r.pool.Query(ctx, `SELECT code, name FROM provinces ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Province{}
	for rows.Next() {
		var p domain.Province
		if err := rows.Scan(&p.Code, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Districts(ctx context.Context, provinceCode string) ([]domain.District, error) {
	rows, err := r.pool.Query(ctx, `
SELECT code, province_code, name
FROM districts
WHERE province_code = $1
ORDER BY name
`, provinceCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.District{}
	for rows.Next() {
		var d domain.District
		if err := rows.Scan(&d.Code, &d.ProvinceCode, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Wards(ctx context.Context, districtCode string) ([]domain.Ward, error) {
	rows, err := r.pool.Query(ctx, `
SELECT code, district_code, name
FROM wards
WHERE district_code = $1
ORDER BY name
`, districtCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Ward{}
	for rows.Next() {
		var w domain.Ward
		if err := rows.Scan(&w.Code, &w.DistrictCode, &w.Name); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Resolve(ctx context.Context, provinceCode, districtCode, wardCode string) (*Resolved, error) {
	const q = `
SELECT p.code, p.name, d.code, d.province_code, d.name, w.code, w.district_code, w.name
FROM wards w
JOIN districts d ON d.code = w.district_code
JOIN provinces p ON p.code = d.province_code
WHERE w.code = $3 AND d.code = $2 AND p.code = $1
`
	var res Resolved
	err := r.pool.QueryRow(ctx, q, provinceCode, districtCode, wardCode).Scan(
		&res.Province.Code, &res.Province.Name,
		&res.District.Code, &res.District.ProvinceCode, &res.District.Name,
		&res.Ward.Code, &res.Ward.DistrictCode, &res.Ward.Name,
	)
	if err != nil {
		if db.NotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) UpsertProvince(ctx context.Context, p domain.Province) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO provinces (code, name) VALUES ($1, $2)
ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
`, p.Code, p.Name)
	return err
}

func (r *postgresRepo) UpsertDistrict(ctx context.Context, d domain.District) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO districts (code, province_code, name) VALUES ($1, $2, $3)
ON CONFLICT (code) DO UPDATE SET province_code = EXCLUDED.province_code, name = EXCLUDED.name
`, d.Code, d.ProvinceCode, d.Name)
	return err
}

func (r *postgresRepo) UpsertWard(ctx context.Context, w domain.Ward) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO wards (code, district_code, name) VALUES ($1, $2, $3)
ON CONFLICT (code) DO UPDATE SET district_code = EXCLUDED.district_code, name = EXCLUDED.name
`, w.Code, w.DistrictCode, w.Name)
	return err
}
