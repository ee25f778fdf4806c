package lookup

import (
	"context"
	"fmt"

	"pharmacy-store/internal/db"
	"pharmacy-store/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
	kind domain.LookupKind
}

// NewPostgres returns a Repository for the table named by kind.
func NewPostgres(pool *pgxpool.Pool, kind domain.LookupKind) (Repository, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("lookup repo: unknown kind %q", kind)
	}
	return &postgresRepo{pool: pool, kind: kind}, nil
}

func (r *postgresRepo) Kind() domain.LookupKind {
	return r.kind
}

// kind is validated in NewPostgres, so interpolating the table name is safe.
func (r *postgresRepo) sql(format string) string {
	return fmt.Sprintf(format, string(r.kind))
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Lookup, error) {
	rows, err := r.pool.Query(ctx, r.sql(`
SELECT id::text, key, name, created_at
FROM %s
ORDER BY name ASC
`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Lookup{}
	for rows.Next() {
		l := domain.Lookup{Kind: r.kind}
		if err := rows.Scan(&l.ID, &l.Key, &l.Name, &l.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Lookup, error) {
	return r.scan(r.pool.QueryRow(ctx, r.sql(`
SELECT id::text, key, name, created_at
FROM %s
WHERE id = $1
`), id))
}

func (r *postgresRepo) Create(ctx context.Context, key, name string) (*domain.Lookup, error) {
	return r.scan(r.pool.QueryRow(ctx, r.sql(`
INSERT INTO %s (key, name)
VALUES ($1, $2)
RETURNING id::text, key, name, created_at
`), key, name))
}

func (r *postgresRepo) Update(ctx context.Context, id, key, name string) (*domain.Lookup, error) {
	return r.scan(r.pool.QueryRow(ctx, r.sql(`
UPDATE %s
SET key = $2, name = $3
WHERE id = $1
RETURNING id::text, key, name, created_at
`), id, key, name))
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, r.sql(`DELETE FROM %s WHERE id = $1`), id)
	if err != nil {
		if db.IsInvalidInput(err) {
			return domain.ErrNotFound
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Upsert(ctx context.Context, key, name string) (*domain.Lookup, error) {
	return r.scan(r.pool.QueryRow(ctx, r.sql(`
INSERT INTO %s (key, name)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text, key, name, created_at
`), key, name))
}

func (r *postgresRepo) scan(row pgx.Row) (*domain.Lookup, error) {
	out := domain.Lookup{Kind: r.kind}
	if err := row.Scan(&out.ID, &out.Key, &out.Name, &out.CreatedAt); err != nil {
		if db.NotFound(err) {
			return nil, domain.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return &out, nil
}
