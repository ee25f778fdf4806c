package statusorder

import (
	"context"
	"errors"
	"fmt"

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

const columns = `id::text, name, state, created_at`

func (r *postgresRepo) List(ctx context.Context) ([]domain.StatusOrder, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM status_orders ORDER BY created_at, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.StatusOrder{}
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.StatusOrder, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM status_orders WHERE id = $1`, id))
}

func (r *postgresRepo) FirstForState(ctx context.Context, state domain.OrderState) (*domain.StatusOrder, error) {
	return scan(r.pool.QueryRow(ctx, `
SELECT `+columns+`
FROM status_orders
WHERE state = $1
ORDER BY created_at, name
LIMIT 1
`, string(state)))
}

func (r *postgresRepo) Create(ctx context.Context, name string, state domain.OrderState) (*domain.StatusOrder, error) {
	s, err := scan(r.pool.QueryRow(ctx, `
INSERT INTO status_orders (name, state) VALUES ($1, $2)
RETURNING `+columns, name, string(state)))
	if err != nil && db.IsUniqueViolation(err) {
		return nil, domain.ErrAlreadyExists
	}
	return s, err
}

// Update renames a status. Its state may only change while no order
// uses it, since orders read their state through the status.
func (r *postgresRepo) Update(ctx context.Context, id, name string, state domain.OrderState) (*domain.StatusOrder, error) {
	s, err := scan(r.pool.QueryRow(ctx, `
UPDATE status_orders SET name = $2, state = $3
WHERE id = $1
  AND (state = $3 OR NOT EXISTS (SELECT 1 FROM orders WHERE status_id = $1))
RETURNING `+columns, id, name, string(state)))
	switch {
	case err == nil:
		return s, nil
	case db.IsUniqueViolation(err):
		return nil, domain.ErrAlreadyExists
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: status is assigned to orders, its state cannot change", domain.ErrInUse)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM status_orders WHERE id = $1`, id)
	if err != nil {
		switch {
		case db.IsForeignKeyViolation(err):
			return domain.ErrInUse
		case db.IsInvalidInput(err):
			return domain.ErrNotFound
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scan(row pgx.Row) (*domain.StatusOrder, error) {
	var (
		s     domain.StatusOrder
		state string
	)
	if err := row.Scan(&s.ID, &s.Name, &state, &s.CreatedAt); err != nil {
		if db.NotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	s.State = domain.OrderState(state)
	return &s, nil
}
