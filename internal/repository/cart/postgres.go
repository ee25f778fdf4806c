package cart

import (
	"context"
	"errors"

	"pharmacy-store/internal/db"
	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/logging"
	"pharmacy-store/internal/repository/product"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

const lineColumns = `id::text, user_id::text, product_id::text, quantity, created_at, updated_at`

func (r *postgresRepo) Add(ctx context.Context, userID, productID string) (*domain.CartLine, bool, error) {
	const q = `
INSERT INTO cart_lines (user_id, product_id, quantity)
SELECT $1, p.id, 1
FROM products p
WHERE p.id = $2 AND p.status = 'on_sale' AND p.quantity > 0
ON CONFLICT (user_id, product_id) DO UPDATE
SET quantity = cart_lines.quantity + 1, updated_at = clock_timestamp()
WHERE cart_lines.quantity < (SELECT quantity FROM products WHERE id = EXCLUDED.product_id)
RETURNING ` + lineColumns + `, (xmax = 0) AS inserted
`
	var (
		line     domain.CartLine
		inserted bool
	)
	err := r.pool.QueryRow(ctx, q, userID, productID).Scan(
		&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt, &inserted,
	)
	if err != nil {
		if db.NotFound(err) {
			return nil, false, r.explainRejectedAdd(ctx, productID)
		}
		if db.IsForeignKeyViolation(err) {
			return nil, false, domain.ErrNotFound
		}
		r.logger.Error("cart repo: add", zap.String("user_id", userID), zap.String("product_id", productID), zap.Error(err))
		return nil, false, err
	}
	return &line, inserted, nil
}

// explainRejectedAdd maps an add that touched no row to the reason it
// was refused.
func (r *postgresRepo) explainRejectedAdd(ctx context.Context, productID string) error {
	var (
		status   string
		quantity int
	)
	err := r.pool.QueryRow(ctx, `SELECT status, quantity FROM products WHERE id = $1`, productID).Scan(&status, &quantity)
	if err != nil {
		if db.NotFound(err) {
			return domain.ErrNotFound
		}
		return err
	}
	switch {
	case !domain.ProductStatus(status).SellableOnline():
		return domain.ErrNotForSale
	case status == string(domain.ProductOutOfStock) || quantity <= 0:
		return domain.ErrOutOfStock
	default:
		return domain.ErrStockExceeded
	}
}

func (r *postgresRepo) Increment(ctx context.Context, userID, productID string) (*domain.CartLine, error) {
	const q = `
UPDATE cart_lines c
SET quantity = c.quantity + 1, updated_at = clock_timestamp()
FROM products p
WHERE c.user_id = $1 AND c.product_id = $2 AND p.id = c.product_id AND c.quantity < p.quantity
RETURNING c.id::text, c.user_id::text, c.product_id::text, c.quantity, c.created_at, c.updated_at
`
	line, err := scanLine(r.pool.QueryRow(ctx, q, userID, productID))
	if errors.Is(err, domain.ErrNotFound) {
		if _, getErr := r.Get(ctx, userID, productID); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrStockExceeded
	}
	return line, err
}

func (r *postgresRepo) Decrement(ctx context.Context, userID, productID string) (*domain.CartLine, error) {
	var result *domain.CartLine
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var quantity int
		err := tx.QueryRow(ctx, `
SELECT quantity FROM cart_lines
WHERE user_id = $1 AND product_id = $2
FOR UPDATE
`, userID, productID).Scan(&quantity)
		if err != nil {
			if db.NotFound(err) {
				return domain.ErrNotFound
			}
			return err
		}
		if quantity <= 1 {
			_, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2`, userID, productID)
			return err
		}
		result, err = scanLine(tx.QueryRow(ctx, `
UPDATE cart_lines
SET quantity = quantity - 1, updated_at = clock_timestamp()
WHERE user_id = $1 AND product_id = $2
RETURNING `+lineColumns, userID, productID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Get(ctx context.Context, userID, productID string) (*domain.CartLine, error) {
	return scanLine(r.pool.QueryRow(ctx, `
SELECT `+lineColumns+`
FROM cart_lines
WHERE user_id = $1 AND product_id = $2
`, userID, productID))
}

func (r *postgresRepo) Delete(ctx context.Context, userID, productID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2`, userID, productID)
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

func (r *postgresRepo) DeleteAll(ctx context.Context, userID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	r.logger.Info("cart repo: cleared", zap.String("user_id", userID), zap.Int64("removed", cmd.RowsAffected()))
	return cmd.RowsAffected(), nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error) {
	q := `
SELECT cl.id::text, cl.user_id::text, cl.product_id::text, cl.quantity, cl.created_at, cl.updated_at, ` + product.Columns + `
FROM ` + product.Joins + `
JOIN cart_lines cl ON cl.product_id = p.id
WHERE cl.user_id = $1
ORDER BY cl.created_at ASC, cl.id ASC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var (
			line domain.CartLine
			p    domain.Product
			sc   product.RowScanner
		)
		dest := append([]any{&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt}, sc.Dest(&p)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if err := sc.Finish(&p); err != nil {
			return nil, err
		}
		line.Product = &p
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanLine(row pgx.Row) (*domain.CartLine, error) {
	var line domain.CartLine
	if err := row.Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt); err != nil {
		if db.NotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}
