package product

import (
	"context"
	"strconv"
	"strings"

	"pharmacy-store/internal/db"
	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/logging"

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

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Product, int, error) {
	var (
		where []string
		args  []any
	)
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, "p.category_id = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, "p.status = $"+strconv.Itoa(len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, "(p.name ILIKE $"+strconv.Itoa(len(args))+" OR p.sku ILIKE $"+strconv.Itoa(len(args))+")")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products p`+clause, args...).Scan(&total); err != nil {
		if db.IsInvalidInput(err) {
			return []domain.Product{}, 0, nil
		}
		r.logger.Error("product repo: count", zap.Error(err))
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	q := `SELECT ` + Columns + ` FROM ` + Joins + clause +
		` ORDER BY p.created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("product repo: list", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		var (
			p  domain.Product
			sc RowScanner
		)
		if err := rows.Scan(sc.Dest(&p)...); err != nil {
			return nil, 0, err
		}
		if err := sc.Finish(&p); err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	r.logger.Debug("product repo: list", zap.Int("count", len(result)), zap.Int("total", total))
	return result, total, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return getByID(ctx, r.pool, id)
}

func (r *postgresRepo) Create(ctx context.Context, in Input) (*domain.Product, error) {
	var id string
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `
INSERT INTO products (sku, name, description, price, quantity, status, category_id, unit_id, trademark_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id::text
`
		if err := tx.QueryRow(ctx, q, in.SKU, in.Name, in.Description, in.Price, in.Quantity, string(in.Status),
			in.CategoryID, in.UnitID, in.TrademarkID).Scan(&id); err != nil {
			return err
		}
		return replaceImages(ctx, tx, id, in.Images)
	})
	if err != nil {
		return nil, translateWriteErr(err)
	}
	r.logger.Info("product repo: created", zap.String("id", id), zap.String("sku", in.SKU))
	return getByID(ctx, r.pool, id)
}

func (r *postgresRepo) Update(ctx context.Context, id string, in Input) (*domain.Product, error) {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `
UPDATE products
SET sku = $2, name = $3, description = $4, price = $5, quantity = $6, status = $7,
    category_id = $8, unit_id = $9, trademark_id = $10
WHERE id = $1
`
		cmd, err := tx.Exec(ctx, q, id, in.SKU, in.Name, in.Description, in.Price, in.Quantity, string(in.Status),
			in.CategoryID, in.UnitID, in.TrademarkID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return replaceImages(ctx, tx, id, in.Images)
	})
	if err != nil {
		return nil, translateWriteErr(err)
	}
	return getByID(ctx, r.pool, id)
}

func (r *postgresRepo) SetStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	const q = `
UPDATE products
SET quantity = $2,
    status = CASE
        WHEN $2 = 0 AND status = 'on_sale' THEN 'out_of_stock'
        WHEN $2 > 0 AND status = 'out_of_stock' THEN 'on_sale'
        ELSE status
    END
WHERE id = $1
`
	cmd, err := r.pool.Exec(ctx, q, id, quantity)
	if err != nil {
		return nil, translateWriteErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	r.logger.Info("product repo: stock set", zap.String("id", id), zap.Int("quantity", quantity))
	return getByID(ctx, r.pool, id)
}

func (r *postgresRepo) UpsertBySKU(ctx context.Context, in Input) (*domain.Product, error) {
	var id string
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `
INSERT INTO products (sku, name, description, price, quantity, status, category_id, unit_id, trademark_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (sku) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    quantity = EXCLUDED.quantity,
    status = EXCLUDED.status,
    category_id = COALESCE(EXCLUDED.category_id, products.category_id),
    unit_id = COALESCE(EXCLUDED.unit_id, products.unit_id),
    trademark_id = COALESCE(EXCLUDED.trademark_id, products.trademark_id)
RETURNING id::text
`
		if err := tx.QueryRow(ctx, q, in.SKU, in.Name, in.Description, in.Price, in.Quantity, string(in.Status),
			in.CategoryID, in.UnitID, in.TrademarkID).Scan(&id); err != nil {
			return err
		}
		if len(in.Images) == 0 {
			return nil
		}
		return replaceImages(ctx, tx, id, in.Images)
	})
	if err != nil {
		r.logger.Error("product repo: upsert", zap.String("sku", in.SKU), zap.Error(err))
		return nil, translateWriteErr(err)
	}
	return getByID(ctx, r.pool, id)
}

func getByID(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, id string) (*domain.Product, error) {
	var (
		p  domain.Product
		sc RowScanner
	)
	err := q.QueryRow(ctx, `SELECT `+Columns+` FROM `+Joins+` WHERE p.id = $1`, id).Scan(sc.Dest(&p)...)
	if err != nil {
		if db.NotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := sc.Finish(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func replaceImages(ctx context.Context, tx pgx.Tx, productID string, urls []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, productID); err != nil {
		return err
	}
	pos := 0
	for _, u := range urls {
		if u = strings.TrimSpace(u); u == "" {
			continue
		}
		if _, err := tx.Exec(ctx, `INSERT INTO product_images (product_id, url, position) VALUES ($1, $2, $3)`, productID, u, pos); err != nil {
			return err
		}
		pos++
	}
	return nil
}

func translateWriteErr(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return domain.ErrAlreadyExists
	case db.IsForeignKeyViolation(err), db.IsInvalidInput(err):
		return domain.ErrNotFound
	}
	return err
}
