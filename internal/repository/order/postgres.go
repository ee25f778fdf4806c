package order

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
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

const selectOrder = `
SELECT o.id::text, o.checkout_id::text, o.user_id::text, o.product_id::text, o.quantity, o.unit_price,
       COALESCE(o.address_id::text, ''), o.shipping_address, o.is_paid,
       o.payment_source, o.external_order_id, o.payment_id, o.payer_id,
       s.id::text, s.name, s.state, s.created_at, p.name, o.created_at, o.updated_at
FROM orders o
JOIN status_orders s ON s.id = o.status_id
JOIN products p ON p.id = o.product_id
`

type pricedItem struct {
	Item
	name  string
	price int64
}

func (r *postgresRepo) Place(ctx context.Context, in PlaceInput) ([]domain.Order, error) {
	var ids []string
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		items := in.Items
		if in.FromCart {
			var err error
			if items, err = lockCart(ctx, tx, in.UserID); err != nil {
				return err
			}
		}
		items, err := mergeItems(items)
		if err != nil {
			return err
		}

		priced := make([]pricedItem, 0, len(items))
		var total int64
		for _, it := range items {
			p, err := takeStock(ctx, tx, it)
			if err != nil {
				return err
			}
			total += p.price * int64(p.Quantity)
			priced = append(priced, p)
		}
		if in.ExpectedTotal != 0 && in.ExpectedTotal != total {
			return fmt.Errorf("%w: total changed from %d to %d", domain.ErrPaymentNotVerified, in.ExpectedTotal, total)
		}
		if err := claimPayment(ctx, tx, in, total); err != nil {
			return err
		}

		for _, p := range priced {
			id, err := insertOrder(ctx, tx, in, p)
			if err != nil {
				return err
			}
			ids = append(ids, id)
			if err := consumeCartLine(ctx, tx, in.UserID, p.Item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !isDomainErr(err) {
			r.logger.Error("order repo: place", zap.String("user_id", in.UserID), zap.String("checkout_id", in.CheckoutID), zap.Error(err))
		}
		return nil, err
	}

	r.logger.Info("order repo: placed",
		zap.String("user_id", in.UserID),
		zap.String("checkout_id", in.CheckoutID),
		zap.Int("orders", len(ids)),
		zap.String("payment_source", in.Payment.Source),
	)
	return r.ListByCheckout(ctx, in.CheckoutID)
}

func (r *postgresRepo) ListByCheckout(ctx context.Context, checkoutID string) ([]domain.Order, error) {
	return r.listWhere(ctx, `WHERE o.checkout_id = $1 ORDER BY o.created_at, o.id`, checkoutID)
}

func (r *postgresRepo) Quote(ctx context.Context, userID string, items []Item, fromCart bool) (int64, error) {
	if fromCart {
		const q = `
SELECT COALESCE(SUM(p.price * c.quantity), 0), count(*)
FROM cart_lines c
JOIN products p ON p.id = c.product_id
WHERE c.user_id = $1
`
		var (
			total int64
			n     int
		)
		if err := r.pool.QueryRow(ctx, q, userID).Scan(&total, &n); err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, domain.ErrEmptyCart
		}
		return total, nil
	}

	items, err := mergeItems(items)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, it := range items {
		var price int64
		if err := r.pool.QueryRow(ctx, `SELECT price FROM products WHERE id = $1`, it.ProductID).Scan(&price); err != nil {
			if db.NotFound(err) {
				return 0, domain.ErrNotFound
			}
			return 0, err
		}
		total += price * int64(it.Quantity)
	}
	return total, nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, selectOrder+`WHERE o.id = $1`, id))
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.listWhere(ctx, `WHERE o.user_id = $1 ORDER BY o.created_at DESC, o.id`, userID)
}

func (r *postgresRepo) ListAll(ctx context.Context, f ListFilter) ([]domain.Order, int, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, "o.user_id = $"+strconv.Itoa(len(args)))
	}
	if f.StatusID != "" {
		args = append(args, f.StatusID)
		where = append(where, "o.status_id = $"+strconv.Itoa(len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders o `+clause, args...).Scan(&total); err != nil {
		if db.IsInvalidInput(err) {
			return []domain.Order{}, 0, nil
		}
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, max(f.Offset, 0))
	list, err := r.listWhere(ctx, clause+` ORDER BY o.created_at DESC, o.id LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *postgresRepo) ChangeStatus(ctx context.Context, c StatusChange) (*domain.Order, error) {
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		const lockQ = `
SELECT o.user_id::text, o.product_id::text, o.quantity, s.state
FROM orders o
JOIN status_orders s ON s.id = o.status_id
WHERE o.id = $1
FOR UPDATE OF o
`
		var (
			userID, productID, current string
			quantity                   int
		)
		if err := tx.QueryRow(ctx, lockQ, c.OrderID).Scan(&userID, &productID, &quantity, &current); err != nil {
			if db.NotFound(err) {
				return domain.ErrNotFound
			}
			return err
		}
		if c.OwnerID != "" && c.OwnerID != userID {
			return domain.ErrNotFound
		}
		from := domain.OrderState(current)
		if len(c.From) > 0 && !slices.Contains(c.From, from) {
			return fmt.Errorf("%w: order is %s", domain.ErrInvalidTransition, from)
		}

		var next string
		if err := tx.QueryRow(ctx, `SELECT state FROM status_orders WHERE id = $1`, c.StatusID).Scan(&next); err != nil {
			if db.NotFound(err) {
				return domain.ErrNotFound
			}
			return err
		}
		to := domain.OrderState(next)
		if !from.CanTransition(to) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
		}

		if to == domain.StateCancelled && from != domain.StateCancelled {
			const restock = `
UPDATE products
SET quantity = quantity + $2,
    status = CASE WHEN status = 'out_of_stock' THEN 'on_sale' ELSE status END
WHERE id = $1
`
			if _, err := tx.Exec(ctx, restock, productID, quantity); err != nil {
				return err
			}
		}

		const q = `
UPDATE orders
SET status_id = $2,
    is_paid = is_paid OR $3,
    updated_at = clock_timestamp()
WHERE id = $1
`
		markPaid := to == domain.StatePaid || to == domain.StateCompleted
		_, err := tx.Exec(ctx, q, c.OrderID, c.StatusID, markPaid)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("order repo: status changed", zap.String("order_id", c.OrderID), zap.String("status_id", c.StatusID))
	return r.Get(ctx, c.OrderID)
}

func (r *postgresRepo) listWhere(ctx context.Context, clause string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrder+clause, args...)
	if err != nil {
		if db.IsInvalidInput(err) {
			return []domain.Order{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	out := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func lockCart(ctx context.Context, tx pgx.Tx, userID string) ([]Item, error) {
	rows, err := tx.Query(ctx, `
SELECT product_id::text, quantity
FROM cart_lines
WHERE user_id = $1
ORDER BY created_at, id
FOR UPDATE
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	return items, nil
}

// mergeItems folds duplicate products together and sorts by product id
// so concurrent checkouts lock product rows in the same order.
func mergeItems(items []Item) ([]Item, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	byProduct := make(map[string]int, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, domain.Invalidf("quantity", "must be positive")
		}
		byProduct[it.ProductID] += it.Quantity
	}
	out := make([]Item, 0, len(byProduct))
	for id, q := range byProduct {
		out = append(out, Item{ProductID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func takeStock(ctx context.Context, tx pgx.Tx, it Item) (pricedItem, error) {
	const q = `
UPDATE products
SET quantity = quantity - $2,
    status = CASE WHEN quantity - $2 = 0 THEN 'out_of_stock' ELSE status END
WHERE id = $1 AND status = 'on_sale' AND quantity >= $2
RETURNING name, price
`
	p := pricedItem{Item: it}
	err := tx.QueryRow(ctx, q, it.ProductID, it.Quantity).Scan(&p.name, &p.price)
	switch {
	case err == nil:
		return p, nil
	case db.IsInvalidInput(err):
		return p, domain.ErrNotFound
	case !db.NotFound(err):
		return p, err
	}

	var (
		status   string
		quantity int
	)
	if err := tx.QueryRow(ctx, `SELECT status, quantity FROM products WHERE id = $1`, it.ProductID).Scan(&status, &quantity); err != nil {
		if db.NotFound(err) {
			return p, domain.ErrNotFound
		}
		return p, err
	}
	switch {
	case !domain.ProductStatus(status).SellableOnline():
		return p, domain.ErrNotForSale
	case status == string(domain.ProductOutOfStock) || quantity <= 0:
		return p, domain.ErrOutOfStock
	default:
		return p, fmt.Errorf("%w: %d requested, %d available", domain.ErrStockExceeded, it.Quantity, quantity)
	}
}

func insertOrder(ctx context.Context, tx pgx.Tx, in PlaceInput, p pricedItem) (string, error) {
	const q = `
INSERT INTO orders (checkout_id, user_id, product_id, quantity, unit_price, address_id, shipping_address,
                    is_paid, payment_source, external_order_id, payment_id, payer_id, status_id)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7, $8, $9, $10, $11, $12, $13)
RETURNING id::text
`
	var id string
	err := tx.QueryRow(ctx, q,
		in.CheckoutID, in.UserID, p.ProductID, p.Quantity, p.price, in.AddressID, in.ShippingAddress,
		in.IsPaid, in.Payment.Source, in.Payment.ExternalOrderID, in.Payment.PaymentID, in.Payment.PayerID, in.StatusID,
	).Scan(&id)
	switch {
	case err == nil:
		return id, nil
	case db.IsUniqueViolation(err):
		return "", domain.ErrAlreadyExists
	case db.IsForeignKeyViolation(err), db.IsInvalidInput(err):
		return "", domain.ErrNotFound
	}
	return "", err
}

// claimPayment records the provider payment against this checkout. A
// payment id can back exactly one checkout.
func claimPayment(ctx context.Context, tx pgx.Tx, in PlaceInput, total int64) error {
	if in.Payment.PaymentID == "" {
		return nil
	}
	const q = `
INSERT INTO payments (source, payment_id, checkout_id, user_id, amount)
VALUES ($1, $2, $3, $4, $5)
`
	_, err := tx.Exec(ctx, q, in.Payment.Source, in.Payment.PaymentID, in.CheckoutID, in.UserID, total)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: payment %s already used", domain.ErrPaymentUsed, in.Payment.PaymentID)
	}
	return err
}

// consumeCartLine removes the ordered quantity from the user's cart line
// for the product, deleting the line when nothing remains.
func consumeCartLine(ctx context.Context, tx pgx.Tx, userID string, it Item) error {
	cmd, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2 AND quantity <= $3`, userID, it.ProductID, it.Quantity)
	if err != nil || cmd.RowsAffected() > 0 {
		return err
	}
	_, err = tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = quantity - $3, updated_at = clock_timestamp()
WHERE user_id = $1 AND product_id = $2 AND quantity > $3
`, userID, it.ProductID, it.Quantity)
	return err
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o     domain.Order
		s     domain.StatusOrder
		state string
	)
	err := row.Scan(&o.ID, &o.CheckoutID, &o.UserID, &o.ProductID, &o.Quantity, &o.UnitPrice,
		&o.AddressID, &o.ShippingAddress, &o.IsPaid,
		&o.Payment.Source, &o.Payment.ExternalOrderID, &o.Payment.PaymentID, &o.Payment.PayerID,
		&s.ID, &s.Name, &state, &s.CreatedAt, &o.ProductName, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if db.NotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	s.State = domain.OrderState(state)
	o.StatusID = s.ID
	o.Status = &s
	return &o, nil
}

func isDomainErr(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrAlreadyExists, domain.ErrOutOfStock, domain.ErrNotForSale,
		domain.ErrStockExceeded, domain.ErrEmptyCart, domain.ErrPaymentNotVerified, domain.ErrPaymentUsed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
