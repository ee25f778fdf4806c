package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/repository/repotest"
)

func TestPostgres_AddTwiceIncrementsLine(t *testing.T) {
	ctx := context.Background()
	pool := repotest.Pool(ctx, t)
	userID := repotest.InsertUser(ctx, t, pool, "buyer@example.com", "USER")
	productID := repotest.InsertProduct(ctx, t, pool, "P1", 1000, 10, "on_sale")

	repo := NewPostgres(pool, nil)
	first, created, err := repo.Add(ctx, userID, productID)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !created || first.Quantity != 1 {
		t.Fatalf("expected new line with quantity 1, got %+v created=%v", first, created)
	}
	second, created, err := repo.Add(ctx, userID, productID)
	if err != nil {
		t.Fatalf("Add again: %v", err)
	}
	if created || second.Quantity != 2 || second.ID != first.ID {
		t.Fatalf("expected same line with quantity 2, got %+v created=%v", second, created)
	}
}

func TestPostgres_AddRejections(t *testing.T) {
	ctx := context.Background()
	pool := repotest.Pool(ctx, t)
	userID := repotest.InsertUser(ctx, t, pool, "buyer@example.com", "USER")
	empty := repotest.InsertProduct(ctx, t, pool, "EMPTY", 1000, 0, "on_sale")
	rx := repotest.InsertProduct(ctx, t, pool, "RX", 1000, 5, "pharmacy_only")
	single := repotest.InsertProduct(ctx, t, pool, "ONE", 1000, 1, "on_sale")

	repo := NewPostgres(pool, nil)
	cases := []struct {
		name      string
		productID string
		want      error
	}{
		{"missing", "00000000-0000-0000-0000-000000000000", domain.ErrNotFound},
		{"malformed", "abc", domain.ErrNotFound},
		{"no stock", empty, domain.ErrOutOfStock},
		{"pharmacy only", rx, domain.ErrNotForSale},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := repo.Add(ctx, userID, tc.productID); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, _, err := repo.Add(ctx, userID, single); err != nil {
		t.Fatalf("Add single: %v", err)
	}
	if _, _, err := repo.Add(ctx, userID, single); !errors.Is(err, domain.ErrStockExceeded) {
		t.Fatalf("expected stock exceeded, got %v", err)
	}
}

func TestPostgres_IncrementStopsAtStock(t *testing.T) {
	ctx := context.Background()
	pool := repotest.Pool(ctx, t)
	userID := repotest.InsertUser(ctx, t, pool, "buyer@example.com", "USER")
	productID := repotest.InsertProduct(ctx, t, pool, "P2", 1000, 2, "on_sale")

	repo := NewPostgres(pool, nil)
	if _, err := repo.Increment(ctx, userID, productID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found without a line, got %v", err)
	}
	if _, _, err := repo.Add(ctx, userID, productID); err != nil {
		t.Fatalf("Add: %v", err)
	}
	line, err := repo.Increment(ctx, userID, productID)
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if line.Quantity != 2 {
		t.Fatalf("expected quantity equal to stock, got %d", line.Quantity)
	}
	if _, err := repo.Increment(ctx, userID, productID); !errors.Is(err, domain.ErrStockExceeded) {
		t.Fatalf("expected stock exceeded, got %v", err)
	}
}

func TestPostgres_DecrementRemovesAtOne(t *testing.T) {
	ctx := context.Background()
	pool := repotest.Pool(ctx, t)
	userID := repotest.InsertUser(ctx, t, pool, "buyer@example.com", "USER")
	productID := repotest.InsertProduct(ctx, t, pool, "P3", 1000, 5, "on_sale")

	repo := NewPostgres(pool, nil)
	repo.Add(ctx, userID, productID)
	repo.Add(ctx, userID, productID)

	line, err := repo.Decrement(ctx, userID, productID)
	if err != nil {
		t.Fatalf("Decrement: %v", err)
	}
	if line == nil || line.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %+v", line)
	}
	line, err = repo.Decrement(ctx, userID, productID)
	if err != nil {
		t.Fatalf("Decrement to zero: %v", err)
	}
	if line != nil {
		t.Fatalf("expected line removed, got %+v", line)
	}
	if _, err := repo.Get(ctx, userID, productID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected line gone, got %v", err)
	}
	if _, err := repo.Decrement(ctx, userID, productID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgres_ConcurrentIncrementsAreNotLost(t *testing.T) {
	ctx := context.Background()
	pool := repotest.Pool(ctx, t)
	userID := repotest.InsertUser(ctx, t, pool, "buyer@example.com", "USER")
	productID := repotest.InsertProduct(ctx, t, pool, "P4", 1000, 10, "on_sale")

	repo := NewPostgres(pool, nil)
	if _, _, err := repo.Add(ctx, userID, productID); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Increment(ctx, userID, productID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Increment: %v", err)
		}
	}

	line, err := repo.Get(ctx, userID, productID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if line.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", line.Quantity)
	}
}

func TestPostgres_ListByUserOrderedWithProduct(t *testing.T) {
	ctx := context.Background()
	pool := repotest.Pool(ctx, t)
	userID := repotest.InsertUser(ctx, t, pool, "buyer@example.com", "USER")
	other := repotest.InsertUser(ctx, t, pool, "other@example.com", "USER")
	a := repotest.InsertProduct(ctx, t, pool, "A", 1000, 5, "on_sale")
	b := repotest.InsertProduct(ctx, t, pool, "B", 2000, 5, "on_sale")

	repo := NewPostgres(pool, nil)
	repo.Add(ctx, userID, b)
	repo.Add(ctx, userID, a)
	repo.Add(ctx, other, a)

	lines, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].ProductID != b || lines[1].ProductID != a {
		t.Fatalf("expected creation order, got %s, %s", lines[0].ProductID, lines[1].ProductID)
	}
	if lines[0].Product == nil || lines[0].Product.Price != 2000 || lines[0].Subtotal() != 2000 {
		t.Fatalf("expected joined product, got %+v", lines[0].Product)
	}

	removed, err := repo.DeleteAll(ctx, userID)
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if err := repo.Delete(ctx, userID, a); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after clear, got %v", err)
	}
}
