package cart

import (
	"context"
	"errors"
	"testing"

	"pharmacy-store/internal/domain"
)

type stubRepo struct {
	addLine     *domain.CartLine
	addCreated  bool
	addErr      error
	incLine     *domain.CartLine
	incErr      error
	decLine     *domain.CartLine
	decErr      error
	deleteErr   error
	removed     int64
	lines       []domain.CartLine
	lastUser    string
	lastProduct string
}

func (s *stubRepo) Add(_ context.Context, userID, productID string) (*domain.CartLine, bool, error) {
	s.lastUser, s.lastProduct = userID, productID
	return s.addLine, s.addCreated, s.addErr
}

func (s *stubRepo) Increment(_ context.Context, userID, productID string) (*domain.CartLine, error) {
	s.lastUser, s.lastProduct = userID, productID
	return s.incLine, s.incErr
}

func (s *stubRepo) Decrement(_ context.Context, userID, productID string) (*domain.CartLine, error) {
	s.lastUser, s.lastProduct = userID, productID
	return s.decLine, s.decErr
}

func (s *stubRepo) Delete(_ context.Context, userID, productID string) error {
	s.lastUser, s.lastProduct = userID, productID
	return s.deleteErr
}

func (s *stubRepo) DeleteAll(_ context.Context, userID string) (int64, error) {
	s.lastUser = userID
	return s.removed, nil
}

func (s *stubRepo) ListByUser(_ context.Context, userID string) ([]domain.CartLine, error) {
	s.lastUser = userID
	return s.lines, nil
}

type recordedMutation struct{ op, result string }

type stubMetrics struct {
	calls []recordedMutation
}

func (m *stubMetrics) CartMutation(op, result string) {
	m.calls = append(m.calls, recordedMutation{op, result})
}

func TestAdd_PassesThroughAndRecords(t *testing.T) {
	repo := &stubRepo{addLine: &domain.CartLine{ID: "l1", Quantity: 1}, addCreated: true}
	m := &stubMetrics{}
	svc := New(repo, m, nil)

	line, created, err := svc.Add(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !created || line.ID != "l1" {
		t.Fatalf("unexpected result %+v created=%v", line, created)
	}
	if repo.lastUser != "u1" || repo.lastProduct != "p1" {
		t.Fatalf("repo called with %s/%s", repo.lastUser, repo.lastProduct)
	}
	if len(m.calls) != 1 || m.calls[0] != (recordedMutation{"add", "ok"}) {
		t.Fatalf("unexpected metrics %+v", m.calls)
	}
}

func TestAdd_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		result string
	}{
		{"not found", domain.ErrNotFound, "not_found"},
		{"out of stock", domain.ErrOutOfStock, "out_of_stock"},
		{"not for sale", domain.ErrNotForSale, "not_for_sale"},
		{"stock exceeded", domain.ErrStockExceeded, "stock_exceeded"},
		{"storage", errors.New("conn reset"), "error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &stubMetrics{}
			svc := New(&stubRepo{addErr: tc.err}, m, nil)
			if _, _, err := svc.Add(context.Background(), "u1", "p1"); !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
			if m.calls[0].result != tc.result {
				t.Fatalf("expected result %s, got %s", tc.result, m.calls[0].result)
			}
		})
	}
}

func TestMutations_RequireCallerAndProduct(t *testing.T) {
	svc := New(&stubRepo{}, nil, nil)
	ctx := context.Background()
	if _, _, err := svc.Add(ctx, "", "p1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.Increment(ctx, "u1", " "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := svc.Delete(ctx, "u1", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestDecrement_LastUnitReturnsNilLine(t *testing.T) {
	svc := New(&stubRepo{}, nil, nil)
	line, err := svc.Decrement(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("Decrement: %v", err)
	}
	if line != nil {
		t.Fatalf("expected nil line, got %+v", line)
	}
}

func TestList_Totals(t *testing.T) {
	repo := &stubRepo{lines: []domain.CartLine{
		{ID: "a", Quantity: 2, Product: &domain.Product{Price: 15000}},
		{ID: "b", Quantity: 1, Product: &domain.Product{Price: 5000}},
	}}
	svc := New(repo, nil, nil)
	v, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if v.Total != 35000 || v.Count != 3 || len(v.Lines) != 2 {
		t.Fatalf("unexpected view %+v", v)
	}
}
