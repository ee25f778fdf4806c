package address

import (
	"context"
	"errors"
	"testing"

	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/repository/repotest"
)

func TestPostgres_DefaultAddressIsUnique(t *testing.T) {
	ctx := context.Background()
	pool := repotest.Pool(ctx, t)
	repotest.InsertLocation(ctx, t, pool, "79", "760", "26734")
	userID := repotest.InsertUser(ctx, t, pool, "buyer@example.com", "USER")

	repo := NewPostgres(pool)
	in := Input{FullName: "Nguyễn Văn A", Phone: "0900000000", ProvinceCode: "79", DistrictCode: "760", WardCode: "26734", Detail: "12 Lê Lợi"}

	first, err := repo.Create(ctx, userID, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !first.IsDefault {
		t.Fatalf("first address should become default")
	}
	if first.WardName != "Ward 26734" {
		t.Fatalf("expected ward name joined, got %q", first.WardName)
	}

	second, err := repo.Create(ctx, userID, in)
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if second.IsDefault {
		t.Fatalf("second address should not be default")
	}
	if _, err := repo.SetDefault(ctx, userID, second.ID); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}

	list, err := repo.List(ctx, userID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || !list[0].IsDefault || list[1].IsDefault {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestPostgres_ScopedToOwner(t *testing.T) {
	ctx := context.Background()
	pool := repotest.Pool(ctx, t)
	repotest.InsertLocation(ctx, t, pool, "79", "760", "26734")
	owner := repotest.InsertUser(ctx, t, pool, "owner@example.com", "USER")
	other := repotest.InsertUser(ctx, t, pool, "other@example.com", "USER")

	repo := NewPostgres(pool)
	a, err := repo.Create(ctx, owner, Input{FullName: "A", Phone: "1", ProvinceCode: "79", DistrictCode: "760", WardCode: "26734", Detail: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Get(ctx, other, a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
	if err := repo.Delete(ctx, other, a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found deleting other user's address, got %v", err)
	}
	if err := repo.Delete(ctx, owner, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}
