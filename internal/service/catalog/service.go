// Package catalog serves products and the category, unit and trademark
// lookups they reference.
package catalog

import (
	"context"
	"strings"

	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/logging"
	productrepo "pharmacy-store/internal/repository/product"

	"go.uber.org/zap"
)

type lookupRepo interface {
	Kind() domain.LookupKind
	List(ctx context.Context) ([]domain.Lookup, error)
	Get(ctx context.Context, id string) (*domain.Lookup, error)
	Create(ctx context.Context, key, name string) (*domain.Lookup, error)
	Update(ctx context.Context, id, key, name string) (*domain.Lookup, error)
	Delete(ctx context.Context, id string) error
}

type productRepo interface {
	List(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, int, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in productrepo.Input) (*domain.Product, error)
	Update(ctx context.Context, id string, in productrepo.Input) (*domain.Product, error)
	SetStock(ctx context.Context, id string, quantity int) (*domain.Product, error)
}

type Service struct {
	lookups  map[domain.LookupKind]lookupRepo
	products productRepo
	logger   *zap.Logger
}

func New(products productRepo, logger *zap.Logger, lookups ...lookupRepo) *Service {
	s := &Service{
		lookups:  make(map[domain.LookupKind]lookupRepo, len(lookups)),
		products: products,
		logger:   logging.OrNop(logger),
	}
	for _, l := range lookups {
		s.lookups[l.Kind()] = l
	}
	return s
}

func (s *Service) lookup(kind domain.LookupKind) (lookupRepo, error) {
	repo, ok := s.lookups[kind]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return repo, nil
}

func (s *Service) ListLookups(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	repo, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}
	return repo.List(ctx)
}

func (s *Service) GetLookup(ctx context.Context, kind domain.LookupKind, id string) (*domain.Lookup, error) {
	repo, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

func (s *Service) CreateLookup(ctx context.Context, kind domain.LookupKind, key, name string) (*domain.Lookup, error) {
	repo, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}
	key, name, err = normalizeLookup(key, name)
	if err != nil {
		return nil, err
	}
	return repo.Create(ctx, key, name)
}

func (s *Service) UpdateLookup(ctx context.Context, kind domain.LookupKind, id, key, name string) (*domain.Lookup, error) {
	repo, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}
	key, name, err = normalizeLookup(key, name)
	if err != nil {
		return nil, err
	}
	return repo.Update(ctx, id, key, name)
}

func (s *Service) DeleteLookup(ctx context.Context, kind domain.LookupKind, id string) error {
	repo, err := s.lookup(kind)
	if err != nil {
		return err
	}
	return repo.Delete(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, domain.Invalidf("status", "unknown product status %q", f.Status)
	}
	return s.products.List(ctx, f)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, in productrepo.Input) (*domain.Product, error) {
	in, err := normalizeProduct(in)
	if err != nil {
		return nil, err
	}
	p, err := s.products.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("catalog: product created", zap.String("id", p.ID), zap.String("sku", p.SKU))
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in productrepo.Input) (*domain.Product, error) {
	in, err := normalizeProduct(in)
	if err != nil {
		return nil, err
	}
	return s.products.Update(ctx, id, in)
}

func (s *Service) SetStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	if quantity < 0 {
		return nil, domain.Invalidf("quantity", "must not be negative")
	}
	return s.products.SetStock(ctx, id, quantity)
}

func normalizeLookup(key, name string) (string, string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	name = strings.TrimSpace(name)
	if key == "" {
		return "", "", domain.Invalidf("key", "required")
	}
	if name == "" {
		return "", "", domain.Invalidf("name", "required")
	}
	return key, name, nil
}

// normalizeProduct trims input, applies the default status and keeps
// on_sale/out_of_stock consistent with the quantity.
func normalizeProduct(in productrepo.Input) (productrepo.Input, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	switch {
	case in.SKU == "":
		return in, domain.Invalidf("sku", "required")
	case in.Name == "":
		return in, domain.Invalidf("name", "required")
	case in.Price < 0:
		return in, domain.Invalidf("price", "must not be negative")
	case in.Quantity < 0:
		return in, domain.Invalidf("quantity", "must not be negative")
	}
	if in.Status == "" {
		in.Status = domain.ProductOnSale
	}
	if !in.Status.Valid() {
		return in, domain.Invalidf("status", "unknown product status %q", in.Status)
	}
	if in.Quantity == 0 && in.Status == domain.ProductOnSale {
		in.Status = domain.ProductOutOfStock
	}
	if in.Quantity > 0 && in.Status == domain.ProductOutOfStock {
		in.Status = domain.ProductOnSale
	}
	for _, ref := range []**string{&in.CategoryID, &in.UnitID, &in.TrademarkID} {
		if *ref != nil && strings.TrimSpace(**ref) == "" {
			*ref = nil
		}
	}
	return in, nil
}
