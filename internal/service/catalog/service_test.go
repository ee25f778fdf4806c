package catalog

import (
	"context"
	"errors"
	"testing"

	"pharmacy-store/internal/domain"
	productrepo "pharmacy-store/internal/repository/product"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookups struct {
	kind    domain.LookupKind
	created []string
}

func (s *stubLookups) Kind() domain.LookupKind { return s.kind }
func (s *stubLookups) List(context.Context) ([]domain.Lookup, error) {
	return []domain.Lookup{{ID: "1", Kind: s.kind}}, nil
}
func (s *stubLookups) Get(_ context.Context, id string) (*domain.Lookup, error) {
	return nil, domain.ErrNotFound
}
func (s *stubLookups) Create(_ context.Context, key, name string) (*domain.Lookup, error) {
	s.created = append(s.created, key)
	return &domain.Lookup{ID: "new", Kind: s.kind, Key: key, Name: name}, nil
}
func (s *stubLookups) Update(_ context.Context, id, key, name string) (*domain.Lookup, error) {
	return &domain.Lookup{ID: id, Kind: s.kind, Key: key, Name: name}, nil
}
func (s *stubLookups) Delete(context.Context, string) error { return nil }

type stubProducts struct {
	lastInput productrepo.Input
	stockSet  int
}

func (s *stubProducts) List(context.Context, productrepo.ListFilter) ([]domain.Product, int, error) {
	return nil, 0, nil
}
func (s *stubProducts) GetByID(context.Context, string) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}
func (s *stubProducts) Create(_ context.Context, in productrepo.Input) (*domain.Product, error) {
	s.lastInput = in
	return &domain.Product{ID: "p1", SKU: in.SKU, Status: in.Status, Quantity: in.Quantity}, nil
}
func (s *stubProducts) Update(_ context.Context, id string, in productrepo.Input) (*domain.Product, error) {
	s.lastInput = in
	return &domain.Product{ID: id, SKU: in.SKU, Status: in.Status}, nil
}
func (s *stubProducts) SetStock(_ context.Context, id string, q int) (*domain.Product, error) {
	s.stockSet = q
	return &domain.Product{ID: id, Quantity: q}, nil
}

func newService() (*Service, *stubProducts, *stubLookups) {
	products := &stubProducts{}
	units := &stubLookups{kind: domain.KindUnit}
	return New(products, nil, units, &stubLookups{kind: domain.KindCategory}), products, units
}

func TestCreateLookup_NormalizesKey(t *testing.T) {
	svc, _, units := newService()
	l, err := svc.CreateLookup(context.Background(), domain.KindUnit, "  BOX ", " Hộp ")
	require.NoError(t, err)
	assert.Equal(t, "box", l.Key)
	assert.Equal(t, "Hộp", l.Name)
	assert.Equal(t, []string{"box"}, units.created)

	_, err = svc.CreateLookup(context.Background(), domain.KindUnit, "box", " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLookup_UnknownKind(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.ListLookups(context.Background(), domain.KindTrademark)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateProduct_StatusFollowsQuantity(t *testing.T) {
	svc, products, _ := newService()
	empty := " "
	p, err := svc.CreateProduct(context.Background(), productrepo.Input{SKU: " A1 ", Name: "Aspirin", Quantity: 0, CategoryID: &empty})
	require.NoError(t, err)
	assert.Equal(t, domain.ProductOutOfStock, p.Status)
	assert.Equal(t, "A1", products.lastInput.SKU)
	assert.Nil(t, products.lastInput.CategoryID)

	p, err = svc.CreateProduct(context.Background(), productrepo.Input{SKU: "A2", Name: "Aspirin", Quantity: 3, Status: domain.ProductOutOfStock})
	require.NoError(t, err)
	assert.Equal(t, domain.ProductOnSale, p.Status)

	p, err = svc.CreateProduct(context.Background(), productrepo.Input{SKU: "RX", Name: "Amoxicillin", Quantity: 0, Status: domain.ProductPharmacyOnly})
	require.NoError(t, err)
	assert.Equal(t, domain.ProductPharmacyOnly, p.Status)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, _, _ := newService()
	cases := []productrepo.Input{
		{Name: "no sku"},
		{SKU: "x"},
		{SKU: "x", Name: "n", Price: -1},
		{SKU: "x", Name: "n", Quantity: -1},
		{SKU: "x", Name: "n", Status: "recalled"},
	}
	for _, in := range cases {
		_, err := svc.CreateProduct(context.Background(), in)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), "input %+v", in)
	}
}

func TestSetStock_RejectsNegative(t *testing.T) {
	svc, products, _ := newService()
	_, err := svc.SetStock(context.Background(), "p1", -2)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p, err := svc.SetStock(context.Background(), "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Quantity)
	assert.Equal(t, 4, products.stockSet)
}
