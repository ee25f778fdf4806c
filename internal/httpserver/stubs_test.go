package httpserver

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/payment"
	addressrepo "pharmacy-store/internal/repository/address"
	orderrepo "pharmacy-store/internal/repository/order"
	productrepo "pharmacy-store/internal/repository/product"
	authsvc "pharmacy-store/internal/service/auth"
	cartsvc "pharmacy-store/internal/service/cart"
	ordersvc "pharmacy-store/internal/service/order"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

var (
	testUser  = &domain.User{ID: "user-1", Email: "user@example.com", Role: domain.RoleUser, EmailVerified: true}
	testAdmin = &domain.User{ID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin, EmailVerified: true}
)

type stubAuth struct {
	signupErr   error
	loginErr    error
	verifyErr   error
	resetErr    error
	loggedOut   []string
	resetEmails []string
}

func (s *stubAuth) Signup(_ context.Context, in authsvc.SignupInput) (*domain.User, error) {
	if s.signupErr != nil {
		return nil, s.signupErr
	}
	return &domain.User{ID: "new-user", Email: in.Email, FullName: in.FullName, Role: domain.RoleUser}, nil
}

func (s *stubAuth) VerifyEmail(_ context.Context, _ string) (*domain.User, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return testUser, nil
}

func (s *stubAuth) RequestPasswordReset(_ context.Context, email string) error {
	s.resetEmails = append(s.resetEmails, email)
	return nil
}

func (s *stubAuth) ResetPassword(_ context.Context, _, _ string) error {
	return s.resetErr
}

func (s *stubAuth) Login(_ context.Context, _, _ string) (*authsvc.Session, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &authsvc.Session{User: testUser, Token: userToken, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *stubAuth) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

func (s *stubAuth) LookupByToken(_ context.Context, token string) (*domain.User, error) {
	switch token {
	case userToken:
		return testUser, nil
	case adminToken:
		return testAdmin, nil
	}
	return nil, domain.ErrInvalidToken
}

func (s *stubAuth) Me(_ context.Context, userID string) (*domain.User, error) {
	if userID == testAdmin.ID {
		return testAdmin, nil
	}
	return testUser, nil
}

func (s *stubAuth) AccessTTLSeconds() int { return 3600 }

type stubGuard struct{}

func (stubGuard) RequireAdmin(_ context.Context, userID string) (*domain.User, error) {
	if userID == testAdmin.ID {
		return testAdmin, nil
	}
	return nil, domain.ErrAdminRequired
}

type stubCatalog struct {
	products  []domain.Product
	getErr    error
	created   *productrepo.Input
	stock     map[string]int
	lastQuery productrepo.ListFilter
}

func (s *stubCatalog) ListLookups(_ context.Context, kind domain.LookupKind) ([]domain.Lookup, error) {
	return []domain.Lookup{{ID: "l1", Kind: kind, Key: "k", Name: "n"}}, nil
}

func (s *stubCatalog) GetLookup(_ context.Context, _ domain.LookupKind, _ string) (*domain.Lookup, error) {
	return nil, domain.ErrNotFound
}

func (s *stubCatalog) CreateLookup(_ context.Context, kind domain.LookupKind, key, name string) (*domain.Lookup, error) {
	return &domain.Lookup{ID: "l2", Kind: kind, Key: key, Name: name}, nil
}

func (s *stubCatalog) UpdateLookup(_ context.Context, kind domain.LookupKind, id, key, name string) (*domain.Lookup, error) {
	return &domain.Lookup{ID: id, Kind: kind, Key: key, Name: name}, nil
}

func (s *stubCatalog) DeleteLookup(_ context.Context, _ domain.LookupKind, _ string) error {
	return domain.ErrInUse
}

func (s *stubCatalog) ListProducts(_ context.Context, f productrepo.ListFilter) ([]domain.Product, int, error) {
	s.lastQuery = f
	return s.products, len(s.products), nil
}

func (s *stubCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &domain.Product{ID: id, Name: "Paracetamol", Price: 15000, Status: domain.ProductOnSale}, nil
}

func (s *stubCatalog) CreateProduct(_ context.Context, in productrepo.Input) (*domain.Product, error) {
	s.created = &in
	return &domain.Product{ID: "p-new", SKU: in.SKU, Name: in.Name, Price: in.Price, Quantity: in.Quantity}, nil
}

func (s *stubCatalog) UpdateProduct(_ context.Context, id string, in productrepo.Input) (*domain.Product, error) {
	return &domain.Product{ID: id, SKU: in.SKU, Name: in.Name}, nil
}

func (s *stubCatalog) SetStock(_ context.Context, id string, quantity int) (*domain.Product, error) {
	if s.stock == nil {
		s.stock = map[string]int{}
	}
	s.stock[id] = quantity
	return &domain.Product{ID: id, Quantity: quantity}, nil
}

type stubCart struct {
	addErr  error
	created bool
	line    *domain.CartLine
}

func (s *stubCart) Add(_ context.Context, userID, productID string) (*domain.CartLine, bool, error) {
	if s.addErr != nil {
		return nil, false, s.addErr
	}
	return &domain.CartLine{ID: "line-1", UserID: userID, ProductID: productID, Quantity: 1}, s.created, nil
}

func (s *stubCart) Increment(_ context.Context, userID, productID string) (*domain.CartLine, error) {
	return &domain.CartLine{ID: "line-1", UserID: userID, ProductID: productID, Quantity: 2}, nil
}

func (s *stubCart) Decrement(_ context.Context, _, _ string) (*domain.CartLine, error) {
	return s.line, nil
}

func (s *stubCart) Delete(_ context.Context, _, _ string) error { return nil }

func (s *stubCart) DeleteAll(_ context.Context, _ string) (int64, error) { return 2, nil }

func (s *stubCart) List(_ context.Context, userID string) (*cartsvc.View, error) {
	return &cartsvc.View{Lines: []domain.CartLine{{ID: "line-1", UserID: userID, Quantity: 1}}, Total: 15000, Count: 1}, nil
}

type stubOrders struct {
	checkoutErr error
	replayed    bool
	lastKey     string
	lastCreate  ordersvc.CreateInput
	changeErr   error
}

func (s *stubOrders) Create(_ context.Context, userID string, in ordersvc.CreateInput) (*domain.Order, error) {
	s.lastCreate = in
	return &domain.Order{ID: "o1", UserID: userID, ProductID: in.ProductID, Quantity: in.Quantity}, nil
}

func (s *stubOrders) Checkout(_ context.Context, userID string, in ordersvc.CheckoutInput, key string) (*ordersvc.CheckoutResult, error) {
	s.lastKey = key
	if s.checkoutErr != nil {
		return nil, s.checkoutErr
	}
	return &ordersvc.CheckoutResult{
		CheckoutID: "c1",
		Orders:     []domain.Order{{ID: "o1", UserID: userID, AddressID: in.AddressID}},
		Total:      30000,
		Replayed:   s.replayed,
	}, nil
}

func (s *stubOrders) PrepareCardPayment(_ context.Context, userID string) (*payment.Intent, error) {
	if s.checkoutErr != nil {
		return nil, s.checkoutErr
	}
	return &payment.Intent{ID: "pi_" + userID, ClientSecret: "secret", Amount: 30000, Currency: "vnd"}, nil
}

func (s *stubOrders) ListMine(_ context.Context, _ string) ([]domain.Order, error) { return nil, nil }

func (s *stubOrders) Get(_ context.Context, _, _ string) (*domain.Order, error) {
	return nil, domain.ErrNotFound
}

func (s *stubOrders) ListAll(_ context.Context, _ orderrepo.ListFilter) ([]domain.Order, int, error) {
	return []domain.Order{{ID: "o1"}}, 1, nil
}

func (s *stubOrders) ChangeStatus(_ context.Context, orderID, statusID string) (*domain.Order, error) {
	if s.changeErr != nil {
		return nil, s.changeErr
	}
	return &domain.Order{ID: orderID, StatusID: statusID}, nil
}

func (s *stubOrders) Cancel(_ context.Context, _, _ string) (*domain.Order, error) {
	return nil, domain.ErrInvalidTransition
}

func (s *stubOrders) ListStatuses(_ context.Context) ([]domain.StatusOrder, error) { return nil, nil }

func (s *stubOrders) GetStatus(_ context.Context, id string) (*domain.StatusOrder, error) {
	return &domain.StatusOrder{ID: id, Name: "Pending", State: domain.StatePending}, nil
}

func (s *stubOrders) CreateStatus(_ context.Context, name string, state domain.OrderState) (*domain.StatusOrder, error) {
	return &domain.StatusOrder{ID: "s-new", Name: name, State: state}, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, id, name string, state domain.OrderState) (*domain.StatusOrder, error) {
	return &domain.StatusOrder{ID: id, Name: name, State: state}, nil
}

func (s *stubOrders) DeleteStatus(_ context.Context, _ string) error { return nil }

type stubAddresses struct {
	createErr error
}

func (s *stubAddresses) Provinces(_ context.Context) ([]domain.Province, error) {
	return []domain.Province{{Code: "79", Name: "Ho Chi Minh"}}, nil
}

func (s *stubAddresses) Districts(_ context.Context, _ string) ([]domain.District, error) {
	return nil, nil
}

func (s *stubAddresses) Wards(_ context.Context, _ string) ([]domain.Ward, error) { return nil, nil }

func (s *stubAddresses) List(_ context.Context, _ string) ([]domain.Address, error) { return nil, nil }

func (s *stubAddresses) Get(_ context.Context, userID, id string) (*domain.Address, error) {
	return &domain.Address{ID: id, UserID: userID}, nil
}

func (s *stubAddresses) Create(_ context.Context, userID string, in addressrepo.Input) (*domain.Address, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.Address{ID: "a1", UserID: userID, FullName: in.FullName, IsDefault: true}, nil
}

func (s *stubAddresses) Update(_ context.Context, userID, id string, in addressrepo.Input) (*domain.Address, error) {
	return &domain.Address{ID: id, UserID: userID, FullName: in.FullName}, nil
}

func (s *stubAddresses) Delete(_ context.Context, _, _ string) error { return nil }

func (s *stubAddresses) SetDefault(_ context.Context, userID, id string) (*domain.Address, error) {
	return &domain.Address{ID: id, UserID: userID, IsDefault: true}, nil
}

type stubObserver struct {
	routes []string
}

func (s *stubObserver) ObserveHTTP(_, route string, _ int, _ time.Duration) {
	s.routes = append(s.routes, route)
}

func (s *stubObserver) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
}

// testDeps fills every dependency with a default stub.
func testDeps() Deps {
	return Deps{
		Auth:      &stubAuth{},
		Guard:     stubGuard{},
		Catalog:   &stubCatalog{},
		Cart:      &stubCart{},
		Orders:    &stubOrders{},
		Addresses: &stubAddresses{},
	}
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(zap.NewNop(), nil, deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}
