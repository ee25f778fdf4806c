package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/logging"
	"pharmacy-store/internal/payment"
	addressrepo "pharmacy-store/internal/repository/address"
	orderrepo "pharmacy-store/internal/repository/order"
	productrepo "pharmacy-store/internal/repository/product"
	authsvc "pharmacy-store/internal/service/auth"
	cartsvc "pharmacy-store/internal/service/cart"
	ordersvc "pharmacy-store/internal/service/order"
)

type authService interface {
	Signup(ctx context.Context, in authsvc.SignupInput) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Login(ctx context.Context, email, password string) (*authsvc.Session, error)
	Logout(ctx context.Context, token string) error
	LookupByToken(ctx context.Context, token string) (*domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	AccessTTLSeconds() int
}

type adminGuard interface {
	RequireAdmin(ctx context.Context, userID string) (*domain.User, error)
}

type catalogService interface {
	ListLookups(ctx context.Context, kind domain.LookupKind) ([]domain.Lookup, error)
	GetLookup(ctx context.Context, kind domain.LookupKind, id string) (*domain.Lookup, error)
	CreateLookup(ctx context.Context, kind domain.LookupKind, key, name string) (*domain.Lookup, error)
	UpdateLookup(ctx context.Context, kind domain.LookupKind, id, key, name string) (*domain.Lookup, error)
	DeleteLookup(ctx context.Context, kind domain.LookupKind, id string) error
	ListProducts(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, int, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, in productrepo.Input) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, in productrepo.Input) (*domain.Product, error)
	SetStock(ctx context.Context, id string, quantity int) (*domain.Product, error)
}

type cartService interface {
	Add(ctx context.Context, userID, productID string) (*domain.CartLine, bool, error)
	Increment(ctx context.Context, userID, productID string) (*domain.CartLine, error)
	Decrement(ctx context.Context, userID, productID string) (*domain.CartLine, error)
	Delete(ctx context.Context, userID, productID string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	List(ctx context.Context, userID string) (*cartsvc.View, error)
}

type orderService interface {
	Create(ctx context.Context, userID string, in ordersvc.CreateInput) (*domain.Order, error)
	Checkout(ctx context.Context, userID string, in ordersvc.CheckoutInput, idemKey string) (*ordersvc.CheckoutResult, error)
	PrepareCardPayment(ctx context.Context, userID string) (*payment.Intent, error)
	ListMine(ctx context.Context, userID string) ([]domain.Order, error)
	Get(ctx context.Context, userID, id string) (*domain.Order, error)
	ListAll(ctx context.Context, f orderrepo.ListFilter) ([]domain.Order, int, error)
	ChangeStatus(ctx context.Context, orderID, statusID string) (*domain.Order, error)
	Cancel(ctx context.Context, userID, orderID string) (*domain.Order, error)
	ListStatuses(ctx context.Context) ([]domain.StatusOrder, error)
	GetStatus(ctx context.Context, id string) (*domain.StatusOrder, error)
	CreateStatus(ctx context.Context, name string, state domain.OrderState) (*domain.StatusOrder, error)
	UpdateStatus(ctx context.Context, id, name string, state domain.OrderState) (*domain.StatusOrder, error)
	DeleteStatus(ctx context.Context, id string) error
}

type addressService interface {
	Provinces(ctx context.Context) ([]domain.Province, error)
	Districts(ctx context.Context, provinceCode string) ([]domain.District, error)
	Wards(ctx context.Context, districtCode string) ([]domain.Ward, error)
	List(ctx context.Context, userID string) ([]domain.Address, error)
	Get(ctx context.Context, userID, id string) (*domain.Address, error)
	Create(ctx context.Context, userID string, in addressrepo.Input) (*domain.Address, error)
	Update(ctx context.Context, userID, id string, in addressrepo.Input) (*domain.Address, error)
	Delete(ctx context.Context, userID, id string) error
	SetDefault(ctx context.Context, userID, id string) (*domain.Address, error)
}

type httpObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
	Handler() http.Handler
}

// Deps groups the services mounted on the router. Metrics is optional.
type Deps struct {
	Auth        authService
	Guard       adminGuard
	Catalog     catalogService
	Cart        cartService
	Orders      orderService
	Addresses   addressService
	Metrics     httpObserver
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.Auth == nil:
		return errors.New("httpserver: auth service required")
	case d.Guard == nil:
		return errors.New("httpserver: admin guard required")
	case d.Catalog == nil:
		return errors.New("httpserver: catalog service required")
	case d.Cart == nil:
		return errors.New("httpserver: cart service required")
	case d.Orders == nil:
		return errors.New("httpserver: order service required")
	case d.Addresses == nil:
		return errors.New("httpserver: address service required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	logger = logging.OrNop(logger)
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestID(), requestLogger(logger), gin.Recovery())
	if deps.Metrics != nil {
		router.Use(observeRequests(deps.Metrics))
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{"Authorization", "Content-Type", "Idempotency-Key", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps}

	authGroup := router.Group("/auth")
	authGroup.POST("/signup", h.signup)
	authGroup.POST("/login", h.login)
	authGroup.POST("/verify", h.verifyEmail)
	authGroup.POST("/password/forgot", h.forgotPassword)
	authGroup.POST("/password/reset", h.resetPassword)

	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)
	router.GET("/statuses", h.listStatuses)
	router.GET("/statuses/:id", h.getStatus)
	router.GET("/locations/provinces", h.provinces)
	router.GET("/locations/provinces/:code/districts", h.districts)
	router.GET("/locations/districts/:code/wards", h.wards)

	session := router.Group("", requireSession(deps.Auth))
	session.GET("/me", h.me)
	session.POST("/auth/logout", h.logout)

	session.GET("/cart", h.getCart)
	session.DELETE("/cart", h.clearCart)
	session.POST("/cart/:productId", h.addToCart)
	session.PATCH("/cart/:productId/increment", h.incrementCart)
	session.PATCH("/cart/:productId/decrement", h.decrementCart)
	session.DELETE("/cart/:productId", h.removeFromCart)

	session.GET("/addresses", h.listAddresses)
	session.POST("/addresses", h.createAddress)
	session.GET("/addresses/:id", h.getAddress)
	session.PUT("/addresses/:id", h.updateAddress)
	session.DELETE("/addresses/:id", h.deleteAddress)
	session.POST("/addresses/:id/default", h.setDefaultAddress)

	session.POST("/orders", h.createOrder)
	session.POST("/checkout", h.checkout)
	session.POST("/checkout/payment-intent", h.preparePayment)
	session.GET("/orders", h.listMyOrders)
	session.GET("/orders/:id", h.getOrder)
	session.POST("/orders/:id/cancel", h.cancelOrder)

	admin := session.Group("/admin", requireAdmin(deps.Guard))
	admin.POST("/statuses", h.createStatus)
	admin.PUT("/statuses/:id", h.updateStatus)
	admin.DELETE("/statuses/:id", h.deleteStatus)
	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.PATCH("/products/:id/stock", h.setStock)
	admin.GET("/orders", h.listAllOrders)
	admin.PATCH("/orders/:id/status", h.changeOrderStatus)

	for _, kind := range []domain.LookupKind{domain.KindCategory, domain.KindUnit, domain.KindTrademark} {
		base := "/" + string(kind)
		router.GET(base, h.listLookups(kind))
		router.GET(base+"/:id", h.getLookup(kind))
		admin.POST(base, h.createLookup(kind))
		admin.PUT(base+"/:id", h.updateLookup(kind))
		admin.DELETE(base+"/:id", h.deleteLookup(kind))
	}

	return router, nil
}

type handlers struct {
	deps Deps
}
