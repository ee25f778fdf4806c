// Package order places orders from the cart, verifies payments and
// drives the order status lifecycle.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/idempotency"
	"pharmacy-store/internal/logging"
	"pharmacy-store/internal/payment"
	orderrepo "pharmacy-store/internal/repository/order"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type orderRepo interface {
	Place(ctx context.Context, in orderrepo.PlaceInput) ([]domain.Order, error)
	Quote(ctx context.Context, userID string, items []orderrepo.Item, fromCart bool) (int64, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListByCheckout(ctx context.Context, checkoutID string) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context, f orderrepo.ListFilter) ([]domain.Order, int, error)
	ChangeStatus(ctx context.Context, c orderrepo.StatusChange) (*domain.Order, error)
}

type statusRepo interface {
	List(ctx context.Context) ([]domain.StatusOrder, error)
	Get(ctx context.Context, id string) (*domain.StatusOrder, error)
	FirstForState(ctx context.Context, state domain.OrderState) (*domain.StatusOrder, error)
	Create(ctx context.Context, name string, state domain.OrderState) (*domain.StatusOrder, error)
	Update(ctx context.Context, id, name string, state domain.OrderState) (*domain.StatusOrder, error)
	Delete(ctx context.Context, id string) error
}

type addressReader interface {
	Get(ctx context.Context, userID, id string) (*domain.Address, error)
}

type intentCreator interface {
	CreateIntent(ctx context.Context, userID string, amount int64) (*payment.Intent, error)
}

type recorder interface {
	OrdersPlaced(source string, n int)
}

type Deps struct {
	Orders    orderRepo
	Statuses  statusRepo
	Addresses addressReader
	Payments  payment.Verifier
	// Intents is optional; without it card payments cannot be prepared.
	Intents intentCreator
	// Idempotency is optional; without it retried checkouts are not
	// deduplicated.
	Idempotency idempotency.Store
	Metrics     recorder
	Logger      *zap.Logger
}

type Service struct {
	orders    orderRepo
	statuses  statusRepo
	addresses addressReader
	payments  payment.Verifier
	intents   intentCreator
	idem      idempotency.Store
	metrics   recorder
	logger    *zap.Logger
	newID     func() string
}

// idemTimeout bounds bookkeeping calls that outlive the request context.
const idemTimeout = 5 * time.Second

func New(d Deps) *Service {
	return &Service{
		orders:    d.Orders,
		statuses:  d.Statuses,
		addresses: d.Addresses,
		payments:  d.Payments,
		intents:   d.Intents,
		idem:      d.Idempotency,
		metrics:   d.Metrics,
		logger:    logging.OrNop(d.Logger),
		newID:     uuid.NewString,
	}
}

// CreateInput orders one product. StatusID is optional and must name a
// status bound to the initial state of the order.
type CreateInput struct {
	ProductID string
	Quantity  int
	AddressID string
	Payment   domain.PaymentInfo
	StatusID  string
}

type CheckoutInput struct {
	AddressID string
	Payment   domain.PaymentInfo
}

// CheckoutResult groups the orders created by one checkout.
type CheckoutResult struct {
	CheckoutID string         `json:"checkoutId"`
	Orders     []domain.Order `json:"orders"`
	Total      int64          `json:"total"`
	IsPaid     bool           `json:"isPaid"`
	// Replayed is true when the result was returned for a repeated
	// idempotency key.
	Replayed bool `json:"replayed"`
}

// Create places a single-product order and removes the ordered quantity
// from the caller's cart line.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, domain.Invalidf("productId", "required")
	}
	if in.Quantity <= 0 {
		return nil, domain.Invalidf("quantity", "must be positive")
	}
	items := []orderrepo.Item{{ProductID: in.ProductID, Quantity: in.Quantity}}
	res, err := s.place(ctx, userID, in.AddressID, in.Payment, in.StatusID, items, false)
	if err != nil {
		return nil, err
	}
	return &res.Orders[0], nil
}

// Checkout converts the whole cart into orders sharing one checkout id.
// A non-empty idempotency key makes retries return the first result.
func (s *Service) Checkout(ctx context.Context, userID string, in CheckoutInput, idemKey string) (*CheckoutResult, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	idemKey = strings.TrimSpace(idemKey)
	if s.idem == nil || idemKey == "" {
		return s.place(ctx, userID, in.AddressID, in.Payment, "", nil, true)
	}

	key := userID + ":" + idemKey
	checkoutID, reserved, err := s.idem.Reserve(ctx, key)
	if err != nil {
		return nil, err
	}
	if !reserved {
		orders, err := s.orders.ListByCheckout(ctx, checkoutID)
		if err != nil {
			return nil, err
		}
		res := summarize(checkoutID, orders)
		res.Replayed = true
		return res, nil
	}

	res, err := s.place(ctx, userID, in.AddressID, in.Payment, "", nil, true)

	// Settle the key even when the client has already disconnected.
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), idemTimeout)
	defer cancel()
	if err != nil {
		if relErr := s.idem.Release(bctx, key); relErr != nil {
			s.logger.Warn("order: release idempotency key", zap.String("key", idemKey), zap.Error(relErr))
		}
		return nil, err
	}
	if err := s.idem.Complete(bctx, key, res.CheckoutID); err != nil {
		s.logger.Warn("order: record idempotency key", zap.String("key", idemKey), zap.Error(err))
	}
	return res, nil
}

// PrepareCardPayment opens a provider payment for the caller's current
// cart total. The returned intent id is later sent back with checkout.
func (s *Service) PrepareCardPayment(ctx context.Context, userID string) (*payment.Intent, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if s.intents == nil {
		return nil, fmt.Errorf("%w: card payments are not configured", domain.ErrPaymentNotVerified)
	}
	total, err := s.orders.Quote(ctx, userID, nil, true)
	if err != nil {
		return nil, err
	}
	return s.intents.CreateIntent(ctx, userID, total)
}

func (s *Service) place(ctx context.Context, userID, addressID string, info domain.PaymentInfo, statusID string, items []orderrepo.Item, fromCart bool) (*CheckoutResult, error) {
	if strings.TrimSpace(addressID) == "" {
		return nil, domain.Invalidf("addressId", "required")
	}
	addr, err := s.addresses.Get(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	total, err := s.orders.Quote(ctx, userID, items, fromCart)
	if err != nil {
		return nil, err
	}
	verified, err := s.payments.Verify(ctx, userID, info, total)
	if err != nil {
		s.logger.Warn("order: payment rejected", zap.String("user_id", userID), zap.String("source", info.Source), zap.Error(err))
		return nil, err
	}

	state := domain.StatePending
	if verified.Paid {
		state = domain.StatePaid
	}
	status, err := s.initialStatus(ctx, statusID, state)
	if err != nil {
		return nil, err
	}

	in := orderrepo.PlaceInput{
		CheckoutID:      s.newID(),
		UserID:          userID,
		AddressID:       addr.ID,
		ShippingAddress: addr.Format(),
		Payment:         verified.Payment,
		IsPaid:          verified.Paid,
		StatusID:        status.ID,
		Items:           items,
		FromCart:        fromCart,
	}
	if verified.Paid {
		in.ExpectedTotal = total
	}
	orders, err := s.orders.Place(ctx, in)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.OrdersPlaced(verified.Payment.Source, len(orders))
	}
	return summarize(in.CheckoutID, orders), nil
}

// initialStatus resolves the status a new order starts in. An explicit
// status must be bound to state.
func (s *Service) initialStatus(ctx context.Context, statusID string, state domain.OrderState) (*domain.StatusOrder, error) {
	if statusID == "" {
		st, err := s.statuses.FirstForState(ctx, state)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalidf("statusId", "no order status is bound to state %s", state)
		}
		return st, err
	}
	st, err := s.statuses.Get(ctx, statusID)
	if err != nil {
		return nil, err
	}
	if st.State != state {
		return nil, domain.Invalidf("statusId", "new orders start in state %s, not %s", state, st.State)
	}
	return st, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.orders.ListByUser(ctx, userID)
}

// Get returns the caller's order; orders of other users are reported as
// not found.
func (s *Service) Get(ctx context.Context, userID, id string) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *Service) ListAll(ctx context.Context, f orderrepo.ListFilter) ([]domain.Order, int, error) {
	return s.orders.ListAll(ctx, f)
}

// ChangeStatus is the admin transition; the state machine is enforced by
// the repository in the same transaction as any restock.
func (s *Service) ChangeStatus(ctx context.Context, orderID, statusID string) (*domain.Order, error) {
	if strings.TrimSpace(statusID) == "" {
		return nil, domain.Invalidf("statusId", "required")
	}
	o, err := s.orders.ChangeStatus(ctx, orderrepo.StatusChange{OrderID: orderID, StatusID: statusID})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order: status changed", zap.String("order_id", orderID), zap.String("status_id", o.StatusID))
	return o, nil
}

// Cancel lets the owner cancel an order that is still pending.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	cancelled, err := s.statuses.FirstForState(ctx, domain.StateCancelled)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidTransition
		}
		return nil, err
	}
	return s.orders.ChangeStatus(ctx, orderrepo.StatusChange{
		OrderID:  orderID,
		StatusID: cancelled.ID,
		OwnerID:  userID,
		From:     []domain.OrderState{domain.StatePending},
	})
}

func (s *Service) ListStatuses(ctx context.Context) ([]domain.StatusOrder, error) {
	return s.statuses.List(ctx)
}

func (s *Service) GetStatus(ctx context.Context, id string) (*domain.StatusOrder, error) {
	return s.statuses.Get(ctx, id)
}

func (s *Service) CreateStatus(ctx context.Context, name string, state domain.OrderState) (*domain.StatusOrder, error) {
	name, err := validateStatus(name, state)
	if err != nil {
		return nil, err
	}
	return s.statuses.Create(ctx, name, state)
}

func (s *Service) UpdateStatus(ctx context.Context, id, name string, state domain.OrderState) (*domain.StatusOrder, error) {
	name, err := validateStatus(name, state)
	if err != nil {
		return nil, err
	}
	return s.statuses.Update(ctx, id, name, state)
}

func (s *Service) DeleteStatus(ctx context.Context, id string) error {
	return s.statuses.Delete(ctx, id)
}

func validateStatus(name string, state domain.OrderState) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.Invalidf("name", "required")
	}
	if !state.Valid() {
		return "", domain.Invalidf("state", "unknown order state %q", state)
	}
	return name, nil
}

func summarize(checkoutID string, orders []domain.Order) *CheckoutResult {
	res := &CheckoutResult{CheckoutID: checkoutID, Orders: orders}
	for _, o := range orders {
		res.Total += o.Total()
		res.IsPaid = o.IsPaid
	}
	return res
}
