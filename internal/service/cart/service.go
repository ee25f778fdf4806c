package cart

import (
	"context"
	"errors"
	"strings"

	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/logging"

	"go.uber.org/zap"
)

type cartRepo interface {
	Add(ctx context.Context, userID, productID string) (*domain.CartLine, bool, error)
	Increment(ctx context.Context, userID, productID string) (*domain.CartLine, error)
	Decrement(ctx context.Context, userID, productID string) (*domain.CartLine, error)
	Delete(ctx context.Context, userID, productID string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error)
}

type recorder interface {
	CartMutation(op, result string)
}

type Service struct {
	repo    cartRepo
	metrics recorder
	logger  *zap.Logger
}

func New(repo cartRepo, metrics recorder, logger *zap.Logger) *Service {
	return &Service{repo: repo, metrics: metrics, logger: logging.OrNop(logger)}
}

// View is the caller's cart with its total in VND.
type View struct {
	Lines []domain.CartLine `json:"lines"`
	Total int64             `json:"total"`
	Count int               `json:"count"`
}

// Add puts one unit of the product in the cart, creating the line when
// needed. created reports whether a new line was inserted.
func (s *Service) Add(ctx context.Context, userID, productID string) (line *domain.CartLine, created bool, err error) {
	if err := requireIDs(userID, productID); err != nil {
		return nil, false, err
	}
	line, created, err = s.repo.Add(ctx, userID, productID)
	s.record("add", err)
	return line, created, err
}

func (s *Service) Increment(ctx context.Context, userID, productID string) (*domain.CartLine, error) {
	if err := requireIDs(userID, productID); err != nil {
		return nil, err
	}
	line, err := s.repo.Increment(ctx, userID, productID)
	s.record("increment", err)
	return line, err
}

// Decrement removes one unit; the returned line is nil once the last
// unit is gone.
func (s *Service) Decrement(ctx context.Context, userID, productID string) (*domain.CartLine, error) {
	if err := requireIDs(userID, productID); err != nil {
		return nil, err
	}
	line, err := s.repo.Decrement(ctx, userID, productID)
	s.record("decrement", err)
	return line, err
}

func (s *Service) Delete(ctx context.Context, userID, productID string) error {
	if err := requireIDs(userID, productID); err != nil {
		return err
	}
	err := s.repo.Delete(ctx, userID, productID)
	s.record("delete", err)
	return err
}

func (s *Service) DeleteAll(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrUnauthorized
	}
	n, err := s.repo.DeleteAll(ctx, userID)
	s.record("delete_all", err)
	return n, err
}

func (s *Service) List(ctx context.Context, userID string) (*View, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	v := &View{Lines: lines}
	for _, l := range lines {
		v.Total += l.Subtotal()
		v.Count += l.Quantity
	}
	return v, nil
}

func (s *Service) record(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		result = "not_found"
	case errors.Is(err, domain.ErrOutOfStock):
		result = "out_of_stock"
	case errors.Is(err, domain.ErrNotForSale):
		result = "not_for_sale"
	case errors.Is(err, domain.ErrStockExceeded):
		result = "stock_exceeded"
	default:
		result = "error"
		s.logger.Error("cart: mutation failed", zap.String("op", op), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.CartMutation(op, result)
	}
}

func requireIDs(userID, productID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	if strings.TrimSpace(productID) == "" {
		return domain.Invalidf("productId", "required")
	}
	return nil
}
