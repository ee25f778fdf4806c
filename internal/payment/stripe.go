package payment

import (
	"context"
	"fmt"
	"strings"

	"pharmacy-store/internal/domain"
	"pharmacy-store/internal/logging"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"go.uber.org/zap"
)

const (
	currencyVND = "vnd"
	// metadataUserID ties an intent to the customer it was created for.
	metadataUserID = "user_id"
)

type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Stripe creates and looks up payment intents. A payment counts only
// when the intent was created for the paying user and succeeded in VND
// for at least the order total.
type Stripe struct {
	intents intentAPI
	logger  *zap.Logger
}

func NewStripe(secretKey string, logger *zap.Logger) *Stripe {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Stripe{intents: sc.PaymentIntents, logger: logging.OrNop(logger)}
}

// CreateIntent opens a VND payment intent for userID.
func (s *Stripe) CreateIntent(ctx context.Context, userID string, amount int64) (*Intent, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if amount <= 0 {
		return nil, domain.Invalidf("amount", "must be positive")
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currencyVND),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataUserID, userID)
	pi, err := s.intents.New(params)
	if err != nil {
		s.logger.Error("stripe: create payment intent", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	s.logger.Info("stripe: payment intent created", zap.String("payment_id", pi.ID), zap.String("user_id", userID), zap.Int64("amount", amount))
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Amount: pi.Amount, Currency: string(pi.Currency)}, nil
}

func (s *Stripe) Verify(ctx context.Context, userID string, info domain.PaymentInfo, amount int64) (Result, error) {
	if strings.TrimSpace(info.PaymentID) == "" {
		return Result{}, fmt.Errorf("%w: payment id required", domain.ErrPaymentNotVerified)
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.intents.Get(info.PaymentID, params)
	if err != nil {
		s.logger.Warn("stripe: fetch payment intent", zap.String("payment_id", info.PaymentID), zap.Error(err))
		return Result{}, fmt.Errorf("%w: %v", domain.ErrPaymentNotVerified, err)
	}

	switch {
	case userID == "" || pi.Metadata[metadataUserID] != userID:
		s.logger.Warn("stripe: intent owner mismatch", zap.String("payment_id", pi.ID), zap.String("user_id", userID))
		return Result{}, fmt.Errorf("%w: intent was not created for this customer", domain.ErrPaymentNotVerified)
	case pi.Status != stripe.PaymentIntentStatusSucceeded:
		return Result{}, fmt.Errorf("%w: intent status %s", domain.ErrPaymentNotVerified, pi.Status)
	case !strings.EqualFold(string(pi.Currency), currencyVND):
		return Result{}, fmt.Errorf("%w: currency %s", domain.ErrPaymentNotVerified, pi.Currency)
	case pi.AmountReceived < amount:
		return Result{}, fmt.Errorf("%w: received %d, expected %d", domain.ErrPaymentNotVerified, pi.AmountReceived, amount)
	}

	out := domain.PaymentInfo{
		Source:          domain.PaymentStripe,
		ExternalOrderID: info.ExternalOrderID,
		PaymentID:       pi.ID,
		PayerID:         info.PayerID,
	}
	if pi.Customer != nil && pi.Customer.ID != "" {
		out.PayerID = pi.Customer.ID
	}
	s.logger.Info("stripe: payment verified", zap.String("payment_id", pi.ID), zap.Int64("amount", pi.AmountReceived))
	return Result{Paid: true, Payment: out}, nil
}
