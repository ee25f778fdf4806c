package payment

import (
	"context"
	"errors"
	"testing"

	"pharmacy-store/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

type stubIntents struct {
	intent    *stripe.PaymentIntent
	err       error
	gotID     string
	gotParams *stripe.PaymentIntentParams
}

func (s *stubIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	s.gotParams = params
	return s.intent, s.err
}

func (s *stubIntents) Get(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	s.gotID = id
	return s.intent, s.err
}

func newStripe(intents intentAPI) *Stripe {
	return &Stripe{intents: intents, logger: zap.NewNop()}
}

func TestRouter_CODIsUnpaid(t *testing.T) {
	r := NewRouter()
	res, err := r.Verify(context.Background(), "u1", domain.PaymentInfo{Source: "COD", PaymentID: "forged"}, 100)
	require.NoError(t, err)
	assert.False(t, res.Paid)
	assert.Equal(t, domain.PaymentInfo{Source: domain.PaymentCOD}, res.Payment)
}

func TestRouter_UnknownSourceRejected(t *testing.T) {
	r := NewRouter()
	_, err := r.Verify(context.Background(), "u1", domain.PaymentInfo{Source: "paypal"}, 100)
	assert.True(t, errors.Is(err, domain.ErrPaymentNotVerified))
}

func TestStripe_Verify(t *testing.T) {
	succeeded := &stripe.PaymentIntent{
		ID:             "pi_123",
		Status:         stripe.PaymentIntentStatusSucceeded,
		Currency:       stripe.Currency("vnd"),
		AmountReceived: 50000,
		Metadata:       map[string]string{"user_id": "u1"},
	}

	cases := []struct {
		name    string
		intent  *stripe.PaymentIntent
		err     error
		amount  int64
		payID   string
		userID  string
		wantErr bool
	}{
		{name: "succeeded", intent: succeeded, amount: 50000, payID: "pi_123"},
		{name: "other customer", intent: succeeded, amount: 50000, payID: "pi_123", userID: "u2", wantErr: true},
		{
			name:    "no owner metadata",
			intent:  &stripe.PaymentIntent{ID: "pi_123", Status: stripe.PaymentIntentStatusSucceeded, Currency: "vnd", AmountReceived: 50000},
			amount:  50000,
			payID:   "pi_123",
			wantErr: true,
		},
		{name: "missing id", intent: succeeded, amount: 50000, wantErr: true},
		{name: "short amount", intent: succeeded, amount: 60000, payID: "pi_123", wantErr: true},
		{name: "provider error", err: errors.New("boom"), amount: 1, payID: "pi_123", wantErr: true},
		{
			name:    "not captured",
			intent:  &stripe.PaymentIntent{ID: "pi_123", Status: stripe.PaymentIntentStatusRequiresPaymentMethod, Currency: "vnd", AmountReceived: 50000, Metadata: map[string]string{"user_id": "u1"}},
			amount:  50000,
			payID:   "pi_123",
			wantErr: true,
		},
		{
			name:    "wrong currency",
			intent:  &stripe.PaymentIntent{ID: "pi_123", Status: stripe.PaymentIntentStatusSucceeded, Currency: "usd", AmountReceived: 50000, Metadata: map[string]string{"user_id": "u1"}},
			amount:  50000,
			payID:   "pi_123",
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRouter()
			r.Register(domain.PaymentStripe, newStripe(&stubIntents{intent: tc.intent, err: tc.err}))

			userID := tc.userID
			if userID == "" {
				userID = "u1"
			}
			res, err := r.Verify(context.Background(), userID, domain.PaymentInfo{Source: "stripe", PaymentID: tc.payID, ExternalOrderID: "ext-1"}, tc.amount)
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrPaymentNotVerified)
				return
			}
			require.NoError(t, err)
			assert.True(t, res.Paid)
			assert.Equal(t, "pi_123", res.Payment.PaymentID)
			assert.Equal(t, "ext-1", res.Payment.ExternalOrderID)
		})
	}
}

func TestStripe_CreateIntentTagsCustomer(t *testing.T) {
	intents := &stubIntents{intent: &stripe.PaymentIntent{ID: "pi_9", ClientSecret: "pi_9_secret", Amount: 45000, Currency: "vnd"}}
	s := newStripe(intents)

	in, err := s.CreateIntent(context.Background(), "u1", 45000)
	require.NoError(t, err)
	assert.Equal(t, &Intent{ID: "pi_9", ClientSecret: "pi_9_secret", Amount: 45000, Currency: "vnd"}, in)

	require.NotNil(t, intents.gotParams)
	assert.Equal(t, int64(45000), *intents.gotParams.Amount)
	assert.Equal(t, "vnd", *intents.gotParams.Currency)
	assert.Equal(t, "u1", intents.gotParams.Metadata["user_id"])

	_, err = s.CreateIntent(context.Background(), "u1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = s.CreateIntent(context.Background(), "", 100)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
