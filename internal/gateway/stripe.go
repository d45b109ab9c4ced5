package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeGateway talks to Stripe payment intents. Amounts are converted to
// the processor's minor unit at this boundary only; everything upstream
// stays in decimal currency units.
type StripeGateway struct {
	api      *client.API
	currency string
	breaker  *gobreaker.CircuitBreaker[*stripe.PaymentIntent]
}

func NewStripeGateway(apiKey, currency string) *StripeGateway {
	api := &client.API{}
	api.Init(apiKey, nil)

	breaker := gobreaker.NewCircuitBreaker[*stripe.PaymentIntent](gobreaker.Settings{
		Name: "stripe",
	})

	return &StripeGateway{
		api:      api,
		currency: strings.ToLower(currency), // Stripe wants lowercase ISO codes
		breaker:  breaker,
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount float64, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: metadata,
		},
		Amount:   stripe.Int64(toMinorUnits(amount)),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}

	pi, err := g.breaker.Execute(func() (*stripe.PaymentIntent, error) {
		return g.api.PaymentIntents.New(params)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create intent: %v", ErrGateway, err)
	}

	return fromStripeIntent(pi), nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	}

	pi, err := g.breaker.Execute(func() (*stripe.PaymentIntent, error) {
		return g.api.PaymentIntents.Get(intentID, params)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve intent %s: %v", ErrGateway, intentID, err)
	}

	return fromStripeIntent(pi), nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}
}

// toMinorUnits converts a decimal currency amount to the processor's minor
// unit (x100, rounded).
func toMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
