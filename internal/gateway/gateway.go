// Package gateway wraps the external payment processor behind two
// operations: create intent and retrieve intent. Processor failures surface
// as ErrGateway and are never translated into a business status change.
package gateway

import (
	"context"
	"errors"
)

var ErrGateway = errors.New("payment gateway failure")

// IntentStatusSucceeded is the processor state required to confirm payment.
const IntentStatusSucceeded = "succeeded"

// Intent is the processor's handle for an attempted charge.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

type PaymentGateway interface {
	// CreateIntent opens a charge attempt for an amount in decimal currency
	// units; metadata travels to the processor for later reconciliation.
	CreateIntent(ctx context.Context, amount float64, metadata map[string]string) (*Intent, error)
	// RetrieveIntent re-fetches the intent's settlement state.
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
}
