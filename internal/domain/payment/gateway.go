package payment

import (
	"context"
	"errors"
	"fmt"
)

type AuthorizeRequest struct {
	ClientID         uint
	AmountMinorUnits int64
	PaymentMethodRef string
	PayerEmail       string
	IdempotencyKey   string
}

type ChargeRequest struct {
	ClientID         uint
	AmountMinorUnits int64
	PaymentMethodRef string
	PayerEmail       string
	IdempotencyKey   string
}

// Gateway is the payment processor. Capture and Release must be idempotent
// per hold id. A decline is reported as ErrGatewayDeclined; any other error
// is an unknown outcome.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (holdID string, err error)
	Capture(ctx context.Context, holdID string) error
	Release(ctx context.Context, holdID string) error
	Charge(ctx context.Context, req ChargeRequest) (chargeID string, err error)
}

// Classify folds a gateway error into the outcome taxonomy: nil, a decline,
// or ErrGatewayTimeout for everything whose result is unknown.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrGatewayDeclined), errors.Is(err, ErrGatewayTimeout):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrGatewayTimeout, err)
	}
}
