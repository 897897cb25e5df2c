package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
)

// Mercado Pago payment statuses relevant to holds.
const (
	mpStatusAuthorized = "authorized"
	mpStatusApproved   = "approved"
	mpStatusRejected   = "rejected"
	mpStatusCancelled  = "cancelled"
	mpStatusRefunded   = "refunded"
	mpStatusPending    = "pending"
	mpStatusInProcess  = "in_process"
)

// MercadoPago implements payment.Gateway with delayed capture: Authorize
// creates a payment with capture disabled, Capture captures it and Release
// cancels it. Creates carry the caller's idempotency key both as the
// processor idempotency header and as external_reference, and a prior
// payment with the same reference is reused instead of created again.
type MercadoPago struct {
	client   mppayment.Client
	exponent int32
	logger   logrus.FieldLogger
}

// NewMercadoPago builds the adapter. httpClient defaults to
// http.DefaultClient.
func NewMercadoPago(
	accessToken string,
	minorExponent int32,
	httpClient Doer,
	logger logrus.FieldLogger,
) (*MercadoPago, error) {

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	cfg, err := config.New(accessToken, config.WithHTTPClient(&requester{next: httpClient}))
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return &MercadoPago{
		client:   mppayment.NewClient(cfg),
		exponent: minorExponent,
		logger:   logger.WithField("gateway", "mercadopago"),
	}, nil
}

// amount converts minor units to the processor's decimal amount. The float
// only exists on the wire.
func (g *MercadoPago) amount(minor int64) float64 {
	return decimal.New(minor, -g.exponent).InexactFloat64()
}

// previous finds a payment created earlier with the same reference, so an
// attempt whose outcome was lost is reconciled rather than repeated.
// Cancelled and refunded payments are ignored.
func (g *MercadoPago) previous(ctx context.Context, key string) (*mppayment.Response, error) {
	if key == "" {
		return nil, nil
	}
	res, err := g.client.Search(ctx, mppayment.SearchRequest{
		Filters: map[string]string{"external_reference": key},
	})
	if err != nil {
		return nil, fmt.Errorf("search payments by reference: %w", err)
	}
	for i := range res.Results {
		switch res.Results[i].Status {
		case mpStatusCancelled, mpStatusRefunded:
			continue
		}
		return &res.Results[i], nil
	}
	return nil, nil
}

func (g *MercadoPago) Authorize(ctx context.Context, req payment.AuthorizeRequest) (string, error) {
	log := g.logger.WithFields(logrus.Fields{
		"client_id": req.ClientID,
		"key":       req.IdempotencyKey,
	})

	res, err := g.previous(ctx, req.IdempotencyKey)
	if err != nil {
		return "", err
	}
	if res != nil {
		log.WithField("hold_id", res.ID).Info("reusing earlier authorization attempt")
	} else {
		res, err = g.client.Create(withCreate(ctx, req.IdempotencyKey, true), mppayment.Request{
			TransactionAmount: g.amount(req.AmountMinorUnits),
			Token:             req.PaymentMethodRef,
			Installments:      1,
			Capture:           false,
			ExternalReference: req.IdempotencyKey,
			Description:       fmt.Sprintf("Onboarding hold for client %d", req.ClientID),
			Payer: &mppayment.PayerRequest{
				Email: req.PayerEmail,
			},
		})
		if err != nil {
			return "", err
		}
	}

	switch res.Status {
	case mpStatusAuthorized:
		return strconv.Itoa(res.ID), nil
	case mpStatusRejected:
		return "", fmt.Errorf("%w: %s", payment.ErrGatewayDeclined, res.StatusDetail)
	case mpStatusApproved:
		log.WithField("payment_id", res.ID).Error("processor captured a hold immediately")
		return "", fmt.Errorf("payment %d captured instead of held", res.ID)
	default:
		return "", fmt.Errorf("authorize returned status %q", res.Status)
	}
}

func (g *MercadoPago) Capture(ctx context.Context, holdID string) error {
	id, err := strconv.Atoi(holdID)
	if err != nil {
		return fmt.Errorf("invalid hold id %q: %w", holdID, err)
	}

	// A previous attempt may have reached the processor before timing out.
	current, err := g.client.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == mpStatusApproved && current.Captured {
		g.logger.WithField("hold_id", holdID).Info("hold already captured at processor")
		return nil
	}

	res, err := g.client.Capture(ctx, id)
	if err != nil {
		return err
	}
	switch res.Status {
	case mpStatusApproved:
		return nil
	case mpStatusRejected, mpStatusCancelled:
		return fmt.Errorf("%w: %s", payment.ErrGatewayDeclined, res.StatusDetail)
	default:
		return fmt.Errorf("capture returned status %q", res.Status)
	}
}

func (g *MercadoPago) Release(ctx context.Context, holdID string) error {
	id, err := strconv.Atoi(holdID)
	if err != nil {
		return fmt.Errorf("invalid hold id %q: %w", holdID, err)
	}

	current, err := g.client.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == mpStatusCancelled {
		return nil
	}

	if _, err := g.client.Cancel(ctx, id); err != nil {
		return err
	}
	return nil
}

func (g *MercadoPago) Charge(ctx context.Context, req payment.ChargeRequest) (string, error) {
	res, err := g.previous(ctx, req.IdempotencyKey)
	if err != nil {
		return "", err
	}
	if res != nil {
		g.logger.WithFields(logrus.Fields{
			"client_id":  req.ClientID,
			"key":        req.IdempotencyKey,
			"payment_id": res.ID,
		}).Info("reusing earlier charge attempt")
	} else {
		res, err = g.client.Create(withCreate(ctx, req.IdempotencyKey, false), mppayment.Request{
			TransactionAmount: g.amount(req.AmountMinorUnits),
			Token:             req.PaymentMethodRef,
			Installments:      1,
			Capture:           true,
			ExternalReference: req.IdempotencyKey,
			Description:       fmt.Sprintf("Onboarding charge for client %d", req.ClientID),
			Payer: &mppayment.PayerRequest{
				Email: req.PayerEmail,
			},
		})
		if err != nil {
			return "", err
		}
	}

	switch res.Status {
	case mpStatusApproved:
		return strconv.Itoa(res.ID), nil
	case mpStatusRejected:
		return "", fmt.Errorf("%w: %s", payment.ErrGatewayDeclined, res.StatusDetail)
	case mpStatusPending, mpStatusInProcess:
		return "", fmt.Errorf("charge %d still %s", res.ID, res.Status)
	default:
		return "", fmt.Errorf("charge returned status %q", res.Status)
	}
}

var _ payment.Gateway = (*MercadoPago)(nil)
