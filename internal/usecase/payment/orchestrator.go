// Package payment drives the payment hold lifecycle: authorization,
// cancellation period, capture, release and retry charges. Every decision
// is made against a freshly loaded client and persisted through the
// versioned save, so scheduler runs and staff actions never double act.
package payment

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/client-portal/internal/clock"
	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/document"
	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
	"github.com/BruksfildServices01/client-portal/internal/usecase/announce"
)

type Config struct {
	CancellationPeriodBusinessDays int
	HoldExpiry                     time.Duration
	MaxRetryCharges                int
	GatewayTimeout                 time.Duration
	RequiredDocuments              []string
}

func DefaultConfig() Config {
	return Config{
		CancellationPeriodBusinessDays: 3,
		HoldExpiry:                     7 * 24 * time.Hour,
		MaxRetryCharges:                3,
		GatewayTimeout:                 10 * time.Second,
		RequiredDocuments:              []string{"government_id", "proof_of_address", "credit_report"},
	}
}

type Orchestrator struct {
	repo     domain.Repository
	gateway  payment.Gateway
	docs     document.Store
	announce *announce.Announcer
	clock    clock.Clock
	cfg      Config
	logger   logrus.FieldLogger
}

func NewOrchestrator(
	repo domain.Repository,
	gateway payment.Gateway,
	docs document.Store,
	announcer *announce.Announcer,
	clk clock.Clock,
	cfg Config,
	logger logrus.FieldLogger,
) *Orchestrator {
	return &Orchestrator{
		repo:     repo,
		gateway:  gateway,
		docs:     docs,
		announce: announcer,
		clock:    clk,
		cfg:      cfg,
		logger:   logger.WithField("component", "payment_orchestrator"),
	}
}

// gatewayCtx bounds a single gateway call. An expired deadline surfaces as
// ErrGatewayTimeout through payment.Classify.
func (o *Orchestrator) gatewayCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.cfg.GatewayTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.cfg.GatewayTimeout)
}

func (o *Orchestrator) now() time.Time {
	return o.clock.Now()
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
