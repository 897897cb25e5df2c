package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
	"github.com/BruksfildServices01/client-portal/internal/dto"
	"github.com/BruksfildServices01/client-portal/internal/httperr"
	"github.com/BruksfildServices01/client-portal/internal/httpresp"
	"github.com/BruksfildServices01/client-portal/internal/middleware"
	paymentuc "github.com/BruksfildServices01/client-portal/internal/usecase/payment"
)

type PaymentHandler struct {
	orch   *paymentuc.Orchestrator
	logger logrus.FieldLogger
}

func NewPaymentHandler(orch *paymentuc.Orchestrator, logger logrus.FieldLogger) *PaymentHandler {
	return &PaymentHandler{orch: orch, logger: logger}
}

type CreateHoldRequest struct {
	AmountMinorUnits int64  `json:"amount_minor_units" binding:"required,gt=0"`
	PaymentMethodRef string `json:"payment_method_ref" binding:"required"`
}

type CaptureRequest struct {
	Override bool `json:"override"`
}

func (h *PaymentHandler) CreateHold(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req CreateHoldRequest
	if !bindJSON(c, &req) {
		return
	}

	cl, err := h.orch.CreateHold(c.Request.Context(), id, paymentuc.CreateHoldInput{
		AmountMinorUnits: req.AmountMinorUnits,
		PaymentMethodRef: req.PaymentMethodRef,
		ActorID:          middleware.ActorID(c),
	})
	if err != nil {
		httperr.FromError(c, err, "hold_failed")
		return
	}
	httpresp.Created(c, dto.Client(cl))
}

func (h *PaymentHandler) CroaSigned(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	cl, err := h.orch.StartCancellationPeriod(c.Request.Context(), id, middleware.ActorID(c))
	if err != nil {
		httperr.FromError(c, err, "croa_failed")
		return
	}
	httpresp.OK(c, dto.Client(cl))
}

func (h *PaymentHandler) Capture(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req CaptureRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	res, err := h.orch.CaptureDue(c.Request.Context(), id, paymentuc.CaptureOptions{
		Override: req.Override,
		ActorID:  middleware.ActorID(c),
	})
	if err != nil {
		httperr.FromError(c, err, "capture_failed")
		return
	}
	httpresp.OK(c, gin.H{
		"outcome": res.Outcome,
		"client":  dto.Client(res.Client),
	})
}

func (h *PaymentHandler) Release(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	cl, err := h.orch.ReleaseHold(c.Request.Context(), id, paymentuc.ReleaseOptions{
		ActorID: middleware.ActorID(c),
		Reason:  "staff",
	})
	if err != nil {
		httperr.FromError(c, err, "release_failed")
		return
	}
	httpresp.OK(c, dto.Client(cl))
}

// RetryCharge runs one retry. When a decline used the last allowed
// attempt, or an earlier request left the attempts used up, the client is
// cancelled in the same request.
func (h *PaymentHandler) RetryCharge(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	actor := middleware.ActorID(c)

	res, err := h.orch.RetryCharge(ctx, id, actor)
	if err != nil && !errors.Is(err, payment.ErrRetryLimitReached) {
		httperr.FromError(c, err, "retry_failed")
		return
	}

	cl := res.Client
	if res.Exhausted {
		if cl, err = h.orch.ExhaustRetries(ctx, id, actor); err != nil {
			h.logger.WithError(err).WithField("client_id", id).Error("exhausting retries failed")
			httperr.FromError(c, err, "retry_exhaust_failed")
			return
		}
	}

	httpresp.OK(c, gin.H{
		"outcome":   res.Outcome,
		"attempts":  res.Attempts,
		"exhausted": res.Exhausted,
		"client":    dto.Client(cl),
	})
}
