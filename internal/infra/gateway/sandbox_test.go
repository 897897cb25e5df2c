package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
)

func authorize(t *testing.T, s *Sandbox) string {
	t.Helper()
	id, err := s.Authorize(context.Background(), payment.AuthorizeRequest{
		ClientID:         1,
		AmountMinorUnits: 50000,
		PaymentMethodRef: "pm_test",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func TestSandboxCaptureIsIdempotent(t *testing.T) {
	s := NewSandbox()
	id := authorize(t, s)

	require.NoError(t, s.Capture(context.Background(), id))
	require.NoError(t, s.Capture(context.Background(), id))

	assert.Equal(t, payment.HoldCaptured, s.HoldStatus(id))
	assert.Equal(t, 2, s.CaptureCalls())
}

func TestSandboxQueuedDeclineFailsHold(t *testing.T) {
	s := NewSandbox()
	id := authorize(t, s)
	s.QueueCapture(payment.ErrGatewayDeclined)

	err := s.Capture(context.Background(), id)
	assert.ErrorIs(t, err, payment.ErrGatewayDeclined)
	assert.Equal(t, payment.HoldFailed, s.HoldStatus(id))

	err = s.Capture(context.Background(), id)
	assert.ErrorIs(t, err, payment.ErrGatewayDeclined)
}

func TestSandboxQueuedTimeoutKeepsHoldAuthorized(t *testing.T) {
	s := NewSandbox()
	id := authorize(t, s)
	s.QueueCapture(errors.New("connection reset"))

	err := s.Capture(context.Background(), id)
	require.Error(t, err)
	assert.ErrorIs(t, payment.Classify(err), payment.ErrGatewayTimeout)
	assert.Equal(t, payment.HoldAuthorized, s.HoldStatus(id))

	require.NoError(t, s.Capture(context.Background(), id))
	assert.Equal(t, payment.HoldCaptured, s.HoldStatus(id))
}

func TestSandboxReleaseIsIdempotent(t *testing.T) {
	s := NewSandbox()
	id := authorize(t, s)

	require.NoError(t, s.Release(context.Background(), id))
	require.NoError(t, s.Release(context.Background(), id))
	assert.Equal(t, payment.HoldReleased, s.HoldStatus(id))

	assert.ErrorIs(t, s.Capture(context.Background(), id), payment.ErrGatewayDeclined)
}

func TestSandboxReleaseAfterCaptureFails(t *testing.T) {
	s := NewSandbox()
	id := authorize(t, s)
	require.NoError(t, s.Capture(context.Background(), id))

	assert.Error(t, s.Release(context.Background(), id))
	assert.Equal(t, payment.HoldCaptured, s.HoldStatus(id))
}

func TestSandboxRejectsNonPositiveAmount(t *testing.T) {
	s := NewSandbox()
	_, err := s.Authorize(context.Background(), payment.AuthorizeRequest{ClientID: 1})
	assert.ErrorIs(t, err, payment.ErrGatewayDeclined)
}

func TestSandboxChargeDedupesByKey(t *testing.T) {
	s := NewSandbox()
	req := payment.ChargeRequest{ClientID: 1, AmountMinorUnits: 100, IdempotencyKey: "hold-retry-1"}

	first, err := s.Charge(context.Background(), req)
	require.NoError(t, err)
	second, err := s.Charge(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	req.IdempotencyKey = "hold-retry-2"
	third, err := s.Charge(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
	assert.Equal(t, 3, s.ChargeCalls())
}

func TestSandboxHonoursCancelledContext(t *testing.T) {
	s := NewSandbox()
	id := authorize(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Capture(ctx, id)
	assert.ErrorIs(t, payment.Classify(err), payment.ErrGatewayTimeout)
	assert.Equal(t, payment.HoldAuthorized, s.HoldStatus(id))
}
