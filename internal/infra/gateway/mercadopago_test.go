package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
)

type sentRequest struct {
	method string
	path   string
	header http.Header
	body   map[string]any
}

// fakeProcessor answers the processor API from canned payments.
type fakeProcessor struct {
	mu       sync.Mutex
	sent     []sentRequest
	existing []map[string]any
	created  map[string]any
}

func (f *fakeProcessor) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sr := sentRequest{method: req.Method, path: req.URL.Path, header: req.Header.Clone()}
	if req.Body != nil {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &sr.body)
		}
	}
	f.sent = append(f.sent, sr)

	switch {
	case req.Method == http.MethodGet && strings.HasSuffix(req.URL.Path, "/search"):
		results := f.existing
		if results == nil {
			results = []map[string]any{}
		}
		return jsonResponse(http.StatusOK, map[string]any{
			"results": results,
			"paging":  map[string]any{"total": len(results), "limit": 30, "offset": 0},
		})
	case req.Method == http.MethodPost:
		return jsonResponse(http.StatusCreated, f.created)
	}
	return jsonResponse(http.StatusNotFound, map[string]any{"message": "not found"})
}

func (f *fakeProcessor) posts() []sentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentRequest
	for _, r := range f.sent {
		if r.method == http.MethodPost {
			out = append(out, r)
		}
	}
	return out
}

func jsonResponse(status int, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}, nil
}

func newTestMercadoPago(t *testing.T, proc *fakeProcessor) *MercadoPago {
	t.Helper()
	logger, _ := test.NewNullLogger()
	g, err := NewMercadoPago("TEST-token", 2, proc, logger)
	require.NoError(t, err)
	return g
}

func TestRequesterSendsCaptureFalseForHolds(t *testing.T) {
	raw, err := json.Marshal(mppayment.Request{
		TransactionAmount: 150,
		Token:             "tok",
		Installments:      1,
		Capture:           false,
	})
	require.NoError(t, err)

	ctx := withCreate(context.Background(), "client-1-hold-v3", true)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.example.com/v1/payments", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set(headerIdempotencyKey, "random-sdk-key")

	proc := &fakeProcessor{created: map[string]any{"id": 1, "status": "authorized"}}
	_, err = (&requester{next: proc}).Do(req)
	require.NoError(t, err)

	posts := proc.posts()
	require.Len(t, posts, 1)
	assert.Equal(t, false, posts[0].body["capture"])
	assert.EqualValues(t, 150, posts[0].body["transaction_amount"])
	assert.Equal(t, "client-1-hold-v3", posts[0].header.Get(headerIdempotencyKey))
}

func TestRequesterLeavesChargesAndReadsAlone(t *testing.T) {
	proc := &fakeProcessor{created: map[string]any{"id": 1, "status": "approved"}}
	r := &requester{next: proc}

	ctx := withCreate(context.Background(), "h-retry-1", false)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.example.com/v1/payments",
		strings.NewReader(`{"transaction_amount":150,"capture":true}`))
	require.NoError(t, err)
	_, err = r.Do(req)
	require.NoError(t, err)

	req, err = http.NewRequestWithContext(context.Background(), http.MethodPost, "https://api.example.com/v1/payments",
		strings.NewReader(`{"transaction_amount":150}`))
	require.NoError(t, err)
	req.Header.Set(headerIdempotencyKey, "sdk-key")
	_, err = r.Do(req)
	require.NoError(t, err)

	posts := proc.posts()
	require.Len(t, posts, 2)
	assert.Equal(t, true, posts[0].body["capture"])
	assert.Equal(t, "h-retry-1", posts[0].header.Get(headerIdempotencyKey))
	assert.NotContains(t, posts[1].body, "capture")
	assert.Equal(t, "sdk-key", posts[1].header.Get(headerIdempotencyKey))
}

func TestMercadoPagoAuthorizeHoldsWithoutCapture(t *testing.T) {
	proc := &fakeProcessor{created: map[string]any{"id": 987, "status": "authorized"}}
	g := newTestMercadoPago(t, proc)

	holdID, err := g.Authorize(context.Background(), payment.AuthorizeRequest{
		ClientID:         4,
		AmountMinorUnits: 15000,
		PaymentMethodRef: "tok_visa",
		IdempotencyKey:   "client-4-hold-v3",
	})
	require.NoError(t, err)
	assert.Equal(t, "987", holdID)

	posts := proc.posts()
	require.Len(t, posts, 1)
	assert.Equal(t, false, posts[0].body["capture"])
	assert.Equal(t, "client-4-hold-v3", posts[0].body["external_reference"])
	assert.Equal(t, "client-4-hold-v3", posts[0].header.Get(headerIdempotencyKey))
}

func TestMercadoPagoAuthorizeReusesEarlierAttempt(t *testing.T) {
	proc := &fakeProcessor{existing: []map[string]any{
		{"id": 55, "status": "cancelled", "external_reference": "client-4-hold-v3"},
		{"id": 56, "status": "authorized", "external_reference": "client-4-hold-v3"},
	}}
	g := newTestMercadoPago(t, proc)

	holdID, err := g.Authorize(context.Background(), payment.AuthorizeRequest{
		ClientID:         4,
		AmountMinorUnits: 15000,
		PaymentMethodRef: "tok_visa",
		IdempotencyKey:   "client-4-hold-v3",
	})
	require.NoError(t, err)
	assert.Equal(t, "56", holdID)
	assert.Empty(t, proc.posts())
}

func TestMercadoPagoAuthorizeRefusesImmediateCapture(t *testing.T) {
	proc := &fakeProcessor{created: map[string]any{"id": 70, "status": "approved"}}
	g := newTestMercadoPago(t, proc)

	_, err := g.Authorize(context.Background(), payment.AuthorizeRequest{
		ClientID:         4,
		AmountMinorUnits: 15000,
		PaymentMethodRef: "tok_visa",
		IdempotencyKey:   "client-4-hold-v3",
	})
	require.Error(t, err)
	assert.ErrorIs(t, payment.Classify(err), payment.ErrGatewayTimeout)
}

func TestMercadoPagoChargeReconcilesByReference(t *testing.T) {
	proc := &fakeProcessor{existing: []map[string]any{
		{"id": 801, "status": "approved", "external_reference": "987-retry-2"},
	}}
	g := newTestMercadoPago(t, proc)

	chargeID, err := g.Charge(context.Background(), payment.ChargeRequest{
		ClientID:         4,
		AmountMinorUnits: 15000,
		PaymentMethodRef: "tok_visa",
		IdempotencyKey:   "987-retry-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "801", chargeID)
	assert.Empty(t, proc.posts())
}

func TestMercadoPagoChargeDeclined(t *testing.T) {
	proc := &fakeProcessor{created: map[string]any{"id": 802, "status": "rejected", "status_detail": "cc_rejected_insufficient_amount"}}
	g := newTestMercadoPago(t, proc)

	_, err := g.Charge(context.Background(), payment.ChargeRequest{
		ClientID:         4,
		AmountMinorUnits: 15000,
		PaymentMethodRef: "tok_visa",
		IdempotencyKey:   "987-retry-1",
	})
	assert.ErrorIs(t, err, payment.ErrGatewayDeclined)

	posts := proc.posts()
	require.Len(t, posts, 1)
	assert.Equal(t, "987-retry-1", posts[0].header.Get(headerIdempotencyKey))
}

func TestMercadoPagoAmount(t *testing.T) {
	g := &MercadoPago{exponent: 2, logger: logrus.New()}
	assert.Equal(t, 123.45, g.amount(12345))
	assert.Equal(t, 0.01, g.amount(1))

	g.exponent = 0
	assert.Equal(t, 500.0, g.amount(500))
}
