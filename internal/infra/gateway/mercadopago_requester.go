package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const headerIdempotencyKey = "X-Idempotency-Key"

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type createCtxKey struct{}

type createOptions struct {
	idempotencyKey string
	manualCapture  bool
}

// withCreate marks ctx so the requester pins the idempotency key and, for
// holds, forces capture off in the body. The SDK drops a false capture
// flag and generates its own key per request.
func withCreate(ctx context.Context, key string, manualCapture bool) context.Context {
	return context.WithValue(ctx, createCtxKey{}, createOptions{
		idempotencyKey: key,
		manualCapture:  manualCapture,
	})
}

// requester is handed to the SDK as its HTTP client.
type requester struct {
	next Doer
}

func (r *requester) Do(req *http.Request) (*http.Response, error) {
	opts, ok := req.Context().Value(createCtxKey{}).(createOptions)
	if !ok || req.Method != http.MethodPost {
		return r.next.Do(req)
	}

	if opts.idempotencyKey != "" {
		req.Header.Set(headerIdempotencyKey, opts.idempotencyKey)
	}
	if opts.manualCapture {
		if err := forceManualCapture(req); err != nil {
			return nil, err
		}
	}
	return r.next.Do(req)
}

func forceManualCapture(req *http.Request) error {
	if req.Body == nil {
		return fmt.Errorf("hold request has no body")
	}
	raw, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return fmt.Errorf("read hold request: %w", err)
	}

	body := map[string]any{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return fmt.Errorf("decode hold request: %w", err)
	}
	body["capture"] = false

	out, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode hold request: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(out))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(out)), nil
	}
	req.ContentLength = int64(len(out))
	return nil
}
