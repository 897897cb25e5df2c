package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
)

// Sandbox is an in-process gateway that approves everything unless an
// outcome is queued. It keeps per-hold state so capture and release are
// idempotent like the real processor.
type Sandbox struct {
	mu sync.Mutex

	holds   map[string]payment.HoldStatus
	charges map[string]string

	authorizeErrs []error
	captureErrs   []error
	releaseErrs   []error
	chargeErrs    []error

	captureCalls int
	releaseCalls int
	chargeCalls  int
}

func NewSandbox() *Sandbox {
	return &Sandbox{
		holds:   make(map[string]payment.HoldStatus),
		charges: make(map[string]string),
	}
}

// QueueAuthorize makes the next Authorize return err.
func (s *Sandbox) QueueAuthorize(err error) { s.queue(&s.authorizeErrs, err) }

// QueueCapture makes the next Capture return err.
func (s *Sandbox) QueueCapture(err error) { s.queue(&s.captureErrs, err) }

// QueueRelease makes the next Release return err.
func (s *Sandbox) QueueRelease(err error) { s.queue(&s.releaseErrs, err) }

// QueueCharge makes the next Charge return err.
func (s *Sandbox) QueueCharge(err error) { s.queue(&s.chargeErrs, err) }

func (s *Sandbox) queue(q *[]error, err error) {
	s.mu.Lock()
	*q = append(*q, err)
	s.mu.Unlock()
}

func pop(q *[]error) error {
	if len(*q) == 0 {
		return nil
	}
	err := (*q)[0]
	*q = (*q)[1:]
	return err
}

func (s *Sandbox) Authorize(ctx context.Context, req payment.AuthorizeRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := pop(&s.authorizeErrs); err != nil {
		return "", err
	}
	if req.AmountMinorUnits <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", payment.ErrGatewayDeclined)
	}

	id := "hold_" + uuid.NewString()
	s.holds[id] = payment.HoldAuthorized
	return id, nil
}

func (s *Sandbox) Capture(ctx context.Context, holdID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.captureCalls++
	if err := ctx.Err(); err != nil {
		return err
	}

	st, ok := s.holds[holdID]
	if !ok {
		return fmt.Errorf("unknown hold %s", holdID)
	}
	switch st {
	case payment.HoldCaptured:
		return nil
	case payment.HoldFailed, payment.HoldReleased:
		return fmt.Errorf("%w: hold is %s", payment.ErrGatewayDeclined, st)
	}

	if err := pop(&s.captureErrs); err != nil {
		if errors.Is(err, payment.ErrGatewayDeclined) {
			s.holds[holdID] = payment.HoldFailed
		}
		return err
	}
	s.holds[holdID] = payment.HoldCaptured
	return nil
}

func (s *Sandbox) Release(ctx context.Context, holdID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseCalls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pop(&s.releaseErrs); err != nil {
		return err
	}

	st, ok := s.holds[holdID]
	if !ok {
		return fmt.Errorf("unknown hold %s", holdID)
	}
	if st == payment.HoldCaptured {
		return fmt.Errorf("hold %s already captured", holdID)
	}
	s.holds[holdID] = payment.HoldReleased
	return nil
}

func (s *Sandbox) Charge(ctx context.Context, req payment.ChargeRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chargeCalls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if id, ok := s.charges[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return id, nil
	}
	if err := pop(&s.chargeErrs); err != nil {
		return "", err
	}

	id := "ch_" + uuid.NewString()
	if req.IdempotencyKey != "" {
		s.charges[req.IdempotencyKey] = id
	}
	return id, nil
}

// HoldStatus returns the processor-side state of holdID.
func (s *Sandbox) HoldStatus(holdID string) payment.HoldStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holds[holdID]
}

func (s *Sandbox) CaptureCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captureCalls
}

func (s *Sandbox) ReleaseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseCalls
}

func (s *Sandbox) ChargeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chargeCalls
}

var _ payment.Gateway = (*Sandbox)(nil)
