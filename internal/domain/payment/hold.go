package payment

import "github.com/BruksfildServices01/client-portal/internal/httperr"

// ===============================
// Hold Status
// ===============================

type HoldStatus string

const (
	HoldAuthorized HoldStatus = "authorized"
	HoldCaptured   HoldStatus = "captured"
	HoldReleased   HoldStatus = "released"
	HoldFailed     HoldStatus = "failed"
)

func (s HoldStatus) Valid() bool {
	switch s {
	case HoldAuthorized, HoldCaptured, HoldReleased, HoldFailed:
		return true
	}
	return false
}

// Final reports whether the hold can no longer be captured or released.
func (s HoldStatus) Final() bool {
	return s == HoldCaptured || s == HoldReleased || s == HoldFailed
}

var (
	ErrHoldAlreadyExists = httperr.ErrBusiness(httperr.CodeHoldAlreadyExists)
	ErrNoActiveHold      = httperr.ErrBusiness(httperr.CodeNoActiveHold)
	ErrGatewayTimeout    = httperr.ErrBusiness(httperr.CodeGatewayTimeout)
	ErrGatewayDeclined   = httperr.ErrBusiness(httperr.CodeGatewayDeclined)
	ErrRetryLimitReached = httperr.ErrBusiness(httperr.CodeRetryLimitReached)
)
