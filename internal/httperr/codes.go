package httperr

import "net/http"

const (
	CodeIllegalTransition   = "illegal_transition"
	CodeUnknownResource     = "unknown_resource"
	CodeUnknownStage        = "unknown_stage"
	CodeHoldAlreadyExists   = "hold_already_exists"
	CodeNoActiveHold        = "no_active_hold"
	CodeGatewayTimeout      = "gateway_timeout"
	CodeGatewayDeclined     = "gateway_declined"
	CodeConcurrencyConflict = "concurrency_conflict"
	CodeTokenNotFound       = "token_not_found"
	CodeClientNotFound      = "client_not_found"
	CodePreconditionFailed  = "precondition_failed"
	CodeRetryLimitReached   = "retry_limit_reached"
	CodeInvariantViolated   = "invariant_violated"
	CodeUnknownJob          = "unknown_job"
)

var statusByCode = map[string]int{
	CodeIllegalTransition:   http.StatusConflict,
	CodeUnknownResource:     http.StatusNotFound,
	CodeUnknownStage:        http.StatusInternalServerError,
	CodeHoldAlreadyExists:   http.StatusConflict,
	CodeNoActiveHold:        http.StatusConflict,
	CodeGatewayTimeout:      http.StatusGatewayTimeout,
	CodeGatewayDeclined:     http.StatusPaymentRequired,
	CodeConcurrencyConflict: http.StatusConflict,
	CodeTokenNotFound:       http.StatusNotFound,
	CodeClientNotFound:      http.StatusNotFound,
	CodePreconditionFailed:  http.StatusUnprocessableEntity,
	CodeRetryLimitReached:   http.StatusConflict,
	CodeInvariantViolated:   http.StatusInternalServerError,
	CodeUnknownJob:          http.StatusNotFound,
}

func StatusFor(code string) int {
	if st, ok := statusByCode[code]; ok {
		return st
	}
	return http.StatusBadRequest
}
