package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code      string `json:"error_code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func Write(c *gin.Context, status int, code, message string) {
	write(c, status, HTTPError{Code: code, Message: message})
}

// write echoes the request id the request middleware put on the response,
// so a client report can be matched to the server log line.
func write(c *gin.Context, status int, body HTTPError) {
	body.RequestID = c.Writer.Header().Get("X-Request-ID")
	c.JSON(status, body)
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Conflict(c *gin.Context, code, message string) {
	Write(c, http.StatusConflict, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

// FromError writes err using the status mapped to its business code.
// Errors without a code become a 500 with the given fallback code.
func FromError(c *gin.Context, err error, fallback string) {
	var be BusinessError
	if errors.As(err, &be) {
		write(c, StatusFor(be.Code), HTTPError{
			Code:      be.Code,
			Message:   err.Error(),
			Retryable: Retryable(err),
		})
		return
	}
	Internal(c, fallback, "Unexpected error.")
}
