// Package httpapi exposes the clipcast HTTP surface: the gin router, the
// request handlers, and the authentication gate middleware.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/clipcast/clipcast/internal/common"
	"github.com/gin-gonic/gin"
)

// Response is the uniform success envelope. The HTTP status code is
// mirrored in Status.
type Response struct {
	Status  int    `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

// ErrorResponse is the uniform failure envelope.
type ErrorResponse struct {
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func writeSuccess(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{Status: status, Data: data, Message: message})
}

func writeError(c *gin.Context, status int, message string, errs ...string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Status: status, Message: message, Errors: errs})
}

// writeServiceError translates service-layer sentinels to HTTP statuses.
// Store timeouts surface as 503 rather than being retried here.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrMalformedToken):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrTokenReused):
		writeError(c, http.StatusUnauthorized, common.ErrTokenReused.Error())
	case errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrorUnauthorized):
		writeError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeError(c, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(c, http.StatusConflict, "email or username already exists")
	case errors.Is(err, common.ErrorUnavailable), errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusServiceUnavailable, "temporarily unavailable")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
