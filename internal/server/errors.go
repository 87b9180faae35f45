package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/chatroom-go/internal/classify"
	"github.com/raphaelgruber/chatroom-go/internal/service"
	"github.com/raphaelgruber/chatroom-go/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// statusFor maps service, store and classifier errors onto HTTP statuses.
func statusFor(err error) int {
	var verr *service.ValidationError
	var cerr *classify.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, classify.ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.As(err, &cerr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError records err on the context for the logging middleware and sends a JSON body.
// Internal failures get a generic message.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusFor(err)

	resp := errorResponse{Error: err.Error()}
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		resp = errorResponse{Error: verr.Message, Field: verr.Field}
	case errors.Is(err, store.ErrNotFound):
		resp.Error = "room not found"
	case status == http.StatusServiceUnavailable:
		resp.Error = "service unavailable"
	case status == http.StatusInternalServerError:
		resp.Error = "internal error"
	}
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg})
}
