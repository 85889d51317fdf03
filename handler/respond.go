package handler

import (
	"errors"
	"net/http"

	"github.com/WedtreeAutomation/PaySlip-Sender/pkg/logger"
	"github.com/WedtreeAutomation/PaySlip-Sender/service"
	"github.com/gin-gonic/gin"
)

// statusFor maps a service error to the HTTP status returned to clients.
func statusFor(err error) int {
	var remote *service.RemoteError
	switch {
	case errors.Is(err, service.ErrInvalidRoster),
		errors.Is(err, service.ErrInvalidReport),
		errors.Is(err, service.ErrDocumentUnreadable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotAContainer),
		errors.Is(err, service.ErrInvalidPageSize):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrContainerUnavailable), errors.As(err, &remote):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
