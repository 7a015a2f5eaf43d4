package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"listingsmith/internal/services"
)

// StatusFor maps an error to the HTTP status its services marker implies.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Kind: services.Kind(err)})
}

func badRequest(operation, message string, err error) error {
	return services.Wrap(services.ErrValidation, "api", operation, message, err)
}
