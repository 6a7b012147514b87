package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	codeValidation   = "VALIDATION_ERROR"
	codeUnauthorized = "UNAUTHORIZED"
	codeForbidden    = "FORBIDDEN"
	codeNotFound     = "NOT_FOUND"
	codeConflict     = "CONFLICT"
	codeRateLimited  = "RATE_LIMITED"
	codeInternal     = "INTERNAL_SERVER_ERROR"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// respondServiceError maps a service error onto the shared taxonomy.
// Anything unrecognised is logged and reported as a 500.
func (h *handler) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		respondError(c, http.StatusBadRequest, codeValidation, common.PublicMessage(err, "invalid request"))
	case errors.Is(err, common.ErrorNotFound):
		respondError(c, http.StatusNotFound, codeNotFound, common.PublicMessage(err, "not found"))
	case errors.Is(err, common.ErrorForbidden):
		respondError(c, http.StatusForbidden, codeForbidden, common.PublicMessage(err, "forbidden"))
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		respondError(c, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
	default:
		h.log.Error(c.Request.Context(), "request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		respondError(c, http.StatusInternalServerError, codeInternal, "internal server error")
	}
	c.Abort()
}
