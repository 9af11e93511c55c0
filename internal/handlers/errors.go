package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"classware/api/internal/federation"
	"classware/api/internal/mail"
	"classware/api/internal/ratelimit"
	"classware/api/internal/repository"
	"classware/api/internal/security"
	"classware/api/internal/service"
)

// respondError maps service errors to stable machine-readable codes. Only
// unexpected faults log full detail; the caller sees a generic body for those.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, security.ErrEmptyPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input"})
	case errors.Is(err, repository.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email_taken"})
	case errors.Is(err, service.ErrAdminExists):
		c.JSON(http.StatusConflict, gin.H{"error": "admin_exists"})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, repository.ErrCodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "code_not_found"})
	case errors.Is(err, service.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "code_expired"})
	case errors.Is(err, service.ErrCodeMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "code_mismatch"})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrNoLocalCredential):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
	case errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "account_inactive"})
	case errors.Is(err, federation.ErrEmailUnverified):
		c.JSON(http.StatusBadRequest, gin.H{"error": "email_unverified"})
	case errors.Is(err, federation.ErrAssertionInvalid), errors.Is(err, service.ErrFederationDisabled):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_assertion"})
	case errors.Is(err, mail.ErrDeliveryFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "delivery_failed"})
	case errors.Is(err, ratelimit.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
	default:
		h.log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Msg("unhandled service error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
