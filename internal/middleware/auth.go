package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"classware/api/internal/config"
	"classware/api/internal/models"
	"classware/api/internal/security"
)

const (
	ContextClaims  = "session_claims"
	ContextSubject = "subject_id"
	ContextRole    = "subject_role"
)

// Auth validates the bearer token and attaches the subject and role to the
// context. It is a pure function of the token: no store lookups, no state
// across requests. A missing token, an invalid signature, and an expired
// token all produce the identical 401 body so callers cannot tell which
// case occurred.
func Auth(cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseSessionToken(tokenStr, cfg.Security.TokenSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		role, ok := claims.SubjectRole()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		c.Set(ContextClaims, *claims)
		c.Set(ContextSubject, claims.Subject)
		c.Set(ContextRole, role)

		c.Next()
	}
}

// SubjectFromContext returns the authenticated subject id and role set by Auth.
func SubjectFromContext(c *gin.Context) (string, models.Role, bool) {
	subjectVal, exists := c.Get(ContextSubject)
	if !exists {
		return "", 0, false
	}
	subject, ok := subjectVal.(string)
	if !ok {
		return "", 0, false
	}

	roleVal, exists := c.Get(ContextRole)
	if !exists {
		return "", 0, false
	}
	role, ok := roleVal.(models.Role)
	if !ok {
		return "", 0, false
	}

	return subject, role, true
}
