package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"classware/api/internal/models"
)

var (
	// ErrTokenInvalid and ErrTokenExpired are distinguished for internal use
	// only. Callers facing the network must treat both as unauthenticated and
	// must not reveal which one occurred.
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("expired token")
)

// SessionClaims is the self-contained bearer credential: no server-side
// session state backs it.
type SessionClaims struct {
	Role int `json:"role"`
	jwt.RegisteredClaims
}

// SubjectRole returns the role claim as a closed-enum Role.
func (c *SessionClaims) SubjectRole() (models.Role, bool) {
	return models.RoleFromInt(c.Role)
}

// GenerateSessionToken signs a session token for the subject with a fixed
// validity window.
func GenerateSessionToken(secret string, subjectID string, role models.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Role: int(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// ParseSessionToken verifies the signature and expiry of a session token.
// Expiry is strict: a token whose exp equals now is already expired.
func ParseSessionToken(tokenStr string, secret string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if _, ok := claims.SubjectRole(); !ok {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
