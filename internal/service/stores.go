package service

import (
	"context"
	"errors"
	"strings"

	"classware/api/internal/federation"
	"classware/api/internal/models"
	"classware/api/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account inactive")
	ErrNoLocalCredential  = errors.New("account has no local credential")
	ErrAdminExists        = errors.New("admin already registered")
	ErrValidation         = errors.New("invalid input")
	ErrCodeExpired        = errors.New("recovery code expired")
	ErrCodeMismatch       = errors.New("recovery code mismatch")
	ErrFederationDisabled = errors.New("federation not configured")
)

// UserStore is the credential store surface the services depend on. The pgx
// repository satisfies it; tests substitute an in-memory fake.
type UserStore interface {
	Create(ctx context.Context, user models.Principal) error
	FindByEmail(ctx context.Context, email string) (models.Principal, error)
	GetByID(ctx context.Context, id string) (models.Principal, error)
	Update(ctx context.Context, id string, update repository.UserUpdate) (models.Principal, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Principal, error)
}

// CodeStore holds live recovery codes, at most one per email.
type CodeStore interface {
	Upsert(ctx context.Context, code models.RecoveryCode) error
	Get(ctx context.Context, email string) (models.RecoveryCode, error)
	Delete(ctx context.Context, email string) error
}

// AssertionVerifier verifies an externally issued identity assertion.
type AssertionVerifier interface {
	VerifyAssertion(ctx context.Context, rawToken string) (federation.Claims, error)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
