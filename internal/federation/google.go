package federation

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"classware/api/internal/config"
)

var (
	ErrAssertionInvalid = errors.New("invalid identity assertion")
	ErrEmailUnverified  = errors.New("email not verified by provider")
)

// Claims is the provider-independent shape extracted from a verified
// identity assertion.
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// GoogleVerifier checks Google-issued ID tokens. Cryptographic verification
// (signature, issuer, audience, expiry) is delegated to go-oidc; this adapter
// only maps the claim shape and rejects unverified emails.
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewGoogleVerifier(ctx context.Context, cfg config.FederationConfig) (*GoogleVerifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	return &GoogleVerifier{verifier: verifier}, nil
}

func (v *GoogleVerifier) VerifyAssertion(ctx context.Context, rawToken string) (Claims, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrAssertionInvalid, err)
	}

	var raw struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&raw); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrAssertionInvalid, err)
	}

	if !raw.EmailVerified {
		return Claims{}, ErrEmailUnverified
	}

	return Claims{
		Subject:       idToken.Subject,
		Email:         raw.Email,
		EmailVerified: raw.EmailVerified,
		Name:          raw.Name,
	}, nil
}
