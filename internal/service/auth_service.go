package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"classware/api/internal/config"
	"classware/api/internal/ids"
	"classware/api/internal/models"
	"classware/api/internal/repository"
	"classware/api/internal/security"
)

type AuthService struct {
	users    UserStore
	verifier AssertionVerifier
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(users UserStore, verifier AssertionVerifier, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		verifier: verifier,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterInput struct {
	Email          string
	Password       string
	Username       string
	Phone          string
	SecurityAnswer string
}

func (in *RegisterInput) validate() error {
	in.Email = normalizeEmail(in.Email)
	if in.Email == "" || in.Password == "" || in.Username == "" {
		return ErrValidation
	}
	return nil
}

// Register creates a Standard principal. Duplicate emails fail with
// repository.ErrEmailTaken.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.Principal, error) {
	return s.register(ctx, input, models.RoleStandard)
}

// RegisterAdmin is the guarded one-time admin bootstrap: it fails if an
// Admin principal already holds the email.
func (s *AuthService) RegisterAdmin(ctx context.Context, input RegisterInput) (models.Principal, error) {
	existing, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err == nil && existing.Role == models.RoleAdmin {
		return models.Principal{}, ErrAdminExists
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return models.Principal{}, err
	}

	return s.register(ctx, input, models.RoleAdmin)
}

func (s *AuthService) register(ctx context.Context, input RegisterInput, role models.Role) (models.Principal, error) {
	if err := input.validate(); err != nil {
		return models.Principal{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.Principal{}, err
	}

	user := models.Principal{
		ID:             ids.New(),
		Email:          input.Email,
		PasswordHash:   passwordHash,
		Username:       input.Username,
		Phone:          input.Phone,
		SecurityAnswer: input.SecurityAnswer,
		Role:           role,
		Status:         models.UserStatusActive,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return models.Principal{}, err
	}

	s.log.Info().Str("user_id", user.ID).Int("role", int(role)).Msg("principal registered")
	return user, nil
}

// Login verifies a local credential and issues a session token carrying the
// stored role.
func (s *AuthService) Login(ctx context.Context, email string, password string) (string, models.Principal, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return "", models.Principal{}, err
	}
	return s.issueToken(user, user.Role)
}

// AdminLogin is Login restricted to Admin principals. A valid password on a
// non-Admin account still fails as invalid credentials.
func (s *AuthService) AdminLogin(ctx context.Context, email string, password string) (string, models.Principal, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return "", models.Principal{}, err
	}
	if user.Role != models.RoleAdmin {
		return "", models.Principal{}, ErrInvalidCredentials
	}
	return s.issueToken(user, models.RoleAdmin)
}

func (s *AuthService) authenticate(ctx context.Context, email string, password string) (models.Principal, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return models.Principal{}, err
	}

	if user.Status != models.UserStatusActive {
		return models.Principal{}, ErrAccountInactive
	}

	if !user.HasLocalCredential() {
		return models.Principal{}, ErrNoLocalCredential
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return models.Principal{}, ErrInvalidCredentials
	}

	return user, nil
}

// GoogleLogin verifies an externally issued identity assertion,
// auto-provisions a Standard principal on first sight of the email, and
// always issues a Standard-role token regardless of the stored role.
func (s *AuthService) GoogleLogin(ctx context.Context, rawAssertion string) (string, models.Principal, error) {
	if s.verifier == nil {
		return "", models.Principal{}, ErrFederationDisabled
	}

	claims, err := s.verifier.VerifyAssertion(ctx, rawAssertion)
	if err != nil {
		return "", models.Principal{}, err
	}

	email := normalizeEmail(claims.Email)
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = s.provisionFederated(ctx, email, claims.Name)
	}
	if err != nil {
		return "", models.Principal{}, err
	}

	if user.Status != models.UserStatusActive {
		return "", models.Principal{}, ErrAccountInactive
	}

	return s.issueToken(user, models.RoleStandard)
}

func (s *AuthService) provisionFederated(ctx context.Context, email string, displayName string) (models.Principal, error) {
	username := strings.Join(strings.Fields(strings.ToLower(displayName)), "")
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	// No PasswordHash: federated accounts carry no local credential and
	// local-password login is rejected outright for them.
	user := models.Principal{
		ID:       ids.New(),
		Email:    email,
		Username: username,
		Role:     models.RoleStandard,
		Status:   models.UserStatusActive,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return models.Principal{}, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("federated principal provisioned")
	return user, nil
}

func (s *AuthService) issueToken(user models.Principal, role models.Role) (string, models.Principal, error) {
	token, err := security.GenerateSessionToken(s.cfg.Security.TokenSecret, user.ID, role, s.cfg.Security.TokenTTL)
	if err != nil {
		return "", models.Principal{}, err
	}
	return token, user, nil
}
