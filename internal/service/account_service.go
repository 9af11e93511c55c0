package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"

	"classware/api/internal/ids"
	"classware/api/internal/models"
	"classware/api/internal/repository"
	"classware/api/internal/security"
)

type AccountService struct {
	users UserStore
	log   zerolog.Logger
}

func NewAccountService(users UserStore, log zerolog.Logger) *AccountService {
	return &AccountService{users: users, log: log}
}

// ProfileUpdate carries a partial profile update; nil fields keep their
// stored values.
type ProfileUpdate struct {
	Email          *string
	Username       *string
	Phone          *string
	SecurityAnswer *string
	Password       *string
}

func (s *AccountService) UpdateProfile(ctx context.Context, subjectID string, input ProfileUpdate) (models.Principal, error) {
	update := repository.UserUpdate{
		Username:       input.Username,
		Phone:          input.Phone,
		SecurityAnswer: input.SecurityAnswer,
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return models.Principal{}, ErrValidation
		}
		update.Email = &email
	}

	if input.Password != nil {
		hashed, err := security.HashPassword(*input.Password)
		if err != nil {
			return models.Principal{}, err
		}
		update.PasswordHash = hashed
	}

	return s.users.Update(ctx, subjectID, update)
}

func (s *AccountService) GetUser(ctx context.Context, id string) (models.Principal, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AccountService) ListUsers(ctx context.Context) ([]models.Principal, error) {
	return s.users.List(ctx)
}

type AdminCreateInput struct {
	Email          string
	Username       string
	Phone          string
	SecurityAnswer string
	Role           models.Role
}

// AdminCreateUser provisions a principal with a random temporary password.
// The plaintext is returned exactly once and never persisted.
func (s *AccountService) AdminCreateUser(ctx context.Context, input AdminCreateInput) (models.Principal, string, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Username == "" || !input.Role.Valid() {
		return models.Principal{}, "", ErrValidation
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return models.Principal{}, "", err
	}

	hashed, err := security.HashPassword(tempPassword)
	if err != nil {
		return models.Principal{}, "", err
	}

	user := models.Principal{
		ID:             ids.New(),
		Email:          email,
		PasswordHash:   hashed,
		Username:       input.Username,
		Phone:          input.Phone,
		SecurityAnswer: input.SecurityAnswer,
		Role:           input.Role,
		Status:         models.UserStatusActive,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return models.Principal{}, "", err
	}

	s.log.Info().Str("user_id", user.ID).Int("role", int(user.Role)).Msg("user created by admin")
	return user, tempPassword, nil
}

type AdminUpdateInput struct {
	Email          *string
	Username       *string
	Phone          *string
	SecurityAnswer *string
	Password       *string
	Role           *models.Role
	Status         *models.UserStatus
}

func (s *AccountService) AdminUpdateUser(ctx context.Context, id string, input AdminUpdateInput) (models.Principal, error) {
	if input.Role != nil && !input.Role.Valid() {
		return models.Principal{}, ErrValidation
	}

	update := repository.UserUpdate{
		Username:       input.Username,
		Phone:          input.Phone,
		SecurityAnswer: input.SecurityAnswer,
		Role:           input.Role,
		Status:         input.Status,
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return models.Principal{}, ErrValidation
		}
		update.Email = &email
	}

	if input.Password != nil {
		hashed, err := security.HashPassword(*input.Password)
		if err != nil {
			return models.Principal{}, err
		}
		update.PasswordHash = hashed
	}

	return s.users.Update(ctx, id, update)
}

func (s *AccountService) AdminDeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Msg("user deleted by admin")
	return nil
}

func generateTempPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate temp password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
