package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"classware/api/internal/config"
	"classware/api/internal/mail"
	"classware/api/internal/models"
	"classware/api/internal/repository"
	"classware/api/internal/security"
)

// ResetService drives the linear recovery protocol: request issues and
// delivers a code, verify checks it without consuming, reset consumes it and
// replaces the password. Re-entering request at any point discards prior
// progress because issuing replaces the live code.
type ResetService struct {
	users  UserStore
	codes  CodeStore
	mailer mail.Sender
	cfg    *config.AppConfig
	log    zerolog.Logger
	now    func() time.Time
}

func NewResetService(users UserStore, codes CodeStore, mailer mail.Sender, cfg *config.AppConfig, log zerolog.Logger) *ResetService {
	return &ResetService{
		users:  users,
		codes:  codes,
		mailer: mailer,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Request issues a fresh recovery code for an existing principal and hands it
// to the delivery collaborator. Any prior live code for the email is replaced.
// Delivery failure is surfaced, never swallowed as success.
func (s *ResetService) Request(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	record := models.RecoveryCode{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(s.cfg.OTP.TTL()),
	}

	if err := s.codes.Upsert(ctx, record); err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.Mail.SendTimeout)
	defer cancel()

	body := fmt.Sprintf("Your password recovery code is %s. It expires in %d minutes.", code, s.cfg.OTP.TTLMinutes)
	if err := s.mailer.Send(sendCtx, email, "Password recovery code", body); err != nil {
		s.log.Error().Err(err).Msg("recovery code delivery failed")
		return err
	}

	s.log.Info().Str("email", email).Msg("recovery code issued")
	return nil
}

// Verify checks the code without consuming it, so the caller can proceed to
// reset without racing expiry. A still-valid code can be verified repeatedly.
func (s *ResetService) Verify(ctx context.Context, email string, code string) error {
	_, err := s.check(ctx, normalizeEmail(email), code)
	return err
}

// Reset re-validates the code, consumes it, and replaces the password. Once
// the store acknowledges the update the transition is durable; the recovery
// record is gone on every success path.
func (s *ResetService) Reset(ctx context.Context, email string, code string, newPassword string) error {
	if newPassword == "" {
		return ErrValidation
	}
	email = normalizeEmail(email)

	record, err := s.check(ctx, email, code)
	if err != nil {
		return err
	}

	// Single use is enforced here, not at verify.
	if err := s.codes.Delete(ctx, record.Email); err != nil {
		return err
	}

	hashed, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	if _, err := s.users.Update(ctx, user.ID, repository.UserUpdate{PasswordHash: hashed}); err != nil {
		return err
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset completed")
	return nil
}

func (s *ResetService) check(ctx context.Context, email string, code string) (models.RecoveryCode, error) {
	record, err := s.codes.Get(ctx, email)
	if err != nil {
		return models.RecoveryCode{}, err
	}

	if record.Expired(s.now()) {
		return models.RecoveryCode{}, ErrCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
		return models.RecoveryCode{}, ErrCodeMismatch
	}

	return record, nil
}

// generateCode returns a uniformly random 6-digit numeric code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
