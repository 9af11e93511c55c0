package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"classware/api/internal/models"
)

var ErrCodeNotFound = errors.New("recovery code not found")

type OTPRepository struct {
	pool *pgxpool.Pool
}

func NewOTPRepository(pool *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{pool: pool}
}

// Upsert stores the recovery code, atomically replacing any prior record for
// the same email. Email is the primary key, so at most one live code exists
// per address.
func (r *OTPRepository) Upsert(ctx context.Context, code models.RecoveryCode) error {
	const query = `
		INSERT INTO recovery_codes (email, code, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (email)
		DO UPDATE SET
			code = EXCLUDED.code,
			expires_at = EXCLUDED.expires_at,
			created_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, code.Email, code.Code, code.ExpiresAt)
	return err
}

func (r *OTPRepository) Get(ctx context.Context, email string) (models.RecoveryCode, error) {
	const query = `
		SELECT email, code, expires_at, created_at
		FROM recovery_codes
		WHERE email = $1
	`

	row := r.pool.QueryRow(ctx, query, email)
	var code models.RecoveryCode
	if err := row.Scan(&code.Email, &code.Code, &code.ExpiresAt, &code.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RecoveryCode{}, ErrCodeNotFound
		}
		return models.RecoveryCode{}, err
	}
	return code, nil
}

func (r *OTPRepository) Delete(ctx context.Context, email string) error {
	const query = `DELETE FROM recovery_codes WHERE email = $1`
	_, err := r.pool.Exec(ctx, query, email)
	return err
}
