package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"classware/api/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const uniqueViolation = "23505"

// UserUpdate carries a partial update: nil fields keep their stored value.
type UserUpdate struct {
	Email          *string
	Username       *string
	Phone          *string
	SecurityAnswer *string
	PasswordHash   []byte
	Role           *models.Role
	Status         *models.UserStatus
}

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, password_hash, username, phone, security_answer, role, status, created_at, updated_at`

func scanUser(row pgx.Row) (models.Principal, error) {
	var user models.Principal
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Username,
		&user.Phone,
		&user.SecurityAnswer,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Principal{}, ErrUserNotFound
		}
		return models.Principal{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user models.Principal) error {
	const query = `
		INSERT INTO users (
			id, email, password_hash, username, phone, security_answer, role, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Username,
		user.Phone,
		user.SecurityAnswer,
		user.Role,
		user.Status,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.Principal, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.Principal, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// Update applies only the provided fields; omitted fields retain their prior
// values. The updated record is returned.
func (r *UserRepository) Update(ctx context.Context, id string, update UserUpdate) (models.Principal, error) {
	const query = `
		UPDATE users SET
			email = COALESCE($2, email),
			username = COALESCE($3, username),
			phone = COALESCE($4, phone),
			security_answer = COALESCE($5, security_answer),
			password_hash = COALESCE($6, password_hash),
			role = COALESCE($7, role),
			status = COALESCE($8, status),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns + `
	`

	user, err := scanUser(r.pool.QueryRow(ctx, query,
		id,
		update.Email,
		update.Username,
		update.Phone,
		update.SecurityAnswer,
		update.PasswordHash,
		update.Role,
		update.Status,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Principal{}, ErrEmailTaken
		}
		return models.Principal{}, err
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]models.Principal, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.Principal
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
