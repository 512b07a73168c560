package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

type AccountRepository interface {
	Create(ctx context.Context, account *Account, password string) error
	GetByID(ctx context.Context, userID string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*Account, error)
	GetByVerificationToken(ctx context.Context, token string) (*Account, error)
	VerifyPassword(ctx context.Context, email, password string) (*Account, error)
	RecordLogin(ctx context.Context, userID, refreshToken string, expiryTime, authTime time.Time) error
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string, expiryTime time.Time) error
	MarkVerified(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string) error
}

type accountRepository struct {
	db *sqlx.DB
}

const accountColumns = `user_id, email, password_hash, email_verified, verification_token,
	refresh_token, refresh_token_expiry_time, auth_time, created_at`

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *Account, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	account.UserID = uuid.New().String()
	account.PasswordHash = string(hashedPassword)
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	if account.AuthTime.IsZero() {
		account.AuthTime = account.CreatedAt
	}

	query := `
		INSERT INTO accounts (user_id, email, password_hash, email_verified, verification_token, auth_time, created_at)
		VALUES (:user_id, :email, :password_hash, :email_verified, :verification_token, :auth_time, :created_at)
	`

	_, err = r.db.NamedExecContext(ctx, query, account)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func (r *accountRepository) get(ctx context.Context, where string, arg any) (*Account, error) {
	var account Account

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + where

	err := r.db.GetContext(ctx, &account, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	return &account, nil
}

func (r *accountRepository) GetByID(ctx context.Context, userID string) (*Account, error) {
	return r.get(ctx, `user_id = $1`, userID)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return r.get(ctx, `email = $1`, email)
}

func (r *accountRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*Account, error) {
	return r.get(ctx, `refresh_token = $1 AND refresh_token_expiry_time > CURRENT_TIMESTAMP`, refreshToken)
}

func (r *accountRepository) GetByVerificationToken(ctx context.Context, token string) (*Account, error) {
	return r.get(ctx, `verification_token = $1`, token)
}

func (r *accountRepository) VerifyPassword(ctx context.Context, email, password string) (*Account, error) {
	account, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password))
	if err != nil {
		return nil, ErrInvalidPassword
	}

	return account, nil
}

// RecordLogin stores a fresh refresh token and moves auth_time forward. Only
// a password login calls it; token refresh keeps the old auth_time.
func (r *accountRepository) RecordLogin(ctx context.Context, userID, refreshToken string, expiryTime, authTime time.Time) error {
	query := `
		UPDATE accounts
		SET refresh_token = $1, refresh_token_expiry_time = $2, auth_time = $3
		WHERE user_id = $4
	`

	return r.execOne(ctx, "record login", query, refreshToken, expiryTime, authTime, userID)
}

func (r *accountRepository) UpdateRefreshToken(ctx context.Context, userID, refreshToken string, expiryTime time.Time) error {
	query := `
		UPDATE accounts
		SET refresh_token = $1, refresh_token_expiry_time = $2
		WHERE user_id = $3
	`

	return r.execOne(ctx, "update refresh token", query, refreshToken, expiryTime, userID)
}

func (r *accountRepository) MarkVerified(ctx context.Context, userID string) error {
	query := `
		UPDATE accounts
		SET email_verified = TRUE, verification_token = NULL
		WHERE user_id = $1
	`

	return r.execOne(ctx, "mark account verified", query, userID)
}

func (r *accountRepository) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM accounts WHERE user_id = $1`

	return r.execOne(ctx, "delete account", query, userID)
}

// execOne runs a statement that must touch exactly one account row.
func (r *accountRepository) execOne(ctx context.Context, action, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}

	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}
