package identity

import (
	"errors"
	"time"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidPassword = errors.New("invalid password")
)

// Account is a row of the accounts table. Tokens and their expiry are NULL
// until issued.
type Account struct {
	UserID                 string     `db:"user_id" json:"userId"`
	Email                  string     `db:"email" json:"email"`
	PasswordHash           string     `db:"password_hash" json:"-"`
	EmailVerified          bool       `db:"email_verified" json:"emailVerified"`
	VerificationToken      *string    `db:"verification_token" json:"-"`
	RefreshToken           *string    `db:"refresh_token" json:"-"`
	RefreshTokenExpiryTime *time.Time `db:"refresh_token_expiry_time" json:"-"`
	AuthTime               time.Time  `db:"auth_time" json:"-"`
	CreatedAt              time.Time  `db:"created_at" json:"createdAt"`
}

func (a *Account) Principal() *Principal {
	return &Principal{ID: a.UserID, Email: a.Email, EmailVerified: a.EmailVerified}
}
