package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"heronnest/internal/apperrors"
	"heronnest/internal/identity"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is returned by every successful sign-in or refresh.
type TokenPair struct {
	Account      *identity.Account
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*identity.Account, string, error)
	Login(ctx context.Context, req LoginRequest) (*TokenPair, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error)
	VerifyEmail(ctx context.Context, token string) error
	ParseSession(ctx context.Context, accessToken string) (*identity.Session, error)
}

type authService struct {
	accounts identity.AccountRepository
	tokens   *identity.TokenIssuer
	validate *validator.Validate
	now      func() time.Time
}

func NewAuthService(accounts identity.AccountRepository, tokens *identity.TokenIssuer, validate *validator.Validate) AuthService {
	return &authService{
		accounts: accounts,
		tokens:   tokens,
		validate: validate,
		now:      time.Now,
	}
}

// Register creates an unverified account and returns it with the token that
// VerifyEmail expects.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*identity.Account, string, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRequest(s.validate, req); err != nil {
		return nil, "", err
	}

	verification := s.tokens.NewVerificationToken()
	account := &identity.Account{
		Email:             req.Email,
		VerificationToken: &verification,
	}

	err := s.accounts.Create(ctx, account, req.Password)
	if errors.Is(err, identity.ErrEmailTaken) {
		return nil, "", apperrors.AlreadyExists("an account with this email already exists")
	}
	if err != nil {
		return nil, "", apperrors.Internal("failed to create account", err)
	}

	return account, verification, nil
}

// Login is the only operation that moves an account's auth time forward.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	account, err := s.accounts.VerifyPassword(ctx, req.Email, req.Password)
	if errors.Is(err, identity.ErrAccountNotFound) || errors.Is(err, identity.ErrInvalidPassword) {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to sign in", err)
	}

	refreshToken, expiry := s.tokens.NewRefreshToken()
	authTime := s.now().UTC()

	if err := s.accounts.RecordLogin(ctx, account.UserID, refreshToken, expiry, authTime); err != nil {
		return nil, apperrors.Internal("failed to record login", err)
	}
	account.AuthTime = authTime

	accessToken, err := s.tokens.IssueAccessToken(account)
	if err != nil {
		return nil, apperrors.Internal("failed to issue access token", err)
	}

	return &TokenPair{Account: account, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// RefreshTokens rotates the refresh token. The new access token keeps the
// auth time of the original login.
func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidArg("refresh token is required")
	}

	account, err := s.accounts.GetByRefreshToken(ctx, refreshToken)
	if errors.Is(err, identity.ErrAccountNotFound) {
		return nil, apperrors.Unauthorized("refresh token is invalid or expired")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to look up refresh token", err)
	}

	accessToken, err := s.tokens.IssueAccessToken(account)
	if err != nil {
		return nil, apperrors.Internal("failed to issue access token", err)
	}

	newRefreshToken, expiry := s.tokens.NewRefreshToken()
	if err := s.accounts.UpdateRefreshToken(ctx, account.UserID, newRefreshToken, expiry); err != nil {
		return nil, apperrors.Internal("failed to rotate refresh token", err)
	}

	return &TokenPair{Account: account, AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.InvalidArg("verification token is required")
	}

	account, err := s.accounts.GetByVerificationToken(ctx, token)
	if errors.Is(err, identity.ErrAccountNotFound) {
		return apperrors.NotFound("verification token not found")
	}
	if err != nil {
		return apperrors.Internal("failed to look up verification token", err)
	}

	if err := s.accounts.MarkVerified(ctx, account.UserID); err != nil {
		return apperrors.Internal("failed to verify email", err)
	}
	return nil
}

// ParseSession verifies the access token and that its account still exists.
// Tokens outlive a deleted account, so the signature alone is not enough.
func (s *authService) ParseSession(ctx context.Context, accessToken string) (*identity.Session, error) {
	session, err := s.tokens.ParseSession(accessToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnauthenticated, "invalid or expired access token", err)
	}

	if _, err := s.accounts.GetByID(ctx, session.UserID); err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeUnauthenticated, "account no longer exists", err)
		}
		return nil, apperrors.Internal("failed to look up account", err)
	}
	return session, nil
}
