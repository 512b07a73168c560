// Package identity owns sign-in accounts and the signed-in principal of a
// request. Deleting a principal requires a recent password login.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoSession           = errors.New("no signed-in session")
	ErrRequiresRecentLogin = errors.New("requires recent login")
)

type Principal struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

// Session is what an access token proves about the caller.
type Session struct {
	UserID        string
	Email         string
	EmailVerified bool
	AuthTime      time.Time
}

type sessionKey struct{}

func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*Session)
	return session, ok && session != nil
}

type Provider interface {
	// CurrentPrincipal answers from the session alone.
	CurrentPrincipal(ctx context.Context) (*Principal, error)
	// DeletePrincipal removes the signed-in account. It fails with
	// ErrRequiresRecentLogin when the last password login is too old.
	DeletePrincipal(ctx context.Context) error
	// Reload re-reads the account, picking up email verification.
	Reload(ctx context.Context) (*Principal, error)
}

type accountProvider struct {
	accounts AccountRepository
	window   time.Duration
	now      func() time.Time
}

func NewProvider(accounts AccountRepository, recentLoginWindow time.Duration) Provider {
	return &accountProvider{
		accounts: accounts,
		window:   recentLoginWindow,
		now:      time.Now,
	}
}

func (p *accountProvider) CurrentPrincipal(ctx context.Context) (*Principal, error) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}

	return &Principal{ID: session.UserID, Email: session.Email, EmailVerified: session.EmailVerified}, nil
}

func (p *accountProvider) DeletePrincipal(ctx context.Context) error {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return ErrNoSession
	}

	if p.now().Sub(session.AuthTime) > p.window {
		return ErrRequiresRecentLogin
	}

	err := p.accounts.Delete(ctx, session.UserID)
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		return fmt.Errorf("failed to delete principal %s: %w", session.UserID, err)
	}

	return nil
}

func (p *accountProvider) Reload(ctx context.Context) (*Principal, error) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}

	account, err := p.accounts.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload principal: %w", err)
	}

	return account.Principal(), nil
}
