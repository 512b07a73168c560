package service

import (
	"context"

	"heronnest/internal/redaction"
)

// Purger removes an account and everything it left behind.
type Purger interface {
	PurgeAccount(ctx context.Context, userID string) (*redaction.Outcome, error)
	DeleteIdentity(ctx context.Context, userID string) (*redaction.Outcome, error)
}

type AccountService interface {
	DeleteAccount(ctx context.Context, userID string) (*redaction.Outcome, error)
	RetryIdentityDeletion(ctx context.Context, userID string) (*redaction.Outcome, error)
}

type accountService struct {
	purger Purger
}

func NewAccountService(purger Purger) AccountService {
	return &accountService{purger: purger}
}

func (s *accountService) DeleteAccount(ctx context.Context, userID string) (*redaction.Outcome, error) {
	return s.purger.PurgeAccount(ctx, userID)
}

// RetryIdentityDeletion finishes an account deletion whose content purge
// already succeeded but whose identity step asked for a fresh login.
func (s *accountService) RetryIdentityDeletion(ctx context.Context, userID string) (*redaction.Outcome, error) {
	return s.purger.DeleteIdentity(ctx, userID)
}
