package service

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"heronnest/internal/identity"
	"heronnest/internal/models"
	"heronnest/internal/redaction"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, recipients []string, title, body string, category models.NotificationCategory) {
	m.Called(ctx, recipients, title, body, category)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, objectPath, contentType string, file io.Reader, size int64) (string, error) {
	args := m.Called(ctx, objectPath, contentType, file, size)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) GetURL(ctx context.Context, objectPath string) (string, error) {
	args := m.Called(ctx, objectPath)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, objectPath string) error {
	args := m.Called(ctx, objectPath)
	return args.Error(0)
}

func (m *MockStorage) ObjectPath(rawURL string) (string, error) {
	args := m.Called(rawURL)
	return args.String(0), args.Error(1)
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) account(args mock.Arguments) (*identity.Account, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, account *identity.Account, password string) error {
	args := m.Called(ctx, account, password)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, userID string) (*identity.Account, error) {
	return m.account(m.Called(ctx, userID))
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*identity.Account, error) {
	return m.account(m.Called(ctx, email))
}

func (m *MockAccountRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*identity.Account, error) {
	return m.account(m.Called(ctx, refreshToken))
}

func (m *MockAccountRepository) GetByVerificationToken(ctx context.Context, token string) (*identity.Account, error) {
	return m.account(m.Called(ctx, token))
}

func (m *MockAccountRepository) VerifyPassword(ctx context.Context, email, password string) (*identity.Account, error) {
	return m.account(m.Called(ctx, email, password))
}

func (m *MockAccountRepository) RecordLogin(ctx context.Context, userID, refreshToken string, expiryTime, authTime time.Time) error {
	args := m.Called(ctx, userID, refreshToken, expiryTime, authTime)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateRefreshToken(ctx context.Context, userID, refreshToken string, expiryTime time.Time) error {
	args := m.Called(ctx, userID, refreshToken, expiryTime)
	return args.Error(0)
}

func (m *MockAccountRepository) MarkVerified(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockPurger struct {
	mock.Mock
}

func (m *MockPurger) outcome(args mock.Arguments) (*redaction.Outcome, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redaction.Outcome), args.Error(1)
}

func (m *MockPurger) PurgeAccount(ctx context.Context, userID string) (*redaction.Outcome, error) {
	return m.outcome(m.Called(ctx, userID))
}

func (m *MockPurger) DeleteIdentity(ctx context.Context, userID string) (*redaction.Outcome, error) {
	return m.outcome(m.Called(ctx, userID))
}
