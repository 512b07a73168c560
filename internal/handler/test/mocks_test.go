package test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"heronnest/internal/identity"
	"heronnest/internal/models"
	"heronnest/internal/redaction"
	"heronnest/internal/repository"
	"heronnest/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req service.RegisterRequest) (*identity.Account, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*identity.Account), args.String(1), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, req service.LoginRequest) (*service.TokenPair, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) ParseSession(ctx context.Context, accessToken string) (*identity.Session, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Session), args.Error(1)
}

type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) SetupProfile(ctx context.Context, req service.SetupProfileRequest) (*models.UserProfile, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockProfileService) GetProfile(ctx context.Context, userID string) (*service.ProfileView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProfileView), args.Error(1)
}

func (m *MockProfileService) UpdateNotificationSettings(ctx context.Context, userID string, req service.NotificationSettingsRequest) (models.NotificationSettings, error) {
	args := m.Called(ctx, userID, req)
	return args.Get(0).(models.NotificationSettings), args.Error(1)
}

func (m *MockProfileService) RegisterPushToken(ctx context.Context, userID, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

func (m *MockProfileService) UploadProfileImage(ctx context.Context, userID string, image service.ImageUpload) (string, error) {
	args := m.Called(ctx, userID, image)
	return args.String(0), args.Error(1)
}

func (m *MockProfileService) IsProfileComplete(ctx context.Context, userID string) bool {
	return m.Called(ctx, userID).Bool(0)
}

type MockPostService struct {
	mock.Mock
}

func (m *MockPostService) post(args mock.Arguments) (*models.Post, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) CreatePost(ctx context.Context, req service.CreatePostRequest) (*models.Post, error) {
	return m.post(m.Called(ctx, req))
}

func (m *MockPostService) UpdatePost(ctx context.Context, req service.UpdatePostRequest) (*models.Post, error) {
	return m.post(m.Called(ctx, req))
}

func (m *MockPostService) DeletePost(ctx context.Context, postID, userID string) error {
	return m.Called(ctx, postID, userID).Error(0)
}

func (m *MockPostService) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostService) AddComment(ctx context.Context, req service.AddCommentRequest) (*models.Comment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockPostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostService) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Comment), args.Error(1)
}

func (m *MockPostService) WatchPosts(ctx context.Context) *repository.Stream[*models.Post] {
	return m.Called(ctx).Get(0).(*repository.Stream[*models.Post])
}

func (m *MockPostService) WatchComments(ctx context.Context, postID string) *repository.Stream[*models.Comment] {
	return m.Called(ctx, postID).Get(0).(*repository.Stream[*models.Comment])
}

type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) GetOrCreateConversation(ctx context.Context, userID, otherUserID string) (*models.Conversation, error) {
	args := m.Called(ctx, userID, otherUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockMessageService) SendMessage(ctx context.Context, req service.SendMessageRequest) (*models.Message, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageService) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	args := m.Called(ctx, conversationID, readerID)
	return args.Int(0), args.Error(1)
}

func (m *MockMessageService) ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Conversation), args.Error(1)
}

func (m *MockMessageService) ListMessages(ctx context.Context, conversationID, userID string) ([]*models.Message, error) {
	args := m.Called(ctx, conversationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MockMessageService) WatchConversations(ctx context.Context, userID string) *repository.Stream[*models.Conversation] {
	return m.Called(ctx, userID).Get(0).(*repository.Stream[*models.Conversation])
}

func (m *MockMessageService) WatchMessages(ctx context.Context, conversationID, userID string) (*repository.Stream[*models.Message], error) {
	args := m.Called(ctx, conversationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Stream[*models.Message]), args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) FileReport(ctx context.Context, req service.FileReportRequest) (*models.Report, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *MockReportService) ListReports(ctx context.Context, status models.ReportStatus) ([]*models.Report, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Report), args.Error(1)
}

func (m *MockReportService) UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus) error {
	return m.Called(ctx, reportID, status).Error(0)
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, userID string) (*redaction.Outcome, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redaction.Outcome), args.Error(1)
}

func (m *MockAccountService) RetryIdentityDeletion(ctx context.Context, userID string) (*redaction.Outcome, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redaction.Outcome), args.Error(1)
}

type stubHealth struct {
	err error
}

func (s stubHealth) HealthCheck() error {
	return s.err
}

type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) event(args mock.Arguments) (*models.Event, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventService) CreateEvent(ctx context.Context, req service.EventRequest) (*models.Event, error) {
	return m.event(m.Called(ctx, req))
}

func (m *MockEventService) UpdateEvent(ctx context.Context, req service.EventRequest) (*models.Event, error) {
	return m.event(m.Called(ctx, req))
}

func (m *MockEventService) DeleteEvent(ctx context.Context, eventID, userID string) error {
	return m.Called(ctx, eventID, userID).Error(0)
}

func (m *MockEventService) RSVP(ctx context.Context, req service.RSVPRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockEventService) ListUpcoming(ctx context.Context) ([]*models.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func (m *MockEventService) WatchEvents(ctx context.Context) *repository.Stream[*models.Event] {
	return m.Called(ctx).Get(0).(*repository.Stream[*models.Event])
}

func (m *MockEventService) SeedEvents(ctx context.Context, batchKey string, events []service.EventRequest) (int, error) {
	args := m.Called(ctx, batchKey, events)
	return args.Int(0), args.Error(1)
}
