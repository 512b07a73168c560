package repository

import (
	"context"
	"time"

	"heronnest/internal/docstore"
	"heronnest/internal/models"
)

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	Save(ctx context.Context, profile *models.UserProfile) error
	UpdateNotificationSettings(ctx context.Context, userID string, settings models.NotificationSettings) error
	SetPushToken(ctx context.Context, userID, token string) error
	SetProfileImage(ctx context.Context, userID, url string) error
	FindByIDs(ctx context.Context, userIDs []string) ([]*models.UserProfile, error)
	ListIDs(ctx context.Context) ([]string, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Get(ctx context.Context, postID string) (*models.Post, error)
	UpdateText(ctx context.Context, postID, text string) error
	SetImage(ctx context.Context, postID, url, path string) error
	Delete(ctx context.Context, postID string) error
	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error
	List(ctx context.Context) ([]*models.Post, error)
	Watch(ctx context.Context) *Stream[*models.Post]

	AddComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, postID string) ([]*models.Comment, error)
	WatchComments(ctx context.Context, postID string) *Stream[*models.Comment]
	DeleteComments(ctx context.Context, postID string) error
}

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	Get(ctx context.Context, eventID string) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, eventID string) error
	SetRSVP(ctx context.Context, eventID, userID string, rsvp models.RSVP) error
	ListUpcoming(ctx context.Context, from time.Time) ([]*models.Event, error)
	WatchUpcoming(ctx context.Context, from time.Time) *Stream[*models.Event]
	SeedBatchExists(ctx context.Context, batchKey string) (bool, error)
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error)
	WatchByConversation(ctx context.Context, conversationID string) *Stream[*models.Message]
	MarkRead(ctx context.Context, conversationID, readerID string) (int, error)
}

type ConversationRepository interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	Get(ctx context.Context, conversationID string) (*models.Conversation, error)
	FindBetween(ctx context.Context, userA, userB string) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error)
	WatchForUser(ctx context.Context, userID string) *Stream[*models.Conversation]
	RecordMessage(ctx context.Context, conversationID, text, senderID, recipientID string) error
	ResetUnread(ctx context.Context, conversationID, userID string) error
}

type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	Get(ctx context.Context, reportID string) (*models.Report, error)
	List(ctx context.Context, status models.ReportStatus) ([]*models.Report, error)
	UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus) error
}

type Repository struct {
	Profiles      ProfileRepository
	Posts         PostRepository
	Events        EventRepository
	Messages      MessageRepository
	Conversations ConversationRepository
	Reports       ReportRepository
}

func NewRepository(store docstore.Store) *Repository {
	return &Repository{
		Profiles:      NewProfileRepository(store),
		Posts:         NewPostRepository(store),
		Events:        NewEventRepository(store),
		Messages:      NewMessageRepository(store),
		Conversations: NewConversationRepository(store),
		Reports:       NewReportRepository(store),
	}
}
