package service

import (
	"context"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"heronnest/internal/apperrors"
	"heronnest/internal/models"
	"heronnest/internal/notify"
	"heronnest/internal/repository"
)

type SendMessageRequest struct {
	ConversationID string `json:"-" validate:"required"`
	SenderID       string `json:"-" validate:"required"`
	SenderEmail    string `json:"-"`
	Text           string `json:"text" validate:"required,max=5000"`
}

type MessageService interface {
	GetOrCreateConversation(ctx context.Context, userID, otherUserID string) (*models.Conversation, error)
	SendMessage(ctx context.Context, req SendMessageRequest) (*models.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID string) (int, error)
	ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error)
	ListMessages(ctx context.Context, conversationID, userID string) ([]*models.Message, error)
	WatchConversations(ctx context.Context, userID string) *repository.Stream[*models.Conversation]
	WatchMessages(ctx context.Context, conversationID, userID string) (*repository.Stream[*models.Message], error)
}

type messageService struct {
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	profiles      repository.ProfileRepository
	notifier      notify.Notifier
	validate      *validator.Validate
}

func NewMessageService(messages repository.MessageRepository, conversations repository.ConversationRepository,
	profiles repository.ProfileRepository, notifier notify.Notifier, validate *validator.Validate) MessageService {
	return &messageService{
		messages:      messages,
		conversations: conversations,
		profiles:      profiles,
		notifier:      notifier,
		validate:      validate,
	}
}

// GetOrCreateConversation returns the one conversation between the two users,
// starting it if they have never talked.
func (s *messageService) GetOrCreateConversation(ctx context.Context, userID, otherUserID string) (*models.Conversation, error) {
	if otherUserID == "" {
		return nil, apperrors.InvalidArg("recipient is required")
	}
	if otherUserID == userID {
		return nil, apperrors.InvalidArg("cannot start a conversation with yourself")
	}
	if otherUserID == models.DeletedUserID {
		return nil, apperrors.New(apperrors.CodeFailedPrecondition, "this user has left")
	}

	existing, err := s.conversations.FindBetween(ctx, userID, otherUserID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up conversation", err)
	}
	if existing != nil {
		return existing, nil
	}

	conversation := &models.Conversation{Participants: []string{userID, otherUserID}}
	if err := s.conversations.Create(ctx, conversation); err != nil {
		return nil, apperrors.Internal("failed to start conversation", err)
	}
	return conversation, nil
}

func (s *messageService) joined(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	conversation, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, storeError(err, "conversation")
	}
	if !slices.Contains(conversation.Participants, userID) {
		return nil, apperrors.Forbidden("not a participant of this conversation")
	}
	return conversation, nil
}

func (s *messageService) SendMessage(ctx context.Context, req SendMessageRequest) (*models.Message, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	conversation, err := s.joined(ctx, req.ConversationID, req.SenderID)
	if err != nil {
		return nil, err
	}

	recipient := conversation.Counterpart(req.SenderID)
	if recipient == "" || recipient == models.DeletedUserID {
		return nil, apperrors.New(apperrors.CodeFailedPrecondition, "the other participant has left")
	}

	message := &models.Message{
		ConversationID: conversation.ConversationID,
		SenderID:       req.SenderID,
		RecipientID:    recipient,
		Text:           req.Text,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, apperrors.Internal("failed to send message", err)
	}

	if err := s.conversations.RecordMessage(ctx, conversation.ConversationID, req.Text, req.SenderID, recipient); err != nil {
		return nil, apperrors.Internal("failed to update conversation", err)
	}

	sender := displayName("", req.SenderEmail)
	if snap, err := authorSnapshot(ctx, s.profiles, req.SenderID, req.SenderEmail); err == nil {
		sender = snap.DisplayName
	}
	s.notifier.Notify(ctx, []string{recipient}, "Message from "+sender,
		notify.Preview(req.Text, previewLength), models.CategoryMessages)

	return message, nil
}

// MarkRead flags the reader's unread messages and clears their counter.
func (s *messageService) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	if _, err := s.joined(ctx, conversationID, readerID); err != nil {
		return 0, err
	}

	n, err := s.messages.MarkRead(ctx, conversationID, readerID)
	if err != nil {
		return n, apperrors.Internal("failed to mark messages read", err)
	}

	if err := s.conversations.ResetUnread(ctx, conversationID, readerID); err != nil {
		return n, apperrors.Internal("failed to reset unread count", err)
	}
	return n, nil
}

func (s *messageService) ListConversations(ctx context.Context, userID string) ([]*models.Conversation, error) {
	conversations, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list conversations", err)
	}
	return conversations, nil
}

func (s *messageService) ListMessages(ctx context.Context, conversationID, userID string) ([]*models.Message, error) {
	if _, err := s.joined(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, apperrors.Internal("failed to list messages", err)
	}
	return messages, nil
}

func (s *messageService) WatchConversations(ctx context.Context, userID string) *repository.Stream[*models.Conversation] {
	return s.conversations.WatchForUser(ctx, userID)
}

func (s *messageService) WatchMessages(ctx context.Context, conversationID, userID string) (*repository.Stream[*models.Message], error) {
	if _, err := s.joined(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return s.messages.WatchByConversation(ctx, conversationID), nil
}
