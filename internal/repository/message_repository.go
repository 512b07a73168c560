package repository

import (
	"context"
	"fmt"
	"slices"

	"heronnest/internal/docstore"
	"heronnest/internal/models"
)

type messageRepository struct {
	store docstore.Store
}

func NewMessageRepository(store docstore.Store) MessageRepository {
	return &messageRepository{store: store}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	id, err := r.store.Create(ctx, models.CollectionMessages, map[string]any{
		models.FieldText:           message.Text,
		models.FieldSenderID:       message.SenderID,
		models.FieldRecipientID:    message.RecipientID,
		models.FieldConversationID: message.ConversationID,
		models.FieldCreatedAt:      docstore.ServerTimestamp,
		models.FieldRead:           false,
	})
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	doc, err := r.store.Get(ctx, docstore.Doc(models.CollectionMessages, id))
	if err != nil {
		return fmt.Errorf("failed to load message %s: %w", id, err)
	}
	*message = *messageFromDoc(doc)
	return nil
}

func thread(conversationID string) docstore.Query {
	return docstore.From(models.CollectionMessages).
		Where(models.FieldConversationID, docstore.OpEqual, conversationID).
		OrderBy(models.FieldCreatedAt, docstore.Asc)
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*models.Message, error) {
	docs, err := r.store.Find(ctx, thread(conversationID))
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return decodeAll(docs, messageFromDoc), nil
}

func (r *messageRepository) WatchByConversation(ctx context.Context, conversationID string) *Stream[*models.Message] {
	return newStream(r.store.Watch(ctx, thread(conversationID)), messageFromDoc)
}

// MarkRead flags every unread message addressed to readerID in the
// conversation and returns how many were flagged.
func (r *messageRepository) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	docs, err := r.store.Find(ctx, docstore.From(models.CollectionMessages).
		Where(models.FieldConversationID, docstore.OpEqual, conversationID).
		Where(models.FieldRecipientID, docstore.OpEqual, readerID).
		Where(models.FieldRead, docstore.OpEqual, false))
	if err != nil {
		return 0, fmt.Errorf("failed to find unread messages: %w", err)
	}

	for i, doc := range docs {
		err := r.store.Update(ctx, doc.Path, []docstore.Update{{Path: models.FieldRead, Value: true}})
		if err != nil {
			return i, fmt.Errorf("failed to mark message %s read: %w", doc.ID, err)
		}
	}
	return len(docs), nil
}

func messageFromDoc(doc docstore.Document) *models.Message {
	d := doc.Data
	return &models.Message{
		MessageID:      doc.ID,
		ConversationID: docstore.String(d, models.FieldConversationID),
		SenderID:       docstore.String(d, models.FieldSenderID),
		RecipientID:    docstore.String(d, models.FieldRecipientID),
		Text:           docstore.String(d, models.FieldText),
		CreatedAt:      docstore.Time(d, models.FieldCreatedAt),
		Read:           docstore.Bool(d, models.FieldRead),
	}
}

type conversationRepository struct {
	store docstore.Store
}

func NewConversationRepository(store docstore.Store) ConversationRepository {
	return &conversationRepository{store: store}
}

func conversationPath(conversationID string) string {
	return docstore.Doc(models.CollectionConversations, conversationID)
}

// Create starts an empty conversation with zeroed unread counters.
func (r *conversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	unread := make(map[string]any, len(conversation.Participants))
	for _, p := range conversation.Participants {
		unread[p] = 0
	}

	id, err := r.store.Create(ctx, models.CollectionConversations, map[string]any{
		models.FieldParticipants:      conversation.Participants,
		models.FieldLastMessage:       "",
		models.FieldLastMessageTime:   docstore.ServerTimestamp,
		models.FieldLastMessageSender: "",
		models.FieldUnreadCount:       unread,
	})
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	stored, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	*conversation = *stored
	return nil
}

func (r *conversationRepository) Get(ctx context.Context, conversationID string) (*models.Conversation, error) {
	doc, err := r.store.Get(ctx, conversationPath(conversationID))
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation %s: %w", conversationID, err)
	}
	return conversationFromDoc(doc), nil
}

// FindBetween returns the conversation of the two users, or nil when they
// have none.
func (r *conversationRepository) FindBetween(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	docs, err := r.store.Find(ctx, docstore.From(models.CollectionConversations).
		Where(models.FieldParticipants, docstore.OpArrayContains, userA))
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}

	for _, doc := range docs {
		conversation := conversationFromDoc(doc)
		if slices.Contains(conversation.Participants, userB) {
			return conversation, nil
		}
	}
	return nil, nil
}

func inbox(userID string) docstore.Query {
	return docstore.From(models.CollectionConversations).
		Where(models.FieldParticipants, docstore.OpArrayContains, userID).
		OrderBy(models.FieldLastMessageTime, docstore.Desc)
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error) {
	docs, err := r.store.Find(ctx, inbox(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return decodeAll(docs, conversationFromDoc), nil
}

func (r *conversationRepository) WatchForUser(ctx context.Context, userID string) *Stream[*models.Conversation] {
	return newStream(r.store.Watch(ctx, inbox(userID)), conversationFromDoc)
}

// RecordMessage updates the preview fields and bumps the recipient's unread
// counter.
func (r *conversationRepository) RecordMessage(ctx context.Context, conversationID, text, senderID, recipientID string) error {
	err := r.store.Update(ctx, conversationPath(conversationID), []docstore.Update{
		{Path: models.FieldLastMessage, Value: text},
		{Path: models.FieldLastMessageTime, Value: docstore.ServerTimestamp},
		{Path: models.FieldLastMessageSender, Value: senderID},
		{Path: models.FieldUnreadCount + "." + recipientID, Value: docstore.Increment(1)},
	})
	if err != nil {
		return fmt.Errorf("failed to update conversation %s: %w", conversationID, err)
	}
	return nil
}

func (r *conversationRepository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	err := r.store.Update(ctx, conversationPath(conversationID), []docstore.Update{
		{Path: models.FieldUnreadCount + "." + userID, Value: 0},
	})
	if err != nil {
		return fmt.Errorf("failed to reset unread count: %w", err)
	}
	return nil
}

func conversationFromDoc(doc docstore.Document) *models.Conversation {
	d := doc.Data
	conversation := &models.Conversation{
		ConversationID:      doc.ID,
		Participants:        docstore.Strings(d, models.FieldParticipants),
		LastMessage:         docstore.String(d, models.FieldLastMessage),
		LastMessageTime:     docstore.Time(d, models.FieldLastMessageTime),
		LastMessageSender:   docstore.String(d, models.FieldLastMessageSender),
		DeletedParticipants: docstore.Strings(d, models.FieldDeletedParticipants),
	}

	if counts := docstore.Map(d, models.FieldUnreadCount); counts != nil {
		conversation.UnreadCount = make(map[string]int64, len(counts))
		for uid := range counts {
			conversation.UnreadCount[uid] = docstore.Int(counts, uid)
		}
	}
	return conversation
}
