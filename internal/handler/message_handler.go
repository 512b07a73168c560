package handlers

import (
	"net/http"

	"heronnest/internal/models"
	"heronnest/internal/service"
)

type ConversationsResponse struct {
	Conversations []*models.Conversation `json:"conversations"`
}

type MessagesResponse struct {
	Messages []*models.Message `json:"messages"`
}

func (h *Handlers) GetConversations(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	conversations, err := h.MessageService.ListConversations(r.Context(), session.UserID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, ConversationsResponse{Conversations: conversations}, http.StatusOK)
}

// StartConversation returns the existing conversation with the other user
// when there is one.
func (h *Handlers) StartConversation(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req struct {
		UserID string `json:"userId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	conversation, err := h.MessageService.GetOrCreateConversation(r.Context(), session.UserID, req.UserID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, conversation, http.StatusOK)
}

func (h *Handlers) GetMessages(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	messages, err := h.MessageService.ListMessages(r.Context(), pathID(r), session.UserID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, MessagesResponse{Messages: messages}, http.StatusOK)
}

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req service.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ConversationID = pathID(r)
	req.SenderID = session.UserID
	req.SenderEmail = session.Email

	message, err := h.MessageService.SendMessage(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, message, http.StatusCreated)
}

func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	n, err := h.MessageService.MarkRead(r.Context(), pathID(r), session.UserID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, map[string]int{"marked": n}, http.StatusOK)
}
