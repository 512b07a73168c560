package handlers

import (
	"net/http"

	"heronnest/internal/models"
	"heronnest/internal/service"
)

type EventsResponse struct {
	Events []*models.Event `json:"events"`
}

func (h *Handlers) GetEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r); !ok {
		return
	}

	events, err := h.EventService.ListUpcoming(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, EventsResponse{Events: events}, http.StatusOK)
}

func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req service.EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = session.UserID
	req.UserEmail = session.Email

	event, err := h.EventService.CreateEvent(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, event, http.StatusCreated)
}

func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req service.EventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.EventID = pathID(r)
	req.UserID = session.UserID
	req.UserEmail = session.Email

	event, err := h.EventService.UpdateEvent(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, event, http.StatusOK)
}

func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	if err := h.EventService.DeleteEvent(r.Context(), pathID(r), session.UserID); err != nil {
		WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) RSVP(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req service.RSVPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.EventID = pathID(r)
	req.UserID = session.UserID

	if err := h.EventService.RSVP(r.Context(), req); err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, map[string]models.RSVP{"response": req.Response}, http.StatusOK)
}
