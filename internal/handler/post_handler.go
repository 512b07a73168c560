package handlers

import (
	"net/http"
	"strings"

	"heronnest/internal/models"
	"heronnest/internal/service"
)

type PostsResponse struct {
	Posts []*models.Post `json:"posts"`
}

type CommentsResponse struct {
	Comments []*models.Comment `json:"comments"`
}

func (h *Handlers) GetPosts(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r); !ok {
		return
	}

	posts, err := h.PostService.ListPosts(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, PostsResponse{Posts: posts}, http.StatusOK)
}

// CreatePost accepts a JSON body with text, or a multipart form with a
// "text" field and an optional "image" file.
func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	req := service.CreatePostRequest{AuthorID: session.UserID, AuthorEmail: session.Email}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		image, closer, err := h.readImage(w, r)
		if err != nil {
			WriteError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if image != nil {
			defer closer.Close()
			req.Image = image
		}
		req.Text = r.FormValue("text")
	} else if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.PostService.CreatePost(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, post, http.StatusCreated)
}

func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req service.UpdatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.PostID = pathID(r)
	req.UserID = session.UserID

	post, err := h.PostService.UpdatePost(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, post, http.StatusOK)
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	if err := h.PostService.DeletePost(r.Context(), pathID(r), session.UserID); err != nil {
		WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ToggleLike(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	liked, err := h.PostService.ToggleLike(r.Context(), pathID(r), session.UserID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, map[string]bool{"liked": liked}, http.StatusOK)
}

func (h *Handlers) GetComments(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r); !ok {
		return
	}

	comments, err := h.PostService.ListComments(r.Context(), pathID(r))
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, CommentsResponse{Comments: comments}, http.StatusOK)
}

func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req service.AddCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.PostID = pathID(r)
	req.AuthorID = session.UserID
	req.AuthorEmail = session.Email

	comment, err := h.PostService.AddComment(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, comment, http.StatusCreated)
}
