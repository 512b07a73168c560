package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"heronnest/internal/service"
)

type CurrentUserResponse struct {
	UserID          string `json:"userId"`
	Email           string `json:"email"`
	EmailVerified   bool   `json:"emailVerified"`
	ProfileComplete bool   `json:"profileComplete"`
}

func (h *Handlers) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	writeSuccess(w, CurrentUserResponse{
		UserID:          session.UserID,
		Email:           session.Email,
		EmailVerified:   session.EmailVerified,
		ProfileComplete: h.ProfileService.IsProfileComplete(r.Context(), session.UserID),
	}, http.StatusOK)
}

func (h *Handlers) ProfileStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	complete := h.ProfileService.IsProfileComplete(r.Context(), session.UserID)
	writeSuccess(w, map[string]bool{"profileComplete": complete}, http.StatusOK)
}

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	profile, err := h.ProfileService.GetProfile(r.Context(), session.UserID)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, profile, http.StatusOK)
}

// GetUserProfile shows another member's profile. Email and phone are only
// included when the member chose to share them.
func (h *Handlers) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	profile, err := h.ProfileService.GetProfile(r.Context(), pathID(r))
	if err != nil {
		WriteAppError(w, err)
		return
	}

	if profile.UserID != session.UserID {
		public := *profile.UserProfile
		if !public.ShowEmail {
			public.Email = ""
		}
		if !public.ShowPhone {
			public.Phone = ""
		}
		profile = &service.ProfileView{UserProfile: &public, Children: profile.Children}
	}

	writeSuccess(w, profile, http.StatusOK)
}

func (h *Handlers) SetupProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req service.SetupProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = session.UserID
	req.Email = session.Email

	profile, err := h.ProfileService.SetupProfile(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, profile, http.StatusOK)
}

func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req service.NotificationSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	settings, err := h.ProfileService.UpdateNotificationSettings(r.Context(), session.UserID, req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, settings, http.StatusOK)
}

func (h *Handlers) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.ProfileService.RegisterPushToken(r.Context(), session.UserID, req.Token); err != nil {
		WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	image, closer, err := h.readImage(w, r)
	if err != nil {
		WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if image == nil {
		WriteError(w, "image is required", http.StatusBadRequest)
		return
	}
	defer closer.Close()

	url, err := h.ProfileService.UploadProfileImage(r.Context(), session.UserID, *image)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, map[string]string{"profileImageUrl": url}, http.StatusOK)
}

// readImage parses a multipart body capped at MaxUploadSize and returns its
// "image" part, or nil when the form has none.
func (h *Handlers) readImage(w http.ResponseWriter, r *http.Request) (*service.ImageUpload, multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.Cfg.MaxUploadSize); err != nil {
		return nil, nil, errors.New("image too large or malformed form")
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.New("invalid image")
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		file.Close()
		return nil, nil, errors.New("only image files are allowed")
	}

	return &service.ImageUpload{ContentType: contentType, Reader: file, Size: header.Size}, file, nil
}
