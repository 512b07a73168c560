package handlers

import (
	"net/http"

	"heronnest/internal/identity"
	"heronnest/internal/service"
)

type AuthResponse struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	User         *identity.Account `json:"user"`
}

type RegisterResponse struct {
	User              *identity.Account `json:"user"`
	VerificationToken string            `json:"verificationToken"`
}

func newAuthResponse(pair *service.TokenPair) AuthResponse {
	return AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         pair.Account,
	}
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, verification, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	h.Logger.WithField("user_id", account.UserID).Info("account registered")
	writeSuccess(w, RegisterResponse{User: account, VerificationToken: verification}, http.StatusCreated)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, newAuthResponse(pair), http.StatusOK)
}

func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	pair, err := h.AuthService.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, newAuthResponse(pair), http.StatusOK)
}

func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.AuthService.VerifyEmail(r.Context(), req.Token); err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, map[string]bool{"emailVerified": true}, http.StatusOK)
}
