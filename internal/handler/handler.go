package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"heronnest/internal/config"
	"heronnest/internal/identity"
	"heronnest/internal/service"
)

// HealthChecker is anything /health should ping.
type HealthChecker interface {
	HealthCheck() error
}

type Handlers struct {
	AuthService    service.AuthService
	ProfileService service.ProfileService
	PostService    service.PostService
	EventService   service.EventService
	MessageService service.MessageService
	ReportService  service.ReportService
	AccountService service.AccountService
	Health         HealthChecker
	Cfg            *config.Config
	Logger         *logrus.Logger
}

func NewHandlers(services *service.Service, health HealthChecker, cfg *config.Config, logger *logrus.Logger) *Handlers {
	return &Handlers{
		AuthService:    services.Auth,
		ProfileService: services.Profile,
		PostService:    services.Post,
		EventService:   services.Event,
		MessageService: services.Message,
		ReportService:  services.Report,
		AccountService: services.Account,
		Health:         health,
		Cfg:            cfg,
		Logger:         logger,
	}
}

// Routes registers every API endpoint on r.
func (h *Handlers) Routes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)

	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", h.RefreshToken).Methods(http.MethodPost)
	auth.HandleFunc("/verify-email", h.VerifyEmail).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/me", h.GetCurrentUser).Methods(http.MethodGet)
	api.HandleFunc("/me/profile", h.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/me/profile", h.SetupProfile).Methods(http.MethodPut)
	api.HandleFunc("/me/profile/image", h.UploadProfileImage).Methods(http.MethodPost)
	api.HandleFunc("/me/profile-status", h.ProfileStatus).Methods(http.MethodGet)
	api.HandleFunc("/me/settings", h.UpdateSettings).Methods(http.MethodPut)
	api.HandleFunc("/me/push-token", h.RegisterPushToken).Methods(http.MethodPut)
	api.HandleFunc("/users/{id}", h.GetUserProfile).Methods(http.MethodGet)

	api.HandleFunc("/account", h.DeleteAccount).Methods(http.MethodDelete)
	api.HandleFunc("/account/identity", h.DeleteIdentity).Methods(http.MethodDelete)

	api.HandleFunc("/posts", h.GetPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts", h.CreatePost).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}", h.UpdatePost).Methods(http.MethodPut)
	api.HandleFunc("/posts/{id}", h.DeletePost).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{id}/like", h.ToggleLike).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}/comments", h.GetComments).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}/comments", h.AddComment).Methods(http.MethodPost)

	api.HandleFunc("/events", h.GetEvents).Methods(http.MethodGet)
	api.HandleFunc("/events", h.CreateEvent).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}", h.UpdateEvent).Methods(http.MethodPut)
	api.HandleFunc("/events/{id}", h.DeleteEvent).Methods(http.MethodDelete)
	api.HandleFunc("/events/{id}/rsvp", h.RSVP).Methods(http.MethodPut)

	api.HandleFunc("/conversations", h.GetConversations).Methods(http.MethodGet)
	api.HandleFunc("/conversations", h.StartConversation).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/messages", h.GetMessages).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/messages", h.SendMessage).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/read", h.MarkRead).Methods(http.MethodPost)

	api.HandleFunc("/reports", h.GetReports).Methods(http.MethodGet)
	api.HandleFunc("/reports", h.FileReport).Methods(http.MethodPost)
	api.HandleFunc("/reports/{id}/status", h.UpdateReportStatus).Methods(http.MethodPut)

	api.HandleFunc("/watch/posts", h.WatchPosts).Methods(http.MethodGet)
	api.HandleFunc("/watch/posts/{id}/comments", h.WatchComments).Methods(http.MethodGet)
	api.HandleFunc("/watch/events", h.WatchEvents).Methods(http.MethodGet)
	api.HandleFunc("/watch/conversations", h.WatchConversations).Methods(http.MethodGet)
	api.HandleFunc("/watch/conversations/{id}/messages", h.WatchMessages).Methods(http.MethodGet)
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health.HealthCheck(); err != nil {
			h.Logger.WithError(err).Warn("health check failed")
			WriteError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	writeSuccess(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// currentSession answers 401 itself when the request carries no session.
func currentSession(w http.ResponseWriter, r *http.Request) (*identity.Session, bool) {
	session, ok := identity.SessionFromContext(r.Context())
	if !ok {
		WriteError(w, "authentication required", http.StatusUnauthorized)
		return nil, false
	}
	return session, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}
