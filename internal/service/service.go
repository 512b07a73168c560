package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"heronnest/internal/apperrors"
	"heronnest/internal/config"
	"heronnest/internal/docstore"
	"heronnest/internal/identity"
	"heronnest/internal/models"
	"heronnest/internal/notify"
	"heronnest/internal/repository"
	"heronnest/internal/storage"
)

// previewLength is how much of a post or message goes into a push body.
const previewLength = 50

type Service struct {
	Auth    AuthService
	Profile ProfileService
	Post    PostService
	Event   EventService
	Message MessageService
	Report  ReportService
	Account AccountService
}

// Deps are the backends the services are built from.
type Deps struct {
	Repo     *repository.Repository
	Accounts identity.AccountRepository
	Tokens   *identity.TokenIssuer
	Purger   Purger
	Blobs    storage.Storage
	Notifier notify.Notifier
	Logger   *logrus.Logger
}

func NewService(deps Deps, cfg *config.Config) *Service {
	validate := validator.New()
	clock := time.Now

	return &Service{
		Auth:    NewAuthService(deps.Accounts, deps.Tokens, validate),
		Profile: NewProfileService(deps.Repo.Profiles, deps.Blobs, validate, cfg.ProfileCheckTimeout, deps.Logger),
		Post:    NewPostService(deps.Repo.Posts, deps.Repo.Profiles, deps.Blobs, deps.Notifier, validate, deps.Logger, clock),
		Event:   NewEventService(deps.Repo.Events, deps.Repo.Profiles, deps.Notifier, validate, deps.Logger, clock),
		Message: NewMessageService(deps.Repo.Messages, deps.Repo.Conversations, deps.Repo.Profiles, deps.Notifier, validate),
		Report:  NewReportService(deps.Repo.Reports, validate),
		Account: NewAccountService(deps.Purger),
	}
}

// validateRequest turns validator failures into an INVALID_ARGUMENT error
// naming the offending fields.
func validateRequest(validate *validator.Validate, req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Internal("failed to validate request", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return apperrors.InvalidArg("invalid request: " + strings.Join(msgs, ", "))
}

// storeError maps a repository error to NOT_FOUND or INTERNAL.
func storeError(err error, what string) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return apperrors.NotFound(what + " not found")
	}
	return apperrors.Internal("failed to load "+what, err)
}

// displayName falls back to the part of the email before the @.
func displayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if local, _, _ := strings.Cut(email, "@"); local != "" {
		return local
	}
	return "Anonymous"
}

// authorSnapshot copies the author's current profile into new content. A user
// without a profile document is still allowed to write, under their email.
func authorSnapshot(ctx context.Context, profiles repository.ProfileRepository, userID, email string) (models.AuthorSnapshot, error) {
	profile, err := profiles.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			return models.AuthorSnapshot{}, apperrors.Internal("failed to load author profile", err)
		}
		return models.AuthorSnapshot{UserID: userID, Email: email, DisplayName: displayName("", email)}, nil
	}

	snap := profile.Snapshot()
	if snap.Email == "" {
		snap.Email = email
	}
	snap.DisplayName = displayName(snap.DisplayName, snap.Email)
	return snap, nil
}

func without(ids []string, exclude string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}
