package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"heronnest/internal/apperrors"
	"heronnest/internal/docstore"
	"heronnest/internal/models"
	"heronnest/internal/repository"
	"heronnest/internal/storage"
)

type SetupProfileRequest struct {
	UserID      string         `json:"-" validate:"required"`
	Email       string         `json:"-"`
	DisplayName string         `json:"displayName" validate:"required,max=80"`
	Phone       string         `json:"phone" validate:"max=40"`
	Children    []models.Child `json:"children" validate:"dive"`
	ShowEmail   bool           `json:"showEmail"`
	ShowPhone   bool           `json:"showPhone"`
}

// NotificationSettingsRequest carries only the switches the caller wants to
// change.
type NotificationSettingsRequest struct {
	NestNotes *bool `json:"nestNotes"`
	Messages  *bool `json:"messages"`
	Calendar  *bool `json:"calendar"`
}

type ImageUpload struct {
	ContentType string
	Reader      io.Reader
	Size        int64
}

type ChildView struct {
	models.Child
	AgeLabel string `json:"ageLabel"`
}

// ProfileView is a profile with display-ready child ages.
type ProfileView struct {
	*models.UserProfile
	Children []ChildView `json:"children"`
}

type ProfileService interface {
	SetupProfile(ctx context.Context, req SetupProfileRequest) (*models.UserProfile, error)
	GetProfile(ctx context.Context, userID string) (*ProfileView, error)
	UpdateNotificationSettings(ctx context.Context, userID string, req NotificationSettingsRequest) (models.NotificationSettings, error)
	RegisterPushToken(ctx context.Context, userID, token string) error
	UploadProfileImage(ctx context.Context, userID string, image ImageUpload) (string, error)
	IsProfileComplete(ctx context.Context, userID string) bool
}

type profileService struct {
	profiles     repository.ProfileRepository
	blobs        storage.Storage
	validate     *validator.Validate
	checkTimeout time.Duration
	logger       *logrus.Logger
	now          func() time.Time
}

func NewProfileService(profiles repository.ProfileRepository, blobs storage.Storage, validate *validator.Validate, checkTimeout time.Duration, logger *logrus.Logger) ProfileService {
	return &profileService{
		profiles:     profiles,
		blobs:        blobs,
		validate:     validate,
		checkTimeout: checkTimeout,
		logger:       logger,
		now:          time.Now,
	}
}

// SetupProfile creates or replaces the caller's profile and marks it
// complete. Children without a name are dropped; the image, settings and
// creation time of an existing profile are kept.
func (s *profileService) SetupProfile(ctx context.Context, req SetupProfileRequest) (*models.UserProfile, error) {
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Phone = strings.TrimSpace(req.Phone)

	children := make([]models.Child, 0, len(req.Children))
	for _, c := range req.Children {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		if c.DaysAttending == nil {
			c.DaysAttending = []string{}
		}
		children = append(children, c)
	}
	req.Children = children

	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		UserID:               req.UserID,
		Email:                req.Email,
		NotificationSettings: models.DefaultNotificationSettings(),
	}

	existing, err := s.profiles.Get(ctx, req.UserID)
	switch {
	case err == nil:
		profile.ProfileImageURL = existing.ProfileImageURL
		profile.NotificationSettings = existing.NotificationSettings
		profile.CreatedAt = existing.CreatedAt
		if profile.Email == "" {
			profile.Email = existing.Email
		}
	case !errors.Is(err, docstore.ErrNotFound):
		return nil, apperrors.Internal("failed to load profile", err)
	}

	profile.DisplayName = req.DisplayName
	profile.Phone = req.Phone
	profile.Children = req.Children
	profile.ShowEmail = req.ShowEmail
	profile.ShowPhone = req.ShowPhone
	profile.ProfileComplete = true

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, apperrors.Internal("failed to save profile", err)
	}

	return profile, nil
}

func (s *profileService) GetProfile(ctx context.Context, userID string) (*ProfileView, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, storeError(err, "profile")
	}

	now := s.now()
	view := &ProfileView{UserProfile: profile, Children: make([]ChildView, 0, len(profile.Children))}
	for _, c := range profile.Children {
		view.Children = append(view.Children, ChildView{Child: c, AgeLabel: c.AgeLabel(now)})
	}
	return view, nil
}

func (s *profileService) UpdateNotificationSettings(ctx context.Context, userID string, req NotificationSettingsRequest) (models.NotificationSettings, error) {
	settings := models.DefaultNotificationSettings()

	profile, err := s.profiles.Get(ctx, userID)
	switch {
	case err == nil:
		settings = profile.NotificationSettings
	case !errors.Is(err, docstore.ErrNotFound):
		return settings, apperrors.Internal("failed to load profile", err)
	}

	if req.NestNotes != nil {
		settings.NestNotes = *req.NestNotes
	}
	if req.Messages != nil {
		settings.Messages = *req.Messages
	}
	if req.Calendar != nil {
		settings.Calendar = *req.Calendar
	}

	if err := s.profiles.UpdateNotificationSettings(ctx, userID, settings); err != nil {
		return settings, apperrors.Internal("failed to save notification settings", err)
	}
	return settings, nil
}

func (s *profileService) RegisterPushToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.InvalidArg("push token is required")
	}

	if err := s.profiles.SetPushToken(ctx, userID, token); err != nil {
		return apperrors.Internal("failed to register push token", err)
	}
	return nil
}

func (s *profileService) UploadProfileImage(ctx context.Context, userID string, image ImageUpload) (string, error) {
	if image.Reader == nil || image.Size <= 0 {
		return "", apperrors.InvalidArg("image is required")
	}

	url, err := s.blobs.Upload(ctx, storage.ProfileImagePath(userID, s.now()), image.ContentType, image.Reader, image.Size)
	if err != nil {
		return "", apperrors.Internal("failed to upload profile image", err)
	}

	if err := s.profiles.SetProfileImage(ctx, userID, url); err != nil {
		return "", apperrors.Internal("failed to save profile image", err)
	}
	return url, nil
}

// IsProfileComplete reports false when the lookup fails or does not answer
// within the check timeout, so a slow backend sends the user to setup
// instead of leaving them waiting.
func (s *profileService) IsProfileComplete(ctx context.Context, userID string) bool {
	ctx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()

	type lookup struct {
		profile *models.UserProfile
		err     error
	}
	done := make(chan lookup, 1)
	go func() {
		profile, err := s.profiles.Get(ctx, userID)
		done <- lookup{profile: profile, err: err}
	}()

	log := s.logger.WithField("user_id", userID)
	select {
	case <-ctx.Done():
		log.Warn("profile check timed out")
		return false
	case res := <-done:
		if res.err != nil {
			if !errors.Is(res.err, docstore.ErrNotFound) {
				log.WithError(res.err).Warn("profile check failed")
			}
			return false
		}
		return res.profile.ProfileComplete
	}
}
