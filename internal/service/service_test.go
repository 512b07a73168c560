package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"heronnest/internal/apperrors"
	"heronnest/internal/docstore"
	"heronnest/internal/models"
	"heronnest/internal/redaction"
	"heronnest/internal/repository"
	"heronnest/internal/storage"
)

var base = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store    *docstore.Memory
	repo     *repository.Repository
	blobs    *MockStorage
	notifier *MockNotifier
	validate *validator.Validate
	logger   *logrus.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := docstore.NewMemory()
	tick := base
	store.SetClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	f := &fixture{
		store:    store,
		repo:     repository.NewRepository(store),
		blobs:    new(MockStorage),
		notifier: new(MockNotifier),
		validate: validator.New(),
		logger:   logger,
	}

	ctx := context.Background()
	for _, p := range []*models.UserProfile{
		{UserID: "ana", DisplayName: "Ana", Email: "ana@nest.test", NotificationSettings: models.DefaultNotificationSettings(), ProfileComplete: true},
		{UserID: "ben", DisplayName: "Ben", Email: "ben@nest.test", NotificationSettings: models.DefaultNotificationSettings(), ProfileComplete: true},
		{UserID: "cy", DisplayName: "Cy", Email: "cy@nest.test", NotificationSettings: models.DefaultNotificationSettings(), ProfileComplete: true},
	} {
		require.NoError(t, f.repo.Profiles.Save(ctx, p))
	}
	return f
}

func clock() time.Time { return base }

func (f *fixture) posts() PostService {
	return NewPostService(f.repo.Posts, f.repo.Profiles, f.blobs, f.notifier, f.validate, f.logger, clock)
}

func (f *fixture) events() EventService {
	return NewEventService(f.repo.Events, f.repo.Profiles, f.notifier, f.validate, f.logger, clock)
}

func (f *fixture) messages() MessageService {
	return NewMessageService(f.repo.Messages, f.repo.Conversations, f.repo.Profiles, f.notifier, f.validate)
}

func (f *fixture) profiles() *profileService {
	svc := NewProfileService(f.repo.Profiles, f.blobs, f.validate, 50*time.Millisecond, f.logger).(*profileService)
	svc.now = clock
	return svc
}

func assertCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperrors.CodeOf(err), err.Error())
}

func boolPtr(b bool) *bool { return &b }

func TestProfileService_SetupProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("creates complete profile", func(t *testing.T) {
		f := newFixture(t)
		svc := f.profiles()

		profile, err := svc.SetupProfile(ctx, SetupProfileRequest{
			UserID:      "dee",
			Email:       "dee@nest.test",
			DisplayName: "  Dee  ",
			Children: []models.Child{
				{Name: " Mia ", BirthYear: 2022, BirthMonth: 1},
				{Name: "   "},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "Dee", profile.DisplayName)
		assert.True(t, profile.ProfileComplete)
		assert.Equal(t, models.DefaultNotificationSettings(), profile.NotificationSettings)
		require.Len(t, profile.Children, 1)
		assert.Equal(t, "Mia", profile.Children[0].Name)

		stored, err := f.repo.Profiles.Get(ctx, "dee")
		require.NoError(t, err)
		assert.Equal(t, "dee@nest.test", stored.Email)
		assert.True(t, stored.ProfileComplete)
		require.Len(t, stored.Children, 1)
	})

	t.Run("keeps settings of existing profile", func(t *testing.T) {
		f := newFixture(t)
		svc := f.profiles()

		_, err := svc.UpdateNotificationSettings(ctx, "ana", NotificationSettingsRequest{Messages: boolPtr(false)})
		require.NoError(t, err)

		profile, err := svc.SetupProfile(ctx, SetupProfileRequest{UserID: "ana", DisplayName: "Ana B"})
		require.NoError(t, err)

		assert.False(t, profile.NotificationSettings.Messages)
		assert.True(t, profile.NotificationSettings.NestNotes)
		assert.Equal(t, "ana@nest.test", profile.Email)
	})

	t.Run("display name required", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.profiles().SetupProfile(ctx, SetupProfileRequest{UserID: "dee", DisplayName: "   "})
		assertCode(t, err, apperrors.CodeInvalidArgument)
	})
}

func TestProfileService_GetProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.profiles()

	_, err := svc.SetupProfile(ctx, SetupProfileRequest{
		UserID:      "ana",
		DisplayName: "Ana",
		Children: []models.Child{
			{Name: "Mia", BirthYear: 2022, BirthMonth: 1},
			{Name: "Leo", Age: "about two"},
		},
	})
	require.NoError(t, err)

	view, err := svc.GetProfile(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, view.Children, 2)
	assert.Equal(t, "3 years 2 months old", view.Children[0].AgeLabel)
	assert.Equal(t, "about two", view.Children[1].AgeLabel)

	_, err = svc.GetProfile(ctx, "nobody")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestProfileService_NotificationSettings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.profiles()

	settings, err := svc.UpdateNotificationSettings(ctx, "ben", NotificationSettingsRequest{Calendar: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationSettings{NestNotes: true, Messages: true, Calendar: false}, settings)

	settings, err = svc.UpdateNotificationSettings(ctx, "ben", NotificationSettingsRequest{NestNotes: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationSettings{NestNotes: false, Messages: true, Calendar: false}, settings)

	stored, err := f.repo.Profiles.Get(ctx, "ben")
	require.NoError(t, err)
	assert.Equal(t, settings, stored.NotificationSettings)
}

func TestProfileService_PushTokenAndImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.profiles()

	assertCode(t, svc.RegisterPushToken(ctx, "ana", "  "), apperrors.CodeInvalidArgument)
	require.NoError(t, svc.RegisterPushToken(ctx, "ana", "ExponentPushToken[ana]"))

	stored, err := f.repo.Profiles.Get(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[ana]", stored.PushToken)

	path := storage.ProfileImagePath("ana", base)
	f.blobs.On("Upload", mock.Anything, path, "image/png", mock.Anything, int64(4)).
		Return("http://blobs/heronnest/"+path, nil)

	url, err := svc.UploadProfileImage(ctx, "ana", ImageUpload{ContentType: "image/png", Reader: strings.NewReader("png!"), Size: 4})
	require.NoError(t, err)
	assert.Equal(t, "http://blobs/heronnest/"+path, url)

	stored, err = f.repo.Profiles.Get(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, url, stored.ProfileImageURL)

	_, err = svc.UploadProfileImage(ctx, "ana", ImageUpload{})
	assertCode(t, err, apperrors.CodeInvalidArgument)
	f.blobs.AssertExpectations(t)
}

type slowProfiles struct {
	repository.ProfileRepository
	release chan struct{}
}

func (s *slowProfiles) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	<-s.release
	return &models.UserProfile{UserID: userID, ProfileComplete: true}, nil
}

func TestProfileService_IsProfileComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("complete", func(t *testing.T) {
		f := newFixture(t)
		assert.True(t, f.profiles().IsProfileComplete(ctx, "ana"))
	})

	t.Run("missing profile", func(t *testing.T) {
		f := newFixture(t)
		assert.False(t, f.profiles().IsProfileComplete(ctx, "nobody"))
	})

	t.Run("lookup error", func(t *testing.T) {
		f := newFixture(t)
		f.store.FailOn("get", docstore.Doc(models.CollectionUsers, "ana"), errors.New("offline"))
		assert.False(t, f.profiles().IsProfileComplete(ctx, "ana"))
	})

	t.Run("timeout", func(t *testing.T) {
		f := newFixture(t)
		slow := &slowProfiles{ProfileRepository: f.repo.Profiles, release: make(chan struct{})}
		defer close(slow.release)

		svc := NewProfileService(slow, f.blobs, f.validate, 20*time.Millisecond, f.logger)
		assert.False(t, svc.IsProfileComplete(ctx, "ana"))
	})
}

func TestReportService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewReportService(f.repo.Reports, f.validate)

	_, err := svc.FileReport(ctx, FileReportRequest{ReporterID: "ana", ReportedUserID: "ana", Reason: "spam"})
	assertCode(t, err, apperrors.CodeInvalidArgument)

	_, err = svc.FileReport(ctx, FileReportRequest{ReporterID: "ana", ReportedUserID: "ben", Reason: "  "})
	assertCode(t, err, apperrors.CodeInvalidArgument)

	first, err := svc.FileReport(ctx, FileReportRequest{ReporterID: "ana", ReportedUserID: "ben", Reason: "spam"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportPending, first.Status)
	assert.NotEmpty(t, first.ReportID)

	second, err := svc.FileReport(ctx, FileReportRequest{ReporterID: "cy", ReportedUserID: "ben", Reason: "rude", Description: "in comments"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, first.ReportID, models.ReportResolved))
	assertCode(t, svc.UpdateStatus(ctx, first.ReportID, "closed"), apperrors.CodeInvalidArgument)
	assertCode(t, svc.UpdateStatus(ctx, "missing", models.ReportReviewed), apperrors.CodeNotFound)

	all, err := svc.ListReports(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ReportID, all[0].ReportID)

	pending, err := svc.ListReports(ctx, models.ReportPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ReportID, pending[0].ReportID)

	_, err = svc.ListReports(ctx, "open")
	assertCode(t, err, apperrors.CodeInvalidArgument)
}

func TestAccountService(t *testing.T) {
	ctx := context.Background()
	purger := new(MockPurger)
	svc := NewAccountService(purger)

	done := &redaction.Outcome{UserID: "ana"}
	purger.On("PurgeAccount", ctx, "ana").Return(done, nil)
	reauth := apperrors.RequiresRecentLogin(errors.New("stale"))
	purger.On("DeleteIdentity", ctx, "ana").Return(&redaction.Outcome{UserID: "ana", FailedStep: redaction.StepIdentity}, reauth)

	outcome, err := svc.DeleteAccount(ctx, "ana")
	require.NoError(t, err)
	assert.Same(t, done, outcome)

	outcome, err = svc.RetryIdentityDeletion(ctx, "ana")
	assertCode(t, err, apperrors.CodeRequiresRecentLogin)
	assert.Equal(t, redaction.StepIdentity, outcome.FailedStep)
	purger.AssertExpectations(t)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ana", displayName(" Ana ", "x@y"))
	assert.Equal(t, "dee", displayName("", "dee@nest.test"))
	assert.Equal(t, "Anonymous", displayName("", ""))
}
