package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"heronnest/internal/metrics"
	"heronnest/internal/models"
)

type MockProfileFinder struct {
	mock.Mock
}

func (m *MockProfileFinder) FindByIDs(ctx context.Context, userIDs []string) ([]*models.UserProfile, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserProfile), args.Error(1)
}

type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Send(ctx context.Context, msg PushMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func newTestDispatcher(profiles ProfileFinder, pusher Pusher) *Dispatcher {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewDispatcher(profiles, pusher, logger, metrics.New())
}

func TestDispatcher_Notify(t *testing.T) {
	ctx := context.Background()

	t.Run("skips missing token and disabled category", func(t *testing.T) {
		profiles := new(MockProfileFinder)
		pusher := new(MockPusher)

		off := models.DefaultNotificationSettings()
		off.Messages = false

		profiles.On("FindByIDs", ctx, []string{"u1", "u2", "u3"}).Return([]*models.UserProfile{
			{UserID: "u1", PushToken: "tok-1", NotificationSettings: models.DefaultNotificationSettings()},
			{UserID: "u2", NotificationSettings: models.DefaultNotificationSettings()},
			{UserID: "u3", PushToken: "tok-3", NotificationSettings: off},
		}, nil)
		pusher.On("Send", ctx, PushMessage{
			To:    "tok-1",
			Title: "Message from Ana",
			Body:  "hi",
			Data:  map[string]any{"category": "messages"},
		}).Return(nil).Once()

		newTestDispatcher(profiles, pusher).Notify(ctx, []string{"u1", "u2", "u1", "", "u3"}, "Message from Ana", "hi", models.CategoryMessages)

		profiles.AssertExpectations(t)
		pusher.AssertExpectations(t)
		pusher.AssertNumberOfCalls(t, "Send", 1)
	})

	t.Run("delivery failure does not stop others", func(t *testing.T) {
		profiles := new(MockProfileFinder)
		pusher := new(MockPusher)

		profiles.On("FindByIDs", ctx, []string{"u1", "u2"}).Return([]*models.UserProfile{
			{UserID: "u1", PushToken: "tok-1", NotificationSettings: models.DefaultNotificationSettings()},
			{UserID: "u2", PushToken: "tok-2", NotificationSettings: models.DefaultNotificationSettings()},
		}, nil)
		pusher.On("Send", ctx, mock.MatchedBy(func(m PushMessage) bool { return m.To == "tok-1" })).Return(errors.New("gateway down"))
		pusher.On("Send", ctx, mock.MatchedBy(func(m PushMessage) bool { return m.To == "tok-2" })).Return(nil)

		newTestDispatcher(profiles, pusher).Notify(ctx, []string{"u1", "u2"}, "t", "b", models.CategoryNestNotes)

		pusher.AssertNumberOfCalls(t, "Send", 2)
	})

	t.Run("lookup failure is swallowed", func(t *testing.T) {
		profiles := new(MockProfileFinder)
		pusher := new(MockPusher)
		profiles.On("FindByIDs", ctx, []string{"u1"}).Return(nil, errors.New("store offline"))

		assert.NotPanics(t, func() {
			newTestDispatcher(profiles, pusher).Notify(ctx, []string{"u1"}, "t", "b", models.CategoryCalendar)
		})
		pusher.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("no recipients", func(t *testing.T) {
		profiles := new(MockProfileFinder)
		pusher := new(MockPusher)

		newTestDispatcher(profiles, pusher).Notify(ctx, nil, "t", "b", models.CategoryCalendar)

		profiles.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything)
	})
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{"short", "hello", 50, "hello"},
		{"exact", "abcde", 5, "abcde"},
		{"truncated", "abcdefgh", 5, "abcde..."},
		{"runes", "héllo wörld", 4, "héll..."},
		{"empty", "", 50, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.text, tt.n))
		})
	}
}
