package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"heronnest/internal/apperrors"
	"heronnest/internal/docstore"
	"heronnest/internal/models"
)

func day(offset int) time.Time {
	return time.Date(2025, time.March, 10+offset, 0, 0, 0, 0, time.UTC)
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("announces to everyone else", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.On("Notify", mock.Anything, []string{"ben", "cy"}, "New Event",
			"Ana added Pancake breakfast on Mon, Mar 10", models.CategoryCalendar).Return().Once()

		event, err := f.events().CreateEvent(ctx, EventRequest{
			UserID:   "ana",
			Title:    " Pancake breakfast ",
			Date:     day(0),
			Time:     "8:30 AM",
			Location: "Hall",
		})
		require.NoError(t, err)

		assert.Equal(t, "Pancake breakfast", event.Title)
		assert.Equal(t, "other", event.Category)
		assert.Equal(t, "ana", event.Creator.UserID)
		assert.Equal(t, "Ana", event.Creator.DisplayName)
		assert.Empty(t, event.Going)
		assert.Empty(t, event.Maybe)
		assert.Empty(t, event.NotGoing)
		f.notifier.AssertExpectations(t)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture(t)
		svc := f.events()

		_, err := svc.CreateEvent(ctx, EventRequest{UserID: "ana", Date: day(1), Time: "noon"})
		assertCode(t, err, apperrors.CodeInvalidArgument)

		_, err = svc.CreateEvent(ctx, EventRequest{UserID: "ana", Title: "Picnic", Time: "noon"})
		assertCode(t, err, apperrors.CodeInvalidArgument)

		_, err = svc.CreateEvent(ctx, EventRequest{UserID: "ana", Title: "Picnic", Date: day(1), Time: "noon", Category: "party"})
		assertCode(t, err, apperrors.CodeInvalidArgument)

		f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestEventService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.events()
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	event, err := svc.CreateEvent(ctx, EventRequest{UserID: "ana", Title: "Picnic", Date: day(2), Time: "noon", Category: "social"})
	require.NoError(t, err)

	t.Run("rsvp moves between sets", func(t *testing.T) {
		require.NoError(t, svc.RSVP(ctx, RSVPRequest{EventID: event.EventID, UserID: "ben", Response: models.RSVPGoing}))
		require.NoError(t, svc.RSVP(ctx, RSVPRequest{EventID: event.EventID, UserID: "cy", Response: models.RSVPGoing}))
		require.NoError(t, svc.RSVP(ctx, RSVPRequest{EventID: event.EventID, UserID: "ben", Response: models.RSVPMaybe}))

		stored, err := f.repo.Events.Get(ctx, event.EventID)
		require.NoError(t, err)
		assert.Equal(t, []string{"cy"}, stored.Going)
		assert.Equal(t, []string{"ben"}, stored.Maybe)
		assert.Empty(t, stored.NotGoing)

		assertCode(t, svc.RSVP(ctx, RSVPRequest{EventID: event.EventID, UserID: "ben", Response: "yes"}), apperrors.CodeInvalidArgument)
		assertCode(t, svc.RSVP(ctx, RSVPRequest{EventID: "missing", UserID: "ben", Response: models.RSVPGoing}), apperrors.CodeNotFound)
	})

	t.Run("only the creator edits", func(t *testing.T) {
		req := EventRequest{EventID: event.EventID, UserID: "ben", Title: "Big picnic", Date: day(3), Time: "1 PM", Category: "social"}
		_, err := svc.UpdateEvent(ctx, req)
		assertCode(t, err, apperrors.CodePermissionDenied)

		req.UserID = "ana"
		updated, err := svc.UpdateEvent(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "Big picnic", updated.Title)
		assert.True(t, day(3).Equal(updated.Date))
		assert.NotNil(t, updated.EditedAt)
		assert.Equal(t, []string{"cy"}, updated.Going)
	})

	t.Run("only the creator deletes", func(t *testing.T) {
		assertCode(t, svc.DeleteEvent(ctx, event.EventID, "cy"), apperrors.CodePermissionDenied)
		require.NoError(t, svc.DeleteEvent(ctx, event.EventID, "ana"))

		_, err := f.repo.Events.Get(ctx, event.EventID)
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})
}

func TestEventService_ListUpcoming(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.events()
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	for _, req := range []EventRequest{
		{UserID: "ana", Title: "Next week", Date: day(7), Time: "9 AM"},
		{UserID: "ana", Title: "Yesterday", Date: day(-1), Time: "9 AM"},
		{UserID: "ben", Title: "Earlier today", Date: day(0), Time: "7 AM"},
	} {
		_, err := svc.CreateEvent(ctx, req)
		require.NoError(t, err)
	}

	events, err := svc.ListUpcoming(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Earlier today", events[0].Title)
	assert.Equal(t, "Next week", events[1].Title)
}

func TestEventService_SeedEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.events()

	batch := []EventRequest{
		{UserID: "ana", Title: "Spring fair", Date: day(20), Time: "10 AM", Category: "school"},
		{UserID: "ana", Title: "Sports day", Date: day(30), Time: "9 AM", Category: "sports"},
	}

	created, err := svc.SeedEvents(ctx, "spring-2025", batch)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = svc.SeedEvents(ctx, "spring-2025", batch)
	require.NoError(t, err)
	assert.Zero(t, created)

	events, err := svc.ListUpcoming(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "spring-2025", events[0].SeedBatch)

	_, err = svc.SeedEvents(ctx, "", batch)
	assertCode(t, err, apperrors.CodeInvalidArgument)

	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
