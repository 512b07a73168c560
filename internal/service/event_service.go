package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"heronnest/internal/apperrors"
	"heronnest/internal/models"
	"heronnest/internal/notify"
	"heronnest/internal/repository"
)

const defaultEventCategory = "other"

type EventRequest struct {
	EventID     string    `json:"-"`
	UserID      string    `json:"-" validate:"required"`
	UserEmail   string    `json:"-"`
	Title       string    `json:"title" validate:"required,max=200"`
	Date        time.Time `json:"date" validate:"required"`
	Time        string    `json:"time" validate:"required,max=40"`
	EndTime     string    `json:"endTime" validate:"max=40"`
	Description string    `json:"description" validate:"max=5000"`
	Location    string    `json:"location" validate:"max=200"`
	Category    string    `json:"category" validate:"omitempty,oneof=school social sports playdate other"`
}

func (r *EventRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Time = strings.TrimSpace(r.Time)
	r.EndTime = strings.TrimSpace(r.EndTime)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	if r.Category == "" {
		r.Category = defaultEventCategory
	}
}

type RSVPRequest struct {
	EventID  string      `json:"-" validate:"required"`
	UserID   string      `json:"-" validate:"required"`
	Response models.RSVP `json:"response" validate:"required,oneof=going maybe not-going"`
}

type EventService interface {
	CreateEvent(ctx context.Context, req EventRequest) (*models.Event, error)
	UpdateEvent(ctx context.Context, req EventRequest) (*models.Event, error)
	DeleteEvent(ctx context.Context, eventID, userID string) error
	RSVP(ctx context.Context, req RSVPRequest) error
	ListUpcoming(ctx context.Context) ([]*models.Event, error)
	WatchEvents(ctx context.Context) *repository.Stream[*models.Event]
	SeedEvents(ctx context.Context, batchKey string, events []EventRequest) (int, error)
}

type eventService struct {
	events   repository.EventRepository
	profiles repository.ProfileRepository
	notifier notify.Notifier
	validate *validator.Validate
	logger   *logrus.Logger
	now      func() time.Time
}

func NewEventService(events repository.EventRepository, profiles repository.ProfileRepository, notifier notify.Notifier,
	validate *validator.Validate, logger *logrus.Logger, now func() time.Time) EventService {
	return &eventService{
		events:   events,
		profiles: profiles,
		notifier: notifier,
		validate: validate,
		logger:   logger,
		now:      now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, req EventRequest) (*models.Event, error) {
	event, err := s.create(ctx, req, "")
	if err != nil {
		return nil, err
	}

	ids, err := s.profiles.ListIDs(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to list users for event notification")
		return event, nil
	}
	s.notifier.Notify(ctx, without(ids, event.Creator.UserID), "New Event",
		event.Creator.DisplayName+" added "+event.Title+" on "+event.Date.Format("Mon, Jan 2"), models.CategoryCalendar)

	return event, nil
}

func (s *eventService) create(ctx context.Context, req EventRequest, seedBatch string) (*models.Event, error) {
	req.normalize()
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	creator, err := authorSnapshot(ctx, s.profiles, req.UserID, req.UserEmail)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:       req.Title,
		Date:        req.Date,
		Time:        req.Time,
		EndTime:     req.EndTime,
		Description: req.Description,
		Location:    req.Location,
		Category:    req.Category,
		Creator:     creator,
		SeedBatch:   seedBatch,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, apperrors.Internal("failed to create event", err)
	}
	return event, nil
}

func (s *eventService) ownedEvent(ctx context.Context, eventID, userID string) (*models.Event, error) {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, storeError(err, "event")
	}
	if event.Creator.UserID != userID {
		return nil, apperrors.Forbidden("only the creator can change this event")
	}
	return event, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, req EventRequest) (*models.Event, error) {
	req.normalize()
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	event, err := s.ownedEvent(ctx, req.EventID, req.UserID)
	if err != nil {
		return nil, err
	}

	event.Title = req.Title
	event.Date = req.Date
	event.Time = req.Time
	event.EndTime = req.EndTime
	event.Description = req.Description
	event.Location = req.Location
	event.Category = req.Category

	if err := s.events.Update(ctx, event); err != nil {
		return nil, apperrors.Internal("failed to update event", err)
	}

	updated, err := s.events.Get(ctx, event.EventID)
	if err != nil {
		return nil, storeError(err, "event")
	}
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, userID string) error {
	if _, err := s.ownedEvent(ctx, eventID, userID); err != nil {
		return err
	}

	if err := s.events.Delete(ctx, eventID); err != nil {
		return apperrors.Internal("failed to delete event", err)
	}
	return nil
}

func (s *eventService) RSVP(ctx context.Context, req RSVPRequest) error {
	if err := validateRequest(s.validate, req); err != nil {
		return err
	}

	if _, err := s.events.Get(ctx, req.EventID); err != nil {
		return storeError(err, "event")
	}

	if err := s.events.SetRSVP(ctx, req.EventID, req.UserID, req.Response); err != nil {
		return apperrors.Internal("failed to save rsvp", err)
	}
	return nil
}

// startOfToday keeps events happening later today on the calendar.
func (s *eventService) startOfToday() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (s *eventService) ListUpcoming(ctx context.Context) ([]*models.Event, error) {
	events, err := s.events.ListUpcoming(ctx, s.startOfToday())
	if err != nil {
		return nil, apperrors.Internal("failed to list events", err)
	}
	return events, nil
}

func (s *eventService) WatchEvents(ctx context.Context) *repository.Stream[*models.Event] {
	return s.events.WatchUpcoming(ctx, s.startOfToday())
}

// SeedEvents creates a batch of events once. A batch whose key is already on
// any event is skipped, so seeding can run on every start.
func (s *eventService) SeedEvents(ctx context.Context, batchKey string, events []EventRequest) (int, error) {
	if batchKey == "" {
		return 0, apperrors.InvalidArg("seed batch key is required")
	}

	log := s.logger.WithField("seed_batch", batchKey)

	exists, err := s.events.SeedBatchExists(ctx, batchKey)
	if err != nil {
		return 0, apperrors.Internal("failed to check seed batch", err)
	}
	if exists {
		log.Debug("seed batch already present")
		return 0, nil
	}

	created := 0
	for _, req := range events {
		if _, err := s.create(ctx, req, batchKey); err != nil {
			return created, err
		}
		created++
	}

	log.WithField("count", created).Info("seeded events")
	return created, nil
}
