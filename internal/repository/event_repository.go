package repository

import (
	"context"
	"fmt"
	"time"

	"heronnest/internal/docstore"
	"heronnest/internal/models"
)

type eventRepository struct {
	store docstore.Store
}

func NewEventRepository(store docstore.Store) EventRepository {
	return &eventRepository{store: store}
}

func eventPath(eventID string) string {
	return docstore.Doc(models.CollectionEvents, eventID)
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	data := eventFields(event)
	data[models.FieldCreatedBy] = event.Creator.UserID
	data[models.FieldCreatedByEmail] = event.Creator.Email
	data[models.FieldCreatedByDisplayName] = event.Creator.DisplayName
	data[models.FieldCreatedByImageURL] = event.Creator.ProfileImageURL
	data[models.FieldAttendees] = []string{}
	data[models.FieldMaybeAttendees] = []string{}
	data[models.FieldNotAttending] = []string{}
	data[models.FieldCreatedAt] = docstore.ServerTimestamp
	if event.SeedBatch != "" {
		data[models.FieldSeedBatch] = event.SeedBatch
	}

	id, err := r.store.Create(ctx, models.CollectionEvents, data)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	stored, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	*event = *stored
	return nil
}

func (r *eventRepository) Get(ctx context.Context, eventID string) (*models.Event, error) {
	doc, err := r.store.Get(ctx, eventPath(eventID))
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, err)
	}
	return eventFromDoc(doc), nil
}

// Update rewrites the editable fields; creator and RSVPs are untouched.
func (r *eventRepository) Update(ctx context.Context, event *models.Event) error {
	var updates []docstore.Update
	for field, value := range eventFields(event) {
		updates = append(updates, docstore.Update{Path: field, Value: value})
	}
	updates = append(updates, docstore.Update{Path: models.FieldEditedAt, Value: docstore.ServerTimestamp})

	if err := r.store.Update(ctx, eventPath(event.EventID), updates); err != nil {
		return fmt.Errorf("failed to update event %s: %w", event.EventID, err)
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, eventID string) error {
	if err := r.store.Delete(ctx, eventPath(eventID)); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	return nil
}

// SetRSVP moves userID into the set for rsvp and out of the other two in a
// single document update.
func (r *eventRepository) SetRSVP(ctx context.Context, eventID, userID string, rsvp models.RSVP) error {
	target := models.RSVPField(rsvp)
	if target == "" {
		return fmt.Errorf("unknown rsvp %q", rsvp)
	}

	updates := make([]docstore.Update, 0, len(models.RSVPFields))
	for _, field := range models.RSVPFields {
		change := docstore.ArrayRemove(userID)
		if field == target {
			change = docstore.ArrayUnion(userID)
		}
		updates = append(updates, docstore.Update{Path: field, Value: change})
	}

	if err := r.store.Update(ctx, eventPath(eventID), updates); err != nil {
		return fmt.Errorf("failed to rsvp to event %s: %w", eventID, err)
	}
	return nil
}

func upcoming(from time.Time) docstore.Query {
	return docstore.From(models.CollectionEvents).
		Where(models.FieldDate, docstore.OpGreaterEqual, from).
		OrderBy(models.FieldDate, docstore.Asc)
}

func (r *eventRepository) ListUpcoming(ctx context.Context, from time.Time) ([]*models.Event, error) {
	docs, err := r.store.Find(ctx, upcoming(from))
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return decodeAll(docs, eventFromDoc), nil
}

func (r *eventRepository) WatchUpcoming(ctx context.Context, from time.Time) *Stream[*models.Event] {
	return newStream(r.store.Watch(ctx, upcoming(from)), eventFromDoc)
}

func (r *eventRepository) SeedBatchExists(ctx context.Context, batchKey string) (bool, error) {
	docs, err := r.store.Find(ctx, docstore.From(models.CollectionEvents).
		Where(models.FieldSeedBatch, docstore.OpEqual, batchKey).
		Take(1))
	if err != nil {
		return false, fmt.Errorf("failed to look up seed batch %s: %w", batchKey, err)
	}
	return len(docs) > 0, nil
}

func eventFields(e *models.Event) map[string]any {
	return map[string]any{
		models.FieldTitle:       e.Title,
		models.FieldDescription: e.Description,
		models.FieldDate:        e.Date,
		models.FieldTime:        e.Time,
		models.FieldEndTime:     e.EndTime,
		models.FieldLocation:    e.Location,
		models.FieldCategory:    e.Category,
	}
}

func eventFromDoc(doc docstore.Document) *models.Event {
	d := doc.Data
	return &models.Event{
		EventID:     doc.ID,
		Title:       docstore.String(d, models.FieldTitle),
		Date:        docstore.Time(d, models.FieldDate),
		Time:        docstore.String(d, models.FieldTime),
		EndTime:     docstore.String(d, models.FieldEndTime),
		Description: docstore.String(d, models.FieldDescription),
		Location:    docstore.String(d, models.FieldLocation),
		Category:    docstore.String(d, models.FieldCategory),
		Creator: models.AuthorSnapshot{
			UserID:          docstore.String(d, models.FieldCreatedBy),
			DisplayName:     docstore.String(d, models.FieldCreatedByDisplayName),
			Email:           docstore.String(d, models.FieldCreatedByEmail),
			ProfileImageURL: docstore.String(d, models.FieldCreatedByImageURL),
		},
		Going:     docstore.Strings(d, models.FieldAttendees),
		Maybe:     docstore.Strings(d, models.FieldMaybeAttendees),
		NotGoing:  docstore.Strings(d, models.FieldNotAttending),
		SeedBatch: docstore.String(d, models.FieldSeedBatch),
		CreatedAt: docstore.Time(d, models.FieldCreatedAt),
		EditedAt:  optionalTime(d, models.FieldEditedAt),
	}
}
