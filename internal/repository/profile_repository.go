package repository

import (
	"context"
	"fmt"

	"heronnest/internal/docstore"
	"heronnest/internal/models"
)

// maxInValues is the largest value list an "in" filter accepts.
const maxInValues = 30

type profileRepository struct {
	store docstore.Store
}

func NewProfileRepository(store docstore.Store) ProfileRepository {
	return &profileRepository{store: store}
}

func profilePath(userID string) string {
	return docstore.Doc(models.CollectionUsers, userID)
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	doc, err := r.store.Get(ctx, profilePath(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", userID, err)
	}
	return profileFromDoc(doc), nil
}

// Save upserts the profile. The push token is left alone; it has its own writer.
func (r *profileRepository) Save(ctx context.Context, profile *models.UserProfile) error {
	children := make([]map[string]any, 0, len(profile.Children))
	for _, c := range profile.Children {
		children = append(children, map[string]any{
			"name":          c.Name,
			"age":           c.Age,
			"birthYear":     c.BirthYear,
			"birthMonth":    c.BirthMonth,
			"daysAttending": c.DaysAttending,
		})
	}

	data := map[string]any{
		models.FieldUID:                  profile.UserID,
		models.FieldDisplayName:          profile.DisplayName,
		models.FieldEmail:                profile.Email,
		models.FieldPhone:                profile.Phone,
		models.FieldProfileImageURL:      profile.ProfileImageURL,
		models.FieldChildren:             children,
		models.FieldShowEmail:            profile.ShowEmail,
		models.FieldShowPhone:            profile.ShowPhone,
		models.FieldNotificationSettings: settingsToData(profile.NotificationSettings),
		models.FieldProfileComplete:      profile.ProfileComplete,
	}
	if profile.CreatedAt.IsZero() {
		data[models.FieldCreatedAt] = docstore.ServerTimestamp
	} else {
		data[models.FieldCreatedAt] = profile.CreatedAt
	}

	if err := r.store.Set(ctx, profilePath(profile.UserID), data, true); err != nil {
		return fmt.Errorf("failed to save profile %s: %w", profile.UserID, err)
	}
	return nil
}

func (r *profileRepository) UpdateNotificationSettings(ctx context.Context, userID string, settings models.NotificationSettings) error {
	data := map[string]any{models.FieldNotificationSettings: settingsToData(settings)}
	if err := r.store.Set(ctx, profilePath(userID), data, true); err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}
	return nil
}

func (r *profileRepository) SetPushToken(ctx context.Context, userID, token string) error {
	data := map[string]any{models.FieldPushToken: token}
	if err := r.store.Set(ctx, profilePath(userID), data, true); err != nil {
		return fmt.Errorf("failed to store push token: %w", err)
	}
	return nil
}

func (r *profileRepository) SetProfileImage(ctx context.Context, userID, url string) error {
	data := map[string]any{models.FieldProfileImageURL: url}
	if err := r.store.Set(ctx, profilePath(userID), data, true); err != nil {
		return fmt.Errorf("failed to store profile image: %w", err)
	}
	return nil
}

// FindByIDs loads the profiles of userIDs, splitting the lookup into "in"
// queries of at most maxInValues ids. Unknown ids are skipped.
func (r *profileRepository) FindByIDs(ctx context.Context, userIDs []string) ([]*models.UserProfile, error) {
	var profiles []*models.UserProfile
	for start := 0; start < len(userIDs); start += maxInValues {
		end := min(start+maxInValues, len(userIDs))

		docs, err := r.store.Find(ctx, docstore.From(models.CollectionUsers).
			Where(models.FieldUID, docstore.OpIn, userIDs[start:end]))
		if err != nil {
			return nil, fmt.Errorf("failed to load profiles: %w", err)
		}
		profiles = append(profiles, decodeAll(docs, profileFromDoc)...)
	}
	return profiles, nil
}

func (r *profileRepository) ListIDs(ctx context.Context) ([]string, error) {
	docs, err := r.store.Find(ctx, docstore.From(models.CollectionUsers))
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func settingsToData(s models.NotificationSettings) map[string]any {
	return map[string]any{
		string(models.CategoryNestNotes): s.NestNotes,
		string(models.CategoryMessages):  s.Messages,
		string(models.CategoryCalendar):  s.Calendar,
	}
}

// settingsFromData treats a missing map or key as enabled.
func settingsFromData(data map[string]any) models.NotificationSettings {
	enabled := func(category models.NotificationCategory) bool {
		v, ok := data[string(category)].(bool)
		return !ok || v
	}
	return models.NotificationSettings{
		NestNotes: enabled(models.CategoryNestNotes),
		Messages:  enabled(models.CategoryMessages),
		Calendar:  enabled(models.CategoryCalendar),
	}
}

func profileFromDoc(doc docstore.Document) *models.UserProfile {
	d := doc.Data
	profile := &models.UserProfile{
		UserID:               doc.ID,
		DisplayName:          docstore.String(d, models.FieldDisplayName),
		Email:                docstore.String(d, models.FieldEmail),
		Phone:                docstore.String(d, models.FieldPhone),
		ProfileImageURL:      docstore.String(d, models.FieldProfileImageURL),
		Children:             []models.Child{},
		ShowEmail:            docstore.Bool(d, models.FieldShowEmail),
		ShowPhone:            docstore.Bool(d, models.FieldShowPhone),
		NotificationSettings: settingsFromData(docstore.Map(d, models.FieldNotificationSettings)),
		ProfileComplete:      docstore.Bool(d, models.FieldProfileComplete),
		PushToken:            docstore.String(d, models.FieldPushToken),
		CreatedAt:            docstore.Time(d, models.FieldCreatedAt),
	}

	for _, c := range docstore.Maps(d, models.FieldChildren) {
		profile.Children = append(profile.Children, models.Child{
			Name:          docstore.String(c, "name"),
			Age:           docstore.String(c, "age"),
			BirthYear:     int(docstore.Int(c, "birthYear")),
			BirthMonth:    int(docstore.Int(c, "birthMonth")),
			DaysAttending: docstore.Strings(c, "daysAttending"),
		})
	}
	return profile
}
