package models

import (
	"time"
)

// Collection names in the document store.
const (
	CollectionUsers         = "users"
	CollectionPosts         = "posts"
	CollectionComments      = "comments"
	CollectionEvents        = "events"
	CollectionMessages      = "messages"
	CollectionConversations = "conversations"
	CollectionReports       = "reports"
)

// Values substituted for a removed account.
const (
	DeletedUserID      = "deleted-user"
	DeletedMessageText = "[message from deleted user]"
)

// AuthorSnapshot is the author's display data as it was when the content was
// written. It is copied, not joined, so old posts keep the name used at the time.
type AuthorSnapshot struct {
	UserID          string `json:"userId"`
	DisplayName     string `json:"displayName"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

type Child struct {
	Name          string   `json:"name" validate:"required"`
	Age           string   `json:"age,omitempty"`
	BirthYear     int      `json:"birthYear,omitempty"`
	BirthMonth    int      `json:"birthMonth,omitempty" validate:"omitempty,min=1,max=12"`
	DaysAttending []string `json:"daysAttending"`
}

type NotificationCategory string

const (
	CategoryNestNotes NotificationCategory = "nestNotes"
	CategoryMessages  NotificationCategory = "messages"
	CategoryCalendar  NotificationCategory = "calendar"
)

type NotificationSettings struct {
	NestNotes bool `json:"nestNotes"`
	Messages  bool `json:"messages"`
	Calendar  bool `json:"calendar"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{NestNotes: true, Messages: true, Calendar: true}
}

func (s NotificationSettings) Enabled(category NotificationCategory) bool {
	switch category {
	case CategoryNestNotes:
		return s.NestNotes
	case CategoryMessages:
		return s.Messages
	case CategoryCalendar:
		return s.Calendar
	}
	return false
}

type UserProfile struct {
	UserID               string               `json:"userId"`
	DisplayName          string               `json:"displayName"`
	Email                string               `json:"email"`
	Phone                string               `json:"phone,omitempty"`
	ProfileImageURL      string               `json:"profileImageUrl,omitempty"`
	Children             []Child              `json:"children"`
	ShowEmail            bool                 `json:"showEmail"`
	ShowPhone            bool                 `json:"showPhone"`
	NotificationSettings NotificationSettings `json:"notificationSettings"`
	ProfileComplete      bool                 `json:"profileComplete"`
	PushToken            string               `json:"-"`
	CreatedAt            time.Time            `json:"createdAt"`
}

// Snapshot returns the author metadata to embed in new content.
func (p *UserProfile) Snapshot() AuthorSnapshot {
	return AuthorSnapshot{
		UserID:          p.UserID,
		DisplayName:     p.DisplayName,
		Email:           p.Email,
		ProfileImageURL: p.ProfileImageURL,
	}
}

type Post struct {
	PostID       string         `json:"postId"`
	Author       AuthorSnapshot `json:"author"`
	Text         string         `json:"text"`
	ImageURL     string         `json:"imageUrl,omitempty"`
	ImagePath    string         `json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	EditedAt     *time.Time     `json:"editedAt,omitempty"`
	Likes        []string       `json:"likes"`
	CommentCount int64          `json:"commentCount"`
}

type Comment struct {
	CommentID string         `json:"commentId"`
	PostID    string         `json:"postId"`
	Author    AuthorSnapshot `json:"author"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"createdAt"`
}

type RSVP string

const (
	RSVPGoing    RSVP = "going"
	RSVPMaybe    RSVP = "maybe"
	RSVPNotGoing RSVP = "not-going"
)

type Event struct {
	EventID     string         `json:"eventId"`
	Title       string         `json:"title"`
	Date        time.Time      `json:"date"`
	Time        string         `json:"time"`
	EndTime     string         `json:"endTime,omitempty"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	Category    string         `json:"category"`
	Creator     AuthorSnapshot `json:"creator"`
	Going       []string       `json:"going"`
	Maybe       []string       `json:"maybe"`
	NotGoing    []string       `json:"notGoing"`
	SeedBatch   string         `json:"seedBatch,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	EditedAt    *time.Time     `json:"editedAt,omitempty"`
}

type Message struct {
	MessageID      string    `json:"messageId"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	RecipientID    string    `json:"recipientId"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
	Read           bool      `json:"read"`
}

type Conversation struct {
	ConversationID      string           `json:"conversationId"`
	Participants        []string         `json:"participants"`
	LastMessage         string           `json:"lastMessage"`
	LastMessageTime     time.Time        `json:"lastMessageTime"`
	LastMessageSender   string           `json:"lastMessageSender"`
	UnreadCount         map[string]int64 `json:"unreadCount,omitempty"`
	DeletedParticipants []string         `json:"-"`
}

// Counterpart returns the participant that is not userID.
func (c *Conversation) Counterpart(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportReviewed ReportStatus = "reviewed"
	ReportResolved ReportStatus = "resolved"
)

type Report struct {
	ReportID       string       `json:"reportId"`
	ReportedUserID string       `json:"reportedUserId"`
	ReporterID     string       `json:"reporterId"`
	Reason         string       `json:"reason"`
	Description    string       `json:"description"`
	CreatedAt      time.Time    `json:"createdAt"`
	Status         ReportStatus `json:"status"`
}
