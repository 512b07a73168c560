package models

// Document field names. They are shared by the repositories and the account
// purge, which query the store directly.
const (
	FieldCreatedAt = "createdAt"
	FieldEditedAt  = "editedAt"
	FieldText      = "text"

	// users
	FieldUID                  = "uid"
	FieldDisplayName          = "displayName"
	FieldEmail                = "email"
	FieldPhone                = "phone"
	FieldProfileImageURL      = "profileImageUrl"
	FieldChildren             = "children"
	FieldShowEmail            = "showEmail"
	FieldShowPhone            = "showPhone"
	FieldNotificationSettings = "notificationSettings"
	FieldProfileComplete      = "profileComplete"
	FieldPushToken            = "pushToken"

	// posts and comments
	FieldUserID                = "userId"
	FieldAuthorDisplayName     = "authorDisplayName"
	FieldAuthorEmail           = "authorEmail"
	FieldAuthorProfileImageURL = "authorProfileImageUrl"
	FieldImageURL              = "imageUrl"
	FieldImagePath             = "imagePath"
	FieldLikes                 = "likes"
	FieldCommentCount          = "commentCount"

	// events
	FieldTitle                = "title"
	FieldDescription          = "description"
	FieldDate                 = "date"
	FieldTime                 = "time"
	FieldEndTime              = "endTime"
	FieldLocation             = "location"
	FieldCategory             = "category"
	FieldCreatedBy            = "createdBy"
	FieldCreatedByEmail       = "createdByEmail"
	FieldCreatedByDisplayName = "createdByDisplayName"
	FieldCreatedByImageURL    = "createdByImageUrl"
	FieldAttendees            = "attendees"
	FieldMaybeAttendees       = "maybeAttendees"
	FieldNotAttending         = "notAttending"
	FieldSeedBatch            = "seedBatch"

	// messages
	FieldSenderID       = "senderId"
	FieldRecipientID    = "recipientId"
	FieldConversationID = "conversationId"
	FieldRead           = "read"

	// conversations
	FieldParticipants        = "participants"
	FieldLastMessage         = "lastMessage"
	FieldLastMessageTime     = "lastMessageTime"
	FieldLastMessageSender   = "lastMessageSender"
	FieldUnreadCount         = "unreadCount"
	FieldDeletedParticipants = "deletedParticipants"

	// reports
	FieldReportedUserID = "reportedUserId"
	FieldReporterID     = "reporterId"
	FieldReason         = "reason"
	FieldStatus         = "status"
)

// RSVPField returns the event field holding the RSVP set for r.
func RSVPField(r RSVP) string {
	switch r {
	case RSVPGoing:
		return FieldAttendees
	case RSVPMaybe:
		return FieldMaybeAttendees
	case RSVPNotGoing:
		return FieldNotAttending
	}
	return ""
}

// RSVPFields lists every RSVP set field of an event.
var RSVPFields = []string{FieldAttendees, FieldMaybeAttendees, FieldNotAttending}
