package models

import "time"

type ActivityKind string

const (
	ActivityLogin               ActivityKind = "login"
	ActivityLogout              ActivityKind = "logout"
	ActivityConversationStarted ActivityKind = "conversation_started"
	ActivityMessageSent         ActivityKind = "message_sent"
	ActivityMessageFailed       ActivityKind = "message_failed"
	ActivityFormCompleted       ActivityKind = "form_completed"
)

// Activity is published on the activity stream for analytics consumers.
type Activity struct {
	Kind           ActivityKind `json:"kind"`
	UserID         string       `json:"user_id"`
	ConversationID string       `json:"conversation_id,omitempty"`
	MessageID      string       `json:"message_id,omitempty"`
	At             time.Time    `json:"at"`
}
