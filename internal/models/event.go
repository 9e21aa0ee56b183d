package models

import (
	"strings"

	"github.com/goccy/go-json"
)

// Event is an HDS event (diary entry, chat message, request...).
type Event struct {
	ID         string          `json:"id" validate:"required"`
	StreamIDs  []string        `json:"streamIds" validate:"required,min=1,dive,required"`
	StreamID   string          `json:"streamId,omitempty"`
	Type       string          `json:"type" validate:"required,eventtype"`
	Content    json.RawMessage `json:"content,omitempty"`
	Time       float64         `json:"time" validate:"gte=0"`
	Duration   *float64        `json:"duration,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	Trashed    bool            `json:"trashed,omitempty"`
	Created    float64         `json:"created,omitempty"`
	CreatedBy  string          `json:"createdBy,omitempty"`
	Modified   float64         `json:"modified,omitempty"`
	ModifiedBy string          `json:"modifiedBy,omitempty"`
}

// PrimaryStream returns the first stream id, falling back to the legacy field.
func (e Event) PrimaryStream() string {
	if len(e.StreamIDs) > 0 {
		return e.StreamIDs[0]
	}
	return e.StreamID
}

// EventTypeClass returns the class part of a "class/format" type.
func (e Event) EventTypeClass() string {
	class, _, _ := strings.Cut(e.Type, "/")
	return class
}

// EventDeletion is the tombstone reported by events.get with includeDeletions.
type EventDeletion struct {
	ID      string  `json:"id"`
	Deleted float64 `json:"deleted"`
}

// EventInput is the payload of events.create.
type EventInput struct {
	StreamIDs []string `json:"streamIds"`
	Type      string   `json:"type"`
	Content   any      `json:"content,omitempty"`
	Time      float64  `json:"time,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

const (
	// ChatMessageEventType is the event type used to store chat messages.
	ChatMessageEventType = "message/hds-chat-v1"
	ChatStreamID         = "chat"
	// CollectorRequestEventType is a data collection request sent by a requester.
	CollectorRequestEventType = "request/collector-client-v1"
)

// ChatMessageContent is the content of a ChatMessageEventType event.
type ChatMessageContent struct {
	ConversationID string   `json:"conversationId"`
	SenderID       string   `json:"senderId"`
	Text           string   `json:"text"`
	FormType       FormType `json:"formType,omitempty"`
	FormCompleted  bool     `json:"formCompleted,omitempty"`
}
