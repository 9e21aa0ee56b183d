package models

type FormType string

const (
	FormSymptomReport    FormType = "symptomReport"
	FormMedicationReport FormType = "medicationReport"
	FormFeedback         FormType = "feedbackForm"
)

// MessageStatus tracks the delivery of a locally sent message.
type MessageStatus string

const (
	MessagePending MessageStatus = "pending"
	MessageSent    MessageStatus = "sent"
	MessageFailed  MessageStatus = "failed"
)

type Message struct {
	ID            string        `json:"id"`
	SenderID      string        `json:"senderId"`
	Content       string        `json:"content"`
	Timestamp     int64         `json:"timestamp"` // unix milliseconds
	Read          bool          `json:"read"`
	HasForm       bool          `json:"hasForm,omitempty"`
	FormType      FormType      `json:"formType,omitempty"`
	FormCompleted bool          `json:"formCompleted,omitempty"`
	Status        MessageStatus `json:"status,omitempty"`
	ShowAvatar    bool          `json:"showAvatar"`
}

// CompleteForm marks the embedded form as completed. A completed form never
// reverts to incomplete.
func (m *Message) CompleteForm() {
	m.FormCompleted = true
}

// MarkAvatars sets ShowAvatar on each message: only the first of a run of
// consecutive messages from the same sender shows the avatar.
func MarkAvatars(msgs []Message) {
	for i := range msgs {
		msgs[i].ShowAvatar = i == 0 || msgs[i-1].SenderID != msgs[i].SenderID
	}
}
