package usecase

import (
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
)

func mockContacts() []models.Contact {
	return []models.Contact{
		{
			ID:           "contact_1",
			Username:     "sarah_parker",
			DisplayName:  "Sarah Parker",
			Status:       models.ContactOnline,
			Phone:        "+1 (555) 123-4567",
			Organization: "General Hospital",
		},
		{
			ID:           "contact_2",
			Username:     "mike_johnson",
			DisplayName:  "Mike Johnson",
			Status:       models.ContactAway,
			Phone:        "+1 (555) 987-6543",
			Organization: "City Medical Center",
		},
		{
			ID:           "contact_3",
			Username:     "emma_williams",
			DisplayName:  "Emma Williams",
			Status:       models.ContactOffline,
			Phone:        "+1 (555) 456-7890",
			Organization: "Private Practice",
		},
	}
}

// mockConversations builds one direct conversation per contact plus a group.
func mockConversations(userID string, contacts []models.Contact, intn func(int) int) []models.Conversation {
	convs := make([]models.Conversation, 0, len(contacts)+1)
	group := []string{userID}
	for i, c := range contacts {
		convs = append(convs, models.Conversation{
			ID:           fmt.Sprintf("conversation_%d", i+1),
			Participants: []string{userID, c.ID},
			UnreadCount:  intn(5),
		})
		group = append(group, c.ID)
	}
	return append(convs, models.Conversation{
		ID:           "conversation_group_1",
		Participants: group,
		Name:         "Project Team",
		UnreadCount:  2,
	})
}

// mockFormType picks the form embedded in every fifth message from a contact.
func mockFormType(index int) models.FormType {
	switch {
	case index%15 == 0:
		return models.FormSymptomReport
	case index%10 == 0:
		return models.FormMedicationReport
	default:
		return models.FormFeedback
	}
}

// mockMessages generates 15 to 24 messages five minutes apart, rotating through
// the participants.
func mockMessages(conv models.Conversation, userID string, now time.Time, intn func(int) int) []models.Message {
	count := 15 + intn(10)
	msgs := make([]models.Message, 0, count)
	for i := 0; i < count; i++ {
		sender := conv.Participants[i%len(conv.Participants)]
		msg := models.Message{
			ID:        fmt.Sprintf("msg_%s_%d", conv.ID, i),
			SenderID:  sender,
			Content:   fmt.Sprintf("This is message %d in conversation %s", i+1, conv.ID),
			Timestamp: now.Add(-time.Duration(count-i) * 5 * time.Minute).UnixMilli(),
			Read:      true,
		}
		if i%5 == 0 && sender != userID {
			msg.HasForm = true
			msg.FormType = mockFormType(i)
		}
		msgs = append(msgs, msg)
	}
	return msgs
}
