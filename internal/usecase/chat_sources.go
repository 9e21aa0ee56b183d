package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
)

// messageSource provides the contacts, conversations and messages of the chat
// manager.
type messageSource interface {
	Contacts(ctx context.Context) ([]models.Contact, error)
	Conversations(ctx context.Context, user models.User, contacts []models.Contact) ([]models.Conversation, error)
	Messages(ctx context.Context, user models.User, conv models.Conversation) ([]models.Message, error)
	// Store persists msg and returns the id it is known by in the source.
	Store(ctx context.Context, user models.User, conv models.Conversation, msg models.Message) (string, error)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// mockSource serves generated demo data with simulated latency.
type mockSource struct {
	loadDelay time.Duration
	sendDelay time.Duration
	intn      func(int) int
	now       func() time.Time
}

func (s *mockSource) Contacts(context.Context) ([]models.Contact, error) {
	return mockContacts(), nil
}

func (s *mockSource) Conversations(_ context.Context, user models.User, contacts []models.Contact) ([]models.Conversation, error) {
	return mockConversations(user.ID, contacts, s.intn), nil
}

func (s *mockSource) Messages(ctx context.Context, user models.User, conv models.Conversation) ([]models.Message, error) {
	if err := sleepCtx(ctx, s.loadDelay); err != nil {
		return nil, err
	}
	return mockMessages(conv, user.ID, s.now(), s.intn), nil
}

func (s *mockSource) Store(ctx context.Context, _ models.User, _ models.Conversation, msg models.Message) (string, error) {
	if err := sleepCtx(ctx, s.sendDelay); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// remoteSource derives conversations from the synced accesses and messages from
// chat message events.
type remoteSource struct {
	sync SyncClient
}

func directConversationID(contactID string) string {
	return "dm_" + contactID
}

func (s *remoteSource) Contacts(ctx context.Context) ([]models.Contact, error) {
	return s.sync.GetContacts(ctx)
}

func (s *remoteSource) Conversations(_ context.Context, user models.User, contacts []models.Contact) ([]models.Conversation, error) {
	last := map[string]models.Message{}
	for _, m := range s.chatMessages(user) {
		if prev, ok := last[m.conversationID]; !ok || m.Timestamp >= prev.Timestamp {
			last[m.conversationID] = m.Message
		}
	}

	convs := make([]models.Conversation, 0, len(contacts))
	for _, c := range contacts {
		conv := models.Conversation{
			ID:           directConversationID(c.ID),
			Participants: []string{user.ID, c.ID},
		}
		if m, ok := last[conv.ID]; ok {
			conv.LastMessage = &m
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

func (s *remoteSource) Messages(_ context.Context, user models.User, conv models.Conversation) ([]models.Message, error) {
	var msgs []models.Message
	for _, m := range s.chatMessages(user) {
		if m.conversationID == conv.ID {
			msgs = append(msgs, m.Message)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Timestamp < msgs[j].Timestamp })
	return msgs, nil
}

func (s *remoteSource) Store(ctx context.Context, _ models.User, conv models.Conversation, msg models.Message) (string, error) {
	event, err := s.sync.StoreMessage(ctx, models.ChatMessageContent{
		ConversationID: conv.ID,
		SenderID:       msg.SenderID,
		Text:           msg.Content,
	})
	if err != nil {
		return "", err
	}
	return event.ID, nil
}

type remoteMessage struct {
	models.Message
	conversationID string
}

// chatMessages maps the cached chat message events. Events whose content does
// not decode or carries no conversation are skipped.
func (s *remoteSource) chatMessages(user models.User) []remoteMessage {
	var out []remoteMessage
	for _, e := range s.sync.Events() {
		if e.Type != models.ChatMessageEventType {
			continue
		}
		var content models.ChatMessageContent
		if err := json.Unmarshal(e.Content, &content); err != nil || content.ConversationID == "" {
			continue
		}
		sender := content.SenderID
		if sender == "" {
			sender = e.CreatedBy
		}
		msg := models.Message{
			ID:            e.ID,
			SenderID:      sender,
			Content:       content.Text,
			Timestamp:     int64(e.Time * 1000),
			Read:          true,
			HasForm:       content.FormType != "",
			FormType:      content.FormType,
			FormCompleted: content.FormCompleted,
		}
		if sender == user.ID {
			msg.Status = models.MessageSent
		}
		out = append(out, remoteMessage{Message: msg, conversationID: content.ConversationID})
	}
	return out
}
