package usecase

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nguyentranbao-ct/hds-chat/internal/kafka"
	"github.com/nguyentranbao-ct/hds-chat/internal/llm"
	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	log "github.com/nguyentranbao-ct/hds-chat/pkg/logger/log_context"
)

const (
	SourceMock   = "mock"
	SourceRemote = "remote"
)

type ChatOptions struct {
	Source           string
	DemoReplies      bool
	ReplyProbability float64
	FormProbability  float64
	ReplyMinDelay    time.Duration
	ReplyMaxDelay    time.Duration
	LoadDelay        time.Duration
	SendDelay        time.Duration
}

// ChatUsecase derives conversations from contacts, tracks the selected
// conversation and its messages, and applies user actions optimistically.
type ChatUsecase struct {
	source     messageSource
	responder  llm.Responder
	notifier   *Notifier
	translator Translator
	publisher  kafka.Publisher
	opts       ChatOptions

	random func() float64
	now    func() time.Time

	mu            sync.Mutex
	user          *models.User
	sessionCtx    context.Context
	cancelSession context.CancelFunc
	contacts      []models.Contact
	conversations []models.Conversation
	currentID     string
	messages      []models.Message
	loading       bool
	// completedForms outlives reloads, which rebuild messages from the source.
	completedForms map[string]bool
	// selection is bumped on every selection change; loads started for an older
	// selection are discarded.
	selection     uint64
	refreshQueued bool
	tasks         sync.WaitGroup
}

func NewChatUsecase(
	syncClient SyncClient,
	responder llm.Responder,
	notifier *Notifier,
	translator Translator,
	publisher kafka.Publisher,
	opts ChatOptions,
) *ChatUsecase {
	c := &ChatUsecase{
		responder:  responder,
		notifier:   notifier,
		translator: translator,
		publisher:  publisher,
		opts:       opts,
		random:     rand.Float64,
		now:        time.Now,
	}
	if opts.Source == SourceRemote {
		c.source = &remoteSource{sync: syncClient}
		syncClient.OnChange(c.onSyncChange)
	} else {
		c.source = &mockSource{
			loadDelay: opts.LoadDelay,
			sendDelay: opts.SendDelay,
			intn:      c.intn,
			now:       func() time.Time { return c.now() },
		}
	}
	return c
}

func (c *ChatUsecase) intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(c.random() * float64(n))
}

// HandleSession follows the session holder: a user starts the manager, nil
// resets it.
func (c *ChatUsecase) HandleSession(ctx context.Context, user *models.User) {
	if user == nil {
		c.Reset()
		return
	}
	c.Start(ctx, *user)
}

// Start loads contacts and conversations for user, dropping any previous state.
func (c *ChatUsecase) Start(ctx context.Context, user models.User) {
	c.Reset()

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.mu.Lock()
	c.user = &user
	c.sessionCtx = sessionCtx
	c.cancelSession = cancel
	c.mu.Unlock()

	c.Refresh(ctx)
}

// Refresh reloads contacts and conversations, keeping unread counters and cached
// last messages of conversations that survive. A newer last message from someone
// else in a conversation that is not displayed counts as unread.
func (c *ChatUsecase) Refresh(ctx context.Context) {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()
	if user == nil {
		return
	}

	contacts, err := c.source.Contacts(ctx)
	if err != nil {
		log.Errorw(ctx, "Failed to load contacts", "error", err)
		contacts = nil
	}
	convs, err := c.source.Conversations(ctx, *user, contacts)
	if err != nil {
		log.Errorw(ctx, "Failed to load conversations", "error", err)
		convs = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil || c.user.ID != user.ID {
		return
	}
	prev := make(map[string]models.Conversation, len(c.conversations))
	for _, conv := range c.conversations {
		prev[conv.ID] = conv
	}
	for i := range convs {
		old, ok := prev[convs[i].ID]
		if !ok {
			continue
		}
		delete(prev, convs[i].ID)
		convs[i].UnreadCount = old.UnreadCount
		switch {
		case convs[i].LastMessage == nil:
			convs[i].LastMessage = old.LastMessage
		case convs[i].ID != c.currentID && isNewIncoming(*convs[i].LastMessage, old.LastMessage, user.ID):
			convs[i].UnreadCount++
		}
	}
	// conversations started locally are not known to the source
	for _, conv := range c.conversations {
		if _, ok := prev[conv.ID]; ok {
			convs = append(convs, conv)
		}
	}
	c.contacts = contacts
	c.conversations = convs
}

func isNewIncoming(msg models.Message, prev *models.Message, userID string) bool {
	if msg.SenderID == userID {
		return false
	}
	return prev == nil || (msg.ID != prev.ID && msg.Timestamp >= prev.Timestamp)
}

// Reset drops all state and cancels pending loads, sends and replies.
func (c *ChatUsecase) Reset() {
	c.mu.Lock()
	if c.cancelSession != nil {
		c.cancelSession()
	}
	c.user = nil
	c.sessionCtx = nil
	c.cancelSession = nil
	c.contacts = nil
	c.conversations = nil
	c.currentID = ""
	c.messages = nil
	c.loading = false
	c.completedForms = nil
	c.selection++
	c.mu.Unlock()
}

func (c *ChatUsecase) Conversations() []models.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Conversation, len(c.conversations))
	for i, conv := range c.conversations {
		out[i] = conv.Clone()
	}
	return out
}

func (c *ChatUsecase) Contacts() []models.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Contact(nil), c.contacts...)
}

func (c *ChatUsecase) CurrentConversation() *models.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(c.currentID)
	if i < 0 {
		return nil
	}
	conv := c.conversations[i].Clone()
	return &conv
}

func (c *ChatUsecase) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Message(nil), c.messages...)
}

func (c *ChatUsecase) IsLoadingMessages() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *ChatUsecase) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range c.conversations {
		if c.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

// SelectConversation makes id current and loads its messages. An unknown id
// clears the selection and returns false.
func (c *ChatUsecase) SelectConversation(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexLocked(id) < 0 {
		c.clearSelectionLocked()
		return false
	}
	if id != c.currentID {
		c.selectLocked(ctx, id)
	}
	return true
}

// Deselect returns to the no conversation state.
func (c *ChatUsecase) Deselect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearSelectionLocked()
}

func (c *ChatUsecase) clearSelectionLocked() {
	c.currentID = ""
	c.messages = nil
	c.loading = false
	c.selection++
}

// selectLocked switches to conversation id and starts loading its messages.
// Caller holds mu.
func (c *ChatUsecase) selectLocked(ctx context.Context, id string) {
	c.currentID = id
	c.messages = nil
	c.loading = true
	c.selection++
	c.conversations[c.indexLocked(id)].UnreadCount = 0
	c.loadLocked(ctx, id, c.selection)
}

func (c *ChatUsecase) loadLocked(ctx context.Context, id string, selection uint64) {
	if c.user == nil || c.sessionCtx == nil {
		c.loading = false
		return
	}
	user := *c.user
	conv := c.conversations[c.indexLocked(id)].Clone()
	sessionCtx := c.sessionCtx

	c.tasks.Add(1)
	go func() {
		defer c.tasks.Done()
		msgs, err := c.source.Messages(sessionCtx, user, conv)
		if err != nil && sessionCtx.Err() == nil {
			log.Errorw(ctx, "Failed to load messages", "conversation_id", id, "error", err)
		}
		c.applyMessages(id, selection, msgs, err)
	}()
}

// applyMessages installs loaded messages unless the selection moved on. Locally
// sent messages the source does not return are kept at the end.
func (c *ChatUsecase) applyMessages(id string, selection uint64, msgs []models.Message, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if selection != c.selection || id != c.currentID {
		return
	}
	c.loading = false
	if i := c.indexLocked(id); i >= 0 {
		c.conversations[i].UnreadCount = 0
	}
	if err != nil {
		return
	}

	loaded := make(map[string]bool, len(msgs))
	for i := range msgs {
		loaded[msgs[i].ID] = true
		if c.completedForms[msgs[i].ID] {
			msgs[i].CompleteForm()
		}
	}
	for _, m := range c.messages {
		if !loaded[m.ID] && m.Status != "" {
			msgs = append(msgs, m)
		}
	}
	models.MarkAvatars(msgs)
	c.messages = msgs
}

// StartNewConversation selects the direct conversation with contactID, creating
// it when needed.
func (c *ChatUsecase) StartNewConversation(ctx context.Context, contactID string) (*models.Conversation, bool) {
	c.mu.Lock()
	if c.user == nil || contactID == "" {
		c.mu.Unlock()
		return nil, false
	}
	userID := c.user.ID

	for _, conv := range c.conversations {
		if conv.IsDirectWith(userID, contactID) {
			if conv.ID != c.currentID {
				c.selectLocked(ctx, conv.ID)
			}
			out := conv.Clone()
			c.mu.Unlock()
			return &out, true
		}
	}

	conv := models.Conversation{
		ID:           "conversation_" + uuid.NewString(),
		Participants: []string{userID, contactID},
	}
	c.conversations = append(c.conversations, conv)
	c.selectLocked(ctx, conv.ID)
	c.mu.Unlock()

	c.notifier.Notify(ctx, models.NotifySuccess, "message.conversationStarted", nil)
	c.publisher.Publish(ctx, models.Activity{
		Kind:           models.ActivityConversationStarted,
		UserID:         userID,
		ConversationID: conv.ID,
		At:             c.now(),
	})
	out := conv.Clone()
	return &out, true
}

// SendMessage appends the message right away with a pending status and stores it
// in the background. Empty content, no selection or no user is a no-op.
func (c *ChatUsecase) SendMessage(ctx context.Context, content string) *models.Message {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	c.mu.Lock()
	i := c.indexLocked(c.currentID)
	if c.user == nil || i < 0 || c.sessionCtx == nil {
		c.mu.Unlock()
		return nil
	}
	user := *c.user
	conv := c.conversations[i].Clone()
	sessionCtx := c.sessionCtx
	msg := models.Message{
		ID:        "msg_" + uuid.NewString(),
		SenderID:  user.ID,
		Content:   content,
		Timestamp: c.now().UnixMilli(),
		Read:      false,
		Status:    models.MessagePending,
	}
	c.messages = append(c.messages, msg)
	models.MarkAvatars(c.messages)
	c.tasks.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.tasks.Done()
		storedID, err := c.source.Store(sessionCtx, user, conv, msg)
		if sessionCtx.Err() != nil {
			return
		}
		if err != nil {
			log.Errorw(ctx, "Failed to send message", "conversation_id", conv.ID, "error", err)
			c.setStatus(conv.ID, msg.ID, msg.ID, models.MessageFailed)
			c.notifier.Notify(ctx, models.NotifyError, "message.sendFailed", nil)
			c.publish(ctx, models.ActivityMessageFailed, user.ID, conv.ID, msg.ID)
			return
		}

		sent := msg
		sent.ID = storedID
		sent.Status = models.MessageSent
		c.setStatus(conv.ID, msg.ID, storedID, models.MessageSent)
		c.setLastMessage(conv.ID, sent, false)
		c.publish(ctx, models.ActivityMessageSent, user.ID, conv.ID, storedID)
		c.maybeReply(ctx, sessionCtx, user, conv, content)
	}()

	out := msg
	return &out
}

func (c *ChatUsecase) publish(ctx context.Context, kind models.ActivityKind, userID, convID, msgID string) {
	c.publisher.Publish(ctx, models.Activity{
		Kind:           kind,
		UserID:         userID,
		ConversationID: convID,
		MessageID:      msgID,
		At:             c.now(),
	})
}

// setStatus updates a displayed local message, renaming it to the id the source
// stored it under.
func (c *ChatUsecase) setStatus(convID, msgID, storedID string, status models.MessageStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentID != convID {
		return
	}
	for i := range c.messages {
		if c.messages[i].ID == storedID && storedID != msgID {
			// a reload already brought the stored copy
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			models.MarkAvatars(c.messages)
			break
		}
	}
	for i := range c.messages {
		if c.messages[i].ID == msgID {
			c.messages[i].ID = storedID
			c.messages[i].Status = status
			return
		}
	}
}

// setLastMessage caches msg on its conversation. Incoming messages for a
// conversation that is not displayed count as unread.
func (c *ChatUsecase) setLastMessage(convID string, msg models.Message, incoming bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(convID)
	if i < 0 {
		return
	}
	c.conversations[i].LastMessage = &msg
	if incoming && c.currentID != convID {
		c.conversations[i].UnreadCount++
	}
}

// CompleteMessageForm marks the form of messageID completed, for good: later
// reloads of the thread keep it completed. Unknown ids are a no-op.
func (c *ChatUsecase) CompleteMessageForm(ctx context.Context, messageID string) bool {
	c.mu.Lock()
	var found bool
	var userID, convID string
	for i := range c.messages {
		if c.messages[i].ID == messageID {
			c.messages[i].CompleteForm()
			if c.completedForms == nil {
				c.completedForms = map[string]bool{}
			}
			c.completedForms[messageID] = true
			found = true
			break
		}
	}
	if found && c.user != nil {
		userID, convID = c.user.ID, c.currentID
	}
	c.mu.Unlock()

	if found {
		c.publish(ctx, models.ActivityFormCompleted, userID, convID, messageID)
	}
	return found
}

// onSyncChange reloads the remote view after the event or access cache changed.
func (c *ChatUsecase) onSyncChange(change SyncChange) {
	if change.Kind == SyncReset {
		return
	}

	c.mu.Lock()
	if c.user == nil || c.sessionCtx == nil || c.refreshQueued {
		c.mu.Unlock()
		return
	}
	ctx := c.sessionCtx
	c.refreshQueued = true
	c.tasks.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.tasks.Done()
		c.mu.Lock()
		c.refreshQueued = false
		c.mu.Unlock()

		c.Refresh(ctx)
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.indexLocked(c.currentID) >= 0 && !c.loading {
			c.loadLocked(ctx, c.currentID, c.selection)
		}
	}()
}

// wait blocks until background loads, sends and replies are done.
func (c *ChatUsecase) wait() {
	c.tasks.Wait()
}
