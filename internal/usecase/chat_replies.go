package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nguyentranbao-ct/hds-chat/internal/llm"
	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	log "github.com/nguyentranbao-ct/hds-chat/pkg/logger/log_context"
)

// pickFormType draws the form of a simulated form request.
func (c *ChatUsecase) pickFormType() models.FormType {
	switch {
	case c.random() > 0.6:
		return models.FormSymptomReport
	case c.random() > 0.3:
		return models.FormMedicationReport
	default:
		return models.FormFeedback
	}
}

func (c *ChatUsecase) replyDelay() time.Duration {
	lo, hi := c.opts.ReplyMinDelay, c.opts.ReplyMaxDelay
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(c.random()*float64(hi-lo))
}

// maybeReply schedules a simulated counterpart reply. Demo affordance of the mock
// source only.
func (c *ChatUsecase) maybeReply(ctx, sessionCtx context.Context, user models.User, conv models.Conversation, content string) {
	if !c.opts.DemoReplies || c.opts.Source == SourceRemote {
		return
	}
	if c.random() >= c.opts.ReplyProbability {
		return
	}
	var counterpart string
	for _, p := range conv.Participants {
		if p != user.ID {
			counterpart = p
			break
		}
	}
	if counterpart == "" {
		return
	}
	if err := sleepCtx(sessionCtx, c.replyDelay()); err != nil {
		return
	}

	reply := models.Message{
		ID:        "msg_" + uuid.NewString(),
		SenderID:  counterpart,
		Timestamp: c.now().UnixMilli(),
	}
	if c.random() < c.opts.FormProbability {
		formType := c.pickFormType()
		reply.HasForm = true
		reply.FormType = formType
		reply.Content = c.translator.Render(ctx, "message.formRequest", map[string]any{
			"form": strings.Replace(string(formType), "Report", "", 1),
		})
	} else {
		reply.Content = c.generateReply(ctx, sessionCtx, user, conv, counterpart, content)
	}
	if sessionCtx.Err() != nil {
		return
	}
	c.deliver(conv.ID, reply)
}

func (c *ChatUsecase) generateReply(ctx, sessionCtx context.Context, user models.User, conv models.Conversation, counterpart, content string) string {
	name := counterpart
	for _, ct := range c.Contacts() {
		if ct.ID == counterpart {
			name = ct.DisplayName
			break
		}
	}
	var history []models.Message
	if cur := c.CurrentConversation(); cur != nil && cur.ID == conv.ID {
		history = c.Messages()
		// the message being answered is passed separately
		if n := len(history); n > 0 && history[n-1].SenderID == user.ID && history[n-1].Content == content {
			history = history[:n-1]
		}
	}

	text, err := c.responder.Reply(sessionCtx, llm.ReplyInput{
		ContactName: name,
		UserID:      user.ID,
		Language:    c.translator.CurrentLanguage(),
		Message:     content,
		History:     history,
	})
	if err != nil {
		log.Warnw(ctx, "Falling back to canned reply", "error", err)
		return c.translator.Render(ctx, "message.autoReply", map[string]any{"content": content})
	}
	return text
}

// deliver appends an incoming message to the displayed list when its
// conversation is current.
func (c *ChatUsecase) deliver(convID string, msg models.Message) {
	c.mu.Lock()
	if c.currentID == convID {
		c.messages = append(c.messages, msg)
		models.MarkAvatars(c.messages)
	}
	c.mu.Unlock()
	c.setLastMessage(convID, msg, true)
}
