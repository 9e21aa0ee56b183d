package server

import (
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
)

type contactsResponse struct {
	Contacts []models.Contact `json:"contacts"`
}

func (h *Handler) Contacts(_ echo.Context, _ emptyRequest) (*contactsResponse, error) {
	return &contactsResponse{Contacts: nonNil(h.chat.Contacts())}, nil
}

type conversationsResponse struct {
	Conversations []models.Conversation `json:"conversations"`
	Current       *models.Conversation  `json:"current"`
}

func (h *Handler) Conversations(_ echo.Context, _ emptyRequest) (*conversationsResponse, error) {
	return &conversationsResponse{
		Conversations: nonNil(h.chat.Conversations()),
		Current:       h.chat.CurrentConversation(),
	}, nil
}

type startConversationRequest struct {
	ContactID string `json:"contactId" validate:"required"`
}

func (h *Handler) StartConversation(c echo.Context, req startConversationRequest) (*models.Conversation, error) {
	conv, ok := h.chat.StartNewConversation(c.Request().Context(), req.ContactID)
	if !ok {
		return nil, models.ErrNotAuthenticated
	}
	return conv, nil
}

type selectConversationRequest struct {
	ID string `param:"id" validate:"required"`
}

func (h *Handler) SelectConversation(c echo.Context, req selectConversationRequest) (*models.Conversation, error) {
	if !h.chat.SelectConversation(c.Request().Context(), req.ID) {
		return nil, models.ErrNotFound
	}
	return h.chat.CurrentConversation(), nil
}

func (h *Handler) Deselect(_ echo.Context, _ emptyRequest) error {
	h.chat.Deselect()
	return nil
}

type messagesResponse struct {
	ConversationID string           `json:"conversationId"`
	Loading        bool             `json:"loading"`
	Messages       []models.Message `json:"messages"`
}

func (h *Handler) Messages(_ echo.Context, _ emptyRequest) (*messagesResponse, error) {
	resp := &messagesResponse{
		Loading:  h.chat.IsLoadingMessages(),
		Messages: nonNil(h.chat.Messages()),
	}
	if conv := h.chat.CurrentConversation(); conv != nil {
		resp.ConversationID = conv.ID
	}
	return resp, nil
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// SendMessage answers with the optimistic copy. Whitespace only content or no
// selected conversation is reported as an invalid payload.
func (h *Handler) SendMessage(c echo.Context, req sendMessageRequest) (*models.Message, error) {
	msg := h.chat.SendMessage(c.Request().Context(), req.Content)
	if msg == nil {
		return nil, models.ErrInvalidPayload
	}
	return msg, nil
}

type completeFormRequest struct {
	ID string `param:"id" validate:"required"`
}

func (h *Handler) CompleteForm(c echo.Context, req completeFormRequest) error {
	if !h.chat.CompleteMessageForm(c.Request().Context(), req.ID) {
		return models.ErrNotFound
	}
	return nil
}

type diaryRequest struct {
	Limit int `query:"limit" validate:"gte=0,lte=1000"`
}

type diaryResponse struct {
	Items []models.ChatItem `json:"items"`
}

func (h *Handler) Diary(_ echo.Context, req diaryRequest) (*diaryResponse, error) {
	return &diaryResponse{Items: nonNil(h.diary.Items(req.Limit))}, nil
}

type notificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

func (h *Handler) Notifications(_ echo.Context, _ emptyRequest) (*notificationsResponse, error) {
	return &notificationsResponse{Notifications: nonNil(h.notifications.Drain())}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
