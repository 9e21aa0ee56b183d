package server

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	"github.com/nguyentranbao-ct/hds-chat/internal/usecase"
)

// Session is the session holder as seen by the API.
type Session interface {
	Login(ctx context.Context, identifier, password string) (*models.User, error)
	Register(ctx context.Context, email, username, password string) (*models.User, error)
	RestoreSession(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context)
	CurrentUser() *models.User
	IsLoading() bool
	IssueToken() (string, time.Time, error)
	AuthorizeClaims(token string) (*models.User, *jwt.RegisteredClaims, error)
}

// Chat is the conversation manager as seen by the API.
type Chat interface {
	Contacts() []models.Contact
	Conversations() []models.Conversation
	CurrentConversation() *models.Conversation
	Messages() []models.Message
	IsLoadingMessages() bool
	StartNewConversation(ctx context.Context, contactID string) (*models.Conversation, bool)
	SelectConversation(ctx context.Context, id string) bool
	Deselect()
	SendMessage(ctx context.Context, content string) *models.Message
	CompleteMessageForm(ctx context.Context, messageID string) bool
}

type Diary interface {
	Items(limit int) []models.ChatItem
}

type Notifications interface {
	Drain() []models.Notification
}

type Translations interface {
	Table() map[string]string
	CurrentLanguage() string
	Available() []string
	ChangeLanguage(ctx context.Context, lang string) (bool, error)
}

// ChangeSource reports cache changes pushed to socket clients.
type ChangeSource interface {
	OnChange(fn func(usecase.SyncChange)) (unsubscribe func())
}

type Handler struct {
	session       Session
	chat          Chat
	diary         Diary
	notifications Notifications
	translations  Translations
	changes       ChangeSource
}

func NewHandler(
	session Session,
	chat Chat,
	diary Diary,
	notifications Notifications,
	translations Translations,
	changes ChangeSource,
) *Handler {
	return &Handler{
		session:       session,
		chat:          chat,
		diary:         diary,
		notifications: notifications,
		translations:  translations,
		changes:       changes,
	}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "hds-chat",
		"loading": h.session.IsLoading(),
	})
}
