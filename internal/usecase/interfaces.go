package usecase

import (
	"context"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/hds"
)

// Translator is the part of the translation store used by use cases.
type Translator interface {
	T(key string) string
	Render(ctx context.Context, key string, data any) string
	CurrentLanguage() string
}

// HDSConnection is an authenticated handle on one account.
type HDSConnection interface {
	Endpoint() string
	Base() string
	Token() string
	AccessInfo(ctx context.Context) (*models.AccessInfo, error)
	GetAccesses(ctx context.Context) ([]models.Access, error)
	GetEvents(ctx context.Context, q hds.EventsQuery) (*hds.EventsResult, error)
	CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error)
}

// HDSConnector opens connections on the platform.
type HDSConnector interface {
	Login(ctx context.Context, username, password string) (HDSConnection, error)
	Register(ctx context.Context, email, username, password string) (HDSConnection, error)
	Open(endpoint string) (HDSConnection, error)
}

// SyncClient is what the session holder and the chat manager need from the
// remote sync client.
type SyncClient interface {
	AuthenticateWithEndpoint(ctx context.Context, endpoint string) (HDSConnection, error)
	Authenticate(ctx context.Context, username, password string) (HDSConnection, error)
	Register(ctx context.Context, email, username, password string) (HDSConnection, error)
	GetContacts(ctx context.Context) ([]models.Contact, error)
	AccessForID(id string) (string, bool)
	Events() []models.Event
	StoreMessage(ctx context.Context, content models.ChatMessageContent) (*models.Event, error)
	OnChange(fn func(SyncChange)) (unsubscribe func())
	Reset()
}

type hdsConnector struct {
	client *hds.Client
}

// NewHDSConnector adapts the platform client to HDSConnector.
func NewHDSConnector(client *hds.Client) HDSConnector {
	return &hdsConnector{client: client}
}

func (c *hdsConnector) Login(ctx context.Context, username, password string) (HDSConnection, error) {
	conn, err := c.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *hdsConnector) Register(ctx context.Context, email, username, password string) (HDSConnection, error) {
	conn, err := c.client.Register(ctx, email, username, password)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *hdsConnector) Open(endpoint string) (HDSConnection, error) {
	conn, err := c.client.Open(endpoint)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
