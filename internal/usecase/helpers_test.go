package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/hds-chat/internal/i18n"
	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/changefeed"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/hds"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/localstore"
)

type fakeConnection struct {
	endpoint string

	accessInfoErr error
	eventsErr     error
	createErr     error

	mu          sync.Mutex
	accesses    []models.Access
	events      []json.RawMessage
	deletions   []models.EventDeletion
	created     []models.EventInput
	accessCalls atomic.Int32
	eventCalls  atomic.Int32
}

func newFakeConnection(username string) *fakeConnection {
	return &fakeConnection{endpoint: "https://tok@" + username + ".example.com/"}
}

func (c *fakeConnection) Endpoint() string { return c.endpoint }
func (c *fakeConnection) Base() string     { return "https://example.com/" }
func (c *fakeConnection) Token() string    { return "tok" }

func (c *fakeConnection) AccessInfo(context.Context) (*models.AccessInfo, error) {
	if c.accessInfoErr != nil {
		return nil, c.accessInfoErr
	}
	return &models.AccessInfo{ID: "personal", Type: "personal"}, nil
}

func (c *fakeConnection) GetAccesses(context.Context) ([]models.Access, error) {
	c.accessCalls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Access(nil), c.accesses...), nil
}

func (c *fakeConnection) GetEvents(context.Context, hds.EventsQuery) (*hds.EventsResult, error) {
	c.eventCalls.Add(1)
	if c.eventsErr != nil {
		return nil, c.eventsErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	res := &hds.EventsResult{Events: c.events, Deletions: c.deletions}
	c.events, c.deletions = nil, nil
	return res, nil
}

func (c *fakeConnection) CreateEvent(_ context.Context, in models.EventInput) (*models.Event, error) {
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created = append(c.created, in)
	content, err := json.Marshal(in.Content)
	if err != nil {
		return nil, err
	}
	return &models.Event{
		ID:        "created-" + string(rune('a'+len(c.created)-1)),
		StreamIDs: in.StreamIDs,
		Type:      in.Type,
		Content:   content,
		Time:      in.Time,
	}, nil
}

func (c *fakeConnection) push(events []json.RawMessage, deletions []models.EventDeletion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
	c.deletions = append(c.deletions, deletions...)
}

var errBadCredentials = errors.New("invalid credentials")

type fakeConnector struct {
	conn     *fakeConnection
	password string
	regErr   error
}

func (f *fakeConnector) Login(_ context.Context, _ string, password string) (HDSConnection, error) {
	if password != f.password {
		return nil, errBadCredentials
	}
	return f.conn, nil
}

func (f *fakeConnector) Register(context.Context, string, string, string) (HDSConnection, error) {
	if f.regErr != nil {
		return nil, f.regErr
	}
	return f.conn, nil
}

func (f *fakeConnector) Open(endpoint string) (HDSConnection, error) {
	if endpoint != f.conn.endpoint {
		return &fakeConnection{endpoint: endpoint, accessInfoErr: models.ErrAuthentication}, nil
	}
	return f.conn, nil
}

// manualFeeds hands out feeds driven by the test.
type manualFeeds struct {
	kinds chan changefeed.Kind
}

func newManualFeeds() *manualFeeds {
	return &manualFeeds{kinds: make(chan changefeed.Kind)}
}

func (m *manualFeeds) factory(changefeed.Target) changefeed.Feed { return m }

func (m *manualFeeds) Run(ctx context.Context, notify func(changefeed.Kind)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case k := <-m.kinds:
			notify(k)
		}
	}
}

type recordingPublisher struct {
	mu         sync.Mutex
	activities []models.Activity
}

func (p *recordingPublisher) Publish(_ context.Context, a models.Activity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activities = append(p.activities, a)
}

func (p *recordingPublisher) Close(context.Context) error { return nil }

func (p *recordingPublisher) kinds() []models.ActivityKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.ActivityKind, len(p.activities))
	for i, a := range p.activities {
		out[i] = a.Kind
	}
	return out
}

func newTestTranslator() *i18n.Store {
	return i18n.NewStore(nil, "en")
}

func newTestStore(t *testing.T) localstore.Store {
	t.Helper()
	s, err := localstore.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	return s
}

func rawEvent(t *testing.T, e models.Event) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return data
}
