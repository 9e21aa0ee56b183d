package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/changefeed"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/hds"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/monitor"
	log "github.com/nguyentranbao-ct/hds-chat/pkg/logger/log_context"
	"github.com/nguyentranbao-ct/hds-chat/pkg/util"
)

var syncEvents = util.MustCounterVec(
	"hds_sync_events_total",
	"Events handled by the sync client",
	"action",
)

const maxQuarantined = 100

var eventTypePattern = regexp.MustCompile(`^[a-z0-9-]+/[a-z0-9-]+$`)

type SyncChangeKind string

const (
	SyncEventUpserted   SyncChangeKind = "eventUpserted"
	SyncEventDeleted    SyncChangeKind = "eventDeleted"
	SyncContactsChanged SyncChangeKind = "contactsChanged"
	SyncReset           SyncChangeKind = "reset"
)

type SyncChange struct {
	Kind    SyncChangeKind
	EventID string
}

// QuarantinedEvent is a payload rejected at the sync boundary.
type QuarantinedEvent struct {
	ID     string          `json:"id,omitempty"`
	Reason string          `json:"reason"`
	Raw    json.RawMessage `json:"raw"`
	At     time.Time       `json:"at"`
}

// NewEventValidator returns a validator knowing the "eventtype" rule
// (class/format, lower case).
func NewEventValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("eventtype", func(fl validator.FieldLevel) bool {
		return eventTypePattern.MatchString(fl.Field().String())
	})
	return v
}

type SyncOptions struct {
	// SeedLimit bounds the events fetched when a connection is set.
	SeedLimit int
}

// SyncUsecase owns the authenticated connection and mirrors the account's
// accesses and events, kept current by a monitor.
type SyncUsecase struct {
	connector HDSConnector
	feeds     changefeed.Factory
	validate  *validator.Validate
	opts      SyncOptions

	// contactsMu makes concurrent GetContacts calls share one fetch.
	contactsMu sync.Mutex

	mu             sync.RWMutex
	gen            uint64
	conn           HDSConnection
	monitor        *monitor.Monitor
	accesses       map[string]models.Access
	accessOrder    []string
	accessesLoaded bool
	events         []models.Event
	eventIndex     map[string]int
	quarantine     []QuarantinedEvent
	listeners      map[int]func(SyncChange)
	nextListener   int
}

func NewSyncUsecase(connector HDSConnector, feeds changefeed.Factory, validate *validator.Validate, opts SyncOptions) *SyncUsecase {
	if opts.SeedLimit <= 0 {
		opts.SeedLimit = 500
	}
	return &SyncUsecase{
		connector:  connector,
		feeds:      feeds,
		validate:   validate,
		opts:       opts,
		accesses:   map[string]models.Access{},
		eventIndex: map[string]int{},
		listeners:  map[int]func(SyncChange){},
	}
}

func authError(err error) error {
	if errors.Is(err, models.ErrAuthentication) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrAuthentication, err)
}

// AuthenticateWithEndpoint validates an existing api endpoint and makes it the
// current connection.
func (s *SyncUsecase) AuthenticateWithEndpoint(ctx context.Context, endpoint string) (HDSConnection, error) {
	conn, err := s.connector.Open(endpoint)
	if err != nil {
		return nil, authError(err)
	}
	info, err := conn.AccessInfo(ctx)
	if err != nil {
		return nil, authError(err)
	}
	log.Infow(ctx, "Authenticated with existing api endpoint", "access_id", info.ID, "username", info.Username)
	s.setConnection(ctx, conn)
	return conn, nil
}

func (s *SyncUsecase) Authenticate(ctx context.Context, username, password string) (HDSConnection, error) {
	conn, err := s.connector.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	s.setConnection(ctx, conn)
	return conn, nil
}

func (s *SyncUsecase) Register(ctx context.Context, email, username, password string) (HDSConnection, error) {
	conn, err := s.connector.Register(ctx, email, username, password)
	if err != nil {
		return nil, err
	}
	s.setConnection(ctx, conn)
	return conn, nil
}

// detachMonitor removes the running monitor and stops it. Stop must not run under
// mu since monitor callbacks take it.
func (s *SyncUsecase) detachMonitor() {
	s.mu.Lock()
	m := s.monitor
	s.monitor = nil
	s.mu.Unlock()
	if m != nil {
		m.Stop()
	}
}

// clearLocked drops the caches and bumps the generation. Caller holds mu.
func (s *SyncUsecase) clearLocked() {
	s.gen++
	s.accesses = map[string]models.Access{}
	s.accessOrder = nil
	s.accessesLoaded = false
	s.events = nil
	s.eventIndex = map[string]int{}
}

// setConnection replaces the connection and runs the synchronization setup:
// seed contacts and events concurrently, then start the monitor.
func (s *SyncUsecase) setConnection(ctx context.Context, conn HDSConnection) {
	s.detachMonitor()

	s.mu.Lock()
	s.clearLocked()
	s.conn = conn
	gen := s.gen
	s.mu.Unlock()

	var since float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := s.GetContacts(gctx); err != nil {
			log.Warnw(ctx, "seed contacts", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if since, err = s.seedEvents(gctx, conn, gen); err != nil {
			log.Warnw(ctx, "seed events", "error", err)
		}
		return nil
	})
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// superseded by another connection or a reset
		return
	}
	feed := s.feeds(changefeed.Target{Base: conn.Base(), Token: conn.Token()})
	s.monitor = monitor.New(conn, feed, monitorListener{s}, since)
	s.monitor.Start(ctx)
}

func (s *SyncUsecase) seedEvents(ctx context.Context, conn HDSConnection, gen uint64) (float64, error) {
	res, err := conn.GetEvents(ctx, hds.EventsQuery{Limit: s.opts.SeedLimit})
	if err != nil {
		return 0, err
	}
	var latest float64
	for _, raw := range res.Events {
		if m := gjson.GetBytes(raw, "modified").Float(); m > latest {
			latest = m
		}
		s.ingest(ctx, raw, gen)
	}
	log.Infow(ctx, "Seeded event cache", "count", len(res.Events))
	return latest, nil
}

// GetContacts returns the cached accesses as contacts, fetching them once per
// connection.
func (s *SyncUsecase) GetContacts(ctx context.Context) ([]models.Contact, error) {
	s.contactsMu.Lock()
	defer s.contactsMu.Unlock()

	s.mu.RLock()
	loaded, conn, gen := s.accessesLoaded, s.conn, s.gen
	s.mu.RUnlock()

	if !loaded {
		if conn == nil {
			return nil, models.ErrNotAuthenticated
		}
		accesses, err := conn.GetAccesses(ctx)
		if err != nil {
			return nil, fmt.Errorf("get accesses: %w", err)
		}
		s.mu.Lock()
		if s.gen == gen {
			s.accesses = make(map[string]models.Access, len(accesses))
			s.accessOrder = s.accessOrder[:0]
			for _, a := range accesses {
				if err := s.validate.Struct(a); err != nil {
					log.Warnw(ctx, "skipping invalid access", "error", err)
					continue
				}
				if _, dup := s.accesses[a.ID]; !dup {
					s.accessOrder = append(s.accessOrder, a.ID)
				}
				s.accesses[a.ID] = a
			}
			s.accessesLoaded = true
		}
		s.mu.Unlock()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	contacts := make([]models.Contact, 0, len(s.accessOrder))
	for _, id := range s.accessOrder {
		contacts = append(contacts, models.ContactFromAccess(s.accesses[id]))
	}
	return contacts, nil
}

// AccessForID returns the display name of a cached access.
func (s *SyncUsecase) AccessForID(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accesses[id]
	if !ok {
		return "", false
	}
	return a.Name, true
}

// Events returns a copy of the event cache in arrival order.
func (s *SyncUsecase) Events() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Event(nil), s.events...)
}

func (s *SyncUsecase) Quarantined() []QuarantinedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]QuarantinedEvent(nil), s.quarantine...)
}

func (s *SyncUsecase) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn != nil
}

// IngestEvent validates a raw event and upserts it by id. Rejected payloads are
// quarantined and reported as models.ErrInvalidPayload.
func (s *SyncUsecase) IngestEvent(ctx context.Context, raw json.RawMessage) error {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()
	return s.ingest(ctx, raw, gen)
}

func (s *SyncUsecase) ingest(ctx context.Context, raw json.RawMessage, gen uint64) error {
	var e models.Event
	if err := json.Unmarshal(raw, &e); err != nil {
		s.quarantineEvent(ctx, raw, fmt.Sprintf("decode: %v", err))
		return fmt.Errorf("%w: %w", models.ErrInvalidPayload, err)
	}
	if err := s.validate.Struct(e); err != nil {
		s.quarantineEvent(ctx, raw, err.Error())
		return fmt.Errorf("%w: %w", models.ErrInvalidPayload, err)
	}
	if e.Trashed {
		s.remove(ctx, e.ID, gen)
		return nil
	}
	s.upsert(ctx, e, gen)
	return nil
}

func (s *SyncUsecase) quarantineEvent(ctx context.Context, raw json.RawMessage, reason string) {
	q := QuarantinedEvent{
		ID:     gjson.GetBytes(raw, "id").String(),
		Reason: reason,
		Raw:    append(json.RawMessage(nil), raw...),
		At:     time.Now(),
	}
	s.mu.Lock()
	if len(s.quarantine) >= maxQuarantined {
		s.quarantine = s.quarantine[1:]
	}
	s.quarantine = append(s.quarantine, q)
	s.mu.Unlock()

	syncEvents.WithLabelValues("quarantine").Inc()
	log.Warnw(ctx, "Quarantined invalid event", "event_id", q.ID, "reason", reason)
}

// upsert replaces the cached event with the same id or appends it.
func (s *SyncUsecase) upsert(ctx context.Context, e models.Event, gen uint64) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	if i, ok := s.eventIndex[e.ID]; ok {
		s.events[i] = e
	} else {
		s.eventIndex[e.ID] = len(s.events)
		s.events = append(s.events, e)
	}
	s.mu.Unlock()

	syncEvents.WithLabelValues("upsert").Inc()
	s.emit(SyncChange{Kind: SyncEventUpserted, EventID: e.ID})
}

// RemoveEvent drops an event from the cache. Unknown ids are a no-op.
func (s *SyncUsecase) RemoveEvent(ctx context.Context, id string) bool {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()
	return s.remove(ctx, id, gen)
}

func (s *SyncUsecase) remove(_ context.Context, id string, gen uint64) bool {
	s.mu.Lock()
	i, ok := s.eventIndex[id]
	if !ok || s.gen != gen {
		s.mu.Unlock()
		return false
	}
	s.events = append(s.events[:i], s.events[i+1:]...)
	delete(s.eventIndex, id)
	for j := i; j < len(s.events); j++ {
		s.eventIndex[s.events[j].ID] = j
	}
	s.mu.Unlock()

	syncEvents.WithLabelValues("delete").Inc()
	s.emit(SyncChange{Kind: SyncEventDeleted, EventID: id})
	return true
}

// StoreMessage creates a chat message event and caches the stored copy.
func (s *SyncUsecase) StoreMessage(ctx context.Context, content models.ChatMessageContent) (*models.Event, error) {
	s.mu.RLock()
	conn, gen := s.conn, s.gen
	s.mu.RUnlock()
	if conn == nil {
		return nil, models.ErrNotAuthenticated
	}

	event, err := conn.CreateEvent(ctx, models.EventInput{
		StreamIDs: []string{models.ChatStreamID},
		Type:      models.ChatMessageEventType,
		Content:   content,
		Time:      float64(time.Now().UnixMilli()) / 1000,
	})
	if err != nil {
		return nil, fmt.Errorf("create message event: %w", err)
	}
	if err := s.validate.Struct(event); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidPayload, err)
	}
	s.upsert(ctx, *event, gen)
	return event, nil
}

// Reset stops the monitor and forgets the connection and every cache.
func (s *SyncUsecase) Reset() {
	s.detachMonitor()
	s.mu.Lock()
	s.clearLocked()
	s.conn = nil
	s.quarantine = nil
	s.mu.Unlock()
	s.emit(SyncChange{Kind: SyncReset})
}

// OnChange registers fn for cache changes. fn runs on the goroutine that made the
// change and must not block.
func (s *SyncUsecase) OnChange(fn func(SyncChange)) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *SyncUsecase) emit(change SyncChange) {
	s.mu.RLock()
	fns := make([]func(SyncChange), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(change)
	}
}

// monitorListener routes monitor callbacks into the caches.
type monitorListener struct {
	s *SyncUsecase
}

func (l monitorListener) OnEvent(ctx context.Context, raw json.RawMessage) {
	_ = l.s.IngestEvent(ctx, raw)
}

func (l monitorListener) OnEventDelete(ctx context.Context, deletion models.EventDeletion) {
	l.s.RemoveEvent(ctx, deletion.ID)
}

// OnStreams is informational only.
func (l monitorListener) OnStreams(ctx context.Context) {
	syncEvents.WithLabelValues("streams_changed").Inc()
	log.Infow(ctx, "Streams changed")
}

// OnAccesses refetches the contacts.
func (l monitorListener) OnAccesses(ctx context.Context) {
	l.s.mu.Lock()
	l.s.accessesLoaded = false
	l.s.mu.Unlock()

	if _, err := l.s.GetContacts(ctx); err != nil {
		log.Warnw(ctx, "refresh contacts", "error", err)
		return
	}
	l.s.emit(SyncChange{Kind: SyncContactsChanged})
}
