// Package monitor turns change feed notifications into event upserts and
// deletions for one connection.
package monitor

import (
	"context"
	"errors"
	"sync"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/changefeed"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/hds"
	log "github.com/nguyentranbao-ct/hds-chat/pkg/logger/log_context"
	"github.com/nguyentranbao-ct/hds-chat/pkg/util"
)

var notifications = util.MustCounterVec(
	"hds_monitor_notifications_total",
	"Change notifications handled by the monitor",
	"kind", "result",
)

// DefaultFetchLimit bounds the events.get call made on every change.
const DefaultFetchLimit = 1000

type EventSource interface {
	GetEvents(ctx context.Context, q hds.EventsQuery) (*hds.EventsResult, error)
}

// Listener receives the changes. Calls are serialized.
type Listener interface {
	OnEvent(ctx context.Context, raw json.RawMessage)
	OnEventDelete(ctx context.Context, deletion models.EventDeletion)
	OnStreams(ctx context.Context)
	OnAccesses(ctx context.Context)
}

type Monitor struct {
	source   EventSource
	feed     changefeed.Feed
	listener Listener

	mu        sync.Mutex
	watermark float64
	cancel    context.CancelFunc
	done      chan struct{}
}

// New builds a stopped monitor. since is the modification time up to which the
// caller already holds events; zero means nothing is known yet.
func New(source EventSource, feed changefeed.Feed, listener Listener, since float64) *Monitor {
	return &Monitor{
		source:    source,
		feed:      feed,
		listener:  listener,
		watermark: since,
	}
}

// Start runs the feed in the background. A running monitor is stopped first.
// The run outlives ctx; only its values are kept.
func (m *Monitor) Start(ctx context.Context) {
	m.Stop()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	m.mu.Lock()
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	go func() {
		defer close(done)
		err := m.feed.Run(runCtx, func(kind changefeed.Kind) {
			m.handle(runCtx, kind)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw(runCtx, "change feed stopped", "error", err)
		}
	}()
}

// Stop cancels the run and waits for it to return.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *Monitor) Watermark() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watermark
}

func (m *Monitor) handle(ctx context.Context, kind changefeed.Kind) {
	switch kind {
	case changefeed.EventsChanged:
		if err := m.fetchChanges(ctx); err != nil {
			if ctx.Err() == nil {
				log.Warnw(ctx, "fetch changed events", "error", err)
			}
			notifications.WithLabelValues(string(kind), "error").Inc()
			return
		}
	case changefeed.StreamsChanged:
		m.listener.OnStreams(ctx)
	case changefeed.AccessesChanged:
		m.listener.OnAccesses(ctx)
	}
	notifications.WithLabelValues(string(kind), "ok").Inc()
}

func (m *Monitor) fetchChanges(ctx context.Context) error {
	q := hds.EventsQuery{
		IncludeDeletions: true,
		Limit:            DefaultFetchLimit,
	}
	if since := m.Watermark(); since > 0 {
		q.ModifiedSince = util.Ptr(since)
	}

	res, err := m.source.GetEvents(ctx, q)
	if err != nil {
		return err
	}

	latest := m.Watermark()
	for _, raw := range res.Events {
		if modified := gjson.GetBytes(raw, "modified").Float(); modified > latest {
			latest = modified
		}
		m.listener.OnEvent(ctx, raw)
	}
	for _, d := range res.Deletions {
		if d.Deleted > latest {
			latest = d.Deleted
		}
		m.listener.OnEventDelete(ctx, d)
	}

	m.mu.Lock()
	if latest > m.watermark {
		m.watermark = latest
	}
	m.mu.Unlock()
	return nil
}
