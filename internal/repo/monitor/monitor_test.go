package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/changefeed"
	"github.com/nguyentranbao-ct/hds-chat/internal/repo/hds"
)

// manualFeed forwards kinds pushed on its channel.
type manualFeed struct {
	kinds chan changefeed.Kind
}

func (f *manualFeed) Run(ctx context.Context, notify func(changefeed.Kind)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case k := <-f.kinds:
			notify(k)
		}
	}
}

type fakeSource struct {
	mu      sync.Mutex
	queries []hds.EventsQuery
	results []*hds.EventsResult
	err     error
}

func (s *fakeSource) GetEvents(_ context.Context, q hds.EventsQuery) (*hds.EventsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.results) == 0 {
		return &hds.EventsResult{}, nil
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r, nil
}

func (s *fakeSource) seen() []hds.EventsQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]hds.EventsQuery(nil), s.queries...)
}

type recordingListener struct {
	mu        sync.Mutex
	events    []string
	deletions []string
	streams   int
	accesses  int
}

func (l *recordingListener) OnEvent(_ context.Context, raw json.RawMessage) {
	var e models.Event
	_ = json.Unmarshal(raw, &e)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e.ID)
}

func (l *recordingListener) OnEventDelete(_ context.Context, d models.EventDeletion) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deletions = append(l.deletions, d.ID)
}

func (l *recordingListener) OnStreams(context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.streams++
}

func (l *recordingListener) OnAccesses(context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accesses++
}

func (l *recordingListener) counts() (int, int, int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events), len(l.deletions), l.streams, l.accesses
}

func TestMonitorDispatchesChanges(t *testing.T) {
	feed := &manualFeed{kinds: make(chan changefeed.Kind)}
	source := &fakeSource{results: []*hds.EventsResult{
		{
			Events: []json.RawMessage{
				json.RawMessage(`{"id":"e1","modified":10}`),
				json.RawMessage(`{"id":"e2","modified":12}`),
			},
			Deletions: []models.EventDeletion{{ID: "e0", Deleted: 11}},
		},
		{Deletions: []models.EventDeletion{{ID: "e1", Deleted: 20}}},
	}}
	listener := &recordingListener{}

	m := New(source, feed, listener, 5)
	m.Start(context.Background())
	require.True(t, m.Running())

	feed.kinds <- changefeed.EventsChanged
	feed.kinds <- changefeed.StreamsChanged
	feed.kinds <- changefeed.EventsChanged
	feed.kinds <- changefeed.AccessesChanged

	assert.Eventually(t, func() bool {
		_, _, _, a := listener.counts()
		return a == 1
	}, time.Second, 5*time.Millisecond)
	m.Stop()
	assert.False(t, m.Running())

	events, deletions, streams, _ := listener.counts()
	assert.Equal(t, 2, events)
	assert.Equal(t, 2, deletions)
	assert.Equal(t, 1, streams)
	assert.Equal(t, float64(20), m.Watermark())

	queries := source.seen()
	require.Len(t, queries, 2)
	assert.True(t, queries[0].IncludeDeletions)
	assert.Equal(t, float64(5), *queries[0].ModifiedSince)
	assert.Equal(t, float64(12), *queries[1].ModifiedSince)
}

func TestMonitorSurvivesFetchErrors(t *testing.T) {
	feed := &manualFeed{kinds: make(chan changefeed.Kind)}
	source := &fakeSource{err: errors.New("boom")}
	m := New(source, feed, &recordingListener{}, 0)
	m.Start(context.Background())
	defer m.Stop()

	feed.kinds <- changefeed.EventsChanged
	feed.kinds <- changefeed.EventsChanged
	assert.Eventually(t, func() bool { return len(source.seen()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Nil(t, source.seen()[0].ModifiedSince)
	assert.Equal(t, float64(0), m.Watermark())
}

func TestMonitorRestart(t *testing.T) {
	feed := &manualFeed{kinds: make(chan changefeed.Kind)}
	m := New(&fakeSource{}, feed, &recordingListener{}, 0)
	m.Start(context.Background())
	m.Start(context.Background())
	assert.True(t, m.Running())
	m.Stop()
	m.Stop()
	assert.False(t, m.Running())
}
