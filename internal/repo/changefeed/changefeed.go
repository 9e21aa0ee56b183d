// Package changefeed delivers change notifications for one account, either by
// polling or from the platform's push socket.
package changefeed

import (
	"context"
	"fmt"
	"time"
)

type Kind string

const (
	EventsChanged   Kind = "eventsChanged"
	StreamsChanged  Kind = "streamsChanged"
	AccessesChanged Kind = "accessesChanged"
)

func (k Kind) Valid() bool {
	switch k {
	case EventsChanged, StreamsChanged, AccessesChanged:
		return true
	}
	return false
}

// Feed runs until ctx is done or the transport fails, calling notify for every
// change. notify is never called concurrently.
type Feed interface {
	Run(ctx context.Context, notify func(Kind)) error
}

// Target identifies the account to watch.
type Target struct {
	Base  string // api endpoint without credentials
	Token string
}

type Mode string

const (
	ModePoll   Mode = "poll"
	ModeSocket Mode = "socket"
)

type Options struct {
	Mode         Mode
	PollInterval time.Duration
}

// Factory opens a feed for a target.
type Factory func(Target) Feed

func NewFactory(opts Options) (Factory, error) {
	switch opts.Mode {
	case ModePoll, "":
		interval := opts.PollInterval
		if interval <= 0 {
			interval = 10 * time.Second
		}
		return func(Target) Feed { return NewPoller(interval) }, nil
	case ModeSocket:
		return func(t Target) Feed { return NewSocket(t) }, nil
	default:
		return nil, fmt.Errorf("unknown change feed mode %q", opts.Mode)
	}
}
