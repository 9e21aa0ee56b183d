package changefeed

import (
	"context"
	"time"
)

// Poller reports EventsChanged on every tick, starting immediately.
type Poller struct {
	interval time.Duration
}

func NewPoller(interval time.Duration) *Poller {
	return &Poller{interval: interval}
}

func (p *Poller) Run(ctx context.Context, notify func(Kind)) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	notify(EventsChanged)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			notify(EventsChanged)
		}
	}
}
