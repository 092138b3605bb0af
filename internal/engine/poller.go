package engine

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/mzorec/renderscope/internal/domain"
)

// fetchFunc asks the source for buffered events after a source-side cursor.
type fetchFunc func(ctx context.Context, cursor int64) ([]domain.Event, int64, error)

// poller drives the fixed-interval incremental fetch while a session is
// recording. Stop is immediate: no further polls are scheduled after it,
// though a fetch already in flight is allowed to complete and deliver.
type poller struct {
	clk          clock.Clock
	interval     time.Duration
	fetchTimeout time.Duration
	fetch        fetchFunc
	deliver      func([]domain.Event)
	warn         func(error)

	cursor int64
	cancel chan struct{}
	once   sync.Once
}

func newPoller(clk clock.Clock, interval, fetchTimeout time.Duration, fetch fetchFunc, deliver func([]domain.Event), warn func(error)) *poller {
	return &poller{
		clk:          clk,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		fetch:        fetch,
		deliver:      deliver,
		warn:         warn,
		cancel:       make(chan struct{}),
	}
}

func (p *poller) run() {
	ticker := p.clk.Ticker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.cancel:
			return
		case <-ticker.C:
		}

		ctx, done := context.WithTimeout(context.Background(), p.fetchTimeout)
		events, next, err := p.fetch(ctx, p.cursor)
		done()
		if err != nil {
			// a failed poll warns and retries next interval; it never
			// stops the session
			p.warn(err)
			continue
		}
		p.cursor = next
		if len(events) > 0 {
			p.deliver(events)
		}
	}
}

func (p *poller) stop() {
	p.once.Do(func() { close(p.cancel) })
}
