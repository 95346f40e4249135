// Package refresh re-runs a listing fetch on a fixed interval while the
// listing is visible.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/votehubph/backend/internal/logger"
)

type Fetch func(ctx context.Context) error

// Refresher calls Fetch every Interval while visible, skipping ticks that
// come less than MinGap after the previous fetch. Becoming visible again
// fetches right away unless the previous fetch is younger than ResumeGap.
type Refresher struct {
	fetch     Fetch
	interval  time.Duration
	minGap    time.Duration
	resumeGap time.Duration
	now       func() time.Time
	log       *slog.Logger

	mu       sync.Mutex
	visible  bool
	last     time.Time
	inFlight bool
	wake     chan struct{}
}

type Option func(*Refresher)

func WithClock(now func() time.Time) Option {
	return func(r *Refresher) { r.now = now }
}

func New(fetch Fetch, interval, minGap, resumeGap time.Duration, opts ...Option) *Refresher {
	r := &Refresher{
		fetch:     fetch,
		interval:  interval,
		minGap:    minGap,
		resumeGap: resumeGap,
		now:       time.Now,
		log:       logger.L(),
		visible:   true,
		wake:      make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Touch records a fetch made outside the refresher, e.g. after a filter
// change.
func (r *Refresher) Touch() {
	r.mu.Lock()
	r.last = r.now()
	r.mu.Unlock()
}

func (r *Refresher) SetVisible(v bool) {
	r.mu.Lock()
	changed := r.visible != v
	r.visible = v
	r.mu.Unlock()
	if !changed {
		return
	}
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Refresher) Visible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

// Tick is one interval tick. It reports whether a fetch ran.
func (r *Refresher) Tick(ctx context.Context) bool {
	return r.maybeFetch(ctx, r.minGap)
}

// Resume handles the listing becoming visible.
func (r *Refresher) Resume(ctx context.Context) bool {
	return r.maybeFetch(ctx, r.resumeGap)
}

func (r *Refresher) maybeFetch(ctx context.Context, gap time.Duration) bool {
	r.mu.Lock()
	now := r.now()
	if !r.visible || r.inFlight || (!r.last.IsZero() && now.Sub(r.last) < gap) {
		r.mu.Unlock()
		return false
	}
	r.inFlight = true
	r.last = now
	r.mu.Unlock()

	err := r.fetch(ctx)

	r.mu.Lock()
	r.inFlight = false
	r.mu.Unlock()
	if err != nil {
		r.log.Warn("refresh_failed", "err", err)
	}
	return true
}

// Run fetches once, then drives Tick and Resume until ctx is done. The
// ticker is stopped while hidden.
func (r *Refresher) Run(ctx context.Context) {
	r.maybeFetch(ctx, 0)

	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Tick(ctx)
		case <-r.wake:
			if r.Visible() {
				t.Reset(r.interval)
				r.Resume(ctx)
			} else {
				t.Stop()
			}
		}
	}
}
