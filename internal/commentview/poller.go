package commentview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/villagegov/portal/internal/comment"
)

// DefaultInterval is how often a Poller refreshes when no interval is given.
const DefaultInterval = 5 * time.Second

var (
	// ErrPollerRunning is returned by Start on a poller that is already running.
	ErrPollerRunning = errors.New("poller already running")
	// ErrPollerStopped is returned by Sync between Stop and the next Start.
	ErrPollerStopped = errors.New("poller stopped")
)

// Lister fetches the authoritative comment list for a target.
type Lister interface {
	ListComments(ctx context.Context, ref comment.TargetRef) ([]*comment.Comment, error)
}

// Poller keeps a Store eventually consistent with the server by listing
// comments on a fixed interval.
type Poller struct {
	lister   Lister
	ref      comment.TargetRef
	store    *Store
	interval time.Duration
	logger   *slog.Logger
	onChange func()

	issued  atomic.Uint64
	applyMu sync.Mutex
	applied uint64

	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped atomic.Bool
}

// NewPoller creates a poller for ref. A non-positive interval means DefaultInterval.
func NewPoller(lister Lister, ref comment.TargetRef, store *Store, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		lister:   lister,
		ref:      ref,
		store:    store,
		interval: interval,
		logger:   logger,
	}
}

// Sync fetches the list once and applies it to the store. Results are
// applied in request order: a response that arrives after a newer one
// has been applied is discarded. A stopped poller makes no request.
func (p *Poller) Sync(ctx context.Context) error {
	if p.stopped.Load() {
		return ErrPollerStopped
	}
	seq := p.issued.Add(1)

	list, err := p.lister.ListComments(ctx, p.ref)
	if err != nil {
		return fmt.Errorf("listing comments for %s: %w", p.ref, err)
	}

	p.applyMu.Lock()
	if seq <= p.applied {
		p.applyMu.Unlock()
		p.logger.Debug("discarding out-of-order comment list", "seq", seq, "applied", p.applied)
		return nil
	}
	p.applied = seq
	changed := p.store.ReplaceServerList(list)
	p.applyMu.Unlock()

	if changed && p.onChange != nil {
		p.onChange()
	}
	return nil
}

// Start launches the polling loop. It runs until Stop is called or ctx
// is cancelled.
func (p *Poller) Start(ctx context.Context) error {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	if p.cancel != nil {
		return ErrPollerRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.stopped.Store(false)
	p.cancel = cancel
	p.done = done

	go p.loop(loopCtx, done)
	return nil
}

// Stop cancels the polling loop and waits for it to exit. After Stop
// returns the poller makes no further requests, including through Sync,
// until it is started again. Safe to call repeatedly.
func (p *Poller) Stop() {
	p.runMu.Lock()
	p.stopped.Store(true)
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Debug("comment polling started", "interval", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("comment polling stopped")
			return
		case <-ticker.C:
			// Failures are silent; the next tick retries.
			if err := p.Sync(ctx); err != nil && ctx.Err() == nil {
				p.logger.Debug("comment poll failed", "error", err)
			}
		}
	}
}
