// Package watchdog periodically reconciles the session with the
// authoritative user list so a ban issued elsewhere ends a stale session
// within one interval.
package watchdog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"skillswap/internal/engine"
	"skillswap/internal/observability"
)

// DefaultInterval is used when a non-positive interval is configured.
const DefaultInterval = 3 * time.Second

// Dispatcher applies intents; *store.Store satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent engine.Intent) (engine.State, bool)
}

// Watchdog dispatches CheckBannedStatus on a fixed interval.
type Watchdog struct {
	dispatcher Dispatcher
	interval   time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// New returns a watchdog ticking every interval.
func New(d Dispatcher, interval time.Duration) *Watchdog {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watchdog{
		dispatcher: d,
		interval:   interval,
		stopCh:     make(chan struct{}),
		logger:     observability.Component("watchdog"),
	}
}

// Interval returns the tick period.
func (w *Watchdog) Interval() time.Duration {
	return w.interval
}

// Start runs the tick loop until ctx is cancelled or Stop is called.
func (w *Watchdog) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.loop(ctx)
	w.logger.Info("ban watchdog started", slog.Duration("interval", w.interval))
}

// Stop ends the loop and waits for it to exit. Safe to call more than once.
func (w *Watchdog) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Check runs one reconciliation pass and reports whether it changed the state.
func (w *Watchdog) Check(ctx context.Context) bool {
	_, changed := w.dispatcher.Dispatch(ctx, engine.CheckBannedStatus{})
	if changed {
		w.logger.InfoContext(ctx, "stale session reconciled")
	}
	return changed
}

func (w *Watchdog) loop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}
