// Package store holds the live marketplace snapshot and funnels every
// mutation through the engine.
package store

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"skillswap/internal/engine"
	"skillswap/internal/observability"
)

// Persister receives every accepted snapshot. Save must not fail the caller.
type Persister interface {
	Save(ctx context.Context, s engine.State)
}

// Change describes one accepted transition.
type Change struct {
	Intent   string
	Previous engine.State
	Current  engine.State
	// SessionCleared is set when the transition ended the session without
	// an explicit SetSession, i.e. a ban or a forced logout.
	SessionCleared bool
}

// Store is the single writer of the marketplace state. Dispatch is atomic;
// subscribers and persistence observe transitions after they are applied.
type Store struct {
	mu     sync.Mutex
	state  engine.State
	closed bool

	persister Persister
	pending   chan engine.State
	done      chan struct{}

	subMu  sync.RWMutex
	subs   map[int]func(Change)
	nextID int

	logger *slog.Logger
}

// New returns a store seeded with initial. A nil persister keeps the store
// purely in memory.
func New(initial engine.State, persister Persister) *Store {
	s := &Store{
		state:     initial,
		persister: persister,
		pending:   make(chan engine.State, 1),
		done:      make(chan struct{}),
		subs:      make(map[int]func(Change)),
		logger:    observability.Component("store"),
	}
	go s.persistLoop()
	return s
}

// Snapshot returns the current state. Callers must treat it as read-only.
func (s *Store) Snapshot() engine.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies intent followed by ban reconciliation and reports the
// resulting state and whether anything changed.
func (s *Store) Dispatch(ctx context.Context, intent engine.Intent) (engine.State, bool) {
	name := "unknown"
	if intent != nil {
		name = intent.Name()
	}
	span, _ := observability.NewSpan(ctx, "store.Dispatch", attribute.String("intent", name))
	defer span.End()

	s.mu.Lock()
	prev := s.state
	next, changed := engine.Reduce(prev, intent)
	next, reconciled := engine.Reduce(next, engine.CheckBannedStatus{})
	changed = changed || reconciled
	if changed {
		s.state = next
		if !s.closed {
			s.schedule(next)
		}
	}
	s.mu.Unlock()

	outcome := "rejected"
	if changed {
		outcome = "applied"
	}
	observability.IntentsTotal.WithLabelValues(name, outcome).Inc()
	span.AddAttributes(attribute.Bool("changed", changed))

	if !changed {
		s.logger.DebugContext(ctx, "intent left state unchanged", slog.String("intent", name))
		return prev, false
	}

	change := Change{Intent: name, Previous: prev, Current: next}
	if _, explicit := intent.(engine.SetSession); !explicit && prev.Session != nil && next.Session == nil {
		change.SessionCleared = true
		observability.ForcedLogouts.Inc()
		s.logger.InfoContext(ctx, "session terminated",
			slog.String("intent", name),
			slog.String("user_id", prev.Session.ID),
		)
	}
	s.notify(change)
	return next, true
}

// schedule hands st to the persistence loop, replacing any snapshot that has
// not been written yet. Callers hold s.mu.
func (s *Store) schedule(st engine.State) {
	select {
	case s.pending <- st:
		return
	default:
	}
	select {
	case <-s.pending:
	default:
	}
	s.pending <- st
}

func (s *Store) persistLoop() {
	defer close(s.done)
	for st := range s.pending {
		if s.persister != nil {
			s.persister.Save(context.Background(), st)
		}
	}
}

// Subscribe registers fn for every accepted transition and returns a
// function that removes it. fn runs on the dispatching goroutine.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(change Change) {
	s.subMu.RLock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
}

// Close stops accepting persistence work and waits for the last scheduled
// snapshot to be written, or for ctx to expire.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.pending)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
