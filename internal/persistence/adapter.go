package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"skillswap/internal/engine"
	"skillswap/internal/observability"
)

// Adapter saves and loads whole engine snapshots through a Slot.
type Adapter struct {
	slot   Slot
	key    string
	logger *slog.Logger
}

// NewAdapter returns an Adapter writing under key, or DefaultKey when key is empty.
func NewAdapter(slot Slot, key string) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{
		slot:   slot,
		key:    key,
		logger: observability.Component("persistence").With(slog.String("backend", slot.Backend())),
	}
}

// Key returns the slot key.
func (a *Adapter) Key() string {
	return a.key
}

// Save mirrors s into the slot. Failures are logged and counted, never
// returned: the in-memory state stays authoritative.
func (a *Adapter) Save(ctx context.Context, s engine.State) {
	if err := a.Write(ctx, s); err != nil {
		observability.LogAsyncOperationError(ctx, "snapshot_save", err, map[string]interface{}{
			"backend": a.slot.Backend(),
			"key":     a.key,
		})
	}
}

// Write is Save for callers that need the outcome, such as the admin CLI.
func (a *Adapter) Write(ctx context.Context, s engine.State) error {
	data, err := Encode(s)
	if err != nil {
		observability.PersistenceFailures.WithLabelValues("encode").Inc()
		return err
	}
	if err := a.slot.Write(ctx, a.key, data); err != nil {
		observability.PersistenceFailures.WithLabelValues("write").Inc()
		observability.RecordErrorInContext(ctx, err)
		return fmt.Errorf("failed to write slot %s: %w", a.key, err)
	}
	return nil
}

// Load returns the persisted snapshot, or the initial state when the slot is
// empty, unreadable or malformed.
func (a *Adapter) Load(ctx context.Context) engine.State {
	s, err := a.Read(ctx)
	switch {
	case err == nil:
		return s
	case errors.Is(err, ErrSlotEmpty):
		a.logger.InfoContext(ctx, "no persisted snapshot, starting empty")
	default:
		a.logger.WarnContext(ctx, "discarding persisted snapshot", slog.String("error", err.Error()))
	}
	return engine.Initial()
}

// Read is Load for callers that need to tell "empty" from "broken".
func (a *Adapter) Read(ctx context.Context) (engine.State, error) {
	data, err := a.slot.Read(ctx, a.key)
	if err != nil {
		if !errors.Is(err, ErrSlotEmpty) {
			observability.PersistenceFailures.WithLabelValues("read").Inc()
		}
		return engine.Initial(), err
	}

	s, issues, err := Decode(data)
	if err != nil {
		observability.PersistenceFailures.WithLabelValues("decode").Inc()
		return engine.Initial(), err
	}
	for _, issue := range issues {
		a.logger.WarnContext(ctx, "snapshot record repaired or dropped", slog.String("issue", issue))
	}
	return s, nil
}
