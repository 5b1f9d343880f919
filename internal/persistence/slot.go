// Package persistence mirrors engine snapshots into a durable key/value slot.
package persistence

import (
	"context"
	"errors"
)

// DefaultKey is the slot key the marketplace snapshot lives under.
const DefaultKey = "skillSwapData"

// ErrSlotEmpty is returned by Slot.Read when nothing is stored under the key.
var ErrSlotEmpty = errors.New("persistence: slot is empty")

// Slot is a durable key/value cell holding one encoded snapshot per key.
// Write overwrites any previous value.
type Slot interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Backend() string
}
