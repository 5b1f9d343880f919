package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"skillswap/internal/observability"
)

// FileSlot stores each key as <dir>/<key>.json on an afero filesystem.
// Writes go through a temp file and a rename so readers never see a torn record.
type FileSlot struct {
	fs  afero.Fs
	dir string
}

// NewFileSlot returns a slot rooted at dir. Pass afero.NewOsFs() in
// production and afero.NewMemMapFs() in tests.
func NewFileSlot(fsys afero.Fs, dir string) *FileSlot {
	return &FileSlot{fs: fsys, dir: dir}
}

// Backend implements Slot.
func (s *FileSlot) Backend() string { return "file" }

// Path returns the file a key is stored in.
func (s *FileSlot) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Read implements Slot.
func (s *FileSlot) Read(ctx context.Context, key string) ([]byte, error) {
	defer observability.TrackPersistence(s.Backend(), "read")()

	data, err := afero.ReadFile(s.fs, s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSlotEmpty
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.Path(key), err)
	}
	if len(data) == 0 {
		return nil, ErrSlotEmpty
	}
	return data, nil
}

// Write implements Slot.
func (s *FileSlot) Write(ctx context.Context, key string, data []byte) error {
	_, span := observability.TraceSlotOperation(ctx, s.Backend(), "write")
	defer span.End()
	defer observability.TrackPersistence(s.Backend(), "write")()

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create %s: %w", s.dir, err)
	}

	target := s.Path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}
	return nil
}
