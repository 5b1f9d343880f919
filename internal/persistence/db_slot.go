package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"skillswap/internal/observability"
)

// SnapshotSlot is the row a DBSlot keeps per key.
type SnapshotSlot struct {
	Key       string    `gorm:"primaryKey;size:191"`
	Payload   string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName overrides the default pluralized name.
func (SnapshotSlot) TableName() string { return "snapshot_slots" }

// DBSlot stores snapshots in a SQL table through gorm.
type DBSlot struct {
	db *gorm.DB
}

// NewDBSlot returns a slot backed by db. Call Migrate before first use.
func NewDBSlot(db *gorm.DB) *DBSlot {
	return &DBSlot{db: db}
}

// Backend implements Slot.
func (s *DBSlot) Backend() string { return "sql" }

// Migrate creates the snapshot_slots table when missing.
func (s *DBSlot) Migrate() error {
	if err := s.db.AutoMigrate(&SnapshotSlot{}); err != nil {
		return fmt.Errorf("failed to migrate snapshot_slots: %w", err)
	}
	return nil
}

// Read implements Slot.
func (s *DBSlot) Read(ctx context.Context, key string) ([]byte, error) {
	ctx, span := observability.TraceSlotOperation(ctx, s.Backend(), "select")
	defer span.End()
	defer observability.TrackPersistence(s.Backend(), "read")()

	var row SnapshotSlot
	err := s.db.WithContext(ctx).Where(&SnapshotSlot{Key: key}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return []byte(row.Payload), nil
}

// Write implements Slot.
func (s *DBSlot) Write(ctx context.Context, key string, data []byte) error {
	ctx, span := observability.TraceSlotOperation(ctx, s.Backend(), "upsert")
	defer span.End()
	defer observability.TrackPersistence(s.Backend(), "write")()

	row := SnapshotSlot{Key: key, Payload: string(data), UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}
