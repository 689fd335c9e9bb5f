package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/celestiaorg/reloader/internal/db/models"
)

// ErrEntryNotFound is returned when a key has never been written
var ErrEntryNotFound = errors.New("durable entry not found")

// DurableEntryRepository provides access to the durable key/value table
type DurableEntryRepository struct {
	db *gorm.DB
}

// NewDurableEntryRepository creates a new durable entry repository instance
func NewDurableEntryRepository(db *gorm.DB) *DurableEntryRepository {
	return &DurableEntryRepository{db: db}
}

// Get retrieves the entry stored under key
func (r *DurableEntryRepository) Get(ctx context.Context, key string) (*models.DurableEntry, error) {
	var entry models.DurableEntry
	err := r.db.WithContext(ctx).
		Where(models.DurableEntryKeyField+" = ?", key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get durable entry %q: %w", key, err)
	}
	return &entry, nil
}

// Put inserts the entry or overwrites the value of an existing key
func (r *DurableEntryRepository) Put(ctx context.Context, key, value string) error {
	entry := &models.DurableEntry{Key: key, Value: value}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: models.DurableEntryKeyField}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(entry).Error
	if err != nil {
		return fmt.Errorf("failed to put durable entry %q: %w", key, err)
	}
	return nil
}
