package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DurableEntryKeyField is the database field name of the entry key
const DurableEntryKeyField = "key"

// DurableEntry is one key/value pair of the durable store. Values are opaque
// strings; callers decide the encoding.
type DurableEntry struct {
	Key       string    `json:"key" gorm:"primaryKey;size:255"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`
}

// Validate ensures that the entry can be stored
func (e *DurableEntry) Validate() error {
	if strings.TrimSpace(e.Key) == "" {
		return fmt.Errorf("durable entry key cannot be empty")
	}
	if len(e.Key) > 255 {
		return fmt.Errorf("durable entry key exceeds 255 characters")
	}
	return nil
}

// BeforeSave is a GORM hook that runs before inserting or updating an entry
func (e *DurableEntry) BeforeSave(_ *gorm.DB) error {
	return e.Validate()
}
