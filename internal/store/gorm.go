package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/gramportal/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps collections in the collections table of a gorm database.
type GormStore struct {
	db    *gorm.DB
	quota int
}

// NewGormStore wraps a migrated database. quota bounds the serialized size of
// any one collection in bytes; 0 disables the check.
func NewGormStore(db *gorm.DB, quota int) *GormStore {
	return &GormStore{db: db, quota: quota}
}

// Load implements Store.
func (s *GormStore) Load(name string) ([]json.RawMessage, error) {
	var row models.Collection
	if err := s.db.Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("store: load %s: %w", name, err)
	}
	return decode(name, []byte(row.Data))
}

// Save implements Store.
func (s *GormStore) Save(name string, records []json.RawMessage) error {
	data, err := encode(name, records, s.quota)
	if err != nil {
		return err
	}
	row := models.Collection{
		Name:      name,
		Data:      string(data),
		Count:     len(records),
		Bytes:     len(data),
		UpdatedAt: time.Now(),
	}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "count", "bytes", "updated_at"}),
	}).Create(&row)
	if result.Error != nil {
		return &StorageFault{Collection: name, Err: result.Error}
	}
	return nil
}

// GetSession implements Store.
func (s *GormStore) GetSession(key string) (string, bool, error) {
	var row models.SessionEntry
	if err := s.db.Where("session_key = ?", key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: get session %s: %w", key, err)
	}
	return row.Value, true, nil
}

// SetSession implements Store.
func (s *GormStore) SetSession(key, value string) error {
	row := models.SessionEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row)
	if result.Error != nil {
		return &StorageFault{Collection: "session:" + key, Err: result.Error}
	}
	return nil
}

// SaveDraft implements Store.
func (s *GormStore) SaveDraft(d Draft) error {
	data, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("store: encode draft %s: %w", d.Form, err)
	}
	if d.SavedAt.IsZero() {
		d.SavedAt = time.Now()
	}
	row := models.Draft{Form: d.Form, Data: string(data), Step: d.Step, SavedAt: d.SavedAt}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "form"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "step", "saved_at"}),
	}).Create(&row)
	if result.Error != nil {
		return &StorageFault{Collection: "draft:" + d.Form, Err: result.Error}
	}
	return nil
}

// LoadDraft implements Store.
func (s *GormStore) LoadDraft(form string) (*Draft, bool, error) {
	var row models.Draft
	if err := s.db.Where("form = ?", form).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: load draft %s: %w", form, err)
	}
	d := &Draft{Form: row.Form, Step: row.Step, SavedAt: row.SavedAt}
	if row.Data != "" {
		if err := json.Unmarshal([]byte(row.Data), &d.Data); err != nil {
			return nil, false, fmt.Errorf("store: decode draft %s: %w", form, err)
		}
	}
	return d, true, nil
}
