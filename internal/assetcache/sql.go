package assetcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/zulandar/gramportal/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLBackend stores entries as AssetEntry rows.
type SQLBackend struct {
	db *gorm.DB
}

// NewSQLBackend returns a backend over db. The AssetEntry table must exist.
func NewSQLBackend(db *gorm.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

// Versions lists distinct stored versions.
func (s *SQLBackend) Versions(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.db.WithContext(ctx).Model(&models.AssetEntry{}).
		Distinct("version").Order("version").Pluck("version", &out).Error; err != nil {
		return nil, fmt.Errorf("assetcache: list versions: %w", err)
	}
	return out, nil
}

// Match loads the row for version and url.
func (s *SQLBackend) Match(ctx context.Context, version, url string) (*Entry, bool, error) {
	var row models.AssetEntry
	err := s.db.WithContext(ctx).Where("version = ? AND url = ?", version, url).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("assetcache: match %s: %w", url, err)
	}
	e := &Entry{URL: row.URL, Status: row.Status, Body: row.Body, StoredAt: row.StoredAt}
	if row.Header != "" {
		var h http.Header
		if err := json.Unmarshal([]byte(row.Header), &h); err != nil {
			return nil, false, fmt.Errorf("assetcache: decode header for %s: %w", url, err)
		}
		e.Header = h
	}
	return e, true, nil
}

// Put upserts every entry in one transaction.
func (s *SQLBackend) Put(ctx context.Context, version string, entries ...Entry) error {
	rows := make([]models.AssetEntry, 0, len(entries))
	for _, e := range entries {
		h, err := json.Marshal(e.Header)
		if err != nil {
			return fmt.Errorf("assetcache: encode header for %s: %w", e.URL, err)
		}
		rows = append(rows, models.AssetEntry{
			Version:  version,
			URL:      e.URL,
			Status:   e.Status,
			Header:   string(h),
			Body:     e.Body,
			StoredAt: e.StoredAt,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "version"}, {Name: "url"}},
			UpdateAll: true,
		}).Create(&rows).Error
	})
}

// DeleteVersion deletes every row for version.
func (s *SQLBackend) DeleteVersion(ctx context.Context, version string) error {
	if err := s.db.WithContext(ctx).Where("version = ?", version).Delete(&models.AssetEntry{}).Error; err != nil {
		return fmt.Errorf("assetcache: delete %s: %w", version, err)
	}
	return nil
}
