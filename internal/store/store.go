// Package store is the durable key/value container for portal collections.
// Each collection is one entry holding the full ordered sequence of records;
// there are no cross-collection transactions.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Collection names.
const (
	Villages     = "villages"
	Households   = "households"
	Requirements = "requirements"
	Projects     = "projects"
	Surveys      = "surveys"
)

// Session keys.
const (
	CurrentUser     = "currentUser"
	SelectedVillage = "selectedVillage"
)

// ErrQuotaExceeded is wrapped by a StorageFault when a collection no longer
// fits in the configured quota.
var ErrQuotaExceeded = errors.New("quota exceeded")

// StorageFault reports that the durable medium rejected a write. The caller's
// in-memory state is untouched and may now be ahead of durable state.
type StorageFault struct {
	Collection string
	Err        error
}

func (f *StorageFault) Error() string {
	return fmt.Sprintf("store: save %s: %v", f.Collection, f.Err)
}

func (f *StorageFault) Unwrap() error { return f.Err }

// Draft is a partially completed form.
type Draft struct {
	Form    string            `json:"form"`
	Data    map[string]string `json:"data"`
	Step    int               `json:"currentStep"`
	SavedAt time.Time         `json:"savedAt"`
}

// Store persists whole collections, session entries and form drafts.
type Store interface {
	// Load returns every record of the collection in stored order, or an empty
	// sequence if it was never written.
	Load(name string) ([]json.RawMessage, error)
	// Save replaces the collection. Failures are *StorageFault.
	Save(name string, records []json.RawMessage) error

	GetSession(key string) (string, bool, error)
	SetSession(key, value string) error

	SaveDraft(d Draft) error
	LoadDraft(form string) (*Draft, bool, error)
}

// LoadInto loads a collection and decodes every record into T.
func LoadInto[T any](s Store, name string) ([]T, error) {
	raw, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("store: decode %s[%d]: %w", name, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// SaveFrom encodes items and saves them as the named collection.
func SaveFrom[T any](s Store, name string, items []T) error {
	raw := make([]json.RawMessage, len(items))
	for i, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return &StorageFault{Collection: name, Err: fmt.Errorf("encode record %d: %w", i, err)}
		}
		raw[i] = b
	}
	return s.Save(name, raw)
}

// encode serialises a collection and enforces the quota.
func encode(name string, records []json.RawMessage, quota int) ([]byte, error) {
	if records == nil {
		records = []json.RawMessage{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, &StorageFault{Collection: name, Err: err}
	}
	if quota > 0 && len(data) > quota {
		return nil, &StorageFault{
			Collection: name,
			Err:        fmt.Errorf("%w: %d bytes > %d", ErrQuotaExceeded, len(data), quota),
		}
	}
	return data, nil
}

// decode parses a stored collection.
func decode(name string, data []byte) ([]json.RawMessage, error) {
	if len(data) == 0 {
		return []json.RawMessage{}, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("store: load %s: corrupt collection: %w", name, err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}
