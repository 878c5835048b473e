package store

import (
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. Fault, when set, makes every Save
// fail with a StorageFault wrapping it.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string][]byte
	sessions    map[string]string
	drafts      map[string]Draft
	quota       int

	Fault error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(quota int) *MemoryStore {
	return &MemoryStore{
		collections: make(map[string][]byte),
		sessions:    make(map[string]string),
		drafts:      make(map[string]Draft),
		quota:       quota,
	}
}

// Load implements Store.
func (m *MemoryStore) Load(name string) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decode(name, m.collections[name])
}

// Save implements Store.
func (m *MemoryStore) Save(name string, records []json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fault != nil {
		return &StorageFault{Collection: name, Err: m.Fault}
	}
	data, err := encode(name, records, m.quota)
	if err != nil {
		return err
	}
	m.collections[name] = data
	return nil
}

// GetSession implements Store.
func (m *MemoryStore) GetSession(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.sessions[key]
	return v, ok, nil
}

// SetSession implements Store.
func (m *MemoryStore) SetSession(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fault != nil {
		return &StorageFault{Collection: "session:" + key, Err: m.Fault}
	}
	m.sessions[key] = value
	return nil
}

// SaveDraft implements Store.
func (m *MemoryStore) SaveDraft(d Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fault != nil {
		return &StorageFault{Collection: "draft:" + d.Form, Err: m.Fault}
	}
	if d.SavedAt.IsZero() {
		d.SavedAt = time.Now()
	}
	data := make(map[string]string, len(d.Data))
	for k, v := range d.Data {
		data[k] = v
	}
	d.Data = data
	m.drafts[d.Form] = d
	return nil
}

// LoadDraft implements Store.
func (m *MemoryStore) LoadDraft(form string) (*Draft, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[form]
	if !ok {
		return nil, false, nil
	}
	return &d, true, nil
}
