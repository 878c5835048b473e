package assetcache

import (
	"context"
	"slices"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

const keySep = "\x00"

// MemoryBackend keeps entries in process memory. Entries never expire; a
// version disappears only through DeleteVersion.
type MemoryBackend struct {
	mu sync.Mutex // serialises batch writes against version scans
	c  *gocache.Cache
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{c: gocache.New(gocache.NoExpiration, 0)}
}

// Versions lists every version with at least one entry.
func (m *MemoryBackend) Versions(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.c.Items() {
		v, _, _ := strings.Cut(k, keySep)
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Match returns a copy of the stored entry.
func (m *MemoryBackend) Match(ctx context.Context, version, url string) (*Entry, bool, error) {
	x, ok := m.c.Get(version + keySep + url)
	if !ok {
		return nil, false, nil
	}
	e := x.(Entry)
	e.Body = slices.Clone(e.Body)
	e.Header = e.Header.Clone()
	return &e, true, nil
}

// Put stores entries under version.
func (m *MemoryBackend) Put(ctx context.Context, version string, entries ...Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		e.Body = slices.Clone(e.Body)
		m.c.Set(version+keySep+e.URL, e, gocache.NoExpiration)
	}
	return nil
}

// DeleteVersion drops every entry stored under version.
func (m *MemoryBackend) DeleteVersion(ctx context.Context, version string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := version + keySep
	for k := range m.c.Items() {
		if strings.HasPrefix(k, prefix) {
			m.c.Delete(k)
		}
	}
	return nil
}
