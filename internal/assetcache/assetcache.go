// Package assetcache keeps versioned copies of the portal's static assets
// and serves them cache-first through an http.RoundTripper.
package assetcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"
)

// State is the lifecycle position of a cache version.
type State string

const (
	StateInstalling State = "installing"
	StateActive     State = "active"
	StateSuperseded State = "superseded"
	StatePurged     State = "purged"
)

var (
	// ErrNotInstalled is returned by Activate when the current version has
	// no stored entries.
	ErrNotInstalled = errors.New("assetcache: version not installed")
	// ErrIncomplete is returned by Activate when the current version is
	// missing a manifest asset.
	ErrIncomplete = errors.New("assetcache: version incomplete")
)

// Install stages.
const (
	StageFetch = "fetch"
	StageStore = "store"
)

// InstallError reports a failed install. Stage is StageFetch when a manifest
// asset could not be fetched, with URL naming it, and StageStore when the
// backend rejected the batch. Nothing from the failed install is stored.
type InstallError struct {
	Version string
	Stage   string
	URL     string
	Err     error
}

func (e *InstallError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("assetcache: install %s: %s: %v", e.Version, e.Stage, e.Err)
	}
	return fmt.Sprintf("assetcache: install %s: %s %s: %v", e.Version, e.Stage, e.URL, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// NetworkError reports a fetch that failed with no cached copy to fall back
// on.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("assetcache: fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Entry is a stored response keyed by its absolute request URL.
type Entry struct {
	URL      string      `json:"url"`
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"storedAt"`
}

// Response rebuilds an http.Response for req from the stored entry.
func (e *Entry) Response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        strconv.Itoa(e.Status) + " " + http.StatusText(e.Status),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        e.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// Backend stores entries grouped by cache version.
type Backend interface {
	// Versions lists every stored version name.
	Versions(ctx context.Context) ([]string, error)
	// Match returns the entry stored for url under version.
	Match(ctx context.Context, version, url string) (*Entry, bool, error)
	// Put stores entries under version. A batch is stored whole or not at all.
	Put(ctx context.Context, version string, entries ...Entry) error
	// DeleteVersion removes every entry stored under version.
	DeleteVersion(ctx context.Context, version string) error
}

// Options configures a Cache.
type Options struct {
	Version  string
	Origin   string   // base URL manifest paths resolve against
	Manifest []string // asset paths relative to Origin
	Backend  Backend
	Now      func() time.Time
}

// Cache manages one named version of the asset cache.
type Cache struct {
	version  string
	origin   *url.URL
	manifest []string
	backend  Backend
	now      func() time.Time

	mu    sync.RWMutex
	state State
}

// New returns a Cache for opts.Version in the installing state.
func New(opts Options) (*Cache, error) {
	if opts.Version == "" {
		return nil, fmt.Errorf("assetcache: version is required")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("assetcache: backend is required")
	}
	origin, err := url.Parse(opts.Origin + "/")
	if err != nil {
		return nil, fmt.Errorf("assetcache: parse origin %q: %w", opts.Origin, err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{
		version:  opts.Version,
		origin:   origin,
		manifest: slices.Clone(opts.Manifest),
		backend:  opts.Backend,
		now:      now,
		state:    StateInstalling,
	}, nil
}

// Version returns the cache version name.
func (c *Cache) Version() string { return c.version }

// State returns the current lifecycle state.
func (c *Cache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// ManifestURLs resolves every manifest path against the origin.
func (c *Cache) ManifestURLs() ([]string, error) {
	urls := make([]string, 0, len(c.manifest))
	for _, p := range c.manifest {
		ref, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("assetcache: manifest path %q: %w", p, err)
		}
		urls = append(urls, c.origin.ResolveReference(ref).String())
	}
	return urls, nil
}

// Install fetches every manifest asset with client and stores them under the
// cache version. Any failed fetch aborts the install before anything is
// written, leaving the previously active version untouched.
func (c *Cache) Install(ctx context.Context, client *http.Client) error {
	urls, err := c.ManifestURLs()
	if err != nil {
		return err
	}
	staged := make([]Entry, 0, len(urls))
	for _, u := range urls {
		e, err := c.fetch(ctx, client, u)
		if err != nil {
			return &InstallError{Version: c.version, Stage: StageFetch, URL: u, Err: err}
		}
		staged = append(staged, *e)
	}
	if err := c.backend.Put(ctx, c.version, staged...); err != nil {
		return &InstallError{Version: c.version, Stage: StageStore, Err: err}
	}
	log.Printf("assetcache: installed %s (%d assets)", c.version, len(staged))
	return nil
}

func (c *Cache) fetch(ctx context.Context, client *http.Client, u string) (*Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Entry{
		URL:      u,
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: c.now(),
	}, nil
}

// Activate deletes every stored version other than the current one and
// starts serving from the cache. It refuses, purging nothing, unless every
// manifest asset is stored under the current version.
func (c *Cache) Activate(ctx context.Context) error {
	versions, err := c.checkComplete(ctx)
	if err != nil {
		return err
	}
	for _, v := range versions {
		if v == c.version {
			continue
		}
		if err := c.backend.DeleteVersion(ctx, v); err != nil {
			return fmt.Errorf("assetcache: purge %s: %w", v, err)
		}
		log.Printf("assetcache: purged %s", v)
	}
	c.mu.Lock()
	c.state = StateActive
	c.mu.Unlock()
	return nil
}

// Resume starts serving from the current version without purging anything.
// It is for processes attaching to a cache that was installed and
// activated elsewhere, and fails like Activate when the version is not
// complete.
func (c *Cache) Resume(ctx context.Context) error {
	if _, err := c.checkComplete(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.state = StateActive
	c.mu.Unlock()
	return nil
}

// checkComplete verifies the current version holds every manifest asset and
// returns all stored versions.
func (c *Cache) checkComplete(ctx context.Context) ([]string, error) {
	versions, err := c.backend.Versions(ctx)
	if err != nil {
		return nil, fmt.Errorf("assetcache: list versions: %w", err)
	}
	if !slices.Contains(versions, c.version) {
		return nil, ErrNotInstalled
	}
	urls, err := c.ManifestURLs()
	if err != nil {
		return nil, err
	}
	for _, u := range urls {
		_, ok, err := c.backend.Match(ctx, c.version, u)
		if err != nil {
			return nil, fmt.Errorf("assetcache: check %s: %w", u, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s missing %s", ErrIncomplete, c.version, u)
		}
	}
	return versions, nil
}

// VersionStatus describes one version known to the backend.
type VersionStatus struct {
	Version string `json:"version"`
	State   State  `json:"state"`
}

// Status reports the current version and every other stored version, which
// is superseded until the next activation purges it.
func (c *Cache) Status(ctx context.Context) ([]VersionStatus, error) {
	versions, err := c.backend.Versions(ctx)
	if err != nil {
		return nil, fmt.Errorf("assetcache: list versions: %w", err)
	}
	out := []VersionStatus{{Version: c.version, State: c.State()}}
	for _, v := range versions {
		if v != c.version {
			out = append(out, VersionStatus{Version: v, State: StateSuperseded})
		}
	}
	return out, nil
}

// Match looks up url in the current version.
func (c *Cache) Match(ctx context.Context, url string) (*Entry, bool, error) {
	return c.backend.Match(ctx, c.version, url)
}

func (c *Cache) store(ctx context.Context, e Entry) error {
	e.StoredAt = c.now()
	return c.backend.Put(ctx, c.version, e)
}
