package assetcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// stagingPrefix marks in-progress writes. Versions skips such directories.
const stagingPrefix = ".staging-"

// DiskBackend stores each entry as a JSON file named by the SHA-256 of its
// URL, inside one directory per version.
type DiskBackend struct {
	dir string
}

// NewDiskBackend creates dir if needed and returns a backend rooted there.
func NewDiskBackend(dir string) (*DiskBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("assetcache: create cache directory %s: %w", dir, err)
	}
	return &DiskBackend{dir: dir}, nil
}

// Versions lists the version directories.
func (d *DiskBackend) Versions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ents, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("assetcache: read %s: %w", d.dir, err)
	}
	var out []string
	for _, e := range ents {
		if !e.IsDir() || strings.HasPrefix(e.Name(), stagingPrefix) {
			continue
		}
		v, err := url.PathUnescape(e.Name())
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Match reads the entry file for url.
func (d *DiskBackend) Match(ctx context.Context, version, u string) (*Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(d.pathFor(version, u))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("assetcache: read entry: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("assetcache: decode entry for %s: %w", u, err)
	}
	return &e, true, nil
}

// Put stores entries all-or-nothing. A new version is written into a
// staging directory that is renamed into place once every entry is on
// disk. Entries added to an existing version are committed one rename at a
// time; on failure the entries already committed are rolled back to their
// previous contents.
func (d *DiskBackend) Put(ctx context.Context, version string, entries ...Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	vdir := d.versionDir(version)
	_, err := os.Stat(vdir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return d.putNew(version, entries)
	case err != nil:
		return fmt.Errorf("assetcache: stat %s: %w", vdir, err)
	}
	return d.putExisting(version, entries)
}

func (d *DiskBackend) putNew(version string, entries []Entry) error {
	staging, err := os.MkdirTemp(d.dir, stagingPrefix+"*")
	if err != nil {
		return fmt.Errorf("assetcache: stage %s: %w", version, err)
	}
	for _, e := range entries {
		if err := writeEntry(filepath.Join(staging, entryName(e.URL)), e); err != nil {
			os.RemoveAll(staging)
			return err
		}
	}
	if err := os.Rename(staging, d.versionDir(version)); err != nil {
		os.RemoveAll(staging)
		return fmt.Errorf("assetcache: commit %s: %w", version, err)
	}
	return nil
}

func (d *DiskBackend) putExisting(version string, entries []Entry) error {
	vdir := d.versionDir(version)
	temps := make([]string, 0, len(entries))
	cleanup := func() {
		for _, t := range temps {
			_ = os.Remove(t)
		}
	}
	for _, e := range entries {
		f, err := os.CreateTemp(vdir, stagingPrefix+"*")
		if err != nil {
			cleanup()
			return fmt.Errorf("assetcache: stage entry: %w", err)
		}
		temps = append(temps, f.Name())
		f.Close()
		if err := writeEntry(f.Name(), e); err != nil {
			cleanup()
			return err
		}
	}

	type committed struct {
		path string
		prev []byte // nil when the entry did not exist before
	}
	var done []committed
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			c := done[i]
			if c.prev == nil {
				_ = os.Remove(c.path)
			} else {
				_ = os.WriteFile(c.path, c.prev, 0o644)
			}
		}
	}
	for i, e := range entries {
		target := d.pathFor(version, e.URL)
		prev, err := os.ReadFile(target)
		if err != nil && !errors.Is(err, fs.ErrNotExist) && !isDirErr(target) {
			rollback()
			cleanup()
			return fmt.Errorf("assetcache: read entry for %s: %w", e.URL, err)
		}
		if err := os.Rename(temps[i], target); err != nil {
			rollback()
			cleanup()
			return fmt.Errorf("assetcache: commit entry for %s: %w", e.URL, err)
		}
		done = append(done, committed{path: target, prev: prev})
	}
	return nil
}

func writeEntry(path string, e Entry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("assetcache: marshal entry for %s: %w", e.URL, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("assetcache: write entry for %s: %w", e.URL, err)
	}
	return nil
}

func isDirErr(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// DeleteVersion removes the version directory.
func (d *DiskBackend) DeleteVersion(ctx context.Context, version string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.RemoveAll(d.versionDir(version)); err != nil {
		return fmt.Errorf("assetcache: delete %s: %w", version, err)
	}
	return nil
}

func (d *DiskBackend) versionDir(version string) string {
	return filepath.Join(d.dir, url.PathEscape(version))
}

// pathFor returns the file path for a cached URL.
func (d *DiskBackend) pathFor(version, u string) string {
	return filepath.Join(d.versionDir(version), entryName(u))
}

func entryName(u string) string {
	hash := sha256.Sum256([]byte(u))
	return hex.EncodeToString(hash[:]) + ".json"
}
