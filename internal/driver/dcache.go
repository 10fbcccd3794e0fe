package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"

	"pytidy/internal/engine"
	"pytidy/internal/version"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит результаты обработки файлов по ResultKey на диске.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	fs  afero.Fs
	dir string
}

// DiskPayload is the on-disk form of one cached result.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema  uint16
	Version string
	Output  *engine.Output
}

// OpenDiskCache initializes a disk cache at the standard location
// ($XDG_CACHE_HOME/<app> or ~/.cache/<app>).
func OpenDiskCache(fsys afero.Fs, app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(fsys, filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir.
func NewDiskCache(fsys afero.Fs, dir string) (*DiskCache, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	return &DiskCache{fs: fsys, dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := key.String()
	// подкаталог по первым двум символам, чтобы не раздувать один каталог
	return filepath.Join(c.dir, "results", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a result. The parsed units of out are not stored.
func (c *DiskCache) Put(key Digest, out *engine.Output) error {
	if c == nil || out == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := c.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := afero.TempFile(c.fs, filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	payload := DiskPayload{Schema: diskCacheSchemaVersion, Version: version.Version, Output: out}
	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		_ = f.Close()
		_ = c.fs.Remove(tmp)
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		_ = c.fs.Remove(tmp)
		return err
	}
	// Атомарная замена
	return c.fs.Rename(tmp, p)
}

// Get reads a result. A missing entry, an entry of another schema or tool
// version is a miss, not an error.
func (c *DiskCache) Get(key Digest) (*engine.Output, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := c.fs.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload DiskPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	if payload.Schema != diskCacheSchemaVersion || payload.Version != version.Version || payload.Output == nil {
		return nil, false, nil
	}
	return payload.Output, true, nil
}

// DropAll invalidates the cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fs.RemoveAll(c.dir); err != nil {
		return err
	}
	return c.fs.MkdirAll(c.dir, 0o755)
}
