package driver

import (
	"sync"

	"pytidy/internal/engine"
)

// Memo is one remembered result: the output, or the parse error.
type Memo struct {
	Out *engine.Output
	Err error
}

// minimal per-process cache by file path + result key
type cached struct {
	key  Digest
	memo Memo
}

// MemoCache keeps the last result of every file in memory. Watch mode uses
// it to skip files whose content did not change between events.
type MemoCache struct {
	mu     sync.RWMutex
	byPath map[string]cached
}

// NewMemoCache creates a MemoCache with the given capacity hint.
func NewMemoCache(capHint int) *MemoCache {
	return &MemoCache{byPath: make(map[string]cached, capHint)}
}

// Get returns the stored result of path when it was computed for key.
func (c *MemoCache) Get(path string, key Digest) (Memo, bool) {
	c.mu.RLock()
	rec, ok := c.byPath[path]
	c.mu.RUnlock()
	if !ok || rec.key != key {
		return Memo{}, false
	}
	return rec.memo, true
}

// Put stores the result of path.
func (c *MemoCache) Put(path string, key Digest, m Memo) {
	c.mu.Lock()
	c.byPath[path] = cached{key: key, memo: m}
	c.mu.Unlock()
}

// Forget drops path, e.g. after it was removed.
func (c *MemoCache) Forget(path string) {
	c.mu.Lock()
	delete(c.byPath, path)
	c.mu.Unlock()
}

// Len returns the number of stored files.
func (c *MemoCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byPath)
}
