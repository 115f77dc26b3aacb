// Package codectx resolves the file references found in tracebacks to real
// source files and serves the code surrounding an error line. File contents
// are memoized per lookup key so repeated windows into the same file cost
// one read.
package codectx

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ContentCache memoizes file contents by lookup key. Entries are invalidated
// explicitly after rewrites, or automatically when a watcher is attached and
// the underlying file changes on disk.
type ContentCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	watcher *fsnotify.Watcher
}

type cacheEntry struct {
	path    string
	content string
}

// NewContentCache creates an empty cache without a watcher.
func NewContentCache() *ContentCache {
	return &ContentCache{entries: make(map[string]cacheEntry)}
}

// WithWatcher attaches a filesystem watcher so that entries drop out when
// their backing files are written, removed or renamed by other processes.
func (c *ContentCache) WithWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.watcher = watcher
	c.mu.Unlock()

	go c.watchLoop(watcher)
	return nil
}

func (c *ContentCache) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				c.invalidatePath(event.Name)
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are not fatal for a cache; stale entries are
			// still invalidated on explicit writes.
		}
	}
}

// Get returns the cached content for key.
func (c *ContentCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry.content, ok
}

// Store caches content for key. The path is the resolved on disk location
// backing the entry; when a watcher is attached the path is registered so
// outside writes invalidate the entry.
func (c *ContentCache) Store(key, path, content string) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{path: path, content: content}
	watcher := c.watcher
	c.mu.Unlock()

	if watcher != nil {
		// Best effort: a file that cannot be watched still caches fine.
		_ = watcher.Add(path)
	}
}

// Invalidate drops the entry for key.
func (c *ContentCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// invalidatePath drops every entry backed by the given on disk path.
func (c *ContentCache) invalidatePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if entry.path == path {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of cached entries.
func (c *ContentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the watcher if one is attached.
func (c *ContentCache) Close() error {
	c.mu.Lock()
	watcher := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if watcher != nil {
		return watcher.Close()
	}
	return nil
}
