package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
)

const (
	cacheVersion = 1
	// entries older than this are treated as unknown and probed again
	ttl = 24 * time.Hour
)

// LinkCache remembers successful link probe results between runs, so a green
// link is not re-fetched on every run. Lookup only returns fresh entries.
type LinkCache interface {
	Lookup(target string) (statusCode int, fresh bool)
	Store(target string, statusCode int)
	Save() error
}

// DefaultPath returns the cache file location for a guide directory.
func DefaultPath(docDir string) string {
	return filepath.Join(docDir, ".guidecheck-cache.json")
}

type entry struct {
	StatusCode int       `json:"status_code"`
	CheckedAt  time.Time `json:"checked_at"`
}

type cacheFile struct {
	Version int              `json:"version"`
	Entries map[string]entry `json:"entries"`
}

type linkCache struct {
	pth         string
	fileManager fileutil.FileManager
	logger      log.Logger

	mu      sync.Mutex
	entries map[string]entry
	dirty   bool
}

// NewLinkCache loads the cache file at pth. A missing file yields an empty
// cache and a corrupted or incompatible one is discarded with a warning,
// the run proceeds either way.
func NewLinkCache(pth string, fileManager fileutil.FileManager, logger log.Logger) LinkCache {
	c := &linkCache{
		pth:         pth,
		fileManager: fileManager,
		logger:      logger,
		entries:     map[string]entry{},
	}
	c.load()
	return c
}

func (c *linkCache) load() {
	reader, err := c.fileManager.OpenReaderIfExists(c.pth)
	if err != nil {
		c.logger.Warnf("Failed to open link cache (%s): %s", c.pth, err)
		return
	}
	if reader == nil {
		return
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		c.logger.Warnf("Failed to read link cache (%s): %s", c.pth, err)
		return
	}

	var file cacheFile
	if err := json.Unmarshal(raw, &file); err != nil {
		c.logger.Warnf("Discarding corrupted link cache (%s): %s", c.pth, err)
		return
	}
	if file.Version != cacheVersion {
		c.logger.Debugf("Discarding link cache with version %d, want %d", file.Version, cacheVersion)
		return
	}

	c.entries = file.Entries
	if c.entries == nil {
		c.entries = map[string]entry{}
	}
	c.logger.Debugf("Loaded %d cached link result(s) from %s", len(c.entries), c.pth)
}

func (c *linkCache) Lookup(target string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[target]
	if !ok || time.Since(e.CheckedAt) > ttl {
		return 0, false
	}
	return e.StatusCode, true
}

func (c *linkCache) Store(target string, statusCode int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[target] = entry{StatusCode: statusCode, CheckedAt: time.Now()}
	c.dirty = true
}

// Save writes the cache back to disk, dropping entries that aged out. It is
// a no-op when nothing changed during the run.
func (c *linkCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	for target, e := range c.entries {
		if time.Since(e.CheckedAt) > ttl {
			delete(c.entries, target)
		}
	}

	raw, err := json.MarshalIndent(cacheFile{Version: cacheVersion, Entries: c.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode link cache: %w", err)
	}
	if err := c.fileManager.Write(c.pth, string(raw), 0600); err != nil {
		return fmt.Errorf("failed to write link cache (%s): %w", c.pth, err)
	}

	c.dirty = false
	return nil
}
