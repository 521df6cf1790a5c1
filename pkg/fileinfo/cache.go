// Package fileinfo memoizes per-file static attributes (language, repo
// contributor counts, file age) so repeated events on the same file avoid
// repeated external lookups.
package fileinfo

import (
	"path/filepath"
	"strings"
	"sync"
)

// Info holds the static attributes of a file, captured once per window at
// the first event that touches the file. Length and LineCount are the
// observations made at that first resolution; they are not refreshed on
// cache hits.
type Info struct {
	Filename             string
	LanguageID           string
	Length               int
	LineCount            int
	FileAgeDays          float64
	RepoContributorCount int
	RepoFileCount        int
	FileContributorCount int
}

// MetadataProvider supplies the repository lookups behind a cache miss.
// Implementations must degrade to zero values on failure rather than
// returning errors.
type MetadataProvider interface {
	RepoContributorCount(filename string) int
	RepoFileCount(filename string) int
	FileContributorCount(filename string) int
	FileAgeDays(filename string) float64
}

// Cache memoizes Info by filename. Entries live until Clear, which the
// aggregator calls on every flush so a new window re-resolves everything.
type Cache struct {
	mu       sync.Mutex
	provider MetadataProvider
	entries  map[string]Info
}

// NewCache creates an empty cache backed by the given provider.
func NewCache(provider MetadataProvider) *Cache {
	return &Cache{
		provider: provider,
		entries:  make(map[string]Info),
	}
}

// Resolve returns the cached Info for filename, performing the external
// lookups on first sight. The observed language, length and line count are
// captured only on a miss; later observations never update an entry.
func (c *Cache) Resolve(filename, languageID string, length, lineCount int) Info {
	c.mu.Lock()
	if info, ok := c.entries[filename]; ok {
		c.mu.Unlock()
		return info
	}
	c.mu.Unlock()

	// Lookups run outside the lock; they may shell out to git. Two
	// concurrent misses on the same filename both resolve and the second
	// write wins with an identical value.
	if languageID == "" && strings.Contains(filename, ".") {
		languageID = strings.TrimPrefix(filepath.Ext(filename), ".")
	}

	info := Info{
		Filename:   filename,
		LanguageID: languageID,
		Length:     length,
		LineCount:  lineCount,
	}
	if c.provider != nil {
		info.RepoContributorCount = c.provider.RepoContributorCount(filename)
		info.RepoFileCount = c.provider.RepoFileCount(filename)
		info.FileContributorCount = c.provider.FileContributorCount(filename)
		info.FileAgeDays = c.provider.FileAgeDays(filename)
	}

	c.mu.Lock()
	c.entries[filename] = info
	c.mu.Unlock()
	return info
}

// Clear drops all entries. Called together with the aggregator reset so
// static attributes are re-resolved in the next window.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Info)
	c.mu.Unlock()
}
