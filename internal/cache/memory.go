// Package cache keeps recently extracted links so repeated URLs across
// batches skip the backend chain.
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/JakeFAU/link-enricher/internal/enrichment"
	"github.com/JakeFAU/link-enricher/internal/metrics"
)

// MemoryCache implements enrichment.LinkCache on top of go-cache. Only
// successful links are stored.
type MemoryCache struct {
	cache  *gocache.Cache
	hasher enrichment.Hasher
}

// NewMemoryCache creates a cache whose entries live for ttl. It returns nil
// when ttl is not positive; callers treat a nil cache as disabled.
func NewMemoryCache(ttl time.Duration, hasher enrichment.Hasher) *MemoryCache {
	if ttl <= 0 {
		return nil
	}
	return &MemoryCache{
		cache:  gocache.New(ttl, 2*ttl),
		hasher: hasher,
	}
}

// Get returns the cached link for rawURL.
func (c *MemoryCache) Get(rawURL string) (enrichment.EnrichedLink, bool) {
	if c == nil {
		return enrichment.EnrichedLink{}, false
	}
	val, found := c.cache.Get(c.key(rawURL))
	metrics.ObserveCacheLookup(found)
	if !found {
		return enrichment.EnrichedLink{}, false
	}
	link, ok := val.(enrichment.EnrichedLink)
	return link, ok
}

// Set stores link when it is a success; other statuses are ignored.
func (c *MemoryCache) Set(rawURL string, link enrichment.EnrichedLink) {
	if c == nil || link.Status != enrichment.StatusSuccess {
		return
	}
	c.cache.SetDefault(c.key(rawURL), link)
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.ItemCount()
}

// Clear drops every entry.
func (c *MemoryCache) Clear() {
	if c != nil {
		c.cache.Flush()
	}
}

func (c *MemoryCache) key(rawURL string) string {
	normalized := strings.TrimSpace(rawURL)
	if c.hasher == nil {
		return normalized
	}
	sum, err := c.hasher.HashURL(normalized)
	if err != nil {
		return normalized
	}
	return sum
}
