package frame

import (
	"context"
	"sync"
	"time"

	"github.com/framecast/framecast/pkg/photos"
	"github.com/framecast/framecast/util"
	"github.com/framecast/framecast/util/log"
)

// CollectionCache incrementally builds and periodically refreshes the
// ordered media item list for one collection. Items are stored as a reduced
// projection (id plus dimensions and kind) to bound memory; download URLs
// are resolved on demand by ItemDownloader.
//
// Page writes overwrite the list at the current write offset, so a reader
// mid-build sees the previous list with a prefix replaced by newer data,
// never a shrinking or interleaved list. Only the final page of a complete
// traversal truncates.
type CollectionCache struct {
	service photos.Service
	filter  photos.ListFilter

	fetching *util.SafeFlag

	mu          sync.RWMutex
	items       []photos.MediaItem
	writeOffset int
	pageToken   string
	completedAt time.Time
}

// NewCollectionCache creates an empty cache for the given listing filter.
func NewCollectionCache(service photos.Service, filter photos.ListFilter) *CollectionCache {
	return &CollectionCache{
		service:  service,
		filter:   filter,
		fetching: util.NewSafeBool(),
	}
}

// Filter returns the listing filter this cache was built for.
func (c *CollectionCache) Filter() photos.ListFilter {
	return c.filter
}

// Refresh performs one bounded fetch cycle and reports whether any work was
// done. It is a no-op while another fetch is in flight, and while a fully
// built list is still within its freshness window. Errors abort the cycle
// leaving already-applied pages intact; the next scheduled refresh retries.
func (c *CollectionCache) Refresh(ctx context.Context) bool {
	if !c.fetching.CompareAndSwap(false, true) {
		log.Debugf("Cache refresh skipped for %s - fetch already in progress", c.filter)
		return false
	}
	defer c.fetching.Set(false)

	c.mu.Lock()
	token := c.pageToken
	if token == "" {
		if !c.completedAt.IsZero() && time.Since(c.completedAt) < listRefreshTTL {
			c.mu.Unlock()
			return false
		}
		// Cold start or a completed traversal due for a rebuild: restart
		// from the top of the collection.
		c.writeOffset = 0
	}
	c.mu.Unlock()

	budget := incrementalItemBudget
	if token == "" {
		budget = coldStartItemBudget
	}

	fetched := 0
	for fetched < budget {
		page, err := c.service.ListItems(ctx, c.filter, listPageSize, token)
		if err != nil {
			log.Printf("Cache: listing %s failed: %v", c.filter, err)
			return fetched > 0
		}
		if len(page.Items) == 0 && page.NextPageToken != "" {
			// Empty page with a continuation token makes no progress;
			// treat it as no data and retry on the next cycle.
			log.Printf("Cache: empty page with continuation token for %s, aborting cycle", c.filter)
			return fetched > 0
		}

		c.applyPage(page.Items)
		fetched += len(page.Items)
		token = page.NextPageToken

		c.mu.Lock()
		c.pageToken = token
		if token == "" {
			// Traversal complete: drop anything left over from a longer
			// previous build and stamp the freshness window.
			c.items = c.items[:c.writeOffset]
			c.completedAt = time.Now()
		}
		c.mu.Unlock()

		if token == "" {
			log.Debugf("Cache: %s complete with %d items", c.filter, c.Len())
			break
		}
	}
	return true
}

// applyPage overwrites the contiguous slice [offset, offset+len) and
// advances the write offset. The list only ever grows mid-build.
func (c *CollectionCache) applyPage(items []photos.MediaItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	need := c.writeOffset + len(items)
	if need > len(c.items) {
		c.items = append(c.items, make([]photos.MediaItem, need-len(c.items))...)
	}
	for i, item := range items {
		c.items[c.writeOffset+i] = reduceItem(item)
	}
	c.writeOffset = need
}

// reduceItem strips a listed item down to identity and selection metadata.
// Base URLs are deliberately dropped: they expire quickly and are
// re-resolved per item at download time.
func reduceItem(item photos.MediaItem) photos.MediaItem {
	return photos.MediaItem{
		ID:       item.ID,
		MimeType: item.MimeType,
		Filename: item.Filename,
		Metadata: item.Metadata,
	}
}

// IsBuilding reports whether the list is still being paged in.
func (c *CollectionCache) IsBuilding() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pageToken != ""
}

// SuggestedInterval returns how soon the owner should refresh again: a
// short interval while building, zero (no polling needed) once the list is
// complete and fresh.
func (c *CollectionCache) SuggestedInterval() time.Duration {
	if c.IsBuilding() {
		return buildingPollInterval
	}
	return 0
}

// Stale reports whether a refresh would do work right now.
func (c *CollectionCache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pageToken != "" {
		return true
	}
	return c.completedAt.IsZero() || time.Since(c.completedAt) >= listRefreshTTL
}

// Len returns the number of cached items.
func (c *CollectionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Items returns a snapshot of the cached list.
func (c *CollectionCache) Items() []photos.MediaItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snapshot := make([]photos.MediaItem, len(c.items))
	copy(snapshot, c.items)
	return snapshot
}

// PhotoItems returns a snapshot of the cached items that are photos.
func (c *CollectionCache) PhotoItems() []photos.MediaItem {
	return c.filtered(photos.MediaItem.IsPhoto)
}

// VideoItems returns a snapshot of the cached items that are videos.
func (c *CollectionCache) VideoItems() []photos.MediaItem {
	return c.filtered(photos.MediaItem.IsVideo)
}

func (c *CollectionCache) filtered(keep func(photos.MediaItem) bool) []photos.MediaItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []photos.MediaItem
	for _, item := range c.items {
		if keep(item) {
			result = append(result, item)
		}
	}
	return result
}
