package frame

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/framecast/framecast/pkg/photos"
	"github.com/framecast/framecast/util/log"
)

// ItemDownloader fetches resized bytes for one media item. The item's base
// URL is a capability token that goes stale about 50 minutes after the item
// was last fetched from the service; the downloader re-resolves it lazily,
// amortizing the id-to-URL lookup across requests.
//
// Download never surfaces errors: transport failures are logged and yield
// nil, so consumers keep showing their last known-good image.
type ItemDownloader struct {
	service    photos.Service
	httpClient *http.Client

	mu         sync.Mutex
	item       photos.MediaItem
	resolvedAt time.Time
}

// NewItemDownloader wraps one media item. resolvedAt is when the item's
// base URL was obtained from the service; pass the zero time for items from
// a reduced listing so the first download resolves a fresh URL.
func NewItemDownloader(service photos.Service, httpClient *http.Client, item photos.MediaItem, resolvedAt time.Time) *ItemDownloader {
	return &ItemDownloader{
		service:    service,
		httpClient: httpClient,
		item:       item,
		resolvedAt: resolvedAt,
	}
}

// Item returns the wrapped media item as last resolved.
func (d *ItemDownloader) Item() photos.MediaItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.item
}

// Download fetches the item's bytes at the given size. Returns nil on any
// failure.
func (d *ItemDownloader) Download(ctx context.Context, size photos.Size) []byte {
	mediaURL, err := d.mediaURL(ctx)
	if err != nil {
		log.Printf("Downloader: resolving URL for %s: %v", d.Item().ID, err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	reqURL := mediaURL + size.String()
	log.Debugf("Loading %s", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		log.Printf("Downloader: building request for %s: %v", d.Item().ID, err)
		return nil
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			log.Printf("Downloader: timeout getting image %s", d.Item().ID)
		} else {
			log.Printf("Downloader: getting image %s: %v", d.Item().ID, err)
		}
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Downloader: image %s returned status %d", d.Item().ID, resp.StatusCode)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Downloader: reading image %s: %v", d.Item().ID, err)
		return nil
	}
	return data
}

// mediaURL returns a usable base URL, re-fetching the item when the held
// one is older than the staleness window.
func (d *ItemDownloader) mediaURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.item.BaseURL != "" && time.Since(d.resolvedAt) < baseURLTTL {
		return d.item.BaseURL, nil
	}

	item, err := d.service.GetItem(ctx, d.item.ID)
	if err != nil {
		return "", fmt.Errorf("refreshing media item %s: %w", d.item.ID, err)
	}
	if item.BaseURL == "" {
		return "", fmt.Errorf("media item %s has no base URL", d.item.ID)
	}
	d.item = item
	d.resolvedAt = time.Now()
	return item.BaseURL, nil
}
