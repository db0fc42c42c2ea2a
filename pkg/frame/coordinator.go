package frame

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/framecast/framecast/pkg/photos"
	"github.com/framecast/framecast/util/log"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// DeviceInfo is the identity the consuming surface reports for one
// collection's virtual device.
type DeviceInfo struct {
	Identifiers      []string
	Manufacturer     string
	Name             string
	ConfigurationURL string
}

// Coordinator orchestrates one collection: it owns the item cache, the
// current selection and its byte cache, and the per-collection display
// configuration. It is the only type external consumers interact with.
type Coordinator struct {
	service    photos.Service
	httpClient *http.Client

	collectionID string
	cache        *CollectionCache
	processor    *imageProcessor

	// imageCache maps size descriptors to rendered bytes for the current
	// selection. It is flushed wholesale on every selection or crop-mode
	// change, never partially.
	imageCache *gocache.Cache

	mu         sync.Mutex
	collection *photos.Collection
	primary    *ItemDownloader
	secondary  *ItemDownloader
	selectedAt time.Time

	cropMode      CropMode
	selectionMode SelectionMode
	interval      DisplayInterval

	listeners map[string]func()

	// Swappable for deterministic tests.
	randIntn func(int) int
}

// NewCoordinator creates a coordinator for the given collection id. The
// favorites collection is synthetic: its metadata is fixed locally and its
// listing uses a feature filter instead of an album query.
func NewCoordinator(service photos.Service, httpClient *http.Client, collectionID string) *Coordinator {
	c := &Coordinator{
		service:       service,
		httpClient:    httpClient,
		collectionID:  collectionID,
		cache:         NewCollectionCache(service, photos.FilterFor(collectionID)),
		processor:     newImageProcessor(),
		imageCache:    gocache.New(gocache.NoExpiration, 0),
		selectionMode: SelectionRandom,
		interval:      DefaultInterval,
		listeners:     make(map[string]func()),
		randIntn:      rand.Intn,
	}
	if collectionID == photos.CollectionIDFavorites {
		c.collection = &photos.Collection{
			ID:          collectionID,
			Title:       "Favorites",
			IsWriteable: false,
		}
	}
	return c
}

// CollectionID returns the id this coordinator serves.
func (c *Coordinator) CollectionID() string {
	return c.collectionID
}

// Collection returns the collection metadata, or nil before the first
// successful update.
func (c *Coordinator) Collection() *photos.Collection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.collection == nil {
		return nil
	}
	collection := *c.collection
	return &collection
}

// Cache returns the coordinator's collection cache.
func (c *Coordinator) Cache() *CollectionCache {
	return c.cache
}

// Update is the scheduled refresh entry point: it fetches collection
// metadata on first use, refreshes the item cache, and ensures something is
// selected. A metadata failure is fatal for this attempt and is retried on
// the next scheduled update.
func (c *Coordinator) Update(ctx context.Context) error {
	c.mu.Lock()
	collection := c.collection
	c.mu.Unlock()

	if collection == nil {
		mctx, cancel := context.WithTimeout(ctx, metadataTimeout)
		fetched, err := c.service.GetCollection(mctx, c.collectionID)
		cancel()
		if err != nil {
			return fmt.Errorf("fetching collection %s: %w", c.collectionID, err)
		}
		c.mu.Lock()
		c.collection = &fetched
		collection = c.collection
		c.mu.Unlock()
	}

	c.cache.Refresh(ctx)

	if c.CurrentItem() == nil {
		if collection.CoverPhotoMediaItemID != "" {
			c.SetCurrentItemByID(ctx, collection.CoverPhotoMediaItemID)
		} else {
			c.SelectNext(SelectionDefault)
		}
	}
	return nil
}

// SuggestedInterval returns how soon the owner should schedule the next
// update: short while the item list is still building, zero once it is
// complete and fresh.
func (c *Coordinator) SuggestedInterval() time.Duration {
	return c.cache.SuggestedInterval()
}

// CurrentItem returns the currently selected media item, or nil.
func (c *Coordinator) CurrentItem() *photos.MediaItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.primary == nil {
		return nil
	}
	item := c.primary.Item()
	return &item
}

// CurrentItemID returns the id of the current item, or "".
func (c *Coordinator) CurrentItemID() string {
	if item := c.CurrentItem(); item != nil {
		return item.ID
	}
	return ""
}

// SetCurrentItemByID selects a specific item, fetching it by id. Used for
// a collection's designated cover photo. Failures are logged and leave the
// current selection unchanged.
func (c *Coordinator) SetCurrentItemByID(ctx context.Context, id string) {
	item, err := c.service.GetItem(ctx, id)
	if err != nil {
		log.Printf("Coordinator %s: getting media item %s: %v", c.collectionID, id, err)
		return
	}
	c.setCurrent(item, time.Now())
}

// setCurrent installs a new selection: fresh downloader, cleared secondary,
// flushed byte cache, reset display clock, then a synchronous listener
// fan-out.
func (c *Coordinator) setCurrent(item photos.MediaItem, resolvedAt time.Time) {
	c.mu.Lock()
	c.primary = NewItemDownloader(c.service, c.httpClient, item, resolvedAt)
	c.secondary = nil
	c.selectedAt = time.Now()
	c.mu.Unlock()

	c.imageCache.Flush()
	c.notifyListeners()
}

// SelectNext advances the selection under the given mode. Pass
// SelectionDefault to use the coordinator's configured mode.
func (c *Coordinator) SelectNext(mode SelectionMode) {
	if mode == SelectionDefault {
		c.mu.Lock()
		mode = c.selectionMode
		c.mu.Unlock()
	}
	if mode == SelectionAlbumOrder {
		c.selectSequential()
	} else {
		c.selectRandom()
	}
}

// selectRandom picks uniformly among the photo items. A single-item list is
// left alone: reselecting the only candidate would be a pointless churn of
// caches and notifications.
func (c *Coordinator) selectRandom() {
	items := c.cache.PhotoItems()
	if len(items) > 1 {
		c.setCurrent(items[c.randIntn(len(items))], time.Time{})
	}
}

// selectSequential walks the photo list in order, wrapping at the end. A
// current item that fell out of the cached window restarts at the first
// item.
func (c *Coordinator) selectSequential() {
	items := c.cache.PhotoItems()
	if len(items) < 1 {
		return
	}
	currentIndex := -1
	currentID := c.CurrentItemID()
	for i, item := range items {
		if item.ID == currentID {
			currentIndex = i
			break
		}
	}
	c.setCurrent(items[(currentIndex+1)%len(items)], time.Time{})
}

// GetImage returns rendered bytes for the current selection at the
// requested size, serving repeats from the byte cache. Returns nil when
// nothing is selected or every render path failed.
func (c *Coordinator) GetImage(ctx context.Context, width, height int) []byte {
	if width <= 0 {
		width = DefaultImageWidth
	}
	if height <= 0 {
		height = DefaultImageHeight
	}

	c.mu.Lock()
	mode := c.cropMode
	primary := c.primary
	c.mu.Unlock()

	size := photos.Size{
		Width:  width,
		Height: height,
		Crop:   mode == CropModeCrop || mode == CropModeCombined,
	}
	key := size.String()
	if cached, ok := c.imageCache.Get(key); ok {
		return cached.([]byte)
	}

	if mode == CropModeCombined {
		if data := c.combinedImage(ctx, width, height); data != nil {
			c.imageCache.Set(key, data, gocache.NoExpiration)
			return data
		}
	}

	if primary == nil {
		return nil
	}

	var data []byte
	if mode == CropModeSmart {
		data = c.smartImage(ctx, primary, width, height)
	} else {
		data = primary.Download(ctx, size)
	}
	if data != nil {
		c.imageCache.Set(key, data, gocache.NoExpiration)
	}
	return data
}

// smartImage fetches oversized uncropped bytes and crops them locally with
// content-aware analysis.
func (c *Coordinator) smartImage(ctx context.Context, primary *ItemDownloader, width, height int) []byte {
	src := primary.Download(ctx, photos.Size{Width: width * 2, Height: height * 2})
	if src == nil {
		return nil
	}
	img, err := c.processor.DecodeImage(ctx, src)
	if err != nil {
		log.Printf("Smart crop: decoding %s: %v", c.CurrentItemID(), err)
		return nil
	}
	cropped, err := c.processor.SmartCrop(ctx, img, width, height)
	if err != nil {
		log.Printf("Smart crop: cropping %s: %v", c.CurrentItemID(), err)
		return nil
	}
	data, err := c.processor.EncodeJPEG(ctx, cropped)
	if err != nil {
		log.Printf("Smart crop: encoding %s: %v", c.CurrentItemID(), err)
		return nil
	}
	return data
}

// MaybeAdvance moves to the next item if the display interval has elapsed
// or nothing is selected, and reports whether it advanced. It also kicks an
// asynchronous cache refresh; Refresh itself no-ops while fresh or busy.
func (c *Coordinator) MaybeAdvance(ctx context.Context) bool {
	go c.cache.Refresh(context.WithoutCancel(ctx))

	c.mu.Lock()
	interval := c.interval
	selectedAt := c.selectedAt
	hasCurrent := c.primary != nil
	c.mu.Unlock()

	d, ok := interval.Duration()
	if !ok {
		return false
	}
	if time.Since(selectedAt) > d || !hasCurrent {
		c.SelectNext(SelectionDefault)
		return true
	}
	return false
}

// Subscribe registers a listener invoked synchronously after every
// selection change. It returns a token for Unsubscribe.
func (c *Coordinator) Subscribe(fn func()) string {
	id := uuid.New().String()
	c.mu.Lock()
	c.listeners[id] = fn
	c.mu.Unlock()
	return id
}

// Unsubscribe removes a listener by its subscription token.
func (c *Coordinator) Unsubscribe(id string) {
	c.mu.Lock()
	delete(c.listeners, id)
	c.mu.Unlock()
}

func (c *Coordinator) notifyListeners() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// SetCropMode changes the crop mode and invalidates all rendered bytes.
func (c *Coordinator) SetCropMode(mode CropMode) {
	c.mu.Lock()
	c.cropMode = mode
	c.mu.Unlock()
	c.imageCache.Flush()
}

// SetSelectionMode changes the selection policy for future advances.
func (c *Coordinator) SetSelectionMode(mode SelectionMode) {
	c.mu.Lock()
	c.selectionMode = mode
	c.mu.Unlock()
}

// SetInterval changes how long each selection stays on display.
func (c *Coordinator) SetInterval(interval DisplayInterval) {
	c.mu.Lock()
	c.interval = interval
	c.mu.Unlock()
}

// DeviceInfo returns the identity info for this collection's virtual
// device.
func (c *Coordinator) DeviceInfo() DeviceInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := DeviceInfo{
		Identifiers:  []string{c.collectionID},
		Manufacturer: Manufacturer,
	}
	if c.collection != nil {
		info.Name = "Framecast - " + c.collection.Title
		info.ConfigurationURL = c.collection.ProductURL
	}
	return info
}
