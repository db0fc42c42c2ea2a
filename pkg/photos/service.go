package photos

import (
	"context"
	"fmt"
)

// CollectionIDFavorites is the synthetic collection id for the service-wide
// favorites set. It is not a real album; listing it uses a feature filter
// instead of an album membership query.
const CollectionIDFavorites = "FAVORITES"

// FeatureFavorites is the service-side feature filter value backing the
// favorites collection.
const FeatureFavorites = "FAVORITES"

// ListFilter selects which media items a listing call returns. Exactly one
// of AlbumID or Feature is set.
type ListFilter struct {
	AlbumID string
	Feature string
}

// AlbumFilter returns a filter listing the members of one album.
func AlbumFilter(albumID string) ListFilter {
	return ListFilter{AlbumID: albumID}
}

// FavoritesFilter returns a filter listing the user's favorites.
func FavoritesFilter() ListFilter {
	return ListFilter{Feature: FeatureFavorites}
}

// FilterFor maps a collection id to its listing filter.
func FilterFor(collectionID string) ListFilter {
	if collectionID == CollectionIDFavorites {
		return FavoritesFilter()
	}
	return AlbumFilter(collectionID)
}

func (f ListFilter) String() string {
	if f.Feature != "" {
		return fmt.Sprintf("feature:%s", f.Feature)
	}
	return fmt.Sprintf("album:%s", f.AlbumID)
}

// Service is the remote photo service surface the engine consumes. Resized
// image bytes are not part of this interface: they are fetched with a plain
// HTTP GET against MediaItem.BaseURL plus a Size descriptor suffix.
type Service interface {
	// ListItems fetches one page of the collection selected by filter.
	// pageToken is the opaque continuation token from the previous page,
	// empty for the first page.
	ListItems(ctx context.Context, filter ListFilter, pageSize int, pageToken string) (Page, error)

	// GetItem fetches one media item by id, yielding a fresh BaseURL.
	GetItem(ctx context.Context, id string) (MediaItem, error)

	// GetCollection fetches album metadata by id.
	GetCollection(ctx context.Context, id string) (Collection, error)
}
