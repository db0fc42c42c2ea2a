package frame

import (
	"context"
	"net/http"
	"sync"

	"github.com/framecast/framecast/pkg/photos"
)

// Registry hands out one Coordinator per collection id, created lazily.
// Concurrent callers asking for the same id during construction share the
// single in-flight first update instead of racing duplicate coordinators.
type Registry struct {
	service    photos.Service
	httpClient *http.Client

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	coordinator *Coordinator
	ready       chan struct{}
	err         error
}

// NewRegistry creates an empty registry.
func NewRegistry(service photos.Service, httpClient *http.Client) *Registry {
	return &Registry{
		service:    service,
		httpClient: httpClient,
		entries:    make(map[string]*registryEntry),
	}
}

// Get returns the coordinator for a collection, constructing it and running
// its first update when the id is new. A failed first update evicts the
// entry so the next call retries construction.
func (r *Registry) Get(ctx context.Context, collectionID string) (*Coordinator, error) {
	r.mu.Lock()
	entry, exists := r.entries[collectionID]
	if !exists {
		entry = &registryEntry{
			coordinator: NewCoordinator(r.service, r.httpClient, collectionID),
			ready:       make(chan struct{}),
		}
		r.entries[collectionID] = entry
		r.mu.Unlock()

		entry.err = entry.coordinator.Update(ctx)
		close(entry.ready)
		if entry.err != nil {
			r.mu.Lock()
			if r.entries[collectionID] == entry {
				delete(r.entries, collectionID)
			}
			r.mu.Unlock()
			return nil, entry.err
		}
		return entry.coordinator, nil
	}
	r.mu.Unlock()

	select {
	case <-entry.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if entry.err != nil {
		return nil, entry.err
	}
	return entry.coordinator, nil
}

// Remove drops a collection's coordinator. No state is retained.
func (r *Registry) Remove(collectionID string) {
	r.mu.Lock()
	delete(r.entries, collectionID)
	r.mu.Unlock()
}

// CollectionIDs returns the ids with live coordinators.
func (r *Registry) CollectionIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}
