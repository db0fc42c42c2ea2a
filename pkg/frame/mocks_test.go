package frame

import (
	"context"
	"fmt"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/framecast/framecast/pkg/photos"
)

// fakeService is an in-memory photos.Service. Continuation tokens are the
// numeric offset of the next page, which keeps page math visible in tests.
type fakeService struct {
	mu sync.Mutex

	items       []photos.MediaItem
	collections map[string]photos.Collection
	baseURL     string

	listErr       error
	getItemErr    error
	collectionErr error

	listCalls       int
	itemCalls       map[string]int
	collectionCalls int

	// Optional hooks to observe and stall in-flight list calls.
	listStarted chan struct{}
	listRelease chan struct{}
}

func newFakeService() *fakeService {
	return &fakeService{
		collections: make(map[string]photos.Collection),
		itemCalls:   make(map[string]int),
	}
}

func (f *fakeService) ListItems(ctx context.Context, filter photos.ListFilter, pageSize int, pageToken string) (photos.Page, error) {
	f.mu.Lock()
	started := f.listStarted
	release := f.listRelease
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if f.listErr != nil {
		return photos.Page{}, f.listErr
	}

	start := 0
	if pageToken != "" {
		start, _ = strconv.Atoi(pageToken)
	}
	if start >= len(f.items) {
		return photos.Page{}, nil
	}
	end := start + pageSize
	if end > len(f.items) {
		end = len(f.items)
	}

	page := photos.Page{Items: append([]photos.MediaItem(nil), f.items[start:end]...)}
	if end < len(f.items) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeService) GetItem(ctx context.Context, id string) (photos.MediaItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.itemCalls[id]++
	if f.getItemErr != nil {
		return photos.MediaItem{}, f.getItemErr
	}
	for _, item := range f.items {
		if item.ID == id {
			item.BaseURL = f.baseURL + "/" + id
			return item, nil
		}
	}
	return photos.MediaItem{}, fmt.Errorf("item %s not found", id)
}

func (f *fakeService) GetCollection(ctx context.Context, id string) (photos.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.collectionCalls++
	if f.collectionErr != nil {
		return photos.Collection{}, f.collectionErr
	}
	if collection, ok := f.collections[id]; ok {
		return collection, nil
	}
	return photos.Collection{}, fmt.Errorf("collection %s not found", id)
}

func (f *fakeService) listCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeService) itemCallCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.itemCalls[id]
}

func (f *fakeService) collectionCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.collectionCalls
}

func photoItem(id string, width, height int) photos.MediaItem {
	return photos.MediaItem{
		ID: id,
		Metadata: &photos.MediaMetadata{
			Width:  strconv.Itoa(width),
			Height: strconv.Itoa(height),
			Photo:  &photos.PhotoDetails{},
		},
	}
}

func videoItem(id string) photos.MediaItem {
	return photos.MediaItem{
		ID: id,
		Metadata: &photos.MediaMetadata{
			Width:  "1920",
			Height: "1080",
			Video:  &photos.VideoDetails{},
		},
	}
}

// photoItems generates landscape photos p0..p(n-1).
func photoItems(n int) []photos.MediaItem {
	items := make([]photos.MediaItem, n)
	for i := range items {
		items[i] = photoItem(fmt.Sprintf("p%d", i), 800, 600)
	}
	return items
}

// imageServer serves a small JPEG for every request and records what was
// asked for.
type imageServer struct {
	*httptest.Server

	mu    sync.Mutex
	hits  int
	paths []string
}

func newImageServer() *imageServer {
	s := &imageServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits++
		s.paths = append(s.paths, r.URL.Path)
		s.mu.Unlock()

		img := imaging.New(64, 48, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
		w.Header().Set("Content-Type", "image/jpeg")
		_ = imaging.Encode(w, img, imaging.JPEG)
	}))
	return s
}

func (s *imageServer) hitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}

func (s *imageServer) requestedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}
