package frame

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/framecast/framecast/pkg/photos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloaderReusesFreshBaseURL(t *testing.T) {
	srv := newImageServer()
	defer srv.Close()

	svc := newFakeService()
	item := photoItem("p0", 800, 600)
	item.BaseURL = srv.URL + "/p0"

	d := NewItemDownloader(svc, srv.Client(), item, time.Now())
	data := d.Download(context.Background(), photos.Size{Width: 1024, Height: 512})

	require.NotNil(t, data)
	assert.Equal(t, 0, svc.itemCallCount("p0"))
	paths := srv.requestedPaths()
	require.Len(t, paths, 1)
	assert.Equal(t, "/p0=w1024-h512", paths[0])
}

func TestDownloaderResolvesMissingBaseURL(t *testing.T) {
	srv := newImageServer()
	defer srv.Close()

	svc := newFakeService()
	svc.items = photoItems(1)
	svc.baseURL = srv.URL

	// Items from a reduced listing carry no base URL and a zero resolve time.
	d := NewItemDownloader(svc, srv.Client(), photoItem("p0", 800, 600), time.Time{})
	size := photos.Size{Width: 640, Height: 480, Crop: true}

	require.NotNil(t, d.Download(context.Background(), size))
	assert.Equal(t, 1, svc.itemCallCount("p0"))

	// The resolved URL is reused for subsequent downloads.
	require.NotNil(t, d.Download(context.Background(), size))
	assert.Equal(t, 1, svc.itemCallCount("p0"))
	assert.Equal(t, 2, srv.hitCount())
}

func TestDownloaderRefreshesStaleBaseURL(t *testing.T) {
	srv := newImageServer()
	defer srv.Close()

	svc := newFakeService()
	svc.items = photoItems(1)
	svc.baseURL = srv.URL

	item := photoItem("p0", 800, 600)
	item.BaseURL = srv.URL + "/old-p0"
	d := NewItemDownloader(svc, srv.Client(), item, time.Now().Add(-baseURLTTL))

	require.NotNil(t, d.Download(context.Background(), photos.Size{Width: 100, Height: 100}))
	assert.Equal(t, 1, svc.itemCallCount("p0"))
	paths := srv.requestedPaths()
	require.Len(t, paths, 1)
	assert.Equal(t, "/p0=w100-h100", paths[0])
}

func TestDownloaderResolveFailureYieldsNil(t *testing.T) {
	svc := newFakeService()
	svc.getItemErr = errors.New("service unavailable")

	d := NewItemDownloader(svc, http.DefaultClient, photoItem("p0", 800, 600), time.Time{})
	assert.Nil(t, d.Download(context.Background(), photos.Size{Width: 100, Height: 100}))
}

func TestDownloaderHTTPErrorYieldsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	svc := newFakeService()
	item := photoItem("p0", 800, 600)
	item.BaseURL = srv.URL + "/p0"

	d := NewItemDownloader(svc, srv.Client(), item, time.Now())
	assert.Nil(t, d.Download(context.Background(), photos.Size{Width: 100, Height: 100}))
}
