package frame

import (
	"bytes"
	"context"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/framecast/framecast/pkg/photos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPortrait(t *testing.T) {
	assert.True(t, isPortrait(600, 800))
	assert.False(t, isPortrait(800, 600))
	assert.False(t, isPortrait(500, 500))
}

func TestCombinedImageSizeSplitsDominantAxis(t *testing.T) {
	// Portrait source on a landscape canvas: the width multiplier dominates,
	// so the canvas splits side by side.
	w, h := combinedImageSize(1024, 512, 600, 800)
	assert.Equal(t, 512.0, w)
	assert.Equal(t, 512.0, h)

	// Landscape source on a portrait canvas stacks vertically.
	w, h = combinedImageSize(512, 1024, 800, 600)
	assert.Equal(t, 512.0, w)
	assert.Equal(t, 512.0, h)
}

func TestCutLoss(t *testing.T) {
	// A source matching the target aspect ratio loses nothing to cropping.
	assert.InDelta(t, 0.0, cutLoss(1024, 512, 2048, 1024), 1e-9)

	// A portrait source cropped to cover a landscape canvas loses most of
	// its height; the half canvas loses far less.
	full := cutLoss(1024, 512, 600, 800)
	half := cutLoss(512, 512, 600, 800)
	assert.Greater(t, full, half)
	assert.InDelta(t, 0.625, full, 1e-3)
	assert.InDelta(t, 0.25, half, 1e-3)
}

func TestCombinedImageSideBySide(t *testing.T) {
	srv := newImageServer()
	defer srv.Close()
	svc := newFakeService()
	svc.items = []photos.MediaItem{
		photoItem("tall1", 600, 800),
		photoItem("tall2", 600, 800),
		photoItem("wide", 800, 600),
	}
	c := newTestCoordinator(t, svc, srv)
	c.randIntn = func(int) int { return 0 }
	c.setCurrent(svc.items[0], time.Time{})

	data := c.combinedImage(context.Background(), 1024, 512)
	require.NotNil(t, data)

	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1024, img.Bounds().Dx())
	assert.Equal(t, 512, img.Bounds().Dy())

	// Both halves were fetched cropped at half-canvas size, and the partner
	// shares the primary's orientation.
	paths := srv.requestedPaths()
	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.True(t, strings.HasSuffix(p, "=w512-h512-c"), p)
	}
	require.NotNil(t, c.secondary)
	assert.Equal(t, "tall2", c.secondary.Item().ID)
}

func TestCombinedImageStacked(t *testing.T) {
	srv := newImageServer()
	defer srv.Close()
	svc := newFakeService()
	svc.items = []photos.MediaItem{
		photoItem("wide1", 800, 600),
		photoItem("wide2", 800, 600),
	}
	c := newTestCoordinator(t, svc, srv)
	c.randIntn = func(int) int { return 0 }
	c.setCurrent(svc.items[0], time.Time{})

	data := c.combinedImage(context.Background(), 512, 1024)
	require.NotNil(t, data)

	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.Equal(t, 1024, img.Bounds().Dy())
}

func TestCombinedImageSkippedWhenOrientationMatches(t *testing.T) {
	svc := newFakeService()
	svc.items = []photos.MediaItem{
		photoItem("wide1", 800, 600),
		photoItem("wide2", 800, 600),
	}
	c := newTestCoordinator(t, svc, nil)
	c.setCurrent(svc.items[0], time.Time{})

	// Landscape media on a landscape canvas needs no partner.
	assert.Nil(t, c.combinedImage(context.Background(), 1024, 512))
}

func TestCombinedImageSkippedWithoutPartner(t *testing.T) {
	svc := newFakeService()
	svc.items = []photos.MediaItem{
		photoItem("tall", 600, 800),
		photoItem("wide", 800, 600),
	}
	c := newTestCoordinator(t, svc, nil)
	c.setCurrent(svc.items[0], time.Time{})

	// The only other photo has the wrong orientation.
	assert.Nil(t, c.combinedImage(context.Background(), 1024, 512))
}

func TestCombinedImageSkippedWithoutDimensions(t *testing.T) {
	svc := newFakeService()
	svc.items = photoItems(2)
	c := newTestCoordinator(t, svc, nil)
	c.setCurrent(photos.MediaItem{ID: "bare"}, time.Time{})

	assert.Nil(t, c.combinedImage(context.Background(), 1024, 512))
}

func TestCombinedPartnerIsReusedAcrossSizes(t *testing.T) {
	srv := newImageServer()
	defer srv.Close()
	svc := newFakeService()
	svc.items = []photos.MediaItem{
		photoItem("tall1", 600, 800),
		photoItem("tall2", 600, 800),
		photoItem("tall3", 600, 800),
	}
	c := newTestCoordinator(t, svc, srv)
	c.randIntn = func(int) int { return 0 }
	c.setCurrent(svc.items[0], time.Time{})
	ctx := context.Background()

	require.NotNil(t, c.combinedImage(ctx, 1024, 512))
	partner := c.secondary.Item().ID

	c.randIntn = func(int) int { return 1 }
	require.NotNil(t, c.combinedImage(ctx, 1280, 640))
	assert.Equal(t, partner, c.secondary.Item().ID)
}

func TestGetImageCombinedFallsBackToSingle(t *testing.T) {
	srv := newImageServer()
	defer srv.Close()
	svc := newFakeService()
	svc.items = []photos.MediaItem{
		photoItem("wide1", 800, 600),
		photoItem("wide2", 800, 600),
	}
	c := newTestCoordinator(t, svc, srv)
	c.setCurrent(svc.items[0], time.Time{})
	c.SetCropMode(CropModeCombined)

	// Orientation already matches, so the combined path declines and the
	// plain cropped download serves the request.
	require.NotNil(t, c.GetImage(context.Background(), 1024, 512))
	paths := srv.requestedPaths()
	require.Len(t, paths, 1)
	assert.True(t, strings.HasSuffix(paths[0], "=w1024-h512-c"))
}
