package frame

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/framecast/framecast/pkg/photos"
	"github.com/framecast/framecast/util/log"
	"golang.org/x/sync/errgroup"
)

// isPortrait reports whether the given dimensions describe a portrait image.
func isPortrait(width, height float64) bool {
	return height > width
}

// combinedImageSize splits the target canvas in half along whichever axis
// needs the smaller scale-up to cover it with the source: when the height
// multiplier dominates, the canvas stacks two halves vertically, otherwise
// it tiles them side by side.
func combinedImageSize(targetW, targetH, srcW, srcH float64) (float64, float64) {
	multiplierWidth := targetW / srcW
	multiplierHeight := targetH / srcH
	if multiplierHeight > multiplierWidth {
		return targetW, targetH / 2
	}
	return targetW / 2, targetH
}

// cutLoss is the fraction of a cropped-to-cover image's area that falls
// outside the visible target canvas.
func cutLoss(targetW, targetH, srcW, srcH float64) float64 {
	multiplier := math.Max(targetW/srcW, targetH/srcH)
	return 1 - (targetW*targetH)/((srcW*multiplier)*(srcH*multiplier))
}

// combinedImage tiles the current item with a second item of the same
// orientation to fill a canvas of the opposite orientation. Returns nil
// whenever single-image rendering is the better (or only) option; the
// caller falls back to the plain download path.
func (c *Coordinator) combinedImage(ctx context.Context, width, height int) []byte {
	c.mu.Lock()
	primary := c.primary
	secondary := c.secondary
	c.mu.Unlock()

	if primary == nil {
		return nil
	}
	srcW, srcH, ok := primary.Item().Dimensions()
	if !ok {
		return nil
	}

	targetW, targetH := float64(width), float64(height)
	mediaPortrait := isPortrait(srcW, srcH)
	if isPortrait(targetW, targetH) == mediaPortrait {
		// Requested orientation matches the media orientation.
		return nil
	}

	halfW, halfH := combinedImageSize(targetW, targetH, srcW, srcH)
	if cutLoss(targetW, targetH, srcW, srcH) <= cutLoss(halfW, halfH, srcW, srcH) {
		// A single crop loses no more of the image than tiling would.
		return nil
	}

	if secondary == nil {
		pick := c.pickSecondary(mediaPortrait, primary.Item().ID)
		if pick == nil {
			return nil
		}
		secondary = NewItemDownloader(c.service, c.httpClient, *pick, time.Time{})
		c.mu.Lock()
		c.secondary = secondary
		c.mu.Unlock()
	}

	halfSize := photos.Size{
		Width:  int(math.Ceil(halfW)),
		Height: int(math.Ceil(halfH)),
		Crop:   true,
	}

	var primaryBytes, secondaryBytes []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if primaryBytes = primary.Download(gctx, halfSize); primaryBytes == nil {
			return fmt.Errorf("primary image download failed")
		}
		return nil
	})
	g.Go(func() error {
		if secondaryBytes = secondary.Download(gctx, halfSize); secondaryBytes == nil {
			return fmt.Errorf("secondary image download failed")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Debugf("Combined image for %s skipped: %v", c.collectionID, err)
		return nil
	}

	return c.renderCombined(ctx, primaryBytes, secondaryBytes, width, height, halfW, halfH)
}

// pickSecondary chooses a random photo sharing the current item's
// orientation, excluding the current item itself.
func (c *Coordinator) pickSecondary(portrait bool, excludeID string) *photos.MediaItem {
	var candidates []photos.MediaItem
	for _, item := range c.cache.PhotoItems() {
		if item.ID == excludeID {
			continue
		}
		w, h, ok := item.Dimensions()
		if !ok || isPortrait(w, h) != portrait {
			continue
		}
		candidates = append(candidates, item)
	}
	if len(candidates) == 0 {
		return nil
	}
	pick := candidates[c.randIntn(len(candidates))]
	return &pick
}

// renderCombined pastes the two half-canvas images onto a white canvas of
// the full requested size and encodes the result as a single JPEG.
func (c *Coordinator) renderCombined(ctx context.Context, primaryBytes, secondaryBytes []byte, width, height int, halfW, halfH float64) []byte {
	primaryImg, err := c.processor.DecodeImage(ctx, primaryBytes)
	if err != nil {
		log.Printf("Combined image: decoding primary: %v", err)
		return nil
	}
	secondaryImg, err := c.processor.DecodeImage(ctx, secondaryBytes)
	if err != nil {
		log.Printf("Combined image: decoding secondary: %v", err)
		return nil
	}

	canvas := imaging.New(width, height, color.White)
	canvas = imaging.Paste(canvas, primaryImg, image.Pt(0, 0))
	if halfW < float64(width) {
		canvas = imaging.Paste(canvas, secondaryImg, image.Pt(int(math.Floor(halfW)), 0))
	} else {
		canvas = imaging.Paste(canvas, secondaryImg, image.Pt(0, int(math.Floor(halfH))))
	}

	data, err := c.processor.EncodeJPEG(ctx, canvas)
	if err != nil {
		log.Printf("Combined image: encoding: %v", err)
		return nil
	}
	return data
}
