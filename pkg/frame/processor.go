package frame

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/muesli/smartcrop"

	// The service occasionally serves webp bytes; register the decoder.
	_ "golang.org/x/image/webp"
)

// imageProcessor decodes, encodes and crops rendered output. Cropping uses
// content-aware analysis so the subject survives aggressive aspect changes.
type imageProcessor struct {
	resampler imaging.ResampleFilter
}

func newImageProcessor() *imageProcessor {
	return &imageProcessor{resampler: imaging.Lanczos}
}

// DecodeImage decodes an image from a byte slice with context awareness.
func (p *imageProcessor) DecodeImage(ctx context.Context, imgBytes []byte) (image.Image, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return img, nil
}

// EncodeJPEG encodes an image to JPEG bytes with context awareness.
func (p *imageProcessor) EncodeJPEG(ctx context.Context, img image.Image) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(encodingQuality)); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SmartCrop crops the image to the target dimensions around its detected
// subject and resizes the result to exactly width x height.
func (p *imageProcessor) SmartCrop(ctx context.Context, img image.Image, width, height int) (image.Image, error) {
	r := &resizer{resampler: p.resampler}
	analyzer := smartcrop.NewAnalyzer(r)

	// FindBestCrop is not context-aware; run it in a goroutine so callers
	// can bail out on cancellation.
	type cropResult struct {
		crop image.Rectangle
		err  error
	}
	resultChan := make(chan cropResult, 1)

	go func() {
		topCrop, err := analyzer.FindBestCrop(img, width, height)
		resultChan <- cropResult{crop: topCrop, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-resultChan:
		if result.err != nil {
			return nil, fmt.Errorf("finding best crop: %w", result.err)
		}

		type subImager interface {
			SubImage(r image.Rectangle) image.Image
		}
		sub, ok := img.(subImager)
		if !ok {
			return nil, fmt.Errorf("image type %T does not support cropping", img)
		}

		resized := r.resizeWithContext(ctx, sub.SubImage(result.crop), width, height)
		if resized == nil {
			return nil, ctx.Err()
		}
		return resized, nil
	}
}

// resizer implements the smartcrop.Resizer interface and adds context
// awareness for direct use.
type resizer struct {
	resampler imaging.ResampleFilter
}

// Resize doesn't take a context; the smartcrop.Resizer interface doesn't
// support one. Cancellation is handled in resizeWithContext.
func (r *resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}

func (r *resizer) resizeWithContext(ctx context.Context, img image.Image, width, height int) image.Image {
	resultChan := make(chan image.Image, 1)

	go func() {
		resultChan <- imaging.Resize(img, width, height, r.resampler)
	}()

	select {
	case <-ctx.Done():
		return nil
	case result := <-resultChan:
		return result
	}
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
