package photos

import "fmt"

// Size is the canonical size descriptor appended to a MediaItem.BaseURL to
// request resized bytes. Its string form doubles as the byte-cache key, so
// identical (width, height, crop) triples must always encode identically.
type Size struct {
	Width  int
	Height int
	Crop   bool
}

// String encodes the descriptor as "=w{width}-h{height}" with a trailing
// "-c" when cropping is requested.
func (s Size) String() string {
	d := fmt.Sprintf("=w%d-h%d", s.Width, s.Height)
	if s.Crop {
		d += "-c"
	}
	return d
}
