package frame

import "time"

// Default output size when the consumer does not request one.
const (
	DefaultImageWidth  = 1024
	DefaultImageHeight = 512
)

// Listing and refresh tuning. The cold-start budget keeps first paint fast;
// the incremental budget bounds how much a single steady-state cycle pulls.
// The service paginates at most 100 items per page regardless of what we ask.
const (
	listPageSize          = 100
	coldStartItemBudget   = 100
	incrementalItemBudget = 300

	// listRefreshTTL is how long a fully built item list stays fresh.
	listRefreshTTL = 15 * time.Minute

	// buildingPollInterval is the suggested repoll interval while a list
	// is still being paged in.
	buildingPollInterval = 30 * time.Second

	// baseURLTTL is how long a resolved download URL stays usable,
	// measured from when the item was last fetched from the service.
	baseURLTTL = 50 * time.Minute
)

// Network timeouts.
const (
	downloadTimeout = 10 * time.Second
	metadataTimeout = 30 * time.Second
)

// encodingQuality is the JPEG quality for locally rendered output.
const encodingQuality = 95

// Manufacturer is reported in device identity info.
const Manufacturer = "Google, Inc."

// SelectionMode is the policy for choosing the next current item.
type SelectionMode int

// SelectionMode constants. SelectionDefault defers to the coordinator's
// configured mode.
const (
	SelectionDefault SelectionMode = iota
	SelectionRandom
	SelectionAlbumOrder
)

// String returns the string representation of a SelectionMode
func (m SelectionMode) String() string {
	switch m {
	case SelectionRandom:
		return "RANDOM"
	case SelectionAlbumOrder:
		return "ALBUM_ORDER"
	default:
		return "DEFAULT"
	}
}

// ParseSelectionMode maps a configuration string to a SelectionMode,
// defaulting to random.
func ParseSelectionMode(s string) SelectionMode {
	if s == SelectionAlbumOrder.String() {
		return SelectionAlbumOrder
	}
	return SelectionRandom
}

// CropMode controls how downloaded bytes fill the requested canvas.
type CropMode int

// CropMode constants
const (
	// CropModeContain requests service-side fit-within sizing.
	CropModeContain CropMode = iota
	// CropModeCrop requests service-side cover-and-crop sizing.
	CropModeCrop
	// CropModeCombined tiles two complementary images when that loses
	// less area than cropping one.
	CropModeCombined
	// CropModeSmart crops locally with content-aware analysis.
	CropModeSmart
)

// String returns the string representation of a CropMode
func (m CropMode) String() string {
	switch m {
	case CropModeCrop:
		return "Crop"
	case CropModeCombined:
		return "Combined images"
	case CropModeSmart:
		return "Smart crop"
	default:
		return "Original"
	}
}

// ParseCropMode maps a configuration string to a CropMode, defaulting to
// contain.
func ParseCropMode(s string) CropMode {
	for _, m := range []CropMode{CropModeCrop, CropModeCombined, CropModeSmart} {
		if s == m.String() {
			return m
		}
	}
	return CropModeContain
}

// DisplayInterval is how long a selected item stays current before
// MaybeAdvance moves on.
type DisplayInterval int

// DisplayInterval constants
const (
	IntervalNever DisplayInterval = iota
	Interval10Seconds
	Interval30Seconds
	Interval1Minute
	Interval2Minutes
	Interval5Minutes
)

// DefaultInterval is used when no interval is configured.
const DefaultInterval = Interval1Minute

// intervalDurations maps a DisplayInterval to its time.Duration. IntervalNever
// has no entry; Duration reports ok=false for it.
var intervalDurations = map[DisplayInterval]time.Duration{
	Interval10Seconds: 10 * time.Second,
	Interval30Seconds: 30 * time.Second,
	Interval1Minute:   time.Minute,
	Interval2Minutes:  2 * time.Minute,
	Interval5Minutes:  5 * time.Minute,
}

// Duration returns the interval length. ok is false for IntervalNever,
// meaning the current item is never advanced on a timer.
func (i DisplayInterval) Duration() (time.Duration, bool) {
	d, ok := intervalDurations[i]
	return d, ok
}

// String returns the string representation of a DisplayInterval
func (i DisplayInterval) String() string {
	switch i {
	case IntervalNever:
		return "0"
	case Interval10Seconds:
		return "10"
	case Interval30Seconds:
		return "30"
	case Interval1Minute:
		return "60"
	case Interval2Minutes:
		return "120"
	case Interval5Minutes:
		return "300"
	default:
		return "Unknown"
	}
}

// ParseDisplayInterval maps a configuration string (seconds) to a
// DisplayInterval, defaulting to one minute.
func ParseDisplayInterval(s string) DisplayInterval {
	for _, i := range []DisplayInterval{
		IntervalNever,
		Interval10Seconds,
		Interval30Seconds,
		Interval1Minute,
		Interval2Minutes,
		Interval5Minutes,
	} {
		if s == i.String() {
			return i
		}
	}
	return DefaultInterval
}
