package photos

import "strconv"

// MediaItem is a single photo or video in a collection. BaseURL is a
// short-lived capability token; it expires roughly 50 minutes after the
// item was last fetched from the service and must be re-resolved via
// Service.GetItem, never reused indefinitely.
type MediaItem struct {
	ID          string           `json:"id"`
	Description string           `json:"description,omitempty"`
	ProductURL  string           `json:"productUrl,omitempty"`
	BaseURL     string           `json:"baseUrl,omitempty"`
	MimeType    string           `json:"mimeType,omitempty"`
	Filename    string           `json:"filename,omitempty"`
	Metadata    *MediaMetadata   `json:"mediaMetadata,omitempty"`
	Contributor *ContributorInfo `json:"contributorInfo,omitempty"`
}

// MediaMetadata describes a media item. Width and height arrive as strings
// on the wire. Exactly one of Photo or Video is set for well-formed items;
// items with neither are not selectable as photos.
type MediaMetadata struct {
	CreationTime string        `json:"creationTime,omitempty"`
	Width        string        `json:"width,omitempty"`
	Height       string        `json:"height,omitempty"`
	Photo        *PhotoDetails `json:"photo,omitempty"`
	Video        *VideoDetails `json:"video,omitempty"`
}

// PhotoDetails holds photo-specific metadata. Any field may be absent.
type PhotoDetails struct {
	CameraMake      string  `json:"cameraMake,omitempty"`
	CameraModel     string  `json:"cameraModel,omitempty"`
	FocalLength     float64 `json:"focalLength,omitempty"`
	ApertureFNumber float64 `json:"apertureFNumber,omitempty"`
	ISOEquivalent   int     `json:"isoEquivalent,omitempty"`
	ExposureTime    string  `json:"exposureTime,omitempty"`
}

// VideoDetails holds video-specific metadata.
type VideoDetails struct {
	CameraMake  string  `json:"cameraMake,omitempty"`
	CameraModel string  `json:"cameraModel,omitempty"`
	FPS         float64 `json:"fps,omitempty"`
	Status      string  `json:"status,omitempty"`
}

// ContributorInfo identifies the user who added a media item to a shared
// collection.
type ContributorInfo struct {
	ProfilePictureBaseURL string `json:"profilePictureBaseUrl,omitempty"`
	DisplayName           string `json:"displayName,omitempty"`
}

// Collection is a named grouping of media items: an album, or the synthetic
// favorites set.
type Collection struct {
	ID                    string `json:"id"`
	Title                 string `json:"title"`
	ProductURL            string `json:"productUrl,omitempty"`
	IsWriteable           bool   `json:"isWriteable,omitempty"`
	MediaItemsCount       string `json:"mediaItemsCount,omitempty"`
	CoverPhotoBaseURL     string `json:"coverPhotoBaseUrl,omitempty"`
	CoverPhotoMediaItemID string `json:"coverPhotoMediaItemId,omitempty"`
}

// Page is one page of a paginated listing. An empty NextPageToken means the
// traversal is complete.
type Page struct {
	Items         []MediaItem `json:"mediaItems"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

// IsPhoto reports whether the item carries photo metadata.
func (m MediaItem) IsPhoto() bool {
	return m.Metadata != nil && m.Metadata.Photo != nil
}

// IsVideo reports whether the item carries video metadata.
func (m MediaItem) IsVideo() bool {
	return m.Metadata != nil && m.Metadata.Video != nil
}

// Dimensions returns the item's pixel dimensions, or ok=false when the
// metadata is missing or unparsable.
func (m MediaItem) Dimensions() (width, height float64, ok bool) {
	if m.Metadata == nil {
		return 0, 0, false
	}
	w, errW := strconv.ParseFloat(m.Metadata.Width, 64)
	h, errH := strconv.ParseFloat(m.Metadata.Height, 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
