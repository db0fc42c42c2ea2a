package photos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/framecast/framecast/util"
	"github.com/framecast/framecast/util/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint is the production REST endpoint.
	DefaultEndpoint = "https://photoslibrary.googleapis.com/v1"

	// MetadataRequestTimeout bounds list, item and collection calls.
	MetadataRequestTimeout = 30 * time.Second
)

// Client implements Service over the photo library REST API. Authentication
// is the injected http.Client's concern (an OAuth-aware transport); the
// client itself only shapes requests. A token-bucket limiter smooths listing
// traffic so an aggressive caller cannot turn a large collection into a
// pagination storm.
type Client struct {
	httpClient *http.Client
	endpoint   string
	limiter    *rate.Limiter
	listCalls  *util.SafeCounter
}

// NewClient creates a Client talking to the production endpoint.
func NewClient(httpClient *http.Client) *Client {
	return &Client{
		httpClient: httpClient,
		endpoint:   DefaultEndpoint,
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		listCalls:  util.NewSafeInt(),
	}
}

// SetEndpoint overrides the API endpoint. Used by tests.
func (c *Client) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// ListCallCount returns the number of listing requests issued so far.
func (c *Client) ListCallCount() int {
	return c.listCalls.Value()
}

type searchRequest struct {
	AlbumID   string         `json:"albumId,omitempty"`
	PageSize  int            `json:"pageSize,omitempty"`
	PageToken string         `json:"pageToken,omitempty"`
	Filters   *searchFilters `json:"filters,omitempty"`
}

type searchFilters struct {
	FeatureFilter *featureFilter `json:"featureFilter,omitempty"`
}

type featureFilter struct {
	IncludedFeatures []string `json:"includedFeatures"`
}

// ListItems fetches one page of media items matching the filter.
func (c *Client) ListItems(ctx context.Context, filter ListFilter, pageSize int, pageToken string) (Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Page{}, fmt.Errorf("waiting for list slot: %w", err)
	}

	body := searchRequest{
		PageSize:  pageSize,
		PageToken: pageToken,
	}
	if filter.Feature != "" {
		body.Filters = &searchFilters{
			FeatureFilter: &featureFilter{IncludedFeatures: []string{filter.Feature}},
		}
	} else {
		body.AlbumID = filter.AlbumID
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Page{}, fmt.Errorf("encoding search request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, MetadataRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/mediaItems:search", bytes.NewReader(payload))
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	c.listCalls.Increment()
	log.Debugf("Listing %s (page token %q)", filter, pageToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("searching media items: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return Page{}, err
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return Page{}, fmt.Errorf("decoding search response: %w", err)
	}
	return page, nil
}

// GetItem fetches a single media item, yielding a fresh base URL.
func (c *Client) GetItem(ctx context.Context, id string) (MediaItem, error) {
	ctx, cancel := context.WithTimeout(ctx, MetadataRequestTimeout)
	defer cancel()

	reqURL := c.endpoint + "/mediaItems/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return MediaItem{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return MediaItem{}, fmt.Errorf("getting media item %s: %w", id, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return MediaItem{}, err
	}

	var item MediaItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return MediaItem{}, fmt.Errorf("decoding media item: %w", err)
	}
	return item, nil
}

// GetCollection fetches album metadata.
func (c *Client) GetCollection(ctx context.Context, id string) (Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, MetadataRequestTimeout)
	defer cancel()

	reqURL := c.endpoint + "/albums/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Collection{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Collection{}, fmt.Errorf("getting album %s: %w", id, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return Collection{}, err
	}

	var collection Collection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return Collection{}, fmt.Errorf("decoding album: %w", err)
	}
	return collection, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	// Read a little of the body for the error message, then discard.
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return fmt.Errorf("service returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
}
