package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://api.scryfall.com"

// StatusError reports a non-2xx response from the API.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// SearchPage is one page of a /cards/search response. Records are kept as raw
// JSON so the verbatim payload survives normalization and storage.
type SearchPage struct {
	TotalCards int               `json:"total_cards"`
	HasMore    bool              `json:"has_more"`
	NextPage   *string           `json:"next_page"`
	Data       []json.RawMessage `json:"data"`
}

// BulkEntry is one downloadable dataset in the /bulk-data catalog.
type BulkEntry struct {
	Type        string `json:"type"`
	DownloadURI string `json:"download_uri"`
	UpdatedAt   string `json:"updated_at"`
}

type bulkCatalog struct {
	Data []BulkEntry `json:"data"`
}

// bulkDataType is the catalog entry covering every card printing without
// extras (tokens, art cards).
const bulkDataType = "default_cards"

// Client fetches card data from the Scryfall API. All search requests go
// through the shared Limiter; bulk downloads are served from a CDN on a
// different host and bypass it.
type Client struct {
	httpClient *http.Client
	bulkClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *Limiter
}

func NewClient(baseURL, userAgent string, limiter *Limiter) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		bulkClient: &http.Client{Timeout: 10 * time.Minute},
		baseURL:    baseURL,
		userAgent:  userAgent,
		limiter:    limiter,
	}
}

// SearchURL builds the first-page URL for an already-encoded query.
func (c *Client) SearchURL(encodedQuery string) string {
	return fmt.Sprintf("%s/cards/search?q=%s", c.baseURL, encodedQuery)
}

// FetchPage performs one rate-limited GET and decodes a search page.
func (c *Client) FetchPage(ctx context.Context, url string) (*SearchPage, error) {
	var page SearchPage
	if err := c.get(ctx, url, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ForEachPage validates the query, then walks its result pages strictly
// forward, invoking fn for each page as it arrives. An error from fn or from
// the transport stops the walk; pages fn has already handled are not undone.
func (c *Client) ForEachPage(ctx context.Context, query string, fn func(*SearchPage) error) error {
	if err := Validate(query); err != nil {
		return err
	}

	next := c.SearchURL(Encode(query))
	for next != "" {
		page, err := c.FetchPage(ctx, next)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
		next = ""
		if page.HasMore && page.NextPage != nil {
			next = *page.NextPage
		}
	}
	return nil
}

// FetchAllPages validates the query and accumulates every result page in
// memory. A transport error discards everything fetched so far.
func (c *Client) FetchAllPages(ctx context.Context, query string) ([]*SearchPage, error) {
	var pages []*SearchPage
	err := c.ForEachPage(ctx, query, func(p *SearchPage) error {
		pages = append(pages, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// BulkCatalog fetches the bulk-data catalog and selects the default_cards
// entry (every printing, no extras).
func (c *Client) BulkCatalog(ctx context.Context) (*BulkEntry, error) {
	var catalog bulkCatalog
	if err := c.get(ctx, c.baseURL+"/bulk-data", &catalog); err != nil {
		return nil, err
	}
	for i := range catalog.Data {
		if catalog.Data[i].Type == bulkDataType {
			return &catalog.Data[i], nil
		}
	}
	return nil, fmt.Errorf("no %s entry in bulk data catalog", bulkDataType)
}

// DownloadBulk downloads a bulk dataset and parses it as one JSON array of
// card records. The download is not rate limited: bulk files live on a CDN,
// not on the API host.
func (c *Client) DownloadBulk(ctx context.Context, uri string) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.bulkClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bulk download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: uri}
	}

	var cards []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&cards); err != nil {
		return nil, fmt.Errorf("parse bulk data: %w", err)
	}
	return cards, nil
}

// get performs one rate-limited GET and decodes the JSON body into target.
func (c *Client) get(ctx context.Context, url string, target any) error {
	if err := c.limiter.Acquire(ctx); err != nil {
		return err
	}
	defer c.limiter.Release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, URL: url}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}
