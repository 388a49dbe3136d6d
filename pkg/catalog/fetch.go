package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrFetch marks a failed catalog fetch.
var ErrFetch = errors.New("unable to load catalog")

// Fetcher retrieves the full catalog.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Item, error)
}

// HTTPFetcher reads the menu listing from the backend.
type HTTPFetcher struct {
	Client *http.Client
	URL    string
}

// NewHTTPFetcher creates a fetcher for url.
func NewHTTPFetcher(client *http.Client, url string) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{Client: client, URL: url}
}

// Fetch GETs the menu. Transport errors, non-2xx responses and undecodable
// bodies all wrap ErrFetch.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrFetch, resp.StatusCode, body)
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrFetch, err)
	}
	return items, nil
}
