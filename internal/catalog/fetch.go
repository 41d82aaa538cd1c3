package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// maxDescriptionSize caps the API description document (8MB).
const maxDescriptionSize = 8 << 20

// Fetcher retrieves the raw bytes of the API description document.
type Fetcher interface {
	FetchDocument(ctx context.Context, location string) ([]byte, error)
}

// HTTPFetcher fetches descriptions over HTTP(S). Locations without an http
// or https scheme are read from the local filesystem.
type HTTPFetcher struct {
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher whose HTTP requests time out after timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{httpClient: &http.Client{Timeout: timeout}}
}

// FetchDocument returns the description bytes at location.
func (f *HTTPFetcher) FetchDocument(ctx context.Context, location string) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		data, err := os.ReadFile(strings.TrimPrefix(location, "file://"))
		if err != nil {
			return nil, fmt.Errorf("failed to read API description: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API description request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptionSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read API description: %w", err)
	}
	if len(body) > maxDescriptionSize {
		return nil, fmt.Errorf("API description too large (max %d bytes)", maxDescriptionSize)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API description returned %d", resp.StatusCode)
	}
	return body, nil
}
