package calendar

import (
	"context"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent identifies our feed pulls to the booking platforms.
const DefaultUserAgent = "HostEase Property Management System"

// defaultFetchTimeout bounds a single feed GET.
const defaultFetchTimeout = 30 * time.Second

// maxFeedBody caps how much of a feed body we will read (4 MiB); real
// property feeds are a few KiB.
const maxFeedBody = 4 << 20

// FeedFetcher retrieves a raw ICS body from a feed URL.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches feeds over HTTPS with a bounded timeout.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a feed fetcher. A zero timeout selects the default.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch downloads a feed body. Network failures and non-2xx responses are
// returned as *FetchError so callers can treat them as per-feed, non-fatal.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return body, nil
}
