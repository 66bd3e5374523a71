package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html/charset"

	apperrors "listingradar/pkg/errors"
)

// FetchMode selects the pre-request politeness policy.
type FetchMode int

const (
	// ModeDirect issues the request immediately (detail/profile pages).
	ModeDirect FetchMode = iota
	// ModeSearch adds a short randomized delay before the request to avoid
	// tripping anti-scraping defenses on search pages.
	ModeSearch
)

// HTTP client and header configurations. Header values are data, not logic;
// rotate or extend the lists freely.
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.bing.com/",
		"https://duckduckgo.com/",
	}

	rateLimitStatuses = []int{http.StatusTooManyRequests, 430}
)

// Fetcher is the resilient-fetch primitive: one GET with browser-like
// headers, retried with exponential backoff only when the target throttles.
type Fetcher struct {
	Client      *http.Client
	MaxAttempts uint64
	// Jitter returns the pre-request delay for ModeSearch; nil disables it.
	Jitter func() time.Duration
}

// NewFetcher creates a fetcher with the default retry and timeout policy.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:      &http.Client{Timeout: 15 * time.Second},
		MaxAttempts: 3,
		Jitter: func() time.Duration {
			return time.Second + time.Duration(mathrand.Int63n(int64(time.Second)))
		},
	}
}

// Fetch retrieves url and returns the body decoded to UTF-8. HTTP 429 is
// retried up to MaxAttempts with doubling delays; every other failure,
// timeouts included, returns immediately as a fetch error.
func (f *Fetcher) Fetch(ctx context.Context, url string, mode FetchMode) (io.Reader, error) {
	if mode == ModeSearch && f.Jitter != nil {
		select {
		case <-time.After(f.Jitter()):
		case <-ctx.Done():
			return nil, apperrors.NewFetch("", "fetch canceled", ctx.Err())
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	operation := func() (io.Reader, error) {
		body, err := f.fetchOnce(ctx, url)
		if err != nil && !apperrors.IsRateLimited(err) {
			return nil, backoff.Permanent(err)
		}
		return body, err
	}

	return backoff.RetryWithData(operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, f.MaxAttempts-1), ctx))
}

// fetchOnce sends a single GET request with randomized browser-like headers
// and converts the response body to UTF-8 if needed.
func (f *Fetcher) fetchOnce(ctx context.Context, url string) (io.Reader, error) {
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewFetch("", fmt.Sprintf("failed to create request for %s", url), err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,pl-PL;q=0.8,pl;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", referers[rnd.Intn(len(referers))])
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, apperrors.NewFetch("", fmt.Sprintf("failed to fetch %s", url), err)
	}
	defer resp.Body.Close()

	if slices.Contains(rateLimitStatuses, resp.StatusCode) {
		return nil, apperrors.NewRateLimit("", resp.Header.Get("Retry-After"))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewFetch("", fmt.Sprintf("fetch %s unexpected status code: %d", url, resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewFetch("", "failed to read response body", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, apperrors.NewFetch("", "failed to read converted UTF-8 body", err)
	}

	return &buf, nil
}
