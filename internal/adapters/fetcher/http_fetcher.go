// Package fetcher provides the HTTP adapter for retrieving destination
// pages, including fallback through CORS-friendly proxy endpoints.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const urlPlaceholder = "{url}"

// DefaultEndpoints tries the page directly first, then public proxies that
// tend to succeed where the origin blocks automated clients.
var DefaultEndpoints = []string{
	urlPlaceholder,
	"https://api.allorigins.win/raw?url=" + urlPlaceholder,
	"https://corsproxy.io/?url=" + urlPlaceholder,
}

// HTTPFetcher retrieves page markup by trying a fixed, ordered list of
// endpoint templates until one answers with a success status.
type HTTPFetcher struct {
	client      *http.Client
	endpoints   []string
	timeout     time.Duration
	maxBodySize int64
	userAgent   string
	logger      *zap.Logger
}

// NewHTTPFetcher creates a new HTTP page fetcher. Empty endpoints fall back
// to DefaultEndpoints; a non-positive timeout falls back to 10 seconds.
func NewHTTPFetcher(
	endpoints []string,
	timeout time.Duration,
	maxBodySize int64,
	userAgent string,
	logger *zap.Logger,
) *HTTPFetcher {
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxBodySize <= 0 {
		maxBodySize = 2 << 20
	}
	return &HTTPFetcher{
		client:      &http.Client{},
		endpoints:   endpoints,
		timeout:     timeout,
		maxBodySize: maxBodySize,
		userAgent:   userAgent,
		logger:      logger,
	}
}

// Fetch tries each endpoint in order and returns the first success. Every
// attempt gets its own timeout so one hanging proxy cannot consume the
// whole budget of the remaining endpoints.
func (f *HTTPFetcher) Fetch(ctx context.Context, target string) (string, error) {
	var lastErr error
	for _, tmpl := range f.endpoints {
		markup, err := f.fetchVia(ctx, tmpl, target)
		if err == nil {
			return markup, nil
		}
		lastErr = err
		f.logger.Debug("Endpoint attempt failed",
			zap.String("endpoint", tmpl),
			zap.String("url", target),
			zap.Error(err))

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("all %d fetch endpoints failed for %s: %w", len(f.endpoints), target, lastErr)
}

func (f *HTTPFetcher) fetchVia(ctx context.Context, tmpl, target string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, expandEndpoint(tmpl, target), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}

// expandEndpoint substitutes the target into the template. The bare
// template passes the URL through untouched; proxy templates embed it in a
// query string and need it escaped.
func expandEndpoint(tmpl, target string) string {
	if tmpl == urlPlaceholder {
		return target
	}
	return strings.ReplaceAll(tmpl, urlPlaceholder, url.QueryEscape(target))
}
