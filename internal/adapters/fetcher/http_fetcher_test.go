package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestFetch_DirectSuccess(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher([]string{"{url}"}, time.Second, 0, "", zap.NewNop())
	markup, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(markup, "ok") {
		t.Errorf("markup = %q", markup)
	}
}

func TestFetch_FallsThroughToNextEndpoint(t *testing.T) {
	t.Parallel()
	var proxyHits int32
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&proxyHits, 1)
		if r.URL.Query().Get("url") == "" {
			t.Error("proxy endpoint called without the url parameter")
		}
		w.Write([]byte("<html>via proxy</html>"))
	}))
	defer proxy.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer failing.Close()

	endpoints := []string{
		failing.URL + "/direct?url={url}",
		proxy.URL + "/raw?url={url}",
	}
	f := NewHTTPFetcher(endpoints, time.Second, 0, "", zap.NewNop())

	markup, err := f.Fetch(context.Background(), "https://target.example.com/page")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(markup, "via proxy") {
		t.Errorf("markup = %q, want proxy response", markup)
	}
	if atomic.LoadInt32(&proxyHits) != 1 {
		t.Errorf("proxy hit %d times, want 1", proxyHits)
	}
}

func TestFetch_FirstSuccessShortCircuits(t *testing.T) {
	t.Parallel()
	var secondHits int32
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>first</html>"))
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&secondHits, 1)
		w.Write([]byte("<html>second</html>"))
	}))
	defer second.Close()

	f := NewHTTPFetcher([]string{first.URL + "?url={url}", second.URL + "?url={url}"}, time.Second, 0, "", zap.NewNop())
	if _, err := f.Fetch(context.Background(), "https://x.example.com"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if atomic.LoadInt32(&secondHits) != 0 {
		t.Error("later endpoint contacted after an earlier success")
	}
}

func TestFetch_AllEndpointsExhausted(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewHTTPFetcher([]string{srv.URL + "/a?url={url}", srv.URL + "/b?url={url}"}, time.Second, 0, "", zap.NewNop())
	_, err := f.Fetch(context.Background(), "https://x.example.com")
	if err == nil {
		t.Fatal("expected an error once every endpoint failed")
	}
	if !strings.Contains(err.Error(), "all 2 fetch endpoints failed") {
		t.Errorf("err = %v", err)
	}
}

func TestFetch_PerAttemptTimeout(t *testing.T) {
	t.Parallel()
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("too late"))
	}))
	defer slow.Close()
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>fast</html>"))
	}))
	defer fast.Close()

	f := NewHTTPFetcher([]string{slow.URL + "?url={url}", fast.URL + "?url={url}"}, 50*time.Millisecond, 0, "", zap.NewNop())
	markup, err := f.Fetch(context.Background(), "https://x.example.com")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(markup, "fast") {
		t.Errorf("markup = %q, want fallback past the slow endpoint", markup)
	}
}

func TestFetch_BodySizeCapped(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	f := NewHTTPFetcher([]string{"{url}"}, time.Second, 1024, "", zap.NewNop())
	markup, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(markup) != 1024 {
		t.Errorf("body length = %d, want capped at 1024", len(markup))
	}
}

func TestFetch_CanceledContextStops(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewHTTPFetcher([]string{srv.URL + "?url={url}"}, time.Second, 0, "", zap.NewNop())
	if _, err := f.Fetch(ctx, "https://x.example.com"); err == nil {
		t.Fatal("expected an error with a canceled context")
	}
}

func TestExpandEndpoint(t *testing.T) {
	t.Parallel()
	if got := expandEndpoint("{url}", "https://a.com/x?y=1"); got != "https://a.com/x?y=1" {
		t.Errorf("direct template mangled the URL: %q", got)
	}
	got := expandEndpoint("https://proxy.test/raw?url={url}", "https://a.com/x?y=1")
	want := "https://proxy.test/raw?url=" + "https%3A%2F%2Fa.com%2Fx%3Fy%3D1"
	if got != want {
		t.Errorf("proxy template = %q, want %q", got, want)
	}
}
