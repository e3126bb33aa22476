package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/core"
	"github.com/mikey/phishing-link-analyzer/internal/extract"
	"github.com/mikey/phishing-link-analyzer/internal/ignore"
)

type stubFetcher struct {
	markup string
	err    error

	mu          sync.Mutex
	inFlight    int32
	maxInFlight int32
	delay       time.Duration
	calls       []string
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)

	f.mu.Lock()
	if cur > f.maxInFlight {
		f.maxInFlight = cur
	}
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.markup, nil
}

type stubClassifier struct {
	verdict *core.ClassifierVerdict
	err     error
}

func (c *stubClassifier) ClassifyEmail(ctx context.Context, email *core.Email) (*core.ClassifierVerdict, error) {
	return c.verdict, c.err
}

type stubHistory struct {
	mu      sync.Mutex
	entries []*core.HistoryEntry
}

func (h *stubHistory) Record(ctx context.Context, entry *core.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
	return nil
}

func (h *stubHistory) Recent(ctx context.Context, limit int) ([]*core.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries, nil
}

func (h *stubHistory) Cleanup(ctx context.Context) error { return nil }

func newTestService(fetcher core.PageFetcher, classifier core.Classifier, history core.HistoryRepository) *Service {
	extractor := extract.New(ignore.NewFilter(nil, zap.NewNop()))
	fetchPages := fetcher != nil
	return NewService(extractor, fetcher, classifier, history, zap.NewNop(), fetchPages, history != nil, time.Hour)
}

func TestAnalyzeEmail_NoContent(t *testing.T) {
	t.Parallel()
	svc := newTestService(nil, nil, nil)

	_, err := svc.AnalyzeEmail(context.Background(), &Request{Email: &core.Email{Subject: "empty"}})
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("err = %v, want ErrNoContent", err)
	}

	_, err = svc.AnalyzeEmail(context.Background(), &Request{})
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("nil email: err = %v, want ErrNoContent", err)
	}
}

func TestAnalyzeEmail_NoURLsIsSafe(t *testing.T) {
	t.Parallel()
	svc := newTestService(nil, nil, nil)

	analysis, err := svc.AnalyzeEmail(context.Background(), &Request{
		Email: &core.Email{Body: "just checking in, no links here"},
	})
	if err != nil {
		t.Fatalf("AnalyzeEmail: %v", err)
	}
	if len(analysis.URLs) != 0 {
		t.Errorf("got %d URL results, want none", len(analysis.URLs))
	}
	if analysis.Overall.Level != core.RiskSafe || analysis.Overall.Score != 0 {
		t.Errorf("overall = %+v, want safe/0", analysis.Overall)
	}
}

func TestAnalyzeEmail_FetchErrorDegradesToURLOnly(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	svc := newTestService(fetcher, nil, nil)

	analysis, err := svc.AnalyzeEmail(context.Background(), &Request{
		Email: &core.Email{Body: "visit http://192.168.1.1/login?a=1&b=2&c=3&d=4 now"},
	})
	if err != nil {
		t.Fatalf("AnalyzeEmail: %v", err)
	}
	if len(analysis.URLs) != 1 {
		t.Fatalf("got %d URL results, want 1", len(analysis.URLs))
	}

	r := analysis.URLs[0]
	if r.FetchError == "" {
		t.Error("fetch error not surfaced on result")
	}
	if r.PageFeatures != nil {
		t.Error("page features must be absent when the fetch failed")
	}
	if r.Score != 60 {
		t.Errorf("score = %d, want URL-only 60", r.Score)
	}
}

func TestAnalyzeEmail_PageScoreBlended(t *testing.T) {
	t.Parallel()
	page := `<html><body>
		<iframe src="https://x.test"></iframe>
		<form action="https://collector.test/steal"><input name="password"></form>
	</body></html>`
	fetcher := &stubFetcher{markup: page}
	svc := newTestService(fetcher, nil, nil)

	analysis, err := svc.AnalyzeEmail(context.Background(), &Request{
		Email: &core.Email{Body: "visit http://192.168.1.1/login?a=1&b=2&c=3&d=4 now"},
	})
	if err != nil {
		t.Fatalf("AnalyzeEmail: %v", err)
	}

	r := analysis.URLs[0]
	if r.PageFeatures == nil {
		t.Fatal("page features missing after successful fetch")
	}
	// URL 60, page 45 (iframe 20 + external form 25): 0.6*60 + 0.4*45 = 54
	if r.Score != 54 {
		t.Errorf("blended score = %d, want 54", r.Score)
	}
}

func TestAnalyzeEmail_BatchesOfThree(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{markup: "<html></html>", delay: 20 * time.Millisecond}
	svc := newTestService(fetcher, nil, nil)

	var sb strings.Builder
	sb.WriteString("links:\n")
	for _, h := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		sb.WriteString("https://" + h + ".example.com/page\n")
	}

	analysis, err := svc.AnalyzeEmail(context.Background(), &Request{
		Email: &core.Email{Body: sb.String()},
	})
	if err != nil {
		t.Fatalf("AnalyzeEmail: %v", err)
	}
	if len(analysis.URLs) != 7 {
		t.Fatalf("got %d URL results, want 7", len(analysis.URLs))
	}
	if fetcher.maxInFlight > 3 {
		t.Errorf("max concurrent fetches = %d, want at most 3", fetcher.maxInFlight)
	}
	if len(fetcher.calls) != 7 {
		t.Errorf("fetched %d URLs, want all 7", len(fetcher.calls))
	}
}

func TestAnalyzeEmail_ResultsKeepCandidateOrder(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{markup: "<html></html>", delay: 5 * time.Millisecond}
	svc := newTestService(fetcher, nil, nil)

	body := "https://alpha.example.com/x https://beta.example.com/y https://gamma.example.com/z https://delta.example.com/w"
	analysis, err := svc.AnalyzeEmail(context.Background(), &Request{
		Email: &core.Email{Body: body},
	})
	if err != nil {
		t.Fatalf("AnalyzeEmail: %v", err)
	}

	var prev string
	for _, r := range analysis.URLs {
		if prev != "" && r.URL < prev {
			t.Errorf("results out of order: %q after %q", r.URL, prev)
		}
		prev = r.URL
	}
}

func TestAnalyzeEmail_ClassifierFailureIsNonFatal(t *testing.T) {
	t.Parallel()
	classifier := &stubClassifier{err: errors.New("service unavailable")}
	svc := newTestService(nil, classifier, nil)

	analysis, err := svc.AnalyzeEmail(context.Background(), &Request{
		Email: &core.Email{Body: "hello https://example.com/page"},
	})
	if err != nil {
		t.Fatalf("AnalyzeEmail: %v", err)
	}
	if analysis.Classifier != nil {
		t.Error("failed classifier call must not attach a verdict")
	}
}

func TestAnalyzeEmail_ClassifierVerdictMerged(t *testing.T) {
	t.Parallel()
	classifier := &stubClassifier{
		verdict: &core.ClassifierVerdict{IsPhishing: true, Confidence: 0.95, RiskLevel: core.RiskDangerous},
	}
	svc := newTestService(nil, classifier, nil)

	analysis, err := svc.AnalyzeEmail(context.Background(), &Request{
		Email: &core.Email{Body: "hello https://example.com/page"},
	})
	if err != nil {
		t.Fatalf("AnalyzeEmail: %v", err)
	}
	if analysis.Classifier == nil {
		t.Fatal("classifier verdict missing from analysis")
	}
	if analysis.Overall.Score != 95 {
		t.Errorf("overall score = %.1f, want classifier-driven 95", analysis.Overall.Score)
	}
	if analysis.Overall.Level != core.RiskDangerous {
		t.Errorf("level = %s, want dangerous", analysis.Overall.Level)
	}
}

func TestAnalyzeEmail_SpamReportFloor(t *testing.T) {
	t.Parallel()
	svc := newTestService(nil, nil, nil)

	analysis, err := svc.AnalyzeEmail(context.Background(), &Request{
		Email:          &core.Email{Body: "no links at all"},
		ReportedAsSpam: true,
	})
	if err != nil {
		t.Fatalf("AnalyzeEmail: %v", err)
	}
	if analysis.Overall.Score != 50 || analysis.Overall.Level != core.RiskSuspicious {
		t.Errorf("overall = %+v, want suspicious/50", analysis.Overall)
	}
}

func TestAnalyzeEmail_RecordsHistory(t *testing.T) {
	t.Parallel()
	history := &stubHistory{}
	svc := newTestService(nil, nil, history)

	_, err := svc.AnalyzeEmail(context.Background(), &Request{
		Email: &core.Email{From: "alice@example.com", Subject: "invoice", Body: "see https://example.com/doc"},
	})
	if err != nil {
		t.Fatalf("AnalyzeEmail: %v", err)
	}

	if len(history.entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(history.entries))
	}
	e := history.entries[0]
	if e.Sender != "alice@example.com" || e.Subject != "invoice" || e.NumURLs != 1 {
		t.Errorf("entry = %+v", e)
	}
	if !e.ExpiresAt.After(e.AnalyzedAt) {
		t.Error("expiry must lie after the analysis time")
	}
}
