// Package analyzer wires the extraction, feature, scoring and fetching
// stages into the per-email analysis pipeline.
package analyzer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/core"
	"github.com/mikey/phishing-link-analyzer/internal/extract"
	"github.com/mikey/phishing-link-analyzer/internal/features"
	"github.com/mikey/phishing-link-analyzer/internal/scoring"
)

// ErrNoContent is the one hard failure surfaced to callers: the email had
// neither a plain nor an HTML body.
var ErrNoContent = errors.New("no content to analyze")

// defaultBatchSize is how many page fetches run concurrently; batches run
// sequentially and each completes only when all of its fetches resolve.
const defaultBatchSize = 3

// Request carries one email through an analysis run
type Request struct {
	Email          *core.Email
	ReportedAsSpam bool
}

// Service is the core service for link risk analysis. It holds no mutable
// state across runs; concurrent AnalyzeEmail calls are isolated.
type Service struct {
	extractor      *extract.Extractor
	fetcher        core.PageFetcher
	classifier     core.Classifier
	history        core.HistoryRepository
	logger         *zap.Logger
	batchSize      int
	fetchPages     bool
	historyEnabled bool
	historyTTL     time.Duration
}

// NewService creates a new analysis service. fetcher, classifier and history
// may be nil; the corresponding stages are skipped.
func NewService(
	extractor *extract.Extractor,
	fetcher core.PageFetcher,
	classifier core.Classifier,
	history core.HistoryRepository,
	logger *zap.Logger,
	fetchPages bool,
	historyEnabled bool,
	historyTTL time.Duration,
) *Service {
	return &Service{
		extractor:      extractor,
		fetcher:        fetcher,
		classifier:     classifier,
		history:        history,
		logger:         logger,
		batchSize:      defaultBatchSize,
		fetchPages:     fetchPages,
		historyEnabled: historyEnabled,
		historyTTL:     historyTTL,
	}
}

// AnalyzeEmail runs the full pipeline: extract candidate URLs, analyze each
// in fixed-size concurrent batches, ask the external classifier, and reduce
// everything into the overall verdict.
func (s *Service) AnalyzeEmail(ctx context.Context, req *Request) (*core.EmailAnalysis, error) {
	email := req.Email
	if email == nil || !email.HasContent() {
		return nil, ErrNoContent
	}

	urls := s.extractor.ExtractURLs(email.Content())
	s.logger.Info("Extracted candidate URLs",
		zap.Int("count", len(urls)),
		zap.String("subject", email.Subject))

	results := s.analyzeURLs(ctx, urls)

	verdict := s.classify(ctx, email)

	overall := scoring.AggregateOverallRisk(results, verdict, req.ReportedAsSpam)

	analysis := &core.EmailAnalysis{
		URLs:       results,
		Overall:    overall,
		Classifier: verdict,
		AnalyzedAt: time.Now(),
	}

	s.recordHistory(ctx, email, analysis)

	s.logger.Info("Analysis complete",
		zap.String("level", string(overall.Level)),
		zap.Float64("score", overall.Score),
		zap.Int("urls", len(results)))

	return analysis, nil
}

// analyzeURLs processes the candidate set in batches of batchSize. URLs
// within a batch are analyzed in parallel; batches run back to back.
func (s *Service) analyzeURLs(ctx context.Context, urls []string) []core.URLAnalysisResult {
	if len(urls) == 0 {
		return nil
	}

	results := make([]core.URLAnalysisResult, len(urls))
	for start := 0; start < len(urls); start += s.batchSize {
		end := start + s.batchSize
		if end > len(urls) {
			end = len(urls)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = s.analyzeURL(ctx, urls[i])
			}(i)
		}
		wg.Wait()
	}
	return results
}

// analyzeURL scores one candidate URL, fetching its destination page when
// fetching is enabled. Fetch failures degrade to URL-only scoring.
func (s *Service) analyzeURL(ctx context.Context, url string) core.URLAnalysisResult {
	urlFeatures := features.ExtractURLFeatures(url)
	urlScore := scoring.ScoreURL(urlFeatures)

	result := core.URLAnalysisResult{
		URL:         url,
		URLFeatures: urlFeatures,
	}

	pageScore := 0
	pageFetched := false
	if s.fetchPages && s.fetcher != nil {
		markup, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			result.FetchError = err.Error()
			s.logger.Debug("Page fetch failed, scoring URL only",
				zap.String("url", url),
				zap.Error(err))
		} else {
			pageFeatures := features.ExtractPageFeatures(markup)
			result.PageFeatures = &pageFeatures
			pageScore = scoring.ScorePage(pageFeatures)
			pageFetched = true
		}
	}

	result.Score = scoring.Combine(urlScore, pageScore, pageFetched)
	result.IsPhishing = scoring.IsPhishing(result.Score)
	result.Confidence = scoring.Confidence(result.Score)
	return result
}

// classify asks the external classifier for its verdict. Any failure drops
// the signal rather than failing the analysis.
func (s *Service) classify(ctx context.Context, email *core.Email) *core.ClassifierVerdict {
	if s.classifier == nil {
		return nil
	}

	verdict, err := s.classifier.ClassifyEmail(ctx, email)
	if err != nil {
		s.logger.Warn("Classifier unavailable, proceeding without its signal",
			zap.Error(err))
		return nil
	}
	return verdict
}

// recordHistory writes the audit entry for a completed run. History is
// best-effort and never read during analysis.
func (s *Service) recordHistory(ctx context.Context, email *core.Email, analysis *core.EmailAnalysis) {
	if !s.historyEnabled || s.history == nil {
		return
	}

	entry := &core.HistoryEntry{
		Sender:     email.From,
		Subject:    email.Subject,
		Level:      analysis.Overall.Level,
		Score:      analysis.Overall.Score,
		NumURLs:    len(analysis.URLs),
		AnalyzedAt: analysis.AnalyzedAt,
		ExpiresAt:  analysis.AnalyzedAt.Add(s.historyTTL),
	}
	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Error("Failed to record analysis history", zap.Error(err))
	}
}
