package scoring

import (
	"testing"

	"github.com/mikey/phishing-link-analyzer/internal/core"
)

func phishingResult(url string, confidence float64) core.URLAnalysisResult {
	return core.URLAnalysisResult{
		URL:        url,
		Score:      int(confidence * 100),
		IsPhishing: true,
		Confidence: confidence,
	}
}

func cleanResult(url string, confidence float64) core.URLAnalysisResult {
	return core.URLAnalysisResult{
		URL:        url,
		Score:      int(confidence * 100),
		Confidence: confidence,
	}
}

func TestAggregate_NoURLs(t *testing.T) {
	t.Parallel()
	risk := AggregateOverallRisk(nil, nil, false)
	if risk.Level != core.RiskSafe || risk.Score != 0 {
		t.Errorf("empty input: got %+v, want safe/0", risk)
	}
}

func TestAggregate_MultiLinkPenalty(t *testing.T) {
	t.Parallel()
	results := []core.URLAnalysisResult{
		phishingResult("https://a.evil.com", 0.9),
		phishingResult("https://b.evil.com", 0.5),
	}
	risk := AggregateOverallRisk(results, nil, false)
	if risk.Score != 100 {
		t.Errorf("score = %.1f, want min(90+10, 100) = 100", risk.Score)
	}
	if risk.Level != core.RiskDangerous {
		t.Errorf("level = %s, want dangerous", risk.Level)
	}
}

func TestAggregate_SinglePhishingURL(t *testing.T) {
	t.Parallel()
	results := []core.URLAnalysisResult{phishingResult("https://a.evil.com", 0.6)}
	risk := AggregateOverallRisk(results, nil, false)
	if risk.Score != 60 {
		t.Errorf("score = %.1f, want 60 (no multi-link penalty for one URL)", risk.Score)
	}
	if risk.Level != core.RiskSuspicious {
		t.Errorf("level = %s, want suspicious", risk.Level)
	}
}

func TestAggregate_BelowThresholdSignal(t *testing.T) {
	t.Parallel()
	results := []core.URLAnalysisResult{
		cleanResult("https://a.example.com", 0.2),
		cleanResult("https://b.example.com", 0.35),
	}
	risk := AggregateOverallRisk(results, nil, false)
	if risk.Score != 35 {
		t.Errorf("score = %.1f, want highest confidence x 100", risk.Score)
	}
	if risk.Level != core.RiskSafe {
		t.Errorf("level = %s, want safe", risk.Level)
	}
}

func TestAggregate_ClassifierEscalates(t *testing.T) {
	t.Parallel()
	results := []core.URLAnalysisResult{cleanResult("https://a.example.com", 0.1)}
	verdict := &core.ClassifierVerdict{IsPhishing: true, Confidence: 0.85, RiskLevel: core.RiskDangerous}

	risk := AggregateOverallRisk(results, verdict, false)
	if risk.Score != 85 {
		t.Errorf("score = %.1f, want classifier confidence x 100", risk.Score)
	}
	if risk.Level != core.RiskDangerous {
		t.Errorf("level = %s, want dangerous", risk.Level)
	}
}

func TestAggregate_ClassifierNeverLowers(t *testing.T) {
	t.Parallel()
	results := []core.URLAnalysisResult{phishingResult("https://a.evil.com", 0.9)}
	verdict := &core.ClassifierVerdict{IsPhishing: true, Confidence: 0.3}

	risk := AggregateOverallRisk(results, verdict, false)
	if risk.Score != 90 {
		t.Errorf("score = %.1f, want the higher of the two signals", risk.Score)
	}
}

func TestAggregate_NonPhishingClassifierIgnored(t *testing.T) {
	t.Parallel()
	verdict := &core.ClassifierVerdict{IsPhishing: false, Confidence: 0.99}
	risk := AggregateOverallRisk(nil, verdict, false)
	if risk.Score != 0 {
		t.Errorf("score = %.1f, non-phishing verdict must not contribute", risk.Score)
	}
}

func TestAggregate_SpamReportFloor(t *testing.T) {
	t.Parallel()
	risk := AggregateOverallRisk(nil, nil, true)
	if risk.Score != 50 {
		t.Errorf("score = %.1f, want the 50-point floor", risk.Score)
	}
	if risk.Level != core.RiskSuspicious {
		t.Errorf("level = %s, want suspicious", risk.Level)
	}
}

func TestAggregate_SpamReportDoesNotLower(t *testing.T) {
	t.Parallel()
	results := []core.URLAnalysisResult{phishingResult("https://a.evil.com", 0.8)}
	risk := AggregateOverallRisk(results, nil, true)
	if risk.Score != 80 {
		t.Errorf("score = %.1f, floor must not reduce a higher score", risk.Score)
	}
}

func TestAggregate_ScoreBounds(t *testing.T) {
	t.Parallel()
	results := []core.URLAnalysisResult{
		phishingResult("https://a.evil.com", 1.0),
		phishingResult("https://b.evil.com", 1.0),
		phishingResult("https://c.evil.com", 1.0),
		phishingResult("https://d.evil.com", 1.0),
	}
	risk := AggregateOverallRisk(results, nil, true)
	if risk.Score < 0 || risk.Score > 100 {
		t.Errorf("score %.1f out of bounds", risk.Score)
	}
}
