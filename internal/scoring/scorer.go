// Package scoring maps feature sets to risk scores and reduces per-URL
// results into the email-level verdict. All scores live on a 0-100 scale.
package scoring

import (
	"math"

	"github.com/mikey/phishing-link-analyzer/internal/core"
)

// Shared thresholds. SuspiciousThreshold doubles as the per-URL phishing
// classification cutoff.
const (
	SuspiciousThreshold = 40
	DangerousThreshold  = 70
)

// blend weights applied when page content was fetched successfully
const (
	urlWeight  = 0.6
	pageWeight = 0.4
)

// ScoreURL maps URL features to an additive risk score clamped to [0,100].
func ScoreURL(f core.URLFeatures) int {
	score := 0

	// length penalties stack
	if f.URLLength > 75 {
		score += 15
	}
	if f.URLLength > 100 {
		score += 15
	}
	if f.URLLength > 150 {
		score += 10
	}

	if f.HasIPAddress {
		score += 30
	}
	if !f.IsHTTPS && f.Protocol != "mailto:" {
		score += 20
	}
	if f.IsShortenedURL {
		score += 25
	}
	if f.SuspiciousTLD {
		score += 20
	}

	if f.NumParameters > 3 {
		score += 10
	}
	if f.NumParameters > 6 {
		score += 10
	}

	if f.NumDots > 3 {
		score += 15
	}
	if f.NumDots > 5 {
		score += 10
	}

	if f.NumHyphens > 2 {
		score += 10
	}

	return clamp(score)
}

// ScorePage maps destination-page features to an additive risk score
// clamped to [0,100].
func ScorePage(f core.PageFeatures) int {
	score := 0

	if f.NumScriptTags > 0 {
		score += 10
	}
	if f.NumScriptTags > 3 {
		score += 15
	}
	if f.NumIframeTags > 0 {
		score += 20
	}
	if f.NumHiddenElements > 0 {
		score += 15
	}
	if f.NumHiddenElements > 3 {
		score += 15
	}
	if f.HasExternalFormAction {
		score += 25
	}
	if f.NumMetaRefresh > 0 {
		score += 20
	}

	return clamp(score)
}

// Combine blends the URL and page scores when page content was fetched;
// without a page the URL score stands alone.
func Combine(urlScore, pageScore int, pageFetched bool) int {
	if !pageFetched {
		return clamp(urlScore)
	}
	blended := float64(urlScore)*urlWeight + float64(pageScore)*pageWeight
	return clamp(int(math.Round(blended)))
}

// IsPhishing classifies a combined per-URL score.
func IsPhishing(score int) bool {
	return score >= SuspiciousThreshold
}

// Confidence converts a combined score into a [0,1] confidence.
func Confidence(score int) float64 {
	return math.Min(float64(score)/100.0, 1.0)
}

// LevelForScore maps an overall score onto the closed risk-level set.
func LevelForScore(score float64) core.RiskLevel {
	switch {
	case score >= DangerousThreshold:
		return core.RiskDangerous
	case score >= SuspiciousThreshold:
		return core.RiskSuspicious
	default:
		return core.RiskSafe
	}
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
