package scoring

import (
	"math"

	"github.com/mikey/phishing-link-analyzer/internal/core"
)

// multiLinkPenalty is added per phishing URL when more than one was found.
const multiLinkPenalty = 5.0

// spamReportFloor is the minimum overall score once the user has reported
// the email as spam.
const spamReportFloor = 50.0

// AggregateOverallRisk reduces per-URL results, the optional external
// classifier verdict, and the user's spam report into one email-level
// verdict.
func AggregateOverallRisk(
	results []core.URLAnalysisResult,
	classifier *core.ClassifierVerdict,
	reportedAsSpam bool,
) core.OverallRisk {
	score := 0.0

	var phishing []core.URLAnalysisResult
	for _, r := range results {
		if r.IsPhishing {
			phishing = append(phishing, r)
		}
	}

	switch {
	case len(phishing) > 0:
		score = maxConfidence(phishing) * 100
		if len(phishing) > 1 {
			score = math.Min(score+multiLinkPenalty*float64(len(phishing)), 100)
		}
	case len(results) > 0:
		// below-threshold signal still surfaces without escalating the level
		score = maxConfidence(results) * 100
	}

	if classifier != nil && classifier.IsPhishing {
		score = math.Max(score, classifier.Confidence*100)
	}

	if reportedAsSpam {
		score = math.Max(score, spamReportFloor)
	}

	return core.OverallRisk{
		Level: LevelForScore(score),
		Score: score,
	}
}

func maxConfidence(results []core.URLAnalysisResult) float64 {
	max := 0.0
	for _, r := range results {
		if r.Confidence > max {
			max = r.Confidence
		}
	}
	return max
}
