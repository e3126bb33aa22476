package core

import (
	"time"
)

// Email represents a parsed email message
type Email struct {
	From     string
	To       []string
	Subject  string
	Date     time.Time
	Body     string
	HTMLBody string
	Headers  map[string][]string
}

// Content returns the body that link extraction should run on: the HTML
// body when present, otherwise the plain-text body.
func (e *Email) Content() string {
	if e.HTMLBody != "" {
		return e.HTMLBody
	}
	return e.Body
}

// HasContent reports whether the email carries anything to analyze.
func (e *Email) HasContent() bool {
	return e.Body != "" || e.HTMLBody != ""
}

// URLFeatures holds the lexical and structural features of a single URL
type URLFeatures struct {
	URLLength      int    `json:"url_length"`
	NumDots        int    `json:"num_dots"`
	NumHyphens     int    `json:"num_hyphens"`
	HasIPAddress   bool   `json:"has_ip_address"`
	IsHTTPS        bool   `json:"is_https"`
	Protocol       string `json:"protocol"`
	IsShortenedURL bool   `json:"is_shortened_url"`
	SuspiciousTLD  bool   `json:"suspicious_tld"`
	NumParameters  int    `json:"num_parameters"`
}

// PageFeatures holds the structural features of a fetched destination page
type PageFeatures struct {
	NumScriptTags         int  `json:"num_script_tags"`
	NumIframeTags         int  `json:"num_iframe_tags"`
	NumHiddenElements     int  `json:"num_hidden_elements"`
	NumLinks              int  `json:"num_links"`
	NumForms              int  `json:"num_forms"`
	HasExternalFormAction bool `json:"has_external_form_action"`
	NumMetaRefresh        int  `json:"num_meta_refresh"`
}

// URLAnalysisResult is the scored outcome for one candidate URL.
// It is immutable after scoring and never persisted beyond the request.
type URLAnalysisResult struct {
	URL          string        `json:"url"`
	URLFeatures  URLFeatures   `json:"url_features"`
	PageFeatures *PageFeatures `json:"page_features,omitempty"`
	Score        int           `json:"score"`
	IsPhishing   bool          `json:"is_phishing"`
	Confidence   float64       `json:"confidence"`
	FetchError   string        `json:"fetch_error,omitempty"`
}

// RiskLevel is the closed set of email-level verdicts
type RiskLevel string

const (
	RiskSafe       RiskLevel = "safe"
	RiskSuspicious RiskLevel = "suspicious"
	RiskDangerous  RiskLevel = "dangerous"
)

// OverallRisk is the single email-level verdict
type OverallRisk struct {
	Level RiskLevel `json:"level"`
	Score float64   `json:"score"`
}

// ClassifierVerdict is the published verdict of the external content classifier
type ClassifierVerdict struct {
	IsPhishing bool      `json:"is_phishing"`
	Confidence float64   `json:"confidence"`
	RiskLevel  RiskLevel `json:"risk_level"`
}

// EmailAnalysis bundles everything a single analysis run produced
type EmailAnalysis struct {
	URLs       []URLAnalysisResult `json:"urls"`
	Overall    OverallRisk         `json:"overall"`
	Classifier *ClassifierVerdict  `json:"classifier,omitempty"`
	AnalyzedAt time.Time           `json:"analyzed_at"`
}

// HistoryEntry is the audit record written after an analysis completes.
// History is write-only with respect to the engine: it is never consulted
// while an analysis is running.
type HistoryEntry struct {
	Sender     string    `json:"sender"`
	Subject    string    `json:"subject"`
	Level      RiskLevel `json:"level"`
	Score      float64   `json:"score"`
	NumURLs    int       `json:"num_urls"`
	AnalyzedAt time.Time `json:"analyzed_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
