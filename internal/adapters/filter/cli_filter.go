package filter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/analyzer"
	"github.com/mikey/phishing-link-analyzer/internal/core"
)

// CliFilter implements a command-line interface for link risk analysis
type CliFilter struct {
	service *analyzer.Service
	logger  *zap.Logger
	verbose bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *analyzer.Service, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		logger:  logger,
		verbose: verbose,
	}, nil
}

// ProcessEmail analyzes an email and prints the report
func (f *CliFilter) ProcessEmail(ctx context.Context, req *analyzer.Request) (*core.EmailAnalysis, error) {
	email := req.Email
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.From)
	fmt.Printf("To: %s\n", email.To)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Content()))

	if f.verbose {
		preview := email.Content()
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n=== Analysis ===\n")
	startTime := time.Now()
	analysis, err := f.service.AnalyzeEmail(ctx, req)
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		fmt.Printf("Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	fmt.Printf("Extracted %d candidate URL(s)\n", len(analysis.URLs))
	for _, r := range analysis.URLs {
		fmt.Printf("\n  %s\n", r.URL)
		fmt.Printf("    Score: %d  Phishing: %t  Confidence: %.2f\n", r.Score, r.IsPhishing, r.Confidence)
		if r.FetchError != "" {
			fmt.Printf("    Page not fetched: %s\n", r.FetchError)
		} else if r.PageFeatures != nil && f.verbose {
			fmt.Printf("    Page: %d scripts, %d iframes, %d hidden, %d forms\n",
				r.PageFeatures.NumScriptTags, r.PageFeatures.NumIframeTags,
				r.PageFeatures.NumHiddenElements, r.PageFeatures.NumForms)
		}
	}

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Risk level: %s\n", analysis.Overall.Level)
	fmt.Printf("Risk score: %.1f\n", analysis.Overall.Score)
	if analysis.Classifier != nil {
		fmt.Printf("Classifier: phishing=%t confidence=%.2f\n",
			analysis.Classifier.IsPhishing, analysis.Classifier.Confidence)
	}
	fmt.Printf("Processing time: %v\n", duration)

	return analysis, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
