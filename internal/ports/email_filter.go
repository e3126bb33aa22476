package ports

import (
	"context"

	"github.com/mikey/phishing-link-analyzer/internal/analyzer"
	"github.com/mikey/phishing-link-analyzer/internal/core"
)

// EmailFilter defines the interface for the surfaces that feed emails into
// the analysis service: SMTP content filter, HTTP API, and CLI.
type EmailFilter interface {
	// ProcessEmail runs one analysis and returns the result
	ProcessEmail(ctx context.Context, req *analyzer.Request) (*core.EmailAnalysis, error)

	// Start starts the filter service
	Start() error

	// Stop stops the filter service
	Stop() error
}
