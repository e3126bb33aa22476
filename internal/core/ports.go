package core

import (
	"context"
)

// Classifier defines the interface for the external content-classification service
type Classifier interface {
	// ClassifyEmail submits the email text content and returns the published verdict
	ClassifyEmail(ctx context.Context, email *Email) (*ClassifierVerdict, error)
}

// PageFetcher defines the interface for retrieving a URL's markup
type PageFetcher interface {
	// Fetch returns the page markup for the given absolute URL.
	// Failure is expected and non-fatal; callers degrade to URL-only scoring.
	Fetch(ctx context.Context, url string) (string, error)
}

// HistoryRepository defines the interface for recording completed verdicts
type HistoryRepository interface {
	// Record stores an audit entry for a finished analysis
	Record(ctx context.Context, entry *HistoryEntry) error

	// Recent returns up to limit entries, newest first
	Recent(ctx context.Context, limit int) ([]*HistoryEntry, error)

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
