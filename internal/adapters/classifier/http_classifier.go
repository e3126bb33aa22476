// Package classifier provides the HTTP adapter for the external
// content-classification service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/core"
	"github.com/mikey/phishing-link-analyzer/internal/scoring"
	"github.com/mikey/phishing-link-analyzer/internal/utils"
)

// HTTPClassifier talks to a prediction service exposing POST /predict
type HTTPClassifier struct {
	client        *http.Client
	endpoint      string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

type predictRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Sender  string `json:"sender"`
}

type predictResponse struct {
	IsPhishing bool    `json:"is_phishing"`
	Confidence float64 `json:"confidence"`
	RiskLevel  string  `json:"risk_level"`
}

// NewHTTPClassifier creates a new HTTP prediction client. baseURL points at
// the service root; the /predict path is appended here.
func NewHTTPClassifier(
	baseURL string,
	timeout time.Duration,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClassifier{
		client:        &http.Client{Timeout: timeout},
		endpoint:      strings.TrimRight(baseURL, "/") + "/predict",
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// ClassifyEmail submits the email text to the prediction service and
// returns its published verdict.
func (c *HTTPClassifier) ClassifyEmail(ctx context.Context, email *core.Email) (*core.ClassifierVerdict, error) {
	payload, err := json.Marshal(predictRequest{
		Subject: email.Subject,
		Body:    c.textProcessor.ProcessText(email.Body, c.maxBodySize),
		Sender:  email.From,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("prediction service returned status %d", resp.StatusCode)
	}

	var pred predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, fmt.Errorf("failed to decode prediction response: %w", err)
	}

	verdict := &core.ClassifierVerdict{
		IsPhishing: pred.IsPhishing,
		Confidence: pred.Confidence,
		RiskLevel:  core.RiskLevel(pred.RiskLevel),
	}
	switch verdict.RiskLevel {
	case core.RiskSafe, core.RiskSuspicious, core.RiskDangerous:
	default:
		verdict.RiskLevel = scoring.LevelForScore(pred.Confidence * 100)
	}

	c.logger.Debug("Prediction service verdict",
		zap.Bool("is_phishing", verdict.IsPhishing),
		zap.Float64("confidence", verdict.Confidence))

	return verdict, nil
}
