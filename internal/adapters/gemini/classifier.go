package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/phishing-link-analyzer/internal/core"
	"github.com/mikey/phishing-link-analyzer/internal/scoring"
	"github.com/mikey/phishing-link-analyzer/internal/utils"
)

// Classifier is an implementation of the Classifier interface using Google Gemini
type Classifier struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// verdictResponse represents the structured response from the model
type verdictResponse struct {
	IsPhishing bool    `json:"is_phishing"`
	Confidence float64 `json:"confidence"`
	RiskLevel  string  `json:"risk_level"`
}

// NewClassifier creates a new Gemini-backed classifier
func NewClassifier(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Classifier, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &Classifier{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `You are a phishing detection system. Analyze the following email and decide whether it is a phishing attempt.
Respond with a JSON object containing:
- is_phishing: boolean (true if the email is a phishing attempt)
- confidence: number between 0 and 1 (how confident you are in your assessment)
- risk_level: one of "safe", "suspicious" or "dangerous"

Email:
From: %s
To: %s
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`,
	}, nil
}

// Close closes the Gemini client
func (c *Classifier) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ClassifyEmail submits the email to Gemini and returns its verdict
func (c *Classifier) ClassifyEmail(ctx context.Context, email *core.Email) (*core.ClassifierVerdict, error) {
	to := ""
	if len(email.To) > 0 {
		to = email.To[0]
		if len(email.To) > 1 {
			to += fmt.Sprintf(" and %d others", len(email.To)-1)
		}
	}

	processedBody := c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	prompt := fmt.Sprintf(c.promptFormat, email.From, to, email.Subject, processedBody)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	verdict, err := parseVerdict(responseText)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Gemini verdict",
		zap.Bool("is_phishing", verdict.IsPhishing),
		zap.Float64("confidence", verdict.Confidence),
		zap.String("model", c.modelName))

	return verdict, nil
}

// parseVerdict decodes the model output, falling back to extracting the
// first top-level JSON object when the model wrapped it in prose.
func parseVerdict(responseText string) (*core.ClassifierVerdict, error) {
	var resp verdictResponse
	if err := json.Unmarshal([]byte(responseText), &resp); err != nil {
		jsonStart := -1
		jsonEnd := -1
		for i := 0; i < len(responseText); i++ {
			if responseText[i] == '{' {
				jsonStart = i
				break
			}
		}
		for i := len(responseText) - 1; i >= 0; i-- {
			if responseText[i] == '}' {
				jsonEnd = i + 1
				break
			}
		}
		if jsonStart < 0 || jsonStart >= jsonEnd {
			return nil, fmt.Errorf("failed to extract JSON from model response: %w", err)
		}
		if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd]), &resp); err != nil {
			return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
		}
	}

	return &core.ClassifierVerdict{
		IsPhishing: resp.IsPhishing,
		Confidence: resp.Confidence,
		RiskLevel:  normalizeRiskLevel(resp.RiskLevel, resp.Confidence),
	}, nil
}

func normalizeRiskLevel(level string, confidence float64) core.RiskLevel {
	switch core.RiskLevel(level) {
	case core.RiskSafe, core.RiskSuspicious, core.RiskDangerous:
		return core.RiskLevel(level)
	}
	return scoring.LevelForScore(confidence * 100)
}
