package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/phishing-link-analyzer/internal/core"
	"github.com/mikey/phishing-link-analyzer/internal/scoring"
	"github.com/mikey/phishing-link-analyzer/internal/utils"
)

// Classifier is an implementation of the Classifier interface using OpenAI
type Classifier struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
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

// NewClassifier creates a new OpenAI-backed classifier
func NewClassifier(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Classifier {
	return &Classifier{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
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
	}
}

// ClassifyEmail submits the email to OpenAI and returns its verdict
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

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a phishing detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	verdict, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("OpenAI verdict",
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

// normalizeRiskLevel keeps the verdict on the closed level set even when
// the model invents its own label.
func normalizeRiskLevel(level string, confidence float64) core.RiskLevel {
	switch core.RiskLevel(level) {
	case core.RiskSafe, core.RiskSuspicious, core.RiskDangerous:
		return core.RiskLevel(level)
	}
	return scoring.LevelForScore(confidence * 100)
}
