package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"fashfolio/internal/observability"

	"github.com/sashabaranov/go-openai"
)

const stylistPrompt = `You are a professional fashion stylist. Analyze the clothing in the image.
Return a strictly valid JSON object with the following fields:
- "season": One of ["Spring", "Summer", "Fall", "Winter"] (choose the best fit).
- "mood": One of ["Casual", "Formal", "Party", "Sport", "Business"] (choose the best fit).
- "color": The dominant color name.
- "description": A short, catchy 1-sentence description of the outfit.

Do not include markdown formatting.`

// ErrVisionDisabled is returned when no API key is configured.
var ErrVisionDisabled = errors.New("vision analysis is not configured")

// OutfitAnalysis is the stylist's reading of an outfit photo.
type OutfitAnalysis struct {
	Season      string `json:"season"`
	Mood        string `json:"mood"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// VisionAnalyzer asks an OpenAI chat model to describe outfit photos.
type VisionAnalyzer struct {
	client *openai.Client
	model  string
}

// NewVisionAnalyzer returns nil when apiKey is empty.
func NewVisionAnalyzer(apiKey, model string) *VisionAnalyzer {
	if apiKey == "" {
		return nil
	}
	return NewVisionAnalyzerWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewVisionAnalyzerWithConfig builds an analyzer from a full client config.
func NewVisionAnalyzerWithConfig(cfg openai.ClientConfig, model string) *VisionAnalyzer {
	if model == "" {
		model = openai.GPT4o
	}
	return &VisionAnalyzer{client: openai.NewClientWithConfig(cfg), model: model}
}

// Enabled reports whether the analyzer can be called.
func (v *VisionAnalyzer) Enabled() bool {
	return v != nil && v.client != nil
}

// Analyze classifies the outfit at imageURL.
func (v *VisionAnalyzer) Analyze(ctx context.Context, imageURL string) (*OutfitAnalysis, error) {
	if !v.Enabled() {
		return nil, ErrVisionDisabled
	}
	ctx, span := observability.GetTraceLayer().TraceExternalCall(ctx, "openai", "chat.completions")
	defer span.End()

	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: stylistPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: "Analyze this outfit."},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: imageURL}},
				},
			},
		},
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("vision completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, errors.New("vision completion returned no content")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimSuffix(strings.TrimPrefix(content, "```json"), "```")

	var analysis OutfitAnalysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &analysis); err != nil {
		return nil, fmt.Errorf("vision completion was not JSON: %w", err)
	}
	return &analysis, nil
}
