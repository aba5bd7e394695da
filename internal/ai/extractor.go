package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

var setIDRegex = regexp.MustCompile(`\b(\d{4,6})\b`)

// Extractor pulls a LEGO set number out of free-form deal titles. With no API
// key it degrades to a regex heuristic instead of failing ingestion.
type Extractor struct {
	client  *genai.Client
	modelID string
}

type extractionResult struct {
	SetID      string `json:"set_id"`
	Confidence string `json:"confidence"`
}

func NewExtractor(ctx context.Context, apiKey, modelID string) (*Extractor, error) {
	if apiKey == "" {
		return nil, nil // Return nil extractor if no key provided
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Extractor{client: client, modelID: modelID}, nil
}

// ExtractSetID returns the set number named by the title, or "" when neither
// the model nor the regex heuristic finds one.
func (e *Extractor) ExtractSetID(ctx context.Context, title string) (string, error) {
	if e == nil || e.client == nil {
		return extractSetIDHeuristic(title), nil // Graceful degradation
	}

	prompt := fmt.Sprintf(`
Identify the LEGO set number mentioned in this deal title:
Title: %q

Task:
1. Extract the official LEGO set number (4 to 6 digits). Ignore prices, percentages, and piece counts.
2. Report confidence as "high" when the number is clearly a set id, "low" when guessing.

Output JSON adhering to the schema.
`, title)

	temperature := float32(0.1)
	resp, err := e.client.Models.GenerateContent(ctx, e.modelID, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"set_id": {
					Type:        genai.TypeString,
					Description: "The LEGO set number (4-6 digits), or empty string when none is present.",
				},
				"confidence": {
					Type:        genai.TypeString,
					Description: "Either \"high\" or \"low\".",
				},
			},
			Required: []string{"set_id", "confidence"},
		},
	})
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	// Clean up potential markdown formatting just in case
	jsonStr := strings.TrimSpace(resp.Text())
	jsonStr = strings.TrimPrefix(jsonStr, "```json")
	jsonStr = strings.TrimPrefix(jsonStr, "```")
	jsonStr = strings.TrimSuffix(jsonStr, "```")

	var result extractionResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return "", fmt.Errorf("failed to parse gemini response: %w", err)
	}

	if result.Confidence == "low" || result.SetID == "" {
		return extractSetIDHeuristic(title), nil
	}
	return result.SetID, nil
}

func extractSetIDHeuristic(title string) string {
	if m := setIDRegex.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return ""
}
