package main

import (
	"cmp"
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	geminiRegion = "asia-southeast1"
	geminiModel  = "gemini-2.5-flash"
)

// GeminiClient is the companion's fallback provider when no SEA-LION key is
// set. It reaches Gemini through Vertex AI.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient authenticates with Application Default Credentials for
// projectID. An empty region means Singapore.
func NewGeminiClient(ctx context.Context, projectID, region string) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  projectID,
		Location: cmp.Or(region, geminiRegion),
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client for %s: %w", projectID, err)
	}
	return &GeminiClient{client: client, model: geminiModel}, nil
}

// Complete sends the conversation with system as the system instruction.
func (g *GeminiClient) Complete(ctx context.Context, system string, msgs []ChatMessage) (string, error) {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents,
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
			Temperature:       genai.Ptr(float32(0.7)),
			MaxOutputTokens:   chatMaxTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty gemini response")
	}
	return text, nil
}

// Close is a no-op; genai clients own no connections to release.
func (g *GeminiClient) Close() error { return nil }
