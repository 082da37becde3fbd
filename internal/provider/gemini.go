package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"brushup/internal/config"
	"brushup/internal/dataurl"
)

const geminiImageModel = "gemini-2.5-flash-image-preview"

// gemini dispatches to the Gemini multimodal generation API. Images travel
// as inline data parts alongside the text prompt.
type gemini struct {
	client  *genai.Client
	timeout time.Duration
}

func newGemini(ctx context.Context, cfg *config.Config, timeout time.Duration) (*gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &gemini{client: client, timeout: timeout}, nil
}

// Generate implements Gateway.
func (p *gemini) Generate(ctx context.Context, prompt string) (string, error) {
	return p.call(ctx, []*genai.Part{genai.NewPartFromText(prompt)})
}

// Edit implements Gateway.
func (p *gemini) Edit(ctx context.Context, prompt string, images []string) (string, error) {
	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, image := range images {
		mediaType, data, err := dataurl.Decode(image)
		if err != nil {
			return "", fmt.Errorf("gemini image edit: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, mediaType))
	}
	return p.call(ctx, parts)
}

func (p *gemini) call(ctx context.Context, parts []*genai.Part) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := p.client.Models.GenerateContent(ctx, geminiImageModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generation: %w", err)
	}

	return imageFromCandidates(resp.Candidates)
}

// imageFromCandidates finds the first inline image part of a response.
func imageFromCandidates(candidates []*genai.Candidate) (string, error) {
	for _, candidate := range candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil {
				continue
			}
			if !strings.HasPrefix(part.InlineData.MIMEType, "image/") {
				continue
			}
			return dataurl.Encode(part.InlineData.Data, part.InlineData.MIMEType), nil
		}
	}
	return "", fmt.Errorf("%s", ErrNoImage)
}
