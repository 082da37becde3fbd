package provider

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"

	"brushup/internal/config"
	"brushup/internal/dataurl"
)

const openAIImageModel = "gpt-image-1"

// openAI dispatches to the OpenAI images API.
type openAI struct {
	client  *openai.Client
	timeout time.Duration
}

func newOpenAI(cfg *config.Config, timeout time.Duration) *openAI {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}
	return &openAI{
		client:  openai.NewClientWithConfig(clientConfig),
		timeout: timeout,
	}
}

// Generate implements Gateway.
func (p *openAI) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Prompt: prompt,
		Model:  openAIImageModel,
		N:      1,
		Size:   "1024x1024",
	})
	if err != nil {
		return "", fmt.Errorf("openai image generation: %w", err)
	}

	return imageFromResponse(resp)
}

// Edit implements Gateway. The images API takes a single source image, so the
// first attachment is edited.
func (p *openAI) Edit(ctx context.Context, prompt string, images []string) (string, error) {
	if len(images) == 0 {
		return "", fmt.Errorf("openai image edit: no source image")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	file, err := tempImageFile(images[0])
	if err != nil {
		return "", fmt.Errorf("openai image edit: %w", err)
	}
	defer func() {
		file.Close()
		os.Remove(file.Name())
	}()

	resp, err := p.client.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:  file,
		Prompt: prompt,
		Model:  openAIImageModel,
		N:      1,
		Size:   "1024x1024",
	})
	if err != nil {
		return "", fmt.Errorf("openai image edit: %w", err)
	}

	return imageFromResponse(resp)
}

// imageFromResponse extracts the base64 payload of the first returned image.
func imageFromResponse(resp openai.ImageResponse) (string, error) {
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", fmt.Errorf("%s", ErrNoImage)
	}
	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

// tempImageFile materializes a data URL into a temporary file positioned at
// offset zero, as the images API consumes *os.File.
func tempImageFile(image string) (*os.File, error) {
	_, data, err := dataurl.Decode(image)
	if err != nil {
		return nil, err
	}

	file, err := os.CreateTemp("", "brushup-edit-*.png")
	if err != nil {
		return nil, err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, err
	}
	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, err
	}
	return file, nil
}
