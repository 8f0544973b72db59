package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/lehigh-university-libraries/loraprep/internal/config"
	"github.com/lehigh-university-libraries/loraprep/internal/providers"
)

// Gemini is a provider for Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// New returns a new Gemini provider. Call Close when done.
func New(ctx context.Context, cfg config.Gemini) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(float32(cfg.Temperature))
	model.SetTopP(float32(cfg.TopP))
	model.SetMaxOutputTokens(int32(cfg.MaxTokens))

	return &Gemini{client: client, model: model}, nil
}

// Name returns the provider name
func (g *Gemini) Name() string {
	return "gemini"
}

// Close releases the underlying client
func (g *Gemini) Close() error {
	return g.client.Close()
}

// Caption sends the prompt and the image to Gemini
func (g *Gemini) Caption(ctx context.Context, imagePath, prompt string) (string, error) {
	data, mime, err := providers.ReadImage(imagePath)
	if err != nil {
		return "", err
	}

	resp, err := g.model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.ImageData(strings.TrimPrefix(mime, "image/"), data),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return firstText(resp), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		slog.Warn("No candidates returned from Gemini")
		return providers.NoCaptionFound
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		slog.Warn("Empty content returned from Gemini")
		return providers.NoCaptionFound
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok && strings.TrimSpace(string(txt)) != "" {
		return string(txt)
	}

	slog.Warn("Unexpected response format from Gemini")
	return providers.NoCaptionFound
}
