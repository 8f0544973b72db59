package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/lehigh-university-libraries/loraprep/internal/config"
	"github.com/lehigh-university-libraries/loraprep/internal/providers"
)

// Ollama is a provider for Ollama
type Ollama struct {
	cfg    config.Ollama
	client *api.Client
}

// New returns a new Ollama provider for the server named by OLLAMA_HOST
func New(cfg config.Ollama) (*Ollama, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return NewWithClient(cfg, client), nil
}

// NewWithClient returns a new Ollama provider using client
func NewWithClient(cfg config.Ollama, client *api.Client) *Ollama {
	return &Ollama{cfg: cfg, client: client}
}

// Name returns the provider name
func (o *Ollama) Name() string {
	return "ollama"
}

// Caption sends the prompt with the image attached as a single chat turn
func (o *Ollama) Caption(ctx context.Context, imagePath, prompt string) (string, error) {
	data, _, err := providers.ReadImage(imagePath)
	if err != nil {
		return "", err
	}

	stream := false
	req := &api.ChatRequest{
		Model: o.cfg.Model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: strings.TrimSpace(prompt),
				Images:  []api.ImageData{data},
			},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature":    0,
			"num_predict":    o.cfg.MaxTokens,
			"repeat_penalty": o.cfg.RepeatPenalty,
		},
	}

	var response strings.Builder
	err = o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", &providers.HTTPError{StatusCode: statusErr.StatusCode, Body: statusErr.ErrorMessage}
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return "", fmt.Errorf("%w: %w", providers.ErrNetwork, err)
		}
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}

	caption := providers.TruncateAtSentinel(response.String())
	if caption == "" {
		return providers.NoCaptionFound, nil
	}
	return caption, nil
}
