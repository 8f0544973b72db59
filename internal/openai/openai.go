package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/loraprep/internal/config"
	"github.com/lehigh-university-libraries/loraprep/internal/providers"
)

// OpenAI captions images through an OpenAI-compatible chat completions
// endpoint such as OpenRouter
type OpenAI struct {
	cfg    config.RemoteHTTP
	client *http.Client
}

// New returns a new OpenAI provider
func New(cfg config.RemoteHTTP) *OpenAI {
	return &OpenAI{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
}

// Name returns the provider name
func (o *OpenAI) Name() string {
	return "remote"
}

// Caption sends the prompt and the image to the endpoint and returns the
// first choice's text
func (o *OpenAI) Caption(ctx context.Context, imagePath, prompt string) (string, error) {
	dataURL, err := providers.DataURL(imagePath)
	if err != nil {
		return "", err
	}

	requestBody, err := json.Marshal(chatRequest{
		Model: o.cfg.Model,
		Messages: []message{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
		TopP:        o.cfg.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.cfg.Endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to send request: %w", providers.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && o.cfg.APIKey == "" {
		return "", providers.ErrCredentialRequired
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &providers.HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content json.RawMessage `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", fmt.Errorf("%w: failed to read response body: %w", providers.ErrNetwork, err)
		}
		slog.Warn("Unexpected response body", "image", imagePath, "err", err)
		return providers.NoCaptionFound, nil
	}

	if len(response.Choices) == 0 {
		slog.Warn("No choices returned", "image", imagePath)
		return providers.NoCaptionFound, nil
	}

	var content string
	if err := json.Unmarshal(response.Choices[0].Message.Content, &content); err != nil || strings.TrimSpace(content) == "" {
		slog.Warn("Choice content is not text", "image", imagePath)
		return providers.NoCaptionFound, nil
	}

	return content, nil
}
