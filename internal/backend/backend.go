// Package backend turns the configured backend variant into a Captioner.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/lehigh-university-libraries/loraprep/internal/config"
	"github.com/lehigh-university-libraries/loraprep/internal/gemini"
	"github.com/lehigh-university-libraries/loraprep/internal/llamacpp"
	"github.com/lehigh-university-libraries/loraprep/internal/ollama"
	"github.com/lehigh-university-libraries/loraprep/internal/openai"
	"github.com/lehigh-university-libraries/loraprep/internal/providers"
)

// acceleratorProbe is the tool whose presence means a CUDA GPU is usable.
const acceleratorProbe = "nvidia-smi"

var lookPath = exec.LookPath

// New builds the Captioner for cfg.Backend. Callers should Close the result
// if it implements io.Closer.
func New(ctx context.Context, cfg *config.Config) (providers.Captioner, error) {
	switch b := cfg.Backend.(type) {
	case config.RemoteHTTP:
		if b.APIKey == "" {
			slog.Warn("No API key configured; requests are sent unauthenticated", "endpoint", b.Endpoint)
		}
		slog.Info("Using remote captioning", "endpoint", b.Endpoint, "model", b.Model, "credential", b.CredentialVar)
		return openai.New(b), nil

	case config.LocalModel:
		if _, err := lookPath(acceleratorProbe); err != nil {
			return nil, fmt.Errorf("%w: CUDA GPU required to load the model", config.ErrInvalidConfig)
		}
		model := llamacpp.NewVisionModel(b)
		if err := model.Loaded(); err != nil {
			return nil, err
		}
		slog.Info("Using local captioning", "model", b.ModelPath, "tier", b.Tier)
		return model, nil

	case config.Gemini:
		slog.Info("Using Gemini captioning", "model", b.Model)
		g, err := gemini.New(ctx, b)
		if err != nil {
			return nil, err
		}
		return g, nil

	case config.Ollama:
		slog.Info("Using Ollama captioning", "model", b.Model)
		o, err := ollama.New(b)
		if err != nil {
			return nil, err
		}
		return o, nil
	}

	return nil, fmt.Errorf("%w: no captioning backend configured", config.ErrInvalidConfig)
}
