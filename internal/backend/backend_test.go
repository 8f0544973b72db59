package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/lehigh-university-libraries/loraprep/internal/config"
	"github.com/lehigh-university-libraries/loraprep/internal/providers"
)

func TestNewRemote(t *testing.T) {
	c, err := New(context.Background(), &config.Config{Backend: config.RemoteHTTP{Endpoint: "http://localhost:1"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Name() != "remote" {
		t.Errorf("Name = %s", c.Name())
	}
}

func TestNewLocalRequiresAccelerator(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()
	lookPath = func(string) (string, error) { return "", errors.New("not found") }

	_, err := New(context.Background(), &config.Config{Backend: config.LocalModel{Tier: config.TierReach}})
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestNewLocalRequiresWeights(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()
	lookPath = func(string) (string, error) { return "/usr/bin/nvidia-smi", nil }

	_, err := New(context.Background(), &config.Config{Backend: config.LocalModel{
		CLIPath:   "definitely-not-a-real-binary",
		ModelPath: "/nowhere/model.gguf",
	}})
	if !errors.Is(err, providers.ErrModelNotLoaded) {
		t.Fatalf("expected ErrModelNotLoaded, got %v", err)
	}
}

func TestNewWithoutBackend(t *testing.T) {
	if _, err := New(context.Background(), &config.Config{}); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
