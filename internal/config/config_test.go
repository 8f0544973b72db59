package config

import (
	"errors"
	"testing"
	"time"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvRemoteCredentialPrecedence(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"ON_SILICON":      "yes",
		"OPEN_ROUTER_API": "second",
		"OPENAI_API_KEY":  "third",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	remote, ok := cfg.Backend.(RemoteHTTP)
	if !ok {
		t.Fatalf("backend = %T, want RemoteHTTP", cfg.Backend)
	}
	if remote.APIKey != "second" || remote.CredentialVar != "OPEN_ROUTER_API" {
		t.Errorf("credential = %q from %s", remote.APIKey, remote.CredentialVar)
	}
	if remote.Endpoint != DefaultEndpoint || remote.Model != DefaultRemoteModel {
		t.Errorf("defaults not applied: %+v", remote)
	}
	if remote.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v", remote.Timeout)
	}
}

func TestFromEnvRemoteWithoutCredential(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"CAPTION_BACKEND":  "remote",
		"CAPTION_ENDPOINT": "http://localhost:8000/v1/chat/completions",
		"CAPTION_TIMEOUT":  "90s",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	remote := cfg.Backend.(RemoteHTTP)
	if remote.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", remote.APIKey)
	}
	if remote.Timeout != 90*time.Second {
		t.Errorf("timeout = %v", remote.Timeout)
	}
}

func TestFromEnvLocalTiers(t *testing.T) {
	tests := []struct {
		name      string
		values    map[string]string
		wantModel string
		wantErr   bool
	}{
		{
			name: "reach uses full weights",
			values: map[string]string{
				"CUDA_GPU": "reach", "LOCAL_MODEL_PATH": "/m/full.gguf", "LOCAL_MMPROJ_PATH": "/m/proj.gguf",
			},
			wantModel: "/m/full.gguf",
		},
		{
			name: "poor uses quantized weights",
			values: map[string]string{
				"CUDA_GPU": "POOR", "LOCAL_MODEL_PATH": "/m/full.gguf", "LOCAL_MODEL_Q4_PATH": "/m/q4.gguf", "LOCAL_MMPROJ_PATH": "/m/proj.gguf",
			},
			wantModel: "/m/q4.gguf",
		},
		{
			name:    "poor without quantized weights",
			values:  map[string]string{"CUDA_GPU": "poor", "LOCAL_MODEL_PATH": "/m/full.gguf", "LOCAL_MMPROJ_PATH": "/m/proj.gguf"},
			wantErr: true,
		},
		{
			name:    "missing tier",
			values:  map[string]string{"LOCAL_MODEL_PATH": "/m/full.gguf"},
			wantErr: true,
		},
		{
			name:    "missing projector",
			values:  map[string]string{"CUDA_GPU": "reach", "LOCAL_MODEL_PATH": "/m/full.gguf"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromEnv(env(tt.values))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromEnv: %v", err)
			}
			local := cfg.Backend.(LocalModel)
			if local.ModelPath != tt.wantModel {
				t.Errorf("ModelPath = %q, want %q", local.ModelPath, tt.wantModel)
			}
			if local.CLIPath != DefaultLlamaCLI {
				t.Errorf("CLIPath = %q", local.CLIPath)
			}
		})
	}
}

func TestFromEnvBackendOverridesLegacyFlag(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"CAPTION_BACKEND": "ollama", "ON_SILICON": "yes"}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Backend.BackendName() != "ollama" {
		t.Errorf("backend = %s, want ollama", cfg.Backend.BackendName())
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []map[string]string{
		{"CAPTION_BACKEND": "gemini"},
		{"CAPTION_BACKEND": "carrier-pigeon"},
		{"CAPTION_BACKEND": "remote", "CAPTION_TIMEOUT": "soon"},
		{"CAPTION_BACKEND": "remote", "CAPTION_MAX_TOKENS": "-1"},
	}
	for _, values := range tests {
		if _, err := FromEnv(env(values)); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("FromEnv(%v) = %v, want ErrInvalidConfig", values, err)
		}
	}
}
