// Package config reads the captioning configuration from the environment.
//
// The backend is resolved once into one of the Backend variants; nothing
// downstream looks at the selection variables again.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend is one of RemoteHTTP, LocalModel, Gemini or Ollama.
type Backend interface {
	BackendName() string
}

// GPUTier selects the precision of the local model.
type GPUTier string

const (
	// TierReach loads full precision weights.
	TierReach GPUTier = "reach"
	// TierPoor loads 4-bit quantized weights.
	TierPoor GPUTier = "poor"
)

// Generation defaults shared by the backends.
const (
	DefaultMaxTokens     = 256
	DefaultTemperature   = 0.2
	DefaultTopP          = 0.9
	DefaultRepeatPenalty = 1.1
	DefaultTimeout       = 5 * time.Minute

	DefaultEndpoint    = "https://openrouter.ai/api/v1/chat/completions"
	DefaultRemoteModel = "google/gemma-3-4b-it:free"
	DefaultGeminiModel = "gemini-1.5-flash"
	DefaultOllamaModel = "qwen2.5vl"
	DefaultLlamaCLI    = "llama-mtmd-cli"
)

// CredentialVars are checked in order; the first non-empty one wins.
var CredentialVars = []string{"OPENROUTER_API_KEY", "OPEN_ROUTER_API", "OPENAI_API_KEY"}

// ErrInvalidConfig wraps every configuration problem.
var ErrInvalidConfig = errors.New("invalid configuration")

// RemoteHTTP talks to a chat-completions compatible endpoint.
type RemoteHTTP struct {
	Endpoint      string
	Model         string
	APIKey        string
	CredentialVar string
	MaxTokens     int
	Temperature   float64
	TopP          float64
	Timeout       time.Duration
}

// LocalModel runs a llama.cpp multimodal model on this machine.
type LocalModel struct {
	CLIPath       string
	ModelPath     string
	MMProjPath    string
	Tier          GPUTier
	MaxTokens     int
	RepeatPenalty float64
	Timeout       time.Duration
}

// Gemini uses the Google Generative AI API.
type Gemini struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Ollama uses an Ollama server. The host comes from OLLAMA_HOST.
type Ollama struct {
	Model         string
	MaxTokens     int
	RepeatPenalty float64
}

func (RemoteHTTP) BackendName() string { return "remote" }
func (LocalModel) BackendName() string { return "local" }
func (Gemini) BackendName() string     { return "gemini" }
func (Ollama) BackendName() string     { return "ollama" }

// Config is constructed once at startup and passed to the backend factory.
type Config struct {
	Backend Backend
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return FromEnv(os.Getenv)
}

// FromEnv reads the configuration using getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	timeout := DefaultTimeout
	if raw := get("CAPTION_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: CAPTION_TIMEOUT %q is not a positive duration", ErrInvalidConfig, raw)
		}
		timeout = d
	}

	maxTokens := DefaultMaxTokens
	if raw := get("CAPTION_MAX_TOKENS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: CAPTION_MAX_TOKENS %q is not a positive integer", ErrInvalidConfig, raw)
		}
		maxTokens = n
	}

	kind := strings.ToLower(get("CAPTION_BACKEND"))
	if kind == "" {
		kind = "local"
		if isYes(get("ON_SILICON")) || isYes(get("USE_GEMMA")) {
			kind = "remote"
		}
	}

	switch kind {
	case "remote":
		remote := RemoteHTTP{
			Endpoint:    orDefault(get("CAPTION_ENDPOINT"), DefaultEndpoint),
			Model:       orDefault(get("CAPTION_MODEL"), DefaultRemoteModel),
			MaxTokens:   maxTokens,
			Temperature: DefaultTemperature,
			TopP:        DefaultTopP,
			Timeout:     timeout,
		}
		for _, key := range CredentialVars {
			if v := get(key); v != "" {
				remote.APIKey = v
				remote.CredentialVar = key
				break
			}
		}
		return &Config{Backend: remote}, nil

	case "local":
		local := LocalModel{
			CLIPath:       orDefault(get("LLAMA_MTMD_CLI"), DefaultLlamaCLI),
			MMProjPath:    get("LOCAL_MMPROJ_PATH"),
			Tier:          GPUTier(strings.ToLower(get("CUDA_GPU"))),
			MaxTokens:     maxTokens,
			RepeatPenalty: DefaultRepeatPenalty,
			Timeout:       timeout,
		}
		switch local.Tier {
		case TierReach:
			local.ModelPath = get("LOCAL_MODEL_PATH")
		case TierPoor:
			local.ModelPath = get("LOCAL_MODEL_Q4_PATH")
			if local.ModelPath == "" {
				return nil, fmt.Errorf("%w: CUDA_GPU=poor requested 4-bit loading, but LOCAL_MODEL_Q4_PATH is not set", ErrInvalidConfig)
			}
		default:
			return nil, fmt.Errorf("%w: set CUDA_GPU to 'reach' for full precision or 'poor' for 4-bit quantization", ErrInvalidConfig)
		}
		if local.ModelPath == "" {
			return nil, fmt.Errorf("%w: LOCAL_MODEL_PATH is not set", ErrInvalidConfig)
		}
		if local.MMProjPath == "" {
			return nil, fmt.Errorf("%w: LOCAL_MMPROJ_PATH is not set", ErrInvalidConfig)
		}
		return &Config{Backend: local}, nil

	case "gemini":
		key := get("GEMINI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY environment variable not set", ErrInvalidConfig)
		}
		return &Config{Backend: Gemini{
			APIKey:      key,
			Model:       orDefault(get("GEMINI_MODEL"), DefaultGeminiModel),
			MaxTokens:   maxTokens,
			Temperature: DefaultTemperature,
			TopP:        DefaultTopP,
		}}, nil

	case "ollama":
		return &Config{Backend: Ollama{
			Model:         orDefault(get("OLLAMA_MODEL"), DefaultOllamaModel),
			MaxTokens:     maxTokens,
			RepeatPenalty: DefaultRepeatPenalty,
		}}, nil
	}

	return nil, fmt.Errorf("%w: unsupported CAPTION_BACKEND %q (use local, remote, gemini or ollama)", ErrInvalidConfig, kind)
}

func isYes(v string) bool {
	return strings.EqualFold(v, "yes")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
