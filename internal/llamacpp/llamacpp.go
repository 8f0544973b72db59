// Package llamacpp captions images with a local llama.cpp multimodal model.
package llamacpp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/loraprep/internal/config"
	"github.com/lehigh-university-libraries/loraprep/internal/providers"
)

// VisionModel runs llama-mtmd-cli once per image. The CLI applies the
// model's chat template to a single user turn and prints only the generated
// text on stdout.
type VisionModel struct {
	cfg config.LocalModel
}

func NewVisionModel(cfg config.LocalModel) *VisionModel {
	return &VisionModel{cfg: cfg}
}

func (v *VisionModel) Name() string {
	return "local"
}

// Loaded reports whether the runtime and both weight files are present.
func (v *VisionModel) Loaded() error {
	if _, err := exec.LookPath(v.cfg.CLIPath); err != nil {
		return fmt.Errorf("%w: %v", providers.ErrModelNotLoaded, err)
	}
	for _, path := range []string{v.cfg.ModelPath, v.cfg.MMProjPath} {
		if path == "" {
			return fmt.Errorf("%w: no weights configured", providers.ErrModelNotLoaded)
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %v", providers.ErrModelNotLoaded, err)
		}
	}
	return nil
}

func (v *VisionModel) Caption(ctx context.Context, imagePath, prompt string) (string, error) {
	if err := v.Loaded(); err != nil {
		return "", err
	}
	if _, err := os.Stat(imagePath); err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	if v.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.cfg.Timeout)
		defer cancel()
	}

	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, v.cfg.CLIPath, v.args(imagePath, prompt)...)
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("local inference failed: %w: %s", err, lastLine(stderr.String()))
	}

	caption := providers.TruncateAtSentinel(out.String())
	if caption == "" {
		return providers.NoCaptionFound, nil
	}
	return caption, nil
}

// args selects greedy decoding with a repetition penalty; the DRY sampler
// blocks repeated n-grams longer than two tokens.
func (v *VisionModel) args(imagePath, prompt string) []string {
	return []string{
		"-m", v.cfg.ModelPath,
		"--mmproj", v.cfg.MMProjPath,
		"--image", imagePath,
		"-p", strings.TrimSpace(prompt),
		"-n", strconv.Itoa(v.cfg.MaxTokens),
		"--temp", "0",
		"--top-k", "1",
		"--repeat-penalty", strconv.FormatFloat(v.cfg.RepeatPenalty, 'f', -1, 64),
		"--dry-multiplier", "0.8",
		"--dry-allowed-length", "2",
		"-ngl", "999",
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
