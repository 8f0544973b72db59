package llamacpp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/loraprep/internal/config"
	"github.com/lehigh-university-libraries/loraprep/internal/providers"
)

// fakeCLI writes a shell script that records its arguments and prints body.
func fakeCLI(t *testing.T, body string) (config.LocalModel, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script runtime not available on windows")
	}
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > " + argsFile + "\n" + body + "\n"
	cli := filepath.Join(dir, "llama-mtmd-cli")
	if err := os.WriteFile(cli, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"model.gguf", "proj.gguf", "x0.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return config.LocalModel{
		CLIPath:       cli,
		ModelPath:     filepath.Join(dir, "model.gguf"),
		MMProjPath:    filepath.Join(dir, "proj.gguf"),
		Tier:          config.TierReach,
		MaxTokens:     256,
		RepeatPenalty: 1.1,
	}, argsFile
}

func TestCaptionTruncatesAtSentinel(t *testing.T) {
	cfg, argsFile := fakeCLI(t, "echo '  woman in front of a red car ### Notes: none'")
	model := NewVisionModel(cfg)

	image := filepath.Join(filepath.Dir(cfg.ModelPath), "x0.jpg")
	caption, err := model.Caption(context.Background(), image, "  describe  ")
	if err != nil {
		t.Fatalf("Caption: %v", err)
	}
	if caption != "woman in front of a red car" {
		t.Errorf("caption = %q", caption)
	}

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	args := string(data)
	for _, want := range []string{"--temp\n0\n", "-n\n256\n", "--repeat-penalty\n1.1\n", "-p\ndescribe\n", "--image\n" + image + "\n"} {
		if !strings.Contains(args, want) {
			t.Errorf("args missing %q:\n%s", want, args)
		}
	}
}

func TestCaptionFailsFastWithoutModel(t *testing.T) {
	cfg, _ := fakeCLI(t, "echo should-not-run")
	cfg.ModelPath = filepath.Join(t.TempDir(), "missing.gguf")

	_, err := NewVisionModel(cfg).Caption(context.Background(), "x0.jpg", "describe")
	if !errors.Is(err, providers.ErrModelNotLoaded) {
		t.Fatalf("expected ErrModelNotLoaded, got %v", err)
	}
}

func TestCaptionReportsRuntimeFailure(t *testing.T) {
	cfg, _ := fakeCLI(t, "echo 'out of memory' >&2\nexit 3")
	image := filepath.Join(filepath.Dir(cfg.ModelPath), "x0.jpg")

	_, err := NewVisionModel(cfg).Caption(context.Background(), image, "describe")
	if err == nil || !strings.Contains(err.Error(), "out of memory") {
		t.Fatalf("expected runtime failure with stderr, got %v", err)
	}
}

func TestCaptionEmptyOutput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"nothing printed", "true"},
		{"whitespace only", "echo '   '"},
		{"sentinel first", "echo '### Notes: none'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := fakeCLI(t, tt.body)
			image := filepath.Join(filepath.Dir(cfg.ModelPath), "x0.jpg")

			caption, err := NewVisionModel(cfg).Caption(context.Background(), image, "describe")
			if err != nil {
				t.Fatalf("Caption: %v", err)
			}
			if caption != providers.NoCaptionFound {
				t.Errorf("caption = %q, want %q", caption, providers.NoCaptionFound)
			}
		})
	}
}
