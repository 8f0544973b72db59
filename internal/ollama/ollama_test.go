package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/ollama/ollama/api"

	"github.com/lehigh-university-libraries/loraprep/internal/config"
	"github.com/lehigh-university-libraries/loraprep/internal/providers"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Ollama {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Ollama{Model: "qwen2.5vl", MaxTokens: 256, RepeatPenalty: 1.1}
	return NewWithClient(cfg, api.NewClient(base, server.Client()))
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "x0.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCaption(t *testing.T) {
	var got api.ChatRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"qwen2.5vl","message":{"role":"assistant","content":"A cat on a mat."},"done":true}`))
	})

	caption, err := p.Caption(context.Background(), writeImage(t), "describe")
	if err != nil {
		t.Fatalf("Caption: %v", err)
	}
	if caption != "A cat on a mat." {
		t.Errorf("caption = %q", caption)
	}
	if len(got.Messages) != 1 || len(got.Messages[0].Images) != 1 {
		t.Errorf("image not attached: %+v", got.Messages)
	}
	if got.Stream == nil || *got.Stream {
		t.Error("streaming should be disabled")
	}
}

func TestCaptionStatusError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := p.Caption(context.Background(), writeImage(t), "describe")
	var httpErr *providers.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected HTTPError 404, got %v", err)
	}
}
