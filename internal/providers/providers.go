package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Captioner turns an image and a prompt into caption text
type Captioner interface {
	Name() string
	Caption(ctx context.Context, imagePath, prompt string) (string, error)
}

// NoCaptionFound is returned in place of a caption when a backend answered
// with a response that carried no usable text.
const NoCaptionFound = "No caption found."

// Sentinel is the delimiter some caption models emit after the caption.
const Sentinel = "###"

var (
	// ErrUnsupportedMIME means the image type cannot be sent to the backend.
	ErrUnsupportedMIME = errors.New("unsupported image type")

	// ErrCredentialRequired means the endpoint rejected an unauthenticated
	// request. Setting an API key fixes it.
	ErrCredentialRequired = errors.New("endpoint requires an API key: set OPENROUTER_API_KEY (or OPEN_ROUTER_API / OPENAI_API_KEY)")

	// ErrNetwork wraps transport failures and timeouts.
	ErrNetwork = errors.New("network failure")

	// ErrModelNotLoaded means the local runtime or its weights are missing.
	ErrModelNotLoaded = errors.New("local caption model is not loaded")
)

// HTTPError is a non-2xx answer from a captioning endpoint
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("received non-200 status code: %d - %s", e.StatusCode, e.Body)
}

var acceptedMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// MIMEType returns the MIME type for an image path if backends accept it.
func MIMEType(path string) (string, error) {
	mime, ok := acceptedMIME[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMIME, filepath.Ext(path))
	}
	return mime, nil
}

// ReadImage checks the MIME type of path and returns its bytes.
func ReadImage(path string) ([]byte, string, error) {
	mime, err := MIMEType(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	return data, mime, nil
}

// DataURL encodes the image at path as a base64 data URL.
func DataURL(path string) (string, error) {
	data, mime, err := ReadImage(path)
	if err != nil {
		return "", err
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// TruncateAtSentinel drops everything from the first Sentinel on and trims
// surrounding whitespace.
func TruncateAtSentinel(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, Sentinel); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}
