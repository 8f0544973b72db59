package report

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/loraprep/internal/caption"
	"github.com/lehigh-university-libraries/loraprep/internal/convert"
	"github.com/lehigh-university-libraries/loraprep/internal/rename"
)

// RunConfig represents the configuration section of the summary
type RunConfig struct {
	Directory   string `yaml:"directory"`
	Backend     string `yaml:"backend,omitempty"`
	CaptionType string `yaml:"captiontype,omitempty"`
	StyleSuffix string `yaml:"stylesuffix,omitempty"`
	Timestamp   string `yaml:"timestamp"`
}

// Failure is one file that did not make it through a stage
type Failure struct {
	Path  string `yaml:"path"`
	Error string `yaml:"error"`
}

// Stages holds what each pipeline stage did
type Stages struct {
	Converted          []convert.Conversion `yaml:"converted,omitempty"`
	ConversionFailures []Failure            `yaml:"conversionfailures,omitempty"`
	Renamed            []rename.Move        `yaml:"renamed,omitempty"`
	Captioned          int                  `yaml:"captioned"`
	CaptionFailures    []Failure            `yaml:"captionfailures,omitempty"`
}

// Summary represents a complete pipeline run
type Summary struct {
	Config RunConfig `yaml:"config"`
	Stages Stages    `yaml:"stages"`
}

// New starts a summary for dir
func New(dir, backend, captionType, styleSuffix string) *Summary {
	return &Summary{Config: RunConfig{
		Directory:   filepath.Clean(dir),
		Backend:     backend,
		CaptionType: captionType,
		StyleSuffix: styleSuffix,
		Timestamp:   time.Now().Format("2006-01-02_15-04-05"),
	}}
}

// AddConversions records the normalizer output, including a *convert.BatchError
func (s *Summary) AddConversions(converted []convert.Conversion, err error) {
	s.Stages.Converted = append(s.Stages.Converted, converted...)
	var batch *convert.BatchError
	if errors.As(err, &batch) {
		for _, f := range batch.Failures {
			s.Stages.ConversionFailures = append(s.Stages.ConversionFailures, Failure{Path: f.Path, Error: f.Err.Error()})
		}
	}
}

// AddMoves records the renamer output
func (s *Summary) AddMoves(moves []rename.Move) {
	s.Stages.Renamed = append(s.Stages.Renamed, moves...)
}

// AddCaptions records the captioning driver output
func (s *Summary) AddCaptions(r *caption.Report) {
	if r == nil {
		return
	}
	s.Stages.Captioned += r.Succeeded()
	for _, item := range r.Failed() {
		s.Stages.CaptionFailures = append(s.Stages.CaptionFailures, Failure{Path: item.Image, Error: item.Err.Error()})
	}
}

// Write renders the summary as YAML
func (s *Summary) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	return enc.Close()
}
