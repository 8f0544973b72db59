// Package rename renumbers the images of a directory to {prefix}{index}{ext}.
//
// Renaming happens in two phases: every file first moves to a unique
// temporary name, then every temporary name moves to its final name. This
// allows the final name set to overlap the original one (for example
// swapping x0.jpg and x1.jpg). The directory must not be modified by anyone
// else while Renumber runs.
package rename

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/loraprep/internal/dataset"
)

const tempPrefix = ".__tmp_rename__"

// ErrTargetOccupied is returned before anything is renamed when a final name
// is taken by something that is not being renumbered.
var ErrTargetOccupied = errors.New("target name is occupied by a file that is not being renamed")

// Move is one planned rename.
type Move struct {
	From string `yaml:"from"`
	Temp string `yaml:"-"`
	To   string `yaml:"to"`
}

// PhaseError reports a rename that failed partway through. The directory is
// left with some files under temporary names; Staged lists every
// (Temp, To) pair so the remaining moves can be finished by hand.
type PhaseError struct {
	Phase  int
	Move   Move
	Staged []Move
	Err    error
}

func (e *PhaseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rename phase %d failed for %s: %v", e.Phase, e.Move.From, e.Err)
	b.WriteString("\nstaged renames (temp -> final):")
	for _, m := range e.Staged {
		fmt.Fprintf(&b, "\n  %s -> %s", m.Temp, m.To)
	}
	return b.String()
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Plan computes the moves for dir without touching the filesystem.
func Plan(dir string) ([]Move, error) {
	dir = filepath.Clean(dir)
	names, err := dataset.Sorted(dir, dataset.RenameExts)
	if err != nil {
		return nil, err
	}

	prefix := dataset.Prefix(dir)
	moves := make([]Move, len(names))
	for i, name := range names {
		_, ext := dataset.SplitExt(name)
		moves[i] = Move{
			From: filepath.Join(dir, name),
			Temp: filepath.Join(dir, tempPrefix+strings.ReplaceAll(uuid.NewString(), "-", "")+ext),
			To:   filepath.Join(dir, fmt.Sprintf("%s%d%s", prefix, i, ext)),
		}
	}

	if err := checkTargets(moves); err != nil {
		return nil, err
	}
	return moves, nil
}

// checkTargets makes sure no final or temporary name belongs to an entry
// outside the rename set.
func checkTargets(moves []Move) error {
	sources := make(map[string]bool, len(moves))
	for _, m := range moves {
		sources[m.From] = true
	}
	for _, m := range moves {
		if sources[m.To] {
			continue
		}
		if _, err := os.Lstat(m.To); err == nil {
			return fmt.Errorf("%w: %s", ErrTargetOccupied, m.To)
		}
		if _, err := os.Lstat(m.Temp); err == nil {
			return fmt.Errorf("%w: %s", ErrTargetOccupied, m.Temp)
		}
	}
	return nil
}

// Renumber renames every image in dir to {basename(dir)}{index}{ext}, where
// index follows the natural order of the original names and ext is each
// file's own extension.
func Renumber(dir string) ([]Move, error) {
	moves, err := Plan(dir)
	if err != nil {
		return nil, err
	}

	for _, m := range moves {
		slog.Debug("Staged rename", "from", m.From, "temp", m.Temp, "to", m.To)
	}

	for _, m := range moves {
		if err := os.Rename(m.From, m.Temp); err != nil {
			return nil, &PhaseError{Phase: 1, Move: m, Staged: moves, Err: err}
		}
	}

	for _, m := range moves {
		if err := os.Rename(m.Temp, m.To); err != nil {
			return nil, &PhaseError{Phase: 2, Move: m, Staged: moves, Err: err}
		}
		slog.Info("Renamed image", "from", filepath.Base(m.From), "to", filepath.Base(m.To))
	}

	return moves, nil
}
