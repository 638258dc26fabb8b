// SPDX-License-Identifier: MPL-2.0

package verify

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/pmezard/go-difflib/difflib"
)

// diffContext is the number of unchanged lines shown around each change.
const diffContext = 3

// ErrMismatch is the sentinel error wrapped by Mismatch.
var ErrMismatch = errors.New("differences detected")

type (
	// Reference is the golden output every run is compared against.
	// It is passed by value; Lines returns a copy.
	Reference struct {
		// Name labels the reference side of a diff.
		Name  string
		lines []string
	}

	// Mismatch describes how captured output diverges from the reference.
	Mismatch struct {
		// FirstLine is the 1-based number of the first differing line.
		FirstLine int
		// Diff is the unified diff from reference to capture.
		Diff string
	}
)

// NewReference creates a Reference from already split lines.
func NewReference(name string, lines []string) Reference {
	return Reference{Name: name, lines: slices.Clone(lines)}
}

// LoadReference reads the golden file at path. A missing file is returned as
// the raw *fs.PathError so callers can tell a broken checkout from a failing run.
func LoadReference(path string) (Reference, error) {
	lines, err := ReadFileLines(path)
	if err != nil {
		return Reference{}, err
	}
	return Reference{Name: filepath.Base(path), lines: lines}, nil
}

// Lines returns a copy of the reference lines.
func (r Reference) Lines() []string {
	return slices.Clone(r.lines)
}

// Len returns the number of reference lines.
func (r Reference) Len() int { return len(r.lines) }

// Compare checks got against ref line by line. It returns nil when both have
// the same lines in the same order.
func Compare(ref Reference, got []string, gotName string) *Mismatch {
	first := firstDifference(ref.lines, got)
	if first == 0 {
		return nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        ref.lines,
		B:        got,
		FromFile: ref.Name,
		ToFile:   gotName,
		Context:  diffContext,
	})
	if err != nil {
		diff = fmt.Sprintf("(diff unavailable: %v)\n", err)
	}

	return &Mismatch{FirstLine: first, Diff: diff}
}

// firstDifference returns the 1-based index of the first line where a and b
// differ, or 0 if they are equal.
func firstDifference(a, b []string) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i + 1
		}
	}
	if len(a) != len(b) {
		return n + 1
	}
	return 0
}

// Error renders the failure message: a headline followed by the diff.
func (m *Mismatch) Error() string {
	return fmt.Sprintf("%s (first difference at line %d)\n%s", ErrMismatch, m.FirstLine, m.Diff)
}

// Unwrap returns ErrMismatch for errors.Is() compatibility.
func (m *Mismatch) Unwrap() error { return ErrMismatch }
