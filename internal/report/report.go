// SPDX-License-Identifier: MPL-2.0

// Package report records the outcome of a cputest run as a TOML document.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	goruntime "runtime"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/dosemu2/cputest/internal/suite"
)

type (
	// Report is the persisted record of one run.
	Report struct {
		ID       string       `toml:"id"`
		Started  time.Time    `toml:"started"`
		Finished time.Time    `toml:"finished"`
		Host     HostInfo     `toml:"host"`
		Summary  Totals       `toml:"summary"`
		Cases    []CaseRecord `toml:"cases"`
	}

	// HostInfo identifies the machine the run happened on.
	HostInfo struct {
		OS      string `toml:"os"`
		Arch    string `toml:"arch"`
		Machine string `toml:"machine"`
		Runtime string `toml:"runtime"`
	}

	// Totals mirrors suite.Summary.
	Totals struct {
		Passed  int `toml:"passed"`
		Failed  int `toml:"failed"`
		Skipped int `toml:"skipped"`
		Errors  int `toml:"errors"`
		NotRun  int `toml:"not_run"`
	}

	// CaseRecord is the outcome of one case.
	CaseRecord struct {
		Name        string  `toml:"name"`
		Description string  `toml:"description"`
		Outcome     string  `toml:"outcome"`
		Reason      string  `toml:"reason,omitempty"`
		Seconds     float64 `toml:"seconds"`
		WorkDir     string  `toml:"work_dir,omitempty"`
	}
)

// New starts a report with a fresh ID.
func New(started time.Time, machine, runtimeName string) *Report {
	return &Report{
		ID:      uuid.NewString(),
		Started: started.UTC().Truncate(time.Second),
		Host: HostInfo{
			OS:      goruntime.GOOS,
			Arch:    goruntime.GOARCH,
			Machine: machine,
			Runtime: runtimeName,
		},
	}
}

// Complete fills in the case records and totals from sum.
func (r *Report) Complete(sum *suite.Summary, finished time.Time) {
	r.Finished = finished.UTC().Truncate(time.Second)
	r.Summary = Totals{
		Passed:  sum.Passed,
		Failed:  sum.Failed,
		Skipped: sum.Skipped,
		Errors:  sum.Errors,
		NotRun:  sum.NotRun,
	}
	r.Cases = make([]CaseRecord, 0, len(sum.Records))
	for _, rec := range sum.Records {
		r.Cases = append(r.Cases, CaseRecord{
			Name:        rec.Case.Name,
			Description: rec.Case.Description.String(),
			Outcome:     rec.Outcome.Kind.String(),
			Reason:      rec.Outcome.Message(),
			Seconds:     rec.Duration.Round(time.Millisecond).Seconds(),
			WorkDir:     rec.WorkDir,
		})
	}
}

// Encode writes r as TOML.
func (r *Report) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteFile writes r to path, creating parent directories.
func (r *Report) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := r.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Read decodes a report previously written by WriteFile.
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return &r, nil
}
