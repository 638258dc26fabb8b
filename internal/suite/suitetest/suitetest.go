// SPDX-License-Identifier: MPL-2.0

// Package suitetest runs a suite.Suite under "go test". It is kept apart from
// package suite so the cputest binary does not link the testing package.
package suitetest

import (
	"context"
	"testing"

	"github.com/dosemu2/cputest/internal/suite"
)

// Options controls Run.
type Options struct {
	Filter suite.Filter
	// Context is passed to every case. Nil uses t.Context().
	Context context.Context
}

// Run runs the selected cases of s as subtests of t. Each case gets its own
// t.TempDir(); Skip maps to t.Skip, Fail and SetupError to t.Fatal.
func Run(t *testing.T, s *suite.Suite, opts Options) {
	t.Helper()

	cases, err := s.Select(opts.Filter)
	if err != nil {
		t.Fatalf("select cases: %v", err)
	}
	if len(cases) == 0 {
		t.Skip("no cases selected")
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			ctx := opts.Context
			if ctx == nil {
				ctx = t.Context()
			}
			if c.Description != "" {
				t.Log(c.Description)
			}

			out := c.Execute(ctx, &suite.Env{WorkDir: t.TempDir()})
			switch out.Kind {
			case suite.Pass:
			case suite.Skip:
				t.Skip(out.Reason)
			case suite.Fail:
				t.Fatal(out.Diagnostic)
			default:
				t.Fatalf("setup error: %s", out.Message())
			}
		})
	}
}
