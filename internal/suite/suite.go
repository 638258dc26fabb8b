// SPDX-License-Identifier: MPL-2.0

package suite

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"

	"github.com/dosemu2/cputest/pkg/types"
)

// ErrDuplicateCase is the sentinel error wrapped by DuplicateCaseError.
var ErrDuplicateCase = errors.New("duplicate case name")

type (
	// Procedure runs one case in env and reports its outcome.
	Procedure func(ctx context.Context, env *Env) Outcome

	// Env is what the framework hands to a running case.
	Env struct {
		// WorkDir is an empty directory owned by the case for its whole run.
		WorkDir string
	}

	// Case is one registered test.
	Case struct {
		Name        string
		Description types.DescriptionText
		Tags        []string
		Run         Procedure
	}

	// Suite is an ordered collection of uniquely named cases.
	Suite struct {
		Name string
		// Attrs lists the tags carried by the suite; every tag of a
		// registered case is added here.
		Attrs []string

		cases []Case
		names map[string]struct{}
	}

	// Filter selects cases. An empty Filter selects everything.
	Filter struct {
		// Tags keeps cases carrying at least one of the tags.
		Tags []string
		// Patterns keeps cases whose name matches at least one path.Match pattern.
		Patterns []string
	}

	// DuplicateCaseError is returned when a case name is registered twice.
	DuplicateCaseError struct {
		Name string
	}
)

// Error implements the error interface.
func (e *DuplicateCaseError) Error() string {
	return fmt.Sprintf("case %q registered more than once", e.Name)
}

// Unwrap returns ErrDuplicateCase so callers can use errors.Is for programmatic detection.
func (e *DuplicateCaseError) Unwrap() error { return ErrDuplicateCase }

// New creates an empty suite.
func New(name string) *Suite {
	return &Suite{Name: name, names: make(map[string]struct{})}
}

// HasTag reports whether the case carries tag.
func (c Case) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// Register appends cases in order. Nothing is registered if any name is
// already taken or repeated within cases.
func (s *Suite) Register(cases ...Case) error {
	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	seen := make(map[string]struct{}, len(cases))
	for _, c := range cases {
		_, taken := s.names[c.Name]
		_, repeated := seen[c.Name]
		if taken || repeated {
			return &DuplicateCaseError{Name: c.Name}
		}
		seen[c.Name] = struct{}{}
	}

	for _, c := range cases {
		s.names[c.Name] = struct{}{}
		s.cases = append(s.cases, c)
		for _, tag := range c.Tags {
			s.AddAttr(tag)
		}
	}
	return nil
}

// AddAttr adds attr to the suite's attributes if absent.
func (s *Suite) AddAttr(attr string) {
	if !s.HasAttr(attr) {
		s.Attrs = append(s.Attrs, attr)
	}
}

// HasAttr reports whether the suite carries attr.
func (s *Suite) HasAttr(attr string) bool {
	return slices.Contains(s.Attrs, attr)
}

// Cases returns the registered cases in registration order.
func (s *Suite) Cases() []Case {
	return slices.Clone(s.cases)
}

// Len returns the number of registered cases.
func (s *Suite) Len() int { return len(s.cases) }

// Select returns the cases accepted by f, in registration order.
// A malformed pattern is reported as path.ErrBadPattern.
func (s *Suite) Select(f Filter) ([]Case, error) {
	for _, p := range f.Patterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("name pattern %q: %w", p, err)
		}
	}

	var out []Case
	for _, c := range s.cases {
		if f.accepts(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f Filter) accepts(c Case) bool {
	if len(f.Tags) > 0 && !slices.ContainsFunc(f.Tags, c.HasTag) {
		return false
	}
	if len(f.Patterns) == 0 {
		return true
	}
	return slices.ContainsFunc(f.Patterns, func(p string) bool {
		ok, _ := path.Match(p, c.Name)
		return ok
	})
}
