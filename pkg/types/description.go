// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDescriptionText is the sentinel error wrapped by InvalidDescriptionTextError.
var ErrInvalidDescriptionText = errors.New("invalid description text")

type (
	// DescriptionText is the one-line human-readable description of a test
	// case, shown next to its name in listings and reports.
	// The zero value means no description.
	DescriptionText string

	// InvalidDescriptionTextError is returned when a DescriptionText is
	// whitespace-only or spans more than one line.
	InvalidDescriptionTextError struct {
		Value  DescriptionText
		Reason string
	}
)

// String returns the description.
func (d DescriptionText) String() string { return string(d) }

// IsValid returns whether the DescriptionText can be printed on one line.
func (d DescriptionText) IsValid() (bool, []error) {
	if d == "" {
		return true, nil
	}
	if strings.TrimSpace(string(d)) == "" {
		return false, []error{&InvalidDescriptionTextError{Value: d, Reason: "whitespace-only"}}
	}
	if strings.ContainsAny(string(d), "\r\n") {
		return false, []error{&InvalidDescriptionTextError{Value: d, Reason: "contains a line break"}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidDescriptionTextError) Error() string {
	return fmt.Sprintf("invalid description text %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidDescriptionText for errors.Is() compatibility.
func (e *InvalidDescriptionTextError) Unwrap() error { return ErrInvalidDescriptionText }
