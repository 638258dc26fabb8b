// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestExitCodeValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value ExitCode
		valid bool
	}{
		{0, true},
		{ExitSetupError, true},
		{139, true},
		{255, true},
		{-1, false},
		{256, false},
	}

	for _, tt := range tests {
		err := tt.value.Validate()
		if (err == nil) != tt.valid {
			t.Errorf("ExitCode(%d).Validate() = %v, valid %v", tt.value, err, tt.valid)
		}
		if err != nil && !errors.Is(err, ErrInvalidExitCode) {
			t.Errorf("ExitCode(%d).Validate() error does not wrap ErrInvalidExitCode: %v", tt.value, err)
		}
	}
}

func TestExitCodePredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code      ExitCode
		success   bool
		transient bool
		signal    int
	}{
		{code: 0, success: true},
		{code: 1},
		{code: 125, transient: true},
		{code: 126, transient: true},
		{code: 127},
		{code: 128},
		{code: 137, signal: 9},
		{code: 139, signal: 11},
		{code: -1},
	}

	for _, tt := range tests {
		if got := tt.code.IsSuccess(); got != tt.success {
			t.Errorf("ExitCode(%d).IsSuccess() = %v, want %v", tt.code, got, tt.success)
		}
		if got := tt.code.IsTransient(); got != tt.transient {
			t.Errorf("ExitCode(%d).IsTransient() = %v, want %v", tt.code, got, tt.transient)
		}
		if got := tt.code.Signal(); got != tt.signal {
			t.Errorf("ExitCode(%d).Signal() = %d, want %d", tt.code, got, tt.signal)
		}
	}
}

func TestExitCodeString(t *testing.T) {
	t.Parallel()

	if got := ExitCode(-1).String(); got != "-1" {
		t.Errorf("ExitCode(-1).String() = %q, want %q", got, "-1")
	}
}
