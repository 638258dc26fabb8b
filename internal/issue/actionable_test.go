// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "start emulator"},
			want: "failed to start emulator",
		},
		{
			name: "operation with resource",
			err:  &ActionableError{Operation: "stage DOS test binary", Resource: "test/cpu/dosbin.exe"},
			want: "failed to stage DOS test binary: test/cpu/dosbin.exe",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load configuration",
				Resource:  "config.cue",
				Cause:     errors.New("emulator.timeout_seconds: conflicting values"),
			},
			want: "failed to load configuration: config.cue: emulator.timeout_seconds: conflicting values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().WithOperation("open reference").Wrap(fs.ErrNotExist).BuildError()
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is() should find the cause")
	}
	if (&ActionableError{Operation: "x"}).Unwrap() != nil {
		t.Error("Unwrap() without cause should be nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	err := &ActionableError{
		Operation:   "start emulator",
		Resource:    "bin/dosemu",
		Suggestions: []string{"Build the emulator first", "Check emulator.binary"},
		Cause:       fmt.Errorf("exec: %w", fs.ErrNotExist),
	}

	short := err.Format(false)
	for _, want := range []string{"failed to start emulator: bin/dosemu", "\n  • Build the emulator first", "\n  • Check emulator.binary"} {
		if !strings.Contains(short, want) {
			t.Errorf("Format(false) = %q, missing %q", short, want)
		}
	}
	if strings.Contains(short, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. exec: file does not exist", "2. file does not exist"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) = %q, missing %q", verbose, want)
		}
	}
}

func TestActionableError_HasSuggestions(t *testing.T) {
	t.Parallel()

	if (&ActionableError{Operation: "x"}).HasSuggestions() {
		t.Error("HasSuggestions() = true without suggestions")
	}
	if !(&ActionableError{Operation: "x", Suggestions: []string{"y"}}).HasSuggestions() {
		t.Error("HasSuggestions() = false with a suggestion")
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("no such device")
	ae := NewErrorContext().
		WithOperation("open KVM device").
		WithResource("/dev/kvm").
		WithSuggestion("Load the kvm module").
		WithSuggestions("Join the kvm group", "Set host.kvm_device").
		WithIssue(KVMNotAvailableID).
		Wrap(cause).
		Build()

	if ae.Operation != "open KVM device" || ae.Resource != "/dev/kvm" {
		t.Errorf("Build() = %+v", ae)
	}
	if len(ae.Suggestions) != 3 {
		t.Errorf("Suggestions = %v, want 3", ae.Suggestions)
	}
	if ae.Issue != KVMNotAvailableID || ae.Cause != cause {
		t.Errorf("Issue = %d, Cause = %v", ae.Issue, ae.Cause)
	}

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without operation should return nil")
	}
	if err := NewErrorContext().Wrap(cause).BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want nil interface", err)
	}
}

func TestIssueOf(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("case cpu_method_kvm_kvm: %w", NewErrorContext().
		WithOperation("start emulator").
		WithIssue(EmulatorNotFoundID).
		BuildError())
	if got := IssueOf(err); got == nil || got.ID() != EmulatorNotFoundID {
		t.Errorf("IssueOf() = %v, want EmulatorNotFoundID", got)
	}

	if IssueOf(NewErrorContext().WithOperation("x").BuildError()) != nil {
		t.Error("IssueOf() without an attached issue should be nil")
	}
	if IssueOf(errors.New("plain")) != nil {
		t.Error("IssueOf(plain error) should be nil")
	}
}

func TestSetupError(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("stage DOS test binary").
		WithIssue(TestBinaryNotFoundID).
		Wrap(fs.ErrNotExist).
		BuildSetupError()

	if !errors.Is(err, ErrSetup) {
		t.Error("errors.Is(err, ErrSetup) = false")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is(err, fs.ErrNotExist) = false")
	}
	var ae *ActionableError
	if !errors.As(err, &ae) || ae.Operation != "stage DOS test binary" {
		t.Errorf("errors.As() = %v", ae)
	}
	if IssueOf(err).ID() != TestBinaryNotFoundID {
		t.Error("IssueOf() should see through SetupError")
	}
	if err.Error() != "failed to stage DOS test binary: file does not exist" {
		t.Errorf("Error() = %q", err.Error())
	}

	if NewErrorContext().BuildSetupError() != nil {
		t.Error("BuildSetupError() without operation should be nil")
	}
}
