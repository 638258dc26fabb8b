// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatCUEPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"runtime"}, "runtime"},
		{[]string{"emulator", "args", "1"}, "emulator.args[1]"},
		{[]string{"0"}, "0"},
	}
	for _, tt := range tests {
		if got := formatCUEPath(tt.path); got != tt.want {
			t.Errorf("formatCUEPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFormatCUEError_Plain(t *testing.T) {
	t.Parallel()

	if formatCUEError(nil, "config.cue") != nil {
		t.Error("nil error should stay nil")
	}
	cause := errors.New("disk on fire")
	err := formatCUEError(cause, "config.cue")
	if !errors.Is(err, cause) || !strings.HasPrefix(err.Error(), "config.cue: ") {
		t.Errorf("formatCUEError() = %v", err)
	}
}
