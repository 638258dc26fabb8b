// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// FakeArgsFile is written by the fake emulator into its working directory and
// holds the arguments it was invoked with, one per line.
const FakeArgsFile = "fake-emulator.args"

// FakeEmulator describes the behaviour of a stand-in emulator script.
type FakeEmulator struct {
	// Capture is the file name the script writes Output to, relative to its
	// working directory. Empty means no capture file is produced.
	Capture string
	// Output is the guest output copied into Capture.
	Output string
	// Sleep delays the exit after the capture has been written.
	Sleep time.Duration
	// ExitCode is the script's exit status.
	ExitCode int
	// Banner is printed to standard output, followed by "tty" or "notty"
	// depending on whether standard input is a terminal.
	Banner string
}

// WriteFakeEmulator writes an executable shell script into dir implementing fe
// and returns its path. Tests using it are skipped on Windows.
func WriteFakeEmulator(t testing.TB, dir string, fe FakeEmulator) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake emulator requires a POSIX shell")
	}

	MustMkdirAll(t, dir, 0o755)

	var script strings.Builder
	script.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&script, "for a in \"$@\"; do printf '%%s\\n' \"$a\"; done > %s\n", FakeArgsFile)

	if fe.Banner != "" {
		fmt.Fprintf(&script, "echo '%s'\n", fe.Banner)
		script.WriteString("if [ -t 0 ]; then echo tty; else echo notty; fi\n")
	}
	if fe.Capture != "" {
		outPath := filepath.Join(dir, "fake-emulator.out")
		if err := os.WriteFile(outPath, []byte(fe.Output), 0o644); err != nil {
			t.Fatalf("failed to write fake output: %v", err)
		}
		fmt.Fprintf(&script, "cp '%s' '%s'\n", outPath, fe.Capture)
	}
	if fe.Sleep > 0 {
		// sleep runs as a child so timeout handling must reach the whole group.
		fmt.Fprintf(&script, "sleep %d\n", int(fe.Sleep.Round(time.Second)/time.Second))
	}
	fmt.Fprintf(&script, "exit %d\n", fe.ExitCode)

	path := filepath.Join(dir, "fake-emulator")
	if err := os.WriteFile(path, []byte(script.String()), 0o755); err != nil {
		t.Fatalf("failed to write fake emulator: %v", err)
	}
	return path
}
