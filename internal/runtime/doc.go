// SPDX-License-Identifier: MPL-2.0

// Package runtime starts the emulator for one run and reads back the output
// the guest wrote.
//
// Two runtime implementations are available:
//   - host: runs the emulator binary as a child process, optionally under a
//     pseudo-terminal, in its own process group
//   - container: runs the emulator inside a container image (testcontainers-go)
//     with the run's work directory bind-mounted
//
// Driver wraps a Runtime with the wall-clock budget of a run and turns the
// outcome into the error taxonomy used by the suite: TimeoutError when the
// budget expires, MissingOutputError when the guest never produced its capture
// file, and issue.SetupError when the emulator could not be started at all.
package runtime
