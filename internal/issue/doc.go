// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and the Markdown help pages the CLI
// shows for known failures such as a missing emulator, an inaccessible KVM
// device or a missing reference file.
//
// Errors raised while preparing a run are SetupErrors: they are reported
// separately from test failures because they say nothing about the CPU
// backend under test.
package issue
