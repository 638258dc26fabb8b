// SPDX-License-Identifier: MPL-2.0

// Package execute resolves which runtime starts the emulator for a run. It
// keeps runtime selection out of the CLI layer.
package execute
