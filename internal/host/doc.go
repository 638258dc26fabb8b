// SPDX-License-Identifier: MPL-2.0

// Package host inspects the machine the emulator will run on and decides
// whether a backend pair can run here at all. Unmet preconditions are
// environment limitations, reported as UnsupportedError so callers skip
// instead of failing.
package host
