// SPDX-License-Identifier: MPL-2.0

// Package verify compares guest output captured from one emulator run with the
// checked-in golden reference and renders a unified diff on mismatch.
package verify
