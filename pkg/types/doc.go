// SPDX-License-Identifier: MPL-2.0

// Package types holds small value types shared by the runner packages and the
// CLI. It imports only the standard library.
package types
