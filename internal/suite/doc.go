// SPDX-License-Identifier: MPL-2.0

// Package suite is the small test framework the conformance cases are
// registered with: named cases with tags, a tagged Outcome per run, a
// sequential Runner. Package suitetest runs a Suite under "go test".
package suite
