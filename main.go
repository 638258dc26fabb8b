// SPDX-License-Identifier: MPL-2.0

// Command cputest runs the dosemu2 CPU backend conformance suite.
package main

import cmd "github.com/dosemu2/cputest/cmd/cputest"

func main() {
	cmd.Execute()
}
