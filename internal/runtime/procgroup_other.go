// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package runtime

import (
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

// killProcessGroup kills only p; there are no POSIX process groups here.
func killProcessGroup(p *os.Process) error {
	return p.Kill()
}
