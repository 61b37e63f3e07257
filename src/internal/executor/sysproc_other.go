//go:build !windows

package executor

import "os/exec"

func hideWindow(_ *exec.Cmd) {}
