//go:build !windows

package environ

import "os/exec"

func hideWindow(_ *exec.Cmd) {}
