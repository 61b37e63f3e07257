package environ

import (
	"context"
	"os/exec"
)

// runWSL executes wsl.exe for discovery purposes. Stdout comes back raw so
// the caller can deal with the UTF-16 console encoding.
func runWSL(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "wsl.exe", args...)
	hideWindow(cmd)
	return cmd.Output()
}

// runWSLProbe runs a shell snippet inside a distribution through sh, so
// $HOME style paths expand for the distro user.
func runWSLProbe(ctx context.Context, distro, script string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "wsl.exe", "-d", distro, "--", "sh", "-c", script)
	hideWindow(cmd)
	return cmd.Output()
}
