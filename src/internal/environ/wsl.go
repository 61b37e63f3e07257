package environ

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// wslCommon lists the locations checked for the tool inside a distribution.
// Probing goes through sh so $HOME expands to the distro user's home.
var wslCommonToolPaths = []string{
	"$HOME/.local/share/fnm/fnm",
	"$HOME/.cargo/bin/fnm",
	"/usr/local/bin/fnm",
	"/usr/bin/fnm",
	"$HOME/.fnm/fnm",
}

// detectWSLDistros enumerates installed WSL distributions. Every failure is
// soft: a broken or absent wsl.exe yields an empty list so native discovery
// is never affected.
func detectWSLDistros(ctx context.Context, run wslRunner) []*Environment {
	running := listRunningDistros(ctx, run)

	out, err := run(ctx, "--list", "--verbose")
	if err != nil {
		log.Debug("wsl listing failed", "err", err)
		return nil
	}

	decoded := decodeWSLOutput(out)
	envs := parseDistroList(decoded, running)
	log.Info("wsl discovery complete", "distros", len(envs), "running", len(running))
	return envs
}

// listRunningDistros returns the set of distribution names with a live VM.
func listRunningDistros(ctx context.Context, run wslRunner) map[string]bool {
	out, err := run(ctx, "--list", "--running", "--quiet")
	if err != nil {
		return nil
	}

	names := make(map[string]bool)
	for _, line := range strings.Split(decodeWSLOutput(out), "\n") {
		name := strings.TrimSpace(strings.ReplaceAll(line, "\x00", ""))
		if name != "" {
			names[name] = true
		}
	}
	return names
}

// parseDistroList parses `wsl.exe --list --verbose` output. The first line is
// a header; each following line is "[*] NAME STATE VERSION".
func parseDistroList(output string, running map[string]bool) []*Environment {
	var envs []*Environment

	lines := strings.Split(output, "\n")
	for i, line := range lines {
		if i == 0 {
			continue // header
		}
		line = strings.TrimSpace(strings.ReplaceAll(line, "\x00", ""))
		if line == "" {
			continue
		}

		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		name := fields[0]
		envs = append(envs, WSL(name, running[name]))
	}

	return envs
}

// decodeWSLOutput handles wsl.exe's UTF-16LE console output, falling back to
// a permissive UTF-8 read for redirected or already-decoded input.
func decodeWSLOutput(b []byte) string {
	if len(b) >= 2 {
		u16 := make([]uint16, 0, len(b)/2)
		for i := 0; i+1 < len(b); i += 2 {
			u16 = append(u16, uint16(b[i])|uint16(b[i+1])<<8)
		}
		decoded := string(utf16.Decode(u16))
		if strings.ContainsFunc(decoded, unicode.IsLetter) {
			return decoded
		}
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

// probeWSLToolPath looks for the tool inside a running distribution by
// checking well-known install locations. A stopped distribution is never
// probed: that would implicitly boot its VM.
func probeWSLToolPath(ctx context.Context, env *Environment, run wslProbeRunner) (string, error) {
	if !env.Running() {
		return "", &ErrEnvironmentUnavailable{Env: env.ID, Reason: "distribution is not running"}
	}

	checks := make([]string, 0, len(wslCommonToolPaths))
	for _, p := range wslCommonToolPaths {
		checks = append(checks, fmt.Sprintf("[ -x %s ] && { echo %s; exit 0; }", p, p))
	}
	script := strings.Join(checks, "; ")

	out, err := run(ctx, env.Distro, script)
	if err != nil {
		log.Debug("wsl tool probe failed", "distro", env.Distro, "err", err)
		return "", &ErrToolNotFound{Env: env.ID}
	}

	path := strings.TrimSpace(strings.SplitN(decodeWSLOutput(out), "\n", 2)[0])
	if path == "" {
		return "", &ErrToolNotFound{Env: env.ID}
	}

	log.Debug("wsl tool located", "distro", env.Distro, "path", path)
	return path, nil
}
