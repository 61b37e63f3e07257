// Package fnm speaks the wrapped version-manager's CLI dialect: it composes
// command lines, parses their semi-structured output into typed records, and
// exposes a typed client per environment. The tool's argument syntax and
// output formats are a versioned external dependency; every assumption about
// them lives in this package and nowhere else.
package fnm

import (
	"strings"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
)

// ParseInstalled parses `fnm list` output. Each line carries a version, an
// optional "*" marker, and optional alias labels such as "default" or
// "lts-latest". Lines that don't contain a version are auxiliary output and
// are skipped, each recorded as a warning so drift stays visible.
func ParseInstalled(output string) ([]catalog.InstalledVersion, []string) {
	var versions []catalog.InstalledVersion
	var warnings []string

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// fnm reports the system-provided Node under a pseudo entry.
		if line == "system" || line == "* system" {
			continue
		}

		fields := strings.Fields(line)
		versionToken := ""
		for _, f := range fields {
			if strings.HasPrefix(f, "v") {
				versionToken = f
				break
			}
		}
		if versionToken == "" {
			warnings = append(warnings, line)
			continue
		}

		version, err := catalog.ParseVersion(versionToken)
		if err != nil {
			warnings = append(warnings, line)
			continue
		}

		installed := catalog.InstalledVersion{Version: version}
		for _, f := range fields {
			switch {
			case f == "*" || f == versionToken:
			case strings.Contains(f, "default"):
				installed.IsDefault = true
			case installed.Alias == "":
				installed.Alias = strings.Trim(f, ",")
			}
		}

		versions = append(versions, installed)
	}

	return versions, warnings
}

// ParseRemote parses `fnm list-remote` output: one version per line with an
// optional "(Codename)" LTS suffix. Input ordering is preserved as given;
// callers re-sort for display, so no ordering assumption is load-bearing.
func ParseRemote(output string) ([]catalog.RemoteVersion, []string) {
	var versions []catalog.RemoteVersion
	var warnings []string

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		token, rest, _ := strings.Cut(line, " ")
		version, err := catalog.ParseVersion(token)
		if err != nil {
			warnings = append(warnings, line)
			continue
		}

		remote := catalog.RemoteVersion{Version: version}
		rest = strings.TrimSpace(rest)
		if strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")") {
			remote.LTSCodename = strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")")
		}

		versions = append(versions, remote)
	}

	return versions, warnings
}

// ParseCurrent parses `fnm current` output. The tool prints a single version
// token, or "none"/"system" (or nothing at all) when no default is
// configured, which must not be confused with a failed command. The second
// return value is true when no version is configured.
func ParseCurrent(output string) (catalog.NodeVersion, bool, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" || trimmed == "none" || trimmed == "system" {
		return catalog.NodeVersion{}, true, nil
	}

	version, err := catalog.ParseVersion(trimmed)
	if err != nil {
		return catalog.NodeVersion{}, false, &ParseError{Shape: "current", Line: trimmed}
	}
	return version, false, nil
}
