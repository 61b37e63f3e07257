package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeVersion is a parsed Node.js semantic version.
// It is a value type: construct it once from tool output and never mutate it.
type NodeVersion struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses a version string like "v18.16.0" or "18.16.0".
func ParseVersion(s string) (NodeVersion, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "v")
	parts := strings.Split(trimmed, ".")
	if len(parts) != 3 {
		return NodeVersion{}, fmt.Errorf("expected X.Y.Z format, got %q", s)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return NodeVersion{}, fmt.Errorf("invalid version component %q in %q", part, s)
		}
		nums[i] = n
	}

	return NodeVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParseVersion is ParseVersion for trusted literals; it panics on error.
func MustParseVersion(s string) NodeVersion {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical "vX.Y.Z" form.
func (v NodeVersion) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MajorLine returns the major release line the version belongs to.
func (v NodeVersion) MajorLine() int {
	return v.Major
}

// Compare returns -1, 0 or 1 ordering the two versions semantically.
func (v NodeVersion) Compare(other NodeVersion) int {
	if v.Major != other.Major {
		return cmpInt(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return cmpInt(v.Minor, other.Minor)
	}
	return cmpInt(v.Patch, other.Patch)
}

// Less reports whether v orders before other.
func (v NodeVersion) Less(other NodeVersion) bool {
	return v.Compare(other) < 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// InstalledVersion is one installed Node.js version as reported by the tool.
type InstalledVersion struct {
	Version   NodeVersion
	IsDefault bool
	Alias     string // alias label from list output, empty when none
}

// RemoteVersion is one installable Node.js version from list-remote output.
type RemoteVersion struct {
	Version     NodeVersion
	LTSCodename string
}
