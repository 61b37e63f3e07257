package fnm

import (
	"testing"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
)

func TestParseInstalled(t *testing.T) {
	output := "* v14.21.3\n" +
		"* v18.16.0 default\n" +
		"* v20.11.1 lts-latest\n" +
		"* system\n" +
		"\n" +
		"some stray noise\n"

	versions, warnings := ParseInstalled(output)

	want := []catalog.InstalledVersion{
		{Version: catalog.MustParseVersion("14.21.3")},
		{Version: catalog.MustParseVersion("18.16.0"), IsDefault: true},
		{Version: catalog.MustParseVersion("20.11.1"), Alias: "lts-latest"},
	}
	if len(versions) != len(want) {
		t.Fatalf("ParseInstalled returned %d versions, want %d", len(versions), len(want))
	}
	for i, got := range versions {
		if got != want[i] {
			t.Errorf("versions[%d] = %+v, want %+v", i, got, want[i])
		}
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
}

func TestParseInstalledEmpty(t *testing.T) {
	versions, warnings := ParseInstalled("")
	if len(versions) != 0 || len(warnings) != 0 {
		t.Errorf("ParseInstalled(%q) = %v, %v, want empty", "", versions, warnings)
	}
}

func TestParseRemote(t *testing.T) {
	output := "v18.20.4 (Hydrogen)\n" +
		"v20.11.1 (Iron)\n" +
		"v21.7.3\n" +
		"garbage line here\n"

	versions, warnings := ParseRemote(output)

	want := []catalog.RemoteVersion{
		{Version: catalog.MustParseVersion("18.20.4"), LTSCodename: "Hydrogen"},
		{Version: catalog.MustParseVersion("20.11.1"), LTSCodename: "Iron"},
		{Version: catalog.MustParseVersion("21.7.3")},
	}
	if len(versions) != len(want) {
		t.Fatalf("ParseRemote returned %d versions, want %d", len(versions), len(want))
	}
	for i, got := range versions {
		if got != want[i] {
			t.Errorf("versions[%d] = %+v, want %+v", i, got, want[i])
		}
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
}

func TestParseCurrent(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    catalog.NodeVersion
		none    bool
		wantErr bool
	}{
		{name: "version", output: "v18.16.0\n", want: catalog.MustParseVersion("18.16.0")},
		{name: "empty output means none", output: "", none: true},
		{name: "whitespace only means none", output: "  \n", none: true},
		{name: "none sentinel", output: "none\n", none: true},
		{name: "system is treated as none", output: "system\n", none: true},
		{name: "junk token", output: "wat\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, none, err := ParseCurrent(tt.output)
			if tt.wantErr {
				if !IsParseError(err) {
					t.Fatalf("ParseCurrent(%q) error = %v, want ParseError", tt.output, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCurrent(%q) error = %v", tt.output, err)
			}
			if none != tt.none {
				t.Errorf("ParseCurrent(%q) none = %v, want %v", tt.output, none, tt.none)
			}
			if !tt.none && got != tt.want {
				t.Errorf("ParseCurrent(%q) = %v, want %v", tt.output, got, tt.want)
			}
		})
	}
}
