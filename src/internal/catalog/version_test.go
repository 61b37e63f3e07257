package catalog

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input   string
		want    NodeVersion
		wantErr bool
	}{
		{input: "v18.16.0", want: NodeVersion{18, 16, 0}},
		{input: "20.11.1", want: NodeVersion{20, 11, 1}},
		{input: "  v16.20.2  ", want: NodeVersion{16, 20, 2}},
		{input: "v18.16", wantErr: true},
		{input: "18.16.0.1", wantErr: true},
		{input: "system", wantErr: true},
		{input: "", wantErr: true},
		{input: "v18.x.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVersion(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseVersion(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVersion(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseVersion(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestVersionString(t *testing.T) {
	v := NodeVersion{18, 16, 0}
	if v.String() != "v18.16.0" {
		t.Errorf("String() = %q, want %q", v.String(), "v18.16.0")
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"v18.0.0", "v20.0.0", -1},
		{"v20.0.0", "v18.0.0", 1},
		{"v18.16.0", "v18.16.0", 0},
		{"v18.16.0", "v18.17.0", -1},
		{"v18.16.1", "v18.16.0", 1},
	}

	for _, tt := range tests {
		a := MustParseVersion(tt.a)
		b := MustParseVersion(tt.b)
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMajorLine(t *testing.T) {
	if got := MustParseVersion("v22.1.0").MajorLine(); got != 22 {
		t.Errorf("MajorLine() = %d, want 22", got)
	}
}
