package fnm

import "testing"

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Progress
		ok   bool
	}{
		{
			name: "install announcement",
			line: "Installing Node v18.16.0 (x64)",
			want: Progress{Phase: PhaseDownloading},
			ok:   true,
		},
		{
			name: "download with percent",
			line: "Downloading 42%",
			want: Progress{Phase: PhaseDownloading, HasPercent: true, Percent: 42},
			ok:   true,
		},
		{
			name: "download with spaced byte pair",
			line: "Downloading 23.5 MB / 28 MB",
			want: Progress{Phase: PhaseDownloading, BytesDownloaded: 23_500_000, TotalBytes: 28_000_000},
			ok:   true,
		},
		{
			name: "download with compact byte pair and percent",
			line: "Downloading 83% 23.5MB/28MB",
			want: Progress{Phase: PhaseDownloading, HasPercent: true, Percent: 83, BytesDownloaded: 23_500_000, TotalBytes: 28_000_000},
			ok:   true,
		},
		{
			name: "extracting",
			line: "Extracting archive...",
			want: Progress{Phase: PhaseExtracting},
			ok:   true,
		},
		{
			name: "installing",
			line: "Installing binaries",
			want: Progress{Phase: PhaseInstalling},
			ok:   true,
		},
		{
			name: "completion",
			line: "Version v18.16.0 installed",
			want: Progress{Phase: PhaseComplete, HasPercent: true, Percent: 100},
			ok:   true,
		},
		{
			name: "blank line carries nothing",
			line: "   ",
			ok:   false,
		},
		{
			name: "unrelated chatter carries nothing",
			line: "Using Node v18.16.0",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseProgressLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ParseProgressLine(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseProgressLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"28MB", 28_000_000, true},
		{"1.5GB", 1_500_000_000, true},
		{"900KB", 900_000, true},
		{"512B", 512, true},
		{"7", 7, true},
		{"MB", 0, false},
		{"-1MB", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseByteSize(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseByteSize(%q) = %d, %v, want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
