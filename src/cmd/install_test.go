package cmd

import (
	"testing"

	"github.com/nodedesk/nodedesk/src/internal/environ"
	"github.com/nodedesk/nodedesk/src/internal/fnm"
)

func TestTargetEnv(t *testing.T) {
	tests := []struct {
		name string
		flag string
		want environ.ID
	}{
		{
			name: "empty flag defaults to native",
			flag: "",
			want: environ.NativeID,
		},
		{
			name: "explicit native",
			flag: "native",
			want: environ.NativeID,
		},
		{
			name: "wsl distribution",
			flag: "wsl:Ubuntu",
			want: environ.ID("wsl:Ubuntu"),
		},
	}

	original := envFlag
	defer func() { envFlag = original }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envFlag = tt.flag
			if got := targetEnv(); got != tt.want {
				t.Errorf("targetEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstallRendererNoBarWithoutTotal(t *testing.T) {
	r := newInstallRenderer()

	// Download progress with no known total must not create a bar
	r.observe(fnm.Progress{Phase: fnm.PhaseDownloading})
	r.observe(fnm.Progress{Phase: fnm.PhaseDownloading, HasPercent: true, Percent: 40})

	if r.bar != nil {
		t.Error("renderer created a progress bar without a total size")
	}
	r.finish()
}

func TestInstallRendererTracksPhases(t *testing.T) {
	r := newInstallRenderer()

	phases := []fnm.Phase{
		fnm.PhaseStarting,
		fnm.PhaseExtracting,
		fnm.PhaseExtracting,
		fnm.PhaseInstalling,
		fnm.PhaseComplete,
	}
	for _, phase := range phases {
		r.observe(fnm.Progress{Phase: phase})
	}

	if r.lastPhase != fnm.PhaseComplete {
		t.Errorf("lastPhase = %q, want %q", r.lastPhase, fnm.PhaseComplete)
	}
	r.finish()
}
