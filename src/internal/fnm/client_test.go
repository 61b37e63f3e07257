package fnm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/nodedesk/nodedesk/src/internal/catalog"
	"github.com/nodedesk/nodedesk/src/internal/environ"
)

func newTestClient(runner *ScriptRunner) *Client {
	return NewClient(runner, environ.Native())
}

func TestClientListInstalled(t *testing.T) {
	runner := NewScriptRunner()
	runner.Set("list", ScriptResponse{Stdout: "* v16.20.2\n* v18.16.0 default\n"})

	versions, warnings, err := newTestClient(runner).ListInstalled(context.Background())
	if err != nil {
		t.Fatalf("ListInstalled: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if len(versions) != 2 {
		t.Fatalf("got %d versions, want 2", len(versions))
	}
	if !versions[1].IsDefault || versions[1].Version != catalog.MustParseVersion("18.16.0") {
		t.Errorf("versions[1] = %+v, want default v18.16.0", versions[1])
	}
}

func TestClientCurrentNoneConfigured(t *testing.T) {
	runner := NewScriptRunner()
	runner.Set("current", ScriptResponse{Stdout: "none\n"})

	_, none, err := newTestClient(runner).Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if !none {
		t.Error("Current reported a configured version, want none")
	}
}

func TestClientRunFailureIsProcessError(t *testing.T) {
	runner := NewScriptRunner()
	runner.Set("uninstall v18.16.0", ScriptResponse{
		ExitCode: 1,
		Stderr:   "error: Can't uninstall the default version\nhint: pick another default first\n",
	})

	err := newTestClient(runner).Uninstall(context.Background(), catalog.MustParseVersion("18.16.0"))
	var procErr *ProcessError
	if !errors.As(err, &procErr) {
		t.Fatalf("Uninstall error = %v, want ProcessError", err)
	}
	if procErr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", procErr.ExitCode)
	}
	if got := procErr.Cause(); got != "error: Can't uninstall the default version" {
		t.Errorf("Cause() = %q", got)
	}
}

func TestClientInstallStreamsProgress(t *testing.T) {
	runner := NewScriptRunner()
	runner.Set("install v18.16.0", ScriptResponse{
		Lines: []string{
			"Installing Node v18.16.0 (x64)",
			"Downloading 50% 14 MB / 28 MB",
			"Extracting archive",
			"Version v18.16.0 installed",
		},
	})

	var phases []Phase
	err := newTestClient(runner).Install(context.Background(), catalog.MustParseVersion("18.16.0"), func(p Progress) {
		phases = append(phases, p.Phase)
	})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	want := []Phase{PhaseDownloading, PhaseDownloading, PhaseExtracting, PhaseComplete, PhaseComplete}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phases = %v, want %v", phases, want)
		}
	}
}

func TestClientInstallFailure(t *testing.T) {
	runner := NewScriptRunner()
	runner.Set("install v0.0.1", ScriptResponse{
		Lines:    []string{"Installing Node v0.0.1 (x64)"},
		ExitCode: 1,
		Stderr:   "error: Can't find version in dist index",
	})

	err := newTestClient(runner).Install(context.Background(), catalog.MustParseVersion("0.0.1"), nil)
	if !IsProcessError(err) {
		t.Fatalf("Install error = %v, want ProcessError", err)
	}
}

// The catalog only ever sees the tool through list output, so an install
// must become visible on the next refresh and an uninstall must disappear.
func TestInstallUninstallRoundTripThroughCatalog(t *testing.T) {
	runner := NewScriptRunner()
	var mu sync.Mutex
	installed := map[string]bool{"v16.20.2": true}
	runner.Handler = func(_ *environ.Environment, args []string) (ScriptResponse, bool) {
		mu.Lock()
		defer mu.Unlock()
		switch args[0] {
		case "install":
			installed[args[1]] = true
			return ScriptResponse{Lines: []string{
				fmt.Sprintf("Installing Node %s (x64)", args[1]),
				"installed",
			}}, true
		case "uninstall":
			if !installed[args[1]] {
				return ScriptResponse{ExitCode: 1, Stderr: "error: version not installed"}, true
			}
			delete(installed, args[1])
			return ScriptResponse{}, true
		case "list":
			var sb strings.Builder
			for _, ver := range []string{"v16.20.2", "v18.16.0"} {
				if installed[ver] {
					fmt.Fprintf(&sb, "* %s\n", ver)
				}
			}
			return ScriptResponse{Stdout: sb.String()}, true
		}
		return ScriptResponse{}, false
	}

	client := newTestClient(runner)
	ctx := context.Background()
	cat := catalog.New()
	env := client.Env().ID
	v18 := catalog.MustParseVersion("18.16.0")

	if err := cat.Refresh(ctx, env, client); err != nil {
		t.Fatalf("initial Refresh: %v", err)
	}
	if set, _ := cat.Installed(env); set.Has(v18) {
		t.Fatal("v18.16.0 present before install")
	}

	if err := client.Install(ctx, v18, nil); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := cat.Refresh(ctx, env, client); err != nil {
		t.Fatalf("Refresh after install: %v", err)
	}
	set, ok := cat.Installed(env)
	if !ok || !set.Has(v18) {
		t.Fatalf("v18.16.0 missing after install, set = %+v", set.Versions)
	}

	if err := client.Uninstall(ctx, v18); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if err := cat.Refresh(ctx, env, client); err != nil {
		t.Fatalf("Refresh after uninstall: %v", err)
	}
	set, _ = cat.Installed(env)
	if set.Has(v18) {
		t.Fatalf("v18.16.0 still present after uninstall, set = %+v", set.Versions)
	}
	if !set.Has(catalog.MustParseVersion("16.20.2")) {
		t.Error("unrelated version v16.20.2 lost across the round trip")
	}
}
