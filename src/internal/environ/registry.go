package environ

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// ToolName is the executable the whole application wraps.
const ToolName = "fnm"

// wslRunner invokes wsl.exe with the given arguments and returns raw stdout.
type wslRunner func(ctx context.Context, args ...string) ([]byte, error)

// wslProbeRunner runs a shell script inside a distribution and returns raw
// stdout.
type wslProbeRunner func(ctx context.Context, distro, script string) ([]byte, error)

// Registry discovers environments and resolves the tool executable for each
// of them. Resolution results are cached for the session until Recheck.
type Registry struct {
	mu   sync.Mutex
	envs map[ID]*Environment
	ids  []ID // discovery order, native first

	toolOverride string // explicit executable path from settings, native only

	// Hooks overridable in tests.
	wslRun      wslRunner
	wslProbe    wslProbeRunner
	lookPath    func(string) (string, error)
	fileExists  func(string) bool
	toolVersion func(ctx context.Context, path string) string
}

// NewRegistry creates a Registry. toolOverride, when non-empty, wins over
// any other resolution strategy for the native environment.
func NewRegistry(toolOverride string) *Registry {
	return &Registry{
		envs:         make(map[ID]*Environment),
		toolOverride: toolOverride,
		wslRun:       runWSL,
		wslProbe:     runWSLProbe,
		lookPath:     exec.LookPath,
		fileExists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
		toolVersion: queryToolVersion,
	}
}

// Discover enumerates the available environments. The native environment is
// always present; WSL discovery runs only on Windows and fails softly.
// Re-scans update availability on known environments but never remove them.
func (r *Registry) Discover(ctx context.Context) []*Environment {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.envs[NativeID]; !ok {
		r.add(Native())
	}

	if goruntime.GOOS == "windows" {
		seen := map[ID]bool{NativeID: true}
		for _, env := range detectWSLDistros(ctx, r.wslRun) {
			seen[env.ID] = true
			if existing, ok := r.envs[env.ID]; ok {
				existing.Availability = env.Availability
			} else {
				r.add(env)
			}
		}
		for id, env := range r.envs {
			if !seen[id] {
				env.Availability = AvailabilityUnknown
			}
		}
	}

	return r.snapshot()
}

// Environments returns the currently known environments in discovery order.
func (r *Registry) Environments() []*Environment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Get returns the environment with the given ID.
func (r *Registry) Get(id ID) (*Environment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, ok := r.envs[id]
	if !ok {
		return nil, false
	}
	clone := *env
	return &clone, true
}

// ResolveTool returns the path of the version-manager executable for the
// environment. Resolution order: explicit settings override, executable
// search path, well-known install locations. The result is cached until
// Recheck.
func (r *Registry) ResolveTool(ctx context.Context, id ID) (string, error) {
	r.mu.Lock()
	env, ok := r.envs[id]
	if !ok {
		r.mu.Unlock()
		return "", &ErrEnvironmentUnavailable{Env: id, Reason: "unknown environment"}
	}
	if env.ToolPath != "" {
		path := env.ToolPath
		r.mu.Unlock()
		return path, nil
	}
	probe := *env
	r.mu.Unlock()

	var path string
	var err error
	switch probe.Kind {
	case KindWSL:
		path, err = probeWSLToolPath(ctx, &probe, r.wslProbe)
	default:
		path, err = r.resolveNative(ctx)
	}
	if err != nil {
		return "", err
	}

	version := ""
	if probe.Kind == KindNative {
		version = r.toolVersion(ctx, path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if env, ok := r.envs[id]; ok {
		env.ToolPath = path
		if version != "" {
			env.ToolVersion = version
		}
	}
	return path, nil
}

// Recheck drops the cached executable path for an environment so the next
// ResolveTool performs a fresh search.
func (r *Registry) Recheck(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if env, ok := r.envs[id]; ok {
		env.ToolPath = ""
		env.ToolVersion = ""
	}
}

func (r *Registry) resolveNative(_ context.Context) (string, error) {
	if r.toolOverride != "" {
		if r.fileExists(r.toolOverride) {
			return r.toolOverride, nil
		}
		log.Warn("configured tool path does not exist", "path", r.toolOverride)
	}

	if path, err := r.lookPath(ToolName); err == nil {
		return path, nil
	}

	for _, candidate := range commonNativeToolPaths() {
		if r.fileExists(candidate) {
			return candidate, nil
		}
	}

	return "", &ErrToolNotFound{Env: NativeID}
}

func (r *Registry) add(env *Environment) {
	r.envs[env.ID] = env
	r.ids = append(r.ids, env.ID)
}

func (r *Registry) snapshot() []*Environment {
	out := make([]*Environment, 0, len(r.ids))
	for _, id := range r.ids {
		clone := *r.envs[id]
		out = append(out, &clone)
	}
	return out
}

// commonNativeToolPaths lists well-known install locations checked after the
// search path.
func commonNativeToolPaths() []string {
	var paths []string

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".fnm", ToolName),
			filepath.Join(home, ".local", "bin", ToolName),
		)
	}

	switch goruntime.GOOS {
	case "darwin":
		paths = append(paths, "/opt/homebrew/bin/"+ToolName, "/usr/local/bin/"+ToolName)
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			paths = append(paths, filepath.Join(localAppData, ToolName, ToolName+".exe"))
		}
	case "linux":
		paths = append(paths, "/usr/local/bin/"+ToolName, "/usr/bin/"+ToolName)
	}

	return paths
}

// queryToolVersion asks the resolved executable for its version. Best effort;
// failures leave the version unknown.
func queryToolVersion(ctx context.Context, path string) string {
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		log.Debug("tool version query failed", "path", path, "err", err)
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(out)), ToolName+" "))
}
