// Package pathpolicy decides where the server may write files.
//
// A base directory is resolved per request from the ambient environment
// (explicit override, discovered config file, workspace signals, working
// directory, home directory) and every caller-supplied destination path is
// checked for containment within it. Overrides can disable the check.
package pathpolicy

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// EnvBaseDir names an explicit base-directory override.
	EnvBaseDir = "URLSAVE_BASE_DIR"

	// EnvAllowAnyPath disables the containment check entirely when set
	// to a value strconv.ParseBool accepts as true.
	EnvAllowAnyPath = "URLSAVE_ALLOW_ANY_PATH"
)

// workspaceEnvVars are consulted in priority order when neither an explicit
// override nor a config file names a base directory. WORKSPACE_FOLDER_PATHS
// may carry a separator-joined list; its first existing entry wins.
var workspaceEnvVars = []string{"WORKSPACE_FOLDER_PATHS", "WORKSPACE_DIR", "PROJECT_ROOT"}

// sandboxRoots are mount points used by isolated per-session machines.
// A base directory under one of these means the whole filesystem is scratch
// space, so containment is not enforced.
var sandboxRoots = []string{"/mnt/data", "/workspace", "/sandbox"}

// Env supplies the ambient process state the policy reads.
// Tests substitute a fixed environment.
type Env interface {
	Getenv(key string) string
	Getwd() (string, error)
	UserHomeDir() (string, error)
}

// OSEnv is the process-backed Env used outside of tests.
type OSEnv struct{}

func (OSEnv) Getenv(key string) string     { return os.Getenv(key) }
func (OSEnv) Getwd() (string, error)       { return os.Getwd() }
func (OSEnv) UserHomeDir() (string, error) { return os.UserHomeDir() }

// Policy answers "may this path be written, and where exactly is it".
type Policy struct {
	env Env
	log *slog.Logger
}

// New creates a Policy reading from env. A nil env falls back to the real
// process environment, a nil logger to slog.Default().
func New(env Env, log *slog.Logger) *Policy {
	if env == nil {
		env = OSEnv{}
	}
	if log == nil {
		log = slog.Default()
	}

	return &Policy{env: env, log: log}
}

// Destination reports where a raw client path lands and whether writing
// there is allowed. Computed fresh per request, never cached.
type Destination struct {
	BaseDir   string
	AbsPath   string
	Permitted bool
}

// Resolve computes the base directory for this request and checks rawPath
// against it. AbsPath is populated even when the write is not permitted, so
// callers can name the offending path in error messages.
func (p *Policy) Resolve(rawPath string) Destination {
	base := p.BaseDir()

	return Destination{
		BaseDir:   base,
		AbsPath:   p.absolutize(rawPath, base),
		Permitted: p.Permitted(rawPath, base),
	}
}

// Permitted reports whether rawPath may be written given baseDir.
//
// The containment check is lexical: the cleaned absolute destination must
// equal baseDir or sit under it, aligned on a path separator, so /work2 is
// not inside /work. Only the explicit affirmative conditions return true;
// anything unresolvable counts as not permitted.
//
// TODO: run filepath.EvalSymlinks before the prefix check; needs a decision
// on dangling links first. Until then a symlink inside the base directory
// can point a write outside it.
func (p *Policy) Permitted(rawPath, baseDir string) bool {
	if p.allowAnyPath() {
		return true
	}

	if inSandboxRoot(baseDir) {
		return true
	}

	abs := p.absolutize(rawPath, baseDir)
	base := filepath.Clean(baseDir)
	if abs == base {
		return true
	}

	return strings.HasPrefix(abs, base+string(filepath.Separator))
}

// absolutize normalizes rawPath to a cleaned absolute path, resolving
// relative paths against baseDir. Backslash separators are accepted from
// clients regardless of platform.
func (p *Policy) absolutize(rawPath, baseDir string) string {
	cleaned := filepath.FromSlash(strings.ReplaceAll(rawPath, `\`, "/"))
	if filepath.IsAbs(cleaned) {
		return filepath.Clean(cleaned)
	}

	return filepath.Join(baseDir, cleaned)
}

func (p *Policy) allowAnyPath() bool {
	v := p.env.Getenv(EnvAllowAnyPath)
	if v == "" {
		return false
	}

	allow, err := strconv.ParseBool(v)

	return err == nil && allow
}

func inSandboxRoot(baseDir string) bool {
	base := filepath.Clean(baseDir)
	for _, root := range sandboxRoots {
		if base == root || strings.HasPrefix(base, root+string(filepath.Separator)) {
			return true
		}
	}

	return false
}
