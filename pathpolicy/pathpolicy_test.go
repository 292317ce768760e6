package pathpolicy_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"urlsave/pathpolicy"
)

// fakeEnv is a fixed stand-in for the process environment. Empty cwd/home
// simulate an unavailable working directory or home directory.
type fakeEnv struct {
	vars map[string]string
	cwd  string
	home string
}

func (f fakeEnv) Getenv(key string) string { return f.vars[key] }

func (f fakeEnv) Getwd() (string, error) {
	if f.cwd == "" {
		return "", errors.New("working directory unavailable")
	}

	return f.cwd, nil
}

func (f fakeEnv) UserHomeDir() (string, error) {
	if f.home == "" {
		return "", errors.New("home directory unavailable")
	}

	return f.home, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPermitted(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()

	none := fakeEnv{}
	allowAll := fakeEnv{vars: map[string]string{pathpolicy.EnvAllowAnyPath: "true"}}

	tests := map[string]struct {
		env  fakeEnv
		raw  string
		base string
		want bool
	}{
		"relative inside":           {env: none, raw: "out/example.html", base: base, want: true},
		"nested relative inside":    {env: none, raw: "a/b/c/d.bin", base: base, want: true},
		"dot-dot escape":            {env: none, raw: "../../etc/passwd", base: base, want: false},
		"absolute outside":          {env: none, raw: filepath.Join(outside, "f.txt"), base: base, want: false},
		"absolute inside":           {env: none, raw: filepath.Join(base, "f.txt"), base: base, want: true},
		"base directory itself":     {env: none, raw: ".", base: base, want: true},
		"sibling sharing a prefix":  {env: none, raw: base + "2/f.txt", base: base, want: false},
		"backslash separators":      {env: none, raw: `out\example.html`, base: base, want: true},
		"backslash escape":          {env: none, raw: `..\..\etc\passwd`, base: base, want: false},
		"climbs then returns":       {env: none, raw: "sub/../ok.txt", base: base, want: true},
		"override admits escape":    {env: allowAll, raw: "../../etc/passwd", base: base, want: true},
		"override admits any root":  {env: allowAll, raw: filepath.Join(outside, "f.txt"), base: base, want: true},
		"override garbage value":    {env: fakeEnv{vars: map[string]string{pathpolicy.EnvAllowAnyPath: "banana"}}, raw: "../x", base: base, want: false},
		"override explicitly false": {env: fakeEnv{vars: map[string]string{pathpolicy.EnvAllowAnyPath: "false"}}, raw: "../x", base: base, want: false},
		"sandbox base dir":          {env: none, raw: "/etc/passwd", base: "/mnt/data/session", want: true},
		"sandbox root itself":       {env: none, raw: "/etc/passwd", base: "/workspace", want: true},
		"sandbox prefix sibling":    {env: none, raw: "/etc/passwd", base: "/workspacex", want: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			p := pathpolicy.New(tc.env, quietLogger())
			if got := p.Permitted(tc.raw, tc.base); got != tc.want {
				t.Errorf("Permitted(%q, %q) = %v, want %v", tc.raw, tc.base, got, tc.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	base := t.TempDir()
	p := pathpolicy.New(fakeEnv{vars: map[string]string{pathpolicy.EnvBaseDir: base}}, quietLogger())

	got := p.Resolve("out/example.html")
	want := pathpolicy.Destination{
		BaseDir:   base,
		AbsPath:   filepath.Join(base, "out", "example.html"),
		Permitted: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_Escape(t *testing.T) {
	base := t.TempDir()
	p := pathpolicy.New(fakeEnv{vars: map[string]string{pathpolicy.EnvBaseDir: base}}, quietLogger())

	got := p.Resolve("../../etc/passwd")

	if got.Permitted {
		t.Error("escaping path reported as permitted")
	}
	if got.BaseDir != base {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, base)
	}
	if !filepath.IsAbs(got.AbsPath) {
		t.Errorf("AbsPath = %q, want an absolute path", got.AbsPath)
	}
}

// Containment is lexical and does not resolve links, so a symlink under the
// base directory can point a write outside it. This test pins that behavior;
// a future hardening must show up here as an explicit change.
func TestPermitted_SymlinkEscape_Lexical(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()

	if err := os.Symlink(outside, filepath.Join(base, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	p := pathpolicy.New(fakeEnv{}, quietLogger())

	if !p.Permitted("link/secret.txt", base) {
		t.Fatal("lexical containment no longer admits the symlinked path; behavior changed")
	}
}
