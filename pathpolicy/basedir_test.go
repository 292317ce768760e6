package pathpolicy_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"urlsave/pathpolicy"
)

func writeConfig(t *testing.T, dir, name, baseDir string) {
	t.Helper()

	payload := fmt.Sprintf("{\n  \"baseDirectory\": %q\n}\n", baseDir)
	if err := os.WriteFile(filepath.Join(dir, name), []byte(payload), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
}

func TestBaseDir_ResolutionOrder(t *testing.T) {
	override := t.TempDir()
	fromConfig := t.TempDir()
	workspace := t.TempDir()
	cwd := t.TempDir()
	home := t.TempDir()

	cwdWithConfig := t.TempDir()
	writeConfig(t, cwdWithConfig, ".urlsave.json", fromConfig)

	tests := map[string]struct {
		env  fakeEnv
		want string
	}{
		"override wins over everything": {
			env: fakeEnv{
				vars: map[string]string{
					pathpolicy.EnvBaseDir:    override,
					"WORKSPACE_FOLDER_PATHS": workspace,
				},
				cwd:  cwdWithConfig,
				home: home,
			},
			want: override,
		},
		"missing override skipped": {
			env: fakeEnv{
				vars: map[string]string{pathpolicy.EnvBaseDir: filepath.Join(override, "gone")},
				cwd:  cwd,
				home: home,
			},
			want: cwd,
		},
		"config file beats workspace env": {
			env: fakeEnv{
				vars: map[string]string{"WORKSPACE_FOLDER_PATHS": workspace},
				cwd:  cwdWithConfig,
				home: home,
			},
			want: fromConfig,
		},
		"workspace env beats cwd": {
			env:  fakeEnv{vars: map[string]string{"WORKSPACE_FOLDER_PATHS": workspace}, cwd: cwd, home: home},
			want: workspace,
		},
		"workspace vars probed in order": {
			env: fakeEnv{
				vars: map[string]string{"WORKSPACE_DIR": workspace, "PROJECT_ROOT": override},
				cwd:  cwd,
				home: home,
			},
			want: workspace,
		},
		"missing workspace dir skipped": {
			env: fakeEnv{
				vars: map[string]string{"WORKSPACE_DIR": filepath.Join(workspace, "gone")},
				cwd:  cwd,
				home: home,
			},
			want: cwd,
		},
		"cwd when nothing else set": {
			env:  fakeEnv{cwd: cwd, home: home},
			want: cwd,
		},
		"home when cwd unavailable": {
			env:  fakeEnv{home: home},
			want: home,
		},
		"temp dir as last resort": {
			env:  fakeEnv{},
			want: os.TempDir(),
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			p := pathpolicy.New(tc.env, quietLogger())
			if got := p.BaseDir(); got != tc.want {
				t.Errorf("BaseDir() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBaseDir_ConfigFileVariants(t *testing.T) {
	home := t.TempDir()

	t.Run("alternate name in cwd", func(t *testing.T) {
		target := t.TempDir()
		cwd := t.TempDir()
		writeConfig(t, cwd, "urlsave.config.json", target)

		p := pathpolicy.New(fakeEnv{cwd: cwd, home: home}, quietLogger())
		if got := p.BaseDir(); got != target {
			t.Errorf("BaseDir() = %q, want %q", got, target)
		}
	})

	t.Run("primary name beats alternate", func(t *testing.T) {
		primary := t.TempDir()
		alternate := t.TempDir()
		cwd := t.TempDir()
		writeConfig(t, cwd, ".urlsave.json", primary)
		writeConfig(t, cwd, "urlsave.config.json", alternate)

		p := pathpolicy.New(fakeEnv{cwd: cwd, home: home}, quietLogger())
		if got := p.BaseDir(); got != primary {
			t.Errorf("BaseDir() = %q, want %q", got, primary)
		}
	})

	t.Run("home config when cwd has none", func(t *testing.T) {
		target := t.TempDir()
		cwd := t.TempDir()
		homeWithConfig := t.TempDir()
		writeConfig(t, homeWithConfig, ".urlsave.json", target)

		p := pathpolicy.New(fakeEnv{cwd: cwd, home: homeWithConfig}, quietLogger())
		if got := p.BaseDir(); got != target {
			t.Errorf("BaseDir() = %q, want %q", got, target)
		}
	})

	t.Run("malformed config skipped", func(t *testing.T) {
		cwd := t.TempDir()
		if err := os.WriteFile(filepath.Join(cwd, ".urlsave.json"), []byte("{not json"), 0o644); err != nil {
			t.Fatalf("writing config file: %v", err)
		}

		p := pathpolicy.New(fakeEnv{cwd: cwd, home: home}, quietLogger())
		if got := p.BaseDir(); got != cwd {
			t.Errorf("BaseDir() = %q, want cwd %q", got, cwd)
		}
	})

	t.Run("config naming a missing dir skipped", func(t *testing.T) {
		cwd := t.TempDir()
		writeConfig(t, cwd, ".urlsave.json", filepath.Join(cwd, "gone"))

		p := pathpolicy.New(fakeEnv{cwd: cwd, home: home}, quietLogger())
		if got := p.BaseDir(); got != cwd {
			t.Errorf("BaseDir() = %q, want cwd %q", got, cwd)
		}
	})

	t.Run("tilde expanded against home", func(t *testing.T) {
		cwd := t.TempDir()
		tildeHome := t.TempDir()
		target := filepath.Join(tildeHome, "saved")
		if err := os.Mkdir(target, 0o755); err != nil {
			t.Fatalf("creating target dir: %v", err)
		}
		writeConfig(t, cwd, ".urlsave.json", "~/saved")

		p := pathpolicy.New(fakeEnv{cwd: cwd, home: tildeHome}, quietLogger())
		if got := p.BaseDir(); got != target {
			t.Errorf("BaseDir() = %q, want %q", got, target)
		}
	})
}

func TestBaseDir_WorkspaceLists(t *testing.T) {
	home := t.TempDir()
	first := t.TempDir()
	second := t.TempDir()

	tests := map[string]struct {
		value string
		want  string
	}{
		"first existing entry wins": {
			value: first + string(os.PathListSeparator) + second,
			want:  first,
		},
		"missing entry falls through": {
			value: filepath.Join(first, "gone") + string(os.PathListSeparator) + second,
			want:  second,
		},
		"comma separated list": {
			value: filepath.Join(first, "gone") + "," + second,
			want:  second,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			env := fakeEnv{vars: map[string]string{"WORKSPACE_FOLDER_PATHS": tc.value}, home: home}
			p := pathpolicy.New(env, quietLogger())
			if got := p.BaseDir(); got != tc.want {
				t.Errorf("BaseDir() = %q, want %q", got, tc.want)
			}
		})
	}
}

// BaseDir must hand back an existing directory no matter how hostile the
// environment, so the tool never fails on resolution alone.
func TestBaseDir_AlwaysExistingDirectory(t *testing.T) {
	home := t.TempDir()

	envs := []fakeEnv{
		{},
		{home: home},
		{vars: map[string]string{pathpolicy.EnvBaseDir: "/does/not/exist"}},
		{vars: map[string]string{"WORKSPACE_DIR": "/does/not/exist"}, home: home},
		{vars: map[string]string{"WORKSPACE_FOLDER_PATHS": "/nope,/also/nope"}},
	}

	for i, env := range envs {
		p := pathpolicy.New(env, quietLogger())

		dir := p.BaseDir()
		if dir == "" {
			t.Fatalf("env %d: BaseDir() returned empty string", i)
		}

		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("env %d: BaseDir() = %q does not exist: %v", i, dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("env %d: BaseDir() = %q is not a directory", i, dir)
		}
	}
}
