package pathpolicy

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	configFileName    = ".urlsave.json"
	configFileAltName = "urlsave.config.json"
	baseDirConfigKey  = "baseDirectory"
)

// BaseDir resolves the directory that relative destinations join against and
// that containment is checked against. Strategies run in fixed order and the
// first one yielding an existing directory wins; the chain ends in rungs that
// cannot fail, so BaseDir never returns an empty or missing path.
func (p *Policy) BaseDir() string {
	strategies := []func() string{
		p.fromOverride,
		p.fromConfigFile,
		p.fromWorkspaceEnv,
		p.fromWorkingDir,
		p.fromHome,
	}

	for _, strategy := range strategies {
		if dir := strategy(); dir != "" {
			return dir
		}
	}

	return os.TempDir()
}

func (p *Policy) fromOverride() string {
	dir := p.env.Getenv(EnvBaseDir)
	if dir == "" {
		return ""
	}

	dir = p.expand(dir)
	if !isDir(dir) {
		p.log.Warn("base dir override is not an existing directory, ignoring", "dir", dir)
		return ""
	}

	return dir
}

// fromConfigFile probes the well-known config locations for a JSON file
// naming a base directory. Unparsable files and files naming a missing
// directory are skipped, not fatal.
func (p *Policy) fromConfigFile() string {
	for _, path := range p.configCandidates() {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			continue
		}

		dir := strings.TrimSpace(v.GetString(baseDirConfigKey))
		if dir == "" {
			continue
		}

		dir = p.expand(dir)
		if !isDir(dir) {
			p.log.Warn("config file names a missing base dir, ignoring", "config", path, "dir", dir)
			continue
		}

		return dir
	}

	return ""
}

func (p *Policy) configCandidates() []string {
	var candidates []string

	if cwd, err := p.env.Getwd(); err == nil {
		candidates = append(candidates,
			filepath.Join(cwd, configFileName),
			filepath.Join(cwd, configFileAltName),
		)
	}

	if home, err := p.env.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, configFileName))
	}

	return candidates
}

func (p *Policy) fromWorkspaceEnv() string {
	for _, key := range workspaceEnvVars {
		for _, dir := range splitPathList(p.env.Getenv(key)) {
			dir = p.expand(dir)
			if isDir(dir) {
				return dir
			}
		}
	}

	return ""
}

func (p *Policy) fromWorkingDir() string {
	cwd, err := p.env.Getwd()
	if err != nil || !isDir(cwd) {
		return ""
	}

	return cwd
}

func (p *Policy) fromHome() string {
	home, err := p.env.UserHomeDir()
	if err != nil || !isDir(home) {
		return ""
	}

	return home
}

// expand rewrites a leading ~ to the user's home directory.
func (p *Policy) expand(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := p.env.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return home
	}

	return filepath.Join(home, path[2:])
}

// splitPathList splits a possibly list-valued env value on the platform
// list separator and on commas, dropping empty entries.
func splitPathList(v string) []string {
	if v == "" {
		return nil
	}

	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == os.PathListSeparator || r == ','
	})

	entries := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			entries = append(entries, f)
		}
	}

	return entries
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}
