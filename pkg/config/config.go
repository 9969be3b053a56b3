// Package config loads the workspace configuration file (forj.toml).
package config

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/forjbuild/forj/pkg/errors"
)

// ConfigFileName is the name of the workspace configuration file.
const ConfigFileName = "forj.toml"

// Workspace configures the filesystem layout roots, relative to the
// workspace directory unless absolute.
type Workspace struct {
	BuildDir   string `toml:"build-dir"`
	SourceDir  string `toml:"source-dir"`
	SandboxDir string `toml:"sandbox-dir"`
}

// Diff configures diff behavior.
type Diff struct {
	// NormalizeCRLF makes text diffs tolerate a single trailing carriage
	// return per line. Policy knob rather than platform detection: the
	// embedding build decides when unnormalized line endings are expected.
	NormalizeCRLF bool `toml:"normalize-crlf"`
}

// Config is the root of forj.toml.
type Config struct {
	Workspace Workspace `toml:"workspace"`
	Diff      Diff      `toml:"diff"`
}

// Default returns the configuration used when no forj.toml is present.
func Default() *Config {
	return &Config{
		Workspace: Workspace{
			BuildDir:  "_build",
			SourceDir: ".",
		},
	}
}

// Load reads forj.toml from the workspace directory. A missing file is not
// an error; defaults are returned.
func Load(workspaceDir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(workspaceDir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read %s", path)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", path)
	}
	if cfg.Workspace.BuildDir == "" {
		cfg.Workspace.BuildDir = "_build"
	}
	if cfg.Workspace.SourceDir == "" {
		cfg.Workspace.SourceDir = "."
	}
	return cfg, nil
}

// BuildRoot resolves the build directory against the workspace directory.
func (c *Config) BuildRoot(workspaceDir string) string {
	return resolve(workspaceDir, c.Workspace.BuildDir)
}

// SourceRoot resolves the source directory against the workspace directory.
func (c *Config) SourceRoot(workspaceDir string) string {
	return resolve(workspaceDir, c.Workspace.SourceDir)
}

// SandboxRoot resolves the sandbox directory against the workspace
// directory; empty when sandboxing is not configured.
func (c *Config) SandboxRoot(workspaceDir string) string {
	if c.Workspace.SandboxDir == "" {
		return ""
	}
	return resolve(workspaceDir, c.Workspace.SandboxDir)
}

// PromotionsPath is where the file-backed promotion store lives.
func (c *Config) PromotionsPath(workspaceDir string) string {
	return filepath.Join(c.BuildRoot(workspaceDir), ".forj", "promotions.yaml")
}

func resolve(base, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(base, dir)
}
