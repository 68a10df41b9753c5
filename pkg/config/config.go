// Package config loads modpak's build configuration.
//
// Configuration is layered: embedded defaults, then an optional
// modpak.toml or modpak.yaml at the project root, then MODPAK_*
// environment variables. The result is an explicit Config struct
// threaded through the build components; there is no ambient
// configuration state.
package config

import (
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	modpakerrors "github.com/arthur-debert/modpak/pkg/errors"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// envPrefix is the prefix for configuration environment variables
const envPrefix = "MODPAK_"

// Config is the full build configuration
type Config struct {
	Project ProjectConfig `koanf:"project"`
	Pak     PakConfig     `koanf:"pak"`
	Tools   ToolsConfig   `koanf:"tools"`
}

// ProjectConfig describes the layout of the mod project
type ProjectConfig struct {
	// SourceDir is the mod source tree, relative to the project root
	SourceDir string `koanf:"source_dir"`

	// Manifest is the manifest file path, relative to SourceDir
	Manifest string `koanf:"manifest"`

	// PackDir is the asset subtree packed into paks, relative to
	// SourceDir
	PackDir string `koanf:"pack_dir"`

	// StagingDir is the scratch build tree, relative to the project root
	StagingDir string `koanf:"staging_dir"`

	// StripDirs are development-only subdirectories removed from the
	// staged copy before bundling, relative to the staged source root
	StripDirs []string `koanf:"strip_dirs"`
}

// PakConfig controls the size-bounded packer
type PakConfig struct {
	// MaxSize is the maximum total input size per pak part, in bytes
	MaxSize int64 `koanf:"max_size"`

	// Extension is the pak file extension, including the dot
	Extension string `koanf:"extension"`
}

// ToolsConfig names the external tools the build shells out to
type ToolsConfig struct {
	Compress ToolConfig `koanf:"compress"`
	Archive  ToolConfig `koanf:"archive"`
}

// ToolConfig is one external tool invocation contract: a command and
// the flags passed before the output path and file list
type ToolConfig struct {
	Command string   `koanf:"command"`
	Args    []string `koanf:"args"`
}

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Load builds the configuration for a project rooted at root.
// Later layers override earlier ones: defaults, project config file,
// environment.
func Load(root string) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, modpakerrors.Wrap(err, modpakerrors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. Project config file, TOML preferred over YAML
	type parserFor struct {
		name   string
		parser koanf.Parser
	}
	candidates := []parserFor{
		{"modpak.toml", toml.Parser()},
		{"modpak.yaml", yaml.Parser()},
	}
	for _, c := range candidates {
		path := filepath.Join(root, c.name)
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), c.parser); err != nil {
				return nil, modpakerrors.Wrapf(err, modpakerrors.ErrConfigLoad,
					"failed to load config from %s", path)
			}
			break
		}
	}

	// 3. Environment overrides: MODPAK_PAK__MAX_SIZE -> pak.max_size
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, modpakerrors.Wrap(err, modpakerrors.ErrConfigLoad, "failed to load environment overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, modpakerrors.Wrap(err, modpakerrors.ErrConfigLoad, "failed to unmarshal config")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Pak.MaxSize <= 0 {
		return modpakerrors.Newf(modpakerrors.ErrConfigValid,
			"pak.max_size must be positive, got %d", c.Pak.MaxSize)
	}
	if !strings.HasPrefix(c.Pak.Extension, ".") {
		return modpakerrors.Newf(modpakerrors.ErrConfigValid,
			"pak.extension must start with a dot, got %q", c.Pak.Extension)
	}
	if c.Tools.Compress.Command == "" {
		return modpakerrors.New(modpakerrors.ErrConfigValid, "tools.compress.command must not be empty")
	}
	if c.Tools.Archive.Command == "" {
		return modpakerrors.New(modpakerrors.ErrConfigValid, "tools.archive.command must not be empty")
	}
	return nil
}

// SourcePath returns the absolute path of the mod source tree
func (c *Config) SourcePath(root string) string {
	return filepath.Join(root, c.Project.SourceDir)
}

// StagingPath returns the absolute path of the staging directory
func (c *Config) StagingPath(root string) string {
	return filepath.Join(root, c.Project.StagingDir)
}

// ManifestPath returns the absolute path of the manifest inside the
// mod source tree
func (c *Config) ManifestPath(root string) string {
	return filepath.Join(c.SourcePath(root), c.Project.Manifest)
}

// SourcePackPath returns the absolute path of the packable asset
// subtree inside the mod source tree
func (c *Config) SourcePackPath(root string) string {
	return filepath.Join(c.SourcePath(root), c.Project.PackDir)
}

// StagedPackPath returns the absolute path of the packable asset
// subtree inside the staged copy
func (c *Config) StagedPackPath(root string) string {
	return filepath.Join(c.StagingPath(root), c.Project.PackDir)
}
