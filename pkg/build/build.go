// Package build drives the full build sequence: manifest, staging,
// packing, stripping, bundling.
//
// Both recognized environments run this exact sequence; the prod/dev
// distinction is carried in configuration only, so the two cannot
// silently diverge.
package build

import (
	"time"

	"github.com/arthur-debert/modpak/pkg/bundler"
	"github.com/arthur-debert/modpak/pkg/config"
	"github.com/arthur-debert/modpak/pkg/errors"
	"github.com/arthur-debert/modpak/pkg/executor"
	"github.com/arthur-debert/modpak/pkg/filesystem"
	"github.com/arthur-debert/modpak/pkg/logging"
	"github.com/arthur-debert/modpak/pkg/manifest"
	"github.com/arthur-debert/modpak/pkg/packer"
	"github.com/arthur-debert/modpak/pkg/staging"
	"github.com/arthur-debert/modpak/pkg/types"
)

// Environment selects the build environment
type Environment string

// Recognized environments. Both drive the identical build sequence.
const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

// ParseEnvironment validates an environment name
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(s) {
	case EnvDev, EnvProd:
		return Environment(s), nil
	default:
		return "", errors.Newf(errors.ErrInvalidInput,
			"invalid environment %q, must be one of: prod, dev", s)
	}
}

// ContentVersion selects which content variant to build
type ContentVersion string

// Recognized content versions
const (
	VersionMain       ContentVersion = "main"
	VersionLoremIpsum ContentVersion = "lorem-ipsum"
)

// ParseContentVersion validates a content version name
func ParseContentVersion(s string) (ContentVersion, error) {
	switch ContentVersion(s) {
	case VersionMain, VersionLoremIpsum:
		return ContentVersion(s), nil
	default:
		return "", errors.Newf(errors.ErrInvalidInput,
			"invalid version %q, must be one of: main, lorem-ipsum", s)
	}
}

// Options configures one build run
type Options struct {
	// Config is the loaded build configuration
	Config *config.Config

	// ProjectRoot is the directory the mod project lives in
	ProjectRoot string

	// Env is the validated build environment
	Env Environment

	// Version is the validated content version
	Version ContentVersion

	// FileSystem is the filesystem to use (optional, defaults to the
	// OS filesystem)
	FileSystem types.FS

	// Runner executes external tools (optional, defaults to the OS
	// runner)
	Runner executor.Runner
}

// Run executes the full build: read manifest, stage, pack, strip,
// bundle. Every step is synchronous and fail-fast; a failed build may
// leave the staging directory behind.
func Run(opts Options) (*types.BuildResult, error) {
	logger := logging.GetLogger("build")
	start := time.Now()
	defer logging.LogDuration(start, "build")

	fs := opts.FileSystem
	if fs == nil {
		fs = filesystem.NewOS()
	}
	runner := opts.Runner
	if runner == nil {
		runner = executor.NewRunner()
	}

	cfg := opts.Config

	logger.Info().
		Str("env", string(opts.Env)).
		Str("version", string(opts.Version)).
		Str("root", opts.ProjectRoot).
		Msg("Starting build")

	// Manifest problems surface before any filesystem mutation
	m, err := manifest.Read(fs, cfg.ManifestPath(opts.ProjectRoot))
	if err != nil {
		return nil, err
	}

	stagingDir := cfg.StagingPath(opts.ProjectRoot)
	if err := staging.Stage(fs, cfg.SourcePath(opts.ProjectRoot), stagingDir); err != nil {
		return nil, err
	}

	plan, err := packer.Plan(packer.PlanOptions{
		FS:        fs,
		SourceDir: cfg.StagedPackPath(opts.ProjectRoot),
		BaseName:  m.ModID,
		Extension: cfg.Pak.Extension,
		MaxSize:   cfg.Pak.MaxSize,
	})
	if err != nil {
		return nil, err
	}

	pakFiles, err := packer.Pack(packer.PackOptions{
		FS:     fs,
		Runner: runner,
		Plan:   plan,
		Tool:   cfg.Tools.Compress,
	})
	if err != nil {
		return nil, err
	}

	if err := staging.Strip(fs, stagingDir, cfg.Project.StripDirs); err != nil {
		return nil, err
	}

	bundlePath, err := bundler.Bundle(bundler.Options{
		FS:          fs,
		Runner:      runner,
		Tool:        cfg.Tools.Archive,
		StagingDir:  stagingDir,
		ProjectRoot: opts.ProjectRoot,
		Manifest:    m,
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("bundle", bundlePath).
		Int("paks", len(pakFiles)).
		Msg("Build finished")

	return &types.BuildResult{
		Manifest:   *m,
		PakFiles:   pakFiles,
		BundlePath: bundlePath,
	}, nil
}

// PlanOnly computes the pack plan over the source data tree without
// staging, packing, or touching the filesystem. Used by dry runs.
func PlanOnly(opts Options) (*types.PakPlan, *types.Manifest, error) {
	fs := opts.FileSystem
	if fs == nil {
		fs = filesystem.NewOS()
	}
	cfg := opts.Config

	m, err := manifest.Read(fs, cfg.ManifestPath(opts.ProjectRoot))
	if err != nil {
		return nil, nil, err
	}

	plan, err := packer.Plan(packer.PlanOptions{
		FS:        fs,
		SourceDir: cfg.SourcePackPath(opts.ProjectRoot),
		BaseName:  m.ModID,
		Extension: cfg.Pak.Extension,
		MaxSize:   cfg.Pak.MaxSize,
	})
	if err != nil {
		return nil, nil, err
	}

	return plan, m, nil
}
