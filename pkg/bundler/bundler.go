// Package bundler wraps the staged, packed tree into the final
// versioned distributable archive.
package bundler

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/modpak/pkg/config"
	"github.com/arthur-debert/modpak/pkg/errors"
	"github.com/arthur-debert/modpak/pkg/executor"
	"github.com/arthur-debert/modpak/pkg/logging"
	"github.com/arthur-debert/modpak/pkg/types"
)

// Options describes one bundling run
type Options struct {
	// FS is used for overwrite handling and output verification
	FS types.FS

	// Runner executes the archival tool
	Runner executor.Runner

	// Tool is the archival tool and its flags
	Tool config.ToolConfig

	// StagingDir is the staged tree to bundle; it is removed after a
	// successful bundle
	StagingDir string

	// ProjectRoot is where the bundle is written
	ProjectRoot string

	// Manifest provides the bundle's name and version
	Manifest *types.Manifest
}

// Bundle wraps the staging directory's contents into a single archive
// named <name>_<version>.zip at the project root. An existing bundle
// of the same name is overwritten, not accumulated. On success the
// staging directory is deleted and the bundle's absolute path is
// returned.
func Bundle(opts Options) (string, error) {
	logger := logging.GetLogger("bundler")

	// The tool runs from inside the staging directory, so the output
	// path must be absolute or it would land in the staged tree.
	bundlePath, err := filepath.Abs(filepath.Join(opts.ProjectRoot, opts.Manifest.BundleName()))
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrBundle,
			"cannot resolve bundle path under %s", opts.ProjectRoot)
	}

	// Overwrite semantics: a previous bundle of the same version is
	// replaced.
	if _, err := opts.FS.Stat(bundlePath); err == nil {
		logger.Info().Str("path", bundlePath).Msg("Removing previous bundle")
		if err := opts.FS.Remove(bundlePath); err != nil {
			return "", errors.Wrapf(err, errors.ErrBundle,
				"cannot remove previous bundle %s", bundlePath)
		}
	} else if !os.IsNotExist(err) {
		return "", errors.Wrapf(err, errors.ErrFileAccess,
			"cannot stat %s", bundlePath)
	}

	args := make([]string, 0, len(opts.Tool.Args)+2)
	args = append(args, opts.Tool.Args...)
	args = append(args, bundlePath, ".")

	inv := executor.Invocation{
		Command:    opts.Tool.Command,
		Args:       args,
		WorkingDir: opts.StagingDir,
	}

	logger.Info().Str("output", bundlePath).Msg("Bundling staged tree")
	if err := opts.Runner.Run(inv); err != nil {
		return "", err
	}

	if _, err := opts.FS.Stat(bundlePath); err != nil {
		return "", errors.Newf(errors.ErrToolOutput,
			"expected bundle %s was not produced by: %s",
			bundlePath, inv.CommandLine())
	}

	// The staging tree has served its purpose
	if err := opts.FS.RemoveAll(opts.StagingDir); err != nil {
		return "", errors.Wrapf(err, errors.ErrStaging,
			"cannot remove staging directory %s", opts.StagingDir)
	}

	logger.Info().Str("path", bundlePath).Msg("Bundle produced")
	return bundlePath, nil
}
