// Package staging manages the scratch build tree.
//
// The staging directory is owned exclusively by one build invocation:
// it is deleted and recreated at the start of every build and removed
// again after a successful bundle. Concurrent builds against the same
// staging path are unsupported.
package staging

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/modpak/pkg/errors"
	"github.com/arthur-debert/modpak/pkg/logging"
	"github.com/arthur-debert/modpak/pkg/types"
)

// Stage clears the staging directory and copies the source tree into
// it verbatim. File metadata is not preserved; the staged copy is
// repacked, never shipped raw.
func Stage(fs types.FS, sourceDir, stagingDir string) error {
	logger := logging.GetLogger("staging")
	logger.Info().Str("source", sourceDir).Str("staging", stagingDir).Msg("Staging source tree")

	// Absence of a previous staging dir is not an error
	if err := fs.RemoveAll(stagingDir); err != nil {
		return errors.Wrapf(err, errors.ErrStaging,
			"cannot clear staging directory %s", stagingDir)
	}
	if err := fs.MkdirAll(stagingDir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate,
			"cannot create staging directory %s", stagingDir)
	}

	if err := copyTree(fs, sourceDir, stagingDir); err != nil {
		return err
	}

	return nil
}

// copyTree recursively copies src into dst. dst must already exist.
func copyTree(fs types.FS, src, dst string) error {
	entries, err := fs.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot list %s", src)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := fs.MkdirAll(dstPath, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", dstPath)
			}
			if err := copyTree(fs, srcPath, dstPath); err != nil {
				return err
			}
			continue
		}

		data, err := fs.ReadFile(srcPath)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", srcPath)
		}
		if err := fs.WriteFile(dstPath, data, 0644); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", dstPath)
		}
	}

	return nil
}

// Strip removes the given development-only subdirectories from the
// staged tree. A subdirectory that does not exist is skipped silently.
func Strip(fs types.FS, stagingDir string, stripDirs []string) error {
	logger := logging.GetLogger("staging")

	for _, dir := range stripDirs {
		path := filepath.Join(stagingDir, dir)
		if _, err := fs.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", path)
		}
		logger.Info().Str("dir", path).Msg("Stripping development directory")
		if err := fs.RemoveAll(path); err != nil {
			return errors.Wrapf(err, errors.ErrStaging, "cannot remove %s", path)
		}
	}

	return nil
}

// Clean removes the staging directory entirely. Missing directories
// are ignored, making Clean safe to run repeatedly.
func Clean(fs types.FS, stagingDir string) error {
	if err := fs.RemoveAll(stagingDir); err != nil {
		return errors.Wrapf(err, errors.ErrStaging,
			"cannot remove staging directory %s", stagingDir)
	}
	return nil
}
