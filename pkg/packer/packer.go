// Package packer partitions a directory tree into size-bounded pak
// archives.
//
// The partition is greedy first-fit-by-arrival: files are taken in
// traversal order and the current part is closed only when adding the
// next file would push it past the size bound. This trades optimal
// bin-packing for a deterministic single pass, which is what the
// target engine's load order expects.
//
// The whole plan is computed before any output is named: a single-part
// plan uses the plain pak name, a multi-part plan suffixes every part
// with -part{N}. No archive is renamed after the fact.
package packer

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/modpak/pkg/config"
	"github.com/arthur-debert/modpak/pkg/errors"
	"github.com/arthur-debert/modpak/pkg/executor"
	"github.com/arthur-debert/modpak/pkg/logging"
	"github.com/arthur-debert/modpak/pkg/types"
)

// PlanOptions describes one packing plan computation
type PlanOptions struct {
	// FS is the filesystem to enumerate (defaults to nothing; callers
	// must provide one)
	FS types.FS

	// SourceDir is the directory tree to pack
	SourceDir string

	// BaseName is the pak base name without extension, normally the
	// mod ID from the manifest
	BaseName string

	// Extension is the pak extension including the dot; files already
	// bearing it are excluded from enumeration
	Extension string

	// MaxSize is the maximum total input size per part, in bytes
	MaxSize int64
}

// fileEntry is one enumerated file with its size
type fileEntry struct {
	rel  string
	size int64
}

// Plan enumerates the source directory and partitions its files into
// pak parts. The union of all parts covers every enumerated file
// exactly once; each part's total input size stays within MaxSize
// except when a single file alone exceeds it, in which case that file
// forms its own oversized part.
func Plan(opts PlanOptions) (*types.PakPlan, error) {
	logger := logging.GetLogger("packer")

	files, err := enumerate(opts.FS, opts.SourceDir, strings.ToLower(opts.Extension))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Newf(errors.ErrNoFiles,
			"no files to pack under %s", opts.SourceDir)
	}

	plan := &types.PakPlan{
		SourceDir: opts.SourceDir,
		BaseName:  opts.BaseName,
		Extension: opts.Extension,
		MaxSize:   opts.MaxSize,
	}

	current := types.PakPart{Index: 0}
	for _, f := range files {
		// Close the current part only when it already has members and
		// this file would push it past the bound. A file bigger than
		// the bound is never split; it becomes a part of its own.
		if len(current.Files) > 0 && current.Size+f.size > opts.MaxSize {
			plan.Parts = append(plan.Parts, current)
			current = types.PakPart{Index: len(plan.Parts)}
		}
		current.Files = append(current.Files, f.rel)
		current.Size += f.size
	}
	plan.Parts = append(plan.Parts, current)

	logger.Debug().
		Str("source", opts.SourceDir).
		Int("files", plan.FileCount()).
		Int("parts", len(plan.Parts)).
		Int64("totalSize", plan.TotalSize()).
		Msg("Pack plan computed")

	return plan, nil
}

// enumerate walks dir depth-first and returns all files as paths
// relative to dir, in directory-listing order, skipping any file whose
// name already carries the pak extension (case-insensitive). This
// keeps previously produced archives out of a re-run's packing pass.
func enumerate(fsys types.FS, dir string, lowerExt string) ([]fileEntry, error) {
	var files []fileEntry

	var walk func(rel string) error
	walk = func(rel string) error {
		entries, err := fsys.ReadDir(filepath.Join(dir, rel))
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess,
				"cannot list directory %s", filepath.Join(dir, rel))
		}
		for _, entry := range entries {
			entryRel := filepath.Join(rel, entry.Name())
			if entry.IsDir() {
				if err := walk(entryRel); err != nil {
					return err
				}
				continue
			}
			if strings.HasSuffix(strings.ToLower(entry.Name()), lowerExt) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return errors.Wrapf(err, errors.ErrFileAccess,
					"cannot stat %s", entryRel)
			}
			files = append(files, fileEntry{rel: entryRel, size: info.Size()})
		}
		return nil
	}

	if err := walk(""); err != nil {
		return nil, err
	}
	return files, nil
}

// PackOptions describes the realization of a pack plan
type PackOptions struct {
	// FS is used to remove stale outputs and verify produced ones
	FS types.FS

	// Runner executes the compression tool
	Runner executor.Runner

	// Plan is the partition to realize
	Plan *types.PakPlan

	// Tool is the compression tool and its flags
	Tool config.ToolConfig
}

// Pack realizes the plan by invoking the compression tool once per
// part, with the part's files as paths relative to the source
// directory so the archives carry a path-relative internal layout.
// After each invocation the expected output must exist on disk; a
// missing output is a fatal inconsistency, not a silent skip.
// Returns the absolute paths of the produced archives.
func Pack(opts PackOptions) ([]string, error) {
	logger := logging.GetLogger("packer")

	var produced []string
	for i, part := range opts.Plan.Parts {
		outPath := opts.Plan.OutputPath(i)
		outName := filepath.Base(outPath)

		// A stale archive from an earlier run would be updated in
		// place by most tools; remove it so every part starts fresh.
		if _, err := opts.FS.Stat(outPath); err == nil {
			if err := opts.FS.Remove(outPath); err != nil {
				return nil, errors.Wrapf(err, errors.ErrFileWrite,
					"cannot remove stale archive %s", outPath)
			}
		}

		args := make([]string, 0, len(opts.Tool.Args)+1+len(part.Files))
		args = append(args, opts.Tool.Args...)
		args = append(args, outName)
		args = append(args, part.Files...)

		inv := executor.Invocation{
			Command:    opts.Tool.Command,
			Args:       args,
			WorkingDir: opts.Plan.SourceDir,
		}

		logger.Info().
			Int("part", i).
			Int("files", len(part.Files)).
			Int64("size", part.Size).
			Str("output", outName).
			Msg("Packing part")

		if err := opts.Runner.Run(inv); err != nil {
			return nil, err
		}

		if _, err := opts.FS.Stat(outPath); err != nil {
			return nil, errors.Newf(errors.ErrToolOutput,
				"expected archive %s was not produced by: %s",
				outPath, inv.CommandLine())
		}

		produced = append(produced, outPath)
	}

	return produced, nil
}
