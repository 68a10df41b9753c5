package types

import (
	"path/filepath"
	"strconv"
)

// Manifest holds the fields extracted from the mod's modinfo.xml.
// It is read once at the start of a build and never written back.
type Manifest struct {
	// ModID is the mod identifier, used as the pak base name
	ModID string

	// Version is the mod version string, used in the bundle name
	Version string

	// Name is the display name, used as the bundle base name
	Name string
}

// BundleName returns the file name of the final distributable archive
func (m *Manifest) BundleName() string {
	return m.Name + "_" + m.Version + ".zip"
}

// PakPart is one bin in the size-bounded packing of files into paks.
// Files are relative to the pack plan's source directory, in
// traversal order.
type PakPart struct {
	// Index is the 0-based position of this part in the plan
	Index int

	// Files are the part's member paths, relative to the source dir
	Files []string

	// Size is the total uncompressed input size in bytes
	Size int64
}

// PakPlan is the full partition of a source tree into pak parts,
// computed before any output is named or written.
type PakPlan struct {
	// SourceDir is the directory the plan was computed over
	SourceDir string

	// BaseName is the pak base name without extension (the mod ID)
	BaseName string

	// Extension is the pak file extension, including the dot
	Extension string

	// MaxSize is the size bound each part was packed against
	MaxSize int64

	// Parts holds the planned parts in emission order
	Parts []PakPart
}

// OutputPath returns the absolute output path for the given part.
// A single-part plan uses the plain base name; multi-part plans
// suffix every part with "-part{N}".
func (p *PakPlan) OutputPath(index int) string {
	name := p.BaseName + p.Extension
	if len(p.Parts) > 1 {
		name = p.BaseName + "-part" + strconv.Itoa(index) + p.Extension
	}
	return filepath.Join(p.SourceDir, name)
}

// TotalSize returns the summed input size of all parts
func (p *PakPlan) TotalSize() int64 {
	var total int64
	for _, part := range p.Parts {
		total += part.Size
	}
	return total
}

// FileCount returns the number of files covered by the plan
func (p *PakPlan) FileCount() int {
	count := 0
	for _, part := range p.Parts {
		count += len(part.Files)
	}
	return count
}

// BuildResult summarizes one completed build for display and
// machine consumption.
type BuildResult struct {
	// Manifest is the manifest the build ran against
	Manifest Manifest

	// PakFiles are the absolute paths of the produced pak archives
	PakFiles []string

	// BundlePath is the absolute path of the final bundle
	BundlePath string
}
