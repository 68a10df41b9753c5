// Package manifest reads the mod's modinfo.xml.
//
// The manifest declares the mod identifier, version, and display name.
// For each tag the first occurrence in the document wins; a missing or
// empty tag makes the whole manifest invalid.
package manifest

import (
	"os"
	"strings"

	"github.com/beevik/etree"

	"github.com/arthur-debert/modpak/pkg/errors"
	"github.com/arthur-debert/modpak/pkg/logging"
	"github.com/arthur-debert/modpak/pkg/types"
)

// Read loads and parses the manifest at path.
// The returned manifest is immutable; it is read once per build and
// never written back.
func Read(fs types.FS, path string) (*types.Manifest, error) {
	logger := logging.GetLogger("manifest")
	logger.Debug().Str("path", path).Msg("Reading manifest")

	data, err := fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrManifestMissing,
				"manifest not found at %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess,
			"cannot read manifest at %s", path)
	}

	doc := etree.NewDocument()
	// Manifests in the wild are loosely structured; accept anything
	// the parser can recover tags from.
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestParse,
			"cannot parse manifest at %s", path)
	}

	m := &types.Manifest{
		ModID:   firstTagText(doc, "modid"),
		Version: firstTagText(doc, "version"),
		Name:    firstTagText(doc, "name"),
	}

	// The diagnostic stays coarse on purpose: callers only learn the
	// manifest is incomplete, not which field is absent.
	if m.ModID == "" || m.Version == "" || m.Name == "" {
		return nil, errors.Newf(errors.ErrManifestIncomplete,
			"manifest at %s is incomplete", path)
	}

	logger.Info().
		Str("modid", m.ModID).
		Str("version", m.Version).
		Str("name", m.Name).
		Msg("Manifest loaded")

	return m, nil
}

// firstTagText returns the text of the first element with the given
// tag anywhere in the document, or "" if no such element exists.
func firstTagText(doc *etree.Document, tag string) string {
	el := doc.FindElement("//" + tag)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}
