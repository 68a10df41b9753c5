package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "mod", cfg.Project.SourceDir)
	assert.Equal(t, "modinfo.xml", cfg.Project.Manifest)
	assert.Equal(t, "data", cfg.Project.PackDir)
	assert.Equal(t, "build/stage", cfg.Project.StagingDir)
	assert.Equal(t, []string{"scripts", "libs"}, cfg.Project.StripDirs)
	assert.Equal(t, int64(2147483648), cfg.Pak.MaxSize)
	assert.Equal(t, ".pak", cfg.Pak.Extension)
	assert.Equal(t, "7z", cfg.Tools.Compress.Command)
	assert.Contains(t, cfg.Tools.Compress.Args, "-mx=9")
	assert.Equal(t, "7z", cfg.Tools.Archive.Command)
}

func TestLoadProjectTOML(t *testing.T) {
	root := t.TempDir()
	content := `
[project]
source_dir = "assets"
strip_dirs = ["dev"]

[pak]
max_size = 1048576
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "modpak.toml"), []byte(content), 0644))

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "assets", cfg.Project.SourceDir)
	assert.Equal(t, []string{"dev"}, cfg.Project.StripDirs)
	assert.Equal(t, int64(1048576), cfg.Pak.MaxSize)
	// untouched keys keep their defaults
	assert.Equal(t, "modinfo.xml", cfg.Project.Manifest)
	assert.Equal(t, ".pak", cfg.Pak.Extension)
}

func TestLoadProjectYAML(t *testing.T) {
	root := t.TempDir()
	content := `
project:
  staging_dir: tmp/stage
pak:
  extension: .dat
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "modpak.yaml"), []byte(content), 0644))

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "tmp/stage", cfg.Project.StagingDir)
	assert.Equal(t, ".dat", cfg.Pak.Extension)
}

func TestLoadTOMLPreferredOverYAML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "modpak.toml"),
		[]byte("[project]\nsource_dir = \"from-toml\"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "modpak.yaml"),
		[]byte("project:\n  source_dir: from-yaml\n"), 0644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "from-toml", cfg.Project.SourceDir)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MODPAK_PAK__MAX_SIZE", "4096")
	t.Setenv("MODPAK_PROJECT__SOURCE_DIR", "gamedata")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, int64(4096), cfg.Pak.MaxSize)
	assert.Equal(t, "gamedata", cfg.Project.SourceDir)
}

func TestLoadRejectsNonPositiveMaxSize(t *testing.T) {
	t.Setenv("MODPAK_PAK__MAX_SIZE", "0")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_size")
}

func TestLoadRejectsBadExtension(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "modpak.toml"),
		[]byte("[pak]\nextension = \"pak\"\n"), 0644))

	_, err := Load(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extension")
}

func TestPathHelpers(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	root := "/proj"
	assert.Equal(t, filepath.Join("/proj", "mod"), cfg.SourcePath(root))
	assert.Equal(t, filepath.Join("/proj", "build", "stage"), cfg.StagingPath(root))
	assert.Equal(t, filepath.Join("/proj", "mod", "modinfo.xml"), cfg.ManifestPath(root))
	assert.Equal(t, filepath.Join("/proj", "mod", "data"), cfg.SourcePackPath(root))
	assert.Equal(t, filepath.Join("/proj", "build", "stage", "data"), cfg.StagedPackPath(root))
}
