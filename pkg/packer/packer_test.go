// pkg/packer/packer_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: Real filesystem (t.TempDir), FakeRunner
// PURPOSE: Test the size-bounded packing plan and its realization

package packer_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/modpak/pkg/config"
	"github.com/arthur-debert/modpak/pkg/errors"
	"github.com/arthur-debert/modpak/pkg/executor"
	"github.com/arthur-debert/modpak/pkg/filesystem"
	"github.com/arthur-debert/modpak/pkg/packer"
	"github.com/arthur-debert/modpak/pkg/testutil"
	"github.com/arthur-debert/modpak/pkg/types"
)

func planOpts(dir string, maxSize int64) packer.PlanOptions {
	return packer.PlanOptions{
		FS:        filesystem.NewOS(),
		SourceDir: dir,
		BaseName:  "lorem_mod",
		Extension: ".pak",
		MaxSize:   maxSize,
	}
}

// allFiles flattens a plan's parts into one list in emission order
func allFiles(plan *types.PakPlan) []string {
	var out []string
	for _, p := range plan.Parts {
		out = append(out, p.Files...)
	}
	return out
}

func TestPlanSinglePartWhenEverythingFits(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFileSized(t, filepath.Join(dir, "a.dat"), 100)
	testutil.WriteFileSized(t, filepath.Join(dir, "b.dat"), 200)
	testutil.WriteFileSized(t, filepath.Join(dir, "sub", "c.dat"), 300)

	plan, err := packer.Plan(planOpts(dir, 1000))
	require.NoError(t, err)

	require.Len(t, plan.Parts, 1)
	assert.Equal(t, int64(600), plan.Parts[0].Size)
	assert.Equal(t, 3, plan.FileCount())

	// A single-part plan uses the plain, un-suffixed name
	assert.Equal(t, filepath.Join(dir, "lorem_mod.pak"), plan.OutputPath(0))
}

func TestPlanBoundaryRule(t *testing.T) {
	// Three 1000-byte files with a 2000-byte bound: the bound is only
	// exceeded when the third file is added, so it starts part 1.
	dir := t.TempDir()
	testutil.WriteFileSized(t, filepath.Join(dir, "f1.dat"), 1000)
	testutil.WriteFileSized(t, filepath.Join(dir, "f2.dat"), 1000)
	testutil.WriteFileSized(t, filepath.Join(dir, "f3.dat"), 1000)

	plan, err := packer.Plan(planOpts(dir, 2000))
	require.NoError(t, err)

	require.Len(t, plan.Parts, 2)
	assert.Equal(t, []string{"f1.dat", "f2.dat"}, plan.Parts[0].Files)
	assert.Equal(t, int64(2000), plan.Parts[0].Size)
	assert.Equal(t, []string{"f3.dat"}, plan.Parts[1].Files)

	// Multi-part plans suffix every part, including the first
	assert.Equal(t, filepath.Join(dir, "lorem_mod-part0.pak"), plan.OutputPath(0))
	assert.Equal(t, filepath.Join(dir, "lorem_mod-part1.pak"), plan.OutputPath(1))
}

func TestPlanOversizedFileGetsOwnPart(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFileSized(t, filepath.Join(dir, "a.dat"), 100)
	testutil.WriteFileSized(t, filepath.Join(dir, "huge.dat"), 5000)
	testutil.WriteFileSized(t, filepath.Join(dir, "z.dat"), 100)

	plan, err := packer.Plan(planOpts(dir, 1000))
	require.NoError(t, err)

	require.Len(t, plan.Parts, 3)
	assert.Equal(t, []string{"a.dat"}, plan.Parts[0].Files)
	assert.Equal(t, []string{"huge.dat"}, plan.Parts[1].Files)
	assert.Greater(t, plan.Parts[1].Size, int64(1000), "oversized part is tolerated, not rejected")
	assert.Equal(t, []string{"z.dat"}, plan.Parts[2].Files)
}

func TestPlanCoversEveryFileExactlyOnce(t *testing.T) {
	dir := t.TempDir()
	want := map[string]bool{}
	for _, rel := range []string{"a.dat", "b/c.dat", "b/d/e.dat", "f.dat", "g.dat"} {
		testutil.WriteFileSized(t, filepath.Join(dir, filepath.FromSlash(rel)), 400)
		want[filepath.FromSlash(rel)] = true
	}

	plan, err := packer.Plan(planOpts(dir, 1000))
	require.NoError(t, err)

	seen := map[string]int{}
	for _, f := range allFiles(plan) {
		seen[f]++
	}
	assert.Len(t, seen, len(want), "every file appears")
	for rel := range want {
		assert.Equal(t, 1, seen[rel], "%s packed exactly once", rel)
	}

	for _, part := range plan.Parts {
		if len(part.Files) > 1 {
			assert.LessOrEqual(t, part.Size, plan.MaxSize)
		}
	}
}

func TestPlanSkipsExistingPakFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFileSized(t, filepath.Join(dir, "a.dat"), 100)
	testutil.WriteFileSized(t, filepath.Join(dir, "leftover.pak"), 9000)
	testutil.WriteFileSized(t, filepath.Join(dir, "LOUD.PAK"), 9000)

	plan, err := packer.Plan(planOpts(dir, 1000))
	require.NoError(t, err)

	assert.Equal(t, []string{"a.dat"}, allFiles(plan))
}

func TestPlanEmptyDirectoryFails(t *testing.T) {
	_, err := packer.Plan(planOpts(t.TempDir(), 1000))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNoFiles))
}

func TestPlanOnlyPakFilesFails(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFileSized(t, filepath.Join(dir, "old.pak"), 100)

	_, err := packer.Plan(planOpts(dir, 1000))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNoFiles))
}

func TestPlanDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{"b.dat", "a.dat", "c/z.dat", "c/a.dat"} {
		testutil.WriteFileSized(t, filepath.Join(dir, filepath.FromSlash(rel)), 10)
	}

	first, err := packer.Plan(planOpts(dir, 1000))
	require.NoError(t, err)
	second, err := packer.Plan(planOpts(dir, 1000))
	require.NoError(t, err)

	assert.Equal(t, allFiles(first), allFiles(second))
}

func compressTool() config.ToolConfig {
	return config.ToolConfig{Command: "7z", Args: []string{"a", "-tzip", "-mx=9", "-mtc=off"}}
}

func TestPackSinglePart(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"items.json":    `{"items": []}`,
		"tex/wood.png":  "png-bytes",
		"tex/stone.png": "png-bytes",
	})

	plan, err := packer.Plan(planOpts(dir, 1<<20))
	require.NoError(t, err)

	runner := &testutil.FakeRunner{RunFunc: testutil.TouchOutputArg(4)}
	produced, err := packer.Pack(packer.PackOptions{
		FS:     filesystem.NewOS(),
		Runner: runner,
		Plan:   plan,
		Tool:   compressTool(),
	})
	require.NoError(t, err)

	require.Len(t, produced, 1)
	assert.Equal(t, filepath.Join(dir, "lorem_mod.pak"), produced[0])

	require.Len(t, runner.Invocations, 1)
	inv := runner.Invocations[0]
	assert.Equal(t, "7z", inv.Command)
	assert.Equal(t, dir, inv.WorkingDir)
	assert.Equal(t, []string{"a", "-tzip", "-mx=9", "-mtc=off"}, inv.Args[:4])
	assert.Equal(t, "lorem_mod.pak", inv.Args[4])
	// file list is relative to the source dir
	assert.ElementsMatch(t,
		[]string{"items.json", filepath.Join("tex", "stone.png"), filepath.Join("tex", "wood.png")},
		inv.Args[5:])
}

func TestPackMultiPartNaming(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFileSized(t, filepath.Join(dir, "f1.dat"), 1000)
	testutil.WriteFileSized(t, filepath.Join(dir, "f2.dat"), 1000)
	testutil.WriteFileSized(t, filepath.Join(dir, "f3.dat"), 1000)

	plan, err := packer.Plan(planOpts(dir, 2000))
	require.NoError(t, err)

	runner := &testutil.FakeRunner{RunFunc: testutil.TouchOutputArg(4)}
	produced, err := packer.Pack(packer.PackOptions{
		FS:     filesystem.NewOS(),
		Runner: runner,
		Plan:   plan,
		Tool:   compressTool(),
	})
	require.NoError(t, err)

	// The first archive ends up with the -part0 suffix, never the
	// plain name.
	require.Len(t, produced, 2)
	assert.Equal(t, filepath.Join(dir, "lorem_mod-part0.pak"), produced[0])
	assert.Equal(t, filepath.Join(dir, "lorem_mod-part1.pak"), produced[1])

	_, err = os.Stat(filepath.Join(dir, "lorem_mod.pak"))
	assert.True(t, os.IsNotExist(err), "plain name must not exist in a multi-part build")
}

func TestPackMissingOutputFatal(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFileSized(t, filepath.Join(dir, "a.dat"), 10)

	plan, err := packer.Plan(planOpts(dir, 1000))
	require.NoError(t, err)

	// Runner reports success but produces nothing
	runner := &testutil.FakeRunner{}
	_, err = packer.Pack(packer.PackOptions{
		FS:     filesystem.NewOS(),
		Runner: runner,
		Plan:   plan,
		Tool:   compressTool(),
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrToolOutput))
	// the offending command line is surfaced
	assert.Contains(t, err.Error(), "7z a -tzip")
}

func TestPackToolFailureAborts(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFileSized(t, filepath.Join(dir, "f1.dat"), 1000)
	testutil.WriteFileSized(t, filepath.Join(dir, "f2.dat"), 1000)
	testutil.WriteFileSized(t, filepath.Join(dir, "f3.dat"), 1000)

	plan, err := packer.Plan(planOpts(dir, 2000))
	require.NoError(t, err)
	require.Len(t, plan.Parts, 2)

	// First part succeeds, second invocation fails; packing must stop
	// without emitting further archives.
	calls := 0
	runner := &testutil.FakeRunner{}
	runner.RunFunc = func(inv executor.Invocation) error {
		calls++
		if calls > 1 {
			return errors.Newf(errors.ErrToolRun, "tool failed: %s", inv.CommandLine())
		}
		return testutil.TouchOutputArg(4)(inv)
	}

	_, err = packer.Pack(packer.PackOptions{
		FS:     filesystem.NewOS(),
		Runner: runner,
		Plan:   plan,
		Tool:   compressTool(),
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrToolRun))
	assert.Equal(t, 2, calls, "no invocation after the failing one")
}

func TestPackRemovesStaleArchive(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFileSized(t, filepath.Join(dir, "a.dat"), 10)
	// a stale single-part archive from a previous run
	stale := filepath.Join(dir, "lorem_mod.pak")
	require.NoError(t, os.WriteFile(stale, []byte(strings.Repeat("x", 64)), 0644))

	plan, err := packer.Plan(planOpts(dir, 1000))
	require.NoError(t, err)
	// the stale archive is not part of the plan
	assert.Equal(t, []string{"a.dat"}, allFiles(plan))

	runner := &testutil.FakeRunner{RunFunc: testutil.TouchOutputArg(4)}
	produced, err := packer.Pack(packer.PackOptions{
		FS:     filesystem.NewOS(),
		Runner: runner,
		Plan:   plan,
		Tool:   compressTool(),
	})
	require.NoError(t, err)
	require.Len(t, produced, 1)

	// the fake wrote a fresh small archive over the stale one
	info, err := os.Stat(stale)
	require.NoError(t, err)
	assert.Equal(t, int64(len("archive")), info.Size())
}
