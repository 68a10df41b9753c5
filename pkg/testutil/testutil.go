// Package testutil provides shared helpers for modpak tests: a fake
// tool runner and filesystem tree builders.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/modpak/pkg/executor"
)

// FakeRunner records tool invocations instead of executing them.
// RunFunc, when set, simulates the tool's behavior (typically by
// creating the archive the tool would have produced).
type FakeRunner struct {
	Invocations []executor.Invocation
	RunFunc     func(executor.Invocation) error
}

// Run implements executor.Runner
func (f *FakeRunner) Run(inv executor.Invocation) error {
	f.Invocations = append(f.Invocations, inv)
	if f.RunFunc != nil {
		return f.RunFunc(inv)
	}
	return nil
}

// TouchOutputArg returns a RunFunc that creates an empty file at the
// invocation argument with the given index, resolved against the
// invocation's working directory. This mimics a compression tool
// producing its archive.
func TouchOutputArg(index int) func(executor.Invocation) error {
	return func(inv executor.Invocation) error {
		out := inv.Args[index]
		if !filepath.IsAbs(out) {
			out = filepath.Join(inv.WorkingDir, out)
		}
		return os.WriteFile(out, []byte("archive"), 0644)
	}
}

// WriteTree creates the given files under root. Map keys are paths
// relative to root (slash-separated); values are file contents.
// Parent directories are created as needed.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// WriteFileSized creates a file of exactly size bytes at path,
// creating parent directories as needed.
func WriteFileSized(t *testing.T, path string, size int64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
