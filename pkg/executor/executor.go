// Package executor runs the external tools the build shells out to.
//
// Tool invocations are blocking and carry no timeout: a hung tool
// hangs the build, which is acceptable for a local build script.
package executor

import (
	"bytes"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/modpak/pkg/errors"
	"github.com/arthur-debert/modpak/pkg/logging"
)

// Invocation describes one external tool call
type Invocation struct {
	// Command is the tool binary name or path
	Command string

	// Args are the full argument list, flags first
	Args []string

	// WorkingDir is the directory the tool runs in; file arguments
	// are relative to it
	WorkingDir string
}

// CommandLine renders the invocation as a single human-readable
// command line for diagnostics.
func (i Invocation) CommandLine() string {
	return strings.Join(append([]string{i.Command}, i.Args...), " ")
}

// Runner executes external tool invocations. Implementations must be
// synchronous: Run returns only after the tool has exited.
type Runner interface {
	Run(inv Invocation) error
}

// osRunner runs invocations via os/exec
type osRunner struct {
	logger zerolog.Logger
}

// NewRunner creates a Runner backed by the operating system
func NewRunner() Runner {
	return &osRunner{
		logger: logging.GetLogger("executor"),
	}
}

// Run executes the invocation and waits for it to finish.
// Tool output is surfaced through the logger; a nonzero exit is
// returned as a coded error carrying the offending command line.
func (r *osRunner) Run(inv Invocation) error {
	if inv.Command == "" {
		return errors.New(errors.ErrInvalidInput, "invocation requires a command")
	}

	r.logger.Info().
		Str("command", inv.Command).
		Strs("args", inv.Args).
		Str("workingDir", inv.WorkingDir).
		Msg("Executing tool")

	cmd := exec.Command(inv.Command, inv.Args...)

	if inv.WorkingDir != "" {
		if _, err := os.Stat(inv.WorkingDir); os.IsNotExist(err) {
			return errors.Newf(errors.ErrFileAccess,
				"working directory does not exist: %s", inv.WorkingDir)
		}
		cmd.Dir = inv.WorkingDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if stdout.Len() > 0 {
		r.logger.Debug().Str("output", stdout.String()).Msg("Tool stdout")
	}
	if stderr.Len() > 0 {
		r.logger.Debug().Str("output", stderr.String()).Msg("Tool stderr")
	}

	if err != nil {
		return errors.Wrapf(err, errors.ErrToolRun,
			"tool failed: %s", inv.CommandLine()).
			WithDetail("stderr", stderr.String())
	}

	return nil
}
