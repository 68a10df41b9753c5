package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"

	"github.com/arthur-debert/modpak/pkg/types"
)

// Human-readable progress goes to stderr; stdout is reserved for
// machine-consumable paths.
var (
	stepPrinter    = pterm.Info.WithWriter(os.Stderr)
	successPrinter = pterm.Success.WithWriter(os.Stderr)
)

// setupOutput disables styling when stderr is not a capable terminal
func setupOutput() {
	if os.Getenv("NO_COLOR") != "" {
		pterm.DisableStyling()
		return
	}
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		pterm.DisableStyling()
		return
	}
	if termenv.ColorProfile() == termenv.Ascii {
		pterm.DisableStyling()
	}
}

func stepf(format string, args ...interface{}) {
	stepPrinter.Printfln(format, args...)
}

func successf(format string, args ...interface{}) {
	successPrinter.Printfln(format, args...)
}

// printPlan renders a dry-run summary of the build's pack plan.
// Machine-consumable output paths go to w.
func printPlan(w io.Writer, m *types.Manifest, plan *types.PakPlan) {
	stepf("Dry run for %s %s (%s)", m.Name, m.Version, m.ModID)
	printPartList(w, plan)
}

// printPartList renders each planned part with its size and files
func printPartList(w io.Writer, plan *types.PakPlan) {
	stepf("%d file(s), %d byte(s), %d part(s), max part size %d",
		plan.FileCount(), plan.TotalSize(), len(plan.Parts), plan.MaxSize)
	for i, part := range plan.Parts {
		stepf("  %s: %d file(s), %d byte(s)",
			plan.OutputPath(i), len(part.Files), part.Size)
	}
	// planned outputs for machine consumers
	for i := range plan.Parts {
		fmt.Fprintln(w, plan.OutputPath(i))
	}
}
