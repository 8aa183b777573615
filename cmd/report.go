package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/cmmoran/projgen/internal/diagnostic"
)

var severityColors = map[diagnostic.Severity]func(string, ...any) string{
	diagnostic.SeverityInfo:    color.CyanString,
	diagnostic.SeverityWarning: color.YellowString,
	diagnostic.SeverityError:   color.RedString,
}

// useColor disables color output unless w is a terminal.
func useColor(w io.Writer) {
	f, ok := w.(*os.File)
	color.NoColor = !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// printDiagnostics writes ds to w, skipping info findings unless verbose.
func printDiagnostics(w io.Writer, ds diagnostic.Diagnostics, verbose bool) {
	useColor(w)
	for _, d := range ds.Items {
		if d.Severity == diagnostic.SeverityInfo && !verbose {
			continue
		}
		fmt.Fprintf(w, "%s %s\n", severityColors[d.Severity]("%-7s", d.Severity), d)
	}
}

func summary(w io.Writer, files int, ds diagnostic.Diagnostics) {
	fmt.Fprintf(w, "%s files, %s errors, %s warnings\n",
		color.GreenString("%d", files),
		color.RedString("%d", len(ds.Errors())),
		color.YellowString("%d", len(ds.Warnings())),
	)
}
