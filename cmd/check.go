package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cmmoran/projgen/pkg/action/check"
)

var errDrift = errors.New("generated files are out of date")

func init() {
	rootCmd.AddCommand(NewCheckCommand())
}

func NewCheckCommand() *cobra.Command {
	var (
		excludeByTagStrings = make([]string, 0)
		verbose             bool
	)

	var checkCmd = &cobra.Command{
		Use:   "check",
		Short: "verify generated views are up to date",
		Long:  "Render every view in memory and report files on disk that differ, are missing or are stale",
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions(c, excludeByTagStrings)
			if err != nil {
				return err
			}
			drifts, rep, err := check.Check(c.Context(), opts, slog.Default())
			if err != nil {
				return err
			}
			printDiagnostics(c.ErrOrStderr(), rep.Diagnostics, verbose)
			out := c.OutOrStdout()
			useColor(out)
			for _, d := range drifts {
				switch {
				case d.Missing:
					fmt.Fprintf(out, "%s %s\n", color.RedString("missing"), d.Path)
				case d.Stale:
					fmt.Fprintf(out, "%s %s\n", color.YellowString("stale"), d.Path)
				default:
					fmt.Fprintf(out, "%s %s\n", color.RedString("changed"), d.Path)
				}
				if verbose && d.Diff != "" {
					fmt.Fprintln(out, d.Diff)
				}
			}
			if len(drifts) > 0 {
				return errDrift
			}
			return nil
		},
	}
	optionFlags(checkCmd, &excludeByTagStrings)
	checkCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print diffs and informational findings")

	return checkCmd
}
