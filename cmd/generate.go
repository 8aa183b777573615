package cmd

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmmoran/projgen/pkg/action/generate"
)

var errGenerate = errors.New("generation reported errors")

func init() {
	rootCmd.AddCommand(NewGenerateCommand())
}

func NewGenerateCommand() *cobra.Command {
	var (
		excludeByTagStrings = make([]string, 0)
		verbose             bool
	)

	var generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "generate views",
		Long:  "Generate request and response views, conversion constructors and serializers next to every //projgen-marked type",
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions(c, excludeByTagStrings)
			if err != nil {
				return err
			}
			rep, err := generate.Generate(c.Context(), opts, viper.GetString("version"), slog.Default())
			if rep != nil {
				printDiagnostics(c.ErrOrStderr(), rep.Diagnostics, verbose)
				summary(c.ErrOrStderr(), len(rep.Artifacts), rep.Diagnostics)
			}
			if err != nil {
				return err
			}
			if rep.Diagnostics.HasErrors() {
				return errGenerate
			}
			return nil
		},
	}
	optionFlags(generateCmd, &excludeByTagStrings)
	generateCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also print informational findings")

	return generateCmd
}
