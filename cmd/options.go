package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmmoran/projgen/pkg/generator"
)

const optionsKey = "generator"

var optionKeys = map[string]string{
	"in_dir":                "input-directory",
	"patterns":              "patterns",
	"request_suffix":        "request-suffix",
	"response_suffix":       "response-suffix",
	"file_suffix":           "file-suffix",
	"manifest_path":         "manifest",
	"keep_orm_tags":         "keep-orm-tags",
	"flatten_embedded":      "flatten-embedded",
	"embed_source":          "embed-source",
	"relax_request_sources": "relax-request-sources",
	"exclude_deprecated":    "exclude-deprecated",
	"exclude_types":         "exclude-types",
}

// optionFlags registers the generator flags on c.
func optionFlags(c *cobra.Command, excludeByTagStrings *[]string) {
	d := generator.NewOptions()
	fs := c.Flags()
	fs.StringP("input-directory", "i", d.InDir, "directory whose module is scanned")
	fs.StringSlice("patterns", d.Patterns, "package patterns to load")
	fs.String("request-suffix", d.RequestSuffix, "suffix of generated request views")
	fs.String("response-suffix", d.ResponseSuffix, "suffix of generated response views")
	fs.String("file-suffix", d.FileSuffix, "suffix of generated files")
	fs.String("manifest", d.ManifestPath, "manifest of generated files, relative to the input directory")
	fs.BoolP("keep-orm-tags", "k", d.KeepORMTags, "keep ORM tags on view fields")
	fs.BoolP("flatten-embedded", "F", d.FlattenEmbedded, "flatten embedded types' fields into parent")
	fs.Bool("embed-source", d.EmbedSource, "embed the domain struct in generated views")
	fs.Bool("relax-request-sources", d.RelaxRequestSources, "read request-projected sources through their request view")
	fs.BoolP("exclude-deprecated", "d", d.ExcludeDeprecated, "skip types marked Deprecated")
	fs.StringSliceP("exclude-types", "t", nil, "exclude named types")
	fs.StringSliceVarP(excludeByTagStrings, "exclude-tags", "T", nil, "exclude fields with matching tags, ex: gorm:embedded")
}

// loadOptions binds the flags of the running command to their config keys
// under "generator" and merges flags, config files and environment.
func loadOptions(c *cobra.Command, excludeByTagStrings []string) (*generator.Options, error) {
	for key, flag := range optionKeys {
		if err := viper.BindPFlag(optionsKey+"."+key, c.Flags().Lookup(flag)); err != nil {
			return nil, err
		}
	}
	var cfg struct {
		Generator generator.Options `mapstructure:"generator"`
	}
	cfg.Generator = *generator.NewOptions()
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	opts := &cfg.Generator
	opts.Normalize(excludeByTagStrings...)
	return opts, nil
}
