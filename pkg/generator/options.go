package generator

import (
	"path/filepath"
	"strings"

	"github.com/cmmoran/projgen/internal/parser"
)

// TagFilter excludes a field when the struct tag matches Key and contains Value.
type TagFilter = parser.TagFilter

// Options control loading, projection and output.
//
// InDir               – directory whose module is scanned
// Patterns            – package patterns passed to the loader (default ./...)
// RequestSuffix       – appended to the class name for request views
// ResponseSuffix      – appended to the class name for response views
// FileSuffix          – suffix of generated files (default _projgen.go)
// KeepORMTags         – keep orm-specific tags on view fields, gorm:"..." db:"..." etc
// FlattenEmbedded     – lift fields of embedded structs into the class (default true)
// EmbedSource         – generated views embed their domain struct (default true)
// RelaxRequestSources – read request-projected sources through their request view (default true)
// ExcludeDeprecated   – skip types whose doc comment contains "Deprecated:"
// ExcludeTypes        – names of types to skip (case-insensitive)
// ExcludeByTags       – filters to skip fields
// ManifestPath        – where the record of generated files is kept, relative to InDir
type Options struct {
	InDir               string      `json:"in_dir,omitempty" yaml:"in_dir,omitempty" mapstructure:"in_dir,omitempty"`
	Patterns            []string    `json:"patterns,omitempty" yaml:"patterns,omitempty" mapstructure:"patterns,omitempty"`
	RequestSuffix       string      `json:"request_suffix,omitempty" yaml:"request_suffix,omitempty" mapstructure:"request_suffix,omitempty"`
	ResponseSuffix      string      `json:"response_suffix,omitempty" yaml:"response_suffix,omitempty" mapstructure:"response_suffix,omitempty"`
	FileSuffix          string      `json:"file_suffix,omitempty" yaml:"file_suffix,omitempty" mapstructure:"file_suffix,omitempty"`
	KeepORMTags         bool        `json:"keep_orm_tags,omitempty" yaml:"keep_orm_tags,omitempty" mapstructure:"keep_orm_tags,omitempty"`
	FlattenEmbedded     bool        `json:"flatten_embedded,omitempty" yaml:"flatten_embedded,omitempty" mapstructure:"flatten_embedded,omitempty"`
	EmbedSource         bool        `json:"embed_source,omitempty" yaml:"embed_source,omitempty" mapstructure:"embed_source,omitempty"`
	RelaxRequestSources bool        `json:"relax_request_sources,omitempty" yaml:"relax_request_sources,omitempty" mapstructure:"relax_request_sources,omitempty"`
	ExcludeDeprecated   bool        `json:"exclude_deprecated,omitempty" yaml:"exclude_deprecated,omitempty" mapstructure:"exclude_deprecated,omitempty"`
	ExcludeTypes        []string    `json:"exclude_types,omitempty" yaml:"exclude_types,omitempty" mapstructure:"exclude_types,omitempty"`
	ExcludeByTags       []TagFilter `json:"exclude_by_tags,omitempty" yaml:"exclude_by_tags,omitempty" mapstructure:"exclude_by_tags,omitempty"`
	ManifestPath        string      `json:"manifest_path,omitempty" yaml:"manifest_path,omitempty" mapstructure:"manifest_path,omitempty"`
}

func NewOptions() *Options {
	return &Options{
		InDir:               ".",
		Patterns:            []string{"./..."},
		RequestSuffix:       "Request",
		ResponseSuffix:      "Response",
		FileSuffix:          "_projgen.go",
		FlattenEmbedded:     true,
		EmbedSource:         true,
		RelaxRequestSources: true,
		ManifestPath:        ".projgen.yaml",
	}
}

// Normalize fills defaults and parses "key:value" exclude-by-tag strings.
func (o *Options) Normalize(excludeByTagsStrings ...string) {
	for _, s := range excludeByTagsStrings {
		key, val, ok := strings.Cut(s, ":")
		if !ok {
			continue
		}
		o.ExcludeByTags = append(o.ExcludeByTags, TagFilter{Key: key, Value: val})
	}
	if o.InDir == "" {
		o.InDir = "."
	}
	if strings.Contains(o.InDir, ".") {
		o.InDir, _ = filepath.Abs(o.InDir)
	}
	if len(o.Patterns) == 0 {
		o.Patterns = []string{"./..."}
	}
	if o.RequestSuffix == "" {
		o.RequestSuffix = "Request"
	}
	if o.ResponseSuffix == "" {
		o.ResponseSuffix = "Response"
	}
	if o.RequestSuffix == o.ResponseSuffix {
		panic("RequestSuffix and ResponseSuffix must differ")
	}
	if o.FileSuffix == "" {
		o.FileSuffix = "_projgen.go"
	}
	if !strings.HasSuffix(o.FileSuffix, ".go") {
		o.FileSuffix += ".go"
	}
	if o.ManifestPath == "" {
		o.ManifestPath = ".projgen.yaml"
	}
}

// functional option pattern ---------------------------------------------------

type Option func(*Options)

func WithInDir(d string) Option            { return func(o *Options) { o.InDir = d } }
func WithPatterns(p ...string) Option      { return func(o *Options) { o.Patterns = p } }
func WithRequestSuffix(s string) Option    { return func(o *Options) { o.RequestSuffix = s } }
func WithResponseSuffix(s string) Option   { return func(o *Options) { o.ResponseSuffix = s } }
func WithFileSuffix(s string) Option       { return func(o *Options) { o.FileSuffix = s } }
func WithManifestPath(p string) Option     { return func(o *Options) { o.ManifestPath = p } }
func WithKeepORMTags() Option              { return func(o *Options) { o.KeepORMTags = true } }
func WithoutFlattenEmbedded() Option       { return func(o *Options) { o.FlattenEmbedded = false } }
func WithoutEmbedSource() Option           { return func(o *Options) { o.EmbedSource = false } }
func WithoutRelaxRequestSources() Option   { return func(o *Options) { o.RelaxRequestSources = false } }
func WithExcludeDeprecated() Option        { return func(o *Options) { o.ExcludeDeprecated = true } }
func WithExcludeTypes(names ...string) Option {
	return func(o *Options) {
		for _, n := range names {
			o.ExcludeTypes = append(o.ExcludeTypes, strings.TrimSpace(n))
		}
	}
}
func WithExcludeByTag(key, val string) Option {
	return func(o *Options) { o.ExcludeByTags = append(o.ExcludeByTags, TagFilter{Key: key, Value: val}) }
}
