// Package generator drives a projgen run: it loads directive-marked classes,
// projects them into request and response views, synthesizes conversions and
// serializers and hands the rendered files to an ArtifactWriter.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmmoran/projgen/internal/diagnostic"
	"github.com/cmmoran/projgen/internal/emitter"
	"github.com/cmmoran/projgen/internal/model"
	"github.com/cmmoran/projgen/internal/parser"
	"github.com/cmmoran/projgen/internal/projector"
	"github.com/cmmoran/projgen/internal/resolver"
	"github.com/cmmoran/projgen/internal/synth"
)

// Host enumerates the directive-marked classes of a program and resolves any
// other declared type by qualified name.
type Host interface {
	Classes() []*model.ClassModel
	Lookup(qualifiedName string) (*model.ClassModel, bool)
}

// Report is the outcome of one run.
type Report struct {
	Artifacts   []*model.Artifact
	Diagnostics diagnostic.Diagnostics
}

type Generator struct {
	opts   *Options
	log    *slog.Logger
	host   Host
	writer ArtifactWriter
}

// Load reads the module rooted at opts.InDir and returns it as a Host.
func Load(ctx context.Context, opts *Options, log *slog.Logger) (Host, error) {
	if log == nil {
		log = slog.Default()
	}
	p, err := parser.New(parser.Config{
		Dir:               opts.InDir,
		Patterns:          opts.Patterns,
		FlattenEmbedded:   opts.FlattenEmbedded,
		ExcludeTypes:      opts.ExcludeTypes,
		ExcludeDeprecated: opts.ExcludeDeprecated,
		ExcludeByTags:     opts.ExcludeByTags,
		Logger:            log,
	})
	if err != nil {
		return nil, err
	}
	if err := p.Load(ctx); err != nil {
		return nil, fmt.Errorf("load %s: %w", opts.InDir, err)
	}
	return p, nil
}

func New(host Host, writer ArtifactWriter, opts *Options, log *slog.Logger) *Generator {
	if opts == nil {
		opts = NewOptions()
	}
	if writer == nil {
		writer = FileWriter{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Generator{opts: opts, log: log, host: host, writer: writer}
}

// Run generates every declared view. A class that fails validation or
// rendering is reported and skipped; the batch always completes.
func (g *Generator) Run() *Report {
	rep := &Report{}
	if d, ok := g.host.(interface{ Diagnostics() diagnostic.Diagnostics }); ok {
		rep.Diagnostics.Merge(d.Diagnostics())
	}

	reg := projector.NewRegistry(projector.Options{
		RequestSuffix:  g.opts.RequestSuffix,
		ResponseSuffix: g.opts.ResponseSuffix,
		KeepORMTags:    g.opts.KeepORMTags,
	})
	for _, c := range g.host.Classes() {
		reg.Add(c)
	}
	res := resolver.New(g.host, reg, resolver.Options{RelaxRequestSources: g.opts.RelaxRequestSources})
	em := emitter.New(emitter.Options{EmbedSource: g.opts.EmbedSource, FileSuffix: g.opts.FileSuffix})

	for _, c := range reg.Classes() {
		for _, spec := range c.Specs {
			art, ok := g.generate(c, spec.Kind, reg, res, em, &rep.Diagnostics)
			if !ok {
				continue
			}
			if err := g.writer.Write(art); err != nil {
				g.log.Error("artifact write failed", "artifact", art.Name, "path", art.Path, "error", err)
				rep.Diagnostics.AddError(diagnostic.CodeArtifactWriteFailure,
					fmt.Errorf("%w: %w", emitter.ErrArtifactWriteFailure, err).Error(), c.QualifiedName(), "")
				continue
			}
			g.log.Debug("wrote artifact", "artifact", art.Name, "path", art.Path)
			rep.Artifacts = append(rep.Artifacts, art)
		}
	}
	return rep
}

func (g *Generator) generate(c *model.ClassModel, kind model.ViewKind, reg *projector.Registry, res *resolver.Resolver, em *emitter.Emitter, diags diagnostic.Reporter) (*model.Artifact, bool) {
	qn := c.QualifiedName()
	if errs := emitter.Validate(c, kind); len(errs) > 0 {
		for _, e := range errs {
			g.log.Debug("validation failed", "class", qn, "kind", kind, "error", e)
			diags.Report(e.Diagnostic())
		}
		return nil, false
	}

	view, err := reg.Project(c, kind)
	if err != nil {
		diags.Report(projectionFailure(qn, err))
		return nil, false
	}
	in := emitter.Input{View: view}

	if kind == model.ResponseView {
		for _, t := range view.Spec.Sources {
			src, ok := res.Source(t)
			if !ok {
				diags.Report(diagnostic.Diagnostic{
					Severity: diagnostic.SeverityWarning,
					Code:     diagnostic.CodeUnknownSource,
					Message:  "cannot resolve conversion source " + t.String(),
					Class:    qn,
				})
				continue
			}
			result := res.Resolve(view, src)
			conv, err := synth.Synthesize(result)
			if err != nil {
				diags.Report(projectionFailure(qn, err))
				continue
			}
			diags.Report(omitted(qn, conv.Name, result))
			in.Conversions = append(in.Conversions, conv)
		}
		if view.Spec.Serializer {
			in.Serializer = synth.SynthesizeSerializer(view)
		}
	}

	art, err := em.Emit(in)
	if err != nil {
		diags.Report(projectionFailure(qn, err))
		return nil, false
	}
	return art, true
}

func projectionFailure(class string, err error) diagnostic.Diagnostic {
	return diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Code:     diagnostic.CodeProjectionFailure,
		Message:  err.Error(),
		Class:    class,
	}
}

// omitted summarizes the source fields a conversion leaves out. It is a
// warning when anything was skipped and informational otherwise.
func omitted(class, ctor string, res *resolver.Result) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityInfo,
		Code:     diagnostic.CodeFieldsOmitted,
		Class:    class,
	}
	if res.Skipped == 0 {
		d.Message = ctor + ": no source fields omitted"
		return d
	}
	d.Severity = diagnostic.SeverityWarning
	parts := make([]string, 0, res.Skipped)
	for _, rs := range res.Resolutions {
		if rs.Strategy == resolver.Skipped {
			parts = append(parts, fmt.Sprintf("%s (%s)", rs.Source.Name, rs.Reason))
		}
	}
	d.Message = fmt.Sprintf("%s: %d source fields omitted: %s", ctor, res.Skipped, strings.Join(parts, ", "))
	return d
}
