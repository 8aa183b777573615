// Package resolver decides, for every field of a conversion source, which
// view field it populates and how.
//
// Matching is greedy and local: the shortest target name starting with the
// source field name wins, and a match that later fails a check is skipped
// rather than retried against another target.
package resolver

import (
	"strings"

	"github.com/cmmoran/projgen/internal/model"
	"github.com/cmmoran/projgen/internal/naming"
	"github.com/cmmoran/projgen/internal/projector"
)

// Strategy is how a source field is carried into its target.
type Strategy int

const (
	Skipped Strategy = iota
	DirectAssign
	NestedPathAssign
	CollectionClone
	CollectionCopy
	CollectionElementProject
	NestedTypeProject
)

func (s Strategy) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case DirectAssign:
		return "direct"
	case NestedPathAssign:
		return "nested_path"
	case CollectionClone:
		return "collection_clone"
	case CollectionCopy:
		return "collection_copy"
	case CollectionElementProject:
		return "collection_element_project"
	case NestedTypeProject:
		return "nested_type_project"
	default:
		return "unknown"
	}
}

// Reason explains a Skipped resolution.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNoMatch
	ReasonClaimed
	ReasonDeferred
	ReasonNoAccessor
	ReasonVoidAccessor
	ReasonNotEligible
	ReasonFinalTarget
	ReasonNoNestedPath
	ReasonNoConstructor
	ReasonTypeMismatch
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonNoMatch:
		return "no target field starts with the source name"
	case ReasonClaimed:
		return "target already populated by an earlier field"
	case ReasonDeferred:
		return "target populated by the source field of the same name"
	case ReasonNoAccessor:
		return "no accessor"
	case ReasonVoidAccessor:
		return "accessor is not a getter"
	case ReasonNotEligible:
		return "accessor not visible to the view"
	case ReasonFinalTarget:
		return "target is final"
	case ReasonNoNestedPath:
		return "no nested property matches the name remainder"
	case ReasonNoConstructor:
		return "no constructor projects the source type"
	case ReasonTypeMismatch:
		return "types are incompatible"
	default:
		return "unknown"
	}
}

// Adapt converts between pointer and value forms of the same type.
type Adapt int

const (
	AdaptNone  Adapt = iota
	AdaptDeref       // *x
	AdaptAddr        // pointer to a copy of x
)

// adaptFor returns how a value of from becomes a value of to, when they
// differ only in pointer-ness.
func adaptFor(from, to *model.TypeModel) (Adapt, bool) {
	if from.Equal(to) {
		return AdaptNone, true
	}
	if !model.Value(from).Equal(model.Value(to)) {
		return AdaptNone, false
	}
	if from.Pointer {
		return AdaptDeref, true
	}
	return AdaptAddr, true
}

// Accessor reads a value from an instance: a field or a zero-argument method.
type Accessor struct {
	Name   string
	Method bool
	Type   *model.TypeModel
}

// Ctor is the function a nested value or collection element is projected
// through.
type Ctor struct {
	PkgPath string
	PkgName string
	Name    string
	Param   *model.TypeModel
	Result  *model.TypeModel
	// ParamAdapt converts the source value into Param.
	ParamAdapt Adapt
}

// Resolution is the decision for one source field.
type Resolution struct {
	Source   *model.FieldModel
	Target   *projector.Field
	Strategy Strategy
	Guard    bool
	Reason   Reason

	// Read is the accessor on the conversion parameter.
	Read Accessor
	// Path is the remainder accessor on Read's type for NestedPathAssign.
	Path *Accessor
	// Adapt converts the read (or path) value into the target type.
	Adapt Adapt
	// Ctor projects values for NestedTypeProject and CollectionElementProject.
	Ctor *Ctor
}

// Host resolves declared types to their class shape.
type Host interface {
	Lookup(qualifiedName string) (*model.ClassModel, bool)
}

// Options tune matching.
type Options struct {
	// RelaxRequestSources reads classes that declare a request view through
	// that view's generated getters, which makes every field eligible.
	RelaxRequestSources bool
}

// Resolver matches conversion sources onto views.
type Resolver struct {
	host     Host
	registry *projector.Registry
	opts     Options
}

func New(host Host, registry *projector.Registry, opts Options) *Resolver {
	return &Resolver{host: host, registry: registry, opts: opts}
}

// Result is every resolution for one (view, source) pair.
type Result struct {
	View        *projector.View
	Source      *Source
	Resolutions []*Resolution
	// Hook is the hand-written constructor to transplant, if any.
	Hook    *model.HookModel
	Skipped int
}

// Source is a conversion source as seen by the resolver.
type Source struct {
	Class *model.ClassModel
	// Param is the type of the conversion constructor's parameter.
	Param *model.TypeModel
	// Fields are read in declaration order.
	Fields []*model.FieldModel
	// Request is set when the class is read through its request view.
	Request *projector.View
}

// Name is the simple name the conversion constructor is suffixed with.
func (s *Source) Name() string { return s.Param.Name }

// Source builds the source for t. A class that declares a request view is read
// through that view when RelaxRequestSources is on.
func (r *Resolver) Source(t *model.TypeModel) (*Source, bool) {
	c, ok := r.lookup(t.QualifiedName())
	if !ok {
		return nil, false
	}
	if r.opts.RelaxRequestSources && c.Spec(model.RequestView) != nil {
		if view, err := r.registry.Project(c, model.RequestView); err == nil {
			src := &Source{Class: c, Param: model.Ptr(view.Type()), Request: view}
			for _, f := range view.Fields {
				src.Fields = append(src.Fields, &model.FieldModel{
					Name:          f.Name,
					Type:          f.Type,
					Modifiers:     f.Source.Modifiers,
					SkipNullCheck: f.SkipNullCheck,
				})
			}
			return src, true
		}
	}
	return &Source{Class: c, Param: model.Ptr(c.Type()), Fields: c.Fields}, true
}

func (r *Resolver) lookup(qn string) (*model.ClassModel, bool) {
	if c, ok := r.registry.Class(qn); ok {
		return c, true
	}
	if r.host == nil {
		return nil, false
	}
	return r.host.Lookup(qn)
}

// Resolve produces one Resolution per source field, in source declaration
// order, and picks the hook to transplant.
func (r *Resolver) Resolve(view *projector.View, src *Source) *Result {
	res := &Result{View: view, Source: src}
	claimed := make(map[string]bool, len(view.Fields))

	for _, sf := range src.Fields {
		rs := r.resolveField(view, src, sf, claimed)
		if rs.Strategy == Skipped {
			res.Skipped++
		}
		res.Resolutions = append(res.Resolutions, rs)
	}

	res.Hook = view.Class.Hook(src.Param)
	return res
}

func skip(sf *model.FieldModel, reason Reason) *Resolution {
	return &Resolution{Source: sf, Strategy: Skipped, Reason: reason}
}

// match returns the shortest target whose stem starts with base; the first
// declared wins a tie. Stems compare case-insensitively so that initialisms
// (ID, Id) line up.
func match(view *projector.View, base string) *projector.Field {
	var best *projector.Field
	for _, f := range view.Fields {
		if len(f.Base) < len(base) || !strings.EqualFold(f.Base[:len(base)], base) {
			continue
		}
		if best == nil || len(f.Base) < len(best.Base) {
			best = f
		}
	}
	return best
}

func (r *Resolver) resolveField(view *projector.View, src *Source, sf *model.FieldModel, claimed map[string]bool) *Resolution {
	base := naming.Exported(sf.Name)
	target := match(view, base)
	if target == nil {
		return skip(sf, ReasonNoMatch)
	}
	if claimed[target.Base] {
		return skip(sf, ReasonClaimed)
	}
	exact := strings.EqualFold(target.Base, base)
	if !exact && hasBase(src.Fields, target.Base) {
		return skip(sf, ReasonDeferred)
	}
	// A picked target stays claimed even when the field fails below.
	claimed[target.Base] = true

	read, public, reason := r.accessor(src, sf, view.Class.PkgPath)
	if reason != ReasonNone {
		return skip(sf, reason)
	}
	if !public && !(r.opts.RelaxRequestSources && src.Request != nil && sf.Modifiers.Has(model.Private)) {
		return skip(sf, ReasonNotEligible)
	}
	if target.Final {
		return skip(sf, ReasonFinalTarget)
	}

	rs := &Resolution{Source: sf, Target: target, Read: read}
	noGuard := sf.SkipNullCheck || target.SkipNullCheck

	if !exact {
		return r.nestedPath(rs, target.Base[len(base):], view.Class.PkgPath)
	}

	from, to := read.Type, target.Type
	switch {
	case from.IsCollection() && to.IsCollection():
		if !from.SameRoot(to) {
			return skip(sf, ReasonTypeMismatch)
		}
		if from.Equal(to) {
			return collectionStrategy(rs, noGuard)
		}
		return r.elementProject(rs, noGuard)
	case from.IsCollection() || to.IsCollection():
		return skip(sf, ReasonTypeMismatch)
	}
	if adapt, ok := adaptFor(from, to); ok {
		rs.Strategy = DirectAssign
		rs.Adapt = adapt
		rs.Guard = adapt == AdaptDeref && !noGuard
		return rs
	}
	return r.nestedType(rs, noGuard)
}

func hasBase(fields []*model.FieldModel, base string) bool {
	for _, f := range fields {
		if strings.EqualFold(naming.Exported(f.Name), base) {
			return true
		}
	}
	return false
}

// accessor finds how sf is read from the source. Request-view sources are
// read through generated getters; otherwise a Get<Name> or <Name> method wins
// over the field itself. Visibility is Go's: exported, or declared in the
// view's own package.
func (r *Resolver) accessor(src *Source, sf *model.FieldModel, viewPkg string) (Accessor, bool, Reason) {
	base := naming.Exported(sf.Name)
	if src.Request != nil {
		f := src.Request.FieldByBase(base)
		if f == nil {
			return Accessor{}, false, ReasonNoAccessor
		}
		return Accessor{Name: f.Getter(), Method: true, Type: f.Type}, true, ReasonNone
	}
	return accessorOn(src.Class, sf, viewPkg)
}

func accessorOn(c *model.ClassModel, sf *model.FieldModel, viewPkg string) (Accessor, bool, Reason) {
	base := naming.Exported(sf.Name)
	samePkg := c.PkgPath == viewPkg
	names := []string{naming.Getter(base)}
	if base != sf.Name {
		names = append(names, base)
	}
	for _, name := range names {
		m := c.Method(name)
		if m == nil {
			continue
		}
		if len(m.Params) > 0 || len(m.Results) == 0 {
			return Accessor{}, false, ReasonVoidAccessor
		}
		return Accessor{Name: m.Name, Method: true, Type: m.Results[0]}, m.Exported || samePkg, ReasonNone
	}
	if sf.Type == nil {
		return Accessor{}, false, ReasonNoAccessor
	}
	return Accessor{Name: sf.Name, Type: sf.Type}, sf.IsPublic() || samePkg, ReasonNone
}

// nestedPath handles a target whose name extends the source name: the
// remainder names a property of the source field's own type.
func (r *Resolver) nestedPath(rs *Resolution, remainder, viewPkg string) *Resolution {
	remainder = strings.TrimLeft(remainder, "_")
	parent := rs.Read.Type
	if remainder == "" || !parent.IsDeclared() {
		return skip(rs.Source, ReasonNoNestedPath)
	}
	pc, ok := r.lookup(parent.QualifiedName())
	if !ok {
		return skip(rs.Source, ReasonNoNestedPath)
	}
	var pf *model.FieldModel
	for _, f := range pc.Fields {
		if strings.EqualFold(f.Name, remainder) {
			pf = f
			break
		}
	}
	if pf == nil {
		pf = &model.FieldModel{Name: naming.Unexported(remainder)}
	}
	path, public, reason := accessorOn(pc, pf, viewPkg)
	if reason != ReasonNone || !public {
		return skip(rs.Source, ReasonNoNestedPath)
	}
	adapt, ok := adaptFor(path.Type, rs.Target.Type)
	if !ok || path.Type.IsCollection() != rs.Target.Type.IsCollection() {
		return skip(rs.Source, ReasonNoNestedPath)
	}
	rs.Strategy = NestedPathAssign
	rs.Path = &path
	rs.Adapt = adapt
	rs.Guard = adapt == AdaptDeref && !rs.Source.SkipNullCheck && !rs.Target.SkipNullCheck
	return rs
}

func collectionStrategy(rs *Resolution, noGuard bool) *Resolution {
	if rs.Read.Type.Collection.Ordered() {
		rs.Strategy = CollectionCopy
	} else {
		rs.Strategy = CollectionClone
	}
	rs.Guard = !noGuard
	return rs
}

// elementProject handles slices and sets whose declared elements differ.
func (r *Resolver) elementProject(rs *Resolution, noGuard bool) *Resolution {
	from, to := rs.Read.Type, rs.Target.Type
	if len(from.TypeArgs) != 1 || len(to.TypeArgs) != 1 {
		return skip(rs.Source, ReasonTypeMismatch)
	}
	fe, te := from.TypeArgs[0], to.TypeArgs[0]
	if !fe.IsDeclared() || !te.IsDeclared() {
		return skip(rs.Source, ReasonTypeMismatch)
	}
	if fe.Equal(te) && !r.requestProjected(fe) {
		return collectionStrategy(rs, noGuard)
	}
	ctor := r.constructor(fe, te)
	if ctor == nil {
		return skip(rs.Source, ReasonNoConstructor)
	}
	rs.Strategy = CollectionElementProject
	rs.Ctor = ctor
	rs.Guard = !noGuard
	return rs
}

// nestedType handles a non-collection value projected through a constructor.
func (r *Resolver) nestedType(rs *Resolution, noGuard bool) *Resolution {
	ctor := r.constructor(rs.Read.Type, rs.Target.Type)
	if ctor == nil {
		return skip(rs.Source, ReasonNoConstructor)
	}
	rs.Strategy = NestedTypeProject
	rs.Ctor = ctor
	rs.Guard = rs.Read.Type.Nilable() && !noGuard
	return rs
}

func (r *Resolver) requestProjected(t *model.TypeModel) bool {
	if _, kind, ok := r.registry.ViewOf(t); ok {
		return kind == model.RequestView
	}
	return false
}

// constructor finds a function turning a from value into a to value: either
// a hand-written New* on the target type whose first parameter is from, or
// the generated conversion constructor of a response view listing from as a
// source.
func (r *Resolver) constructor(from, to *model.TypeModel) *Ctor {
	if c, kind, ok := r.registry.ViewOf(to); ok {
		if kind != model.ResponseView || !to.Pointer {
			return nil
		}
		for _, st := range c.Spec(model.ResponseView).Sources {
			src, ok := r.Source(st)
			if !ok || src.Param.QualifiedName() != from.QualifiedName() {
				continue
			}
			adapt, ok := adaptFor(from, src.Param)
			if !ok {
				continue
			}
			return &Ctor{
				PkgPath:    c.PkgPath,
				PkgName:    c.PkgName,
				Name:       ConversionName(to.Name, src),
				Param:      src.Param,
				Result:     to,
				ParamAdapt: adapt,
			}
		}
		return nil
	}

	if !to.IsDeclared() {
		return nil
	}
	tc, ok := r.lookup(to.QualifiedName())
	if !ok {
		return nil
	}
	ctor := tc.ConstructorFor(from, to)
	if ctor == nil || !ctor.Result.Equal(to) {
		return nil
	}
	adapt, ok := adaptFor(from, ctor.Params[0])
	if !ok {
		return nil
	}
	return &Ctor{
		PkgPath:    ctor.PkgPath,
		PkgName:    tc.PkgName,
		Name:       ctor.Name,
		Param:      ctor.Params[0],
		Result:     ctor.Result,
		ParamAdapt: adapt,
	}
}

// ConversionName is the name of the constructor building view from src.
func ConversionName(view string, src *Source) string {
	return "New" + view + "From" + src.Name()
}
