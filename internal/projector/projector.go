// Package projector derives the field shape of request and response views
// from a ClassModel.
package projector

import (
	"fmt"

	"github.com/cmmoran/projgen/internal/model"
	"github.com/cmmoran/projgen/internal/naming"
)

// ormTagKeys are dropped from view fields unless Options.KeepORMTags is set.
var ormTagKeys = map[string]bool{"gorm": true, "db": true, "bun": true, "sql": true, "pg": true}

// dropTagKeys are never copied: json is regenerated from the naming policy and
// projgen only drives generation.
var dropTagKeys = map[string]bool{"json": true, "projgen": true}

// Options control how fields are projected.
type Options struct {
	RequestSuffix  string
	ResponseSuffix string
	KeepORMTags    bool
}

// Field is one projected view field.
type Field struct {
	Name    string // domain field name
	Base    string // exported accessor stem
	Storage string // identifier of the storage field on the view
	Key     string // wire key under the view's naming policy
	// Type is the exposed get/set type with projectable types substituted.
	Type *model.TypeModel
	// Wrapped fields are stored as *Type so unset can be told apart from zero.
	Wrapped         bool
	Projected       bool
	Tag             map[string]string
	Default         *string
	Final           bool
	Layout          string
	SkipNullCheck   bool
	InheritedGetter bool
	InheritedSetter bool
	Source          *model.FieldModel
}

func (f *Field) Getter() string   { return naming.Getter(f.Base) }
func (f *Field) GetterOr() string { return naming.GetterOr(f.Base) }
func (f *Field) Setter() string   { return naming.Setter(f.Base) }
func (f *Field) Clear() string    { return naming.Clear(f.Base) }

// Has returns the has-value predicate, empty when the view does not wrap.
func (f *Field) Has() string {
	if !f.Wrapped {
		return ""
	}
	return naming.Has(f.Base)
}

// View is the projected shape of one class for one view kind.
type View struct {
	Class   *model.ClassModel
	Spec    *model.ProjectionSpec
	Kind    model.ViewKind
	Name    string
	Wrapped bool
	Fields  []*Field
	// Imports maps package path to package name for every type the view's
	// fields reference.
	Imports map[string]string
}

// Type returns the TypeModel naming the view.
func (v *View) Type() *model.TypeModel {
	return model.Declared(v.Class.PkgPath, v.Class.PkgName, v.Name)
}

// Field returns the projected field for the domain field name.
func (v *View) Field(name string) *Field {
	for _, f := range v.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldByBase returns the projected field with the given accessor stem.
func (v *View) FieldByBase(base string) *Field {
	for _, f := range v.Fields {
		if f.Base == base {
			return f
		}
	}
	return nil
}

// Registry knows every class carrying a projection spec so that nested
// references to them can be substituted by their view types.
type Registry struct {
	opts    Options
	classes map[string]*model.ClassModel
	views   map[string]viewRef
	order   []*model.ClassModel
}

type viewRef struct {
	class *model.ClassModel
	kind  model.ViewKind
}

func NewRegistry(opts Options) *Registry {
	if opts.RequestSuffix == "" {
		opts.RequestSuffix = "Request"
	}
	if opts.ResponseSuffix == "" {
		opts.ResponseSuffix = "Response"
	}
	return &Registry{
		opts:    opts,
		classes: make(map[string]*model.ClassModel),
		views:   make(map[string]viewRef),
	}
}

// Add registers c and the view names its specs produce.
func (r *Registry) Add(c *model.ClassModel) {
	qn := c.QualifiedName()
	if _, ok := r.classes[qn]; ok {
		return
	}
	r.classes[qn] = c
	r.order = append(r.order, c)
	for _, s := range c.Specs {
		r.views[c.PkgPath+"."+r.ViewName(c, s.Kind)] = viewRef{class: c, kind: s.Kind}
	}
}

// Classes returns registered classes in registration order.
func (r *Registry) Classes() []*model.ClassModel { return r.order }

func (r *Registry) Class(qualifiedName string) (*model.ClassModel, bool) {
	c, ok := r.classes[qualifiedName]
	return c, ok
}

// ViewName returns the generated type name of c's view of kind.
func (r *Registry) ViewName(c *model.ClassModel, kind model.ViewKind) string {
	if kind == model.ResponseView {
		return c.Name + r.opts.ResponseSuffix
	}
	return c.Name + r.opts.RequestSuffix
}

// ViewOf reports which class and kind a generated view type belongs to.
func (r *Registry) ViewOf(t *model.TypeModel) (*model.ClassModel, model.ViewKind, bool) {
	ref, ok := r.views[t.QualifiedName()]
	if !ok {
		return nil, 0, false
	}
	return ref.class, ref.kind, true
}

// projectedKind chooses which view of a registered class a nested reference
// is substituted by: the only declared one, or the one matching prefer.
func projectedKind(c *model.ClassModel, prefer model.ViewKind) (model.ViewKind, bool) {
	switch len(c.Specs) {
	case 0:
		return 0, false
	case 1:
		return c.Specs[0].Kind, true
	}
	if c.Spec(prefer) != nil {
		return prefer, true
	}
	return c.Specs[0].Kind, true
}

// Substitute replaces every registered class in t, at the root and inside
// type arguments, by its view type. Substituted views are always pointers.
// It reports whether anything was replaced.
func (r *Registry) Substitute(t *model.TypeModel, prefer model.ViewKind) (*model.TypeModel, bool) {
	if t == nil {
		return nil, false
	}
	out := t.Clone()
	changed := false
	for i, a := range out.TypeArgs {
		if sub, ok := r.Substitute(a, prefer); ok {
			out.TypeArgs[i] = sub
			changed = true
		}
	}
	if out.Kind != model.KindDeclared {
		return out, changed
	}
	c, ok := r.classes[out.QualifiedName()]
	if !ok {
		return out, changed
	}
	kind, ok := projectedKind(c, prefer)
	if !ok {
		return out, changed
	}
	out.Name = r.ViewName(c, kind)
	out.Pointer = true
	return out, true
}

// Project builds the view of c for kind. Fields keep declaration order; a
// duplicate accessor stem keeps the first field.
func (r *Registry) Project(c *model.ClassModel, kind model.ViewKind) (*View, error) {
	spec := c.Spec(kind)
	if spec == nil {
		return nil, fmt.Errorf("%s declares no %s view", c.QualifiedName(), kind)
	}
	v := &View{
		Class:   c,
		Spec:    spec,
		Kind:    kind,
		Name:    r.ViewName(c, kind),
		Wrapped: kind == model.RequestView || spec.Serializer,
		Fields:  make([]*Field, 0, len(c.Fields)),
		Imports: make(map[string]string),
	}

	seen := make(map[string]bool, len(c.Fields))
	for _, fm := range c.Fields {
		base := naming.Exported(fm.Name)
		if seen[base] {
			continue
		}
		seen[base] = true

		typ, projected := r.Substitute(fm.Type, kind)
		f := &Field{
			Name:            fm.Name,
			Base:            base,
			Key:             naming.Convert(fm.Name, spec.Policy),
			Type:            typ,
			Wrapped:         v.Wrapped,
			Projected:       projected,
			Default:         fm.ConstantValue,
			Final:           fm.IsFinal() || (kind == model.RequestView && fm.Modifiers.Has(model.ReadOnly)),
			SkipNullCheck:   fm.SkipNullCheck,
			InheritedGetter: fm.HasInheritedGetter,
			InheritedSetter: fm.HasInheritedSetter,
			Source:          fm,
		}
		if kind == model.RequestView && fm.Layout != "" && typ.QualifiedName() == "time.Time" && !typ.Pointer {
			f.Layout = fm.Layout
		}
		if v.Wrapped {
			f.Storage = naming.Unexported(base)
		} else {
			f.Storage = base
		}
		f.Tag = r.tag(f, fm, v.Wrapped)

		typ.Imports(v.Imports)
		for _, an := range fm.Tags {
			(&model.TypeModel{Annotations: []*model.AnnotationModel{an}}).Imports(v.Imports)
		}
		if f.Layout != "" {
			v.Imports["time"] = "time"
		}
		v.Fields = append(v.Fields, f)
	}
	delete(v.Imports, c.PkgPath)
	return v, nil
}

// tag collects the preserved struct tags of fm. Unwrapped views serialize
// through encoding/json, so they also get a json key.
func (r *Registry) tag(f *Field, fm *model.FieldModel, wrapped bool) map[string]string {
	tags := make(map[string]string)
	if !wrapped {
		tags["json"] = f.Key
	}
	for _, an := range fm.Tags {
		if dropTagKeys[an.Name] || (!r.opts.KeepORMTags && ormTagKeys[an.Name]) {
			continue
		}
		tags[an.Name] = an.Value()
	}
	return tags
}
