package model

import (
	"slices"
	"strings"
)

// Kind classifies a TypeModel.
type Kind int

const (
	KindScalar     Kind = iota // string, int, bool, any, func types, etc.
	KindDeclared               // named type declared in some package
	KindCollection             // slice, set or map
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindDeclared:
		return "declared"
	case KindCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// Collection is the allow-list of collection shapes the resolver knows how to
// copy, clone or project.
type Collection int

const (
	CollectionNone Collection = iota
	CollectionList            // []T
	CollectionSet             // map[T]struct{}
	CollectionMap             // map[K]V
)

func (c Collection) String() string {
	switch c {
	case CollectionList:
		return "slice"
	case CollectionSet:
		return "set"
	case CollectionMap:
		return "map"
	default:
		return ""
	}
}

// Ordered reports whether the collection keeps insertion order.
func (c Collection) Ordered() bool { return c == CollectionList }

// TypeModel is an immutable description of a Go type as far as projection
// cares about it.
type TypeModel struct {
	PkgPath     string // "" for builtins and collections
	PkgName     string // package name used when rendering a qualifier
	Name        string // simple name, or the collection shape name
	Kind        Kind
	Collection  Collection
	Pointer     bool
	TypeArgs    []*TypeModel
	Annotations []*AnnotationModel
}

// Scalar returns a builtin scalar type such as string or int64.
func Scalar(name string) *TypeModel {
	return &TypeModel{Name: name, Kind: KindScalar}
}

// Declared returns a named type declared in pkgPath.
func Declared(pkgPath, pkgName, name string, args ...*TypeModel) *TypeModel {
	return &TypeModel{PkgPath: pkgPath, PkgName: pkgName, Name: name, Kind: KindDeclared, TypeArgs: args}
}

// List returns []elem.
func List(elem *TypeModel) *TypeModel {
	return &TypeModel{Name: CollectionList.String(), Kind: KindCollection, Collection: CollectionList, TypeArgs: []*TypeModel{elem}}
}

// Set returns map[key]struct{}.
func Set(key *TypeModel) *TypeModel {
	return &TypeModel{Name: CollectionSet.String(), Kind: KindCollection, Collection: CollectionSet, TypeArgs: []*TypeModel{key}}
}

// Map returns map[key]value.
func Map(key, value *TypeModel) *TypeModel {
	return &TypeModel{Name: CollectionMap.String(), Kind: KindCollection, Collection: CollectionMap, TypeArgs: []*TypeModel{key, value}}
}

// Ptr returns a copy of t with the pointer flag set.
func Ptr(t *TypeModel) *TypeModel {
	c := t.Clone()
	c.Pointer = true
	return c
}

// Value returns a copy of t with the pointer flag cleared.
func Value(t *TypeModel) *TypeModel {
	c := t.Clone()
	c.Pointer = false
	return c
}

// QualifiedName is the package path joined with the simple name.
func (t *TypeModel) QualifiedName() string {
	if t == nil {
		return ""
	}
	if t.PkgPath == "" {
		return t.Name
	}
	return t.PkgPath + "." + t.Name
}

func (t *TypeModel) IsCollection() bool { return t != nil && t.Kind == KindCollection }

func (t *TypeModel) IsDeclared() bool { return t != nil && t.Kind == KindDeclared }

// Nilable reports whether a nil check is meaningful for values of t.
func (t *TypeModel) Nilable() bool {
	if t == nil {
		return false
	}
	return t.Pointer || t.Kind == KindCollection || t.Name == "any" || t.Name == "error"
}

// Elem returns the single element of a slice or set, or the value type of a map.
func (t *TypeModel) Elem() *TypeModel {
	if t == nil || len(t.TypeArgs) == 0 {
		return nil
	}
	return t.TypeArgs[len(t.TypeArgs)-1]
}

// SameRoot reports whether t and o share qualified name, collection shape
// and pointer-ness. Type arguments are not compared.
func (t *TypeModel) SameRoot(o *TypeModel) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.QualifiedName() == o.QualifiedName() && t.Pointer == o.Pointer && t.Collection == o.Collection
}

// Equal compares t and o deeply, ignoring annotations.
func (t *TypeModel) Equal(o *TypeModel) bool {
	if !t.SameRoot(o) || t == nil {
		return t == o
	}
	return slices.EqualFunc(t.TypeArgs, o.TypeArgs, func(a, b *TypeModel) bool { return a.Equal(b) })
}

// Clone deep-copies the type graph. Annotations are shared.
func (t *TypeModel) Clone() *TypeModel {
	if t == nil {
		return nil
	}
	c := *t
	if len(t.TypeArgs) > 0 {
		c.TypeArgs = make([]*TypeModel, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			c.TypeArgs[i] = a.Clone()
		}
	}
	return &c
}

// Imports collects package paths referenced by t, its type arguments and its
// annotations into dst (path -> package name).
func (t *TypeModel) Imports(dst map[string]string) {
	if t == nil {
		return
	}
	if t.PkgPath != "" {
		dst[t.PkgPath] = t.PkgName
	}
	for _, a := range t.TypeArgs {
		a.Imports(dst)
	}
	for _, an := range t.Annotations {
		an.imports(dst)
	}
}

// String renders t with package names as qualifiers, e.g. []*store.Group.
func (t *TypeModel) String() string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	if t.Pointer {
		b.WriteByte('*')
	}
	switch t.Collection {
	case CollectionList:
		b.WriteString("[]")
		b.WriteString(t.Elem().String())
		return b.String()
	case CollectionSet:
		b.WriteString("map[" + t.TypeArgs[0].String() + "]struct{}")
		return b.String()
	case CollectionMap:
		b.WriteString("map[" + t.TypeArgs[0].String() + "]" + t.TypeArgs[1].String())
		return b.String()
	}
	if t.PkgName != "" {
		b.WriteString(t.PkgName + ".")
	}
	b.WriteString(t.Name)
	if t.Kind == KindDeclared && len(t.TypeArgs) > 0 {
		args := make([]string, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			args[i] = a.String()
		}
		b.WriteString("[" + strings.Join(args, ", ") + "]")
	}
	return b.String()
}

// AnnotationModel is a piece of metadata carried by a type, field or class:
// a struct tag key, or a projgen directive.
type AnnotationModel struct {
	Name            string
	Parameters      map[string]string
	RequiredImports []string
}

// Value returns the "value" parameter.
func (a *AnnotationModel) Value() string {
	if a == nil {
		return ""
	}
	return a.Parameters["value"]
}

func (a *AnnotationModel) imports(dst map[string]string) {
	for _, p := range a.RequiredImports {
		if _, ok := dst[p]; ok {
			continue
		}
		if name, ok := a.Parameters[p]; ok {
			dst[p] = name
			continue
		}
		dst[p] = p[strings.LastIndex(p, "/")+1:]
	}
}

// Artifact is one generated source file.
type Artifact struct {
	Name    string // qualified name of the generated view
	Class   string // qualified name of the class it was derived from
	PkgPath string
	Path    string // file path the artifact should be written to
	Source  []byte
}
