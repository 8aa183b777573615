package model

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/cmmoran/projgen/internal/naming"
)

// Modifiers is a bit set of access and shape modifiers.
type Modifiers uint8

const (
	Public Modifiers = 1 << iota
	Private
	Final
	Abstract
	Embedded
	ReadOnly // gorm read-only or create-only column
)

func (m Modifiers) Has(x Modifiers) bool { return m&x == x }

func (m Modifiers) String() string {
	var parts []string
	for _, x := range []struct {
		m Modifiers
		s string
	}{{Public, "public"}, {Private, "private"}, {Final, "final"}, {Abstract, "abstract"}, {Embedded, "embedded"}, {ReadOnly, "readonly"}} {
		if m.Has(x.m) {
			parts = append(parts, x.s)
		}
	}
	return strings.Join(parts, "|")
}

// ViewKind selects which projection is generated.
type ViewKind int

const (
	RequestView ViewKind = iota
	ResponseView
)

func (k ViewKind) String() string {
	if k == ResponseView {
		return "response"
	}
	return "request"
}

// FieldModel describes one struct field. Fields promoted from flattened
// embedded structs keep their own names.
type FieldModel struct {
	Name               string
	Type               *TypeModel
	Modifiers          Modifiers
	ConstantValue      *string
	SkipNullCheck      bool
	HasInheritedGetter bool
	HasInheritedSetter bool
	Layout             string
	Tags               []*AnnotationModel
	Doc                string
}

func (f *FieldModel) IsPublic() bool { return f.Modifiers.Has(Public) }

func (f *FieldModel) IsFinal() bool { return f.Modifiers.Has(Final) }

// MethodModel is a method in the method set of *T.
type MethodModel struct {
	Name     string
	Exported bool
	Params   []*TypeModel
	Results  []*TypeModel
}

// ConstructorModel is a package-level New* function returning T or *T.
type ConstructorModel struct {
	Name     string
	PkgPath  string
	Params   []*TypeModel
	Result   *TypeModel
	Variadic bool
}

// HookModel is a hand-written From* method on a class taking exactly one
// parameter. Its statements are transplanted into conversion constructors
// built from the same parameter type.
type HookModel struct {
	Name         string
	ReceiverName string
	ParamName    string
	ParamType    *TypeModel
	Body         *ast.BlockStmt
	Fset         *token.FileSet
	Imports      map[string]string // local name -> import path of the declaring file
}

// ProjectionSpec is the parsed form of one projgen directive on a class.
type ProjectionSpec struct {
	Kind       ViewKind
	Policy     naming.Policy
	Serializer bool
	Bag        bool
	Sources    []*TypeModel
}

// ClassModel is the full shape of a directive-marked struct, or of any struct
// the host was asked to look up.
type ClassModel struct {
	PkgPath             string
	PkgName             string
	Name                string
	Dir                 string
	Modifiers           Modifiers
	SuperType           *TypeModel
	Fields              []*FieldModel
	Methods             []*MethodModel
	Constructors        []*ConstructorModel
	Hooks               []*HookModel
	HasNoArgConstructor bool
	NoArgConstructor    *ConstructorModel
	Annotations         []*AnnotationModel
	Specs               []*ProjectionSpec
	Doc                 string
}

func (c *ClassModel) QualifiedName() string {
	if c.PkgPath == "" {
		return c.Name
	}
	return c.PkgPath + "." + c.Name
}

// Type returns the TypeModel naming c.
func (c *ClassModel) Type() *TypeModel {
	return Declared(c.PkgPath, c.PkgName, c.Name)
}

func (c *ClassModel) IsAbstract() bool { return c.Modifiers.Has(Abstract) }

// Field returns the field named name.
func (c *ClassModel) Field(name string) *FieldModel {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldByBase returns the field whose exported form equals base.
func (c *ClassModel) FieldByBase(base string) *FieldModel {
	for _, f := range c.Fields {
		if naming.Exported(f.Name) == base {
			return f
		}
	}
	return nil
}

func (c *ClassModel) Method(name string) *MethodModel {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Spec returns the projection spec of the given kind, if declared.
func (c *ClassModel) Spec(kind ViewKind) *ProjectionSpec {
	for _, s := range c.Specs {
		if s.Kind == kind {
			return s
		}
	}
	return nil
}

// ConstructorFor finds a constructor whose first parameter has the qualified
// name of param and which produces a value of the qualified name of result.
// Pointer-ness is left to the caller to adapt.
func (c *ClassModel) ConstructorFor(param, result *TypeModel) *ConstructorModel {
	for _, ctor := range c.Constructors {
		if len(ctor.Params) == 0 || ctor.Result == nil {
			continue
		}
		if len(ctor.Params) > 1 && !(len(ctor.Params) == 2 && ctor.Variadic) {
			continue
		}
		if ctor.Params[0].QualifiedName() != param.QualifiedName() || ctor.Params[0].Collection != param.Collection {
			continue
		}
		if ctor.Result.QualifiedName() != result.QualifiedName() {
			continue
		}
		return ctor
	}
	return nil
}

// Hook returns the transplant hook accepting exactly param.
func (c *ClassModel) Hook(param *TypeModel) *HookModel {
	for _, h := range c.Hooks {
		if h.ParamType.Equal(param) {
			return h
		}
	}
	return nil
}
