// Package synth turns resolutions into a small statement representation
// that the emitter renders. Nothing here produces source text.
package synth

import (
	"go/ast"
	"go/token"

	"github.com/cmmoran/projgen/internal/model"
)

// Expr is a synthesized expression.
type Expr interface {
	imports(dst map[string]string)
}

// Stmt is a synthesized statement.
type Stmt interface {
	imports(dst map[string]string)
}

// Ident is a local identifier.
type Ident struct{ Name string }

// Qual is a package-level identifier, rendered with an import qualifier when
// it lives in another package.
type Qual struct {
	PkgPath string
	PkgName string
	Name    string
}

// Select is X.Name, or X.Name() when Call is set.
type Select struct {
	X    Expr
	Name string
	Call bool
}

// Call is Fun(Args...).
type Call struct {
	Fun  Expr
	Args []Expr
}

// Deref is *X.
type Deref struct{ X Expr }

// Zero is &T{}, the inline default used to coalesce a nil parent.
type Zero struct{ Type *model.TypeModel }

// AddrOf is a pointer to a copy of X: func() *T { v := X; return &v }().
type AddrOf struct {
	X    Expr
	Type *model.TypeModel
}

// Func is func(Param ParamType) Result { return Body }.
type Func struct {
	Param     string
	ParamType *model.TypeModel
	Result    *model.TypeModel
	Body      Expr
}

// Set calls the setter Method on Recv with Value.
type Set struct {
	Recv   string
	Method string
	Value  Expr
}

// Guard runs Body only when Subject is not nil.
type Guard struct {
	Subject Expr
	Body    []Stmt
}

// Raw is a statement transplanted from a hand-written hook, already
// rewritten for the view.
type Raw struct {
	Node    ast.Stmt
	Fset    *token.FileSet
	Imports map[string]string
}

func (Ident) imports(map[string]string) {}

func (q Qual) imports(dst map[string]string) {
	if q.PkgPath != "" {
		dst[q.PkgPath] = q.PkgName
	}
}

func (s Select) imports(dst map[string]string) { s.X.imports(dst) }

func (c Call) imports(dst map[string]string) {
	c.Fun.imports(dst)
	for _, a := range c.Args {
		a.imports(dst)
	}
}

func (d Deref) imports(dst map[string]string) { d.X.imports(dst) }

func (z Zero) imports(dst map[string]string) { z.Type.Imports(dst) }

func (a AddrOf) imports(dst map[string]string) {
	a.X.imports(dst)
	a.Type.Imports(dst)
}

func (f Func) imports(dst map[string]string) {
	f.ParamType.Imports(dst)
	f.Result.Imports(dst)
	f.Body.imports(dst)
}

func (s Set) imports(dst map[string]string) { s.Value.imports(dst) }

func (g Guard) imports(dst map[string]string) {
	g.Subject.imports(dst)
	for _, s := range g.Body {
		s.imports(dst)
	}
}

func (r Raw) imports(dst map[string]string) {
	for p, n := range r.Imports {
		dst[p] = n
	}
}

// Imports returns the packages a statement sequence references.
func Imports(stmts ...Stmt) map[string]string {
	dst := make(map[string]string)
	for _, s := range stmts {
		s.imports(dst)
	}
	return dst
}
