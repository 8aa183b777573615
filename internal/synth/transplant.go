package synth

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"slices"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/cmmoran/projgen/internal/model"
	"github.com/cmmoran/projgen/internal/projector"
)

var (
	// ErrNameConflict is returned when a hook declares a name the transplanted
	// code needs for the view or the conversion parameter.
	ErrNameConflict = errors.New("hook declares a reserved identifier")
	// ErrFieldAddress is returned when a hook takes the address of a field
	// the view only exposes through accessors.
	ErrFieldAddress = errors.New("hook takes the address of an accessor-backed field")
	// ErrFieldWrite is returned for field writes that cannot become
	// statements of their own, such as a tuple assignment in an if header.
	ErrFieldWrite = errors.New("hook writes a field where no statement can be inserted")
)

var assignOps = map[token.Token]token.Token{
	token.ADD_ASSIGN: token.ADD,
	token.SUB_ASSIGN: token.SUB,
	token.MUL_ASSIGN: token.MUL,
	token.QUO_ASSIGN: token.QUO,
	token.REM_ASSIGN: token.REM,
	token.AND_ASSIGN: token.AND,
	token.OR_ASSIGN:  token.OR,
	token.XOR_ASSIGN: token.XOR,
	token.SHL_ASSIGN: token.SHL,
	token.SHR_ASSIGN: token.SHR,
}

type transplanter struct {
	recv, param  string
	domain, view string
	wrapped      bool
	fields       map[string]*projector.Field
	fileImports  map[string]string
	used         map[string]string
	names        map[string]bool
	temps        int
	err          error
}

// Transplant copies the statements of hook into the view's conversion
// constructor. The hook parameter becomes from, the receiver becomes v, the
// domain type name becomes the view name, and writes to projected fields go
// through setters when the view wraps its fields. A bare return ends the
// constructor early with the view built so far. String literals are never
// touched.
func Transplant(hook *model.HookModel, view *projector.View) ([]Stmt, error) {
	if hook == nil || hook.Body == nil {
		return nil, nil
	}
	fset := token.NewFileSet()
	body, err := reparse(hook, fset)
	if err != nil {
		return nil, err
	}

	t := &transplanter{
		recv:        hook.ReceiverName,
		param:       hook.ParamName,
		domain:      view.Class.Name,
		view:        view.Name,
		wrapped:     view.Wrapped,
		fields:      make(map[string]*projector.Field, len(view.Fields)),
		fileImports: hook.Imports,
		used:        make(map[string]string),
		names:       make(map[string]bool),
	}
	for _, f := range view.Fields {
		t.fields[f.Name] = f
	}
	if err := t.checkNames(body); err != nil {
		return nil, err
	}

	astutil.Apply(body, t.rewrite, nil)
	if t.err != nil {
		return nil, t.err
	}
	astutil.Apply(body, t.returns, nil)

	out := make([]Stmt, 0, len(body.List))
	for _, s := range body.List {
		out = append(out, Raw{Node: s, Fset: fset, Imports: t.used})
	}
	return out, nil
}

// reparse prints the hook body and parses it again so every transplant
// rewrites a private copy of the tree.
func reparse(hook *model.HookModel, fset *token.FileSet) (*ast.BlockStmt, error) {
	var buf bytes.Buffer
	pfset := hook.Fset
	if pfset == nil {
		pfset = token.NewFileSet()
	}
	if err := printer.Fprint(&buf, pfset, hook.Body); err != nil {
		return nil, fmt.Errorf("print hook body: %w", err)
	}
	src := "package p\nfunc _() " + buf.String()
	f, err := parser.ParseFile(fset, "", src, 0)
	if err != nil {
		return nil, fmt.Errorf("parse hook body: %w", err)
	}
	return f.Decls[0].(*ast.FuncDecl).Body, nil
}

func (t *transplanter) checkNames(body *ast.BlockStmt) error {
	var err error
	ast.Inspect(body, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok || err != nil {
			return err == nil
		}
		t.names[id.Name] = true
		if (id.Name == ReceiverName && t.recv != ReceiverName) || (id.Name == ParamName && t.param != ParamName) {
			err = fmt.Errorf("%w: %s", ErrNameConflict, id.Name)
		}
		return true
	})
	return err
}

// recvField returns the projected field when e is recv.<field>.
func (t *transplanter) recvField(e ast.Expr) *projector.Field {
	sel, ok := e.(*ast.SelectorExpr)
	if !ok || t.recv == "" {
		return nil
	}
	x, ok := sel.X.(*ast.Ident)
	if !ok || x.Name != t.recv {
		return nil
	}
	return t.fields[sel.Sel.Name]
}

func (t *transplanter) load(f *projector.Field) ast.Expr {
	return &ast.CallExpr{Fun: &ast.SelectorExpr{X: ast.NewIdent(ReceiverName), Sel: ast.NewIdent(f.Getter())}}
}

// store writes value to f. The statement is placed at pos so the printer
// keeps the hook's line layout.
func (t *transplanter) store(pos token.Pos, f *projector.Field, value ast.Expr) ast.Stmt {
	recv := &ast.Ident{NamePos: pos, Name: ReceiverName}
	if t.wrapped {
		return &ast.ExprStmt{X: &ast.CallExpr{
			Fun:  &ast.SelectorExpr{X: recv, Sel: ast.NewIdent(f.Setter())},
			Args: []ast.Expr{value},
		}}
	}
	lhs := &ast.SelectorExpr{X: recv, Sel: ast.NewIdent(f.Storage)}
	return &ast.AssignStmt{Lhs: []ast.Expr{lhs}, Tok: token.ASSIGN, Rhs: []ast.Expr{value}}
}

func (t *transplanter) temp(pos token.Pos) *ast.Ident {
	for {
		name := fmt.Sprintf("tmp%d", t.temps)
		t.temps++
		if !t.names[name] {
			t.names[name] = true
			return &ast.Ident{NamePos: pos, Name: name}
		}
	}
}

func (t *transplanter) fail(err error) {
	if t.err == nil {
		t.err = err
	}
}

// tuple splits an assignment with several targets. Field targets are
// replaced by temporaries seeded from the getters, so the original statement
// keeps its evaluation order and typing, and the temporaries are stored one
// by one afterwards:
//
//	tmp0, tmp1 := v.GetEmail(), v.GetVisits()
//	tmp0, tmp1 = from.Email, 2
//	v.SetEmail(tmp0)
//	v.SetVisits(tmp1)
func (t *transplanter) tuple(c *astutil.Cursor, n *ast.AssignStmt) {
	if c.Index() < 0 {
		t.fail(ErrFieldWrite)
		return
	}
	pos := n.Pos()
	seed := &ast.AssignStmt{Tok: token.DEFINE}
	assign := &ast.AssignStmt{TokPos: n.TokPos, Tok: token.ASSIGN}
	var stores []ast.Stmt
	for _, lhs := range n.Lhs {
		f := t.recvField(lhs)
		if f == nil {
			assign.Lhs = append(assign.Lhs, t.expr(lhs))
			continue
		}
		tmp := t.temp(pos)
		seed.Lhs = append(seed.Lhs, tmp)
		seed.Rhs = append(seed.Rhs, t.load(f))
		assign.Lhs = append(assign.Lhs, &ast.Ident{NamePos: pos, Name: tmp.Name})
		stores = append(stores, t.store(pos, f, ast.NewIdent(tmp.Name)))
	}
	for _, rhs := range n.Rhs {
		assign.Rhs = append(assign.Rhs, t.expr(rhs))
	}
	c.InsertBefore(seed)
	c.InsertBefore(assign)
	for _, st := range stores[:len(stores)-1] {
		c.InsertBefore(st)
	}
	c.Replace(stores[len(stores)-1])
}

// expr rewrites e on its own. Apply does not walk replacement nodes, so
// anything kept from the original statement is rewritten before it moves.
func (t *transplanter) expr(e ast.Expr) ast.Expr {
	return astutil.Apply(e, t.rewrite, nil).(ast.Expr)
}

func (t *transplanter) rewrite(c *astutil.Cursor) bool {
	switch n := c.Node().(type) {
	case *ast.AssignStmt:
		if n.Tok == token.DEFINE {
			return true
		}
		if len(n.Lhs) > 1 {
			if n.Tok != token.ASSIGN || !slices.ContainsFunc(n.Lhs, func(e ast.Expr) bool { return t.recvField(e) != nil }) {
				return true
			}
			t.tuple(c, n)
			return false
		}
		f := t.recvField(n.Lhs[0])
		if f == nil {
			return true
		}
		op, ok := assignOps[n.Tok]
		if n.Tok != token.ASSIGN && !ok {
			return true
		}
		rhs := t.expr(n.Rhs[0])
		if n.Tok != token.ASSIGN {
			rhs = &ast.BinaryExpr{X: t.load(f), Op: op, Y: rhs}
		}
		c.Replace(t.store(n.Pos(), f, rhs))
		return false
	case *ast.IncDecStmt:
		f := t.recvField(n.X)
		if f == nil {
			return true
		}
		op := token.ADD
		if n.Tok == token.DEC {
			op = token.SUB
		}
		c.Replace(t.store(n.Pos(), f, &ast.BinaryExpr{X: t.load(f), Op: op, Y: &ast.BasicLit{Kind: token.INT, Value: "1"}}))
		return false
	case *ast.UnaryExpr:
		f := t.recvField(n.X)
		if n.Op != token.AND || f == nil {
			return true
		}
		if t.wrapped {
			t.fail(fmt.Errorf("%w: &%s.%s", ErrFieldAddress, t.recv, f.Name))
			return false
		}
		n.X = &ast.SelectorExpr{X: ast.NewIdent(ReceiverName), Sel: ast.NewIdent(f.Storage)}
		return false
	case *ast.SelectorExpr:
		if f := t.recvField(n); f != nil {
			c.Replace(t.load(f))
			return false
		}
		if x, ok := n.X.(*ast.Ident); ok {
			if path, ok := t.fileImports[x.Name]; ok {
				t.used[path] = x.Name
			}
		}
	case *ast.Ident:
		if sel, ok := c.Parent().(*ast.SelectorExpr); ok && c.Name() == "Sel" && sel.Sel == n {
			return true
		}
		switch n.Name {
		case t.param:
			if t.param != "" {
				n.Name = ParamName
			}
		case t.recv:
			if t.recv != "" {
				n.Name = ReceiverName
			}
		case t.domain:
			if _, ok := c.Parent().(*ast.KeyValueExpr); !ok || c.Name() != "Key" {
				n.Name = t.view
			}
		}
	}
	return true
}

// returns turns bare returns of the hook into returns of the view. Function
// literals keep their own returns.
func (t *transplanter) returns(c *astutil.Cursor) bool {
	switch n := c.Node().(type) {
	case *ast.FuncLit:
		return false
	case *ast.ReturnStmt:
		if len(n.Results) == 0 {
			c.Replace(&ast.ReturnStmt{Return: n.Return, Results: []ast.Expr{&ast.Ident{NamePos: n.Return, Name: ReceiverName}}})
		}
	}
	return true
}
