package synth

import (
	"fmt"

	"github.com/cmmoran/projgen/internal/model"
	"github.com/cmmoran/projgen/internal/naming"
	"github.com/cmmoran/projgen/internal/resolver"
)

const (
	// ParamName is the conversion constructor's parameter.
	ParamName = "from"
	// ReceiverName is the view instance under construction.
	ReceiverName = "v"

	ConvPkgPath = "github.com/cmmoran/projgen/pkg/runtime/conv"
)

var (
	cmpOr      = Qual{PkgPath: "cmp", PkgName: "cmp", Name: "Or"}
	slicesCopy = Qual{PkgPath: "slices", PkgName: "slices", Name: "Clone"}
	mapsClone  = Qual{PkgPath: "maps", PkgName: "maps", Name: "Clone"}
	convSlice  = Qual{PkgPath: ConvPkgPath, PkgName: "conv", Name: "Slice"}
	convSet    = Qual{PkgPath: ConvPkgPath, PkgName: "conv", Name: "Set"}
)

// Conversion is a synthesized constructor building a view from one source:
//
//	func New<View>From<Source>(from *Source) *View {
//		v := New<View>()
//		if from != nil { Body... }
//		return v
//	}
type Conversion struct {
	Name      string
	View      string
	ParamType *model.TypeModel
	// Body holds resolved statements in source field order followed by
	// transplanted statements in their original order.
	Body    []Stmt
	Skipped int
	Imports map[string]string
}

// Synthesize turns a resolver result into a conversion constructor.
func Synthesize(res *resolver.Result) (*Conversion, error) {
	conv := &Conversion{
		Name:      resolver.ConversionName(res.View.Name, res.Source),
		View:      res.View.Name,
		ParamType: res.Source.Param,
		Skipped:   res.Skipped,
	}
	for _, rs := range res.Resolutions {
		if rs.Strategy == resolver.Skipped {
			continue
		}
		conv.Body = append(conv.Body, Statement(rs))
	}
	if res.Hook != nil {
		stmts, err := Transplant(res.Hook, res.View)
		if err != nil {
			return nil, fmt.Errorf("transplant %s: %w", res.Hook.Name, err)
		}
		conv.Body = append(conv.Body, stmts...)
	}
	conv.Imports = Imports(conv.Body...)
	res.Source.Param.Imports(conv.Imports)
	delete(conv.Imports, res.View.Class.PkgPath)
	return conv, nil
}

// Statement renders one resolution as a setter call, guarded when the
// resolution asks for a nil check.
func Statement(rs *resolver.Resolution) Stmt {
	read := Select{X: Ident{Name: ParamName}, Name: rs.Read.Name, Call: rs.Read.Method}
	subject := Expr(read)
	var value Expr

	switch rs.Strategy {
	case resolver.DirectAssign:
		value = adapt(read, rs.Adapt, rs.Target.Type)
	case resolver.NestedPathAssign:
		parent := Expr(read)
		if rs.Read.Type.Pointer {
			parent = Call{Fun: cmpOr, Args: []Expr{read, Zero{Type: rs.Read.Type}}}
		}
		path := Select{X: parent, Name: rs.Path.Name, Call: rs.Path.Method}
		subject = path
		value = adapt(path, rs.Adapt, rs.Target.Type)
	case resolver.CollectionCopy:
		value = Call{Fun: slicesCopy, Args: []Expr{read}}
	case resolver.CollectionClone:
		value = Call{Fun: mapsClone, Args: []Expr{read}}
	case resolver.CollectionElementProject:
		fun := convSlice
		if !rs.Read.Type.Collection.Ordered() {
			fun = convSet
		}
		value = Call{Fun: fun, Args: []Expr{read, elementFunc(rs)}}
	case resolver.NestedTypeProject:
		value = Call{Fun: ctorQual(rs.Ctor), Args: []Expr{adapt(read, rs.Ctor.ParamAdapt, rs.Ctor.Param)}}
	}

	set := Set{Recv: ReceiverName, Method: rs.Target.Setter(), Value: value}
	if rs.Guard {
		return Guard{Subject: subject, Body: []Stmt{set}}
	}
	return set
}

func ctorQual(c *resolver.Ctor) Qual {
	return Qual{PkgPath: c.PkgPath, PkgName: c.PkgName, Name: c.Name}
}

// elementFunc is the per-element projection: the constructor itself, or a
// closure adapting pointer-ness of the element first.
func elementFunc(rs *resolver.Resolution) Expr {
	if rs.Ctor.ParamAdapt == resolver.AdaptNone {
		return ctorQual(rs.Ctor)
	}
	param := naming.Singular(rs.Target.Base)
	return Func{
		Param:     param,
		ParamType: rs.Read.Type.TypeArgs[0],
		Result:    rs.Ctor.Result,
		Body:      Call{Fun: ctorQual(rs.Ctor), Args: []Expr{adapt(Ident{Name: param}, rs.Ctor.ParamAdapt, rs.Ctor.Param)}},
	}
}

func adapt(x Expr, a resolver.Adapt, to *model.TypeModel) Expr {
	switch a {
	case resolver.AdaptDeref:
		return Deref{X: x}
	case resolver.AdaptAddr:
		return AddrOf{X: x, Type: to}
	default:
		return x
	}
}
