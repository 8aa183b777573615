package parser

import (
	"go/types"

	"github.com/cmmoran/projgen/internal/model"
)

// typeModel converts a go/types type into the projection type model.
// Anything outside the allow-listed collection shapes becomes an opaque
// scalar rendered verbatim.
func typeModel(t types.Type) *model.TypeModel {
	t = unalias(t)
	switch x := t.(type) {
	case *types.Pointer:
		m := typeModel(x.Elem())
		if m.Pointer {
			return opaque(t)
		}
		m.Pointer = true
		return m
	case *types.Basic:
		return model.Scalar(x.Name())
	case *types.Slice:
		return model.List(typeModel(x.Elem()))
	case *types.Map:
		if isEmptyStruct(x.Elem()) {
			return model.Set(typeModel(x.Key()))
		}
		return model.Map(typeModel(x.Key()), typeModel(x.Elem()))
	case *types.Named:
		obj := x.Obj()
		if obj.Pkg() == nil {
			return model.Scalar(obj.Name())
		}
		m := model.Declared(obj.Pkg().Path(), obj.Pkg().Name(), obj.Name())
		if args := x.TypeArgs(); args != nil {
			for i := 0; i < args.Len(); i++ {
				m.TypeArgs = append(m.TypeArgs, typeModel(args.At(i)))
			}
		}
		return m
	case *types.Interface:
		if x.Empty() {
			return model.Scalar("any")
		}
	case *types.TypeParam:
		return model.Scalar(x.Obj().Name())
	}
	return opaque(t)
}

func isEmptyStruct(t types.Type) bool {
	st, ok := t.Underlying().(*types.Struct)
	return ok && st.NumFields() == 0
}

// opaque renders t with package-name qualifiers and records the packages the
// rendering refers to.
func opaque(t types.Type) *model.TypeModel {
	an := &model.AnnotationModel{Name: "imports", Parameters: make(map[string]string)}
	name := types.TypeString(t, func(p *types.Package) string {
		if _, ok := an.Parameters[p.Path()]; !ok {
			an.Parameters[p.Path()] = p.Name()
			an.RequiredImports = append(an.RequiredImports, p.Path())
		}
		return p.Name()
	})
	m := model.Scalar(name)
	if len(an.RequiredImports) > 0 {
		m.Annotations = []*model.AnnotationModel{an}
	}
	return m
}

func tupleModels(tup *types.Tuple) []*model.TypeModel {
	if tup == nil {
		return nil
	}
	out := make([]*model.TypeModel, tup.Len())
	for i := 0; i < tup.Len(); i++ {
		out[i] = typeModel(tup.At(i).Type())
	}
	return out
}

// underlyingStruct returns the struct behind t, looking through one pointer.
func underlyingStruct(t types.Type) *types.Struct {
	if p, ok := unalias(t).(*types.Pointer); ok {
		t = p.Elem()
	}
	st, _ := t.Underlying().(*types.Struct)
	return st
}
