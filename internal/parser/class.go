package parser

import (
	"fmt"
	"go/ast"
	"go/types"
	"path"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/cmmoran/projgen/internal/diagnostic"
	"github.com/cmmoran/projgen/internal/model"
	"github.com/cmmoran/projgen/internal/naming"
)

const (
	hookPrefix = "From"
	ctorPrefix = "New"
	maxDepth   = 8
)

// buildClass reads the shape of a struct type. Non-struct and generic types
// yield nil.
func (p *Parser) buildClass(pkg *packages.Package, obj *types.TypeName) *model.ClassModel {
	named, ok := obj.Type().(*types.Named)
	if !ok || named.TypeParams().Len() > 0 {
		return nil
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil
	}

	c := &model.ClassModel{
		PkgPath: obj.Pkg().Path(),
		PkgName: obj.Pkg().Name(),
		Name:    obj.Name(),
		Dir:     packageDir(pkg),
	}
	if obj.Exported() {
		c.Modifiers |= model.Public
	} else {
		c.Modifiers |= model.Private
	}

	c.Fields = dedupeFields(p.fields(c, st, 0))
	c.Methods = methods(named)
	p.constructors(c, obj.Pkg().Scope(), named)
	inheritedAccessors(c)
	if pkg != nil {
		c.Hooks = p.hooks(pkg, obj.Name())
	}
	return c
}

func packageDir(pkg *packages.Package) string {
	if pkg == nil {
		return ""
	}
	if len(pkg.GoFiles) > 0 {
		return filepath.Dir(pkg.GoFiles[0])
	}
	if len(pkg.CompiledGoFiles) > 0 {
		return filepath.Dir(pkg.CompiledGoFiles[0])
	}
	return ""
}

// fields lists the fields of st. The first embedded field becomes the super
// type; embedded structs are flattened when configured or tagged inline.
func (p *Parser) fields(c *model.ClassModel, st *types.Struct, depth int) []*model.FieldModel {
	var out []*model.FieldModel
	for i := 0; i < st.NumFields(); i++ {
		v := st.Field(i)
		tag := reflect.StructTag(st.Tag(i))
		opts := parseFieldOptions(tag)
		if opts.omit || excludedByTag(tag, p.cfg.ExcludeByTags) {
			continue
		}

		if v.Embedded() || isTagEmbedded(tag) {
			if v.Embedded() && depth == 0 && c.SuperType == nil {
				c.SuperType = typeModel(v.Type())
			}
			inner := underlyingStruct(v.Type())
			if inner != nil && depth < maxDepth && (p.cfg.FlattenEmbedded || isTagEmbedded(tag)) {
				out = append(out, p.fields(c, inner, depth+1)...)
				continue
			}
			if v.Embedded() {
				continue
			}
		}

		f := &model.FieldModel{
			Name:          v.Name(),
			Type:          typeModel(v.Type()),
			ConstantValue: opts.constant,
			SkipNullCheck: opts.skipNullCheck,
			Layout:        opts.layout,
		}
		if v.Exported() {
			f.Modifiers |= model.Public
		} else {
			f.Modifiers |= model.Private
		}
		if opts.final {
			f.Modifiers |= model.Final
		}
		if depth > 0 {
			f.Modifiers |= model.Embedded
		}
		if isGormReadOnly(tag) {
			f.Modifiers |= model.ReadOnly
		}
		for _, tp := range structTagPairs(tag) {
			f.Tags = append(f.Tags, &model.AnnotationModel{
				Name:       tp.key,
				Parameters: map[string]string{"value": tp.value},
			})
		}
		out = append(out, f)
	}
	return out
}

// dedupeFields keeps the first field of each name; outer declarations win
// over promoted ones because they are listed first.
func dedupeFields(fields []*model.FieldModel) []*model.FieldModel {
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		out = append(out, f)
	}
	return out
}

// methods lists the method set of *T, including promoted methods.
func methods(named *types.Named) []*model.MethodModel {
	mset := types.NewMethodSet(types.NewPointer(named))
	out := make([]*model.MethodModel, 0, mset.Len())
	for i := 0; i < mset.Len(); i++ {
		fn, ok := mset.At(i).Obj().(*types.Func)
		if !ok {
			continue
		}
		sig := fn.Type().(*types.Signature)
		out = append(out, &model.MethodModel{
			Name:     fn.Name(),
			Exported: fn.Exported(),
			Params:   tupleModels(sig.Params()),
			Results:  tupleModels(sig.Results()),
		})
	}
	return out
}

// constructors collects package-level New* functions producing T or *T.
// A class without constructors is zero-value constructible.
func (p *Parser) constructors(c *model.ClassModel, scope *types.Scope, named *types.Named) {
	for _, name := range scope.Names() {
		if !strings.HasPrefix(name, ctorPrefix) {
			continue
		}
		fn, ok := scope.Lookup(name).(*types.Func)
		if !ok {
			continue
		}
		sig := fn.Type().(*types.Signature)
		if sig.Recv() != nil || sig.Results().Len() == 0 || sig.TypeParams().Len() > 0 {
			continue
		}
		res := sig.Results().At(0).Type()
		if ptr, ok := res.(*types.Pointer); ok {
			res = ptr.Elem()
		}
		if !types.Identical(res, named) {
			continue
		}
		ctor := &model.ConstructorModel{
			Name:     name,
			PkgPath:  c.PkgPath,
			Params:   tupleModels(sig.Params()),
			Result:   typeModel(sig.Results().At(0).Type()),
			Variadic: sig.Variadic(),
		}
		c.Constructors = append(c.Constructors, ctor)
		if len(ctor.Params) == 0 && (c.NoArgConstructor == nil || name == ctorPrefix+c.Name) {
			c.NoArgConstructor = ctor
		}
	}
	c.HasNoArgConstructor = len(c.Constructors) == 0 || c.NoArgConstructor != nil
}

// inheritedAccessors marks fields whose Get/Set methods already exist with a
// matching signature.
func inheritedAccessors(c *model.ClassModel) {
	for _, f := range c.Fields {
		base := naming.Exported(f.Name)
		if m := c.Method(naming.Getter(base)); m != nil && len(m.Params) == 0 && len(m.Results) == 1 && m.Results[0].Equal(f.Type) {
			f.HasInheritedGetter = true
		}
		if m := c.Method(naming.Setter(base)); m != nil && len(m.Params) == 1 && len(m.Results) == 0 && m.Params[0].Equal(f.Type) {
			f.HasInheritedSetter = true
		}
	}
}

// hooks finds From* methods on T or *T taking one named parameter and
// returning nothing.
func (p *Parser) hooks(pkg *packages.Package, typeName string) []*model.HookModel {
	var out []*model.HookModel
	for _, file := range pkg.Syntax {
		var imports map[string]string
		for _, decl := range file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Recv == nil || fd.Body == nil || !strings.HasPrefix(fd.Name.Name, hookPrefix) {
				continue
			}
			if receiverType(fd.Recv) != typeName {
				continue
			}
			params := fd.Type.Params.List
			if len(params) != 1 || len(params[0].Names) != 1 || fd.Type.Results.NumFields() != 0 {
				continue
			}
			pt := pkg.TypesInfo.TypeOf(params[0].Type)
			if pt == nil {
				continue
			}
			if imports == nil {
				imports = p.fileImports(file)
			}
			h := &model.HookModel{
				Name:      fd.Name.Name,
				ParamName: params[0].Names[0].Name,
				ParamType: typeModel(pt),
				Body:      fd.Body,
				Fset:      p.fset,
				Imports:   imports,
			}
			if names := fd.Recv.List[0].Names; len(names) == 1 {
				h.ReceiverName = names[0].Name
			}
			out = append(out, h)
		}
	}
	return out
}

func receiverType(recv *ast.FieldList) string {
	if recv.NumFields() != 1 {
		return ""
	}
	expr := recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if id, ok := expr.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

// fileImports maps local import names of file to import paths.
func (p *Parser) fileImports(file *ast.File) map[string]string {
	out := make(map[string]string, len(file.Imports))
	for _, imp := range file.Imports {
		ip, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		var local string
		switch {
		case imp.Name != nil:
			local = imp.Name.Name
		case p.pkgs[ip] != nil:
			local = p.pkgs[ip].Name
		default:
			local = path.Base(ip)
		}
		if local == "_" || local == "." {
			continue
		}
		out[local] = ip
	}
	return out
}

// applyDirectives turns parsed directives into modifiers and projection specs.
func (p *Parser) applyDirectives(c *model.ClassModel, pkg *packages.Package, file *ast.File, dirs []directive) {
	qn := c.QualifiedName()
	for _, d := range dirs {
		c.Annotations = append(c.Annotations, &model.AnnotationModel{Name: "projgen:" + d.name, Parameters: d.params})
		var kind model.ViewKind
		switch d.name {
		case "abstract":
			c.Modifiers |= model.Abstract
			continue
		case "final":
			c.Modifiers |= model.Final
			continue
		case "request":
			kind = model.RequestView
		case "response":
			kind = model.ResponseView
		default:
			p.diags.AddWarning(diagnostic.CodeProjectionFailure, "unknown directive projgen:"+d.name, qn, "")
			continue
		}
		if c.Spec(kind) != nil {
			p.diags.AddWarning(diagnostic.CodeProjectionFailure, "duplicate "+kind.String()+" directive", qn, "")
			continue
		}

		spec := &model.ProjectionSpec{Kind: kind}
		if v, ok := d.params["policy"]; ok {
			pol, err := naming.ParsePolicy(v)
			if err != nil {
				p.diags.AddWarning(diagnostic.CodeProjectionFailure, err.Error(), qn, "")
			} else {
				spec.Policy = pol
			}
		}
		switch kind {
		case model.ResponseView:
			spec.Serializer = p.flag(qn, d.params, "serializer")
		case model.RequestView:
			spec.Bag = p.flag(qn, d.params, "bag")
		}
		if v := d.params["from"]; v != "" {
			imports := p.fileImports(file)
			for _, ref := range strings.Split(v, ",") {
				if ref = strings.TrimSpace(ref); ref != "" {
					spec.Sources = append(spec.Sources, p.resolveRef(pkg, imports, ref))
				}
			}
		}
		c.Specs = append(c.Specs, spec)
	}
}

// flag reads a boolean directive parameter. A value that is not a boolean is
// reported and reads as false.
func (p *Parser) flag(qn string, params map[string]string, key string) bool {
	v, ok := params[key]
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.diags.AddWarning(diagnostic.CodeProjectionFailure, fmt.Sprintf("%s=%q is not a boolean", key, v), qn, "")
		return false
	}
	return b
}

// resolveRef turns a from= entry into a type. Entries are a bare type name in
// the same package, pkg.Type using the file's imports, or a full import path
// followed by the type name. Unresolvable qualifiers keep an empty path.
func (p *Parser) resolveRef(pkg *packages.Package, imports map[string]string, ref string) *model.TypeModel {
	ref = strings.TrimPrefix(ref, "*")
	i := strings.LastIndex(ref, ".")
	if i < 0 {
		return model.Declared(pkg.PkgPath, pkg.Name, ref)
	}
	qual, name := ref[:i], ref[i+1:]
	if strings.Contains(qual, "/") {
		pkgName := path.Base(qual)
		if dep, ok := p.pkgs[qual]; ok {
			pkgName = dep.Name
		}
		return model.Declared(qual, pkgName, name)
	}
	if ip, ok := imports[qual]; ok {
		pkgName := qual
		if dep, ok := p.pkgs[ip]; ok {
			pkgName = dep.Name
		}
		return model.Declared(ip, pkgName, name)
	}
	return model.Declared("", qual, name)
}
