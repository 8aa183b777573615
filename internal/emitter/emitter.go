// Package emitter renders a projected view, its conversion constructors and
// its serializer into a Go source file.
package emitter

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/token"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/cmmoran/projgen/internal/model"
	"github.com/cmmoran/projgen/internal/naming"
	"github.com/cmmoran/projgen/internal/projector"
	"github.com/cmmoran/projgen/internal/synth"
)

const (
	bagPkgPath = "github.com/cmmoran/projgen/pkg/runtime/bag"

	// Header marks every emitted file as generated.
	Header = "Code generated by projgen. DO NOT EDIT."
)

// Options control the shape of emitted views.
type Options struct {
	// EmbedSource embeds the domain struct in its views.
	EmbedSource bool
	FileSuffix  string
}

// Input is everything emitted into one artifact.
type Input struct {
	View        *projector.View
	Conversions []*synth.Conversion
	Serializer  *synth.Serializer
}

type Emitter struct {
	opts Options
}

func New(opts Options) *Emitter {
	if opts.FileSuffix == "" {
		opts.FileSuffix = "_projgen.go"
	}
	return &Emitter{opts: opts}
}

// Emit renders in into an artifact placed next to the domain class.
func (e *Emitter) Emit(in Input) (*model.Artifact, error) {
	v := in.View
	c := v.Class

	f := jen.NewFilePathName(c.PkgPath, c.PkgName)
	f.HeaderComment(Header)
	for p, name := range v.Imports {
		f.ImportName(p, name)
	}
	for _, conv := range in.Conversions {
		for p, name := range conv.Imports {
			f.ImportName(p, name)
		}
	}

	e.renderStruct(f, v)
	e.renderConstructor(f, v)
	for _, fld := range v.Fields {
		e.renderAccessors(f, v, fld)
	}
	for _, conv := range in.Conversions {
		renderConversion(f, conv)
	}
	if v.Kind == model.RequestView {
		if v.Spec.Bag {
			renderToBag(f, v)
		}
		renderUnmarshal(f, v)
	}
	if in.Serializer != nil {
		renderSerializer(f, v, in.Serializer)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", v.Name, err)
	}
	extra := transplantImports(in.Conversions)
	for _, fld := range v.Fields {
		opaqueImports(fld.Type, extra)
	}
	src, err := addImports(buf.Bytes(), extra)
	if err != nil {
		return nil, fmt.Errorf("imports %s: %w", v.Name, err)
	}

	return &model.Artifact{
		Name:    c.PkgPath + "." + v.Name,
		Class:   c.QualifiedName(),
		PkgPath: c.PkgPath,
		Path:    filepath.Join(c.Dir, naming.FileName(v.Name, e.opts.FileSuffix)),
		Source:  src,
	}, nil
}

func recv(v *projector.View) *jen.Statement {
	return jen.Id(synth.ReceiverName).Op("*").Id(v.Name)
}

func (e *Emitter) renderStruct(f *jen.File, v *projector.View) {
	fields := make([]jen.Code, 0, len(v.Fields)+1)
	if e.opts.EmbedSource {
		fields = append(fields, jen.Id(v.Class.Name))
	}
	for _, fld := range v.Fields {
		s := jen.Id(fld.Storage)
		if fld.Wrapped {
			s = s.Op("*")
		}
		s = s.Add(typeCode(fld.Type))
		if len(fld.Tag) > 0 {
			s = s.Tag(fld.Tag)
		}
		fields = append(fields, s)
	}
	f.Commentf("%s is the %s view of %s.", v.Name, v.Kind, v.Class.Name)
	f.Type().Id(v.Name).Struct(fields...)
}

// renderConstructor emits the zero-argument constructor every conversion
// delegates to. It initializes the embedded domain value and constant
// defaults.
func (e *Emitter) renderConstructor(f *jen.File, v *projector.View) {
	body := []jen.Code{jen.Id(synth.ReceiverName).Op(":=").Op("&").Id(v.Name).Values()}
	if ctor := v.Class.NoArgConstructor; e.opts.EmbedSource && ctor != nil {
		call := jen.Id(ctor.Name).Call()
		if ctor.Result.Pointer {
			call = jen.Op("*").Add(call)
		}
		body = append(body, jen.Id(synth.ReceiverName).Dot(v.Class.Name).Op("=").Add(call))
	}
	for _, fld := range v.Fields {
		if fld.Default == nil {
			continue
		}
		lit := defaultLiteral(fld)
		target := jen.Id(synth.ReceiverName).Dot(fld.Storage)
		if fld.Wrapped {
			body = append(body,
				target.Clone().Op("=").New(typeCode(fld.Type)),
				jen.Op("*").Add(target.Clone()).Op("=").Add(lit),
			)
		} else {
			body = append(body, target.Clone().Op("=").Add(lit))
		}
	}
	body = append(body, jen.Return(jen.Id(synth.ReceiverName)))

	f.Commentf("New%s returns an empty %s with defaults applied.", v.Name, v.Name)
	f.Func().Id("New" + v.Name).Params().Op("*").Id(v.Name).Block(body...)
}

// defaultLiteral quotes defaults of string fields; anything else is emitted
// as written.
func defaultLiteral(fld *projector.Field) jen.Code {
	if fld.Type.Name == "string" && fld.Type.Kind == model.KindScalar && !fld.Type.Pointer {
		if _, err := strconv.Unquote(*fld.Default); err != nil {
			return jen.Lit(*fld.Default)
		}
	}
	return jen.Id(*fld.Default)
}

func (e *Emitter) renderAccessors(f *jen.File, v *projector.View, fld *projector.Field) {
	typ := typeCode(fld.Type)
	storage := jen.Id(synth.ReceiverName).Dot(fld.Storage)
	zero := []jen.Code{jen.Var().Id("zero").Add(typ.Clone()), jen.Return(jen.Id("zero"))}
	if fld.InheritedGetter && e.opts.EmbedSource {
		zero = []jen.Code{jen.Return(jen.Id(synth.ReceiverName).Dot(v.Class.Name).Dot(fld.Getter()).Call())}
	}

	if fld.Wrapped {
		unset := jen.Id(synth.ReceiverName).Op("==").Nil().Op("||").Add(storage.Clone()).Op("==").Nil()
		f.Func().Params(recv(v)).Id(fld.Getter()).Params().Add(typ.Clone()).Block(
			jen.If(unset.Clone()).Block(zero...),
			jen.Return(jen.Op("*").Add(storage.Clone())),
		)
		f.Func().Params(recv(v)).Id(fld.GetterOr()).Params(jen.Id("def").Add(typ.Clone())).Add(typ.Clone()).Block(
			jen.If(unset.Clone()).Block(jen.Return(jen.Id("def"))),
			jen.Return(jen.Op("*").Add(storage.Clone())),
		)
		f.Func().Params(recv(v)).Id(fld.Has()).Params().Bool().Block(
			jen.Return(jen.Id(synth.ReceiverName).Op("!=").Nil().Op("&&").Add(storage.Clone()).Op("!=").Nil()),
		)
	} else {
		f.Func().Params(recv(v)).Id(fld.Getter()).Params().Add(typ.Clone()).Block(
			jen.If(jen.Id(synth.ReceiverName).Op("==").Nil()).Block(zero...),
			jen.Return(storage.Clone()),
		)
		if fld.Type.Nilable() {
			f.Func().Params(recv(v)).Id(fld.GetterOr()).Params(jen.Id("def").Add(typ.Clone())).Add(typ.Clone()).Block(
				jen.If(jen.Id(synth.ReceiverName).Op("==").Nil().Op("||").Add(storage.Clone()).Op("==").Nil()).Block(jen.Return(jen.Id("def"))),
				jen.Return(storage.Clone()),
			)
		}
	}

	if fld.Final {
		return
	}

	switch {
	case fld.Layout != "":
		f.Commentf("%s parses value with the layout %q.", fld.Setter(), fld.Layout)
		f.Func().Params(recv(v)).Id(fld.Setter()).Params(jen.Id("value").String()).Error().Block(
			jen.List(jen.Id("t"), jen.Err()).Op(":=").Qual("time", "Parse").Call(jen.Lit(fld.Layout), jen.Id("value")),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err())),
			storage.Clone().Op("=").Op("&").Id("t"),
			jen.Return(jen.Nil()),
		)
	default:
		set := []jen.Code{}
		if fld.Wrapped {
			set = append(set, storage.Clone().Op("=").Op("&").Id("value"))
		} else {
			set = append(set, storage.Clone().Op("=").Id("value"))
		}
		if fld.InheritedSetter && e.opts.EmbedSource {
			set = append(set, jen.Id(synth.ReceiverName).Dot(v.Class.Name).Dot(fld.Setter()).Call(jen.Id("value")))
		}
		f.Func().Params(recv(v)).Id(fld.Setter()).Params(jen.Id("value").Add(typ.Clone())).Block(set...)
	}

	if fld.Wrapped {
		f.Func().Params(recv(v)).Id(fld.Clear()).Params().Block(storage.Clone().Op("=").Nil())
	} else if v.Kind == model.ResponseView {
		f.Func().Params(recv(v)).Id(fld.Clear()).Params().Block(
			jen.Var().Id("zero").Add(typ.Clone()),
			storage.Clone().Op("=").Id("zero"),
		)
	}
}

func renderConversion(f *jen.File, conv *synth.Conversion) {
	body := make([]jen.Code, 0, len(conv.Body))
	for _, s := range conv.Body {
		body = append(body, stmtCode(s))
	}
	for _, line := range conversionDoc(conv) {
		f.Comment(line)
	}
	f.Func().Id(conv.Name).Params(jen.Id(synth.ParamName).Add(typeCode(conv.ParamType))).Op("*").Id(conv.View).Block(
		jen.Id(synth.ReceiverName).Op(":=").Id("New"+conv.View).Call(),
		jen.If(jen.Id(synth.ParamName).Op("!=").Nil()).Block(body...),
		jen.Return(jen.Id(synth.ReceiverName)),
	)
}

func conversionDoc(conv *synth.Conversion) []string {
	src := conv.ParamType.Name
	doc := []string{fmt.Sprintf("%s builds %s %s from %s %s.", conv.Name, article(conv.View), conv.View, article(src), src)}
	switch {
	case conv.Skipped == 1:
		doc = append(doc, "1 source field has no counterpart and is not copied.")
	case conv.Skipped > 1:
		doc = append(doc, fmt.Sprintf("%d source fields have no counterpart and are not copied.", conv.Skipped))
	}
	return doc
}

// article picks the indefinite article for a type name by its first letter.
func article(name string) string {
	if name != "" && strings.ContainsRune("AEIOaeio", rune(name[0])) {
		return "an"
	}
	return "a"
}

func renderToBag(f *jen.File, v *projector.View) {
	body := []jen.Code{jen.Id("b").Op(":=").Qual(bagPkgPath, "New").Call()}
	for _, fld := range v.Fields {
		body = append(body, jen.If(jen.Id(synth.ReceiverName).Dot(fld.Has()).Call()).Block(
			jen.Id("b").Dot("Set").Call(jen.Lit(fld.Name), jen.Id(synth.ReceiverName).Dot(fld.Getter()).Call()),
		))
	}
	body = append(body, jen.Return(jen.Id("b")))
	f.Comment("ToBag returns the fields that have been set, keyed by field name.")
	f.Func().Params(recv(v)).Id("ToBag").Params().Op("*").Qual(bagPkgPath, "Bag").Block(body...)
}

// renderUnmarshal decodes a request view by naming-policy keys and routes
// every present key through its setter.
func renderUnmarshal(f *jen.File, v *projector.View) {
	body := []jen.Code{
		jen.Var().Id("raw").Map(jen.String()).Qual("encoding/json", "RawMessage"),
		jen.If(jen.Err().Op(":=").Qual("encoding/json", "Unmarshal").Call(jen.Id("data"), jen.Op("&").Id("raw")), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Err()),
		),
	}
	for _, fld := range v.Fields {
		if fld.Final {
			continue
		}
		valueType := typeCode(fld.Type)
		if fld.Layout != "" {
			valueType = jen.String()
		}
		decode := jen.If(
			jen.Err().Op(":=").Qual("encoding/json", "Unmarshal").Call(jen.Id("msg"), jen.Op("&").Id("value")),
			jen.Err().Op("!=").Nil(),
		).Block(jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit(fld.Key+": %w"), jen.Err())))

		var set jen.Code
		if fld.Layout != "" {
			set = jen.If(
				jen.Err().Op(":=").Id(synth.ReceiverName).Dot(fld.Setter()).Call(jen.Id("value")),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit(fld.Key+": %w"), jen.Err())))
		} else {
			set = jen.Id(synth.ReceiverName).Dot(fld.Setter()).Call(jen.Id("value"))
		}
		body = append(body, jen.If(jen.List(jen.Id("msg"), jen.Id("ok")).Op(":=").Id("raw").Index(jen.Lit(fld.Key)), jen.Id("ok")).Block(
			jen.Var().Id("value").Add(valueType),
			decode,
			set,
		))
	}
	body = append(body, jen.Return(jen.Nil()))
	f.Func().Params(recv(v)).Id("UnmarshalJSON").Params(jen.Id("data").Index().Byte()).Error().Block(body...)
}

func renderSerializer(f *jen.File, v *projector.View, s *synth.Serializer) {
	w := jen.Id("w")
	value := jen.Id("value")
	body := []jen.Code{w.Clone().Dot("StartObject").Call()}
	for _, fw := range s.Writes {
		get := value.Clone().Dot(fw.Field.Getter()).Call()
		arg := get.Clone()
		if fw.Deref {
			arg = jen.Op("*").Add(get.Clone())
		}
		if conv := fw.Writer.Conversion(model.Value(fw.Field.Type)); conv != "" {
			arg = jen.Id(conv).Call(arg)
		}
		cond := value.Clone().Dot(fw.Field.Has()).Call()
		if fw.Deref {
			cond = cond.Op("&&").Add(get.Clone()).Op("!=").Nil()
		}
		body = append(body, jen.If(cond).Block(
			w.Clone().Dot(fw.Writer.Method()).Call(jen.Lit(fw.Key), arg),
		).Else().Block(
			w.Clone().Dot("NullField").Call(jen.Lit(fw.Key)),
		))
	}
	body = append(body, w.Clone().Dot("EndObject").Call())

	f.Commentf("%s writes %s values field by field.", s.Name, s.View)
	f.Type().Id(s.Name).Struct()
	f.Func().Params(jen.Id(s.Name)).Id("Serialize").Params(
		jen.Id("value").Op("*").Id(v.Name),
		jen.Id("w").Op("*").Qual(synth.JSONWPkgPath, "Writer"),
	).Block(body...)

	f.Func().Params(recv(v)).Id("MarshalJSON").Params().Params(jen.Index().Byte(), jen.Error()).Block(
		jen.Id("w").Op(":=").Qual(synth.JSONWPkgPath, "NewWriter").Call(),
		jen.Id(s.Name).Values().Dot("Serialize").Call(jen.Id(synth.ReceiverName), jen.Id("w")),
		jen.If(jen.Err().Op(":=").Id("w").Dot("Err").Call(), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		),
		jen.Return(jen.Id("w").Dot("Bytes").Call(), jen.Nil()),
	)
}

// typeCode renders t, qualifying declared types with their package.
func typeCode(t *model.TypeModel) *jen.Statement {
	s := jen.Null()
	if t.Pointer {
		s = jen.Op("*")
	}
	switch t.Collection {
	case model.CollectionList:
		return s.Index().Add(typeCode(t.TypeArgs[0]))
	case model.CollectionSet:
		return s.Map(typeCode(t.TypeArgs[0])).Struct()
	case model.CollectionMap:
		return s.Map(typeCode(t.TypeArgs[0])).Add(typeCode(t.TypeArgs[1]))
	}
	if t.PkgPath != "" {
		s = s.Qual(t.PkgPath, t.Name)
	} else {
		s = s.Id(t.Name)
	}
	if t.Kind == model.KindDeclared && len(t.TypeArgs) > 0 {
		args := make([]jen.Code, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			args[i] = typeCode(a)
		}
		s = s.Types(args...)
	}
	return s
}

func stmtCode(s synth.Stmt) jen.Code {
	switch x := s.(type) {
	case synth.Set:
		return jen.Id(x.Recv).Dot(x.Method).Call(exprCode(x.Value))
	case synth.Guard:
		body := make([]jen.Code, len(x.Body))
		for i, b := range x.Body {
			body[i] = stmtCode(b)
		}
		return jen.If(jen.Add(exprCode(x.Subject)).Op("!=").Nil()).Block(body...)
	case synth.Raw:
		var buf bytes.Buffer
		_ = printer.Fprint(&buf, x.Fset, x.Node)
		return jen.Id(buf.String())
	}
	return jen.Null()
}

func exprCode(e synth.Expr) jen.Code {
	switch x := e.(type) {
	case synth.Ident:
		return jen.Id(x.Name)
	case synth.Qual:
		if x.PkgPath == "" {
			return jen.Id(x.Name)
		}
		return jen.Qual(x.PkgPath, x.Name)
	case synth.Select:
		s := jen.Add(exprCode(x.X)).Dot(x.Name)
		if x.Call {
			s = s.Call()
		}
		return s
	case synth.Call:
		args := make([]jen.Code, len(x.Args))
		for i, a := range x.Args {
			args[i] = exprCode(a)
		}
		return jen.Add(exprCode(x.Fun)).Call(args...)
	case synth.Deref:
		return jen.Op("*").Add(exprCode(x.X))
	case synth.Zero:
		return jen.Op("&").Add(typeCode(model.Value(x.Type))).Values()
	case synth.AddrOf:
		return jen.Func().Params().Add(typeCode(x.Type)).Block(
			jen.Id("value").Op(":=").Add(exprCode(x.X)),
			jen.Return(jen.Op("&").Id("value")),
		).Call()
	case synth.Func:
		return jen.Func().Params(jen.Id(x.Param).Add(typeCode(x.ParamType))).Add(typeCode(x.Result)).Block(
			jen.Return(exprCode(x.Body)),
		)
	}
	return jen.Null()
}

func transplantImports(convs []*synth.Conversion) map[string]string {
	out := make(map[string]string)
	for _, c := range convs {
		for _, s := range c.Body {
			if raw, ok := s.(synth.Raw); ok {
				for p, n := range raw.Imports {
					out[p] = n
				}
			}
		}
	}
	return out
}

// opaqueImports collects packages referenced by types rendered verbatim,
// such as arrays or func types.
func opaqueImports(t *model.TypeModel, dst map[string]string) {
	if t == nil {
		return
	}
	if t.Kind == model.KindScalar && len(t.Annotations) > 0 {
		t.Imports(dst)
	}
	for _, a := range t.TypeArgs {
		opaqueImports(a, dst)
	}
}

// addImports adds imports that transplanted statements reference by name,
// which the renderer cannot see, and formats the result.
func addImports(src []byte, imports map[string]string) ([]byte, error) {
	if len(imports) == 0 {
		return src, nil
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", src, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(imports))
	for p := range imports {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		name := imports[p]
		if name == path.Base(p) || importedAs(file, p) {
			astutil.AddImport(fset, file, p)
			continue
		}
		astutil.AddNamedImport(fset, file, name, p)
	}
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func importedAs(file *ast.File, p string) bool {
	for _, imp := range file.Imports {
		if v, _ := strconv.Unquote(imp.Path.Value); v == p {
			return true
		}
	}
	return false
}
