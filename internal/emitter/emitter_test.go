package emitter

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/projgen/internal/model"
	"github.com/cmmoran/projgen/internal/naming"
	"github.com/cmmoran/projgen/internal/projector"
	"github.com/cmmoran/projgen/internal/resolver"
	"github.com/cmmoran/projgen/internal/synth"
)

const (
	domainPkg = "example.com/app/domain"
	storePkg  = "example.com/app/store"
)

func project(t *testing.T, c *model.ClassModel, kind model.ViewKind) *projector.View {
	t.Helper()
	r := projector.NewRegistry(projector.Options{})
	r.Add(c)
	v, err := r.Project(c, kind)
	require.NoError(t, err)
	return v
}

// parse checks that src is valid Go and returns its import paths.
func parse(t *testing.T, src []byte) []string {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), "view.go", src, parser.ImportsOnly)
	require.NoError(t, err, string(src))
	_, err = parser.ParseFile(token.NewFileSet(), "view.go", src, parser.AllErrors)
	require.NoError(t, err, string(src))
	var paths []string
	for _, imp := range file.Imports {
		p, _ := strconv.Unquote(imp.Path.Value)
		paths = append(paths, p)
	}
	return paths
}

func hook(t *testing.T, src string) *model.HookModel {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "hook.go", "package domain\n"+src, 0)
	require.NoError(t, err)
	fn := file.Decls[0].(*ast.FuncDecl)
	return &model.HookModel{
		Name:         fn.Name.Name,
		ReceiverName: fn.Recv.List[0].Names[0].Name,
		ParamName:    fn.Type.Params.List[0].Names[0].Name,
		ParamType:    model.Ptr(model.Declared(storePkg, "store", "Row")),
		Body:         fn.Body,
		Fset:         fset,
		Imports:      map[string]string{"strings": "strings"},
	}
}

func TestEmitResponse(t *testing.T) {
	account := &model.ClassModel{
		PkgPath:   domainPkg,
		PkgName:   "domain",
		Name:      "Account",
		Dir:       "/src/domain",
		Modifiers: model.Public | model.Abstract,
		Fields: []*model.FieldModel{
			{Name: "email", Type: model.Scalar("string"), Modifiers: model.Private},
			{Name: "tags", Type: model.List(model.Scalar("string")), Modifiers: model.Private},
			{Name: "createdAt", Type: model.Ptr(model.Declared("time", "time", "Time")), Modifiers: model.Private},
			{Name: "visits", Type: model.Scalar("int32"), Modifiers: model.Private},
		},
		Specs:               []*model.ProjectionSpec{{Kind: model.ResponseView, Policy: naming.SnakeCase, Serializer: true}},
		HasNoArgConstructor: true,
	}
	v := project(t, account, model.ResponseView)

	row := model.Declared(storePkg, "store", "Row")
	src := &resolver.Source{Param: model.Ptr(row), Fields: []*model.FieldModel{
		{Name: "Email", Type: model.Scalar("string"), Modifiers: model.Public},
		{Name: "Tags", Type: model.List(model.Scalar("string")), Modifiers: model.Public},
	}}
	conv, err := synth.Synthesize(&resolver.Result{
		View:   v,
		Source: src,
		Resolutions: []*resolver.Resolution{
			{Source: src.Fields[0], Target: v.Field("email"), Strategy: resolver.DirectAssign, Read: resolver.Accessor{Name: "Email", Type: model.Scalar("string")}},
			{Source: src.Fields[1], Target: v.Field("tags"), Strategy: resolver.CollectionCopy, Guard: true, Read: resolver.Accessor{Name: "Tags", Type: src.Fields[1].Type}},
		},
		Hook: hook(t, `func (a *Account) FromRow(row *store.Row) { a.email = strings.ToLower(row.Email) }`),
	})
	require.NoError(t, err)

	art, err := New(Options{}).Emit(Input{View: v, Conversions: []*synth.Conversion{conv}, Serializer: synth.SynthesizeSerializer(v)})
	require.NoError(t, err)

	assert.Equal(t, domainPkg+".AccountResponse", art.Name)
	assert.Equal(t, domainPkg+".Account", art.Class)
	assert.Equal(t, filepath.Join("/src/domain", "account_response_projgen.go"), art.Path)

	out := string(art.Source)
	assert.True(t, strings.HasPrefix(out, "// "+Header), out)
	assert.ElementsMatch(t, []string{"slices", "strings", "time", storePkg, synth.JSONWPkgPath}, parse(t, art.Source))
	for _, want := range []string{
		"package domain",
		"type AccountResponse struct {",
		"func NewAccountResponse() *AccountResponse {",
		"func (v *AccountResponse) GetEmail() string {",
		"func (v *AccountResponse) GetEmailOr(def string) string {",
		"func (v *AccountResponse) HasEmail() bool {",
		"func (v *AccountResponse) SetEmail(value string) {",
		"func (v *AccountResponse) ClearEmail() {",
		"func (v *AccountResponse) GetCreatedAt() *time.Time {",
		"func NewAccountResponseFromRow(from *store.Row) *AccountResponse {",
		"v.SetEmail(from.Email)",
		"v.SetTags(slices.Clone(from.Tags))",
		"v.SetEmail(strings.ToLower(from.Email))",
		"func (AccountResponseSerializer) Serialize(value *AccountResponse, w *jsonw.Writer) {",
		`w.StringField("email", value.GetEmail())`,
		`w.IntField("visits", int64(value.GetVisits()))`,
		`w.NullField("created_at")`,
		"func (v *AccountResponse) MarshalJSON() ([]byte, error) {",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "UnmarshalJSON")
	assert.NotContains(t, out, "json:")
}

func TestEmitRequest(t *testing.T) {
	def := `"free"`
	signup := &model.ClassModel{
		PkgPath:   domainPkg,
		PkgName:   "domain",
		Name:      "Signup",
		Dir:       "/src/domain",
		Modifiers: model.Public,
		Fields: []*model.FieldModel{
			{Name: "ID", Type: model.Scalar("int64"), Modifiers: model.Public | model.ReadOnly},
			{Name: "Email", Type: model.Scalar("string"), Modifiers: model.Public, Tags: []*model.AnnotationModel{
				{Name: "validate", Parameters: map[string]string{"value": "required,email"}},
			}},
			{Name: "Birthday", Type: model.Declared("time", "time", "Time"), Modifiers: model.Public, Layout: "2006-01-02"},
			{Name: "Plan", Type: model.Scalar("string"), Modifiers: model.Public, ConstantValue: &def},
		},
		Specs:               []*model.ProjectionSpec{{Kind: model.RequestView, Policy: naming.SnakeCase, Bag: true}},
		HasNoArgConstructor: true,
	}
	v := project(t, signup, model.RequestView)

	art, err := New(Options{FileSuffix: ".gen.go"}).Emit(Input{View: v})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/src/domain", "signup_request.gen.go"), art.Path)

	out := string(art.Source)
	parse(t, art.Source)
	for _, want := range []string{
		"type SignupRequest struct {",
		`validate:"required,email"`,
		"v.plan = new(string)",
		`*v.plan = "free"`,
		"func (v *SignupRequest) GetID() int64 {",
		"func (v *SignupRequest) SetBirthday(value string) error {",
		`time.Parse("2006-01-02", value)`,
		"func (v *SignupRequest) ClearEmail() {",
		"func (v *SignupRequest) ToBag() *bag.Bag {",
		`b.Set("Email", v.GetEmail())`,
		"func (v *SignupRequest) UnmarshalJSON(data []byte) error {",
		`raw["birthday"]`,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "SetID(", "read-only fields are final in request views")
	assert.NotContains(t, out, `raw["id"]`)
	assert.NotContains(t, out, "MarshalJSON()")
}

func TestEmitEmbedSource(t *testing.T) {
	c := &model.ClassModel{
		PkgPath:   domainPkg,
		PkgName:   "domain",
		Name:      "Group",
		Modifiers: model.Public | model.Abstract,
		Fields: []*model.FieldModel{
			{Name: "name", Type: model.Scalar("string"), Modifiers: model.Private, HasInheritedGetter: true},
		},
		Specs:               []*model.ProjectionSpec{{Kind: model.ResponseView}},
		HasNoArgConstructor: true,
		NoArgConstructor:    &model.ConstructorModel{Name: "NewGroup", Result: model.Ptr(model.Declared(domainPkg, "domain", "Group"))},
	}
	art, err := New(Options{EmbedSource: true}).Emit(Input{View: project(t, c, model.ResponseView)})
	require.NoError(t, err)

	out := string(art.Source)
	parse(t, art.Source)
	assert.Contains(t, out, "v.Group = *NewGroup()")
	assert.Contains(t, out, "return v.Group.GetName()")
	assert.Contains(t, out, `json:"name"`)
}

func TestEmitOpaqueImports(t *testing.T) {
	codes := model.Scalar("[4]codes.Code")
	codes.Annotations = []*model.AnnotationModel{{
		Name:            "imports",
		Parameters:      map[string]string{"example.com/app/codes/v2": "codes"},
		RequiredImports: []string{"example.com/app/codes/v2"},
	}}
	c := &model.ClassModel{
		PkgPath:             domainPkg,
		PkgName:             "domain",
		Name:                "Rule",
		Modifiers:           model.Public | model.Abstract,
		Fields:              []*model.FieldModel{{Name: "codes", Type: codes, Modifiers: model.Private}},
		Specs:               []*model.ProjectionSpec{{Kind: model.ResponseView}},
		HasNoArgConstructor: true,
	}
	art, err := New(Options{}).Emit(Input{View: project(t, c, model.ResponseView)})
	require.NoError(t, err)

	assert.Equal(t, []string{"example.com/app/codes/v2"}, parse(t, art.Source))
	assert.Contains(t, string(art.Source), `codes "example.com/app/codes/v2"`)
	assert.Contains(t, string(art.Source), "func (v *RuleResponse) GetCodes() [4]codes.Code {")
}

func TestConversionDoc(t *testing.T) {
	tests := []struct {
		view, src string
		skipped   int
		want      []string
	}{
		{
			view: "AccountResponse", src: "AccountRow",
			want: []string{"NewAccountResponseFromAccountRow builds an AccountResponse from an AccountRow."},
		},
		{
			view: "GroupResponse", src: "Row", skipped: 1,
			want: []string{
				"NewGroupResponseFromRow builds a GroupResponse from a Row.",
				"1 source field has no counterpart and is not copied.",
			},
		},
		{
			view: "OrderResponse", src: "Invoice", skipped: 3,
			want: []string{
				"NewOrderResponseFromInvoice builds an OrderResponse from an Invoice.",
				"3 source fields have no counterpart and are not copied.",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			conv := &synth.Conversion{
				Name:      "New" + tt.view + "From" + tt.src,
				View:      tt.view,
				ParamType: model.Ptr(model.Declared(storePkg, "store", tt.src)),
				Skipped:   tt.skipped,
			}
			assert.Equal(t, tt.want, conversionDoc(conv))
		})
	}
}
