package parser

import (
	"context"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/projgen/internal/diagnostic"
	"github.com/cmmoran/projgen/internal/model"
	"github.com/cmmoran/projgen/internal/naming"
)

const (
	fixtureDir = "../../testdata/fixtures/shop"
	domainPkg  = "example.com/shop/domain"
	storePkg   = "example.com/shop/store"
)

func load(t *testing.T, cfg Config) *Parser {
	t.Helper()
	cfg.Dir = fixtureDir
	p, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, p.Load(context.Background()))
	return p
}

func classNames(cs []*model.ClassModel) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func fieldNames(c *model.ClassModel) []string {
	out := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = f.Name
	}
	return out
}

func TestLoad(t *testing.T) {
	p := load(t, Config{FlattenEmbedded: true})

	assert.Equal(t, "example.com/shop", p.ModulePath())
	assert.ElementsMatch(t, []string{"Account", "Group", "Signup", "Invoice", "Legacy"}, classNames(p.Classes()))

	account, ok := p.Lookup(domainPkg + ".Account")
	require.True(t, ok)
	assert.True(t, account.IsAbstract())
	assert.True(t, account.Modifiers.Has(model.Public))
	assert.True(t, account.HasNoArgConstructor)
	assert.Nil(t, account.NoArgConstructor)
	require.NotNil(t, account.SuperType)
	assert.Equal(t, domainPkg+".Base", account.SuperType.QualifiedName())
	assert.Equal(t, []string{"id", "createdAt", "email", "tags", "ownerID", "ownerName", "groups", "labels"}, fieldNames(account))

	id := account.Field("id")
	assert.True(t, id.Modifiers.Has(model.ReadOnly))
	assert.True(t, id.Modifiers.Has(model.Embedded))
	assert.True(t, id.Modifiers.Has(model.Private))
	assert.True(t, account.Field("createdAt").Modifiers.Has(model.ReadOnly))

	groups := account.Field("groups").Type
	assert.Equal(t, model.CollectionList, groups.Collection)
	assert.Equal(t, domainPkg+".Group", groups.Elem().QualifiedName())
	assert.True(t, groups.Elem().Pointer)
	assert.Equal(t, model.CollectionSet, account.Field("labels").Type.Collection)

	require.Len(t, account.Specs, 1)
	spec := account.Spec(model.ResponseView)
	require.NotNil(t, spec)
	assert.True(t, spec.Serializer)
	assert.Equal(t, naming.CamelCase, spec.Policy)
	require.Len(t, spec.Sources, 1)
	assert.Equal(t, storePkg+".AccountRow", spec.Sources[0].QualifiedName())
	assert.Equal(t, "store", spec.Sources[0].PkgName)

	require.Len(t, account.Hooks, 1)
	hook := account.Hooks[0]
	assert.Equal(t, "FromAccountRow", hook.Name)
	assert.Equal(t, "a", hook.ReceiverName)
	assert.Equal(t, "row", hook.ParamName)
	assert.True(t, hook.ParamType.Equal(model.Ptr(model.Declared(storePkg, "store", "AccountRow"))))
	assert.Equal(t, "strings", hook.Imports["strings"])
	assert.Equal(t, storePkg, hook.Imports["store"])
	assert.Len(t, hook.Body.List, 2)
}

func TestLoadRequest(t *testing.T) {
	p := load(t, Config{FlattenEmbedded: true})

	signup, ok := p.Lookup(domainPkg + ".Signup")
	require.True(t, ok)
	spec := signup.Spec(model.RequestView)
	require.NotNil(t, spec)
	assert.True(t, spec.Bag)
	assert.Equal(t, naming.SnakeCase, spec.Policy)

	assert.True(t, signup.Field("ID").Modifiers.Has(model.ReadOnly))
	assert.True(t, signup.Field("Password").SkipNullCheck)
	assert.Equal(t, "2006-01-02", signup.Field("Birthday").Layout)
	assert.Equal(t, "time.Time", signup.Field("Birthday").Type.QualifiedName())
	require.NotNil(t, signup.Field("Plan").ConstantValue)
	assert.Equal(t, `"free"`, *signup.Field("Plan").ConstantValue)

	var keys []string
	for _, an := range signup.Field("Email").Tags {
		keys = append(keys, an.Name)
	}
	assert.Equal(t, []string{"json", "validate"}, keys)
	assert.Equal(t, "required,email", signup.Field("Email").Tags[1].Value())
}

func TestLoadConstructors(t *testing.T) {
	p := load(t, Config{FlattenEmbedded: true})

	invoice, ok := p.Lookup(domainPkg + ".Invoice")
	require.True(t, ok)
	assert.False(t, invoice.HasNoArgConstructor)
	require.Len(t, invoice.Constructors, 1)
	assert.Equal(t, "NewInvoice", invoice.Constructors[0].Name)
	assert.True(t, invoice.Constructors[0].Result.Pointer)
	assert.Equal(t, "string", invoice.Constructors[0].Params[0].Name)
}

func TestLookupOutsideDirectives(t *testing.T) {
	p := load(t, Config{FlattenEmbedded: true})

	row, ok := p.Lookup(storePkg + ".AccountRow")
	require.True(t, ok)
	assert.Empty(t, row.Specs)
	assert.Equal(t, "CreatedAt", row.Fields[6].Name)
	assert.True(t, row.Fields[6].Type.Pointer)

	again, ok := p.Lookup(storePkg + ".AccountRow")
	require.True(t, ok)
	assert.Same(t, row, again)

	_, ok = p.Lookup(storePkg + ".Missing")
	assert.False(t, ok)
	_, ok = p.Lookup("Unqualified")
	assert.False(t, ok)
}

func TestLoadOptions(t *testing.T) {
	t.Run("exclude deprecated and named types", func(t *testing.T) {
		p := load(t, Config{FlattenEmbedded: true, ExcludeDeprecated: true, ExcludeTypes: []string{"invoice"}})
		assert.ElementsMatch(t, []string{"Account", "Group", "Signup"}, classNames(p.Classes()))
	})
	t.Run("exclude by tag", func(t *testing.T) {
		p := load(t, Config{FlattenEmbedded: true, ExcludeByTags: []TagFilter{{Key: "dto", Value: "-"}}})
		signup, ok := p.Lookup(domainPkg + ".Signup")
		require.True(t, ok)
		assert.Nil(t, signup.Field("Internal"))
	})
	t.Run("no flattening", func(t *testing.T) {
		p := load(t, Config{})
		account, ok := p.Lookup(domainPkg + ".Account")
		require.True(t, ok)
		assert.Nil(t, account.Field("id"))
		assert.NotNil(t, account.SuperType)
	})
}

func TestParseDirectives(t *testing.T) {
	src := `package x

// Doc line.
//
//projgen:response from=store.Row,Other serializer=false policy=kebab
//projgen:abstract
type T struct{}
`
	file, err := goparser.ParseFile(token.NewFileSet(), "x.go", src, goparser.ParseComments)
	require.NoError(t, err)
	gen := file.Decls[0].(*ast.GenDecl)

	got := parseDirectives(gen.Doc)
	want := []directive{
		{name: "response", params: map[string]string{"from": "store.Row,Other", "serializer": "false", "policy": "kebab"}},
		{name: "abstract", params: map[string]string{}},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(directive{})); diff != "" {
		t.Errorf("parseDirectives() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Doc line.", commentText(gen.Doc))
}

func TestUnknownDirective(t *testing.T) {
	p := &Parser{}
	c := &model.ClassModel{PkgPath: "x", Name: "T"}
	p.applyDirectives(c, nil, &ast.File{}, []directive{
		{name: "respond", params: map[string]string{}},
		{name: "request", params: map[string]string{"policy": "shouty"}},
		{name: "request", params: map[string]string{}},
	})
	require.Len(t, c.Specs, 1)
	assert.Equal(t, naming.SnakeCase, c.Specs[0].Policy)
	assert.Equal(t, []string{diagnostic.CodeProjectionFailure, diagnostic.CodeProjectionFailure, diagnostic.CodeProjectionFailure}, p.diags.Codes("x.T"))
}

func TestDirectiveFlags(t *testing.T) {
	p := &Parser{}
	c := &model.ClassModel{PkgPath: "x", Name: "T"}
	p.applyDirectives(c, nil, &ast.File{}, []directive{
		{name: "response", params: map[string]string{"serializer": "yes"}},
		{name: "request", params: map[string]string{"bag": "true"}},
	})
	require.Len(t, c.Specs, 2)
	assert.False(t, c.Specs[0].Serializer)
	assert.True(t, c.Specs[1].Bag)

	require.Len(t, p.diags.Items, 1)
	assert.Equal(t, diagnostic.SeverityWarning, p.diags.Items[0].Severity)
	assert.Equal(t, diagnostic.CodeProjectionFailure, p.diags.Items[0].Code)
	assert.Equal(t, `serializer="yes" is not a boolean`, p.diags.Items[0].Message)
}

func TestStructTags(t *testing.T) {
	tag := reflect.StructTag(`gorm:"column:id;primaryKey" json:"id,omitempty" projgen:"final,skipnullcheck,default=7"`)

	assert.Equal(t, []tagPair{
		{key: "gorm", value: "column:id;primaryKey"},
		{key: "json", value: "id,omitempty"},
		{key: "projgen", value: "final,skipnullcheck,default=7"},
	}, structTagPairs(tag))
	assert.True(t, isGormReadOnly(tag))
	assert.True(t, containsTagPart("a;b,c", "b"))
	assert.False(t, containsTagPart("", "b"))

	opts := parseFieldOptions(tag)
	assert.True(t, opts.final)
	assert.True(t, opts.skipNullCheck)
	require.NotNil(t, opts.constant)
	assert.Equal(t, "7", *opts.constant)

	assert.True(t, isTagEmbedded(`gorm:",embedded"`))
	assert.True(t, isTagEmbedded(`mapstructure:",squash"`))
	assert.False(t, isTagEmbedded(`json:"name"`))
	assert.True(t, parseFieldOptions(`projgen:"-"`).omit)
	assert.True(t, excludedByTag(`dto:"-"`, []TagFilter{{Key: "dto", Value: "-"}}))
}
