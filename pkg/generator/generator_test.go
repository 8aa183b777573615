package generator

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/projgen/internal/diagnostic"
	"github.com/cmmoran/projgen/internal/model"
	"github.com/cmmoran/projgen/internal/naming"
)

const (
	domainPkg = "example.com/app/domain"
	storePkg  = "example.com/app/store"
)

type fakeHost struct {
	classes []*model.ClassModel
	all     map[string]*model.ClassModel
	diags   diagnostic.Diagnostics
}

func newHost(declared []*model.ClassModel, others ...*model.ClassModel) *fakeHost {
	h := &fakeHost{classes: declared, all: make(map[string]*model.ClassModel)}
	for _, c := range append(append([]*model.ClassModel{}, declared...), others...) {
		h.all[c.QualifiedName()] = c
	}
	return h
}

func (h *fakeHost) Classes() []*model.ClassModel { return h.classes }

func (h *fakeHost) Lookup(qn string) (*model.ClassModel, bool) {
	c, ok := h.all[qn]
	return c, ok
}

func (h *fakeHost) Diagnostics() diagnostic.Diagnostics { return h.diags }

type failingWriter struct{}

func (failingWriter) Write(*model.Artifact) error { return errors.New("disk full") }

func domainClass(name string, spec *model.ProjectionSpec, fields ...*model.FieldModel) *model.ClassModel {
	return &model.ClassModel{
		PkgPath:             domainPkg,
		PkgName:             "domain",
		Name:                name,
		Dir:                 "/src/domain",
		Modifiers:           model.Public | model.Abstract,
		Fields:              fields,
		Specs:               []*model.ProjectionSpec{spec},
		HasNoArgConstructor: true,
	}
}

func str(name string, mods model.Modifiers) *model.FieldModel {
	return &model.FieldModel{Name: name, Type: model.Scalar("string"), Modifiers: mods}
}

func fixtureHost() *fakeHost {
	row := &model.ClassModel{
		PkgPath:   storePkg,
		PkgName:   "store",
		Name:      "Row",
		Modifiers: model.Public,
		Fields:    []*model.FieldModel{str("Email", model.Public), str("Secret", model.Public)},
	}
	account := domainClass("Account",
		&model.ProjectionSpec{Kind: model.ResponseView, Policy: naming.CamelCase, Sources: []*model.TypeModel{row.Type()}},
		str("email", model.Private),
	)
	invoice := domainClass("Invoice", &model.ProjectionSpec{Kind: model.ResponseView}, str("number", model.Private))
	invoice.HasNoArgConstructor = false
	ghost := domainClass("Ghost",
		&model.ProjectionSpec{Kind: model.ResponseView, Sources: []*model.TypeModel{model.Declared(storePkg, "store", "Missing")}},
		str("name", model.Private),
	)
	signup := domainClass("Signup", &model.ProjectionSpec{Kind: model.RequestView, Bag: true}, str("Email", model.Public))
	signup.Modifiers = model.Public

	return newHost([]*model.ClassModel{account, invoice, ghost, signup}, row)
}

func artifactNames(arts []*model.Artifact) []string {
	out := make([]string, len(arts))
	for i, a := range arts {
		out[i] = strings.TrimPrefix(a.Name, domainPkg+".")
	}
	return out
}

func TestRun(t *testing.T) {
	host := fixtureHost()
	host.diags.AddWarning(diagnostic.CodeLoadFailure, "broken package", "", "")
	mem := NewMemoryWriter()

	rep := New(host, mem, NewOptions(), nil).Run()

	assert.Equal(t, []string{"AccountResponse", "GhostResponse", "SignupRequest"}, artifactNames(rep.Artifacts))
	assert.Len(t, mem.Files, 3)
	assert.Contains(t, mem.Files, filepath.Join("/src/domain", "account_response_projgen.go"))
	assert.Contains(t, string(mem.Files[filepath.Join("/src/domain", "account_response_projgen.go")]), "func NewAccountResponseFromRow(from *store.Row) *AccountResponse {")

	require.NotEmpty(t, rep.Diagnostics.Items)
	assert.Equal(t, diagnostic.CodeLoadFailure, rep.Diagnostics.Items[0].Code, "host findings come first")

	assert.Equal(t, []string{diagnostic.CodeFieldsOmitted}, rep.Diagnostics.Codes(domainPkg+".Account"))
	assert.Equal(t, []string{diagnostic.CodeMissingNoArgConstructor}, rep.Diagnostics.Codes(domainPkg+".Invoice"))
	assert.Equal(t, []string{diagnostic.CodeUnknownSource}, rep.Diagnostics.Codes(domainPkg+".Ghost"))
	assert.Empty(t, rep.Diagnostics.Codes(domainPkg+".Signup"))

	errs := rep.Diagnostics.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, domainPkg+".Invoice", errs[0].Class)

	warnings := rep.Diagnostics.Warnings()
	var omitted string
	for _, w := range warnings {
		if w.Code == diagnostic.CodeFieldsOmitted {
			omitted = w.Message
		}
	}
	assert.True(t, strings.HasPrefix(omitted, "NewAccountResponseFromRow: 1 source fields omitted: Secret ("), omitted)
}

func TestRunNothingOmitted(t *testing.T) {
	host := fixtureHost()
	row, _ := host.Lookup(storePkg + ".Row")
	row.Fields = row.Fields[:1]

	rep := New(host, NewMemoryWriter(), NewOptions(), nil).Run()
	infos := rep.Diagnostics.Infos()
	require.Len(t, infos, 1)
	assert.Equal(t, diagnostic.CodeFieldsOmitted, infos[0].Code)
	assert.Equal(t, "NewAccountResponseFromRow: no source fields omitted", infos[0].Message)
}

func TestRunWriteFailure(t *testing.T) {
	rep := New(fixtureHost(), failingWriter{}, NewOptions(), nil).Run()

	assert.Empty(t, rep.Artifacts)
	var failures int
	for _, d := range rep.Diagnostics.Errors() {
		if d.Code == diagnostic.CodeArtifactWriteFailure {
			failures++
			assert.Contains(t, d.Message, "disk full")
		}
	}
	assert.Equal(t, 3, failures)
}

func TestRunSuffixes(t *testing.T) {
	opts := NewOptions()
	for _, fn := range []Option{WithRequestSuffix("Input"), WithResponseSuffix("Output"), WithFileSuffix(".view.go")} {
		fn(opts)
	}
	mem := NewMemoryWriter()
	rep := New(fixtureHost(), mem, opts, nil).Run()

	assert.Equal(t, []string{"AccountOutput", "GhostOutput", "SignupInput"}, artifactNames(rep.Artifacts))
	assert.Contains(t, mem.Files, filepath.Join("/src/domain", "signup_input.view.go"))
}

func TestNormalize(t *testing.T) {
	o := &Options{FileSuffix: "_gen", RequestSuffix: "In"}
	o.Normalize("dto:-", "malformed")

	assert.Equal(t, []TagFilter{{Key: "dto", Value: "-"}}, o.ExcludeByTags)
	assert.Equal(t, "_gen.go", o.FileSuffix)
	assert.Equal(t, "In", o.RequestSuffix)
	assert.Equal(t, "Response", o.ResponseSuffix)
	assert.Equal(t, []string{"./..."}, o.Patterns)
	assert.Equal(t, ".projgen.yaml", o.ManifestPath)
	assert.True(t, filepath.IsAbs(o.InDir))

	assert.Panics(t, func() {
		(&Options{RequestSuffix: "View", ResponseSuffix: "View"}).Normalize()
	})
}
