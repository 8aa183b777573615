// Package parser loads Go packages and builds the class models projgen
// generates views for.
package parser

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/types"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/packages"

	"github.com/cmmoran/projgen/internal/diagnostic"
	"github.com/cmmoran/projgen/internal/model"
)

const defaultCacheSize = 1024

var ErrNoModule = errors.New("no go.mod found")

// Config controls which packages are loaded and how their structs are read.
type Config struct {
	Dir               string
	Patterns          []string
	FlattenEmbedded   bool
	ExcludeTypes      []string
	ExcludeDeprecated bool
	ExcludeByTags     []TagFilter
	CacheSize         int
	Logger            *slog.Logger
}

// Parser holds the loaded packages and the classes found in them.
type Parser struct {
	cfg  Config
	log  *slog.Logger
	fset *token.FileSet

	modulePath string
	moduleDir  string

	pkgs    map[string]*packages.Package
	classes []*model.ClassModel
	cache   *lru.Cache[string, *model.ClassModel]
	diags   diagnostic.Diagnostics
}

func New(cfg Config) (*Parser, error) {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{"./..."}
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir

	cache, err := lru.New[string, *model.ClassModel](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Parser{
		cfg:   cfg,
		log:   cfg.Logger,
		fset:  token.NewFileSet(),
		pkgs:  make(map[string]*packages.Package),
		cache: cache,
	}, nil
}

// Load type-checks the configured patterns and collects every struct marked
// with a projgen directive. Type errors in loaded packages are logged, not
// returned: partially checked packages still yield usable classes.
func (p *Parser) Load(ctx context.Context) error {
	modDir, err := findGoModDir(p.cfg.Dir)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(filepath.Join(modDir, "go.mod"))
	if err != nil {
		return err
	}
	p.moduleDir = modDir
	p.modulePath = modfile.ModulePath(data)
	if p.modulePath == "" {
		return fmt.Errorf("%s: missing module directive", filepath.Join(modDir, "go.mod"))
	}

	roots, err := packages.Load(&packages.Config{
		Context: ctx,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedImports | packages.NeedDeps,
		Dir:  p.cfg.Dir,
		Fset: p.fset,
	}, p.cfg.Patterns...)
	if err != nil {
		return fmt.Errorf("load packages: %w", err)
	}

	packages.Visit(roots, nil, func(pkg *packages.Package) {
		p.pkgs[pkg.PkgPath] = pkg
	})
	for _, pkg := range roots {
		for _, e := range pkg.Errors {
			p.log.Warn("package has errors", "pkg", pkg.PkgPath, "error", e.Msg)
			p.diags.AddWarning(diagnostic.CodeLoadFailure, e.Msg, pkg.PkgPath, "")
		}
		if !p.inModule(pkg.PkgPath) {
			p.log.Debug("skipping package outside module", "pkg", pkg.PkgPath)
			continue
		}
		p.collect(pkg)
	}
	p.log.Debug("loaded packages", "roots", len(roots), "total", len(p.pkgs), "classes", len(p.classes))
	return nil
}

func (p *Parser) inModule(pkgPath string) bool {
	return pkgPath == p.modulePath || strings.HasPrefix(pkgPath, p.modulePath+"/")
}

// ModulePath is the path of the main module, known after Load.
func (p *Parser) ModulePath() string { return p.modulePath }

// ModuleDir is the directory holding go.mod, known after Load.
func (p *Parser) ModuleDir() string { return p.moduleDir }

// Classes returns the directive-marked classes in load order.
func (p *Parser) Classes() []*model.ClassModel { return p.classes }

// Diagnostics returns problems found while reading directives.
func (p *Parser) Diagnostics() diagnostic.Diagnostics { return p.diags }

// Lookup returns the class model of any struct reachable from the loaded
// packages, by package path and type name.
func (p *Parser) Lookup(qualifiedName string) (*model.ClassModel, bool) {
	if c, ok := p.cache.Get(qualifiedName); ok {
		return c, true
	}
	i := strings.LastIndex(qualifiedName, ".")
	if i <= 0 {
		return nil, false
	}
	pkg, ok := p.pkgs[qualifiedName[:i]]
	if !ok || pkg.Types == nil {
		return nil, false
	}
	obj, ok := pkg.Types.Scope().Lookup(qualifiedName[i+1:]).(*types.TypeName)
	if !ok {
		return nil, false
	}
	c := p.buildClass(pkg, obj)
	if c == nil {
		return nil, false
	}
	p.cache.Add(qualifiedName, c)
	return c, true
}

// collect finds directive-marked type declarations in pkg.
func (p *Parser) collect(pkg *packages.Package) {
	if pkg.Types == nil {
		return
	}
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts := spec.(*ast.TypeSpec)
				groups := []*ast.CommentGroup{ts.Doc}
				if len(gen.Specs) == 1 {
					groups = append(groups, gen.Doc)
				}
				dirs := parseDirectives(groups...)
				if len(dirs) == 0 {
					continue
				}
				doc := commentText(ts.Doc)
				if doc == "" && len(gen.Specs) == 1 {
					doc = commentText(gen.Doc)
				}
				if p.excluded(ts.Name.Name, doc) {
					p.log.Debug("excluded type", "pkg", pkg.PkgPath, "type", ts.Name.Name)
					continue
				}
				obj, ok := pkg.Types.Scope().Lookup(ts.Name.Name).(*types.TypeName)
				if !ok {
					continue
				}
				c := p.buildClass(pkg, obj)
				if c == nil {
					p.diags.AddWarning(diagnostic.CodeProjectionFailure, "projgen directive on a non-struct or generic type", pkg.PkgPath+"."+ts.Name.Name, "")
					continue
				}
				c.Doc = doc
				p.applyDirectives(c, pkg, file, dirs)
				p.cache.Add(c.QualifiedName(), c)
				p.classes = append(p.classes, c)
			}
		}
	}
}

func (p *Parser) excluded(name, doc string) bool {
	for _, t := range p.cfg.ExcludeTypes {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return p.cfg.ExcludeDeprecated && strings.Contains(doc, "Deprecated:")
}

// findGoModDir walks up from dir until it finds go.mod.
func findGoModDir(from string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(from, "go.mod")); err == nil {
			return from, nil
		}
		parent := filepath.Dir(from)
		if parent == from {
			return "", ErrNoModule
		}
		from = parent
	}
}
