// Package dataclass renders python modules of dataclasses mapped with the
// SQLAlchemy declarative registry.
package dataclass

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"regexp"
	"strings"
	"text/template"

	"github.com/syssam/xsdalchemy/compiler/gen"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Name is the target name.
const Name = "dataclass"

// RegistryModule is the module holding the shared mapper registry.
const RegistryModule = "_registry"

// DefaultModule is the module of classes without a module.
const DefaultModule = "models"

type (
	// Target renders one python module per class module, a registry module
	// and an __init__.py per package.
	Target struct{}

	// classData is the input of the class templates.
	classData struct {
		Type  *gen.Type
		Help  string
		Inner []string
	}

	// moduleData is the input of the module template.
	moduleData struct {
		Imports   string
		Registry  string
		Namespace string
		Classes   []string
	}

	module struct {
		Name    string
		Package string
		Types   []*gen.Type
		Classes []string
	}
)

// New returns the dataclass target.
func New() *Target { return &Target{} }

// Name implements gen.Target.
func (*Target) Name() string { return Name }

// Generate implements gen.Target.
func (*Target) Generate(g *gen.Graph) ([]*gen.File, error) {
	tmpl, err := template.New(Name).
		Funcs(g.Filters().FuncMap()).
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r := &renderer{g: g, tmpl: tmpl}
	return r.files()
}

type renderer struct {
	g    *gen.Graph
	tmpl *template.Template
}

// modules groups the root types by package and module, in traversal
// order.
func (r *renderer) modules() []*module {
	var (
		mods  []*module
		index = make(map[string]*module)
	)
	for _, t := range r.g.Roots {
		pkg := t.Class.Package
		if pkg == "" {
			pkg = r.g.Package
		}
		pkg = r.g.Namer.PackageName(pkg)
		name := DefaultModule
		switch {
		case t.Class.Module != "":
			name = r.g.Namer.ModuleName(t.Class.Module)
		case t.Class.Namespace != "":
			name = r.g.Namer.ModuleName(t.Class.Namespace)
		}
		key := pkg + ":" + name
		m, ok := index[key]
		if !ok {
			m = &module{Name: name, Package: pkg}
			index[key] = m
			mods = append(mods, m)
		}
		m.Types = append(m.Types, t)
		m.Classes = append(m.Classes, t.Name)
	}
	return mods
}

func (r *renderer) files() ([]*gen.File, error) {
	mods := r.modules()
	var (
		files    []*gen.File
		packages = make(map[string][]*module)
		order    []string
	)
	for _, m := range mods {
		b, err := r.module(m)
		if err != nil {
			return nil, err
		}
		files = append(files, &gen.File{Path: pyPath(m.Package, m.Name+".py"), Content: b})
		if _, ok := packages[m.Package]; !ok {
			order = append(order, m.Package)
		}
		packages[m.Package] = append(packages[m.Package], m)
	}
	reg, err := r.execute("registry", nil)
	if err != nil {
		return nil, err
	}
	files = append(files, &gen.File{Path: pyPath(r.registryPackage(), RegistryModule+".py"), Content: reg})
	for _, pkg := range order {
		b, err := r.execute("init", struct{ Modules []*module }{packages[pkg]})
		if err != nil {
			return nil, err
		}
		files = append(files, &gen.File{Path: pyPath(pkg, "__init__.py"), Content: b})
	}
	return files, nil
}

func (r *renderer) registryPackage() string {
	return r.g.Namer.PackageName(r.g.Package)
}

func (r *renderer) module(m *module) ([]byte, error) {
	data := moduleData{Registry: RegistryModule}
	if pkg := r.registryPackage(); pkg != "" {
		data.Registry = pkg + "." + RegistryModule
	}
	for _, t := range m.Types {
		s, err := r.class(t)
		if err != nil {
			return nil, err
		}
		data.Classes = append(data.Classes, s)
		if data.Namespace == "" {
			data.Namespace = t.Class.Namespace
		}
	}
	data.Imports = gen.DefaultImports(strings.Join(data.Classes, "\n"))
	return r.execute("module", data)
}

// class renders the type and its inner types, indenting the inner ones in
// the body of the type.
func (r *renderer) class(t *gen.Type) (string, error) {
	data := classData{Type: t}
	for _, it := range t.Inner {
		s, err := r.class(it)
		if err != nil {
			return "", err
		}
		data.Inner = append(data.Inner, indent(s))
	}
	help, err := r.help(t)
	if err != nil {
		return "", err
	}
	data.Help = help
	name := "table"
	if t.IsEnum() {
		name = "enum"
	}
	b, err := r.execute(name, data)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\n"), nil
}

// help returns the class docstring body, listing the documented fields
// as :ivar entries.
func (r *renderer) help(t *gen.Type) (string, error) {
	var lines []string
	if t.Class.Help != "" {
		lines = append(lines, gen.CleanDocstring(t.Class.Help, true))
	}
	if !t.IsEnum() {
		fields, err := r.g.Fields(t)
		if err != nil {
			return "", err
		}
		for _, f := range fields {
			if f.Attr.Help == "" {
				continue
			}
			name := r.g.Namer.FieldName(f.Attr.Name)
			ivar := ":ivar " + name + ": " + gen.CleanDocstring(f.Attr.Help, true)
			lines = append(lines, r.g.TextWrap(ivar, 4))
		}
	}
	return strings.ReplaceAll(strings.Join(lines, "\n"), "\n", "\n    "), nil
}

func (r *renderer) execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %q: %w", name, err)
	}
	return tidy(buf.Bytes()), nil
}

var (
	trailingSpace = regexp.MustCompile(`(?m)[ \t]+$`)
	blankLines    = regexp.MustCompile(`\n{4,}`)
)

// tidy strips trailing whitespace and collapses runs of blank lines.
func tidy(b []byte) []byte {
	b = trailingSpace.ReplaceAll(b, nil)
	b = blankLines.ReplaceAll(b, []byte("\n\n\n"))
	return append(bytes.TrimLeft(bytes.TrimRight(b, "\n"), "\n"), '\n')
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "    " + l
		}
	}
	return strings.Join(lines, "\n")
}

func pyPath(pkg, file string) string {
	return path.Join(append(strings.Split(pkg, "."), file)...)
}
