package gen

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/syssam/xsdalchemy/compiler/load"
)

// Graph holds the classes of a single generation run, indexed by their
// fully-qualified names. It is built once and read-only afterwards. A
// Graph must not be shared between runs.
type Graph struct {
	*Config
	// Namer converts schema names to identifiers.
	Namer *Namer
	// Types holds all types of the graph in depth-first order, parents
	// before their inner types. Types[i].ID == i.
	Types []*Type
	// Roots holds the top-level types.
	Roots []*Type
	// RunID identifies the run in the logs.
	RunID string

	index map[string]int
	// names counts the types per converted class name.
	names map[string]int
	log   *slog.Logger

	linksOnce sync.Once
	linkCache []link
	linkErr   error
}

// NewGraph indexes the given classes. Two classes with the same
// fully-qualified name are reported as a ConfigError.
func NewGraph(c *Config, classes []*load.Class) (*Graph, error) {
	if c == nil {
		c = defaultConfig()
	}
	g := &Graph{
		Config: c,
		Namer:  NewNamer(c),
		RunID:  uuid.NewString(),
		index:  make(map[string]int),
		names:  make(map[string]int),
	}
	g.log = c.logger().With("run", g.RunID)
	for _, class := range classes {
		t, err := g.add(class, nil)
		if err != nil {
			return nil, err
		}
		g.Roots = append(g.Roots, t)
	}
	if err := g.checkTables(); err != nil {
		return nil, err
	}
	g.log.Debug("class graph indexed", "types", len(g.Types), "roots", len(g.Roots))
	return g, nil
}

func (g *Graph) add(class *load.Class, parent *Type) (*Type, error) {
	t := &Type{
		ID:     len(g.Types),
		Name:   g.Namer.ClassName(class.QName),
		Class:  class,
		Parent: parent,
	}
	t.FQName, t.Path = t.Name, []string{class.QName}
	if parent != nil {
		t.FQName = parent.FQName + "." + t.Name
		t.Path = append(append(make([]string, 0, len(parent.Path)+1), parent.Path...), class.QName)
	}
	if _, ok := g.index[t.FQName]; ok {
		return nil, NewConfigError(class.QName, "", ShapeDuplicateClass,
			fmt.Sprintf("fully-qualified name %s is declared more than once", t.FQName))
	}
	g.index[t.FQName] = t.ID
	g.names[t.Name]++
	g.Types = append(g.Types, t)
	for _, inner := range class.Inner {
		it, err := g.add(inner, t)
		if err != nil {
			return nil, err
		}
		t.Inner = append(t.Inner, it)
	}
	return t, nil
}

// checkTables rejects two types whose table names are equal after
// trimming.
func (g *Graph) checkTables() error {
	seen := make(map[string]*Type)
	for _, t := range g.Tables() {
		name := g.TableName(t)
		if prev, ok := seen[name]; ok {
			return NewConfigError(t.FQName, "", ShapeNameCollision,
				fmt.Sprintf("table name %s is also used by %s", name, prev.FQName))
		}
		seen[name] = t
	}
	return nil
}

// Lookup returns the type with the given fully-qualified name.
func (g *Graph) Lookup(fqname string) (*Type, bool) {
	id, ok := g.index[fqname]
	if !ok {
		return nil, false
	}
	return g.Types[id], true
}

// Logger returns the logger of the run.
func (g *Graph) Logger() *slog.Logger { return g.log }

// FindClassByQName resolves the class referenced by qname from the scope
// of the given parent classes (raw qnames, outermost first). Candidates
// are tried in order:
//
//  1. the exact path parents + name
//  2. the bare name
//  3. a type whose path ends with parents + name
//  4. a type whose path ends with the bare name
//
// Suffix matches respect segment boundaries. Ties within a suffix tier are
// broken by traversal order and logged, or reported as errors in strict
// mode.
func (g *Graph) FindClassByQName(qname string, parents []string) (*Type, error) {
	name := g.Namer.ClassName(qname)
	segs := make([]string, 0, len(parents)+1)
	for _, p := range parents {
		segs = append(segs, g.Namer.ClassName(p))
	}
	full := strings.Join(append(segs, name), ".")
	if t, ok := g.Lookup(full); ok {
		return t, nil
	}
	if t, ok := g.Lookup(name); ok {
		return t, nil
	}
	for _, suffix := range []string{full, name} {
		matches := g.suffixMatches(suffix)
		switch {
		case len(matches) == 0:
			continue
		case len(matches) > 1:
			if err := g.ambiguous(qname, parents, matches); err != nil {
				return nil, err
			}
		}
		return matches[0], nil
	}
	return nil, &ResolutionError{QName: qname, Parents: parents}
}

func (g *Graph) suffixMatches(suffix string) []*Type {
	var matches []*Type
	for _, t := range g.Types {
		if t.FQName == suffix || strings.HasSuffix(t.FQName, "."+suffix) {
			matches = append(matches, t)
		}
	}
	return matches
}

func (g *Graph) ambiguous(qname string, parents []string, matches []*Type) error {
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.FQName
	}
	if g.StrictResolution {
		return &ResolutionError{QName: qname, Parents: parents, Candidates: names}
	}
	g.log.Warn("ambiguous class reference",
		"qname", qname,
		"parents", strings.Join(parents, "."),
		"candidates", names,
		"picked", names[0],
	)
	return nil
}

// resolve returns the type referenced by a complex attribute type of f.
func (g *Graph) resolve(f *Field, ref *load.AttrType) (*Type, error) {
	t, err := g.FindClassByQName(ref.QName, f.Parents())
	if err != nil {
		var re *ResolutionError
		if errors.As(err, &re) {
			re.Class, re.Attr = f.Decl.FQName, f.Attr.Name
		}
		return nil, err
	}
	return t, nil
}

// TableName returns the table name of the type.
func (g *Graph) TableName(t *Type) string {
	return g.Namer.TableName(t.Names()...)
}

// Tables returns the types that are stored in tables, which are all
// non-enumeration types.
func (g *Graph) Tables() []*Type {
	var tables []*Type
	for _, t := range g.Types {
		if !t.IsEnum() {
			tables = append(tables, t)
		}
	}
	return tables
}

// Enums returns the enumeration types of the graph.
func (g *Graph) Enums() []*Type {
	var enums []*Type
	for _, t := range g.Types {
		if t.IsEnum() {
			enums = append(enums, t)
		}
	}
	return enums
}
