package gen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/xsdalchemy/compiler/load"
	"github.com/syssam/xsdalchemy/schema/field"
)

// class returns a class named qname holding the attrs.
func class(qname string, attrs ...*load.Attr) *load.Class {
	return &load.Class{QName: qname, Attrs: attrs}
}

// nested returns c with the inner classes added.
func nested(c *load.Class, inner ...*load.Class) *load.Class {
	c.Inner = append(c.Inner, inner...)
	return c
}

// extends returns c extending the class base.
func extends(c *load.Class, base string) *load.Class {
	c.Extensions = append(c.Extensions, &load.Extension{Type: &load.AttrType{QName: base}})
	return c
}

// enum returns an enumeration class with one member per value.
func enum(qname string, values ...string) *load.Class {
	c := &load.Class{QName: qname, IsEnumeration: true}
	for _, v := range values {
		c.Attrs = append(c.Attrs, &load.Attr{
			Name:    v,
			Types:   []*load.AttrType{{QName: "str", DataType: "str"}},
			Default: ptr(v),
		})
	}
	return c
}

// attr returns an attr of the given types. Built-in type names become
// datatypes, anything else a class reference.
func attr(name string, types ...string) *load.Attr {
	a := &load.Attr{Name: name}
	for _, t := range types {
		ref := &load.AttrType{QName: t}
		if field.ParseType(t).Valid() {
			ref.DataType = t
		}
		a.Types = append(a.Types, ref)
	}
	return a
}

// list returns a marked as a list.
func list(a *load.Attr) *load.Attr {
	a.IsList = true
	return a
}

func ptr[T any](v T) *T { return &v }

// newGraph builds a graph of the classes with the options applied.
func newGraph(t *testing.T, classes []*load.Class, opts ...Option) *Graph {
	t.Helper()
	c, err := NewConfig(opts...)
	require.NoError(t, err)
	g, err := NewGraph(c, classes)
	require.NoError(t, err)
	return g
}

// lookup returns the type with the fully-qualified name.
func lookup(t *testing.T, g *Graph, fqname string) *Type {
	t.Helper()
	typ, ok := g.Lookup(fqname)
	require.True(t, ok, "type %s not found", fqname)
	return typ
}

// fieldOf returns the effective field named name of the type.
func fieldOf(t *testing.T, g *Graph, typ *Type, name string) *Field {
	t.Helper()
	fields, err := g.Fields(typ)
	require.NoError(t, err)
	for _, f := range fields {
		if f.Attr.Name == name {
			return f
		}
	}
	require.Failf(t, "field not found", "%s.%s", typ.FQName, name)
	return nil
}

// shapes is a class graph with nested classes, an enumeration and a
// one-to-many and a many-to-one association.
//
//	Shapes
//	  title: str
//	  palette: Palette
//	  Palette
//	    color: Color
//	    Color (red, green)
//	Circle
//	  shapes: []Shapes
func shapes() []*load.Class {
	return []*load.Class{
		nested(
			class("{urn:shapes}Shapes",
				attr("title", "str"),
				attr("palette", "Palette"),
			),
			nested(
				class("Palette", attr("color", "Color")),
				enum("Color", "red", "green"),
			),
		),
		class("{urn:shapes}Circle", list(attr("shapes", "Shapes"))),
	}
}
