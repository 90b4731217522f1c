// Package graphql renders a GraphQL schema of the tables and enumerations
// of a class graph.
package graphql

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/syssam/xsdalchemy/compiler/gen"
	"github.com/syssam/xsdalchemy/schema/field"
)

// Name is the target name.
const Name = "graphql"

// Target renders a single schema.graphql file.
type Target struct{}

// New returns the graphql target.
func New() *Target { return &Target{} }

// Name implements gen.Target.
func (*Target) Name() string { return Name }

// Generate implements gen.Target.
func (*Target) Generate(g *gen.Graph) ([]*gen.File, error) {
	doc, err := Document(g)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)
	return []*gen.File{{Path: "schema.graphql", Content: buf.Bytes()}}, nil
}

// scalars are the custom scalars referenced by the schema.
var scalars = []string{"Decimal", "DateTime", "Date", "Time", "Duration", "JSON", "Bytes"}

// Document returns the schema document of the graph: one object per
// table, one enum per enumeration and the custom scalars they use.
func Document(g *gen.Graph) (*ast.SchemaDocument, error) {
	doc := &ast.SchemaDocument{}
	used := make(map[string]bool)
	for _, t := range g.Types {
		var (
			def *ast.Definition
			err error
		)
		if t.IsEnum() {
			def, err = enum(g, t)
		} else {
			def, err = object(g, t, used)
		}
		if err != nil {
			return nil, err
		}
		doc.Definitions = append(doc.Definitions, def)
	}
	for _, s := range scalars {
		if used[s] {
			doc.Definitions = append(doc.Definitions, &ast.Definition{Kind: ast.Scalar, Name: s})
		}
	}
	return doc, nil
}

// TypeName returns the GraphQL name of a class: its path joined.
func TypeName(t *gen.Type) string {
	return strings.Join(t.Names(), "")
}

func object(g *gen.Graph, t *gen.Type, used map[string]bool) (*ast.Definition, error) {
	def := &ast.Definition{
		Kind:        ast.Object,
		Name:        TypeName(t),
		Description: gen.CleanDocstring(t.Class.Help, false),
		Fields: ast.FieldList{
			{Name: "id", Type: ast.NonNullNamedType("ID", nil)},
		},
	}
	fields, err := g.Fields(t)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		col, err := g.Column(f)
		if err != nil {
			return nil, err
		}
		if col.Kind == gen.ColumnRelationship {
			continue
		}
		var named string
		if col.Kind == gen.ColumnEnum {
			named = TypeName(col.Enum)
		} else {
			named = scalar(col.Datatype)
			used[named] = true
		}
		typ := ast.NamedType(named, nil)
		if col.List {
			typ = ast.NonNullListType(ast.NonNullNamedType(named, nil), nil)
		}
		def.Fields = append(def.Fields, &ast.FieldDefinition{
			Name:        g.Namer.FieldName(f.Attr.Name),
			Type:        typ,
			Description: gen.CleanDocstring(f.Attr.Help, false),
		})
	}
	rels, err := g.Relationships(t)
	if err != nil {
		return nil, err
	}
	for _, r := range rels {
		typ := ast.NamedType(TypeName(r.Target), nil)
		if r.O2M() {
			typ = ast.NonNullListType(ast.NonNullNamedType(TypeName(r.Target), nil), nil)
		}
		def.Fields = append(def.Fields, &ast.FieldDefinition{Name: r.Name, Type: typ})
	}
	return def, nil
}

func enum(g *gen.Graph, t *gen.Type) (*ast.Definition, error) {
	fields, err := g.Fields(t)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("graphql: enumeration %s has no members", t.FQName)
	}
	def := &ast.Definition{
		Kind:        ast.Enum,
		Name:        TypeName(t),
		Description: gen.CleanDocstring(t.Class.Help, false),
	}
	for _, f := range fields {
		def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
			Name: g.Namer.ConstantName(f.Attr.Name),
		})
	}
	return def, nil
}

func scalar(t field.Type) string {
	switch t {
	case field.TypeBool:
		return "Boolean"
	case field.TypeInt:
		return "Int"
	case field.TypeFloat:
		return "Float"
	case field.TypeDecimal:
		return "Decimal"
	case field.TypeDateTime, field.TypeXMLDateTime:
		return "DateTime"
	case field.TypeDate, field.TypeXMLDate:
		return "Date"
	case field.TypeTime, field.TypeXMLTime:
		return "Time"
	case field.TypeDuration, field.TypeXMLDuration:
		return "Duration"
	case field.TypeDict, field.TypeObject:
		return "JSON"
	case field.TypeBytes:
		return "Bytes"
	default:
		return "String"
	}
}
