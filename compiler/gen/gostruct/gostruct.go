// Package gostruct renders Go structs of the tables and enumerations of a
// class graph.
package gostruct

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/xsdalchemy/compiler/gen"
	"github.com/syssam/xsdalchemy/schema/field"
)

// Name is the target name.
const Name = "gostruct"

// Target renders one Go file per top-level class.
type Target struct {
	pkg string
}

// New returns a target rendering into the Go package pkg, "models" when
// empty.
func New(pkg string) *Target {
	if pkg == "" {
		pkg = "models"
	}
	return &Target{pkg: pkg}
}

// Name implements gen.Target.
func (*Target) Name() string { return Name }

// Generate implements gen.Target.
func (t *Target) Generate(g *gen.Graph) ([]*gen.File, error) {
	files := make([]*gen.File, 0, len(g.Roots))
	for _, root := range g.Roots {
		f := jen.NewFile(t.pkg)
		f.HeaderComment("Code generated by xsdalchemy, DO NOT EDIT.")
		if err := t.declare(g, f, root); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := f.Render(&buf); err != nil {
			return nil, fmt.Errorf("gostruct: render %s: %w", root.FQName, err)
		}
		files = append(files, &gen.File{
			Path:    path.Join(t.pkg, g.TableName(root)+".go"),
			Content: buf.Bytes(),
		})
	}
	return files, nil
}

// declare adds the declarations of the type and its inner types.
func (t *Target) declare(g *gen.Graph, f *jen.File, typ *gen.Type) error {
	var err error
	if typ.IsEnum() {
		err = t.enum(g, f, typ)
	} else {
		err = t.table(g, f, typ)
	}
	if err != nil {
		return err
	}
	for _, inner := range typ.Inner {
		if err := t.declare(g, f, inner); err != nil {
			return err
		}
	}
	return nil
}

// typeName returns the Go name of a class: its path joined.
func typeName(t *gen.Type) string {
	return pascal(strings.Join(t.Names(), "_"))
}

func (t *Target) table(g *gen.Graph, f *jen.File, typ *gen.Type) error {
	fields, err := g.Fields(typ)
	if err != nil {
		return err
	}
	rels, err := g.Relationships(typ)
	if err != nil {
		return err
	}
	name := typeName(typ)
	var code []jen.Code
	code = append(code, jen.Id("ID").Int64().Tag(tags("id", false)))
	for _, fd := range fields {
		col, err := g.Column(fd)
		if err != nil {
			return err
		}
		if col.Kind == gen.ColumnRelationship {
			continue
		}
		column := g.Namer.FieldName(fd.Attr.Name)
		code = append(code, jen.Id(pascal(column)).Add(goType(col)).Tag(tags(column, true)))
	}
	for _, r := range rels {
		target := jen.Op("*").Id(typeName(r.Target))
		if r.O2M() {
			target = jen.Index().Op("*").Id(typeName(r.Target))
		}
		code = append(code, jen.Id(pascal(r.Name)).Add(target).Tag(map[string]string{
			"json": r.Name + ",omitempty",
			"db":   "-",
		}))
		if r.FK != nil {
			code = append(code, jen.Id(pascal(r.FK.Name)).Op("*").Int64().Tag(tags(r.FK.Name, true)))
		}
	}
	f.Commentf("%s is the model of the %s table.", name, g.TableName(typ))
	f.Type().Id(name).Struct(code...)
	f.Line()
	f.Commentf("TableName returns the table name of %s.", name)
	f.Func().Params(jen.Id(receiver(name)).Op("*").Id(name)).Id("TableName").Params().String().Block(
		jen.Return(jen.Lit(g.TableName(typ))),
	)
	return nil
}

func (t *Target) enum(g *gen.Graph, f *jen.File, typ *gen.Type) error {
	fields, err := g.Fields(typ)
	if err != nil {
		return err
	}
	name := typeName(typ)
	f.Commentf("%s is the %s enumeration.", name, g.EnumName(typ))
	f.Type().Id(name).String()
	f.Line()
	var (
		consts []jen.Code
		values []jen.Code
	)
	for _, fd := range fields {
		c := name + pascal(strings.ToLower(g.Namer.ConstantName(fd.Attr.Name)))
		consts = append(consts, jen.Id(c).Id(name).Op("=").Lit(enumValue(fd)))
		values = append(values, jen.Id(c))
	}
	if len(consts) > 0 {
		f.Comment(name + " values.")
		f.Const().Defs(consts...)
		f.Line()
	}
	f.Commentf("%s returns all values of %s.", plural(name), name)
	f.Func().Id(plural(name)).Params().Index().Id(name).Block(
		jen.Return(jen.Index().Id(name).Values(values...)),
	)
	return nil
}

// enumValue returns the stored value of an enumeration member.
func enumValue(f *gen.Field) string {
	if f.Attr.Default != nil {
		return *f.Attr.Default
	}
	return f.Attr.Name
}

func tags(column string, omitempty bool) map[string]string {
	json := column
	if omitempty {
		json += ",omitempty"
	}
	return map[string]string{"json": json, "db": column}
}

// goType returns the Go type of a non-relationship column. Scalars are
// pointers since every column is nullable.
func goType(c *gen.Column) jen.Code {
	var elem *jen.Statement
	if c.Kind == gen.ColumnEnum {
		elem = jen.Id(typeName(c.Enum))
	} else {
		elem = scalar(c.Datatype)
	}
	if c.List {
		return jen.Index().Add(elem)
	}
	switch c.Datatype {
	case field.TypeBytes, field.TypeDict, field.TypeObject:
		return elem
	}
	return jen.Op("*").Add(elem)
}

func scalar(t field.Type) *jen.Statement {
	switch t {
	case field.TypeBool:
		return jen.Bool()
	case field.TypeInt:
		return jen.Int64()
	case field.TypeFloat:
		return jen.Float64()
	case field.TypeBytes:
		return jen.Index().Byte()
	case field.TypeDict:
		return jen.Map(jen.String()).Any()
	case field.TypeObject:
		return jen.Any()
	case field.TypeDateTime, field.TypeXMLDateTime, field.TypeDate, field.TypeXMLDate,
		field.TypeTime, field.TypeXMLTime:
		return jen.Qual("time", "Time")
	case field.TypeDuration:
		return jen.Qual("time", "Duration")
	default:
		return jen.String()
	}
}
