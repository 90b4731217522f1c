// Package ddl models the tables inferred for a class graph with the atlas
// schema package, plans their DDL statements and applies them to a
// database.
package ddl

import (
	"fmt"
	"hash/fnv"

	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/xsdalchemy/compiler/gen"
	"github.com/syssam/xsdalchemy/schema/field"
)

// Dialect names a supported database dialect.
type Dialect string

// Supported dialects.
const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// Dialects returns the supported dialects.
func Dialects() []Dialect { return []Dialect{Postgres, MySQL, SQLite} }

// ParseDialect returns the dialect with the given name.
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(name); d {
	case Postgres, MySQL, SQLite:
		return d, nil
	case "postgresql", "pgx":
		return Postgres, nil
	case "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("ddl: unknown dialect %q", name)
}

// maxIdentifier returns the identifier length limit of the dialect.
func (d Dialect) maxIdentifier() int {
	if d == MySQL {
		return 64
	}
	return gen.MaxIdentifierLength
}

// Schema is the atlas schema of a graph and the foreign keys between its
// tables.
type Schema struct {
	*schema.Schema
	Dialect Dialect
	// FKs holds the foreign keys per owning table, in table order.
	FKs map[string][]*schema.ForeignKey
}

// Build returns the schema of the tables inferred for the graph. Every
// table gets an auto-incremented id primary key. Relationship columns are
// replaced by their foreign key columns. The constraints are kept in FKs
// and added once every table exists. SQLite ignores the schema name.
func Build(g *gen.Graph, name string, d Dialect) (*Schema, error) {
	if d == SQLite {
		// Tables are created in the attached database, unqualified.
		name = ""
	}
	s := &Schema{
		Schema:  schema.New(name),
		Dialect: d,
		FKs:     make(map[string][]*schema.ForeignKey),
	}
	tables := make(map[string]*schema.Table)
	for _, t := range g.Tables() {
		tbl, err := s.table(g, t)
		if err != nil {
			return nil, err
		}
		s.AddTables(tbl)
		tables[tbl.Name] = tbl
	}
	for _, t := range g.Tables() {
		tbl := tables[g.TableName(t)]
		fks, err := g.ForeignKeys(t)
		if err != nil {
			return nil, err
		}
		for _, fk := range fks {
			ref, ok := tables[fk.Table]
			if !ok {
				return nil, fmt.Errorf("ddl: table %s references unknown table %s", tbl.Name, fk.Table)
			}
			refCol, ok := ref.Column(fk.Column)
			if !ok {
				return nil, fmt.Errorf("ddl: table %s has no column %s", ref.Name, fk.Column)
			}
			c := schema.NewIntColumn(fk.Name, s.intType()).SetNull(true)
			tbl.AddColumns(c)
			f := schema.NewForeignKey(s.symbol(tbl.Name, fk.Name)).
				AddColumns(c).
				SetRefTable(ref).
				AddRefColumns(refCol).
				SetOnDelete(schema.SetNull)
			f.Table = tbl
			s.FKs[tbl.Name] = append(s.FKs[tbl.Name], f)
		}
	}
	return s, nil
}

// symbol returns the constraint name of a foreign key. Names longer
// than the dialect limit keep their head and end with a hash of the
// full name, so distinct long names stay distinct.
func (s *Schema) symbol(table, column string) string {
	sym := table + "_" + column + "_fkey"
	limit := s.Dialect.maxIdentifier()
	if len(sym) <= limit {
		return sym
	}
	h := fnv.New32a()
	h.Write([]byte(sym))
	tail := fmt.Sprintf("_%08x_fkey", h.Sum32())
	return sym[:limit-len(tail)] + tail
}

func (s *Schema) intType() string {
	if s.Dialect == MySQL {
		return "int"
	}
	return "integer"
}

func (s *Schema) table(g *gen.Graph, t *gen.Type) (*schema.Table, error) {
	tbl := schema.NewTable(g.TableName(t))
	id := schema.NewIntColumn("id", s.intType())
	switch s.Dialect {
	case Postgres:
		id.Type.Type = &postgres.SerialType{T: "serial"}
	case MySQL:
		id.AddAttrs(&mysql.AutoIncrement{})
	case SQLite:
		id.AddAttrs(&sqlite.AutoIncrement{})
	}
	tbl.AddColumns(id).SetPrimaryKey(schema.NewPrimaryKey(id))
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
		typ, err := s.columnType(col)
		if err != nil {
			return nil, fmt.Errorf("ddl: %s.%s: %w", tbl.Name, f.Attr.Name, err)
		}
		tbl.AddColumns(schema.NewColumn(g.Namer.FieldName(f.Attr.Name)).SetType(typ).SetNull(true))
	}
	return tbl, nil
}

// columnType returns the SQL type of a non-relationship column.
func (s *Schema) columnType(c *gen.Column) (schema.Type, error) {
	var elem schema.Type
	switch c.Kind {
	case gen.ColumnEnum:
		elem = s.enumType(c)
	default:
		t, err := s.scalarType(c.Datatype)
		if err != nil {
			return nil, err
		}
		elem = t
	}
	if !c.List {
		return elem, nil
	}
	if s.Dialect == Postgres {
		return &postgres.ArrayType{Type: elem, T: typeName(elem) + "[]"}, nil
	}
	return &schema.JSONType{T: "json"}, nil
}

// enumType returns the type of an enumeration column. MySQL declares the
// members inline, the other dialects store the member values as text.
func (s *Schema) enumType(c *gen.Column) schema.Type {
	if s.Dialect != MySQL {
		return &schema.StringType{T: "text"}
	}
	var values []string
	for _, a := range c.Enum.Class.Attrs {
		if a.Default != nil {
			values = append(values, *a.Default)
		} else {
			values = append(values, a.Name)
		}
	}
	return &schema.EnumType{T: "enum", Values: values}
}

func (s *Schema) scalarType(t field.Type) (schema.Type, error) {
	pick := func(pg, my, lite string) string {
		switch s.Dialect {
		case MySQL:
			return my
		case SQLite:
			return lite
		default:
			return pg
		}
	}
	switch t {
	case field.TypeBool:
		return &schema.BoolType{T: pick("boolean", "bool", "bool")}, nil
	case field.TypeInt:
		return &schema.IntegerType{T: pick("bigint", "bigint", "integer")}, nil
	case field.TypeDecimal:
		return &schema.DecimalType{T: pick("numeric", "decimal", "decimal")}, nil
	case field.TypeFloat:
		return &schema.FloatType{T: pick("double precision", "double", "real")}, nil
	case field.TypeString, field.TypeQName, field.TypeXMLPeriod:
		if s.Dialect == MySQL {
			return &schema.StringType{T: "varchar", Size: 255}, nil
		}
		return &schema.StringType{T: "text"}, nil
	case field.TypeBytes:
		return &schema.BinaryType{T: pick("bytea", "longblob", "blob")}, nil
	case field.TypeDict, field.TypeObject:
		return &schema.JSONType{T: pick("jsonb", "json", "json")}, nil
	case field.TypeDateTime, field.TypeXMLDateTime:
		return &schema.TimeType{T: pick("timestamptz", "datetime", "datetime")}, nil
	case field.TypeDate, field.TypeXMLDate:
		return &schema.TimeType{T: "date"}, nil
	case field.TypeTime, field.TypeXMLTime:
		return &schema.TimeType{T: "time"}, nil
	case field.TypeDuration, field.TypeXMLDuration:
		if s.Dialect == Postgres {
			return &postgres.IntervalType{T: "interval"}, nil
		}
		return &schema.StringType{T: pick("interval", "varchar", "text"), Size: 64}, nil
	}
	return nil, fmt.Errorf("no SQL type for datatype %q", t)
}

func typeName(t schema.Type) string {
	switch t := t.(type) {
	case *schema.BoolType:
		return t.T
	case *schema.IntegerType:
		return t.T
	case *schema.DecimalType:
		return t.T
	case *schema.FloatType:
		return t.T
	case *schema.StringType:
		return t.T
	case *schema.BinaryType:
		return t.T
	case *schema.JSONType:
		return t.T
	case *schema.TimeType:
		return t.T
	case *postgres.IntervalType:
		return t.T
	}
	return "text"
}
