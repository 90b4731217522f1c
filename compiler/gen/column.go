package gen

import (
	"fmt"
	"strings"

	"github.com/syssam/xsdalchemy/schema/field"
)

// ColumnKind is the storage kind of a field.
type ColumnKind uint8

// Column kinds.
const (
	// ColumnScalar is a single primitive value.
	ColumnScalar ColumnKind = iota
	// ColumnArray is a list of primitive values.
	ColumnArray
	// ColumnEnum is an enumeration value, or a list of them.
	ColumnEnum
	// ColumnRelationship is a reference to another table.
	ColumnRelationship
)

// Column is the storage declaration of a field.
type Column struct {
	Kind ColumnKind
	// Type is the column type expression, or the element type of arrays.
	Type string
	// Datatype is the primitive datatype stored, TypeString for lossy
	// unions. It is TypeInvalid for enums and relationships.
	Datatype field.Type
	// Lossy is set for unions stored as plain strings.
	Lossy bool
	// List is set for array columns and one-to-many relationships.
	List bool
	// Enum is the enumeration type of enum columns.
	Enum *Type
	// EnumName is the storage name of the enumeration type.
	EnumName string
	// Relationship is set for relationship columns.
	Relationship *Relationship
}

var defaultColumnTypes = map[field.Type]string{
	field.TypeBool:        "Boolean",
	field.TypeInt:         "Integer",
	field.TypeDecimal:     "Numeric",
	field.TypeString:      "String",
	field.TypeQName:       "String",
	field.TypeXMLPeriod:   "String",
	field.TypeBytes:       "LargeBinary()",
	field.TypeDict:        "JSONB",
	field.TypeObject:      "JSONB",
	field.TypeFloat:       "Float",
	field.TypeDateTime:    "DateTime",
	field.TypeXMLDateTime: "DateTime",
	field.TypeDate:        "Date",
	field.TypeXMLDate:     "Date",
	field.TypeTime:        "Time",
	field.TypeXMLTime:     "Time",
	field.TypeDuration:    "Interval",
	field.TypeXMLDuration: "Interval",
}

// ColumnType returns the column type of a primitive datatype, honoring the
// configured overrides.
func (g *Graph) ColumnType(t field.Type) (string, error) {
	if ct, ok := g.ColumnTypes[t.String()]; ok {
		return ct, nil
	}
	ct, ok := defaultColumnTypes[t]
	if !ok {
		return "", fmt.Errorf("no column type for datatype %q", t)
	}
	return ct, nil
}

// EnumName returns the storage name of an enumeration type: its class name
// followed by the names of its enclosing classes. Equal class names nested
// in different classes get different names.
func (g *Graph) EnumName(enum *Type) string {
	names := enum.Names()
	return strings.Join(append([]string{enum.Name}, names[:len(names)-1]...), "_")
}

// Column maps the field to its storage declaration.
func (g *Graph) Column(f *Field) (*Column, error) {
	s, err := g.classify(f)
	if err != nil {
		return nil, err
	}
	a := f.Attr
	switch s.kind {
	case kindLossy:
		g.log.Debug("union stored as string", "class", f.Owner.FQName, "attr", a.Name)
		ct, err := g.ColumnType(field.TypeString)
		if err != nil {
			return nil, err
		}
		return &Column{Kind: ColumnScalar, Type: ct, Datatype: field.TypeString, Lossy: true}, nil
	case kindPrimitive:
		ct, err := g.ColumnType(s.datatype)
		if err != nil {
			return nil, NewConfigError(f.Decl.FQName, a.Name, ShapeUnmappedDatatype, err.Error())
		}
		c := &Column{Kind: ColumnScalar, Type: ct, Datatype: s.datatype}
		if a.IsList || a.IsTokens {
			c.Kind, c.List = ColumnArray, true
		}
		return c, nil
	case kindEnum:
		return &Column{
			Kind:     ColumnEnum,
			Type:     g.classRef(f, s.target),
			Enum:     s.target,
			EnumName: g.EnumName(s.target),
			List:     a.IsList || a.IsTokens,
		}, nil
	default:
		rel, err := g.relationship(f)
		if err != nil {
			return nil, err
		}
		return &Column{Kind: ColumnRelationship, List: a.IsList, Relationship: rel}, nil
	}
}

// classRef returns the expression referencing the class t from the body of
// the class declaring f. Class bodies do not see their enclosing scopes,
// so only direct inner classes are referenced by their bare name.
func (g *Graph) classRef(f *Field, t *Type) string {
	if t.IsInnerOf(f.Decl) && !f.Inherited() {
		return t.Name
	}
	return t.FQName
}

// String renders the column as a SQLAlchemy Column or relationship
// declaration.
func (c *Column) String() string {
	switch c.Kind {
	case ColumnArray:
		return "Column(ARRAY(" + c.Type + "))"
	case ColumnEnum:
		enum := fmt.Sprintf("SqlEnum(%s, name=%s, inherit_schema=True)", c.Type, quote(c.EnumName))
		if c.List {
			return "Column(ARRAY(" + enum + "))"
		}
		return "Column(" + enum + ")"
	case ColumnRelationship:
		return c.Relationship.Declaration()
	default:
		return "Column(" + c.Type + ")"
	}
}

// IsManyToOne reports if the field maps to a many-to-one relationship.
func (g *Graph) IsManyToOne(f *Field) (bool, error) {
	s, err := g.classify(f)
	if err != nil {
		return false, err
	}
	return s.kind == kindComplex && !f.Attr.IsList, nil
}

// NonRelational returns the fields of the type that are not stored as
// relationships.
func (g *Graph) NonRelational(t *Type) ([]*Field, error) {
	fields, err := g.Fields(t)
	if err != nil {
		return nil, err
	}
	var out []*Field
	for _, f := range fields {
		s, err := g.classify(f)
		if err != nil {
			return nil, err
		}
		if s.kind != kindComplex {
			out = append(out, f)
		}
	}
	return out, nil
}
