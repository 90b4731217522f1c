package gen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/syssam/xsdalchemy/compiler/load"
	"github.com/syssam/xsdalchemy/schema/field"
)

// Default is the default value of a dataclass field.
type Default struct {
	// Value is the python expression.
	Value string
	// Factory reports if Value is a default_factory.
	Factory bool
}

// Keyword returns the field() keyword of the default.
func (d *Default) Keyword() string {
	if d.Factory {
		return "default_factory"
	}
	return "default"
}

// TypeName returns the python type name of an attribute type: the
// built-in name, or the class name of its alias or local name.
func (g *Graph) TypeName(t *load.AttrType) string {
	if dt := t.Datatype(); dt.Valid() {
		return dt.String()
	}
	if t.Alias != "" {
		return g.Namer.ClassName(t.Alias)
	}
	return g.Namer.ClassName(t.Name())
}

// typeHint returns the annotation of a resolved type. Complex types are
// string-quoted unless they are direct inner classes declared before use.
func (g *Graph) typeHint(f *Field, r typeRef) string {
	if r.target == nil {
		return r.datatype.String()
	}
	if !r.ref.Forward && !r.ref.Circular && r.target.IsInnerOf(f.Decl) && !f.Inherited() {
		return r.target.Name
	}
	return quote(r.target.FQName)
}

func (g *Graph) iterable(s string) string {
	if g.Format.Frozen {
		return "Tuple[" + s + ", ...]"
	}
	return "List[" + s + "]"
}

// FieldType returns the type hint of the field. Unions holding a complex
// type are stored as strings and typed as such.
func (g *Graph) FieldType(f *Field) (string, error) {
	s, err := g.classify(f)
	if err != nil {
		return "", err
	}
	a := f.Attr
	var result string
	switch {
	case s.kind == kindLossy && hasComplexRef(s.refs):
		result = "str"
	case len(s.refs) > 1:
		hints := make([]string, len(s.refs))
		for i, r := range s.refs {
			hints[i] = g.typeHint(f, r)
		}
		result = "Union[" + strings.Join(hints, ", ") + "]"
	default:
		result = g.typeHint(f, s.refs[0])
	}
	if a.IsTokens {
		result = g.iterable(result)
	}
	switch {
	case a.IsList:
		return g.iterable(result), nil
	case a.IsTokens:
		return result, nil
	case a.IsNillable || (a.Default == nil && (a.IsOptional || !g.Format.KwOnly)):
		return "Optional[" + result + "]", nil
	default:
		return result, nil
	}
}

func hasComplexRef(refs []typeRef) bool {
	for _, r := range refs {
		if r.target != nil {
			return true
		}
	}
	return false
}

// FieldDefault returns the default value of the field, or nil when the
// field has none.
func (g *Graph) FieldDefault(f *Field) (*Default, error) {
	a := f.Attr
	container := "list"
	if g.Format.Frozen {
		container = "tuple"
	}
	switch {
	case a.IsList || (a.IsTokens && a.Default == nil):
		return &Default{Value: container, Factory: true}, nil
	case a.IsDict:
		return &Default{Value: "dict", Factory: true}, nil
	case a.Default == nil:
		if g.Format.KwOnly && !a.IsOptional {
			return nil, nil
		}
		return &Default{Value: "None", Factory: a.IsFactory}, nil
	case strings.HasPrefix(*a.Default, "@enum@"):
		return g.enumDefault(f)
	case a.IsTokens:
		return g.tokensDefault(f), nil
	default:
		return &Default{Value: literal(*a.Default, a.NativeTypes()), Factory: a.IsFactory}, nil
	}
}

// enumDefault renders defaults of the form "@enum@qname::member" as
// references to the enumeration members. Token lists separate members
// with "@".
func (g *Graph) enumDefault(f *Field) (*Default, error) {
	a := f.Attr
	qname, members, ok := strings.Cut(strings.TrimPrefix(*a.Default, "@enum@"), "::")
	if !ok {
		return nil, fmt.Errorf("malformed enum default %q of attr %s", *a.Default, a.Name)
	}
	enum, err := g.FindClassByQName(qname, f.Parents())
	if err != nil {
		return nil, err
	}
	ref := g.classRef(f, enum)
	if !a.IsTokens {
		return &Default{Value: ref + "." + g.Namer.ConstantName(members)}, nil
	}
	var values []any
	for _, m := range strings.Split(members, "@") {
		values = append(values, Raw(ref+"."+g.Namer.ConstantName(m)))
	}
	return &Default{Value: "lambda: " + g.formatIterable(values, 8, false), Factory: true}, nil
}

func (g *Graph) tokensDefault(f *Field) *Default {
	a := f.Attr
	types := a.NativeTypes()
	var values []any
	for _, tok := range strings.Fields(*a.Default) {
		values = append(values, Raw(literal(tok, types)))
	}
	if a.IsEnumeration {
		return &Default{Value: g.formatIterable(values, 8, true)}
	}
	return &Default{Value: "lambda: " + g.formatIterable(values, 8, g.Format.Frozen), Factory: true}
}

// literalOrder is the order datatypes are tried in when parsing a
// default value.
var literalOrder = []field.Type{
	field.TypeBool, field.TypeInt, field.TypeDecimal, field.TypeFloat,
	field.TypeQName, field.TypeXMLDateTime, field.TypeXMLDate, field.TypeXMLTime,
	field.TypeXMLDuration, field.TypeXMLPeriod, field.TypeDateTime, field.TypeDate,
	field.TypeTime,
}

// literal renders a lexical value as a python literal of the first
// datatype that accepts it, falling back to a string.
func literal(value string, types []field.Type) string {
	has := make(map[field.Type]bool, len(types))
	for _, t := range types {
		has[t] = true
	}
	v := strings.TrimSpace(value)
	for _, t := range literalOrder {
		if !has[t] {
			continue
		}
		if lit, ok := parseLiteral(t, v); ok {
			return lit
		}
	}
	return quote(value)
}

func parseLiteral(t field.Type, v string) (string, bool) {
	switch t {
	case field.TypeBool:
		switch v {
		case "true", "1":
			return "True", true
		case "false", "0":
			return "False", true
		}
	case field.TypeInt:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return strconv.FormatInt(n, 10), true
		}
	case field.TypeDecimal:
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return "Decimal(" + quote(v) + ")", true
		}
	case field.TypeFloat:
		return floatLiteral(v)
	case field.TypeQName:
		return "QName(" + quote(v) + ")", v != ""
	case field.TypeXMLDateTime, field.TypeXMLDate, field.TypeXMLTime:
		return t.String() + ".from_string(" + quote(v) + ")", v != ""
	case field.TypeXMLDuration, field.TypeXMLPeriod:
		return t.String() + "(" + quote(v) + ")", v != ""
	case field.TypeDateTime, field.TypeDate, field.TypeTime:
		return t.String() + ".fromisoformat(" + quote(v) + ")", v != ""
	}
	return "", false
}

func floatLiteral(v string) (string, bool) {
	switch v {
	case "INF":
		return `float("inf")`, true
	case "-INF":
		return `float("-inf")`, true
	case "NaN":
		return `float("nan")`, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return "", false
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, true
}

// ConstantValue returns the value of an enumeration member.
func (g *Graph) ConstantValue(f *Field) string {
	t := f.Attr.Types[0]
	switch {
	case t.Native():
		if f.Attr.Default == nil {
			return `""`
		}
		return quote(*f.Attr.Default)
	case t.Alias != "":
		return g.Namer.ClassName(t.Alias)
	default:
		return g.TypeName(t)
	}
}

// Meta is a single entry of the field metadata.
type Meta struct {
	Key   string
	Value any
}

// FieldMetadata returns the metadata entries of the field, including its
// storage declaration under the "sa" key.
func (g *Graph) FieldMetadata(f *Field) ([]Meta, error) {
	a := f.Attr
	col, err := g.Column(f)
	if err != nil {
		return nil, err
	}
	var meta []Meta
	add := func(k string, v any) { meta = append(meta, Meta{Key: k, Value: v}) }
	if !a.IsNameless() && a.Local() != g.Namer.FieldName(a.Name) {
		add("name", a.Local())
	}
	if xt := a.XMLType(); xt != "" {
		add("type", xt)
	}
	if a.Namespace != "" && (a.Namespace != f.Decl.Class.Namespace || a.IsAttribute()) {
		add("namespace", a.Namespace)
	}
	if a.Mixed {
		add("mixed", true)
	}
	add("sa", Raw(col.String()))
	if r := a.Restrictions; r != nil && a.IsList {
		if r.MinOccurs != nil {
			add("min_occurs", *r.MinOccurs)
		}
		if r.MaxOccurs != nil {
			add("max_occurs", *r.MaxOccurs)
		}
	}
	for _, r := range a.Restrictions.List() {
		add(r.Name, r.Value)
	}
	if g.DocMetadata && a.Help != "" {
		add("doc", CleanDocstring(a.Help, false))
	}
	return meta, nil
}

// FieldDefinition renders the field(...) call of the field.
func (g *Graph) FieldDefinition(f *Field) (string, error) {
	def, err := g.FieldDefault(f)
	if err != nil {
		return "", err
	}
	meta, err := g.FieldMetadata(f)
	if err != nil {
		return "", err
	}
	var kwargs []Meta
	if f.Attr.Fixed {
		kwargs = append(kwargs, Meta{Key: "init", Value: false})
	}
	if def != nil {
		kwargs = append(kwargs, Meta{Key: def.Keyword(), Value: Raw(def.Value)})
	}
	if len(meta) > 0 {
		kwargs = append(kwargs, Meta{Key: "metadata", Value: meta})
	}
	return "field(" + g.formatArguments(kwargs, 4) + ")", nil
}

// RelationshipDefinition renders the foreign key field(...) call of a
// many-to-one field.
func (g *Graph) RelationshipDefinition(f *Field) (string, error) {
	fk, err := g.ForeignKey(f)
	if err != nil {
		return "", err
	}
	return fk.Definition(), nil
}

// ForeignKeyName returns the field name of the foreign key held for a
// scalar complex field.
func (g *Graph) ForeignKeyName(f *Field) (string, error) {
	fk, err := g.ForeignKey(f)
	if err != nil {
		return "", err
	}
	return fk.Name, nil
}

// ForeignKey returns the foreign key held for a scalar complex field.
func (g *Graph) ForeignKey(f *Field) (*ForeignKey, error) {
	r, err := g.relationship(f)
	if err != nil {
		return nil, err
	}
	if r.FK == nil {
		return nil, fmt.Errorf("attr %s of %s holds no foreign key", f.Attr.Name, f.Owner.FQName)
	}
	return r.FK, nil
}

// BackrefType returns the type hint of a synthesized relationship field.
func (g *Graph) BackrefType(r *Relationship) string {
	if r.O2M() {
		return g.iterable(quote(r.Target.FQName))
	}
	return "Optional[" + quote(r.Target.FQName) + "]"
}

// BackrefDefinition renders the field(...) call of a synthesized
// relationship field.
func (g *Graph) BackrefDefinition(r *Relationship) string {
	def := Meta{Key: "default", Value: Raw("None")}
	if r.O2M() {
		container := "list"
		if g.Format.Frozen {
			container = "tuple"
		}
		def = Meta{Key: "default_factory", Value: Raw(container)}
	}
	kwargs := []Meta{def, {Key: "metadata", Value: []Meta{{Key: "sa", Value: Raw(r.Declaration())}}}}
	return "field(" + g.formatArguments(kwargs, 4) + ")"
}
