package gen

import "text/template"

// Filters exposes the naming, typing and mapping decisions of a graph to
// the rendering templates.
type Filters struct {
	g *Graph
}

// Filters returns the filter surface of the graph.
func (g *Graph) Filters() *Filters { return &Filters{g: g} }

// FuncMap returns the filters keyed by their template names.
func (f *Filters) FuncMap() template.FuncMap {
	return template.FuncMap{
		"class_name":              f.ClassName,
		"field_name":              f.FieldName,
		"constant_name":           f.ConstantName,
		"module_name":             f.g.Namer.ModuleName,
		"package_name":            f.g.Namer.PackageName,
		"type_name":               f.g.TypeName,
		"field_type":              f.g.FieldType,
		"field_default":           f.FieldDefault,
		"field_metadata":          f.g.FieldMetadata,
		"field_definition":        f.g.FieldDefinition,
		"sa_column":               f.SAColumn,
		"table_name":              f.g.TableName,
		"fields":                  f.g.Fields,
		"relationships":           f.g.Relationships,
		"relationship_backrefs":   f.g.Backrefs,
		"relationship_definition": f.g.RelationshipDefinition,
		"backref_type":            f.g.BackrefType,
		"backref_definition":      f.g.BackrefDefinition,
		"foreign_keys":            f.g.ForeignKeys,
		"foreign_key_name":        f.g.ForeignKeyName,
		"is_many_to_one":          f.g.IsManyToOne,
		"non_relational":          f.g.NonRelational,
		"extension_attrs":         f.g.ExtensionFields,
		"constant_value":          f.g.ConstantValue,
		"clean_docstring":         f.CleanDocstring,
		"text_wrap":               f.g.TextWrap,
		"format_string":           f.FormatString,
		"default_imports":         DefaultImports,
		"class_annotation":        f.ClassAnnotation,
	}
}

// ClassName returns the class name of the type.
func (f *Filters) ClassName(t *Type) string { return t.Name }

// FieldName returns the field name of the field.
func (f *Filters) FieldName(fd *Field) string { return f.g.Namer.FieldName(fd.Attr.Name) }

// ConstantName returns the enumeration member name of the field.
func (f *Filters) ConstantName(fd *Field) string { return f.g.Namer.ConstantName(fd.Attr.Name) }

// FieldDefault returns the default expression of the field, or an empty
// string when it has none.
func (f *Filters) FieldDefault(fd *Field) (string, error) {
	d, err := f.g.FieldDefault(fd)
	if err != nil || d == nil {
		return "", err
	}
	return d.Value, nil
}

// SAColumn returns the storage declaration of the field.
func (f *Filters) SAColumn(fd *Field) (string, error) {
	c, err := f.g.Column(fd)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// CleanDocstring cleans a docstring for a triple quoted literal.
func (f *Filters) CleanDocstring(s string) string { return CleanDocstring(s, true) }

// FormatString renders a metadata string value.
func (f *Filters) FormatString(s string, indent int) string {
	return f.g.FormatString(s, indent, "", 0)
}

// ClassAnnotation returns the dataclass decorator of the configured output
// format.
func (f *Filters) ClassAnnotation() string { return ClassAnnotation(f.g.Format) }
