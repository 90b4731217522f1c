// Package load holds the class graph handed over by the XML-Schema parser
// and decodes it from its serialized dump.
package load

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/xsdalchemy/schema/field"
)

// Class represents one generated class, derived from an XSD complex type,
// simple type with enumerations, or group.
type Class struct {
	QName         string       `json:"qname" yaml:"qname" msgpack:"qname"`
	Name          string       `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	Namespace     string       `json:"namespace,omitempty" yaml:"namespace,omitempty" msgpack:"namespace,omitempty"`
	Package       string       `json:"package,omitempty" yaml:"package,omitempty" msgpack:"package,omitempty"`
	Module        string       `json:"module,omitempty" yaml:"module,omitempty" msgpack:"module,omitempty"`
	Help          string       `json:"help,omitempty" yaml:"help,omitempty" msgpack:"help,omitempty"`
	Abstract      bool         `json:"abstract,omitempty" yaml:"abstract,omitempty" msgpack:"abstract,omitempty"`
	IsEnumeration bool         `json:"is_enumeration,omitempty" yaml:"is_enumeration,omitempty" msgpack:"is_enumeration,omitempty"`
	Attrs         []*Attr      `json:"attrs,omitempty" yaml:"attrs,omitempty" msgpack:"attrs,omitempty"`
	Extensions    []*Extension `json:"extensions,omitempty" yaml:"extensions,omitempty" msgpack:"extensions,omitempty"`
	Inner         []*Class     `json:"inner,omitempty" yaml:"inner,omitempty" msgpack:"inner,omitempty"`
}

// Attr represents one field of a class.
type Attr struct {
	Name          string        `json:"name" yaml:"name" msgpack:"name"`
	LocalName     string        `json:"local_name,omitempty" yaml:"local_name,omitempty" msgpack:"local_name,omitempty"`
	Namespace     string        `json:"namespace,omitempty" yaml:"namespace,omitempty" msgpack:"namespace,omitempty"`
	Tag           string        `json:"tag,omitempty" yaml:"tag,omitempty" msgpack:"tag,omitempty"`
	Types         []*AttrType   `json:"types" yaml:"types" msgpack:"types"`
	Default       *string       `json:"default,omitempty" yaml:"default,omitempty" msgpack:"default,omitempty"`
	Fixed         bool          `json:"fixed,omitempty" yaml:"fixed,omitempty" msgpack:"fixed,omitempty"`
	Mixed         bool          `json:"mixed,omitempty" yaml:"mixed,omitempty" msgpack:"mixed,omitempty"`
	IsList        bool          `json:"is_list,omitempty" yaml:"is_list,omitempty" msgpack:"is_list,omitempty"`
	IsTokens      bool          `json:"is_tokens,omitempty" yaml:"is_tokens,omitempty" msgpack:"is_tokens,omitempty"`
	IsDict        bool          `json:"is_dict,omitempty" yaml:"is_dict,omitempty" msgpack:"is_dict,omitempty"`
	IsOptional    bool          `json:"is_optional,omitempty" yaml:"is_optional,omitempty" msgpack:"is_optional,omitempty"`
	IsNillable    bool          `json:"is_nillable,omitempty" yaml:"is_nillable,omitempty" msgpack:"is_nillable,omitempty"`
	IsEnumeration bool          `json:"is_enumeration,omitempty" yaml:"is_enumeration,omitempty" msgpack:"is_enumeration,omitempty"`
	IsFactory     bool          `json:"is_factory,omitempty" yaml:"is_factory,omitempty" msgpack:"is_factory,omitempty"`
	Restrictions  *Restrictions `json:"restrictions,omitempty" yaml:"restrictions,omitempty" msgpack:"restrictions,omitempty"`
	Help          string        `json:"help,omitempty" yaml:"help,omitempty" msgpack:"help,omitempty"`
}

// AttrType is a single type reference of an attribute. An empty DataType
// marks a complex type that resolves through its QName.
type AttrType struct {
	QName    string `json:"qname" yaml:"qname" msgpack:"qname"`
	Alias    string `json:"alias,omitempty" yaml:"alias,omitempty" msgpack:"alias,omitempty"`
	DataType string `json:"datatype,omitempty" yaml:"datatype,omitempty" msgpack:"datatype,omitempty"`
	Forward  bool   `json:"forward,omitempty" yaml:"forward,omitempty" msgpack:"forward,omitempty"`
	Circular bool   `json:"circular,omitempty" yaml:"circular,omitempty" msgpack:"circular,omitempty"`
}

// Extension is a base-type reference of a class.
type Extension struct {
	Type         *AttrType     `json:"type" yaml:"type" msgpack:"type"`
	Restrictions *Restrictions `json:"restrictions,omitempty" yaml:"restrictions,omitempty" msgpack:"restrictions,omitempty"`
}

// Restrictions holds the validation constraints of an attribute.
type Restrictions struct {
	MinOccurs        *int    `json:"min_occurs,omitempty" yaml:"min_occurs,omitempty" msgpack:"min_occurs,omitempty"`
	MaxOccurs        *int    `json:"max_occurs,omitempty" yaml:"max_occurs,omitempty" msgpack:"max_occurs,omitempty"`
	MinExclusive     *string `json:"min_exclusive,omitempty" yaml:"min_exclusive,omitempty" msgpack:"min_exclusive,omitempty"`
	MinInclusive     *string `json:"min_inclusive,omitempty" yaml:"min_inclusive,omitempty" msgpack:"min_inclusive,omitempty"`
	MaxExclusive     *string `json:"max_exclusive,omitempty" yaml:"max_exclusive,omitempty" msgpack:"max_exclusive,omitempty"`
	MaxInclusive     *string `json:"max_inclusive,omitempty" yaml:"max_inclusive,omitempty" msgpack:"max_inclusive,omitempty"`
	TotalDigits      *int    `json:"total_digits,omitempty" yaml:"total_digits,omitempty" msgpack:"total_digits,omitempty"`
	FractionDigits   *int    `json:"fraction_digits,omitempty" yaml:"fraction_digits,omitempty" msgpack:"fraction_digits,omitempty"`
	Length           *int    `json:"length,omitempty" yaml:"length,omitempty" msgpack:"length,omitempty"`
	MinLength        *int    `json:"min_length,omitempty" yaml:"min_length,omitempty" msgpack:"min_length,omitempty"`
	MaxLength        *int    `json:"max_length,omitempty" yaml:"max_length,omitempty" msgpack:"max_length,omitempty"`
	WhiteSpace       *string `json:"white_space,omitempty" yaml:"white_space,omitempty" msgpack:"white_space,omitempty"`
	Pattern          *string `json:"pattern,omitempty" yaml:"pattern,omitempty" msgpack:"pattern,omitempty"`
	ExplicitTimezone *string `json:"explicit_timezone,omitempty" yaml:"explicit_timezone,omitempty" msgpack:"explicit_timezone,omitempty"`
	Format           *string `json:"format,omitempty" yaml:"format,omitempty" msgpack:"format,omitempty"`
}

// Restriction is a single named constraint value.
type Restriction struct {
	Name  string
	Value any
}

// List returns the set constraints in a stable order. Occurrence bounds are
// left out, they are expressed by the attribute flags.
func (r *Restrictions) List() []Restriction {
	if r == nil {
		return nil
	}
	var out []Restriction
	add := func(name string, v any) {
		out = append(out, Restriction{Name: name, Value: v})
	}
	for _, p := range []struct {
		name string
		v    *string
	}{
		{"min_exclusive", r.MinExclusive},
		{"min_inclusive", r.MinInclusive},
		{"max_exclusive", r.MaxExclusive},
		{"max_inclusive", r.MaxInclusive},
	} {
		if p.v != nil {
			add(p.name, *p.v)
		}
	}
	for _, p := range []struct {
		name string
		v    *int
	}{
		{"total_digits", r.TotalDigits},
		{"fraction_digits", r.FractionDigits},
		{"length", r.Length},
		{"min_length", r.MinLength},
		{"max_length", r.MaxLength},
	} {
		if p.v != nil {
			add(p.name, *p.v)
		}
	}
	for _, p := range []struct {
		name string
		v    *string
	}{
		{"white_space", r.WhiteSpace},
		{"pattern", r.Pattern},
		{"explicit_timezone", r.ExplicitTimezone},
		{"format", r.Format},
	} {
		if p.v != nil {
			add(p.name, *p.v)
		}
	}
	return out
}

// LocalName returns the local part of a qualified name in the
// "{namespace}local" or "prefix:local" notation.
func LocalName(qname string) string {
	if i := strings.LastIndexByte(qname, '}'); i >= 0 {
		return qname[i+1:]
	}
	if i := strings.LastIndexByte(qname, ':'); i >= 0 {
		return qname[i+1:]
	}
	return qname
}

// Namespace returns the namespace part of a "{namespace}local" name.
func Namespace(qname string) string {
	if strings.HasPrefix(qname, "{") {
		if i := strings.IndexByte(qname, '}'); i > 0 {
			return qname[1:i]
		}
	}
	return ""
}

// DisplayName returns the class name, falling back to the local part of
// its qualified name.
func (c *Class) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return LocalName(c.QName)
}

// Datatype returns the built-in datatype of the type reference, or
// field.TypeInvalid for complex types.
func (t *AttrType) Datatype() field.Type {
	if t.DataType == "" {
		return field.TypeInvalid
	}
	return field.ParseType(t.DataType)
}

// Native reports if the type reference is a built-in datatype.
func (t *AttrType) Native() bool {
	return t.Datatype().Valid()
}

// Name returns the local name of the referenced type.
func (t *AttrType) Name() string {
	return LocalName(t.QName)
}

// IsAttribute reports if the attr is an xml attribute.
func (a *Attr) IsAttribute() bool {
	return a.Tag == "Attribute" || a.Tag == "Attributes"
}

// IsWildcard reports if the attr is an xml wildcard.
func (a *Attr) IsWildcard() bool {
	return a.Tag == "Any" || a.Tag == "Wildcard" || a.Tag == "Attributes"
}

// IsNameless reports if the attr has no xml name of its own.
func (a *Attr) IsNameless() bool {
	return a.Tag == "Any" || a.Tag == "Wildcard" || a.Tag == "Attributes" || a.Tag == "Text"
}

// Local returns the xml local name of the attr.
func (a *Attr) Local() string {
	if a.LocalName != "" {
		return a.LocalName
	}
	return a.Name
}

// NativeTypes returns the built-in datatypes of the attr, in order and
// without duplicates.
func (a *Attr) NativeTypes() []field.Type {
	var (
		out  []field.Type
		seen = make(map[field.Type]struct{})
	)
	for _, t := range a.Types {
		dt := t.Datatype()
		if !dt.Valid() {
			continue
		}
		if _, ok := seen[dt]; !ok {
			seen[dt] = struct{}{}
			out = append(out, dt)
		}
	}
	return out
}

// XMLType returns the metadata type of the attr. Elements are implied and
// return the empty string.
func (a *Attr) XMLType() string {
	if a.Tag == "Element" || a.Tag == "Extension" || a.Tag == "Restriction" {
		return ""
	}
	return a.Tag
}

// Validate checks the invariants of the class graph that the generator
// relies on.
func Validate(classes []*Class) error {
	for _, c := range classes {
		if err := c.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Class) validate() error {
	if c.QName == "" {
		return errors.New("class qname cannot be empty")
	}
	for _, a := range c.Attrs {
		switch {
		case a.Name == "":
			return fmt.Errorf("class %q: attr name cannot be empty", c.QName)
		case len(a.Types) == 0:
			return fmt.Errorf("class %q: attr %q has no types", c.QName, a.Name)
		case a.IsList && a.IsDict:
			return fmt.Errorf("class %q: attr %q cannot be both a list and a dict", c.QName, a.Name)
		}
		for _, t := range a.Types {
			if t == nil || t.QName == "" {
				return fmt.Errorf("class %q: attr %q has an empty type reference", c.QName, a.Name)
			}
		}
	}
	for _, e := range c.Extensions {
		if e == nil || e.Type == nil || e.Type.QName == "" {
			return fmt.Errorf("class %q: extension without a type", c.QName)
		}
	}
	for _, inner := range c.Inner {
		if err := inner.validate(); err != nil {
			return fmt.Errorf("class %q: %w", c.QName, err)
		}
	}
	return nil
}
