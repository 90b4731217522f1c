package field

import "strings"

// A Type represents the built-in datatype of a schema attribute type.
// The zero value, TypeInvalid, marks a complex type reference that must be
// resolved to a generated class.
type Type uint8

// List of datatypes.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt
	TypeDecimal
	TypeString
	TypeDict
	TypeObject
	TypeFloat
	TypeDateTime
	TypeDate
	TypeTime
	TypeDuration
	TypeXMLDateTime
	TypeXMLDate
	TypeXMLTime
	TypeXMLDuration
	TypeXMLPeriod
	TypeQName
	TypeBytes
	endTypes
)

// String returns the python type name of the datatype.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type is a known datatype.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the given type is a numeric datatype.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeFloat || t == TypeDecimal
}

// Temporal reports if the given type is a date, time or duration datatype.
func (t Type) Temporal() bool {
	switch t {
	case TypeDateTime, TypeDate, TypeTime, TypeDuration,
		TypeXMLDateTime, TypeXMLDate, TypeXMLTime, TypeXMLDuration:
		return true
	}
	return false
}

// ParseType returns the datatype for the given python type name or the
// xsd builtin local name (e.g. "int", "xs:dateTime", "boolean").
// Unknown names return TypeInvalid.
func ParseType(name string) Type {
	// Qualified names are xsd builtins, "xs:date" is an XmlDate and not
	// the python date.
	if i := strings.LastIndexAny(name, ":}"); i >= 0 {
		local := name[i+1:]
		if t, ok := xsdNames[local]; ok {
			return t
		}
		return byName[local]
	}
	if t, ok := byName[name]; ok {
		return t
	}
	return xsdNames[name]
}

var (
	typeNames = [...]string{
		TypeInvalid:     "invalid",
		TypeBool:        "bool",
		TypeInt:         "int",
		TypeDecimal:     "Decimal",
		TypeString:      "str",
		TypeDict:        "dict",
		TypeObject:      "object",
		TypeFloat:       "float",
		TypeDateTime:    "datetime",
		TypeDate:        "date",
		TypeTime:        "time",
		TypeDuration:    "timedelta",
		TypeXMLDateTime: "XmlDateTime",
		TypeXMLDate:     "XmlDate",
		TypeXMLTime:     "XmlTime",
		TypeXMLDuration: "XmlDuration",
		TypeXMLPeriod:   "XmlPeriod",
		TypeQName:       "QName",
		TypeBytes:       "bytes",
	}
	byName = func() map[string]Type {
		m := make(map[string]Type, len(typeNames))
		for t := TypeBool; t < endTypes; t++ {
			m[typeNames[t]] = t
		}
		return m
	}()
	// xsd builtin local names that are not already python names.
	xsdNames = map[string]Type{
		"boolean":            TypeBool,
		"integer":            TypeInt,
		"int":                TypeInt,
		"long":               TypeInt,
		"short":              TypeInt,
		"byte":               TypeInt,
		"nonNegativeInteger": TypeInt,
		"nonPositiveInteger": TypeInt,
		"positiveInteger":    TypeInt,
		"negativeInteger":    TypeInt,
		"unsignedLong":       TypeInt,
		"unsignedInt":        TypeInt,
		"unsignedShort":      TypeInt,
		"unsignedByte":       TypeInt,
		"decimal":            TypeDecimal,
		"float":              TypeFloat,
		"double":             TypeFloat,
		"string":             TypeString,
		"normalizedString":   TypeString,
		"token":              TypeString,
		"anyURI":             TypeString,
		"language":           TypeString,
		"Name":               TypeString,
		"NCName":             TypeString,
		"ID":                 TypeString,
		"IDREF":              TypeString,
		"NMTOKEN":            TypeString,
		"dateTime":           TypeXMLDateTime,
		"date":               TypeXMLDate,
		"time":               TypeXMLTime,
		"duration":           TypeXMLDuration,
		"gYear":              TypeXMLPeriod,
		"gYearMonth":         TypeXMLPeriod,
		"gMonth":             TypeXMLPeriod,
		"gMonthDay":          TypeXMLPeriod,
		"gDay":               TypeXMLPeriod,
		"QName":              TypeQName,
		"base64Binary":       TypeBytes,
		"hexBinary":          TypeBytes,
		"anyType":            TypeObject,
		"anySimpleType":      TypeObject,
	}
)
