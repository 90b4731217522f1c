// Package field describes the built-in datatypes an XML-Schema attribute
// type can carry and classifies python type names as primitive or complex.
//
// A primitive type name maps directly to a storage scalar:
//
//	field.IsPrimitive("int")        // true
//	field.IsComplex("Address")      // true, refers to a generated class
//	field.HasComplex("str", "Item") // true, mixed union
//
// Datatypes are parsed from either their python name or their xsd builtin
// name:
//
//	field.ParseType("Decimal")     // TypeDecimal
//	field.ParseType("xs:dateTime") // TypeXMLDateTime
package field
