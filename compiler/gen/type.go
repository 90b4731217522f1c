package gen

import (
	"strings"

	"github.com/syssam/xsdalchemy/compiler/load"
)

// The following types and their exported methods are used by the targets
// to render the assets.
type (
	// Type represents one class of the graph.
	Type struct {
		// ID is the position of the type in the depth-first traversal of the
		// graph. It is stable for the lifetime of a run and is the only key
		// used to compare types.
		ID int
		// Name holds the converted class name.
		Name string
		// FQName holds the dotted path of converted class names from the
		// outermost class to this one.
		FQName string
		// Path holds the raw class qnames from the outermost class to this
		// one. It is the resolution context of the type attributes.
		Path []string
		// Class is the parsed class.
		Class *load.Class
		// Parent is the enclosing type, nil for top-level classes.
		Parent *Type
		// Inner holds the nested types in declaration order.
		Inner []*Type
	}

	// Field is an attribute as stored by a type. Inherited attributes keep
	// a reference to the type declaring them, which is their resolution
	// context.
	Field struct {
		Attr *load.Attr
		// Owner is the type storing the field.
		Owner *Type
		// Decl is the type declaring the attribute. It differs from Owner
		// for attributes inherited through an extension.
		Decl *Type
	}

	// ForeignKey is a synthetic integer column referencing the primary key
	// of another table.
	ForeignKey struct {
		// Name is the field name of the column, unique within its class.
		Name string
		// Table is the referenced table.
		Table string
		// Column is the referenced column.
		Column string
	}

	// Relationship is one end of an association between two types, as seen
	// from its owner.
	Relationship struct {
		// Type holds the cardinality as seen from the owner.
		Type Rel
		// Name is the field name of the relationship on the owner.
		Name string
		// Owner is the type holding the relationship field.
		Owner *Type
		// Target is the type on the other end.
		Target *Type
		// Attr is the attribute the association was derived from. It belongs
		// to Owner for forward relationships and to Target for back-references.
		Attr *Field
		// FK is the foreign key held by the owner for this relationship. It is
		// nil when the key lives on the target table.
		FK *ForeignKey
		// ForeignKeys names the join columns explicitly, when set.
		ForeignKeys string
		// BackPopulates is the name of the opposite relationship field.
		BackPopulates string
		// PrimaryJoin is an explicit join condition, when set.
		PrimaryJoin string
		// RemoteSide marks a self-referential many-to-one end.
		RemoteSide bool
		// Backref indicates that the relationship field was synthesized and is
		// not an attribute of the owner.
		Backref bool
	}
)

// Rel is a relation type of a relationship.
type Rel uint8

// Relation types.
const (
	Unk Rel = iota // Unknown.
	M2O            // Many to one.
	O2M            // One to many.
)

// String returns the relation name.
func (r Rel) String() string {
	switch r {
	case M2O:
		return "M2O"
	case O2M:
		return "O2M"
	default:
		return "Unknown"
	}
}

// IsEnum reports if the type is an enumeration.
func (t *Type) IsEnum() bool { return t.Class.IsEnumeration }

// Is reports if both types are the same node of the graph.
func (t *Type) Is(o *Type) bool { return t != nil && o != nil && t.ID == o.ID }

// Names returns the converted class names of the type path.
func (t *Type) Names() []string { return strings.Split(t.FQName, ".") }

// Enclosing returns the resolution context of the enclosing class, which
// is the type path without the type itself.
func (t *Type) Enclosing() []string { return t.Path[:len(t.Path)-1] }

// Depth returns the nesting depth of the type, 0 for top-level classes.
func (t *Type) Depth() int { return len(t.Path) - 1 }

// IsInnerOf reports if t is directly nested in o.
func (t *Type) IsInnerOf(o *Type) bool { return t.Parent.Is(o) }

// Inherited reports if the field is declared by a base type.
func (f *Field) Inherited() bool { return !f.Owner.Is(f.Decl) }

// Name returns the raw attribute name.
func (f *Field) Name() string { return f.Attr.Name }

// Parents returns the resolution context of the field types.
func (f *Field) Parents() []string { return f.Decl.Path }

// M2O indicates if the relationship is a many-to-one end.
func (r *Relationship) M2O() bool { return r.Type == M2O }

// O2M indicates if the relationship is a one-to-many end.
func (r *Relationship) O2M() bool { return r.Type == O2M }

// SelfRef indicates if both ends of the relationship are the same type.
func (r *Relationship) SelfRef() bool { return r.Owner.Is(r.Target) }
