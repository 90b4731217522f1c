package gen

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/xsdalchemy/compiler/load"
	"github.com/syssam/xsdalchemy/schema/field"
)

type (
	// typeRef is an attribute type with its resolution.
	typeRef struct {
		ref *load.AttrType
		// datatype is set for built-in types.
		datatype field.Type
		// target is set for complex types.
		target *Type
	}

	shapeKind uint8

	// shape is the storage classification of a field.
	shape struct {
		kind     shapeKind
		refs     []typeRef
		datatype field.Type
		target   *Type
	}

	// link is an association between the type From, holding the attribute
	// F, and the type To referenced by it.
	link struct {
		From, To *Type
		F        *Field
		// fk is the foreign key field of a scalar attribute on From.
		fk string
		// back is the relationship synthesized on To, and backFK its
		// foreign key field when F is a list.
		back, backFK string
	}
)

const (
	kindPrimitive shapeKind = iota
	// kindLossy is a union stored as a plain string.
	kindLossy
	kindEnum
	kindComplex
)

// key returns the name identifying the type in a union.
func (r typeRef) key() string {
	if r.target != nil {
		return r.target.FQName
	}
	return r.datatype.String()
}

// typeRefs resolves the types of the field, dropping duplicates.
func (g *Graph) typeRefs(f *Field) ([]typeRef, error) {
	var (
		refs []typeRef
		seen = make(map[string]struct{}, len(f.Attr.Types))
	)
	for _, ref := range f.Attr.Types {
		r := typeRef{ref: ref, datatype: ref.Datatype()}
		if !r.datatype.Valid() {
			t, err := g.resolve(f, ref)
			if err != nil {
				return nil, err
			}
			r.target = t
		}
		if _, ok := seen[r.key()]; ok {
			continue
		}
		seen[r.key()] = struct{}{}
		refs = append(refs, r)
	}
	return refs, nil
}

// classify decides how the field is stored. Dict fields, unions of
// complex types and token lists of complex types are rejected.
func (g *Graph) classify(f *Field) (*shape, error) {
	a := f.Attr
	if a.IsDict {
		return nil, NewConfigError(f.Decl.FQName, a.Name, ShapeDict, "dict fields have no storage mapping")
	}
	refs, err := g.typeRefs(f)
	if err != nil {
		return nil, err
	}
	s := &shape{refs: refs}
	if len(refs) > 1 {
		var complex, entities int
		for _, r := range refs {
			if r.target != nil {
				complex++
				if !r.target.IsEnum() {
					entities++
				}
			}
		}
		if complex > 1 && entities > 0 {
			return nil, NewConfigError(f.Decl.FQName, a.Name, ShapeMultiComplexUnion,
				fmt.Sprintf("cannot store a union of %d complex types", complex))
		}
		s.kind = kindLossy
		return s, nil
	}
	r := refs[0]
	switch {
	case r.target == nil:
		s.kind, s.datatype = kindPrimitive, r.datatype
	case r.target.IsEnum():
		s.kind, s.target = kindEnum, r.target
	case a.IsTokens:
		return nil, NewConfigError(f.Decl.FQName, a.Name, ShapeListOfList, "token lists of complex types are not supported")
	default:
		s.kind, s.target = kindComplex, r.target
	}
	return s, nil
}

// base returns the type the given type extends, or nil. Built-in
// extensions are ignored, more than one complex extension is a
// ConfigError.
func (g *Graph) base(t *Type) (*Type, error) {
	var bases []*load.Extension
	for _, ext := range t.Class.Extensions {
		if !ext.Type.Native() {
			bases = append(bases, ext)
		}
	}
	switch len(bases) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, NewConfigError(t.FQName, "", ShapeMultiExtension,
			fmt.Sprintf("%d complex extensions, at most one is supported", len(bases)))
	}
	b, err := g.FindClassByQName(bases[0].Type.QName, t.Enclosing())
	if err != nil {
		var re *ResolutionError
		if errors.As(err, &re) {
			re.Class = t.FQName
		}
		return nil, err
	}
	return b, nil
}

// Bases returns the extension chain of the type, nearest base first.
func (g *Graph) Bases(t *Type) ([]*Type, error) {
	var (
		chain []*Type
		seen  = map[int]struct{}{t.ID: {}}
	)
	for cur := t; ; {
		b, err := g.base(cur)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return chain, nil
		}
		if _, ok := seen[b.ID]; ok {
			return nil, NewConfigError(t.FQName, "", ShapeExtensionCycle,
				fmt.Sprintf("extension chain of %s loops at %s", t.FQName, b.FQName))
		}
		seen[b.ID] = struct{}{}
		chain = append(chain, b)
		cur = b
	}
}

// Fields returns the effective fields of the type: the attributes
// inherited through its extension chain, farthest base first, followed by
// its own. An own attribute hides an inherited one with the same name.
func (g *Graph) Fields(t *Type) ([]*Field, error) {
	bases, err := g.Bases(t)
	if err != nil {
		return nil, err
	}
	own := make(map[string]struct{}, len(t.Class.Attrs))
	for _, a := range t.Class.Attrs {
		own[a.Name] = struct{}{}
	}
	var fields []*Field
	for _, b := range slices.Backward(bases) {
		for _, a := range b.Class.Attrs {
			if _, ok := own[a.Name]; ok {
				continue
			}
			own[a.Name] = struct{}{}
			fields = append(fields, &Field{Attr: a, Owner: t, Decl: b})
		}
	}
	for _, a := range t.Class.Attrs {
		fields = append(fields, &Field{Attr: a, Owner: t, Decl: t})
	}
	return fields, nil
}

// ExtensionFields returns the fields the type inherits.
func (g *Graph) ExtensionFields(t *Type) ([]*Field, error) {
	fields, err := g.Fields(t)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(fields, func(f *Field) bool { return !f.Inherited() }), nil
}

// links returns every association of the graph, in traversal order. The
// associations are computed once per graph, the relationships derived from
// them are built on every call.
func (g *Graph) links() ([]link, error) {
	g.linksOnce.Do(func() {
		g.linkCache, g.linkErr = g.buildLinks()
	})
	return g.linkCache, g.linkErr
}

func (g *Graph) buildLinks() ([]link, error) {
	var (
		links []link
		taken = make(map[int]map[string]bool)
	)
	for _, t := range g.Types {
		if t.IsEnum() {
			continue
		}
		fields, err := g.Fields(t)
		if err != nil {
			return nil, err
		}
		taken[t.ID] = map[string]bool{"id": true}
		for _, f := range fields {
			taken[t.ID][g.Namer.FieldName(f.Attr.Name)] = true
			s, err := g.classify(f)
			if err != nil {
				return nil, err
			}
			if s.kind == kindComplex {
				links = append(links, link{From: t, To: s.target, F: f})
			}
		}
	}
	for i := range links {
		g.nameLink(&links[i], taken)
	}
	return links, nil
}

// nameLink assigns the synthesized names of the link. Declared fields
// keep their names, synthesized ones are suffixed with _2, _3... until
// they are free in their class.
func (g *Graph) nameLink(l *link, taken map[int]map[string]bool) {
	name := g.Namer.FieldName(l.F.Attr.Name)
	if l.F.Attr.IsList {
		l.back = claim(taken[l.To.ID], g.backrefName(l.F), "_id")
		l.backFK = l.back + "_id"
		return
	}
	l.fk = claim(taken[l.From.ID], name+"_id", "")
	l.back = claim(taken[l.To.ID], g.backrefName(l.F), "")
}

// claim reserves the first free name among base, base_2, base_3... When
// suffix is set, base+suffix must be free as well and is reserved with it.
func claim(taken map[string]bool, base, suffix string) string {
	name := base
	for i := 2; taken[name] || taken[name+suffix]; i++ {
		name = base + "_" + strconv.Itoa(i)
	}
	taken[name], taken[name+suffix] = true, true
	return name
}

// holder returns the type whose table holds the foreign key of the link,
// and the type it references. Scalar references keep the key on the
// referencing side, lists on the referenced one.
func (l link) holder() (holder, referenced *Type) {
	if l.F.Attr.IsList {
		return l.To, l.From
	}
	return l.From, l.To
}

// pairFKs returns the number of foreign keys between the tables of a and
// b, in either direction.
func pairFKs(links []link, a, b *Type) int {
	n := 0
	for _, l := range links {
		h, r := l.holder()
		if h.Is(a) && r.Is(b) || h.Is(b) && r.Is(a) {
			n++
		}
	}
	return n
}

// label returns the field cased class name used in synthesized names.
// Classes sharing their name with another class use their full path.
func (g *Graph) label(t *Type) string {
	if g.names[t.Name] > 1 {
		return g.Namer.TableName(t.Names()...)
	}
	return g.Namer.TableName(t.Name)
}

// backrefName returns the name of the relationship synthesized on the
// type referenced by the field.
func (g *Graph) backrefName(f *Field) string {
	return g.label(f.Owner) + "_" + g.Namer.FieldName(f.Attr.Name)
}

// override returns the join override of the link, if any.
func (g *Graph) override(l link) (JoinOverride, bool) {
	matches := func(pattern string, t *Type) bool {
		return pattern == t.FQName || pattern == t.Name || pattern == load.LocalName(t.Class.QName)
	}
	for _, o := range g.JoinOverrides {
		if matches(o.Source, l.From) && matches(o.Target, l.To) &&
			(o.Attr == l.F.Attr.Name || o.Attr == g.Namer.FieldName(l.F.Attr.Name)) {
			return o, true
		}
	}
	return JoinOverride{}, false
}

// localFKs renders a foreign_keys argument referencing a foreign key field
// declared in the same class body.
func localFKs(fk string) string {
	return fmt.Sprintf(`[%s.metadata["sa"]]`, fk)
}

// remoteFKs renders a foreign_keys argument referencing a foreign key
// field of another class, evaluated lazily.
func remoteFKs(t *Type, fk string) string {
	return fmt.Sprintf(`"[%s.%s]"`, t.FQName, fk)
}

// forward builds the relationship of the owner side of the link.
func (g *Graph) forward(links []link, l link) *Relationship {
	name := g.Namer.FieldName(l.F.Attr.Name)
	r := &Relationship{
		Name:          name,
		Owner:         l.From,
		Target:        l.To,
		Attr:          l.F,
		BackPopulates: l.back,
	}
	if l.F.Attr.IsList {
		r.Type = O2M
		if pairFKs(links, l.From, l.To) > 1 {
			r.ForeignKeys = remoteFKs(l.To, l.backFK)
		}
	} else {
		r.Type = M2O
		r.FK = &ForeignKey{Name: l.fk, Table: g.TableName(l.To), Column: "id"}
		r.ForeignKeys = localFKs(r.FK.Name)
		r.RemoteSide = l.From.Is(l.To)
	}
	if o, ok := g.override(l); ok {
		r.PrimaryJoin, r.ForeignKeys = o.Join, ""
	}
	return r
}

// backward builds the relationship synthesized on the referenced side of
// the link.
func (g *Graph) backward(links []link, l link) *Relationship {
	r := &Relationship{
		Name:          l.back,
		Owner:         l.To,
		Target:        l.From,
		Attr:          l.F,
		BackPopulates: g.Namer.FieldName(l.F.Attr.Name),
		Backref:       true,
	}
	if l.F.Attr.IsList {
		r.Type = M2O
		r.FK = &ForeignKey{Name: l.backFK, Table: g.TableName(l.From), Column: "id"}
		r.ForeignKeys = localFKs(r.FK.Name)
		r.RemoteSide = l.From.Is(l.To)
	} else {
		r.Type = O2M
		if pairFKs(links, l.From, l.To) > 1 {
			r.ForeignKeys = remoteFKs(l.From, l.fk)
		}
	}
	return r
}

// Relationships returns the relationships of the type: the forward ones
// derived from its complex attributes, in field order, followed by the
// back-references synthesized from every attribute of the graph that
// references it, in traversal order. The result is computed on every call
// and never cached, enumerations have none.
func (g *Graph) Relationships(t *Type) ([]*Relationship, error) {
	if t.IsEnum() {
		return nil, nil
	}
	links, err := g.links()
	if err != nil {
		return nil, err
	}
	var rels []*Relationship
	for _, l := range links {
		if l.From.Is(t) {
			rels = append(rels, g.forward(links, l))
		}
	}
	for _, l := range links {
		if l.To.Is(t) {
			rels = append(rels, g.backward(links, l))
		}
	}
	return rels, nil
}

// Backrefs returns the synthesized relationships of the type.
func (g *Graph) Backrefs(t *Type) ([]*Relationship, error) {
	rels, err := g.Relationships(t)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(rels, func(r *Relationship) bool { return !r.Backref }), nil
}

// ForeignKeys returns the foreign keys held by the type table, forward
// keys first.
func (g *Graph) ForeignKeys(t *Type) ([]*ForeignKey, error) {
	rels, err := g.Relationships(t)
	if err != nil {
		return nil, err
	}
	var fks []*ForeignKey
	for _, r := range rels {
		if r.FK != nil {
			fks = append(fks, r.FK)
		}
	}
	return fks, nil
}

// relationship returns the forward relationship of a complex field.
func (g *Graph) relationship(f *Field) (*Relationship, error) {
	rels, err := g.Relationships(f.Owner)
	if err != nil {
		return nil, err
	}
	for _, r := range rels {
		if !r.Backref && r.Attr.Attr.Name == f.Attr.Name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("no relationship for attr %s of %s", f.Attr.Name, f.Owner.FQName)
}

// Declaration renders the relationship() call of the relationship.
func (r *Relationship) Declaration() string {
	args := []string{quote(r.Target.FQName)}
	if r.ForeignKeys != "" {
		args = append(args, "foreign_keys="+r.ForeignKeys)
	}
	if r.PrimaryJoin != "" {
		args = append(args, "primaryjoin="+quote(r.PrimaryJoin))
	}
	if r.RemoteSide {
		args = append(args, `remote_side="`+r.Owner.FQName+`.id"`)
	}
	if r.BackPopulates != "" {
		args = append(args, "back_populates="+quote(r.BackPopulates))
	}
	return "relationship(" + strings.Join(args, ", ") + ")"
}

// Definition renders the field(...) call of the foreign key.
func (fk *ForeignKey) Definition() string {
	return fmt.Sprintf(`field(default=None, metadata={"sa": Column(ForeignKey("%s.%s", use_alter=True))})`, fk.Table, fk.Column)
}

// String renders the foreign key field declaration.
func (fk *ForeignKey) String() string {
	return fk.Name + ": int = " + fk.Definition()
}
