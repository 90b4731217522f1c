package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/xsdalchemy/compiler/load"
)

func relationships(t *testing.T, g *Graph, fqname string) []*Relationship {
	t.Helper()
	rels, err := g.Relationships(lookup(t, g, fqname))
	require.NoError(t, err)
	return rels
}

func TestRelationships(t *testing.T) {
	g := newGraph(t, shapes())

	t.Run("scalar reference", func(t *testing.T) {
		rels := relationships(t, g, "Shapes")
		require.Len(t, rels, 2)

		palette := rels[0]
		assert.Equal(t, M2O, palette.Type)
		assert.Equal(t, "palette", palette.Name)
		assert.Equal(t, "Shapes.Palette", palette.Target.FQName)
		assert.False(t, palette.Backref)
		require.NotNil(t, palette.FK)
		assert.Equal(t, ForeignKey{Name: "palette_id", Table: "shapes__palette", Column: "id"}, *palette.FK)
		assert.Equal(t, "shapes_palette", palette.BackPopulates)
		assert.Equal(t,
			`relationship("Shapes.Palette", foreign_keys=[palette_id.metadata["sa"]], back_populates="shapes_palette")`,
			palette.Declaration(),
		)

		circle := rels[1]
		assert.Equal(t, M2O, circle.Type)
		assert.True(t, circle.Backref)
		assert.Equal(t, "circle_shapes", circle.Name)
		assert.Equal(t, "Circle", circle.Target.FQName)
		assert.Equal(t, "shapes", circle.BackPopulates)
		require.NotNil(t, circle.FK)
		assert.Equal(t, "circle_shapes_id", circle.FK.Name)
		assert.Equal(t, "circle", circle.FK.Table)
	})

	t.Run("back-reference of a scalar reference", func(t *testing.T) {
		rels := relationships(t, g, "Shapes.Palette")
		require.Len(t, rels, 1)
		assert.Equal(t, O2M, rels[0].Type)
		assert.True(t, rels[0].Backref)
		assert.Equal(t, "shapes_palette", rels[0].Name)
		assert.Equal(t, "palette", rels[0].BackPopulates)
		assert.Nil(t, rels[0].FK)
		assert.Empty(t, rels[0].ForeignKeys)
	})

	t.Run("list reference", func(t *testing.T) {
		rels := relationships(t, g, "Circle")
		require.Len(t, rels, 1)
		assert.Equal(t, O2M, rels[0].Type)
		assert.Equal(t, "shapes", rels[0].Name)
		assert.Equal(t, "circle_shapes", rels[0].BackPopulates)
		assert.Nil(t, rels[0].FK)
		assert.Equal(t, `relationship("Shapes", back_populates="circle_shapes")`, rels[0].Declaration())
	})

	t.Run("enumerations have none", func(t *testing.T) {
		assert.Empty(t, relationships(t, g, "Shapes.Palette.Color"))
	})

	t.Run("foreign keys", func(t *testing.T) {
		fks, err := g.ForeignKeys(lookup(t, g, "Shapes"))
		require.NoError(t, err)
		require.Len(t, fks, 2)
		assert.Equal(t, "palette_id", fks[0].Name)
		assert.Equal(t, "circle_shapes_id", fks[1].Name)
		assert.Equal(t,
			`palette_id: int = field(default=None, metadata={"sa": Column(ForeignKey("shapes__palette.id", use_alter=True))})`,
			fks[0].String(),
		)
	})

	t.Run("backrefs", func(t *testing.T) {
		backrefs, err := g.Backrefs(lookup(t, g, "Shapes"))
		require.NoError(t, err)
		require.Len(t, backrefs, 1)
		assert.Equal(t, "circle_shapes", backrefs[0].Name)
	})
}

func TestRelationships_Symmetric(t *testing.T) {
	g := newGraph(t, append(shapes(), class("Node", attr("parent", "Node"), list(attr("children", "Node")))))
	for _, typ := range g.Tables() {
		rels, err := g.Relationships(typ)
		require.NoError(t, err)
		for _, r := range rels {
			other, err := g.Relationships(r.Target)
			require.NoError(t, err)
			var found bool
			for _, o := range other {
				if o.Name == r.BackPopulates && o.BackPopulates == r.Name && o.Target.Is(r.Owner) {
					found = true
					assert.NotEqual(t, r.Type, o.Type, "%s.%s", typ.FQName, r.Name)
				}
			}
			assert.True(t, found, "no opposite end for %s.%s", typ.FQName, r.Name)
		}
	}
}

func TestRelationships_Idempotent(t *testing.T) {
	g := newGraph(t, shapes())
	typ := lookup(t, g, "Shapes")

	first, err := g.Relationships(typ)
	require.NoError(t, err)
	second, err := g.Relationships(typ)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.NotEmpty(t, first)
	assert.NotSame(t, first[0], second[0])
	assert.Empty(t, typ.Class.Attrs[1].Types[0].Alias, "class graph must not be mutated")
}

func TestRelationships_SelfReference(t *testing.T) {
	g := newGraph(t, []*load.Class{
		class("Node", attr("parent", "Node"), list(attr("children", "Node"))),
	})
	rels := relationships(t, g, "Node")
	require.Len(t, rels, 4)

	parent, children, parentBack, childrenBack := rels[0], rels[1], rels[2], rels[3]
	assert.Equal(t, "parent", parent.Name)
	assert.True(t, parent.M2O())
	assert.True(t, parent.RemoteSide)
	assert.True(t, parent.SelfRef())
	assert.Equal(t,
		`relationship("Node", foreign_keys=[parent_id.metadata["sa"]], remote_side="Node.id", back_populates="node_parent")`,
		parent.Declaration(),
	)

	assert.Equal(t, "children", children.Name)
	assert.True(t, children.O2M())
	assert.Equal(t, `"[Node.node_children_id]"`, children.ForeignKeys)

	assert.Equal(t, "node_parent", parentBack.Name)
	assert.True(t, parentBack.O2M())
	assert.Equal(t, `"[Node.parent_id]"`, parentBack.ForeignKeys)

	assert.Equal(t, "node_children", childrenBack.Name)
	assert.True(t, childrenBack.M2O())
	assert.True(t, childrenBack.RemoteSide)
	require.NotNil(t, childrenBack.FK)
	assert.Equal(t, "node_children_id", childrenBack.FK.Name)
}

func TestRelationships_MutualReferences(t *testing.T) {
	type want struct {
		owner, name string
		typ         Rel
		fks         string
	}
	tests := map[string]struct {
		classes []*load.Class
		want    []want
	}{
		"scalars": {
			classes: []*load.Class{class("A", attr("b", "B")), class("B", attr("a", "A"))},
			want: []want{
				{"A", "b", M2O, `[b_id.metadata["sa"]]`},
				{"A", "b_a", O2M, `"[B.a_id]"`},
				{"B", "a", M2O, `[a_id.metadata["sa"]]`},
				{"B", "a_b", O2M, `"[A.b_id]"`},
			},
		},
		"lists": {
			classes: []*load.Class{
				class("A", list(attr("b_list", "B"))),
				class("B", list(attr("a_list", "A"))),
			},
			want: []want{
				{"A", "b_list", O2M, `"[B.a_b_list_id]"`},
				{"A", "b_a_list", M2O, `[b_a_list_id.metadata["sa"]]`},
				{"B", "a_list", O2M, `"[A.b_a_list_id]"`},
				{"B", "a_b_list", M2O, `[a_b_list_id.metadata["sa"]]`},
			},
		},
		"one way": {
			classes: []*load.Class{class("A", attr("b", "B")), class("B", attr("v", "int"))},
			want: []want{
				{"A", "b", M2O, `[b_id.metadata["sa"]]`},
				{"B", "a_b", O2M, ""},
			},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			g := newGraph(t, tt.classes)
			for _, w := range tt.want {
				var got *Relationship
				for _, r := range relationships(t, g, w.owner) {
					if r.Name == w.name {
						got = r
					}
				}
				require.NotNil(t, got, "%s.%s", w.owner, w.name)
				assert.Equal(t, w.typ, got.Type, "%s.%s", w.owner, w.name)
				assert.Equal(t, w.fks, got.ForeignKeys, "%s.%s", w.owner, w.name)
			}
		})
	}
}

func TestRelationships_NameCollisions(t *testing.T) {
	t.Run("backref and declared fields", func(t *testing.T) {
		g := newGraph(t, []*load.Class{
			class("X", attr("y_items", "int"), attr("y_items_id", "int")),
			class("Y", list(attr("items", "X"))),
		})
		rels := relationships(t, g, "X")
		require.Len(t, rels, 1)
		assert.Equal(t, "y_items_2", rels[0].Name)
		require.NotNil(t, rels[0].FK)
		assert.Equal(t, "y_items_2_id", rels[0].FK.Name)

		rels = relationships(t, g, "Y")
		require.Len(t, rels, 1)
		assert.Equal(t, `relationship("X", back_populates="y_items_2")`, rels[0].Declaration())
	})

	t.Run("foreign key and declared field", func(t *testing.T) {
		g := newGraph(t, []*load.Class{
			class("C", attr("foo", "D"), attr("foo_id", "int")),
			class("D", attr("v", "int")),
		})
		fks, err := g.ForeignKeys(lookup(t, g, "C"))
		require.NoError(t, err)
		require.Len(t, fks, 1)
		assert.Equal(t, "foo_id_2", fks[0].Name)

		name, err := g.ForeignKeyName(fieldOf(t, g, lookup(t, g, "C"), "foo"))
		require.NoError(t, err)
		assert.Equal(t, "foo_id_2", name)
	})

	t.Run("synthesized names", func(t *testing.T) {
		g := newGraph(t, []*load.Class{
			class("P", attr("q", "Q")),
			class("Q", attr("p_q", "P")),
		})
		rels := relationships(t, g, "Q")
		require.Len(t, rels, 2)
		assert.Equal(t, "p_q", rels[0].Name)
		assert.Equal(t, "p_q_id", rels[0].FK.Name)
		assert.Equal(t, "p_q_2", rels[1].Name)
		assert.Equal(t, `"[P.q_id]"`, rels[1].ForeignKeys)
	})

	t.Run("stable across calls", func(t *testing.T) {
		g := newGraph(t, []*load.Class{
			class("X", attr("y_items", "int"), attr("y_items_id", "int")),
			class("Y", list(attr("items", "X"))),
		})
		first := relationships(t, g, "X")
		second := relationships(t, g, "X")
		assert.Equal(t, first[0].Name, second[0].Name)
		assert.Equal(t, first[0].FK.Name, second[0].FK.Name)
	})
}

func TestRelationships_MultipleForeignKeys(t *testing.T) {
	classes := func() []*load.Class {
		return []*load.Class{
			class("Order", attr("billing", "Address"), attr("shipping", "Address")),
			class("Address", attr("street", "str")),
		}
	}

	t.Run("foreign keys are named", func(t *testing.T) {
		g := newGraph(t, classes())
		rels := relationships(t, g, "Address")
		require.Len(t, rels, 2)
		assert.Equal(t, "order_billing", rels[0].Name)
		assert.Equal(t, `"[Order.billing_id]"`, rels[0].ForeignKeys)
		assert.Equal(t, "order_shipping", rels[1].Name)
		assert.Equal(t, `"[Order.shipping_id]"`, rels[1].ForeignKeys)
	})

	t.Run("join override", func(t *testing.T) {
		g := newGraph(t, classes(), WithJoinOverrides(JoinOverride{
			Source: "Order",
			Target: "Address",
			Attr:   "billing",
			Join:   "Order.billing_id == Address.id",
		}))
		rels := relationships(t, g, "Order")
		require.Len(t, rels, 2)
		assert.Equal(t, "Order.billing_id == Address.id", rels[0].PrimaryJoin)
		assert.Empty(t, rels[0].ForeignKeys)
		assert.Contains(t, rels[0].Declaration(), `primaryjoin="Order.billing_id == Address.id"`)
		assert.Empty(t, rels[1].PrimaryJoin)
		assert.Equal(t, `[shipping_id.metadata["sa"]]`, rels[1].ForeignKeys)
	})
}

func TestRelationships_SharedClassNames(t *testing.T) {
	g := newGraph(t, []*load.Class{
		nested(class("A"), class("Item", attr("ref", "Target"))),
		nested(class("B"), class("Item", attr("ref", "Target"))),
		class("Target"),
	})
	rels := relationships(t, g, "Target")
	require.Len(t, rels, 2)
	assert.Equal(t, "a__item_ref", rels[0].Name)
	assert.Equal(t, "b__item_ref", rels[1].Name)
}

func TestFields_Extensions(t *testing.T) {
	t.Run("inherited fields come first", func(t *testing.T) {
		g := newGraph(t, []*load.Class{
			class("Base", attr("name", "str"), attr("addr", "Address")),
			extends(class("Derived", attr("name", "int"), attr("extra", "str")), "Base"),
			class("Address"),
		})
		derived := lookup(t, g, "Derived")
		fields, err := g.Fields(derived)
		require.NoError(t, err)
		require.Len(t, fields, 3)
		assert.Equal(t, "addr", fields[0].Name())
		assert.True(t, fields[0].Inherited())
		assert.Equal(t, "Base", fields[0].Decl.FQName)
		assert.Equal(t, "name", fields[1].Name())
		assert.False(t, fields[1].Inherited())
		assert.Equal(t, "extra", fields[2].Name())

		ext, err := g.ExtensionFields(derived)
		require.NoError(t, err)
		require.Len(t, ext, 1)
		assert.Equal(t, "addr", ext[0].Name())

		bases, err := g.Bases(derived)
		require.NoError(t, err)
		require.Len(t, bases, 1)
		assert.Equal(t, "Base", bases[0].FQName)

		rels := relationships(t, g, "Address")
		require.Len(t, rels, 2)
		assert.Equal(t, "base_addr", rels[0].Name)
		assert.Equal(t, "derived_addr", rels[1].Name)
	})

	t.Run("native extensions are ignored", func(t *testing.T) {
		c := class("Text", attr("lang", "str"))
		c.Extensions = []*load.Extension{{Type: &load.AttrType{QName: "string", DataType: "str"}}}
		g := newGraph(t, []*load.Class{c})
		bases, err := g.Bases(lookup(t, g, "Text"))
		require.NoError(t, err)
		assert.Empty(t, bases)
	})

	t.Run("multiple extensions", func(t *testing.T) {
		g := newGraph(t, []*load.Class{
			class("A"), class("B"),
			extends(extends(class("C"), "A"), "B"),
		})
		_, err := g.Fields(lookup(t, g, "C"))
		requireShape(t, err, ShapeMultiExtension)
	})

	t.Run("cycle", func(t *testing.T) {
		g := newGraph(t, []*load.Class{
			extends(class("A"), "B"),
			extends(class("B"), "A"),
		})
		_, err := g.Fields(lookup(t, g, "A"))
		requireShape(t, err, ShapeExtensionCycle)
		assert.Contains(t, err.Error(), "extension chain of A loops at A")
	})
}

func TestRelationships_Unsupported(t *testing.T) {
	tests := []struct {
		name  string
		attr  *load.Attr
		shape Shape
	}{
		{"union of complex types", attr("ref", "A", "B"), ShapeMultiComplexUnion},
		{"token list of complex types", func() *load.Attr {
			a := attr("ref", "A")
			a.IsTokens = true
			return a
		}(), ShapeListOfList},
		{"dict", func() *load.Attr {
			a := attr("ref", "dict")
			a.IsDict = true
			return a
		}(), ShapeDict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGraph(t, []*load.Class{class("A"), class("B"), class("C", tt.attr)})
			_, err := g.Relationships(lookup(t, g, "C"))
			requireShape(t, err, tt.shape)
		})
	}
}

func requireShape(t *testing.T, err error, shape Shape) {
	t.Helper()
	require.Error(t, err)
	var ce *ConfigError
	require.True(t, errors.As(err, &ce), "unexpected error: %v", err)
	assert.Equal(t, shape, ce.Shape)
	assert.ErrorIs(t, err, ErrUnsupported)
}
