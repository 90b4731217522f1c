package gen

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/xsdalchemy/compiler/load"
)

func TestNewGraph(t *testing.T) {
	g := newGraph(t, shapes())

	names := make([]string, len(g.Types))
	for i, typ := range g.Types {
		names[i] = typ.FQName
		assert.Equal(t, i, typ.ID)
	}
	assert.Equal(t, []string{"Shapes", "Shapes.Palette", "Shapes.Palette.Color", "Circle"}, names)
	require.Len(t, g.Roots, 2)
	assert.Equal(t, "Shapes", g.Roots[0].FQName)
	assert.Equal(t, "Circle", g.Roots[1].FQName)
	assert.NotEmpty(t, g.RunID)

	color := lookup(t, g, "Shapes.Palette.Color")
	assert.Equal(t, []string{"{urn:shapes}Shapes", "Palette", "Color"}, color.Path)
	assert.Equal(t, []string{"{urn:shapes}Shapes", "Palette"}, color.Enclosing())
	assert.Equal(t, 2, color.Depth())
	assert.True(t, color.IsInnerOf(lookup(t, g, "Shapes.Palette")))
	assert.False(t, color.IsInnerOf(lookup(t, g, "Shapes")))
	assert.True(t, color.IsEnum())
}

func TestNewGraph_DuplicateClass(t *testing.T) {
	_, err := NewGraph(nil, []*load.Class{class("{urn:a}Item"), class("{urn:b}Item")})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ShapeDuplicateClass, ce.Shape)
}

func TestNewGraph_TableNameCollision(t *testing.T) {
	long := strings.Repeat("x", 60)
	_, err := NewGraph(nil, []*load.Class{
		nested(class("a"), nested(class(long), class("leaf"))),
		nested(class("b"), nested(class(long), class("leaf"))),
	})
	requireShape(t, err, ShapeNameCollision)
	assert.Contains(t, err.Error(), "table name leaf is also used by")

	g := newGraph(t, []*load.Class{
		nested(class("a"), class("leaf")),
		nested(class("b"), class("leaf")),
	})
	assert.Len(t, g.Tables(), 4)
}

func TestGraph_TablesAndEnums(t *testing.T) {
	g := newGraph(t, shapes())

	var tables, enums []string
	for _, typ := range g.Tables() {
		tables = append(tables, g.TableName(typ))
	}
	for _, typ := range g.Enums() {
		enums = append(enums, typ.FQName)
	}
	assert.Equal(t, []string{"shapes", "shapes__palette", "circle"}, tables)
	assert.Equal(t, []string{"Shapes.Palette.Color"}, enums)
}

func TestFindClassByQName(t *testing.T) {
	t.Run("exact path wins over other classes with the same name", func(t *testing.T) {
		g := newGraph(t, []*load.Class{
			nested(class("A", attr("item", "Item")), class("Item")),
			nested(class("B", attr("item", "Item")), class("Item")),
		})
		for _, owner := range []string{"A", "B"} {
			typ, err := g.FindClassByQName("Item", []string{owner})
			require.NoError(t, err)
			assert.Equal(t, owner+".Item", typ.FQName)
		}
	})

	t.Run("bare name wins over suffix matches", func(t *testing.T) {
		g := newGraph(t, []*load.Class{
			nested(class("A"), class("Item")),
			class("Item"),
			class("C"),
		})
		typ, err := g.FindClassByQName("Item", []string{"C"})
		require.NoError(t, err)
		assert.Equal(t, "Item", typ.FQName)
	})

	t.Run("path suffix wins over name suffix", func(t *testing.T) {
		g := newGraph(t, []*load.Class{
			nested(class("Other"), class("Z")),
			nested(class("Root"), nested(class("A"), class("Z"))),
			class("A"),
		})
		typ, err := g.FindClassByQName("Z", []string{"A"})
		require.NoError(t, err)
		assert.Equal(t, "Root.A.Z", typ.FQName)
	})

	t.Run("name suffix", func(t *testing.T) {
		g := newGraph(t, []*load.Class{
			nested(class("Root"), nested(class("A"), class("Z"))),
			class("C"),
		})
		typ, err := g.FindClassByQName("{urn:x}Z", []string{"C"})
		require.NoError(t, err)
		assert.Equal(t, "Root.A.Z", typ.FQName)
	})

	t.Run("suffixes respect segment boundaries", func(t *testing.T) {
		g := newGraph(t, []*load.Class{nested(class("Area"), class("Z"))})
		assert.Empty(t, g.suffixMatches("rea.Z"))
		assert.Len(t, g.suffixMatches("Area.Z"), 1)
	})

	t.Run("not found", func(t *testing.T) {
		g := newGraph(t, []*load.Class{class("A")})
		_, err := g.FindClassByQName("{urn:x}Missing", []string{"A"})
		require.Error(t, err)
		assert.True(t, IsResolutionError(err))
		assert.Contains(t, err.Error(), "{urn:x}Missing")
	})

	t.Run("deterministic", func(t *testing.T) {
		g := newGraph(t, shapes())
		first, err := g.FindClassByQName("Color", []string{"Circle"})
		require.NoError(t, err)
		for range 10 {
			again, err := g.FindClassByQName("Color", []string{"Circle"})
			require.NoError(t, err)
			assert.True(t, first.Is(again))
		}
	})
}

func TestFindClassByQName_Ambiguous(t *testing.T) {
	classes := func() []*load.Class {
		return []*load.Class{
			nested(class("A"), class("Item")),
			nested(class("B"), class("Item")),
			class("C"),
		}
	}

	t.Run("picks the first match and warns", func(t *testing.T) {
		var buf bytes.Buffer
		g := newGraph(t, classes(), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
		typ, err := g.FindClassByQName("Item", []string{"C"})
		require.NoError(t, err)
		assert.Equal(t, "A.Item", typ.FQName)
		assert.Contains(t, buf.String(), "ambiguous class reference")
		assert.Contains(t, buf.String(), "picked=A.Item")
	})

	t.Run("strict resolution fails", func(t *testing.T) {
		g := newGraph(t, classes(), WithStrictResolution())
		_, err := g.FindClassByQName("Item", []string{"C"})
		require.Error(t, err)
		var re *ResolutionError
		require.True(t, errors.As(err, &re))
		assert.Equal(t, []string{"A.Item", "B.Item"}, re.Candidates)
	})
}

func TestGraph_Resolve(t *testing.T) {
	g := newGraph(t, []*load.Class{class("A", attr("ref", "Missing"))})
	a := lookup(t, g, "A")

	_, err := g.Fields(a)
	require.NoError(t, err)
	_, err = g.Relationships(a)
	require.Error(t, err)
	var re *ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "A", re.Class)
	assert.Equal(t, "ref", re.Attr)
}
