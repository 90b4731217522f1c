package gostruct

import (
	"go/parser"
	"go/token"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/xsdalchemy/compiler/gen"
	"github.com/syssam/xsdalchemy/compiler/load"
)

func native(name string) *load.AttrType { return &load.AttrType{QName: name, DataType: name} }

func shapes(t *testing.T) *gen.Graph {
	t.Helper()
	red, green := "red", "green"
	g, err := gen.NewGraph(gen.MustNewConfig(), []*load.Class{
		{
			QName: "{urn:shapes}Shapes",
			Attrs: []*load.Attr{
				{Name: "title", Types: []*load.AttrType{native("str")}},
				{Name: "sizes", IsList: true, Types: []*load.AttrType{native("int")}},
				{Name: "palette", Types: []*load.AttrType{{QName: "Palette"}}},
			},
			Inner: []*load.Class{{
				QName: "Palette",
				Attrs: []*load.Attr{{Name: "color", Types: []*load.AttrType{{QName: "Color"}}}},
				Inner: []*load.Class{{
					QName:         "Color",
					IsEnumeration: true,
					Attrs: []*load.Attr{
						{Name: "red", Default: &red, Types: []*load.AttrType{native("str")}},
						{Name: "green", Default: &green, Types: []*load.AttrType{native("str")}},
					},
				}},
			}},
		},
		{
			QName: "{urn:shapes}Circle",
			Attrs: []*load.Attr{{Name: "shapes", IsList: true, Types: []*load.AttrType{{QName: "Shapes"}}}},
		},
	})
	require.NoError(t, err)
	return g
}

func TestPascal(t *testing.T) {
	tests := map[string]string{
		"user_info":    "UserInfo",
		"user_id":      "UserID",
		"http_code":    "HTTPCode",
		"full-admin":   "FullAdmin",
		"a_b":          "AB",
		"xml_parser":   "XMLParser",
		"Shapes_Color": "ShapesColor",
		"shapes.color": "ShapesColor",
	}
	for in, want := range tests {
		assert.Equal(t, want, pascal(in), in)
	}
}

func TestReceiver(t *testing.T) {
	tests := map[string]string{
		"User":          "u",
		"ShapesPalette": "sp",
		"*User":         "u",
		"[]User":        "u",
		"":              "_x",
	}
	for in, want := range tests {
		assert.Equal(t, want, receiver(in), in)
	}
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "Users", plural("User"))
	assert.Equal(t, "Categories", plural("Category"))
	assert.Equal(t, "ShapesPaletteColors", plural("ShapesPaletteColor"))
}

func TestAddAcronym(t *testing.T) {
	AddAcronym("gml")
	assert.Equal(t, "GMLPoint", pascal("gml_point"))
}

func TestAddAcronym_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			AddAcronym("kml" + strconv.Itoa(i))
		}()
		go func() {
			defer wg.Done()
			assert.Equal(t, "ShapeURL", pascal("shape_url"))
			assert.Equal(t, "Users", plural("User"))
		}()
	}
	wg.Wait()
	assert.Equal(t, "KML3Layer", pascal("kml3_layer"))
}

func TestTarget_Generate(t *testing.T) {
	target := New("")
	assert.Equal(t, Name, target.Name())

	files, err := target.Generate(shapes(t))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "models/shapes.go", files[0].Path)
	assert.Equal(t, "models/circle.go", files[1].Path)

	for _, f := range files {
		_, err := parser.ParseFile(token.NewFileSet(), f.Path, f.Content, parser.AllErrors)
		require.NoError(t, err, f.Path)
	}

	src := string(files[0].Content)
	for _, want := range []string{
		"// Code generated by xsdalchemy, DO NOT EDIT.",
		"package models",
		"type Shapes struct",
		"func (s *Shapes) TableName() string",
		`return "shapes"`,
		"type ShapesPalette struct",
		`return "shapes__palette"`,
		"*ShapesPaletteColor",
		"[]int64",
		"PaletteID",
		"CircleShapesID",
		`db:"-"`,
		"type ShapesPaletteColor string",
		"ShapesPaletteColorRed",
		`"green"`,
		"func ShapesPaletteColors() []ShapesPaletteColor",
	} {
		assert.Contains(t, src, want)
	}
	assert.Contains(t, string(files[1].Content), "Shapes []*Shapes")
}
