package load

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a class graph dump.
type Format string

// Supported formats.
const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// FormatOf returns the dump format for the given file path, by extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".msgpack", ".mpk":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("load: unsupported file extension %q", ext)
	}
}

// Graph is the top-level document of a dump.
type Graph struct {
	Classes []*Class `json:"classes" yaml:"classes" msgpack:"classes"`
}

// Load reads and validates the class graph stored at path.
func Load(path string) ([]*Class, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	defer f.Close()
	classes, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return classes, nil
}

// Decode decodes and validates a class graph from r.
func Decode(r io.Reader, format Format) ([]*Class, error) {
	var (
		g   Graph
		err error
	)
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&g)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&g)
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(&g)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	if err := Validate(g.Classes); err != nil {
		return nil, err
	}
	return g.Classes, nil
}

// Encode writes the class graph to w in the given format.
func Encode(w io.Writer, format Format, classes []*Class) error {
	g := Graph{Classes: classes}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(g)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// Marshal returns the encoding of the class graph in the given format.
func Marshal(format Format, classes []*Class) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, format, classes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
