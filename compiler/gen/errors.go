package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrResolution indicates a type reference that matches no class.
	ErrResolution = errors.New("xsdalchemy: unresolved type reference")
	// ErrUnsupported indicates a schema shape that cannot be mapped to storage.
	ErrUnsupported = errors.New("xsdalchemy: unsupported schema shape")
	// ErrInvalidOption indicates a configuration option error.
	ErrInvalidOption = errors.New("xsdalchemy: invalid option")
	// ErrGenerationFailed indicates a rendering or writing failure.
	ErrGenerationFailed = errors.New("xsdalchemy: code generation failed")
)

// ResolutionError is returned when a qualified name cannot be matched to
// exactly one class of the graph.
type ResolutionError struct {
	QName   string
	Parents []string
	// Class and Attr locate the reference, when known.
	Class string
	Attr  string
	// Candidates lists the tied matches of an ambiguous lookup.
	Candidates []string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	var b strings.Builder
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, "xsdalchemy: ambiguous qname %s matches %s", e.QName, strings.Join(e.Candidates, ", "))
	} else {
		fmt.Fprintf(&b, "xsdalchemy: can't find class for qname %s", e.QName)
	}
	if len(e.Parents) > 0 {
		fmt.Fprintf(&b, " (parents %s)", strings.Join(e.Parents, "."))
	}
	if e.Class != "" {
		b.WriteString(" in class ")
		b.WriteString(e.Class)
	}
	if e.Attr != "" {
		b.WriteString(" attr ")
		b.WriteString(e.Attr)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for ResolutionError.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// Shape names an unsupported schema construct.
type Shape string

// Unsupported shapes.
const (
	ShapeMultiComplexUnion Shape = "union of complex types"
	ShapeListOfList        Shape = "list of lists"
	ShapeDict              Shape = "dict field"
	ShapeMultiExtension    Shape = "multiple extensions"
	ShapeExtensionCycle    Shape = "extension cycle"
	ShapeDuplicateClass    Shape = "duplicate class"
	ShapeNameCollision     Shape = "name collision"
	ShapeUnmappedDatatype  Shape = "unmapped datatype"
)

// ConfigError is returned for schema shapes that have no storage mapping.
type ConfigError struct {
	Class   string
	Attr    string
	Shape   Shape
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("xsdalchemy: unsupported")
	if e.Shape != "" {
		b.WriteString(" ")
		b.WriteString(string(e.Shape))
	}
	if e.Class != "" {
		b.WriteString(" on class ")
		b.WriteString(e.Class)
	}
	if e.Attr != "" {
		b.WriteString(" attr ")
		b.WriteString(e.Attr)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrUnsupported
}

// NewConfigError creates a new ConfigError.
func NewConfigError(class, attr string, shape Shape, message string) *ConfigError {
	return &ConfigError{
		Class:   class,
		Attr:    attr,
		Shape:   shape,
		Message: message,
	}
}

// OptionError represents an invalid generator option.
type OptionError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *OptionError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("xsdalchemy: option %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("xsdalchemy: option %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for OptionError.
func (e *OptionError) Is(target error) bool {
	return target == ErrInvalidOption
}

// NewOptionError creates a new OptionError.
func NewOptionError(option string, value any, message string) *OptionError {
	return &OptionError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a rendering or writing failure of a target.
type GenerationError struct {
	Target  string
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("xsdalchemy: generation error")
	if e.Target != "" {
		b.WriteString(" in target ")
		b.WriteString(e.Target)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(target, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Target:  target,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// IsResolutionError reports whether the error is a ResolutionError.
func IsResolutionError(err error) bool {
	var resErr *ResolutionError
	return errors.As(err, &resErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsOptionError reports whether the error is an OptionError.
func IsOptionError(err error) bool {
	var optErr *OptionError
	return errors.As(err, &optErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
