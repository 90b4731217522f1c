package gen

import "log/slog"

// Config holds the configuration of a generation run.
type Config struct {
	// Package is the python package the generated modules belong to.
	Package string
	// Target is the output directory.
	Target string
	// Header is written at the top of every generated file.
	Header string

	// Alias tables, keyed by the source name.
	ClassAliases   map[string]string
	FieldAliases   map[string]string
	PackageAliases map[string]string
	ModuleAliases  map[string]string

	// Naming conventions per identifier category.
	ClassName    NameConvention
	FieldName    NameConvention
	ConstantName NameConvention
	ModuleName   NameConvention
	PackageName  NameConvention

	Format        OutputFormat
	MaxLineLength int
	// DocMetadata adds the attribute documentation to the field metadata.
	DocMetadata bool

	// JoinOverrides replace foreign key inference for ambiguous joins.
	JoinOverrides []JoinOverride
	// ColumnTypes overrides the column type of a python type name.
	ColumnTypes map[string]string
	// StrictResolution turns ambiguous suffix matches into errors.
	StrictResolution bool

	// Workers bounds the number of targets rendered in parallel.
	Workers int
	Logger  *slog.Logger
}

// NameConvention is the case convention and the safe-name prefix of an
// identifier category.
type NameConvention struct {
	Case       string `yaml:"case"`
	SafePrefix string `yaml:"safe_prefix"`
}

// OutputFormat controls the @dataclass decorator flags and the container
// types of list fields.
type OutputFormat struct {
	Repr       bool
	Eq         bool
	Order      bool
	UnsafeHash bool
	Frozen     bool
	Slots      bool
	KwOnly     bool
}

// JoinOverride is an explicit join condition for the relationship created
// by the attribute Attr of the class Source pointing at Target. Source and
// Target match either the fully-qualified or the short class name.
type JoinOverride struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Attr   string `yaml:"attr"`
	Join   string `yaml:"join"`
}

// DefaultMaxLineLength is the default maximum line length of rendered text.
const DefaultMaxLineLength = 79

func defaultConfig() *Config {
	return &Config{
		ClassName:     NameConvention{Case: CasePascal, SafePrefix: "type"},
		FieldName:     NameConvention{Case: CaseSnake, SafePrefix: "value"},
		ConstantName:  NameConvention{Case: CaseScreamingSnake, SafePrefix: "value"},
		ModuleName:    NameConvention{Case: CaseSnake, SafePrefix: "mod"},
		PackageName:   NameConvention{Case: CaseSnake, SafePrefix: "pkg"},
		Format:        OutputFormat{Repr: true, Eq: true},
		MaxLineLength: DefaultMaxLineLength,
		Target:        ".",
	}
}

// logger returns the configured logger, or the default one.
func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

