package gen

import (
	"errors"
	"log/slog"

	"github.com/syssam/xsdalchemy/schema/field"
)

// Option configures code generation.
type Option func(*Config) error

// WithPackage sets the python package of the generated modules.
// For example: "generated.models".
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewOptionError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewOptionError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithClassAlias renders the class with the given source name as target.
func WithClassAlias(source, target string) Option {
	return withAlias("ClassAliases", source, target, func(c *Config) *map[string]string { return &c.ClassAliases })
}

// WithFieldAlias renders the field with the given source name as target.
func WithFieldAlias(source, target string) Option {
	return withAlias("FieldAliases", source, target, func(c *Config) *map[string]string { return &c.FieldAliases })
}

// WithPackageAlias renders the package with the given source name as target.
func WithPackageAlias(source, target string) Option {
	return withAlias("PackageAliases", source, target, func(c *Config) *map[string]string { return &c.PackageAliases })
}

// WithModuleAlias renders the module with the given source name as target.
func WithModuleAlias(source, target string) Option {
	return withAlias("ModuleAliases", source, target, func(c *Config) *map[string]string { return &c.ModuleAliases })
}

func withAlias(option, source, target string, table func(*Config) *map[string]string) Option {
	return func(c *Config) error {
		if source == "" || target == "" {
			return NewOptionError(option, source, "alias source and target cannot be empty")
		}
		m := table(c)
		if *m == nil {
			*m = make(map[string]string)
		}
		(*m)[source] = target
		return nil
	}
}

// WithClassNameConvention sets the case and safe prefix of class names.
func WithClassNameConvention(nc NameConvention) Option {
	return withConvention("ClassName", nc, func(c *Config) *NameConvention { return &c.ClassName })
}

// WithFieldNameConvention sets the case and safe prefix of field names.
func WithFieldNameConvention(nc NameConvention) Option {
	return withConvention("FieldName", nc, func(c *Config) *NameConvention { return &c.FieldName })
}

// WithConstantNameConvention sets the case and safe prefix of enum members.
func WithConstantNameConvention(nc NameConvention) Option {
	return withConvention("ConstantName", nc, func(c *Config) *NameConvention { return &c.ConstantName })
}

// WithModuleNameConvention sets the case and safe prefix of module names.
func WithModuleNameConvention(nc NameConvention) Option {
	return withConvention("ModuleName", nc, func(c *Config) *NameConvention { return &c.ModuleName })
}

// WithPackageNameConvention sets the case and safe prefix of package names.
func WithPackageNameConvention(nc NameConvention) Option {
	return withConvention("PackageName", nc, func(c *Config) *NameConvention { return &c.PackageName })
}

func withConvention(option string, nc NameConvention, dst func(*Config) *NameConvention) Option {
	return func(c *Config) error {
		if _, ok := caseFuncs[nc.Case]; !ok {
			return NewOptionError(option, nc.Case, "unknown case convention")
		}
		if nc.SafePrefix == "" {
			return NewOptionError(option, nil, "safe prefix cannot be empty")
		}
		*dst(c) = nc
		return nil
	}
}

// WithFormat sets the output format flags.
func WithFormat(f OutputFormat) Option {
	return func(c *Config) error {
		if f.Order && !f.Eq {
			return NewOptionError("Format", nil, "order requires eq")
		}
		c.Format = f
		return nil
	}
}

// WithMaxLineLength sets the maximum line length used for wrapping
// strings and docstrings.
func WithMaxLineLength(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewOptionError("MaxLineLength", n, "must be positive")
		}
		c.MaxLineLength = n
		return nil
	}
}

// WithDocMetadata adds the attribute documentation to the field metadata.
func WithDocMetadata() Option {
	return func(c *Config) error {
		c.DocMetadata = true
		return nil
	}
}

// WithJoinOverrides adds explicit join conditions for relationships whose
// join columns cannot be inferred from the foreign keys.
func WithJoinOverrides(overrides ...JoinOverride) Option {
	return func(c *Config) error {
		for _, o := range overrides {
			if o.Source == "" || o.Target == "" || o.Attr == "" || o.Join == "" {
				return NewOptionError("JoinOverrides", o, "source, target, attr and join are required")
			}
		}
		c.JoinOverrides = append(c.JoinOverrides, overrides...)
		return nil
	}
}

// WithColumnType overrides the column type used for a python type name.
// For example: WithColumnType("str", "Text").
func WithColumnType(typeName, column string) Option {
	return func(c *Config) error {
		if t := field.ParseType(typeName); !t.Valid() || t.String() != typeName {
			return NewOptionError("ColumnTypes", typeName, "not a primitive type name")
		}
		if column == "" {
			return NewOptionError("ColumnTypes", typeName, "column type cannot be empty")
		}
		if c.ColumnTypes == nil {
			c.ColumnTypes = make(map[string]string)
		}
		c.ColumnTypes[typeName] = column
		return nil
	}
}

// WithStrictResolution fails on ambiguous suffix matches instead of
// logging a warning and picking the first candidate.
func WithStrictResolution() Option {
	return func(c *Config) error {
		c.StrictResolution = true
		return nil
	}
}

// WithWorkers sets the number of targets rendered in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewOptionError("Workers", n, "must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithLogger sets the logger of the run.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewOptionError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := defaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
