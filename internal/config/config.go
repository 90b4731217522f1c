// Package config handles the xsdalchemy.yaml generator configuration.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/syssam/xsdalchemy/compiler/gen"
)

// CurrentVersion is the current version of the config file format.
const CurrentVersion = 1

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "xsdalchemy.yaml"

type (
	// Config represents the xsdalchemy.yaml configuration file.
	Config struct {
		Version int    `yaml:"version"`
		Package string `yaml:"package,omitempty"`
		Target  string `yaml:"target,omitempty"`
		Header  string `yaml:"header,omitempty"`
		// Targets names the renderers to run.
		Targets []string `yaml:"targets,omitempty"`
		// Dialects names the SQL dialects of the ddl target.
		Dialects []string `yaml:"dialects,omitempty"`
		// GoPackage is the package of the gostruct target.
		GoPackage string `yaml:"go_package,omitempty"`

		Aliases          Aliases                       `yaml:"aliases,omitempty"`
		Conventions      map[string]gen.NameConvention `yaml:"conventions,omitempty"`
		Format           *Format                       `yaml:"format,omitempty"`
		MaxLineLength    int                           `yaml:"max_line_length,omitempty"`
		DocMetadata      bool                          `yaml:"doc_metadata,omitempty"`
		JoinOverrides    []gen.JoinOverride            `yaml:"join_overrides,omitempty"`
		ColumnTypes      map[string]string             `yaml:"column_types,omitempty"`
		StrictResolution bool                          `yaml:"strict_resolution,omitempty"`
		Workers          int                           `yaml:"workers,omitempty"`
	}

	// Aliases holds the name alias tables, keyed by source name.
	Aliases struct {
		Class   map[string]string `yaml:"class,omitempty"`
		Field   map[string]string `yaml:"field,omitempty"`
		Package map[string]string `yaml:"package,omitempty"`
		Module  map[string]string `yaml:"module,omitempty"`
	}

	// Format holds the dataclass output flags.
	Format struct {
		Repr       bool `yaml:"repr"`
		Eq         bool `yaml:"eq"`
		Order      bool `yaml:"order,omitempty"`
		UnsafeHash bool `yaml:"unsafe_hash,omitempty"`
		Frozen     bool `yaml:"frozen,omitempty"`
		Slots      bool `yaml:"slots,omitempty"`
		KwOnly     bool `yaml:"kw_only,omitempty"`
	}
)

// Targets known by the command line.
var knownTargets = []string{"dataclass", "ddl", "gostruct", "graphql"}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{Version: CurrentVersion, Targets: []string{"dataclass"}}
}

// Load reads a Config from a file path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the Config to a file path.
func (c *Config) Save(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(c)
}

// Validate checks the configuration for required fields and valid values.
// Option values are validated when converted by Options.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return errors.New("unsupported config version")
	}
	if len(c.Targets) == 0 {
		return errors.New("no targets configured")
	}
	for _, t := range c.Targets {
		if !slices.Contains(knownTargets, t) {
			return fmt.Errorf("unknown target %q", t)
		}
	}
	for k := range c.Conventions {
		if !slices.Contains([]string{"class", "field", "constant", "module", "package"}, k) {
			return fmt.Errorf("unknown naming convention category %q", k)
		}
	}
	return nil
}

// Options returns the generator options of the configuration.
func (c *Config) Options() []gen.Option {
	var opts []gen.Option
	if c.Package != "" {
		opts = append(opts, gen.WithPackage(c.Package))
	}
	if c.Target != "" {
		opts = append(opts, gen.WithTarget(c.Target))
	}
	if c.Header != "" {
		opts = append(opts, gen.WithHeader(c.Header))
	}
	opts = appendAliases(opts, c.Aliases.Class, gen.WithClassAlias)
	opts = appendAliases(opts, c.Aliases.Field, gen.WithFieldAlias)
	opts = appendAliases(opts, c.Aliases.Package, gen.WithPackageAlias)
	opts = appendAliases(opts, c.Aliases.Module, gen.WithModuleAlias)
	conventions := map[string]func(gen.NameConvention) gen.Option{
		"class":    gen.WithClassNameConvention,
		"field":    gen.WithFieldNameConvention,
		"constant": gen.WithConstantNameConvention,
		"module":   gen.WithModuleNameConvention,
		"package":  gen.WithPackageNameConvention,
	}
	for _, k := range sortedKeys(c.Conventions) {
		opts = append(opts, conventions[k](c.Conventions[k]))
	}
	if f := c.Format; f != nil {
		opts = append(opts, gen.WithFormat(gen.OutputFormat{
			Repr:       f.Repr,
			Eq:         f.Eq,
			Order:      f.Order,
			UnsafeHash: f.UnsafeHash,
			Frozen:     f.Frozen,
			Slots:      f.Slots,
			KwOnly:     f.KwOnly,
		}))
	}
	if c.MaxLineLength != 0 {
		opts = append(opts, gen.WithMaxLineLength(c.MaxLineLength))
	}
	if c.DocMetadata {
		opts = append(opts, gen.WithDocMetadata())
	}
	if len(c.JoinOverrides) > 0 {
		opts = append(opts, gen.WithJoinOverrides(c.JoinOverrides...))
	}
	for _, k := range sortedKeys(c.ColumnTypes) {
		opts = append(opts, gen.WithColumnType(k, c.ColumnTypes[k]))
	}
	if c.StrictResolution {
		opts = append(opts, gen.WithStrictResolution())
	}
	if c.Workers != 0 {
		opts = append(opts, gen.WithWorkers(c.Workers))
	}
	return opts
}

func appendAliases(opts []gen.Option, aliases map[string]string, with func(string, string) gen.Option) []gen.Option {
	for _, k := range sortedKeys(aliases) {
		opts = append(opts, with(k, aliases[k]))
	}
	return opts
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
