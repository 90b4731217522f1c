package gen

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/xsdalchemy/compiler/load"
)

type (
	// File is a rendered output file.
	File struct {
		// Path is relative to the target directory.
		Path    string
		Content []byte
	}

	// Target renders the files of one output kind from a graph.
	Target interface {
		Name() string
		Generate(*Graph) ([]*File, error)
	}

	// TargetFunc adapts a function to the Target interface.
	TargetFunc struct {
		name string
		fn   func(*Graph) ([]*File, error)
	}
)

// NewTargetFunc returns a Target with the given name rendering with fn.
func NewTargetFunc(name string, fn func(*Graph) ([]*File, error)) Target {
	return &TargetFunc{name: name, fn: fn}
}

// Name implements Target.
func (t *TargetFunc) Name() string { return t.name }

// Generate implements Target.
func (t *TargetFunc) Generate(g *Graph) ([]*File, error) { return t.fn(g) }

// Generator renders class graphs with a set of targets.
type Generator struct {
	config  *Config
	targets []Target
}

// NewGenerator returns a generator for the given configuration and
// targets.
func NewGenerator(c *Config, targets ...Target) (*Generator, error) {
	if c == nil {
		c = defaultConfig()
	}
	if len(targets) == 0 {
		return nil, NewOptionError("Targets", nil, "at least one target is required")
	}
	names := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		if _, ok := names[t.Name()]; ok {
			return nil, NewOptionError("Targets", t.Name(), "duplicate target")
		}
		names[t.Name()] = struct{}{}
	}
	return &Generator{config: c, targets: targets}, nil
}

func (gen *Generator) workers() int {
	if gen.config.Workers > 0 {
		return gen.config.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Render renders every run with all targets and returns the files sorted
// by path. Each run gets its own graph. The first error aborts the whole
// generation.
func (gen *Generator) Render(ctx context.Context, runs ...[]*load.Class) ([]*File, error) {
	graphs := make([]*Graph, len(runs))
	for i, classes := range runs {
		g, err := NewGraph(gen.config, classes)
		if err != nil {
			return nil, err
		}
		graphs[i] = g
	}
	var (
		mu    sync.Mutex
		files []*File
		seen  = make(map[string]string)
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(gen.workers())
	for _, g := range graphs {
		for _, t := range gen.targets {
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				out, err := t.Generate(g)
				if err != nil {
					return NewGenerationError(t.Name(), "", "render", err)
				}
				mu.Lock()
				defer mu.Unlock()
				for _, f := range out {
					if prev, ok := seen[f.Path]; ok {
						return NewGenerationError(t.Name(), f.Path, "file already rendered by target "+prev, nil)
					}
					seen[f.Path] = t.Name()
					files = append(files, f)
				}
				g.Logger().Debug("target rendered", "target", t.Name(), "files", len(out))
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	slices.SortFunc(files, func(a, b *File) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}

// Generate renders every run and writes the files to the target
// directory.
func (gen *Generator) Generate(ctx context.Context, runs ...[]*load.Class) error {
	files, err := gen.Render(ctx, runs...)
	if err != nil {
		return err
	}
	w := &writer{dir: gen.config.Target, header: gen.config.Header, workers: gen.workers()}
	if err := w.write(ctx, files); err != nil {
		return err
	}
	gen.config.logger().Info("generation completed",
		"target", gen.config.Target,
		"files", len(files),
		"bytes", w.bytes.Load(),
	)
	return nil
}

// Generate renders and writes the classes with the given targets, using a
// configuration built from the options.
func Generate(ctx context.Context, classes []*load.Class, targets []Target, opts ...Option) error {
	c, err := NewConfig(opts...)
	if err != nil {
		return fmt.Errorf("xsdalchemy: invalid options: %w", err)
	}
	gen, err := NewGenerator(c, targets...)
	if err != nil {
		return err
	}
	return gen.Generate(ctx, classes)
}
