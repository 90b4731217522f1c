package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/syssam/xsdalchemy/compiler/gen"
	"github.com/syssam/xsdalchemy/compiler/gen/dataclass"
	"github.com/syssam/xsdalchemy/compiler/gen/ddl"
	"github.com/syssam/xsdalchemy/compiler/gen/gostruct"
	"github.com/syssam/xsdalchemy/compiler/gen/graphql"
	"github.com/syssam/xsdalchemy/compiler/load"
	"github.com/syssam/xsdalchemy/internal/config"
)

type generateOptions struct {
	target  string
	pkg     string
	targets []string
	watch   bool
}

func registerGenerateCmd(parent *cobra.Command, root *rootOptions) {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate <graph>...",
		Short: "Render class graph dumps",
		Long: `Render class graph dumps (.json, .yaml or .msgpack) with the configured
targets. Every file is a separate run with its own class graph.`,
		Example: `  # Render python modules into ./models
  xsdalchemy generate --target models shapes.json

  # Also render the DDL scripts and re-render on change
  xsdalchemy generate --targets dataclass,ddl --watch shapes.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, root, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "Output directory")
	cmd.Flags().StringVarP(&opts.pkg, "package", "p", "", "Python package of the generated modules")
	cmd.Flags().StringSliceVar(&opts.targets, "targets", nil, "Targets to render (dataclass, ddl, gostruct, graphql)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Render again when an input or the config file changes")
	parent.AddCommand(cmd)
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions, paths []string) error {
	render := func() error {
		cfg, err := root.loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(opts.targets) > 0 {
			cfg.Targets = opts.targets
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		options := append(cfg.Options(), gen.WithLogger(root.log()))
		if opts.target != "" {
			options = append(options, gen.WithTarget(opts.target))
		}
		if opts.pkg != "" {
			options = append(options, gen.WithPackage(opts.pkg))
		}
		c, err := gen.NewConfig(options...)
		if err != nil {
			return err
		}
		targets, err := buildTargets(cfg)
		if err != nil {
			return err
		}
		runs := make([][]*load.Class, 0, len(paths))
		for _, p := range paths {
			classes, err := load.Load(p)
			if err != nil {
				return err
			}
			runs = append(runs, classes)
		}
		g, err := gen.NewGenerator(c, targets...)
		if err != nil {
			return err
		}
		return g.Generate(cmd.Context(), runs...)
	}
	if err := render(); err != nil {
		if !opts.watch {
			return err
		}
		root.log().Error("generation failed", "error", err)
	}
	if !opts.watch {
		return nil
	}
	return watch(cmd.Context(), root, append([]string{root.config}, paths...), render)
}

// buildTargets returns the renderers named by the configuration.
func buildTargets(cfg *config.Config) ([]gen.Target, error) {
	var targets []gen.Target
	for _, name := range cfg.Targets {
		switch name {
		case dataclass.Name:
			targets = append(targets, dataclass.New())
		case "ddl":
			var dialects []ddl.Dialect
			for _, d := range cfg.Dialects {
				dialect, err := ddl.ParseDialect(d)
				if err != nil {
					return nil, err
				}
				dialects = append(dialects, dialect)
			}
			targets = append(targets, ddl.NewTarget("", dialects...))
		case gostruct.Name:
			targets = append(targets, gostruct.New(cfg.GoPackage))
		case graphql.Name:
			targets = append(targets, graphql.New())
		default:
			return nil, fmt.Errorf("unknown target %q", name)
		}
	}
	return targets, nil
}

// watch calls render whenever one of the files changes, until the context
// is done. Events are debounced.
func watch(ctx context.Context, root *rootOptions, files []string, render func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close() //nolint:errcheck

	watched := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		watched[abs] = struct{}{}
		// Editors replace files, so the directories are watched.
		if err := w.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", f, err)
		}
	}
	root.log().Info("watching for changes", "files", len(files))
	const debounce = 200 * time.Millisecond
	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if _, ok := watched[filepath.Clean(ev.Name)]; !ok {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer = time.After(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			root.log().Warn("watcher error", "error", err)
		case <-timer:
			timer = nil
			if err := render(); err != nil {
				root.log().Error("generation failed", "error", err)
			}
		}
	}
}
