package commands

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/xsdalchemy/compiler/gen"
	"github.com/syssam/xsdalchemy/compiler/gen/ddl"
	"github.com/syssam/xsdalchemy/compiler/load"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type migrateOptions struct {
	dialect string
	dsn     string
	schema  string
	dryRun  bool
}

// drivers maps the dialects to their database/sql driver names.
var drivers = map[ddl.Dialect]string{
	ddl.Postgres: "postgres",
	ddl.MySQL:    "mysql",
	ddl.SQLite:   "sqlite",
}

func registerMigrateCmd(parent *cobra.Command, root *rootOptions) {
	opts := &migrateOptions{}
	cmd := &cobra.Command{
		Use:   "migrate <graph>",
		Short: "Create the tables of a class graph in a database",
		Example: `  # Print the statements
  xsdalchemy migrate --dialect postgres --dry-run shapes.json

  # Create the tables in a sqlite database
  xsdalchemy migrate --dialect sqlite --dsn "file:shapes.db" shapes.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.dialect, "dialect", "d", string(ddl.Postgres), "SQL dialect (postgres, mysql, sqlite)")
	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "Data source name of the database")
	cmd.Flags().StringVar(&opts.schema, "schema", "", "Schema qualifying the tables")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the statements without executing them")
	parent.AddCommand(cmd)
}

func runMigrate(cmd *cobra.Command, root *rootOptions, opts *migrateOptions, path string) error {
	d, err := ddl.ParseDialect(opts.dialect)
	if err != nil {
		return err
	}
	if !opts.dryRun && opts.dsn == "" {
		return fmt.Errorf("--dsn is required unless --dry-run is set")
	}
	cfg, err := root.loadConfig(cmd)
	if err != nil {
		return err
	}
	c, err := gen.NewConfig(append(cfg.Options(), gen.WithLogger(root.log()))...)
	if err != nil {
		return err
	}
	classes, err := load.Load(path)
	if err != nil {
		return err
	}
	g, err := gen.NewGraph(c, classes)
	if err != nil {
		return err
	}
	stmts, err := ddl.Create(cmd.Context(), g, opts.schema, d)
	if err != nil {
		return err
	}
	if opts.dryRun {
		_, err := fmt.Fprint(cmd.OutOrStdout(), ddl.Script(stmts))
		return err
	}
	db, err := sql.Open(drivers[d], opts.dsn)
	if err != nil {
		return fmt.Errorf("open %s database: %w", d, err)
	}
	defer db.Close() //nolint:errcheck
	if err := ddl.Apply(cmd.Context(), db, stmts); err != nil {
		return err
	}
	root.log().Info("tables created", "dialect", d, "statements", len(stmts))
	return nil
}
