package ddl

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"
)

func (d Dialect) planner() migrate.PlanApplier {
	switch d {
	case MySQL:
		return mysql.DefaultPlan
	case SQLite:
		return sqlite.DefaultPlan
	default:
		return postgres.DefaultPlan
	}
}

// Changes returns the changes creating the schema. SQLite declares the
// foreign keys inline; the other dialects add them after all tables exist,
// which allows reference cycles.
func (s *Schema) Changes() []schema.Change {
	var (
		changes []schema.Change
		alter   []schema.Change
	)
	for _, t := range s.Tables {
		fks := s.FKs[t.Name]
		if s.Dialect == SQLite {
			t.AddForeignKeys(fks...)
			changes = append(changes, &schema.AddTable{T: t})
			continue
		}
		changes = append(changes, &schema.AddTable{T: t})
		if len(fks) == 0 {
			continue
		}
		add := make([]schema.Change, len(fks))
		for i, fk := range fks {
			add[i] = &schema.AddForeignKey{F: fk}
		}
		alter = append(alter, &schema.ModifyTable{T: t, Changes: add})
	}
	return append(changes, alter...)
}

// Plan plans the statements creating the schema.
func (s *Schema) Plan(ctx context.Context) (*migrate.Plan, error) {
	plan, err := s.Dialect.planner().PlanChanges(ctx, "create_"+string(s.Dialect), s.Changes())
	if err != nil {
		return nil, fmt.Errorf("ddl: plan %s schema: %w", s.Dialect, err)
	}
	return plan, nil
}

// Statements returns the statements of the plan.
func Statements(plan *migrate.Plan) []string {
	stmts := make([]string, 0, len(plan.Changes))
	for _, c := range plan.Changes {
		stmts = append(stmts, c.Cmd)
	}
	return stmts
}

// Script renders the statements as a SQL script.
func Script(stmts []string) string {
	var b strings.Builder
	for _, s := range stmts {
		b.WriteString(strings.TrimSuffix(s, ";"))
		b.WriteString(";\n")
	}
	return b.String()
}

// TxBeginner starts the transaction Apply runs in. *sql.DB implements it.
type TxBeginner interface {
	BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
}

// Apply executes the statements in a single transaction. The
// transaction is rolled back on the first failure.
func Apply(ctx context.Context, db TxBeginner, stmts []string) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ddl: begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = fmt.Errorf("%w: rollback: %v", err, rerr)
			}
		}
	}()
	for i, stmt := range stmts {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ddl: statement %d: %w", i+1, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ddl: commit: %w", err)
	}
	return nil
}
