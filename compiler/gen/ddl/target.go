package ddl

import (
	"context"
	"path"

	"github.com/syssam/xsdalchemy/compiler/gen"
)

// Target renders a SQL script per dialect under the "sql" directory.
type Target struct {
	dialects []Dialect
	schema   string
}

// NewTarget returns a target rendering the given dialects, all of them
// when none is given.
func NewTarget(schema string, dialects ...Dialect) *Target {
	if len(dialects) == 0 {
		dialects = Dialects()
	}
	return &Target{dialects: dialects, schema: schema}
}

// Name implements gen.Target.
func (*Target) Name() string { return "ddl" }

// Generate implements gen.Target.
func (t *Target) Generate(g *gen.Graph) ([]*gen.File, error) {
	files := make([]*gen.File, 0, len(t.dialects))
	for _, d := range t.dialects {
		stmts, err := Create(context.Background(), g, t.schema, d)
		if err != nil {
			return nil, err
		}
		files = append(files, &gen.File{
			Path:    path.Join("sql", string(d)+".sql"),
			Content: []byte(Script(stmts)),
		})
	}
	return files, nil
}

// Create returns the statements creating the tables of the graph.
func Create(ctx context.Context, g *gen.Graph, schema string, d Dialect) ([]string, error) {
	s, err := Build(g, schema, d)
	if err != nil {
		return nil, err
	}
	plan, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}
	g.Logger().Debug("ddl planned", "dialect", d, "tables", len(s.Tables), "statements", len(plan.Changes))
	return Statements(plan), nil
}
