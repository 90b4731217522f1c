package commands

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graph = `classes:
  - qname: Shapes
    attrs:
      - name: title
        types:
          - qname: "xs:string"
            datatype: str
      - name: palette
        types:
          - qname: Palette
  - qname: Palette
    attrs:
      - name: name
        types:
          - qname: "xs:string"
            datatype: str
`

func input(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shapes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(graph), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "generate", "--target", dir, "--targets", "dataclass,graphql", input(t))
	require.NoError(t, err)
	for _, name := range []string{"models.py", "_registry.py", "__init__.py", "schema.graphql"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	src, err := os.ReadFile(filepath.Join(dir, "models.py"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "class Shapes:")
	assert.Contains(t, string(src), "class Palette:")
}

func TestGenerate_Errors(t *testing.T) {
	_, err := run(t, "generate", "--targets", "pydantic", input(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown target "pydantic"`)

	_, err = run(t, "generate", "--target", t.TempDir(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = run(t, "generate", "--config", filepath.Join(t.TempDir(), "missing.yaml"), input(t))
	require.Error(t, err)

	_, err = run(t, "generate")
	require.Error(t, err)
}

func TestMigrate_DryRun(t *testing.T) {
	out, err := run(t, "migrate", "--dialect", "sqlite", "--dry-run", input(t))
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE")
	assert.Contains(t, out, "shapes")
	assert.Contains(t, out, "palette")
	assert.Contains(t, out, "FOREIGN KEY")
}

func TestMigrate_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "shapes.db")
	_, err := run(t, "migrate", "--dialect", "sqlite", "--dsn", dsn, input(t))
	require.NoError(t, err)

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('shapes', 'palette')").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestMigrate_Errors(t *testing.T) {
	_, err := run(t, "migrate", "--dialect", "sqlite", input(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--dsn is required")

	_, err = run(t, "migrate", "--dialect", "oracle", "--dry-run", input(t))
	require.Error(t, err)
}
