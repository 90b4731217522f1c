package ddl

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestScript(t *testing.T) {
	assert.Equal(t, "CREATE TABLE a;\nCREATE TABLE b;\n", Script([]string{"CREATE TABLE a", "CREATE TABLE b;"}))
	assert.Empty(t, Script(nil))
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("postgres adds foreign keys last", func(t *testing.T) {
		stmts, err := Create(ctx, shapes(t), "public", Postgres)
		require.NoError(t, err)
		require.Len(t, stmts, 4)
		for _, s := range stmts[:3] {
			assert.True(t, strings.HasPrefix(s, "CREATE TABLE"), s)
		}
		assert.Contains(t, stmts[0], "shapes")
		assert.Contains(t, stmts[1], "shapes__palette")
		assert.Contains(t, stmts[2], "circle")
		assert.True(t, strings.HasPrefix(stmts[3], "ALTER TABLE"), stmts[3])
		assert.Contains(t, stmts[3], "FOREIGN KEY")
	})

	t.Run("sqlite declares foreign keys inline", func(t *testing.T) {
		stmts, err := Create(ctx, shapes(t), "main", SQLite)
		require.NoError(t, err)
		require.Len(t, stmts, 3)
		assert.Contains(t, stmts[0], "FOREIGN KEY")
	})

	t.Run("mysql", func(t *testing.T) {
		stmts, err := Create(ctx, shapes(t), "shapes", MySQL)
		require.NoError(t, err)
		require.Len(t, stmts, 4)
		assert.Contains(t, stmts[1], "enum('red','green')")
	})
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	stmts := []string{"CREATE TABLE a (id int)", "CREATE TABLE b (id int)"}

	t.Run("commit", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectBegin()
		for _, s := range stmts {
			mock.ExpectExec(s).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectCommit()

		require.NoError(t, Apply(ctx, db, stmts))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on failure", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectExec(stmts[0]).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(stmts[1]).WillReturnError(boom)
		mock.ExpectRollback()

		err = Apply(ctx, db, stmts)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "ddl: statement 2")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectBegin().WillReturnError(errors.New("no tx"))

		err = Apply(ctx, db, stmts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "begin transaction")
	})
}

func TestApply_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	stmts, err := Create(ctx, shapes(t), "main", SQLite)
	require.NoError(t, err)
	require.NoError(t, Apply(ctx, db, stmts))

	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	require.NoError(t, err)
	defer rows.Close()
	var tables []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables = append(tables, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"circle", "shapes", "shapes__palette"}, tables)
}

func TestTarget(t *testing.T) {
	target := NewTarget("public", Postgres, SQLite)
	assert.Equal(t, "ddl", target.Name())
	files, err := target.Generate(shapes(t))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "sql/postgres.sql", files[0].Path)
	assert.Equal(t, "sql/sqlite.sql", files[1].Path)
	assert.Contains(t, string(files[1].Content), "CREATE TABLE")
	assert.Len(t, NewTarget("").dialects, 3)
}
