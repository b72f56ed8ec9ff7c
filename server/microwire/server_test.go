package microwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhpq/microsql/internal/engine"
	"github.com/minhpq/microsql/internal/sql/executor"
)

func newTestShared(t *testing.T) *shared {
	t.Helper()
	db, err := engine.Open(t.TempDir(), "testdb")
	require.NoError(t, err)
	return &shared{db: db, ex: executor.NewExecutor(db)}
}

func TestHandle_ExecuteAndIntrospect(t *testing.T) {
	sh := newTestShared(t)

	resp := sh.handle(Request{ID: 1, Op: OpExecute, SQL: "CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(50) UNIQUE)"})
	require.Empty(t, resp.Error)

	resp = sh.handle(Request{ID: 2, Op: OpInsert, Table: "users", Fields: map[string]any{"id": 1, "name": "alice"}})
	require.Empty(t, resp.Error)
	assert.Equal(t, int64(1), resp.Result.AffectedRows)

	resp = sh.handle(Request{ID: 3, Op: OpTables})
	require.Len(t, resp.Tables, 1)
	ti := resp.Tables[0]
	assert.Equal(t, "users", ti.Name)
	assert.Equal(t, "id", ti.PrimaryKey)
	assert.Equal(t, []string{"name"}, ti.UniqueColumns)
	assert.Equal(t, 1, ti.RowCount)

	resp = sh.handle(Request{ID: 4, Op: OpSchema, Table: "users"})
	require.Len(t, resp.Tables, 1)
	require.Len(t, resp.Tables[0].Columns, 2)
}

func TestHandle_Errors(t *testing.T) {
	sh := newTestShared(t)

	resp := sh.handle(Request{ID: 1, Op: OpExecute, SQL: "SELECT * FROM nope"})
	assert.NotEmpty(t, resp.Error)

	resp = sh.handle(Request{ID: 2, Op: OpSchema, Table: "nope"})
	assert.NotEmpty(t, resp.Error)

	resp = sh.handle(Request{ID: 3, Op: "bogus"})
	assert.Contains(t, resp.Error, "unknown op")
}
