package engine

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhpq/microsql/internal/catalog"
	"github.com/minhpq/microsql/internal/record"
	"github.com/minhpq/microsql/internal/value"
)

func usersSchema() record.Schema {
	return record.Schema{Cols: []record.Column{
		{Name: "id", Type: "INT"},
		{Name: "username", Type: "VARCHAR(50)"},
		{Name: "age", Type: "INT"},
	}}
}

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(t.TempDir(), "testdb")
	require.NoError(t, err)
	return db
}

func TestCreateTable_Duplicate(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.CreateTable("users", usersSchema(), "id", []string{"username"}))

	err := db.CreateTable("users", usersSchema(), "", nil)
	require.ErrorIs(t, err, catalog.ErrDuplicateTable)
}

func TestAppendRow_PrimaryKeyViolation(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.CreateTable("users", usersSchema(), "id", nil))

	require.NoError(t, db.AppendRow("users", record.Row{
		"id": value.NewInt(1), "username": value.NewText("alice"),
	}))

	err := db.AppendRow("users", record.Row{
		"id": value.NewInt(1), "username": value.NewText("bob"),
	})
	require.ErrorIs(t, err, ErrPrimaryKeyViolation)

	// the rejected insert left the table unchanged
	rows, err := db.Rows("users")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, value.NewText("alice"), rows[0].Get("username"))
}

func TestAppendRow_UniqueViolation(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.CreateTable("users", usersSchema(), "id", []string{"username"}))

	require.NoError(t, db.AppendRow("users", record.Row{
		"id": value.NewInt(1), "username": value.NewText("alice"),
	}))

	err := db.AppendRow("users", record.Row{
		"id": value.NewInt(2), "username": value.NewText("alice"),
	})
	require.ErrorIs(t, err, ErrUniqueViolation)
}

func TestAppendRow_NullKeysNotConstrained(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.CreateTable("users", usersSchema(), "id", []string{"username"}))

	// two NULL primary keys and two NULL uniques coexist
	require.NoError(t, db.AppendRow("users", record.Row{"id": value.Null(), "username": value.Null()}))
	require.NoError(t, db.AppendRow("users", record.Row{"id": value.Null(), "username": value.Null()}))

	rows, err := db.Rows("users")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestInsertRow_CoercionAndConstraints(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.CreateTable("users", usersSchema(), "id", nil))

	require.NoError(t, db.InsertRow("users", map[string]any{
		"id": "1", "username": "alice", "age": 25,
	}))

	rows, err := db.Rows("users")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// "1" coerced through the INT tag
	assert.Equal(t, value.NewInt(1), rows[0].Get("id"))
	assert.Equal(t, value.NewInt(25), rows[0].Get("age"))

	err = db.InsertRow("users", map[string]any{"id": 1, "username": "bob"})
	require.ErrorIs(t, err, ErrPrimaryKeyViolation)
}

func TestInsertRow_UnknownTable(t *testing.T) {
	db := openTestDB(t)
	err := db.InsertRow("nope", map[string]any{"id": 1})
	require.ErrorIs(t, err, catalog.ErrUnknownTable)
}

func TestUpdateRows_Filtered(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.CreateTable("users", usersSchema(), "id", nil))
	require.NoError(t, db.AppendRow("users", record.Row{"id": value.NewInt(1), "age": value.NewInt(20)}))
	require.NoError(t, db.AppendRow("users", record.Row{"id": value.NewInt(2), "age": value.NewInt(30)}))

	n, err := db.UpdateRows("users", record.Row{"age": value.NewInt(99)}, func(r record.Row) bool {
		return value.Equal(r.Get("id"), value.NewInt(2))
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, _ := db.Rows("users")
	assert.Equal(t, value.NewInt(20), rows[0].Get("age"))
	assert.Equal(t, value.NewInt(99), rows[1].Get("age"))
}

func TestDeleteRows_RefreshesIndexes(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.CreateTable("users", usersSchema(), "id", nil))
	require.NoError(t, db.AppendRow("users", record.Row{"id": value.NewInt(1)}))
	require.NoError(t, db.AppendRow("users", record.Row{"id": value.NewInt(2)}))

	n, err := db.DeleteRows("users", func(r record.Row) bool {
		return value.Equal(r.Get("id"), value.NewInt(1))
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// the freed key is insertable again
	require.NoError(t, db.AppendRow("users", record.Row{"id": value.NewInt(1)}))
}

func TestDeleteRows_All(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.CreateTable("users", usersSchema(), "", nil))
	require.NoError(t, db.AppendRow("users", record.Row{"id": value.NewInt(1)}))
	require.NoError(t, db.AppendRow("users", record.Row{"id": value.NewInt(2)}))

	n, err := db.DeleteRows("users", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, db.RowCount("users"))
}

func TestReopen_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir, "app")
	require.NoError(t, err)
	require.NoError(t, db.CreateTable("users", usersSchema(), "id", []string{"username"}))
	require.NoError(t, db.AppendRow("users", record.Row{
		"id": value.NewInt(1), "username": value.NewText("alice"), "age": value.Null(),
	}))
	require.NoError(t, db.CreateTable("posts", record.Schema{Cols: []record.Column{
		{Name: "id", Type: "INT"},
		{Name: "user_id", Type: "INT"},
	}}, "", nil))

	reopened, err := Open(dir, "app")
	require.NoError(t, err)

	assert.Equal(t, []string{"posts", "users"}, reopened.TableNames())
	cols, err := reopened.Schema("users")
	require.NoError(t, err)
	assert.Equal(t, usersSchema().Cols, cols)
	assert.Equal(t, "id", reopened.PrimaryKey("users"))
	assert.Equal(t, []string{"username"}, reopened.UniqueColumns("users"))
	assert.Equal(t, 1, reopened.RowCount("users"))

	rows, err := reopened.Rows("users")
	require.NoError(t, err)
	assert.Equal(t, value.NewText("alice"), rows[0].Get("username"))
	assert.Equal(t, value.Null(), rows[0].Get("age"))

	// indexes are rebuilt from loaded rows: duplicates are still rejected
	err = reopened.AppendRow("users", record.Row{"id": value.NewInt(1)})
	require.ErrorIs(t, err, ErrPrimaryKeyViolation)
}

func TestOpen_MalformedSnapshotStartsEmpty(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir, "app")
	require.NoError(t, err)
	require.NoError(t, db.CreateTable("users", usersSchema(), "id", nil))

	// corrupt the snapshot behind the engine's back
	require.NoError(t, os.WriteFile(db.SnapshotPath(), []byte("{broken"), 0o644))

	reopened, err := Open(dir, "app")
	require.NoError(t, err)
	assert.Empty(t, reopened.TableNames())
}

func TestEnsureTable(t *testing.T) {
	db := openTestDB(t)

	created, err := db.EnsureTable("users", usersSchema(), "id", nil)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = db.EnsureTable("users", record.Schema{}, "", nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "id", db.PrimaryKey("users"))
}

func TestRows_CopiesAreIsolated(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.CreateTable("users", usersSchema(), "", nil))
	require.NoError(t, db.AppendRow("users", record.Row{"id": value.NewInt(1)}))

	rows, err := db.Rows("users")
	require.NoError(t, err)
	rows[0]["id"] = value.NewInt(999)

	again, err := db.Rows("users")
	require.NoError(t, err)
	assert.Equal(t, value.NewInt(1), again[0].Get("id"))
}
