package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhpq/microsql/internal/catalog"
	"github.com/minhpq/microsql/internal/record"
	"github.com/minhpq/microsql/internal/sql/parser"
	"github.com/minhpq/microsql/internal/value"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	require.NoError(t, c.CreateTable("users", record.Schema{Cols: []record.Column{
		{Name: "id", Type: "INT"},
		{Name: "username", Type: "VARCHAR(50)"},
		{Name: "age", Type: "INT"},
	}}, "id", []string{"username"}))
	return c
}

func mustPlan(t *testing.T, sql string, cat *catalog.Catalog) Plan {
	t.Helper()
	stmt, err := parser.Parse(sql)
	require.NoError(t, err)
	plan, err := BuildPlan(stmt, cat)
	require.NoError(t, err)
	return plan
}

func TestBuildCreateTable(t *testing.T) {
	plan := mustPlan(t, "CREATE TABLE posts (id INT PRIMARY KEY, title VARCHAR(200) UNIQUE)", catalog.New())

	p, ok := plan.(*CreateTablePlan)
	require.True(t, ok, "want *CreateTablePlan, got %T", plan)
	assert.Equal(t, "posts", p.TableName)
	assert.Equal(t, "id", p.PrimaryKey)
	assert.Equal(t, []string{"title"}, p.Uniques)
	assert.Equal(t, []string{"id", "title"}, p.Schema.Names())
}

func TestBuildInsert_SchemaDrivenCoercion(t *testing.T) {
	plan := mustPlan(t, "INSERT INTO users (id, username, age) VALUES (1, 'alice', 25)", testCatalog(t))

	p := plan.(*InsertPlan)
	assert.Equal(t, value.NewInt(1), p.Row["id"])
	assert.Equal(t, value.NewText("alice"), p.Row["username"])
	assert.Equal(t, value.NewInt(25), p.Row["age"])
}

func TestBuildInsert_BareTokenToNonIntColumn(t *testing.T) {
	plan := mustPlan(t, "INSERT INTO users (username) VALUES (123)", testCatalog(t))

	// destination tag VARCHAR(50) has no INT, so the bare token stays text
	p := plan.(*InsertPlan)
	assert.Equal(t, value.NewText("123"), p.Row["username"])
}

func TestBuildInsert_FullSchemaOrder(t *testing.T) {
	plan := mustPlan(t, "INSERT INTO users VALUES (2, 'bob', 30)", testCatalog(t))

	p := plan.(*InsertPlan)
	require.Len(t, p.Row, 3)
	assert.Equal(t, value.NewInt(2), p.Row["id"])
	assert.Equal(t, value.NewText("bob"), p.Row["username"])
	assert.Equal(t, value.NewInt(30), p.Row["age"])
}

func TestBuildInsert_ShorterListTruncates(t *testing.T) {
	plan := mustPlan(t, "INSERT INTO users VALUES (3)", testCatalog(t))

	p := plan.(*InsertPlan)
	require.Len(t, p.Row, 1)
	assert.Equal(t, value.NewInt(3), p.Row["id"])
}

func TestBuildInsert_UnknownTable(t *testing.T) {
	stmt, err := parser.Parse("INSERT INTO nope VALUES (1)")
	require.NoError(t, err)
	_, err = BuildPlan(stmt, catalog.New())
	require.ErrorIs(t, err, catalog.ErrUnknownTable)
}

func TestBuildSelect_PredicateTyping(t *testing.T) {
	plan := mustPlan(t, "SELECT * FROM users WHERE age > 20", testCatalog(t))

	p := plan.(*SeqScanPlan)
	require.NotNil(t, p.Filter)
	assert.Equal(t, "age", p.Filter.Column)
	assert.Equal(t, ">", p.Filter.Op)
	// unquoted integer right side types as INT
	assert.Equal(t, value.NewInt(20), p.Filter.Value)
}

func TestBuildSelect_QuotedPredicateStaysText(t *testing.T) {
	plan := mustPlan(t, "SELECT * FROM users WHERE username = '42'", testCatalog(t))

	p := plan.(*SeqScanPlan)
	assert.Equal(t, value.NewText("42"), p.Filter.Value)
}

func TestBuildJoin_FieldResolution(t *testing.T) {
	cat := testCatalog(t)
	require.NoError(t, cat.CreateTable("posts", record.Schema{Cols: []record.Column{
		{Name: "id", Type: "INT"},
		{Name: "user_id", Type: "INT"},
	}}, "", nil))

	plan := mustPlan(t, "SELECT * FROM users JOIN posts ON users.id = posts.user_id", cat)
	p := plan.(*JoinPlan)
	assert.Equal(t, "id", p.MainField)
	assert.Equal(t, "user_id", p.JoinedField)

	// reversed operand order resolves the same way
	plan = mustPlan(t, "SELECT * FROM users JOIN posts ON posts.user_id = users.id", cat)
	p = plan.(*JoinPlan)
	assert.Equal(t, "id", p.MainField)
	assert.Equal(t, "user_id", p.JoinedField)
}

func TestBuildJoin_WrongTables(t *testing.T) {
	stmt, err := parser.Parse("SELECT * FROM users JOIN posts ON users.id = comments.user_id")
	require.NoError(t, err)
	_, err = BuildPlan(stmt, testCatalog(t))
	require.ErrorIs(t, err, parser.ErrMalformedStatement)
}

func TestBuildUpdate(t *testing.T) {
	plan := mustPlan(t, "UPDATE users SET age = 40, username = 'carol' WHERE id = 1", testCatalog(t))

	p := plan.(*UpdatePlan)
	assert.Equal(t, value.NewInt(40), p.Set["age"])
	assert.Equal(t, value.NewText("carol"), p.Set["username"])
	require.NotNil(t, p.Filter)
	assert.Equal(t, value.NewInt(1), p.Filter.Value)
}

func TestPredicateMatches(t *testing.T) {
	row := record.Row{"age": value.NewInt(25), "name": value.NewText("bo")}

	assert.True(t, (&Predicate{Column: "age", Op: ">", Value: value.NewInt(20)}).Matches(row))
	assert.False(t, (&Predicate{Column: "age", Op: "<=", Value: value.NewInt(20)}).Matches(row))
	assert.True(t, (&Predicate{Column: "name", Op: "!=", Value: value.NewText("al")}).Matches(row))

	// match-all predicate (clause had no recognized operator)
	assert.True(t, (&Predicate{}).Matches(row))
	var nilPred *Predicate
	assert.True(t, nilPred.Matches(row))
}

func TestPredicateMatches_Excluded(t *testing.T) {
	row := record.Row{"age": value.Null()}

	// NULL cannot be ordered; the row is excluded, not an error
	assert.False(t, (&Predicate{Column: "age", Op: ">", Value: value.NewInt(1)}).Matches(row))
	// missing column reads as NULL and equals a NULL literal
	assert.True(t, (&Predicate{Column: "gone", Op: "=", Value: value.Null()}).Matches(row))
}
