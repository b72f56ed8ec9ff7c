package parser

// Statement is the root interface for all parsed statements.
type Statement interface {
	stmtNode()
}

// LiteralKind tags the untyped literal grammar: NULL/TRUE/FALSE keywords, a
// single-quoted text span, or a bare token whose final type depends on the
// destination column.
type LiteralKind uint8

const (
	LitNull LiteralKind = iota
	LitBool
	LitText
	LitBare
)

// Literal is a statement literal before schema-driven coercion.
type Literal struct {
	Kind LiteralKind
	Bool bool
	Text string // quoted content for LitText, raw token for LitBare
}

// ----- CREATE TABLE -----

type ColumnDef struct {
	Name string
	Type string // opaque tag, e.g. "INT", "VARCHAR(50)"
}

type CreateTableStmt struct {
	TableName  string
	Columns    []ColumnDef
	PrimaryKey string   // "" when none declared
	Uniques    []string // declared-unique columns, in definition order
}

func (*CreateTableStmt) stmtNode() {}

// ----- INSERT -----

type InsertStmt struct {
	TableName string
	Columns   []string // nil means full schema order
	Values    []Literal
}

func (*InsertStmt) stmtNode() {}

// ----- SELECT -----

// WhereClause is the single binary predicate. An empty Op means the clause
// text held no recognized operator; such a predicate matches every row.
type WhereClause struct {
	Column string
	Op     string // one of != <= >= = < >, or ""
	Value  Literal
}

type OrderClause struct {
	Column string
	Desc   bool
}

// FieldRef is a table-qualified column reference in a join condition.
type FieldRef struct {
	Table  string
	Column string
}

// JoinClause describes the restricted two-table equality join.
type JoinClause struct {
	TableName string
	Left      bool // LEFT join; false means INNER
	LeftRef   FieldRef
	RightRef  FieldRef
}

type SelectStmt struct {
	TableName string
	Join      *JoinClause
	Where     *WhereClause
	OrderBy   *OrderClause
	Limit     int // -1 when absent
}

func (*SelectStmt) stmtNode() {}

// ----- UPDATE -----

type Assignment struct {
	Column string
	Value  Literal
}

type UpdateStmt struct {
	TableName   string
	Assignments []Assignment
	Where       *WhereClause
}

func (*UpdateStmt) stmtNode() {}

// ----- DELETE -----

type DeleteStmt struct {
	TableName string
	Where     *WhereClause
}

func (*DeleteStmt) stmtNode() {}
