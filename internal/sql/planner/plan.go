package planner

import (
	"github.com/minhpq/microsql/internal/record"
	"github.com/minhpq/microsql/internal/value"
)

// Plan is the interface for executable plans.
type Plan interface {
	planNode()
}

// Predicate is the single binary comparison, typed once at plan time from
// the literal grammar instead of re-guessed per row. An empty Op matches
// every row.
type Predicate struct {
	Column string
	Op     string
	Value  value.Value
}

// Matches evaluates the predicate against a row. Rows whose value cannot be
// meaningfully compared with the literal are excluded rather than erroring.
func (p *Predicate) Matches(row record.Row) bool {
	if p == nil || p.Op == "" {
		return true
	}
	lhs := row.Get(p.Column)
	switch p.Op {
	case "=":
		return value.Equal(lhs, p.Value)
	case "!=":
		return !value.Equal(lhs, p.Value)
	}
	cmp, ok := value.Compare(lhs, p.Value)
	if !ok {
		return false
	}
	switch p.Op {
	case "<":
		return cmp < 0
	case ">":
		return cmp > 0
	case "<=":
		return cmp <= 0
	case ">=":
		return cmp >= 0
	}
	return false
}

// Order describes the ORDER BY clause.
type Order struct {
	Column string
	Desc   bool
}

// ----- Plan nodes -----

type CreateTablePlan struct {
	TableName  string
	Schema     record.Schema
	PrimaryKey string
	Uniques    []string
}

func (*CreateTablePlan) planNode() {}

type InsertPlan struct {
	TableName string
	Row       record.Row // literals already coerced against the schema
}

func (*InsertPlan) planNode() {}

type SeqScanPlan struct {
	TableName string
	Filter    *Predicate
	OrderBy   *Order
	Limit     int // -1 when absent
}

func (*SeqScanPlan) planNode() {}

// JoinPlan is the restricted two-table equality join. Merged rows are keyed
// "table.column"; trailing clauses apply to the merged sequence.
type JoinPlan struct {
	MainTable   string
	JoinedTable string
	Left        bool
	MainField   string // column on the main table
	JoinedField string // column on the joined table
	Filter      *Predicate
	OrderBy     *Order
	Limit       int
}

func (*JoinPlan) planNode() {}

type UpdatePlan struct {
	TableName string
	Set       record.Row // assignments coerced against the schema
	Filter    *Predicate
}

func (*UpdatePlan) planNode() {}

type DeletePlan struct {
	TableName string
	Filter    *Predicate
}

func (*DeletePlan) planNode() {}
