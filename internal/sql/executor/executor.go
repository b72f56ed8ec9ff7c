package executor

import (
	"fmt"
	"sort"

	"github.com/minhpq/microsql/internal/catalog"
	"github.com/minhpq/microsql/internal/engine"
	"github.com/minhpq/microsql/internal/record"
	"github.com/minhpq/microsql/internal/sql/parser"
	"github.com/minhpq/microsql/internal/sql/planner"
	"github.com/minhpq/microsql/internal/value"
)

// engineDB is a small seam for unit-testing Executor without a real database.
type engineDB interface {
	Catalog() *catalog.Catalog
	CreateTable(name string, schema record.Schema, primaryKey string, uniques []string) error
	AppendRow(table string, row record.Row) error
	Rows(table string) ([]record.Row, error)
	UpdateRows(table string, set record.Row, match func(record.Row) bool) (int, error)
	DeleteRows(table string, match func(record.Row) bool) (int, error)
	Schema(table string) ([]record.Column, error)
}

var _ engineDB = (*engine.Database)(nil)

// Executor runs parsed statements against a Database. It holds no state of
// its own; all mutation goes through the engine, which persists after every
// mutating statement.
type Executor struct {
	DB engineDB
}

func NewExecutor(db *engine.Database) *Executor {
	return &Executor{DB: db}
}

// ExecSQL is the top-level entry: statement text in, Result out.
func (e *Executor) ExecSQL(sql string) (*Result, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	plan, err := planner.BuildPlan(stmt, e.DB.Catalog())
	if err != nil {
		return nil, err
	}
	return e.execPlan(plan)
}

func (e *Executor) execPlan(p planner.Plan) (*Result, error) {
	switch plan := p.(type) {
	case *planner.CreateTablePlan:
		return e.execCreateTable(plan)
	case *planner.InsertPlan:
		return e.execInsert(plan)
	case *planner.SeqScanPlan:
		return e.execSeqScan(plan)
	case *planner.JoinPlan:
		return e.execJoin(plan)
	case *planner.UpdatePlan:
		return e.execUpdate(plan)
	case *planner.DeletePlan:
		return e.execDelete(plan)
	default:
		return nil, fmt.Errorf("executor: unsupported plan type %T", p)
	}
}

func (e *Executor) execCreateTable(p *planner.CreateTablePlan) (*Result, error) {
	if err := e.DB.CreateTable(p.TableName, p.Schema, p.PrimaryKey, p.Uniques); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (e *Executor) execInsert(p *planner.InsertPlan) (*Result, error) {
	if err := e.DB.AppendRow(p.TableName, p.Row); err != nil {
		return nil, err
	}
	return &Result{AffectedRows: 1}, nil
}

func (e *Executor) execSeqScan(p *planner.SeqScanPlan) (*Result, error) {
	rows, err := e.DB.Rows(p.TableName)
	if err != nil {
		return nil, err
	}

	// Filter, then sort, then truncate; strictly in that order.
	rows = filterRows(rows, p.Filter)
	rows = orderRows(rows, p.OrderBy)
	rows = limitRows(rows, p.Limit)

	cols, err := e.DB.Schema(p.TableName)
	if err != nil {
		return nil, err
	}
	return &Result{
		Columns:      columnNames(cols, ""),
		Rows:         rows,
		AffectedRows: int64(len(rows)),
	}, nil
}

func (e *Executor) execJoin(p *planner.JoinPlan) (*Result, error) {
	mainRows, err := e.DB.Rows(p.MainTable)
	if err != nil {
		return nil, err
	}
	joinedRows, err := e.DB.Rows(p.JoinedTable)
	if err != nil {
		return nil, err
	}
	joinedCols, err := e.DB.Schema(p.JoinedTable)
	if err != nil {
		return nil, err
	}

	var out []record.Row
	for _, m := range mainRows {
		matched := false
		for _, j := range joinedRows {
			if value.Equal(m.Get(p.MainField), j.Get(p.JoinedField)) {
				out = append(out, mergeJoinRow(p.MainTable, m, p.JoinedTable, j, nil))
				matched = true
			}
		}
		// LEFT emits unmatched main rows once, joined fields all NULL.
		if !matched && p.Left {
			out = append(out, mergeJoinRow(p.MainTable, m, p.JoinedTable, nil, joinedCols))
		}
	}

	out = filterRows(out, p.Filter)
	out = orderRows(out, p.OrderBy)
	out = limitRows(out, p.Limit)

	mainCols, err := e.DB.Schema(p.MainTable)
	if err != nil {
		return nil, err
	}
	columns := append(columnNames(mainCols, p.MainTable), columnNames(joinedCols, p.JoinedTable)...)
	return &Result{
		Columns:      columns,
		Rows:         out,
		AffectedRows: int64(len(out)),
	}, nil
}

func (e *Executor) execUpdate(p *planner.UpdatePlan) (*Result, error) {
	n, err := e.DB.UpdateRows(p.TableName, p.Set, matchFunc(p.Filter))
	if err != nil {
		return nil, err
	}
	return &Result{AffectedRows: int64(n)}, nil
}

func (e *Executor) execDelete(p *planner.DeletePlan) (*Result, error) {
	n, err := e.DB.DeleteRows(p.TableName, matchFunc(p.Filter))
	if err != nil {
		return nil, err
	}
	return &Result{AffectedRows: int64(n)}, nil
}

// ----- row pipeline helpers -----

func matchFunc(pred *planner.Predicate) func(record.Row) bool {
	if pred == nil {
		return nil
	}
	return pred.Matches
}

func filterRows(rows []record.Row, pred *planner.Predicate) []record.Row {
	if pred == nil {
		return rows
	}
	filtered := rows[:0:0]
	for _, row := range rows {
		if pred.Matches(row) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// orderRows sorts stably by one column. A row missing the column sorts as
// empty text; if any pair fails to compare, the input order is returned
// unchanged instead of erroring.
func orderRows(rows []record.Row, ord *planner.Order) []record.Row {
	if ord == nil || len(rows) < 2 {
		return rows
	}

	sorted := make([]record.Row, len(rows))
	copy(sorted, rows)

	failed := false
	sort.SliceStable(sorted, func(i, j int) bool {
		cmp, ok := value.Compare(sortKey(sorted[i], ord.Column), sortKey(sorted[j], ord.Column))
		if !ok {
			failed = true
			return false
		}
		if ord.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
	if failed {
		return rows
	}
	return sorted
}

func sortKey(row record.Row, col string) value.Value {
	if v, ok := row[col]; ok {
		return v
	}
	return value.NewText("")
}

func limitRows(rows []record.Row, limit int) []record.Row {
	if limit >= 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

// mergeJoinRow builds a merged row keyed "table.column". A nil joined row
// fills the joined table's schema columns with NULL.
func mergeJoinRow(mainTable string, m record.Row, joinedTable string, j record.Row, joinedCols []record.Column) record.Row {
	merged := make(record.Row, len(m)+len(j)+len(joinedCols))
	for k, v := range m {
		merged[mainTable+"."+k] = v
	}
	if j != nil {
		for k, v := range j {
			merged[joinedTable+"."+k] = v
		}
		return merged
	}
	for _, c := range joinedCols {
		merged[joinedTable+"."+c.Name] = value.Null()
	}
	return merged
}

func columnNames(cols []record.Column, prefix string) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		if prefix != "" {
			names[i] = prefix + "." + c.Name
		} else {
			names[i] = c.Name
		}
	}
	return names
}
