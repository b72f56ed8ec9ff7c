package planner

import (
	"fmt"
	"strconv"

	"github.com/minhpq/microsql/internal/catalog"
	"github.com/minhpq/microsql/internal/record"
	"github.com/minhpq/microsql/internal/sql/parser"
	"github.com/minhpq/microsql/internal/value"
)

// BuildPlan turns an AST statement into an executable plan, coercing every
// literal through the value grammar and the catalog's declared type tags.
func BuildPlan(stmt parser.Statement, cat *catalog.Catalog) (Plan, error) {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		return buildCreateTablePlan(s)
	case *parser.InsertStmt:
		return buildInsertPlan(s, cat)
	case *parser.SelectStmt:
		return buildSelectPlan(s)
	case *parser.UpdateStmt:
		return buildUpdatePlan(s, cat)
	case *parser.DeleteStmt:
		return buildDeletePlan(s)
	default:
		return nil, fmt.Errorf("planner: unsupported statement type %T", stmt)
	}
}

func buildCreateTablePlan(s *parser.CreateTableStmt) (Plan, error) {
	var cols []record.Column
	for _, c := range s.Columns {
		cols = append(cols, record.Column{Name: c.Name, Type: c.Type})
	}
	return &CreateTablePlan{
		TableName:  s.TableName,
		Schema:     record.Schema{Cols: cols},
		PrimaryKey: s.PrimaryKey,
		Uniques:    s.Uniques,
	}, nil
}

func buildInsertPlan(s *parser.InsertStmt, cat *catalog.Catalog) (Plan, error) {
	schema, err := cat.Schema(s.TableName)
	if err != nil {
		return nil, err
	}

	columns := s.Columns
	if len(columns) == 0 {
		columns = schema.Names()
	}

	// Positional pairing; the shorter of the two lists wins and the rest is
	// dropped silently.
	n := len(columns)
	if len(s.Values) < n {
		n = len(s.Values)
	}

	row := make(record.Row, n)
	for i := 0; i < n; i++ {
		col := columns[i]
		row[col] = literalValue(s.Values[i], schema.TypeOf(col))
	}
	return &InsertPlan{TableName: s.TableName, Row: row}, nil
}

func buildSelectPlan(s *parser.SelectStmt) (Plan, error) {
	filter := buildPredicate(s.Where)
	order := buildOrder(s.OrderBy)

	if s.Join == nil {
		return &SeqScanPlan{
			TableName: s.TableName,
			Filter:    filter,
			OrderBy:   order,
			Limit:     s.Limit,
		}, nil
	}

	mainField, joinedField, err := resolveJoinFields(s)
	if err != nil {
		return nil, err
	}
	return &JoinPlan{
		MainTable:   s.TableName,
		JoinedTable: s.Join.TableName,
		Left:        s.Join.Left,
		MainField:   mainField,
		JoinedField: joinedField,
		Filter:      filter,
		OrderBy:     order,
		Limit:       s.Limit,
	}, nil
}

// resolveJoinFields matches the two ON operands to the main and joined
// tables; the operands may appear in either order.
func resolveJoinFields(s *parser.SelectStmt) (string, string, error) {
	l, r := s.Join.LeftRef, s.Join.RightRef
	switch {
	case l.Table == s.TableName && r.Table == s.Join.TableName:
		return l.Column, r.Column, nil
	case l.Table == s.Join.TableName && r.Table == s.TableName:
		return r.Column, l.Column, nil
	default:
		return "", "", fmt.Errorf("%w: ON references %s.%s and %s.%s, want tables %s and %s",
			parser.ErrMalformedStatement, l.Table, l.Column, r.Table, r.Column,
			s.TableName, s.Join.TableName)
	}
}

func buildUpdatePlan(s *parser.UpdateStmt, cat *catalog.Catalog) (Plan, error) {
	schema, err := cat.Schema(s.TableName)
	if err != nil {
		return nil, err
	}

	set := make(record.Row, len(s.Assignments))
	for _, a := range s.Assignments {
		set[a.Column] = literalValue(a.Value, schema.TypeOf(a.Column))
	}
	return &UpdatePlan{
		TableName: s.TableName,
		Set:       set,
		Filter:    buildPredicate(s.Where),
	}, nil
}

func buildDeletePlan(s *parser.DeleteStmt) (Plan, error) {
	return &DeletePlan{
		TableName: s.TableName,
		Filter:    buildPredicate(s.Where),
	}, nil
}

func buildPredicate(w *parser.WhereClause) *Predicate {
	if w == nil {
		return nil
	}
	if w.Op == "" {
		return &Predicate{}
	}
	return &Predicate{
		Column: w.Column,
		Op:     w.Op,
		Value:  predicateValue(w.Value),
	}
}

func buildOrder(o *parser.OrderClause) *Order {
	if o == nil {
		return nil
	}
	return &Order{Column: o.Column, Desc: o.Desc}
}

// literalValue coerces an INSERT/UPDATE literal: keywords and quoted text
// map directly, a bare token becomes INT only when the destination type tag
// selects integer coercion.
func literalValue(lit parser.Literal, tag string) value.Value {
	switch lit.Kind {
	case parser.LitNull:
		return value.Null()
	case parser.LitBool:
		return value.NewBool(lit.Bool)
	case parser.LitText:
		return value.NewText(lit.Text)
	default:
		return value.CoerceToken(lit.Text, tag)
	}
}

// predicateValue coerces a WHERE literal. The right side has no destination
// column, so an unquoted token that parses as an integer is INT.
func predicateValue(lit parser.Literal) value.Value {
	switch lit.Kind {
	case parser.LitNull:
		return value.Null()
	case parser.LitBool:
		return value.NewBool(lit.Bool)
	case parser.LitText:
		return value.NewText(lit.Text)
	default:
		if i, err := strconv.ParseInt(lit.Text, 10, 64); err == nil {
			return value.NewInt(i)
		}
		return value.NewText(lit.Text)
	}
}
