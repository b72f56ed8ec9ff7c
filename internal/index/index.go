package index

import (
	"github.com/minhpq/microsql/internal/record"
	"github.com/minhpq/microsql/internal/value"
)

// Index maps column values to row positions for one (table, column) pair.
// Only primary-key and unique columns are indexed, so at most one position
// exists per value. NULLs are never indexed.
type Index struct {
	Column string
	pos    map[value.Value]int
}

func New(column string) *Index {
	return &Index{Column: column, pos: make(map[value.Value]int)}
}

// Put records the position of a value. NULL values are skipped; constraints
// only bind non-null values.
func (ix *Index) Put(v value.Value, pos int) {
	if v.IsNull() {
		return
	}
	ix.pos[v] = pos
}

// Lookup returns the position holding the value, if any. TEXT renderings of
// integers are aligned with their INT form before probing, mirroring the
// comparison coercion.
func (ix *Index) Lookup(v value.Value) (int, bool) {
	if v.IsNull() {
		return 0, false
	}
	if p, ok := ix.pos[v]; ok {
		return p, true
	}
	for stored, p := range ix.pos {
		if value.Equal(stored, v) {
			return p, true
		}
	}
	return 0, false
}

func (ix *Index) Len() int { return len(ix.pos) }

// Rebuild repopulates the index from a row sequence, replacing all entries.
func (ix *Index) Rebuild(rows []record.Row) {
	ix.pos = make(map[value.Value]int, len(rows))
	for i, row := range rows {
		ix.Put(row.Get(ix.Column), i)
	}
}

// Set holds the indexes of every table, keyed table name then column name.
type Set map[string]map[string]*Index

func NewSet() Set { return make(Set) }

// EnsureTable allocates empty indexes for the given columns of a table.
func (s Set) EnsureTable(table string, columns []string) {
	byCol, ok := s[table]
	if !ok {
		byCol = make(map[string]*Index)
		s[table] = byCol
	}
	for _, col := range columns {
		if _, ok := byCol[col]; !ok {
			byCol[col] = New(col)
		}
	}
}

// Table returns the indexes of a table, keyed by column.
func (s Set) Table(table string) map[string]*Index {
	return s[table]
}

// RebuildTable refreshes every index of a table from its current rows.
func (s Set) RebuildTable(table string, rows []record.Row) {
	for _, ix := range s[table] {
		ix.Rebuild(rows)
	}
}
