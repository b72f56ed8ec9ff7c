package record

import (
	"encoding/json"
	"sort"

	"github.com/minhpq/microsql/internal/value"
)

// Column is one schema entry: a name and an opaque declared type tag
// ("INT", "VARCHAR(50)", ...). Tags are matched by substring only; there is
// no length or precision enforcement.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema is the ordered column list of one table.
type Schema struct {
	Cols []Column
}

func (s Schema) NumCols() int { return len(s.Cols) }

// Names returns the column names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Cols))
	for i, c := range s.Cols {
		names[i] = c.Name
	}
	return names
}

// TypeOf returns the declared type tag for a column, or "" when the column
// is not part of the schema.
func (s Schema) TypeOf(name string) string {
	for _, c := range s.Cols {
		if c.Name == name {
			return c.Type
		}
	}
	return ""
}

func (s Schema) Has(name string) bool {
	for _, c := range s.Cols {
		if c.Name == name {
			return true
		}
	}
	return false
}

// MarshalJSON writes the schema as an ordered array of columns so that
// declaration order survives the snapshot round trip.
func (s Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Cols)
}

// UnmarshalJSON accepts the ordered array form, and, permissively, a plain
// name->type object (order then falls back to sorted names).
func (s *Schema) UnmarshalJSON(data []byte) error {
	var cols []Column
	if err := json.Unmarshal(data, &cols); err == nil {
		s.Cols = cols
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	s.Cols = s.Cols[:0]
	for _, n := range names {
		s.Cols = append(s.Cols, Column{Name: n, Type: m[n]})
	}
	return nil
}

// Row maps column names to typed values. Rows carry no identity beyond
// their position in the table and their constrained-column values.
type Row map[string]value.Value

// Clone returns a shallow copy; values are immutable so this is a full copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Get returns the value for a column, or NULL when the row has no entry.
func (r Row) Get(name string) value.Value {
	if v, ok := r[name]; ok {
		return v
	}
	return value.Null()
}
