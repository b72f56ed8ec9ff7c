package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/minhpq/microsql/internal/record"
)

var (
	ErrDuplicateTable = errors.New("microsql: table already exists")
	ErrUnknownTable   = errors.New("microsql: unknown table")
)

// Catalog is the registry of table schemas, primary keys and unique-column
// sets. Row data lives in the engine; the catalog only describes shape and
// constraints.
type Catalog struct {
	schemas       map[string]record.Schema
	primaryKeys   map[string]string
	uniqueColumns map[string][]string
}

func New() *Catalog {
	return &Catalog{
		schemas:       make(map[string]record.Schema),
		primaryKeys:   make(map[string]string),
		uniqueColumns: make(map[string][]string),
	}
}

// CreateTable registers a table. The name must be unused.
func (c *Catalog) CreateTable(name string, schema record.Schema, primaryKey string, uniques []string) error {
	if _, ok := c.schemas[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTable, name)
	}
	c.install(name, schema, primaryKey, uniques)
	return nil
}

// EnsureTable registers a table if absent. It reports whether the table was
// created; an existing table is left untouched, whatever its schema.
func (c *Catalog) EnsureTable(name string, schema record.Schema, primaryKey string, uniques []string) bool {
	if _, ok := c.schemas[name]; ok {
		return false
	}
	c.install(name, schema, primaryKey, uniques)
	return true
}

func (c *Catalog) install(name string, schema record.Schema, primaryKey string, uniques []string) {
	c.schemas[name] = schema
	if primaryKey != "" {
		c.primaryKeys[name] = primaryKey
	}
	if len(uniques) > 0 {
		c.uniqueColumns[name] = append([]string(nil), uniques...)
	}
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.schemas[name]
	return ok
}

func (c *Catalog) Schema(name string) (record.Schema, error) {
	s, ok := c.schemas[name]
	if !ok {
		return record.Schema{}, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return s, nil
}

// PrimaryKey returns the primary-key column of a table, or "" when none is
// declared.
func (c *Catalog) PrimaryKey(name string) string {
	return c.primaryKeys[name]
}

// UniqueColumns returns the declared-unique columns of a table.
func (c *Catalog) UniqueColumns(name string) []string {
	return c.uniqueColumns[name]
}

// ConstrainedColumns returns the primary-key column followed by the unique
// columns, deduplicated. These are exactly the indexed columns.
func (c *Catalog) ConstrainedColumns(name string) []string {
	var cols []string
	seen := make(map[string]bool)
	if pk := c.primaryKeys[name]; pk != "" {
		cols = append(cols, pk)
		seen[pk] = true
	}
	for _, u := range c.uniqueColumns[name] {
		if !seen[u] {
			cols = append(cols, u)
			seen[u] = true
		}
	}
	return cols
}

// TableNames returns all registered table names, sorted.
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.schemas))
	for n := range c.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
