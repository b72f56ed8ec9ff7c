package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/minhpq/microsql/internal/catalog"
	"github.com/minhpq/microsql/internal/index"
	"github.com/minhpq/microsql/internal/record"
	"github.com/minhpq/microsql/internal/storage"
	"github.com/minhpq/microsql/internal/value"
)

var (
	ErrPrimaryKeyViolation = errors.New("microsql: primary key constraint violation")
	ErrUniqueViolation     = errors.New("microsql: unique constraint violation")
)

// Database owns the catalog, the in-memory row store and the indexes of one
// database, backed by a single snapshot file. It is a plain value created by
// the host; there is no process-wide instance and no internal locking, so
// concurrent callers must serialize access around each operation.
type Database struct {
	name    string
	cat     *catalog.Catalog
	tables  map[string][]record.Row
	indexes index.Set
	store   *storage.Manager
}

// Open loads the snapshot for the named database from dir, creating the
// directory if needed. A malformed snapshot logs a warning and yields an
// empty database; startup never fails on bad data.
func Open(dir, name string) (*Database, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: create data dir: %w", err)
	}

	db := &Database{
		name:    name,
		cat:     catalog.New(),
		tables:  make(map[string][]record.Row),
		indexes: index.NewSet(),
		store:   storage.NewManager(dir, name),
	}

	snap, err := db.store.Load()
	if err != nil {
		slog.Warn("snapshot load failed, starting empty", "path", db.store.Path(), "err", err)
		return db, nil
	}

	for tbl, schema := range snap.Schemas {
		db.cat.EnsureTable(tbl, schema, snap.PrimaryKeys[tbl], snap.UniqueColumns[tbl])
	}
	// Row data for a table missing from the schemas section still loads,
	// under an empty schema.
	for tbl, rows := range snap.Tables {
		db.cat.EnsureTable(tbl, record.Schema{}, "", nil)
		db.tables[tbl] = rows
	}
	for _, tbl := range db.cat.TableNames() {
		if db.tables[tbl] == nil {
			db.tables[tbl] = []record.Row{}
		}
		db.indexes.EnsureTable(tbl, db.cat.ConstrainedColumns(tbl))
		db.indexes.RebuildTable(tbl, db.tables[tbl])
	}

	slog.Info("database opened", "name", name, "path", db.store.Path(), "tables", len(db.tables))
	return db, nil
}

func (db *Database) Name() string { return db.name }

// SnapshotPath returns the snapshot file backing this database.
func (db *Database) SnapshotPath() string { return db.store.Path() }

// Catalog exposes the table registry; the planner reads schemas from it.
func (db *Database) Catalog() *catalog.Catalog { return db.cat }

// CreateTable registers a table, installs its empty row sequence and
// allocates indexes for the constrained columns, then persists.
func (db *Database) CreateTable(name string, schema record.Schema, primaryKey string, uniques []string) error {
	if err := db.cat.CreateTable(name, schema, primaryKey, uniques); err != nil {
		return err
	}
	db.tables[name] = []record.Row{}
	db.indexes.EnsureTable(name, db.cat.ConstrainedColumns(name))
	return db.save()
}

// EnsureTable is the idempotent variant used by hosts that create their
// schema at every startup. It reports whether the table was created; an
// existing table is left untouched.
func (db *Database) EnsureTable(name string, schema record.Schema, primaryKey string, uniques []string) (bool, error) {
	if !db.cat.EnsureTable(name, schema, primaryKey, uniques) {
		return false, nil
	}
	db.tables[name] = []record.Row{}
	db.indexes.EnsureTable(name, db.cat.ConstrainedColumns(name))
	return true, db.save()
}

// AppendRow validates constraints, appends the row, records its position in
// the indexes and persists. Validation happens before any mutation, so a
// rejected insert leaves the table unchanged.
func (db *Database) AppendRow(table string, row record.Row) error {
	if !db.cat.Has(table) {
		return fmt.Errorf("%w: %s", catalog.ErrUnknownTable, table)
	}
	if err := db.checkConstraints(table, row); err != nil {
		return err
	}

	db.tables[table] = append(db.tables[table], row)
	pos := len(db.tables[table]) - 1
	for col, ix := range db.indexes.Table(table) {
		ix.Put(row.Get(col), pos)
	}
	return db.save()
}

// InsertRow is the direct-insert entry point used by hosts that bypass
// statement text. Field values pass through the same schema-driven coercion
// and constraint validation as INSERT.
func (db *Database) InsertRow(table string, fields map[string]any) error {
	schema, err := db.cat.Schema(table)
	if err != nil {
		return err
	}
	row := make(record.Row, len(fields))
	for col, v := range fields {
		row[col] = value.FromAny(v, schema.TypeOf(col))
	}
	return db.AppendRow(table, row)
}

func (db *Database) checkConstraints(table string, row record.Row) error {
	if pk := db.cat.PrimaryKey(table); pk != "" {
		v := row.Get(pk)
		if !v.IsNull() && db.indexed(table, pk, v) {
			return fmt.Errorf("%w: %s.%s = %s", ErrPrimaryKeyViolation, table, pk, v)
		}
	}
	for _, col := range db.cat.UniqueColumns(table) {
		v := row.Get(col)
		if !v.IsNull() && db.indexed(table, col, v) {
			return fmt.Errorf("%w: %s.%s = %s", ErrUniqueViolation, table, col, v)
		}
	}
	return nil
}

func (db *Database) indexed(table, col string, v value.Value) bool {
	ix := db.indexes.Table(table)[col]
	if ix == nil {
		return false
	}
	_, ok := ix.Lookup(v)
	return ok
}

// Rows returns a copy of the table's row sequence in insertion order.
func (db *Database) Rows(table string) ([]record.Row, error) {
	if !db.cat.Has(table) {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownTable, table)
	}
	rows := db.tables[table]
	out := make([]record.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

// UpdateRows merges the assignment mapping into every row the match accepts
// (every row when match is nil), rebuilds the table's indexes and persists.
// Constraints are not re-validated on update.
func (db *Database) UpdateRows(table string, set record.Row, match func(record.Row) bool) (int, error) {
	if !db.cat.Has(table) {
		return 0, fmt.Errorf("%w: %s", catalog.ErrUnknownTable, table)
	}

	count := 0
	for _, row := range db.tables[table] {
		if match != nil && !match(row) {
			continue
		}
		for col, v := range set {
			row[col] = v
		}
		count++
	}

	db.indexes.RebuildTable(table, db.tables[table])
	return count, db.save()
}

// DeleteRows drops every row the match accepts (all rows when match is nil),
// rebuilds the table's indexes and persists. Surviving rows keep their
// relative order; their positions shift.
func (db *Database) DeleteRows(table string, match func(record.Row) bool) (int, error) {
	if !db.cat.Has(table) {
		return 0, fmt.Errorf("%w: %s", catalog.ErrUnknownTable, table)
	}

	rows := db.tables[table]
	kept := make([]record.Row, 0, len(rows))
	for _, row := range rows {
		if match != nil && !match(row) {
			kept = append(kept, row)
		}
	}
	removed := len(rows) - len(kept)
	db.tables[table] = kept

	db.indexes.RebuildTable(table, kept)
	return removed, db.save()
}

// ----- introspection -----

func (db *Database) TableNames() []string { return db.cat.TableNames() }

func (db *Database) Schema(table string) ([]record.Column, error) {
	schema, err := db.cat.Schema(table)
	if err != nil {
		return nil, err
	}
	return schema.Cols, nil
}

func (db *Database) PrimaryKey(table string) string { return db.cat.PrimaryKey(table) }

func (db *Database) UniqueColumns(table string) []string { return db.cat.UniqueColumns(table) }

func (db *Database) RowCount(table string) int { return len(db.tables[table]) }

// save serializes the whole catalog and store to the snapshot file.
func (db *Database) save() error {
	snap := storage.NewSnapshot()
	for _, name := range db.cat.TableNames() {
		schema, _ := db.cat.Schema(name)
		snap.Schemas[name] = schema
		rows := db.tables[name]
		if rows == nil {
			rows = []record.Row{}
		}
		snap.Tables[name] = rows
		if pk := db.cat.PrimaryKey(name); pk != "" {
			snap.PrimaryKeys[name] = pk
		}
		if u := db.cat.UniqueColumns(name); len(u) > 0 {
			snap.UniqueColumns[name] = u
		}
	}
	if err := db.store.Save(snap); err != nil {
		slog.Error("snapshot save failed", "path", db.store.Path(), "err", err)
		return err
	}
	return nil
}
