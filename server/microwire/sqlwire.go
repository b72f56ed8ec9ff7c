package microwire

import (
	"github.com/minhpq/microsql/internal/record"
	"github.com/minhpq/microsql/internal/sql/executor"
)

// Request operations. Execute runs one statement; Insert is the direct row
// insert that bypasses statement text; Tables and Schema serve the console's
// introspection commands.
const (
	OpExecute = "execute"
	OpInsert  = "insert"
	OpTables  = "tables"
	OpSchema  = "schema"
)

// Request is a single client command.
type Request struct {
	ID     uint64         `json:"id"`
	Op     string         `json:"op"`
	SQL    string         `json:"sql,omitempty"`
	Table  string         `json:"table,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// TableInfo is the introspection record for one table.
type TableInfo struct {
	Name          string          `json:"name"`
	Columns       []record.Column `json:"columns"`
	PrimaryKey    string          `json:"primary_key,omitempty"`
	UniqueColumns []string        `json:"unique_columns,omitempty"`
	RowCount      int             `json:"row_count"`
}

// Response is the reply for a request ID.
type Response struct {
	ID     uint64           `json:"id"`
	Result *executor.Result `json:"result,omitempty"`
	Tables []TableInfo      `json:"tables,omitempty"`
	Error  string           `json:"error,omitempty"`
}
