package executor

import "github.com/minhpq/microsql/internal/record"

// Result is the generic statement result returned to the caller. SELECT
// fills Columns and Rows; mutating statements report only AffectedRows.
type Result struct {
	Columns      []string     `json:"columns,omitempty"`
	Rows         []record.Row `json:"rows,omitempty"`
	AffectedRows int64        `json:"affected_rows"`
}
