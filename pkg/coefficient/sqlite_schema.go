package coefficient

import (
	"fmt"
	"strings"
)

// SchemaVersion is the current coefficient schema version.
const SchemaVersion = 1

// Schema creates the coefficient table. Condition columns are c0..c10.
const Schema = `
CREATE TABLE IF NOT EXISTS coefficient_rows (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tenant TEXT NOT NULL,
    calculator_id TEXT NOT NULL,
    code TEXT NOT NULL,
    c0 TEXT, c1 TEXT, c2 TEXT, c3 TEXT, c4 TEXT, c5 TEXT,
    c6 TEXT, c7 TEXT, c8 TEXT, c9 TEXT, c10 TEXT,
    result TEXT
);

CREATE INDEX IF NOT EXISTS idx_coefficient_rows_scope
    ON coefficient_rows(tenant, calculator_id, code);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// columnName returns the SQL column for a condition index.
func columnName(index int) string {
	return fmt.Sprintf("c%d", index)
}

// conditionColumns is "c0, c1, ..., c10".
var conditionColumns = func() string {
	names := make([]string, MaxColumns)
	for i := range names {
		names[i] = columnName(i)
	}
	return strings.Join(names, ", ")
}()
