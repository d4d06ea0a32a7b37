// Package sqlutil provides SQL utility functions.
package sqlutil

import "strings"

// QuoteIdentifier quotes a SQL identifier (table name, column name, etc.)
// with backticks and escapes any backticks within the identifier.
func QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, "`", "``")
	return "`" + escaped + "`"
}

// QuoteQualified quotes a table-qualified column reference.
func QuoteQualified(table, column string) string {
	return QuoteIdentifier(table) + "." + QuoteIdentifier(column)
}
