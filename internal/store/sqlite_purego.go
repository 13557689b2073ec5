package store

import (
	_ "modernc.org/sqlite" // pure-Go SQLite driver, registered as "sqlite"
)

// NewPureGoSQLite opens the primary dialect: modernc.org/sqlite, a pure-Go
// SQLite driver requiring no cgo toolchain. path may be ":memory:" or
// empty for an in-memory database (tests).
func NewPureGoSQLite(path string, tablePrefix string, excludeThreshold int) (Storage, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	return openSQLite("sqlite", dsn, tablePrefix, excludeThreshold)
}
