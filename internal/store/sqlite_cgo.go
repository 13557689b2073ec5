package store

import (
	_ "github.com/mattn/go-sqlite3" // cgo SQLite driver, registered as "sqlite3"
)

// NewCgoSQLite opens the second dialect: mattn/go-sqlite3, the cgo SQLite
// binding. Schema and queries are identical to the pure-Go dialect; only
// the driver name and build requirements differ. Useful on platforms
// where the project already pays the cgo cost for other reasons.
func NewCgoSQLite(path string, tablePrefix string, excludeThreshold int) (Storage, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	return openSQLite("sqlite3", dsn, tablePrefix, excludeThreshold)
}
