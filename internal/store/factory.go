package store

import "fmt"

// Backend names accepted by NewWithBackend.
const (
	BackendPureGoSQLite = "sqlite"    // modernc.org/sqlite
	BackendCgoSQLite    = "sqlite3"   // mattn/go-sqlite3
)

// Config configures either concrete dialect.
type Config struct {
	// Path is the database file path; empty (or ":memory:") opens an
	// in-memory database.
	Path string
	// TablePrefix is prepended to all five table names; empty means the
	// bare names.
	TablePrefix string
	// ExcludeWordThreshold is the document-frequency threshold above
	// which IsExcludedWord reports true; 0 disables exclusion.
	ExcludeWordThreshold int
}

// NewWithBackend is the one-shot factory keyed on driver name: concrete
// backend selection happens once, at construction, not scattered across
// call sites.
func NewWithBackend(backend string, cfg Config) (Storage, error) {
	switch backend {
	case BackendPureGoSQLite, "":
		return NewPureGoSQLite(cfg.Path, cfg.TablePrefix, cfg.ExcludeWordThreshold)
	case BackendCgoSQLite:
		return NewCgoSQLite(cfg.Path, cfg.TablePrefix, cfg.ExcludeWordThreshold)
	default:
		return nil, fmt.Errorf("store: unknown backend %q (valid: %s, %s)", backend, BackendPureGoSQLite, BackendCgoSQLite)
	}
}
