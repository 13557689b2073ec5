package store

import (
	"context"
	"database/sql"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// excludeList is the process-wide word excludelist: a
// membership test consulted per content token, initialized at storage
// construction, refreshed on erase, read-only during indexing. An LRU
// fronts the document-frequency query so repeated content tokens across a
// batch don't re-hit the backend.
type excludeList struct {
	db        *sql.DB
	tables    tableNames
	threshold int
	cache     *lru.Cache[string, bool]
}

const excludeListCacheSize = 4096

func newExcludeList(db *sql.DB, tables tableNames, threshold int) *excludeList {
	cache, _ := lru.New[string, bool](excludeListCacheSize) // only errors on non-positive size
	return &excludeList{db: db, tables: tables, threshold: threshold, cache: cache}
}

// isExcludedWord reports whether word's document-frequency (number of
// fulltext rows referencing it) exceeds the configured threshold.
func (e *excludeList) isExcludedWord(ctx context.Context, word string) (bool, error) {
	if e.threshold <= 0 {
		return false, nil
	}
	if v, ok := e.cache.Get(word); ok {
		return v, nil
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s f
		JOIN %s w ON w.id = f.word_id
		WHERE w.name = ?`, e.tables.fulltext(), e.tables.word())
	var count int
	if err := e.db.QueryRowContext(ctx, query, word).Scan(&count); err != nil {
		return false, classify(err)
	}

	excluded := count > e.threshold
	e.cache.Add(word, excluded)
	return excluded, nil
}

// refresh drops cached entries, called after erase() since document
// frequencies are reset.
func (e *excludeList) refresh() {
	e.cache.Purge()
}
