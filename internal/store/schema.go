package store

import "fmt"

// tableNames holds the five persisted table names, prefixable with a
// caller-supplied string; defaults are the bare names.
type tableNames struct {
	prefix string
}

func newTableNames(prefix string) tableNames { return tableNames{prefix: prefix} }

func (t tableNames) toc() string      { return t.prefix + "toc" }
func (t tableNames) word() string     { return t.prefix + "word" }
func (t tableNames) fulltext() string { return t.prefix + "fulltext" }
func (t tableNames) metadata() string { return t.prefix + "metadata" }
func (t tableNames) snippet() string  { return t.prefix + "snippet" }

// schemaDDL renders the full CREATE TABLE set for SQLite (both the
// modernc.org/sqlite and mattn/go-sqlite3 dialects accept identical DDL —
// the two drivers differ only in cgo usage, not SQL surface).
func (t tableNames) schemaDDL() string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id TEXT NOT NULL,
	instance_id INTEGER NOT NULL DEFAULT 0,
	title TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	hash TEXT NOT NULL DEFAULT '',
	relevance_ratio REAL NOT NULL DEFAULT 1.0,
	date_value INTEGER,
	metadata_json TEXT NOT NULL DEFAULT '{}',
	UNIQUE (external_id, instance_id)
);

CREATE TABLE IF NOT EXISTS %[2]s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS %[3]s (
	word_id INTEGER NOT NULL REFERENCES %[2]s(id),
	toc_id INTEGER NOT NULL REFERENCES %[1]s(id),
	positions TEXT NOT NULL,
	PRIMARY KEY (word_id, toc_id)
);
CREATE INDEX IF NOT EXISTS idx_%[3]s_word ON %[3]s(word_id);

CREATE TABLE IF NOT EXISTS %[4]s (
	toc_id INTEGER PRIMARY KEY REFERENCES %[1]s(id),
	word_count INTEGER NOT NULL DEFAULT 0,
	images_json TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS %[5]s (
	toc_id INTEGER NOT NULL REFERENCES %[1]s(id),
	min_word_pos INTEGER NOT NULL,
	max_word_pos INTEGER NOT NULL,
	snippet TEXT NOT NULL,
	format_id INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_%[5]s_toc ON %[5]s(toc_id, max_word_pos);
`, t.toc(), t.word(), t.fulltext(), t.metadata(), t.snippet())
}

func (t tableNames) dropDDL() string {
	return fmt.Sprintf(`
DROP TABLE IF EXISTS %s;
DROP TABLE IF EXISTS %s;
DROP TABLE IF EXISTS %s;
DROP TABLE IF EXISTS %s;
DROP TABLE IF EXISTS %s;
`, t.snippet(), t.metadata(), t.fulltext(), t.word(), t.toc())
}
