package store

import (
	"strings"

	"github.com/libarea/search/internal/errs"
)

// classify turns a raw backend error into the engine's distinguished error
// kinds: EmptyIndex when the driver reports an "unknown table"/"unknown
// column" condition (schema missing or stale), Unknown otherwise. Both
// modernc.org/sqlite and mattn/go-sqlite3 report these conditions as
// "no such table: ..." / "no such column: ..." substrings.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "no such table") || strings.Contains(msg, "no such column") {
		return errs.EmptyIndexErr(err)
	}
	return errs.UnknownErr(err)
}
