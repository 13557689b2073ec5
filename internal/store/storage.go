// Package store implements the dialect-neutral storage repository: the
// persistence of TOC, words, fulltext positions, metadata, and snippet
// sources, with transactional writes and schema-absence recovery.
//
// Two concrete SQL dialects ship here, selected through a one-shot factory
// keyed on driver name (see factory.go): a pure-Go SQLite dialect
// (modernc.org/sqlite) and a cgo SQLite dialect (mattn/go-sqlite3). Both
// share the schema and query-building logic in this package; only the
// database/sql driver name and DSN differ.
package store

import (
	"context"

	"github.com/libarea/search/internal/model"
)

// SnippetQuery is the input to getSnippets: for each requested document,
// the set of matched content positions (possibly empty, in which case only
// the fallback rows are returned for that document).
type SnippetQuery struct {
	TocID     int
	Positions []int32 // matched content positions; empty triggers fallback-only
}

// SnippetRow is one row returned by getSnippets, keyed by internal toc id;
// the snippet builder re-attaches it to an ExternalID via the
// internal-id -> external-id map built from the TOC batch lookup.
type SnippetRow struct {
	Source model.SnippetSource
}

// Storage is the narrow read/write/erase/transactional contract every
// concrete dialect implements.
type Storage interface {
	// AddEntryToToc upserts the TOC row for externalId. After return,
	// externalId resolves to an internal toc id.
	AddEntryToToc(ctx context.Context, entry model.TocEntry) error

	// GetTocByExternalID is an exact lookup; returns false if absent.
	GetTocByExternalID(ctx context.Context, externalID model.ExternalID) (model.TocEntry, bool, error)

	// GetTocByExternalIDs is a batch lookup; the returned order is not
	// required to match the input order.
	GetTocByExternalIDs(ctx context.Context, externalIDs []model.ExternalID) ([]model.TocEntryWithMetadata, error)

	// RemoveFromIndex deletes fulltext, metadata, and snippet rows for
	// externalId. Idempotent; absence is not an error.
	RemoveFromIndex(ctx context.Context, externalID model.ExternalID) error

	// RemoveFromToc deletes the TOC row for externalId. Idempotent.
	RemoveFromToc(ctx context.Context, externalID model.ExternalID) error

	// AddToFulltextIndex persists the three word arrays for externalId.
	// Each *Words map is model.Position (integer parent plus optional
	// compound component) -> stem; positions are rendered to their decimal
	// wire form when stored.
	AddToFulltextIndex(ctx context.Context, externalID model.ExternalID, titleWords, keywordWords, contentWords map[model.Position]string) error

	// AddMetadata persists the lazily-created per-document word count and
	// image collection.
	AddMetadata(ctx context.Context, externalID model.ExternalID, wordCount int, images []string) error

	// AddSnippets persists the ordered snippet source list for externalId.
	AddSnippets(ctx context.Context, externalID model.ExternalID, sources []model.SnippetSource) error

	// FulltextResultByWords returns, for each supplied word, all position
	// bags across matching documents. instanceID == 0 means "no
	// instance scoping".
	FulltextResultByWords(ctx context.Context, words []string, instanceID int) (model.FulltextIndexContent, error)

	// GetSnippets resolves a batch of SnippetQuery rows.
	GetSnippets(ctx context.Context, queries []SnippetQuery) ([]SnippetRow, error)

	// GetTocSize returns the number of TOC rows, optionally scoped to an
	// instance.
	GetTocSize(ctx context.Context, instanceID int) (int, error)

	// IsExcludedWord reports whether word's document frequency exceeds
	// the configured threshold.
	IsExcludedWord(ctx context.Context, word string) (bool, error)

	// Erase drops and recreates the schema. Not transactional.
	Erase(ctx context.Context) error
	// Drop drops the schema without recreating it. Not transactional.
	Drop(ctx context.Context) error

	// StartTransaction/CommitTransaction/RollbackTransaction are
	// reentrant: if a transaction is already open, the inner pair is a
	// no-op ("external transaction" mode).
	StartTransaction(ctx context.Context) error
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error

	// Close releases the underlying backend handle.
	Close() error
}
