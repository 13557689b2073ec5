// Package index orchestrates the write path: given an Indexable, compare
// its hash against the stored TOC entry, extract, stem, and persist the new
// index state.
package index

import (
	"context"
	"log/slog"

	"github.com/libarea/search/internal/errs"
	"github.com/libarea/search/internal/model"
	"github.com/libarea/search/internal/stem"
	"github.com/libarea/search/internal/store"
)

// Indexer orchestrates hash-diff / delete / extract / stem / write for a
// single Indexable at a time, using the hash the caller supplies.
type Indexer struct {
	Storage   store.Storage
	Extractor model.Extractor
	Stemmer   model.Stemmer
	Logger    *slog.Logger

	// MaxTokenLength bounds title/keyword tokens; tokens longer than this
	// are dropped. 0 disables the bound.
	MaxTokenLength int
	// AutoErase enables the EmptyIndex recovery loop: erase() and retry
	// once.
	AutoErase bool
}

// New builds an Indexer. logger may be nil, in which case slog.Default()
// is used.
func New(storage store.Storage, extractor model.Extractor, stemmer model.Stemmer, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{Storage: storage, Extractor: extractor, Stemmer: stemmer, Logger: logger}
}

// Index (re)indexes doc, running the full extract-tokenize-stem-store pipeline.
func (ix *Indexer) Index(ctx context.Context, doc model.Indexable) error {
	err := ix.doIndex(ctx, doc)
	if err == nil {
		return nil
	}
	if !ix.AutoErase || errs.CategoryOf(err) != errs.EmptyIndex {
		return err
	}

	ix.Logger.WarnContext(ctx, "index_empty_schema_recovery", slog.String("external_id", doc.ExternalID.String()))
	if eraseErr := ix.Storage.Erase(ctx); eraseErr != nil {
		return eraseErr
	}
	return ix.doIndex(ctx, doc)
}

func (ix *Indexer) doIndex(ctx context.Context, doc model.Indexable) (retErr error) {
	if err := ix.Storage.StartTransaction(ctx); err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = ix.Storage.RollbackTransaction(ctx)
			return
		}
		retErr = ix.Storage.CommitTransaction(ctx)
	}()

	previous, hadPrevious, err := ix.Storage.GetTocByExternalID(ctx, doc.ExternalID)
	if err != nil {
		return err
	}

	entry := model.TocEntry{
		ExternalID:             doc.ExternalID,
		Title:                  doc.Title,
		URL:                    doc.URL,
		Hash:                   doc.Hash,
		ExternalRelevanceRatio: doc.RelevanceRatio,
		Metadata:               doc.Metadata,
	}
	if err := ix.Storage.AddEntryToToc(ctx, entry); err != nil {
		return err
	}

	if hadPrevious && previous.Hash == doc.Hash {
		return nil // round-trip hash stability: no-op on fulltext rows
	}

	if err := ix.Storage.RemoveFromIndex(ctx, doc.ExternalID); err != nil {
		return err
	}

	extraction, err := ix.Extractor.Extract(doc.Content)
	if err != nil {
		return errs.Wrap(errs.Unknown, "extract", err)
	}
	for _, w := range extraction.Warnings {
		ix.Logger.WarnContext(ctx, "extractor_warning", slog.String("external_id", doc.ExternalID.String()), slog.String("warning", w))
	}

	titleTokens := tokenize(doc.Title, ix.MaxTokenLength)
	keywordTokens := tokenize(doc.Keywords, ix.MaxTokenLength)

	contentWords, err := ix.contentWordsExcludingExcluded(ctx, extraction.SentenceMap.Words())
	if err != nil {
		return err
	}

	wordCount := len(titleTokens) + len(contentWords)
	if err := ix.Storage.AddMetadata(ctx, doc.ExternalID, wordCount, extraction.Images); err != nil {
		return err
	}

	snippetSources := extraction.SentenceMap.SnippetSources()
	if err := ix.Storage.AddSnippets(ctx, doc.ExternalID, snippetSources); err != nil {
		return err
	}

	titleStems := stem.StemsWithComponents(ix.Stemmer, positionedTokens(titleTokens, 0))
	keywordStems := stem.StemsWithComponents(ix.Stemmer, positionedTokens(keywordTokens, 0))
	contentStems := stem.StemsWithComponents(ix.Stemmer, contentWords)

	if err := ix.Storage.AddToFulltextIndex(ctx, doc.ExternalID, titleStems, keywordStems, contentStems); err != nil {
		return err
	}

	return nil
}

// Remove deletes fulltext, metadata, snippets, then the TOC row for
// externalID. Idempotent; absence is not an error.
func (ix *Indexer) Remove(ctx context.Context, externalID model.ExternalID) error {
	if err := ix.Storage.StartTransaction(ctx); err != nil {
		return err
	}
	if err := ix.Storage.RemoveFromIndex(ctx, externalID); err != nil {
		_ = ix.Storage.RollbackTransaction(ctx)
		return err
	}
	if err := ix.Storage.RemoveFromToc(ctx, externalID); err != nil {
		_ = ix.Storage.RollbackTransaction(ctx)
		return err
	}
	return ix.Storage.CommitTransaction(ctx)
}

// contentWordsExcludingExcluded drops any content word the storage reports
// as excluded. Title and keyword positions of an excluded word are still
// stored; only content positions are dropped.
func (ix *Indexer) contentWordsExcludingExcluded(ctx context.Context, words []model.WordPosition) ([]model.WordPosition, error) {
	out := make([]model.WordPosition, 0, len(words))
	for _, wp := range words {
		excluded, err := ix.Storage.IsExcludedWord(ctx, wp.Word)
		if err != nil {
			return nil, err
		}
		if excluded {
			continue
		}
		out = append(out, wp)
	}
	return out, nil
}
