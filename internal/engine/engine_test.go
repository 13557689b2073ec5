package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libarea/search/internal/engine"
	"github.com/libarea/search/internal/errs"
	"github.com/libarea/search/internal/extract"
	"github.com/libarea/search/internal/index"
	"github.com/libarea/search/internal/model"
	"github.com/libarea/search/internal/snippet"
	"github.com/libarea/search/internal/stem"
	"github.com/libarea/search/internal/store"
)

func newHarness(t *testing.T) (*index.Indexer, *engine.Engine) {
	t.Helper()
	s, err := store.NewWithBackend(store.BackendPureGoSQLite, store.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ix := index.New(s, extract.PlainTextExtractor{}, stem.Identity{}, nil)
	eng := engine.New(s, stem.Identity{}, snippet.New(snippet.DefaultConfig(), stem.Identity{}))
	return ix, eng
}

// S1: empty store, index one document, query one of its words, expect a
// single hit with a non-empty snippet.
func TestS1_BasicIndexAndQuery(t *testing.T) {
	ctx := context.Background()
	ix, eng := newHarness(t)

	require.NoError(t, ix.Index(ctx, model.Indexable{
		ExternalID: model.New("doc1"),
		Title:      "Hello World",
		Content:    "hello world hello",
		Hash:       "h1",
	}))

	resp, err := eng.Query(ctx, "hello", 10, 0, 0)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.Equal(t, "doc1", resp.Results[0].ExternalID.ID)
	require.NotEmpty(t, resp.Results[0].Snippet)
}

// S2: compound decomposition lets a query for "well" match a document
// whose content is "well-known fact" under an identity stemmer.
func TestS2_CompoundDecompositionMatchesComponent(t *testing.T) {
	ctx := context.Background()
	ix, eng := newHarness(t)

	require.NoError(t, ix.Index(ctx, model.Indexable{
		ExternalID: model.New("a"),
		Content:    "well-known fact",
		Hash:       "h1",
	}))

	resp, err := eng.Query(ctx, "well", 10, 0, 0)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.Equal(t, "a", resp.Results[0].ExternalID.ID)
}

// S3: abundance reduction ranks a document mentioning a rare query word
// above one that only mentions a common one.
func TestS3_AbundanceReductionFavorsRareTerm(t *testing.T) {
	ctx := context.Background()
	ix, eng := newHarness(t)

	for i := 0; i < 98; i++ {
		require.NoError(t, ix.Index(ctx, model.Indexable{
			ExternalID: model.New(idFor(i)),
			Content:    "the",
			Hash:       "h" + idFor(i),
		}))
	}
	require.NoError(t, ix.Index(ctx, model.Indexable{
		ExternalID: model.New("the-only"),
		Content:    "the",
		Hash:       "hA",
	}))
	require.NoError(t, ix.Index(ctx, model.Indexable{
		ExternalID: model.New("the-and-cat"),
		Content:    "the cat",
		Hash:       "hB",
	}))

	resp, err := eng.Query(ctx, "the cat", 5, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	require.Equal(t, "the-and-cat", resp.Results[0].ExternalID.ID)
}

func idFor(i int) string {
	return "doc" + string(rune('a'+i%26)) + string(rune('0'+i/26))
}

// S4: auto-erase recovery — an EmptyIndex on the first attempt succeeds
// after one internal retry.
func TestS4_AutoEraseRecovery(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewWithBackend(store.BackendPureGoSQLite, store.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	failing := &emptyIndexOnceStorage{Storage: s}
	ix := index.New(failing, extract.PlainTextExtractor{}, stem.Identity{}, nil)
	ix.AutoErase = true

	err = ix.Index(ctx, model.Indexable{ExternalID: model.New("x"), Content: "alpha", Hash: "h1"})
	require.NoError(t, err)
	require.Equal(t, 1, failing.failures)
}

// S5: reindexing with changed content replaces old fulltext.
func TestS5_ReindexReplacesFulltext(t *testing.T) {
	ctx := context.Background()
	ix, eng := newHarness(t)

	require.NoError(t, ix.Index(ctx, model.Indexable{ExternalID: model.New("d"), Content: "alpha", Hash: "h1"}))
	require.NoError(t, ix.Index(ctx, model.Indexable{ExternalID: model.New("d"), Content: "beta", Hash: "h2"}))

	resp, err := eng.Query(ctx, "alpha", 10, 0, 0)
	require.NoError(t, err)
	require.Empty(t, resp.Results)

	resp, err = eng.Query(ctx, "beta", 10, 0, 0)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.Equal(t, "d", resp.Results[0].ExternalID.ID)
}

// S6: title-only match still returns a fallback snippet from the document.
func TestS6_SnippetFallbackOnTitleOnlyMatch(t *testing.T) {
	ctx := context.Background()
	ix, eng := newHarness(t)

	require.NoError(t, ix.Index(ctx, model.Indexable{
		ExternalID: model.New("t"),
		Title:      "cat",
		Content:    "a document entirely about dogs and nothing else",
		Hash:       "h1",
	}))

	resp, err := eng.Query(ctx, "cat", 10, 0, 0)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.NotEmpty(t, resp.Results[0].Snippet, "fallback snippet rows must be returned even on a title-only match")
}

// S7: ranking monotonicity — two same-length documents that both contain
// the query word, differing only in how many times it repeats, never rank
// the document with fewer repeats above the one with more. Equal word
// count holds entry-size weight equal; both documents containing the word
// holds abundance reduction equal; only repeat-multiply differs.
func TestS7_RepeatedOccurrenceNeverDecreasesScore(t *testing.T) {
	ctx := context.Background()
	ix, eng := newHarness(t)

	require.NoError(t, ix.Index(ctx, model.Indexable{
		ExternalID: model.New("few-repeats"),
		Content:    "zztop filler1 filler2 filler3 filler4 filler5 filler6",
		Hash:       "h1",
	}))
	require.NoError(t, ix.Index(ctx, model.Indexable{
		ExternalID: model.New("many-repeats"),
		Content:    "zztop zztop zztop filler1 filler2 filler3 filler4",
		Hash:       "h2",
	}))

	resp, err := eng.Query(ctx, "zztop", 10, 0, 0)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	scores := make(map[string]float64, 2)
	for _, r := range resp.Results {
		scores[r.ExternalID.ID] = r.Score
	}
	require.GreaterOrEqual(t, scores["many-repeats"], scores["few-repeats"],
		"a document with more occurrences of a query word must never score lower than one with fewer, all else equal")
}

// Round-trip hash stability: indexing the same Indexable twice without
// mutation is a no-op on fulltext rows.
func TestInvariant_RoundTripHashStability(t *testing.T) {
	ctx := context.Background()
	ix, eng := newHarness(t)

	doc := model.Indexable{ExternalID: model.New("doc1"), Content: "hello world", Hash: "h1"}
	require.NoError(t, ix.Index(ctx, doc))
	require.NoError(t, ix.Index(ctx, doc))

	resp, err := eng.Query(ctx, "hello", 10, 0, 0)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
}

// Delete-then-reindex idempotence.
func TestInvariant_DeleteThenReindexIdempotence(t *testing.T) {
	ctx := context.Background()
	ix, eng := newHarness(t)
	doc := model.Indexable{ExternalID: model.New("x"), Content: "alpha beta", Hash: "h1"}

	require.NoError(t, ix.Index(ctx, doc))
	require.NoError(t, ix.Remove(ctx, doc.ExternalID))
	require.NoError(t, ix.Index(ctx, doc))

	resp, err := eng.Query(ctx, "alpha", 10, 0, 0)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
}

// emptyIndexOnceStorage wraps a real Storage and fails the first
// AddEntryToToc call with an EmptyIndex-classified error, to exercise the
// indexer's auto-erase retry loop (S4).
type emptyIndexOnceStorage struct {
	store.Storage
	failures int
}

func (e *emptyIndexOnceStorage) AddEntryToToc(ctx context.Context, entry model.TocEntry) error {
	if e.failures == 0 {
		e.failures++
		return errs.EmptyIndexErr(errors.New("no such table: toc"))
	}
	return e.Storage.AddEntryToToc(ctx, entry)
}
