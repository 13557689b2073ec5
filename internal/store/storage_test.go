package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/libarea/search/internal/model"
)

func newTestStorage(t *testing.T) Storage {
	t.Helper()
	s, err := NewWithBackend(BackendPureGoSQLite, Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddEntryToToc_ThenGetByExternalID(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	eid := model.New("doc1")
	err := s.AddEntryToToc(ctx, model.TocEntry{ExternalID: eid, Title: "Hello World", Hash: "h1"})
	require.NoError(t, err)

	got, ok, err := s.GetTocByExternalID(ctx, eid)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Hello World", got.Title)
	require.Equal(t, "h1", got.Hash)
	require.Equal(t, 1.0, got.NormalizedRelevanceRatio())
}

func TestGetTocByExternalID_Missing(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	_, ok, err := s.GetTocByExternalID(ctx, model.New("nope"))
	require.NoError(t, err)
	require.False(t, ok)
}

// TestPositionPacking_RoundTrip checks that for any (title, keyword,
// content) position sets of non-overlapping integers, the stored packed
// string round-trips to the same three sets via fulltextResultByWords.
func TestPositionPacking_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	eid := model.New("doc1")
	require.NoError(t, s.AddEntryToToc(ctx, model.TocEntry{ExternalID: eid, Hash: "h1"}))
	require.NoError(t, s.AddMetadata(ctx, eid, 3, nil))

	title := map[model.Position]string{{Parent: 1}: "known"}
	keyword := map[model.Position]string{{Parent: 2}: "known"}
	content := map[model.Position]string{{Parent: 3}: "known", {Parent: 9}: "known"}
	require.NoError(t, s.AddToFulltextIndex(ctx, eid, title, keyword, content))

	result, err := s.FulltextResultByWords(ctx, []string{"known"}, 0)
	require.NoError(t, err)
	bags := result["known"]
	require.Len(t, bags, 1)
	require.Equal(t, []int32{1}, bags[0].TitlePositions)
	require.Equal(t, []int32{2}, bags[0].KeywordPositions)
	require.ElementsMatch(t, []int32{3, 9}, bags[0].ContentPositions)
}

func TestRemoveFromIndex_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	require.NoError(t, s.RemoveFromIndex(ctx, model.New("never-indexed")))
	require.NoError(t, s.RemoveFromIndex(ctx, model.New("never-indexed")))
}

func TestExcludedWord_Threshold(t *testing.T) {
	ctx := context.Background()
	s, err := NewWithBackend(BackendPureGoSQLite, Config{Path: ":memory:", ExcludeWordThreshold: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	for _, id := range []string{"d1", "d2"} {
		eid := model.New(id)
		require.NoError(t, s.AddEntryToToc(ctx, model.TocEntry{ExternalID: eid, Hash: "h"}))
		require.NoError(t, s.AddToFulltextIndex(ctx, eid, nil, nil, map[model.Position]string{{Parent: 1}: "the"}))
	}

	excluded, err := s.IsExcludedWord(ctx, "the")
	require.NoError(t, err)
	require.True(t, excluded, "word present in more docs than the threshold should be excluded")

	excluded, err = s.IsExcludedWord(ctx, "unique")
	require.NoError(t, err)
	require.False(t, excluded)
}

func TestReentrantTransaction_InnerRollbackForcesOuterRollback(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	eid := model.New("doc1")

	require.NoError(t, s.StartTransaction(ctx))
	require.NoError(t, s.AddEntryToToc(ctx, model.TocEntry{ExternalID: eid, Hash: "h1"}))

	require.NoError(t, s.StartTransaction(ctx)) // nested, no-op on the backend
	require.NoError(t, s.RollbackTransaction(ctx)) // inner rollback: marks outer for rollback

	require.NoError(t, s.CommitTransaction(ctx)) // outer "commit" actually rolls back

	_, ok, err := s.GetTocByExternalID(ctx, eid)
	require.NoError(t, err)
	require.False(t, ok, "inner rollback should have prevented the outer commit from persisting")
}

func TestErase_DropsAndRecreatesSchema(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	eid := model.New("doc1")
	require.NoError(t, s.AddEntryToToc(ctx, model.TocEntry{ExternalID: eid, Hash: "h1"}))

	require.NoError(t, s.Erase(ctx))

	_, ok, err := s.GetTocByExternalID(ctx, eid)
	require.NoError(t, err)
	require.False(t, ok)

	// Schema must still be usable after erase.
	require.NoError(t, s.AddEntryToToc(ctx, model.TocEntry{ExternalID: eid, Hash: "h2"}))
}
