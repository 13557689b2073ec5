// Package engine wires the read path end to end: Query -> Stemmer ->
// Storage.FulltextResultByWords -> fulltext.Builder.Fill -> ResultSet
// (sorted, paged) -> Storage.GetTocByExternalIDs + Storage.GetSnippets ->
// snippet.Builder -> assembled results.
package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/libarea/search/internal/fulltext"
	"github.com/libarea/search/internal/index"
	"github.com/libarea/search/internal/model"
	"github.com/libarea/search/internal/resultset"
	"github.com/libarea/search/internal/snippet"
	"github.com/libarea/search/internal/store"
)

// Result is one displayed document: its TOC entry, score, and assembled
// snippet text.
type Result struct {
	ExternalID model.ExternalID
	Toc        model.TocEntry
	Score      float64
	Snippet    string
}

// Response is the full answer to a Query call.
type Response struct {
	Results []Result
	Total   int
	Profile []resultset.ProfilePoint
}

// Engine holds the collaborators the read path needs.
type Engine struct {
	Storage  store.Storage
	Stemmer  model.Stemmer
	Snippets *snippet.Builder

	MaxQueryTokenLength int
	Debug               bool
}

// New builds an Engine.
func New(storage store.Storage, stemmer model.Stemmer, snippets *snippet.Builder) *Engine {
	return &Engine{Storage: storage, Stemmer: stemmer, Snippets: snippets}
}

// Query answers a multi-word query, returning the [offset, offset+limit)
// page of results sorted by aggregate score, each with an assembled
// snippet. instanceID == 0 means "no instance scoping".
func (e *Engine) Query(ctx context.Context, queryText string, limit, offset, instanceID int) (Response, error) {
	tokens := index.Tokenize(queryText, e.MaxQueryTokenLength)
	if len(tokens) == 0 {
		return Response{}, nil
	}

	queryWords := make([]fulltext.QueryWord, 0, len(tokens))
	stems := make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	for i, tok := range tokens {
		s := e.Stemmer.Stem(tok, false)
		queryWords = append(queryWords, fulltext.QueryWord{Word: s, Position: int32(i)})
		if !seen[s] {
			seen[s] = true
			stems = append(stems, s)
		}
	}

	tocSize, err := e.Storage.GetTocSize(ctx, instanceID)
	if err != nil {
		return Response{}, err
	}

	content, err := e.Storage.FulltextResultByWords(ctx, stems, instanceID)
	if err != nil {
		return Response{}, err
	}

	rs := resultset.New(limit, offset, e.Debug)
	rs.Profile("fulltext_result_built")
	builder := fulltext.NewBuilder(tocSize)
	if err := builder.Fill(rs, queryWords, content); err != nil {
		return Response{}, err
	}
	rs.Freeze()
	rs.Profile("result_set_frozen")

	display := rs.SortedExternalIDs()
	if len(display) == 0 {
		return Response{Total: rs.Total(), Profile: rs.ProfilePoints()}, nil
	}

	tocByExternal, snippetRows, err := e.fetchTocAndSnippets(ctx, rs, display)
	if err != nil {
		return Response{}, err
	}
	rs.Profile("toc_and_snippets_fetched")

	for _, toc := range tocByExternal {
		if err := rs.AttachToc(toc.Entry.ExternalID, toc); err != nil {
			return Response{}, snippet.WrapFrozenResultSetError(err)
		}
	}

	tocIDToExternal := snippet.TocIDToExternalID(tocByExternal)
	highlighted := e.Snippets.Build(snippetRows, tocIDToExternal, display, stems)
	snippetByExternal := make(map[string]string, len(highlighted))
	for _, h := range highlighted {
		snippetByExternal[h.ExternalID.String()] = h.Text
	}

	results := make([]Result, 0, len(display))
	for _, eid := range display {
		toc, ok := rs.Toc(eid)
		if !ok {
			continue
		}
		results = append(results, Result{
			ExternalID: eid,
			Toc:        toc.Entry,
			Score:      rs.Score(eid),
			Snippet:    snippetByExternal[eid.String()],
		})
	}

	return Response{Results: results, Total: rs.Total(), Profile: rs.ProfilePoints()}, nil
}

// fetchTocAndSnippets fans out the TOC batch lookup and the matched-position
// union (the input to the snippet query) concurrently via errgroup, since
// neither depends on the other's result — only the final GetSnippets call
// needs both.
func (e *Engine) fetchTocAndSnippets(ctx context.Context, rs *resultset.ResultSet, display []model.ExternalID) (map[string]model.TocEntryWithMetadata, []store.SnippetRow, error) {
	var tocByExternal map[string]model.TocEntryWithMetadata
	var matched snippet.MatchedPositions

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tocs, err := e.Storage.GetTocByExternalIDs(gctx, display)
		if err != nil {
			return err
		}
		tocByExternal = make(map[string]model.TocEntryWithMetadata, len(tocs))
		for _, t := range tocs {
			tocByExternal[t.Entry.ExternalID.String()] = t
		}
		return nil
	})
	g.Go(func() error {
		m, err := snippet.UnionMatchedPositions(display, func(eid model.ExternalID) (map[string][]int32, error) {
			return rs.GetFoundWordPositionsByExternalID(eid)
		})
		if err != nil {
			return err
		}
		matched = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	queries := snippet.BuildQueries(display, matched, tocByExternal)
	rows, err := e.Storage.GetSnippets(ctx, queries)
	if err != nil {
		return nil, nil, err
	}
	return tocByExternal, rows, nil
}
