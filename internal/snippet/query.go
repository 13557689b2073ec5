package snippet

import (
	"github.com/libarea/search/internal/model"
	"github.com/libarea/search/internal/store"
)

// BuildQueries converts per-document matched positions into the
// store.SnippetQuery batch, using tocByExternalID to resolve each
// document's internal toc id. Documents with no matched positions still
// get a SnippetQuery (with an empty Positions slice) so the fallback set
// is fetched for them — step 2's "every requested toc_id" guarantee.
func BuildQueries(display []model.ExternalID, matched MatchedPositions, tocByExternalID map[string]model.TocEntryWithMetadata) []store.SnippetQuery {
	queries := make([]store.SnippetQuery, 0, len(display))
	for _, eid := range display {
		toc, ok := tocByExternalID[eid.String()]
		if !ok {
			continue
		}
		queries = append(queries, store.SnippetQuery{
			TocID:     toc.InternalID,
			Positions: matched[eid],
		})
	}
	return queries
}

// TocIDToExternalID builds the internal-id -> external-id map Build needs
// to re-attach snippet rows.
func TocIDToExternalID(tocByExternalID map[string]model.TocEntryWithMetadata) map[int]model.ExternalID {
	out := make(map[int]model.ExternalID, len(tocByExternalID))
	for _, toc := range tocByExternalID {
		out[toc.InternalID] = toc.Entry.ExternalID
	}
	return out
}
