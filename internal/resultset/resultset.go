// Package resultset implements the mutable-until-frozen accumulator that
// the fulltext result builder feeds and the snippet builder / host reads
// back, modeled on the deterministic sort/tie-break shape of a
// reciprocal-rank-fusion sorter: score descending, then a stable
// identifier ascending.
package resultset

import (
	"sort"
	"time"

	"github.com/libarea/search/internal/errs"
	"github.com/libarea/search/internal/model"
)

// ProfilePoint is one instrumentation marker: a label and a monotonic
// timestamp. Fetching profile points MUST be side-effect free.
type ProfilePoint struct {
	Label     string
	Timestamp time.Time
}

// entry accumulates one document's score and matched positions while the
// ResultSet is mutable.
type entry struct {
	score            float64
	contentPositions map[string][]int32 // word -> content positions found for it
	tocEntry         *model.TocEntryWithMetadata
}

// ResultSet accumulates per-(word, document) weight contributions and
// neighbour-pair bonuses, then exposes a deterministically sorted, paged
// view once frozen. It is not safe for concurrent use.
type ResultSet struct {
	limit  int
	offset int
	debug  bool

	frozen  bool
	entries map[string]*entry // externalId.String() -> entry
	ids     map[string]model.ExternalID

	profile []ProfilePoint

	sorted []model.ExternalID // populated by Freeze
}

// New builds a ResultSet configured with limit, offset, and whether debug
// profiling is recorded.
func New(limit, offset int, debug bool) *ResultSet {
	return &ResultSet{
		limit:   limit,
		offset:  offset,
		debug:   debug,
		entries: make(map[string]*entry),
		ids:     make(map[string]model.ExternalID),
	}
}

func (rs *ResultSet) mustBeMutable(op string) error {
	if rs.frozen {
		return errs.ImmutableErr(op)
	}
	return nil
}

func (rs *ResultSet) getOrCreate(externalID model.ExternalID) *entry {
	key := externalID.String()
	rs.ids[key] = externalID
	e, ok := rs.entries[key]
	if !ok {
		e = &entry{contentPositions: make(map[string][]int32)}
		rs.entries[key] = e
	}
	return e
}

// AddWordWeight folds a per-(word, document) weight map into the
// document's aggregate score. The weight map's values are composed
// multiplicatively (per word); the per-word product is then added to the
// document's running total (additive across words). contentPositions, if
// non-empty, is recorded for later snippet assembly and neighbour scoring.
func (rs *ResultSet) AddWordWeight(word string, externalID model.ExternalID, weights map[string]float64, contentPositions []int32) error {
	if err := rs.mustBeMutable("AddWordWeight"); err != nil {
		return err
	}
	product := 1.0
	for _, w := range weights {
		product *= w
	}
	e := rs.getOrCreate(externalID)
	e.score += product
	if len(contentPositions) > 0 {
		e.contentPositions[word] = append(e.contentPositions[word], contentPositions...)
	}
	return nil
}

// AddNeighbourWeight adds a neighbour-pair bonus between query words w1 and
// w2 for externalID.
func (rs *ResultSet) AddNeighbourWeight(w1, w2 string, externalID model.ExternalID, weight float64, distance float64) error {
	if err := rs.mustBeMutable("AddNeighbourWeight"); err != nil {
		return err
	}
	e := rs.getOrCreate(externalID)
	e.score += weight
	return nil
}

// Profile records a profiling marker at the current time, if debug was
// enabled at construction. No-op otherwise.
func (rs *ResultSet) Profile(label string) {
	if !rs.debug {
		return
	}
	rs.profile = append(rs.profile, ProfilePoint{Label: label, Timestamp: time.Now()})
}

// ProfilePoints returns the recorded profile points. Side-effect free.
func (rs *ResultSet) ProfilePoints() []ProfilePoint {
	out := make([]ProfilePoint, len(rs.profile))
	copy(out, rs.profile)
	return out
}

// Freeze closes the ResultSet to further mutation and computes the sorted,
// paged id list. Freeze is idempotent.
func (rs *ResultSet) Freeze() {
	if rs.frozen {
		return
	}
	rs.frozen = true

	all := make([]model.ExternalID, 0, len(rs.entries))
	for key := range rs.entries {
		all = append(all, rs.ids[key])
	}
	sort.Slice(all, func(i, j int) bool {
		ei, ej := rs.entries[all[i].String()], rs.entries[all[j].String()]
		if ei.score != ej.score {
			return ei.score > ej.score
		}
		return all[i].String() < all[j].String()
	})
	rs.sorted = all
}

// SortedExternalIDs returns the [offset, offset+limit) page of externalIds,
// descending by aggregate score with externalId as the deterministic
// tie-break. Returns nil if called before Freeze.
func (rs *ResultSet) SortedExternalIDs() []model.ExternalID {
	if !rs.frozen {
		return nil
	}
	start := rs.offset
	if start > len(rs.sorted) {
		start = len(rs.sorted)
	}
	end := start + rs.limit
	if rs.limit <= 0 || end > len(rs.sorted) {
		end = len(rs.sorted)
	}
	return rs.sorted[start:end]
}

// Total returns the total number of distinct documents scored, before
// paging.
func (rs *ResultSet) Total() int {
	return len(rs.entries)
}

// GetFoundWordPositionsByExternalID returns, for externalID, the set of
// content positions matched per query word — the input the snippet
// builder unions across query words.
func (rs *ResultSet) GetFoundWordPositionsByExternalID(externalID model.ExternalID) (map[string][]int32, error) {
	e, ok := rs.entries[externalID.String()]
	if !ok {
		return nil, errs.UnknownIdErr(externalID.String())
	}
	return e.contentPositions, nil
}

// AttachToc memoizes TOC data for a document in the paged subset; it is
// valid both before and after Freeze.
func (rs *ResultSet) AttachToc(externalID model.ExternalID, toc model.TocEntryWithMetadata) error {
	e, ok := rs.entries[externalID.String()]
	if !ok {
		return errs.UnknownIdErr(externalID.String())
	}
	e.tocEntry = &toc
	return nil
}

// Toc returns the TocEntryWithMetadata previously attached via AttachToc,
// or false if none was attached.
func (rs *ResultSet) Toc(externalID model.ExternalID) (model.TocEntryWithMetadata, bool) {
	e, ok := rs.entries[externalID.String()]
	if !ok || e.tocEntry == nil {
		return model.TocEntryWithMetadata{}, false
	}
	return *e.tocEntry, true
}

// Score returns the current aggregate score for externalID, 0 if absent.
func (rs *ResultSet) Score(externalID model.ExternalID) float64 {
	e, ok := rs.entries[externalID.String()]
	if !ok {
		return 0
	}
	return e.score
}
