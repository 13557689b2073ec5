package fulltext

import (
	"github.com/libarea/search/internal/model"
	"github.com/libarea/search/internal/resultset"
)

// ResultSet is the subset of resultset.ResultSet the builder writes to,
// narrowed so tests can supply a fake.
type ResultSet interface {
	AddWordWeight(word string, externalID model.ExternalID, weights map[string]float64, contentPositions []int32) error
	AddNeighbourWeight(w1, w2 string, externalID model.ExternalID, weight, distance float64) error
}

var _ ResultSet = (*resultset.ResultSet)(nil)

// QueryWord is one word of the original multi-word query, with its
// reference position within the query (used for neighbour-pair distance).
type QueryWord struct {
	Word     string
	Position int32
}

// Builder turns FulltextIndexContent into weighted contributions on a
// ResultSet, including the neighbour-pair bonus across query word pairs.
type Builder struct {
	TocSize int
}

// NewBuilder constructs a Builder that knows the current TOC size, needed
// for the abundance reduction ratio.
func NewBuilder(tocSize int) *Builder {
	return &Builder{TocSize: tocSize}
}

// Fill computes per-(word, document) weight contributions for each word in
// content, and the neighbour-pair bonus across query-word pairs, and
// writes them into rs.
func (b *Builder) Fill(rs ResultSet, query []QueryWord, content model.FulltextIndexContent) error {
	// reductionByWord caches r_w so the neighbour-pair pass can reuse it
	// without recomputing abundance reduction.
	reductionByWord := make(map[string]float64, len(query))

	// docPositions[word][externalId] = content positions, needed for the
	// neighbour-pair pass below.
	docPositions := make(map[string]map[string][]int32, len(query))

	for _, qw := range query {
		bags := content[qw.Word]
		r := FreqReduction(b.TocSize, len(bags))
		reductionByWord[qw.Word] = r

		perDoc := make(map[string][]int32, len(bags))
		for _, bag := range bags {
			weights := make(map[string]float64)

			if len(bag.ContentPositions) > 0 {
				weights["abundance_reduction"] = r
				weights["repeat_multiply"] = RepeatMultiply(len(bag.ContentPositions))
				weights["entry_size"] = EntrySizeWeight(bag.WordCount)
				if bag.ExternalRelevanceRatio != 0 && bag.ExternalRelevanceRatio != 1.0 {
					weights["external_ratio"] = bag.ExternalRelevanceRatio
				}
				perDoc[bag.ExternalID.String()] = bag.ContentPositions
			}
			if len(bag.KeywordPositions) > 0 {
				weights["keyword"] = KeywordWeight
				weights["abundance_reduction"] = r
				if bag.ExternalRelevanceRatio != 0 && bag.ExternalRelevanceRatio != 1.0 {
					weights["external_ratio"] = bag.ExternalRelevanceRatio
				}
			}
			if len(bag.TitlePositions) > 0 {
				weights["title"] = TitleWeight
				weights["abundance_reduction"] = r
				if bag.ExternalRelevanceRatio != 0 && bag.ExternalRelevanceRatio != 1.0 {
					weights["external_ratio"] = bag.ExternalRelevanceRatio
				}
			}

			if len(weights) == 0 {
				continue
			}
			if err := rs.AddWordWeight(qw.Word, bag.ExternalID, weights, bag.ContentPositions); err != nil {
				return err
			}
		}
		docPositions[qw.Word] = perDoc
	}

	return b.fillNeighbourBonus(rs, query, docPositions, reductionByWord)
}

// fillNeighbourBonus iterates query word pairs (w1, w2), w1 != w2, and for
// each document holding content positions for both words, finds the
// minimum contributing distance d = |d_doc - d_query| across all observed
// position pairs and adds neighbourWeight(d) * r_w1 * r_w2.
func (b *Builder) fillNeighbourBonus(
	rs ResultSet,
	query []QueryWord,
	docPositions map[string]map[string][]int32,
	reductionByWord map[string]float64,
) error {
	for i := range query {
		for j := i + 1; j < len(query); j++ {
			w1, w2 := query[i], query[j]
			if w1.Word == w2.Word {
				continue
			}
			dQuery := absInt32(w1.Position - w2.Position)

			pos1ByDoc := docPositions[w1.Word]
			pos2ByDoc := docPositions[w2.Word]
			for extKey, p1s := range pos1ByDoc {
				p2s, ok := pos2ByDoc[extKey]
				if !ok {
					continue
				}
				minD := minDistance(p1s, p2s, dQuery)
				if minD < 0 {
					continue
				}
				weight := NeighbourWeight(float64(minD)) * reductionByWord[w1.Word] * reductionByWord[w2.Word]

				extID, err := model.ParseExternalID(extKey)
				if err != nil {
					continue
				}
				if err := rs.AddNeighbourWeight(w1.Word, w2.Word, extID, weight, float64(minD)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// minDistance returns the minimum |d_doc - d_query| over all pairs (p1,
// p2) in p1s x p2s, or -1 if either slice is empty.
func minDistance(p1s, p2s []int32, dQuery int32) int32 {
	best := int32(-1)
	for _, p1 := range p1s {
		for _, p2 := range p2s {
			dDoc := absInt32(p1 - p2)
			d := absInt32(dDoc - dQuery)
			if best < 0 || d < best {
				best = d
			}
		}
	}
	return best
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
