// Package stem implements compound-word decomposition on top of a
// caller-supplied model.Stemmer black box.
package stem

import (
	"strings"

	"github.com/libarea/search/internal/model"
)

// compoundChars is the set of punctuation characters that, when present in
// a word's stem, triggers compound decomposition.
const compoundChars = "-.,"

// isCompoundSeparator reports whether r is one of the characters treated
// as component boundaries.
func isCompoundSeparator(r rune) bool {
	return strings.ContainsRune(compoundChars, r)
}

// StemsWithComponents runs stems-with-components over an
// ordered mapping of position → word, producing the stem at each input
// position plus synthetic entries for compound-word components.
//
// For each input (i, word):
//   - stem = stemmer.Stem(word, false)
//   - if stem contains any of '-', '.', ',': split word into components on
//     runs of those characters; for each non-empty component k (1-indexed)
//     distinct from word itself, add a synthetic entry at the fractional
//     position i + 0.001*k keyed to stemmer.Stem(component, false).
func StemsWithComponents(stemmer model.Stemmer, words []model.WordPosition) map[model.Position]string {
	out := make(map[model.Position]string, len(words))
	for _, wp := range words {
		parentPos := model.Position{Parent: wp.Position}
		stem := stemmer.Stem(wp.Word, false)
		out[parentPos] = stem

		if !strings.ContainsAny(stem, compoundChars) {
			continue
		}

		components := splitCompound(wp.Word)
		k := 0
		for _, comp := range components {
			if comp == "" || comp == wp.Word {
				continue
			}
			k++
			if k > 255 {
				break // uint8 component index bound
			}
			synthetic := model.Position{Parent: wp.Position, Component: uint8(k)}
			out[synthetic] = stemmer.Stem(comp, false)
		}
	}
	return out
}

// splitCompound splits word on runs of '-', '.', ',' adjacent to
// letters/digits, discarding the separators themselves.
func splitCompound(word string) []string {
	return strings.FieldsFunc(word, isCompoundSeparator)
}
