// Package snippet selects and highlights the display text for query
// results: for each displayed document, the matched-sentence set unioned
// with a two-row-per-document fallback, highlighted against the query
// stems.
package snippet

import (
	"regexp"
	"strings"

	"github.com/libarea/search/internal/errs"
	"github.com/libarea/search/internal/model"
	"github.com/libarea/search/internal/store"
)

// Config carries the host-wired surface: the highlight
// template, line separator, and the regexes defining word-like runs in
// snippet text.
type Config struct {
	// HighlightTemplate contains a "{word}" placeholder; the host defines
	// how the matched text is reinserted.
	HighlightTemplate string
	// LineSeparator joins multiple snippet rows for one document.
	LineSeparator string
	// HighlightMaskRegexArray matches word-like runs in snippet text.
	HighlightMaskRegexArray []*regexp.Regexp
}

// DefaultConfig returns a reasonable concrete default for the host config
// surface a caller wires in.
func DefaultConfig() Config {
	return Config{
		HighlightTemplate:       "<mark>{word}</mark>",
		LineSeparator:           " … ",
		HighlightMaskRegexArray: []*regexp.Regexp{regexp.MustCompile(`[\p{L}\p{N}]+`)},
	}
}

// Result is the assembled, highlighted snippet text for one document.
type Result struct {
	ExternalID model.ExternalID
	Text       string
}

// Builder assembles snippet text for a frozen, paged result set.
type Builder struct {
	Config  Config
	Stemmer model.Stemmer
}

// New constructs a Builder.
func New(cfg Config, stemmer model.Stemmer) *Builder {
	return &Builder{Config: cfg, Stemmer: stemmer}
}

// MatchedPositions is the per-document input: the union of matched content
// positions across all query words.
type MatchedPositions map[model.ExternalID][]int32

// UnionMatchedPositions unions content positions across query words for
// each displayed externalId.
func UnionMatchedPositions(display []model.ExternalID, foundByWord func(model.ExternalID) (map[string][]int32, error)) (MatchedPositions, error) {
	out := make(MatchedPositions, len(display))
	for _, eid := range display {
		byWord, err := foundByWord(eid)
		if err != nil {
			return nil, err
		}
		var union []int32
		for _, positions := range byWord {
			union = append(union, positions...)
		}
		out[eid] = union // may be empty: triggers fallback-only
	}
	return out, nil
}

// Build assembles highlighted snippet text for each document in display
// order, given the internal-id -> external-id map (tocIDToExternalID) and
// the query stems to highlight against.
func (b *Builder) Build(
	rows []store.SnippetRow,
	tocIDToExternalID map[int]model.ExternalID,
	display []model.ExternalID,
	queryStems []string,
) []Result {
	byExternal := make(map[string][]store.SnippetRow, len(display))
	for _, row := range rows {
		eid, ok := tocIDToExternalID[row.Source.TocID]
		if !ok {
			continue // pipeline bug: a toc_id with no matching TOC batch entry
		}
		byExternal[eid.String()] = append(byExternal[eid.String()], row)
	}

	out := make([]Result, 0, len(display))
	for _, eid := range display {
		rows := byExternal[eid.String()]
		texts := make([]string, 0, len(rows))
		for _, row := range rows {
			texts = append(texts, b.highlight(row.Source.Text, queryStems))
		}
		out = append(out, Result{ExternalID: eid, Text: strings.Join(texts, b.Config.LineSeparator)})
	}
	return out
}

// highlight replaces every match of the configured regex array that stems
// to a query stem with the configured highlight template.
func (b *Builder) highlight(text string, queryStems []string) string {
	if len(b.Config.HighlightMaskRegexArray) == 0 || len(queryStems) == 0 {
		return text
	}
	stemSet := make(map[string]bool, len(queryStems))
	for _, s := range queryStems {
		stemSet[s] = true
	}

	for _, re := range b.Config.HighlightMaskRegexArray {
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			stem := b.Stemmer.Stem(match, false)
			if !stemSet[stem] {
				return match
			}
			return strings.ReplaceAll(b.Config.HighlightTemplate, "{word}", match)
		})
	}
	return text
}

// WrapFrozenResultSetError re-labels Immutable/UnknownId errors raised
// against a frozen result set as Logic errors, matching the snippet-builder
// wrapping rule.
func WrapFrozenResultSetError(err error) error {
	return errs.AsLogic(err)
}
