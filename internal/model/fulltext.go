package model

// FulltextEntry is a single (word_id, toc_id) row: all positions for that
// pair coexist here, never split across multiple rows.
type FulltextEntry struct {
	WordID    int
	TocID     int
	Positions []FieldPosition
}

// SnippetSource is one stored paragraph/sentence, one row per source.
type SnippetSource struct {
	TocID      int
	MinWordPos int32
	MaxWordPos int32
	Text       string
	FormatID   SnippetFormat
}

// SnippetFormat records whether SnippetSource.Text is plain, HTML, or
// internal markup.
type SnippetFormat int

const (
	FormatPlain SnippetFormat = iota
	FormatInternal
	FormatHTML
)

// PositionBag is the triple of (title, keyword, content) position lists for
// one (word, document) pair, plus word count and external relevance ratio —
// the unit of data fulltextResultByWords returns per supplied word, per
// matching document.
type PositionBag struct {
	ExternalID             ExternalID
	TitlePositions         []int32
	KeywordPositions       []int32
	ContentPositions       []int32
	WordCount              int
	ExternalRelevanceRatio float64
}

// FulltextIndexContent is what Storage.fulltextResultByWords returns: for
// each supplied word, the position bags of every document that contains it.
type FulltextIndexContent map[string][]PositionBag
