package index

import (
	"html"
	"strings"
	"unicode"

	"github.com/libarea/search/internal/model"
)

// normalize lowercases text, strips HTML entities, and replaces every rune
// that is not a letter, digit, '.', ',' or '-' with a space, preserving
// letters of all scripts. A trailing space is appended so the tokenizer
// can strip trailing punctuation from the final token.
func normalize(text string) string {
	unescaped := html.UnescapeString(text)
	lower := strings.ToLower(unescaped)

	var b strings.Builder
	b.Grow(len(lower) + 1)
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	b.WriteRune(' ')
	return b.String()
}

// tokenize splits normalized text on punctuation-with-optional-whitespace,
// dropping tokens longer than maxTokenLength (0 disables the bound) and
// empty tokens.
//
// Keywords are tokenized identically to the title rather than split on
// commas as a hard delimiter.
//
// Tokenize is the exported form used by query-path callers (internal/engine)
// that need the identical normalize+split rules the indexer uses for
// title/keyword fields.
func Tokenize(text string, maxTokenLength int) []string {
	return tokenize(text, maxTokenLength)
}

func tokenize(text string, maxTokenLength int) []string {
	normalized := normalize(text)
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return r == '.' || r == ',' || r == '-' || unicode.IsSpace(r)
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		if maxTokenLength > 0 && len(f) > maxTokenLength {
			continue
		}
		out = append(out, f)
	}
	return out
}

// positionedTokens assigns sequential absolute positions starting at
// startPos to each token, the shape the stemmer's compound decomposer
// expects.
func positionedTokens(tokens []string, startPos int32) []model.WordPosition {
	out := make([]model.WordPosition, len(tokens))
	for i, tok := range tokens {
		out[i] = model.WordPosition{Position: startPos + int32(i), Word: tok}
	}
	return out
}
