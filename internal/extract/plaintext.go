// Package extract provides a minimal, concrete model.Extractor: the HTML
// cleanup internals are deliberately out of scope for this engine (the
// extractor contract is just "raw text -> sentence map + images +
// warnings"), but a runnable repo needs at least one default
// implementation.
//
// PlainTextExtractor treats the input as already-clean plain text: it
// splits on blank lines into paragraphs (snippet sources) and assigns each
// whitespace-delimited word a sequential absolute position.
package extract

import (
	"strings"

	"github.com/libarea/search/internal/model"
)

// PlainTextExtractor implements model.Extractor over pre-cleaned plain
// text with no HTML stripping.
type PlainTextExtractor struct{}

// Extract implements model.Extractor.
func (PlainTextExtractor) Extract(rawText string) (model.ExtractionResult, error) {
	paragraphs := splitParagraphs(rawText)
	sm := &plainSentenceMap{}

	pos := int32(0)
	for _, p := range paragraphs {
		words := strings.Fields(p)
		if len(words) == 0 {
			continue
		}
		minPos := pos
		for _, w := range words {
			sm.words = append(sm.words, model.WordPosition{Position: pos, Word: w})
			pos++
		}
		maxPos := pos - 1
		sm.sources = append(sm.sources, model.SnippetSource{
			MinWordPos: minPos,
			MaxWordPos: maxPos,
			Text:       p,
			FormatID:   model.FormatPlain,
		})
	}

	return model.ExtractionResult{SentenceMap: sm}, nil
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 && strings.TrimSpace(text) != "" {
		out = append(out, strings.TrimSpace(text))
	}
	return out
}

// plainSentenceMap implements model.SentenceMap over the paragraphs
// PlainTextExtractor split out.
type plainSentenceMap struct {
	words   []model.WordPosition
	sources []model.SnippetSource
}

func (m *plainSentenceMap) Words() []model.WordPosition { return m.words }

func (m *plainSentenceMap) SnippetSources() []model.SnippetSource { return m.sources }
