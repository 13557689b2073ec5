package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a word position within a document. Parent is the canonical
// integer position. Component is non-zero for a synthetic compound-word
// component position: the k-th (1-indexed) decomposition of the word at
// Parent, stored as the decimal string "Parent.00k" at the storage
// boundary and truncated back to Parent (an int) when read — the
// truncated-to-int collision with the parent is intentional, so ranking
// sees compound components as colocated with their parent.
type Position struct {
	Parent    int32
	Component uint8 // 0 = not synthetic
}

// Int returns the canonical integer position (Parent), which is what
// fulltextResultByWords and snippet lookups key off.
func (p Position) Int() int32 { return p.Parent }

// Synthetic reports whether p is a compound-word component position.
func (p Position) Synthetic() bool { return p.Component != 0 }

// String renders the decimal wire form: "p" for non-synthetic, "p.00k" for
// the k-th component (e.g. component 1 of parent 10 is "10.001").
func (p Position) String() string {
	if !p.Synthetic() {
		return strconv.FormatInt(int64(p.Parent), 10)
	}
	return fmt.Sprintf("%d.%03d", p.Parent, p.Component)
}

// ParsePosition parses the decimal wire form produced by String.
func ParsePosition(s string) (Position, error) {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return Position{}, fmt.Errorf("model: malformed position %q: %w", s, err)
		}
		return Position{Parent: int32(n)}, nil
	}
	parent, err := strconv.ParseInt(s[:dot], 10, 32)
	if err != nil {
		return Position{}, fmt.Errorf("model: malformed position %q: %w", s, err)
	}
	comp, err := strconv.ParseInt(s[dot+1:], 10, 16)
	if err != nil {
		return Position{}, fmt.Errorf("model: malformed position %q: %w", s, err)
	}
	return Position{Parent: int32(parent), Component: uint8(comp)}, nil
}

// Field classifies where a content position token was found, matching the
// `t<int>` / `k<int>` / `<int>` packed-position prefixes.
type Field int

const (
	FieldContent Field = iota
	FieldTitle
	FieldKeyword
)

// FieldPosition is a Position tagged with the field it was found in, used
// for the packed fulltext-entry wire format.
type FieldPosition struct {
	Field    Field
	Position Position
}

// String renders the packed position token: "t<int>", "k<int>", or "<int>".
func (fp FieldPosition) String() string {
	switch fp.Field {
	case FieldTitle:
		return "t" + fp.Position.String()
	case FieldKeyword:
		return "k" + fp.Position.String()
	default:
		return fp.Position.String()
	}
}

// ParseFieldPosition parses a single packed position token.
func ParseFieldPosition(tok string) (FieldPosition, error) {
	if tok == "" {
		return FieldPosition{}, fmt.Errorf("model: empty position token")
	}
	switch tok[0] {
	case 't':
		p, err := ParsePosition(tok[1:])
		if err != nil {
			return FieldPosition{}, err
		}
		return FieldPosition{Field: FieldTitle, Position: p}, nil
	case 'k':
		p, err := ParsePosition(tok[1:])
		if err != nil {
			return FieldPosition{}, err
		}
		return FieldPosition{Field: FieldKeyword, Position: p}, nil
	default:
		p, err := ParsePosition(tok)
		if err != nil {
			return FieldPosition{}, err
		}
		return FieldPosition{Field: FieldContent, Position: p}, nil
	}
}

// PackPositions renders a packed, comma-separated position list, the wire
// format of a FulltextEntry row.
func PackPositions(positions []FieldPosition) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}

// UnpackPositions parses a packed, comma-separated position list. Empty
// input yields an empty, non-nil slice.
func UnpackPositions(packed string) ([]FieldPosition, error) {
	if packed == "" {
		return []FieldPosition{}, nil
	}
	toks := strings.Split(packed, ",")
	out := make([]FieldPosition, 0, len(toks))
	for _, tok := range toks {
		fp, err := ParseFieldPosition(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, fp)
	}
	return out, nil
}
