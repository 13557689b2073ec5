package model

import "time"

// TocEntry is the per-document descriptor owned by the TOC table. It is
// unique by (external_id, instance_id).
type TocEntry struct {
	ExternalID          ExternalID
	Title               string
	URL                 string
	Hash                string
	ExternalRelevanceRatio float64 // default 1.0
	Date                *time.Time
	Metadata            map[string]string // domain-opaque, host-chosen
}

// NormalizedRelevanceRatio returns ExternalRelevanceRatio, defaulting to 1.0
// when the zero value was left unset.
func (t TocEntry) NormalizedRelevanceRatio() float64 {
	if t.ExternalRelevanceRatio == 0 {
		return 1.0
	}
	return t.ExternalRelevanceRatio
}

// Metadata is the lazily-created per-document word count and image
// collection, one row per TOC entry.
type Metadata struct {
	WordCount int
	Images    []string // image_collection, JSON-serialized at the storage boundary
}

// TocEntryWithMetadata pairs a TocEntry with its internal surrogate id and
// (if loaded) word count, as returned by Storage.GetTocByExternalIDs and
// consumed by the engine and the snippet query builder.
type TocEntryWithMetadata struct {
	InternalID int
	Entry      TocEntry
	WordCount  int
}

// Word is a surface form, truncated to at most 255 bytes at the storage
// boundary. Uniqueness is on the truncated form; words are append-only.
type Word struct {
	ID   int
	Name string
}

// MaxWordLength is the persisted-contract byte bound on Word.Name. Preserve
// bit-exactly: it is part of the wire format of existing databases.
const MaxWordLength = 255

// TruncateWord deterministically truncates a surface form to MaxWordLength
// bytes. The storage applies it to every word it writes or looks up.
func TruncateWord(s string) string {
	if len(s) <= MaxWordLength {
		return s
	}
	return s[:MaxWordLength]
}
