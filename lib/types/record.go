// Package types contains the domain records stored by segment blockfiles.
package types

import (
	"maps"
	"slices"
)

// DataRecord is the composite record a record segment keeps per embedding:
// the user-facing identifier, the embedding itself and the optional metadata
// and document.
type DataRecord struct {
	ID        string
	Embedding []float32
	Metadata  Metadata // nil = no metadata
	Document  *string  // nil = no document
}

// Clone returns a deep copy of the record.
func (r DataRecord) Clone() DataRecord {
	out := DataRecord{
		ID:        r.ID,
		Embedding: slices.Clone(r.Embedding),
	}
	if r.Metadata != nil {
		out.Metadata = maps.Clone(r.Metadata)
	}
	if r.Document != nil {
		doc := *r.Document
		out.Document = &doc
	}
	return out
}

// Equal reports whether both records have the same id, embedding, metadata
// and document.
func (r DataRecord) Equal(o DataRecord) bool {
	if r.ID != o.ID || !slices.Equal(r.Embedding, o.Embedding) {
		return false
	}
	if (r.Metadata == nil) != (o.Metadata == nil) || !r.Metadata.Equal(o.Metadata) {
		return false
	}
	if (r.Document == nil) != (o.Document == nil) {
		return false
	}
	return r.Document == nil || *r.Document == *o.Document
}
