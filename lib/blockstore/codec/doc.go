// Package codec provides the binary encoding used to store composite
// records inside a blockfile.
//
// Records are not kept as live Go values inside a committed blockfile. They
// are encoded once on write and decoded on every read, so a reader always
// receives a fresh copy and nothing it does can reach back into the
// committed container.
//
// The format is a compact flag-based layout: a version byte, a flags byte
// announcing which optional fields follow (embedding, metadata, document)
// and then the length-prefixed fields themselves. Absent optional fields cost
// nothing but their flag bit, and a nil field is distinguishable from an
// empty one (nil metadata vs. an empty metadata map).
//
// Metadata keys are written in sorted order, so encoding the same record
// twice produces identical bytes.
//
// Thread Safety:
//
//	All functions are stateless and safe for concurrent use.
package codec
