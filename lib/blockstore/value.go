package blockstore

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ValentinKolb/blockfile/lib/types"
)

// --------------------------------------------------------------------------
// Value Types
// --------------------------------------------------------------------------

// Value is the closed family of value types a blockfile can store.
//   - string: opaque text
//   - uint32: small scalar (e.g. offset ids)
//   - []float32: a raw vector
//   - *roaring.Bitmap: a compressed integer set (e.g. posting lists)
//   - types.DataRecord: a composite record (id, embedding, metadata, document)
//
// Every implementation stores values by copy and hands out copies, so neither
// the writer nor a reader can mutate what a committed blockfile holds.
type Value interface {
	string | uint32 | []float32 | *roaring.Bitmap | types.DataRecord
}

// ValueKind identifies the concrete value type of a blockfile partition.
type ValueKind uint8

const (
	ValueKindInvalid ValueKind = iota
	ValueKindString
	ValueKindUint32
	ValueKindVector
	ValueKindBitmap
	ValueKindRecord
)

func (k ValueKind) String() string {
	switch k {
	case ValueKindString:
		return "string"
	case ValueKindUint32:
		return "uint32"
	case ValueKindVector:
		return "vector"
	case ValueKindBitmap:
		return "bitmap"
	case ValueKindRecord:
		return "record"
	default:
		return "invalid"
	}
}

// ValueKindOf returns the ValueKind of the value type V.
func ValueKindOf[V Value]() ValueKind {
	var zero V
	switch any(zero).(type) {
	case string:
		return ValueKindString
	case uint32:
		return ValueKindUint32
	case []float32:
		return ValueKindVector
	case *roaring.Bitmap:
		return ValueKindBitmap
	case types.DataRecord:
		return ValueKindRecord
	default:
		return ValueKindInvalid
	}
}

// --------------------------------------------------------------------------
// Entry
// --------------------------------------------------------------------------

// Entry is one (prefix, key, value) triple returned by range and prefix
// queries. The value is a copy owned by the caller.
type Entry[K Key, V Value] struct {
	Prefix string
	Key    K
	Value  V
}
