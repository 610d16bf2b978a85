package memory

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ValentinKolb/blockfile/lib/blockstore"
	"github.com/ValentinKolb/blockfile/lib/blockstore/codec"
	"github.com/ValentinKolb/blockfile/lib/blockstore/memory/internal"
	"github.com/ValentinKolb/blockfile/lib/types"
	"github.com/pkg/errors"
)

// --------------------------------------------------------------------------
// Value Capabilities
// --------------------------------------------------------------------------

// valueOps is the read/write capability of one value type. Every member of
// blockstore.Value has exactly one implementation, returned by opsFor.
type valueOps[V blockstore.Value] interface {
	// set stages value under key in the builder
	set(b *StorageBuilder, key internal.StorageKey, value V) error
	// get returns the value stored under (prefix, key)
	get(s *Storage, prefix string, key blockstore.KeyWrapper) (V, bool, error)
	// byPrefix returns all entries of the given key kind under prefix
	byPrefix(s *Storage, prefix string, kind blockstore.KeyKind) ([]internal.Entry[V], error)
	// byRange returns all entries under prefix matching the bound and op
	byRange(s *Storage, prefix string, bound blockstore.KeyWrapper, op internal.RangeOp) ([]internal.Entry[V], error)
	// count returns the number of entries of the given key kind under prefix
	count(s *Storage, prefix string, kind blockstore.KeyKind) int
}

// storedOps implements valueOps for a value type V that is kept as S inside
// the builder and the storage. encode runs once per write and decode once per
// returned value, so both must produce values that share no memory with
// their input.
type storedOps[V blockstore.Value, S any] struct {
	partition func(*StorageBuilder) *internal.Partition[S]
	table     func(*Storage) *internal.Table[S]
	encode    func(V) (S, error)
	decode    func(S) (V, error)
}

func (o storedOps[V, S]) set(b *StorageBuilder, key internal.StorageKey, value V) error {
	stored, err := o.encode(value)
	if err != nil {
		return err
	}
	return b.write(func() {
		o.partition(b).Data.Store(key, stored)
	})
}

func (o storedOps[V, S]) get(s *Storage, prefix string, key blockstore.KeyWrapper) (V, bool, error) {
	stored, ok := o.table(s).Get(prefix, key)
	if !ok {
		var zero V
		return zero, false, nil
	}
	value, err := o.decode(stored)
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

func (o storedOps[V, S]) byPrefix(s *Storage, prefix string, kind blockstore.KeyKind) ([]internal.Entry[V], error) {
	return o.decodeAll(o.table(s).Prefix(prefix, kind))
}

func (o storedOps[V, S]) byRange(s *Storage, prefix string, bound blockstore.KeyWrapper, op internal.RangeOp) ([]internal.Entry[V], error) {
	return o.decodeAll(o.table(s).Range(prefix, bound, op))
}

func (o storedOps[V, S]) count(s *Storage, prefix string, kind blockstore.KeyKind) int {
	return len(o.table(s).Prefix(prefix, kind))
}

// decodeAll decodes a run of stored entries into owned values
func (o storedOps[V, S]) decodeAll(run []internal.Entry[S]) ([]internal.Entry[V], error) {
	if len(run) == 0 {
		return nil, nil
	}

	out := make([]internal.Entry[V], len(run))
	for i, e := range run {
		value, err := o.decode(e.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "decode value of key %s", e.Key)
		}
		out[i] = internal.Entry[V]{Key: e.Key, Value: value}
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Implementations
// --------------------------------------------------------------------------

func same[T any](v T) (T, error) {
	return v, nil
}

func cloneVector(v []float32) ([]float32, error) {
	return slices.Clone(v), nil
}

// cloneBitmap copies a bitmap. A nil bitmap is stored as an empty one.
func cloneBitmap(bm *roaring.Bitmap) (*roaring.Bitmap, error) {
	if bm == nil {
		return roaring.New(), nil
	}
	return bm.Clone(), nil
}

var (
	stringOps = storedOps[string, string]{
		partition: func(b *StorageBuilder) *internal.Partition[string] { return b.strings },
		table:     func(s *Storage) *internal.Table[string] { return s.strings },
		encode:    same[string],
		decode:    same[string],
	}

	uint32Ops = storedOps[uint32, uint32]{
		partition: func(b *StorageBuilder) *internal.Partition[uint32] { return b.uint32s },
		table:     func(s *Storage) *internal.Table[uint32] { return s.uint32s },
		encode:    same[uint32],
		decode:    same[uint32],
	}

	vectorOps = storedOps[[]float32, []float32]{
		partition: func(b *StorageBuilder) *internal.Partition[[]float32] { return b.vectors },
		table:     func(s *Storage) *internal.Table[[]float32] { return s.vectors },
		encode:    cloneVector,
		decode:    cloneVector,
	}

	bitmapOps = storedOps[*roaring.Bitmap, *roaring.Bitmap]{
		partition: func(b *StorageBuilder) *internal.Partition[*roaring.Bitmap] { return b.bitmaps },
		table:     func(s *Storage) *internal.Table[*roaring.Bitmap] { return s.bitmaps },
		encode:    cloneBitmap,
		decode:    cloneBitmap,
	}

	recordOps = storedOps[types.DataRecord, []byte]{
		partition: func(b *StorageBuilder) *internal.Partition[[]byte] { return b.records },
		table:     func(s *Storage) *internal.Table[[]byte] { return s.records },
		encode:    codec.EncodeRecord,
		decode:    codec.DecodeRecord,
	}
)

// opsFor returns the capability table of the value type V
func opsFor[V blockstore.Value]() valueOps[V] {
	var ops any
	switch blockstore.ValueKindOf[V]() {
	case blockstore.ValueKindString:
		ops = stringOps
	case blockstore.ValueKindUint32:
		ops = uint32Ops
	case blockstore.ValueKindVector:
		ops = vectorOps
	case blockstore.ValueKindBitmap:
		ops = bitmapOps
	case blockstore.ValueKindRecord:
		ops = recordOps
	}
	return ops.(valueOps[V])
}
