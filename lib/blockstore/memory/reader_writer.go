package memory

import (
	"fmt"

	"github.com/ValentinKolb/blockfile/lib/blockstore"
	"github.com/ValentinKolb/blockfile/lib/blockstore/memory/internal"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// --------------------------------------------------------------------------
// Writer
// --------------------------------------------------------------------------

// Writer is the write façade of one building instance
type Writer struct {
	manager *StorageManager
	builder *StorageBuilder
}

// NewWriter creates a new instance in manager and returns a writer for it
func NewWriter(manager *StorageManager) *Writer {
	return &Writer{
		manager: manager,
		builder: manager.Create(),
	}
}

// ID returns the id of the instance being written
func (w *Writer) ID() uuid.UUID {
	return w.builder.ID()
}

// Commit publishes everything written so far. Afterward the instance can be
// opened with OpenReader and the writer rejects further writes.
func (w *Writer) Commit() error {
	return w.manager.Commit(w.builder.ID())
}

// Set stages value under (prefix, key). Writing the same (prefix, key) twice
// keeps the last value. The value is copied, later changes to it by the
// caller are not visible in the blockfile.
//
// Errors:
//   - blockstore.ErrInvalidPrefix: prefix is empty
//   - blockstore.ErrInvalidKey: key is NaN
//   - blockstore.ErrInstanceNotBuilding: the instance was committed or dropped
//
// Set is a function and not a method since Go methods cannot have their own
// type parameters.
func Set[K blockstore.Key, V blockstore.Value](w *Writer, prefix string, key K, value V) error {
	if prefix == "" {
		return blockstore.ErrInvalidPrefix
	}
	wrapped := blockstore.WrapKey(key)
	if !wrapped.Valid() {
		return errors.Wrapf(blockstore.ErrInvalidKey, "key %s", wrapped)
	}
	return opsFor[V]().set(w.builder, internal.StorageKey{Prefix: prefix, Key: wrapped}, value)
}

// --------------------------------------------------------------------------
// Reader
// --------------------------------------------------------------------------

// Reader is the typed read façade of one committed instance. K and V select
// which entries of the instance are visible: entries written with another key
// or value type are never returned.
//
// Thread-safety: A reader holds an immutable storage and is safe for
// concurrent use. All returned values are copies owned by the caller.
type Reader[K blockstore.Key, V blockstore.Value] struct {
	storage *Storage
	ops     valueOps[V]
	kind    blockstore.KeyKind
}

// OpenReader opens a reader on the committed instance id. It returns
// blockstore.ErrNotFound if id is unknown or not committed yet.
func OpenReader[K blockstore.Key, V blockstore.Value](manager *StorageManager, id uuid.UUID) (*Reader[K, V], error) {
	storage, err := manager.Get(id)
	if err != nil {
		return nil, err
	}

	manager.readerOpens.Inc()
	return &Reader[K, V]{
		storage: storage,
		ops:     opsFor[V](),
		kind:    blockstore.KindOf[K](),
	}, nil
}

// MustOpenReader is like OpenReader but panics if the instance cannot be
// opened. Use it where a missing instance is a programming error.
func MustOpenReader[K blockstore.Key, V blockstore.Value](manager *StorageManager, id uuid.UUID) *Reader[K, V] {
	r, err := OpenReader[K, V](manager, id)
	if err != nil {
		panic(fmt.Sprintf("open reader for %s: %v", id, err))
	}
	return r
}

// ID returns the id of the instance being read
func (r *Reader[K, V]) ID() uuid.UUID {
	return r.storage.ID()
}

// Get returns the value stored under (prefix, key)
func (r *Reader[K, V]) Get(prefix string, key K) (V, error) {
	value, ok, err := r.ops.get(r.storage, prefix, blockstore.WrapKey(key))
	if err != nil {
		return value, err
	}
	if !ok {
		return value, errors.Wrapf(blockstore.ErrNotFound, "key %v in prefix %q", key, prefix)
	}
	return value, nil
}

// GetByPrefix returns all entries under prefix in ascending key order
func (r *Reader[K, V]) GetByPrefix(prefix string) ([]blockstore.Entry[K, V], error) {
	run, err := r.ops.byPrefix(r.storage, prefix, r.kind)
	if err != nil {
		return nil, err
	}
	if len(run) == 0 {
		return nil, errors.Wrapf(blockstore.ErrNotFound, "prefix %q", prefix)
	}
	return r.entries(prefix, run), nil
}

// GetGt returns all entries under prefix with a key greater than key
func (r *Reader[K, V]) GetGt(prefix string, key K) ([]blockstore.Entry[K, V], error) {
	return r.getRange(prefix, key, internal.RangeGt)
}

// GetGte returns all entries under prefix with a key greater than or equal
// to key
func (r *Reader[K, V]) GetGte(prefix string, key K) ([]blockstore.Entry[K, V], error) {
	return r.getRange(prefix, key, internal.RangeGte)
}

// GetLt returns all entries under prefix with a key less than key
func (r *Reader[K, V]) GetLt(prefix string, key K) ([]blockstore.Entry[K, V], error) {
	return r.getRange(prefix, key, internal.RangeLt)
}

// GetLte returns all entries under prefix with a key less than or equal to
// key
func (r *Reader[K, V]) GetLte(prefix string, key K) ([]blockstore.Entry[K, V], error) {
	return r.getRange(prefix, key, internal.RangeLte)
}

// Count returns the number of entries under prefix visible to this reader
func (r *Reader[K, V]) Count(prefix string) int {
	return r.ops.count(r.storage, prefix, r.kind)
}

// getRange runs a single-bound range query. A NaN bound matches nothing.
func (r *Reader[K, V]) getRange(prefix string, key K, op internal.RangeOp) ([]blockstore.Entry[K, V], error) {
	bound := blockstore.WrapKey(key)
	if bound.Valid() {
		run, err := r.ops.byRange(r.storage, prefix, bound, op)
		if err != nil {
			return nil, err
		}
		if len(run) > 0 {
			return r.entries(prefix, run), nil
		}
	}
	return nil, errors.Wrapf(blockstore.ErrNotFound, "%s %v in prefix %q", op, key, prefix)
}

// entries converts a decoded run into typed entries
func (r *Reader[K, V]) entries(prefix string, run []internal.Entry[V]) []blockstore.Entry[K, V] {
	out := make([]blockstore.Entry[K, V], 0, len(run))
	for _, e := range run {
		key, ok := blockstore.UnwrapKey[K](e.Key)
		if !ok {
			// runs are restricted to the reader's key kind
			continue
		}
		out = append(out, blockstore.Entry[K, V]{Prefix: prefix, Key: key, Value: e.Value})
	}
	return out
}
