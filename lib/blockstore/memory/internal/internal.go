package internal

import (
	"slices"
	"sort"

	"github.com/ValentinKolb/blockfile/lib/blockstore"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Range Operations
// --------------------------------------------------------------------------

// RangeOp selects one of the four single-bound range comparisons
type RangeOp int

const (
	RangeGt RangeOp = iota
	RangeGte
	RangeLt
	RangeLte
)

func (op RangeOp) String() string {
	switch op {
	case RangeGt:
		return "Gt"
	case RangeGte:
		return "Gte"
	case RangeLt:
		return "Lt"
	case RangeLte:
		return "Lte"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Entry Types
// --------------------------------------------------------------------------

// StorageKey is the composite (prefix, key) a value is stored under
type StorageKey struct {
	Prefix string
	Key    blockstore.KeyWrapper
}

// Entry is one key-value pair of a frozen run. The prefix is implied by the
// run the entry belongs to.
type Entry[V any] struct {
	Key   blockstore.KeyWrapper
	Value V
}

// --------------------------------------------------------------------------
// Partition Type (mutable, builder side)
// --------------------------------------------------------------------------

// Partition holds all entries of one value kind of a builder
type Partition[V any] struct {
	Data *xsync.MapOf[StorageKey, V] // Map of staged entries
}

// NewPartition creates a new empty partition
func NewPartition[V any]() *Partition[V] {
	return &Partition[V]{
		Data: xsync.NewMapOf[StorageKey, V](),
	}
}

// Freeze copies the staged entries into an immutable table.
// Entries of one prefix end up in one run sorted by key.
//
// Thread-safety: The partition must not be written to while Freeze runs.
func (p *Partition[V]) Freeze() *Table[V] {
	runs := make(map[string][]Entry[V])

	p.Data.Range(func(k StorageKey, v V) bool {
		runs[k.Prefix] = append(runs[k.Prefix], Entry[V]{Key: k.Key, Value: v})
		return true
	})

	size := 0
	for prefix, run := range runs {
		slices.SortFunc(run, func(a, b Entry[V]) int {
			return blockstore.Compare(a.Key, b.Key)
		})
		runs[prefix] = slices.Clip(run)
		size += len(run)
	}

	return &Table[V]{runs: runs, size: size}
}

// --------------------------------------------------------------------------
// Table Type (immutable, storage side)
// --------------------------------------------------------------------------

// Table holds all entries of one value kind of a committed storage.
// It is never modified after Freeze returned it.
//
// Every run is ordered by (key kind, key), so the entries of one key kind
// form a contiguous sub-run that all lookups are restricted to.
//
// Thread-safety: All methods are read-only and can be called concurrently.
// The returned slices alias the table and must not be modified.
type Table[V any] struct {
	runs map[string][]Entry[V]
	size int
}

// Len returns the total number of entries
func (t *Table[V]) Len() int {
	return t.size
}

// Prefixes returns the number of entries per prefix
func (t *Table[V]) Prefixes() map[string]int {
	out := make(map[string]int, len(t.runs))
	for prefix, run := range t.runs {
		out[prefix] = len(run)
	}
	return out
}

// Values calls fn for every stored value until fn returns false
func (t *Table[V]) Values(fn func(V) bool) {
	for _, run := range t.runs {
		for _, e := range run {
			if !fn(e.Value) {
				return
			}
		}
	}
}

// Get returns the value stored under (prefix, key)
func (t *Table[V]) Get(prefix string, key blockstore.KeyWrapper) (V, bool) {
	run := t.runs[prefix]
	i, found := slices.BinarySearchFunc(run, key, func(e Entry[V], k blockstore.KeyWrapper) int {
		return blockstore.Compare(e.Key, k)
	})
	if !found {
		var zero V
		return zero, false
	}
	return run[i].Value, true
}

// Prefix returns all entries under prefix whose key is of the given kind
func (t *Table[V]) Prefix(prefix string, kind blockstore.KeyKind) []Entry[V] {
	run := t.runs[prefix]
	lo := sort.Search(len(run), func(i int) bool { return run[i].Key.Kind() >= kind })
	hi := sort.Search(len(run), func(i int) bool { return run[i].Key.Kind() > kind })
	return run[lo:hi]
}

// Range returns all entries under prefix whose key compares to bound as
// requested by op. Only entries of the bound's key kind are considered.
func (t *Table[V]) Range(prefix string, bound blockstore.KeyWrapper, op RangeOp) []Entry[V] {
	run := t.Prefix(prefix, bound.Kind())

	// first position whose key is >= bound / > bound
	geq := sort.Search(len(run), func(i int) bool { return blockstore.Compare(run[i].Key, bound) >= 0 })
	gt := sort.Search(len(run), func(i int) bool { return blockstore.Compare(run[i].Key, bound) > 0 })

	switch op {
	case RangeGt:
		return run[gt:]
	case RangeGte:
		return run[geq:]
	case RangeLt:
		return run[:geq]
	case RangeLte:
		return run[:gt]
	default:
		return nil
	}
}
