package memory

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ValentinKolb/blockfile/lib/blockstore"
	"github.com/ValentinKolb/blockfile/lib/blockstore/memory/internal"
	"github.com/ValentinKolb/blockfile/lib/blockstore/util"
	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Storage Builder
// --------------------------------------------------------------------------

// StorageBuilder is the mutable write-staging container of one instance.
// Every value kind is staged in its own partition, so a builder can hold
// strings and bitmaps (or any other mix) at the same time.
//
// A builder is sealed when its instance is committed. Writes after that fail
// with blockstore.ErrInstanceNotBuilding.
//
// Thread-safety: All methods are safe for concurrent use. Writes to the same
// (prefix, key) race and the last one wins.
type StorageBuilder struct {
	id uuid.UUID

	mu     sync.RWMutex // write lock is only taken to seal
	sealed bool

	strings *internal.Partition[string]
	uint32s *internal.Partition[uint32]
	vectors *internal.Partition[[]float32]
	bitmaps *internal.Partition[*roaring.Bitmap]
	records *internal.Partition[[]byte] // encoded types.DataRecord
}

func newStorageBuilder(id uuid.UUID) *StorageBuilder {
	return &StorageBuilder{
		id:      id,
		strings: internal.NewPartition[string](),
		uint32s: internal.NewPartition[uint32](),
		vectors: internal.NewPartition[[]float32](),
		bitmaps: internal.NewPartition[*roaring.Bitmap](),
		records: internal.NewPartition[[]byte](),
	}
}

// ID returns the id of the instance this builder belongs to
func (b *StorageBuilder) ID() uuid.UUID {
	return b.id
}

// Len returns the number of staged entries over all value kinds
func (b *StorageBuilder) Len() int {
	return b.strings.Data.Size() +
		b.uint32s.Data.Size() +
		b.vectors.Data.Size() +
		b.bitmaps.Data.Size() +
		b.records.Data.Size()
}

// write runs fn while holding the seal lock for reading, so no write can
// interleave with sealing.
func (b *StorageBuilder) write(fn func()) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.sealed {
		return blockstore.ErrInstanceNotBuilding
	}
	fn()
	return nil
}

// seal marks the builder as read-only. It returns false if the builder was
// already sealed.
func (b *StorageBuilder) seal() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return false
	}
	b.sealed = true
	return true
}

// freeze copies all staged entries into a new immutable storage.
// The builder must be sealed.
func (b *StorageBuilder) freeze() *Storage {
	return &Storage{
		id:      b.id,
		strings: b.strings.Freeze(),
		uint32s: b.uint32s.Freeze(),
		vectors: b.vectors.Freeze(),
		bitmaps: b.bitmaps.Freeze(),
		records: b.records.Freeze(),
	}
}

// --------------------------------------------------------------------------
// Storage
// --------------------------------------------------------------------------

// Storage is the immutable committed container of one instance.
//
// Thread-safety: A storage is never modified after commit. All methods can be
// called concurrently without locking.
type Storage struct {
	id uuid.UUID

	strings *internal.Table[string]
	uint32s *internal.Table[uint32]
	vectors *internal.Table[[]float32]
	bitmaps *internal.Table[*roaring.Bitmap]
	records *internal.Table[[]byte]
}

// ID returns the id of the instance this storage belongs to
func (s *Storage) ID() uuid.UUID {
	return s.id
}

// Len returns the number of entries over all value kinds
func (s *Storage) Len() int {
	return s.strings.Len() +
		s.uint32s.Len() +
		s.vectors.Len() +
		s.bitmaps.Len() +
		s.records.Len()
}

// StorageInfo summarizes the content of a committed storage
type StorageInfo struct {
	ID          uuid.UUID              `json:"id"`
	Entries     map[string]int         `json:"entries"` // per value kind
	Prefixes    int                    `json:"prefixes"`
	Values      int64                  `json:"values"`
	ValueBytes  int64                  `json:"value_bytes"`
	MeanBytes   int                    `json:"mean_bytes"`
	MedianBytes int                    `json:"median_bytes"`
	P99Bytes    int                    `json:"p99_bytes"`
	PrefixDist  util.DistributionStats `json:"prefix_distribution"`
	SizeBuckets map[string]float64     `json:"size_buckets,omitempty"`
	ByKind      map[string]util.Stats  `json:"by_kind,omitempty"`
}

// Info scans the storage and returns size statistics.
// This is a full scan and should not be called on a hot path.
func (s *Storage) Info() StorageInfo {
	hist := util.NewSizeHistogram()
	prefixSizes := make(map[string]int)
	info := StorageInfo{
		ID:      s.id,
		Entries: make(map[string]int),
		ByKind:  make(map[string]util.Stats),
	}

	addTable(&info, hist, prefixSizes, blockstore.ValueKindString, s.strings, func(v string) int { return len(v) })
	addTable(&info, hist, prefixSizes, blockstore.ValueKindUint32, s.uint32s, func(uint32) int { return 4 })
	addTable(&info, hist, prefixSizes, blockstore.ValueKindVector, s.vectors, func(v []float32) int { return 4 * len(v) })
	addTable(&info, hist, prefixSizes, blockstore.ValueKindBitmap, s.bitmaps, func(v *roaring.Bitmap) int { return int(v.GetSizeInBytes()) })
	addTable(&info, hist, prefixSizes, blockstore.ValueKindRecord, s.records, func(v []byte) int { return len(v) })

	counts := make([]float64, 0, len(prefixSizes))
	for _, n := range prefixSizes {
		counts = append(counts, float64(n))
	}
	info.Prefixes = len(prefixSizes)
	info.PrefixDist = util.NewDistributionStats(counts)
	info.Values = hist.Count()
	info.MeanBytes = hist.Mean()
	info.MedianBytes = hist.Median()
	info.P99Bytes = hist.Percentile(99)
	info.SizeBuckets = hist.Buckets()

	return info
}

// addTable adds the values of one table to the collected statistics
func addTable[V any](info *StorageInfo, hist *util.SizeHistogram, prefixSizes map[string]int, kind blockstore.ValueKind, t *internal.Table[V], size func(V) int) {
	if t.Len() == 0 {
		return
	}

	sizes := make([]float64, 0, t.Len())
	t.Values(func(v V) bool {
		n := size(v)
		hist.Add(n)
		info.ValueBytes += int64(n)
		sizes = append(sizes, float64(n))
		return true
	})

	for prefix, n := range t.Prefixes() {
		prefixSizes[prefix] += n
	}
	info.Entries[kind.String()] = t.Len()
	info.ByKind[kind.String()] = util.NewStats(sizes)
}
