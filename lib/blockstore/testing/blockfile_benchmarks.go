package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ValentinKolb/blockfile/lib/blockstore/memory"
	"github.com/ValentinKolb/blockfile/lib/types"
	"github.com/google/uuid"
)

// benchKeys is the number of keys per prefix in read benchmarks
const benchKeys = 10_000

// RunBlockfileBenchmarks runs all benchmarks for a blockfile implementation
func RunBlockfileBenchmarks(b *testing.B, name string, factory ManagerFactory) {

	b.Run("Set", func(b *testing.B) {
		benchmarkSet(b, factory())
	})

	b.Run("SetRecord", func(b *testing.B) {
		benchmarkSetRecord(b, factory())
	})

	b.Run("Commit", func(b *testing.B) {
		benchmarkCommit(b, factory())
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory())
	})

	b.Run("GetBitmap", func(b *testing.B) {
		benchmarkGetBitmap(b, factory())
	})

	b.Run("GetByPrefix", func(b *testing.B) {
		benchmarkGetByPrefix(b, factory())
	})

	b.Run("GetGte", func(b *testing.B) {
		benchmarkGetGte(b, factory())
	})

	b.Run("OpenReader", func(b *testing.B) {
		benchmarkOpenReader(b, factory())
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// committedNumbered commits one instance with benchKeys uint32 keys under
// "prefix" and returns its id
func committedNumbered(b *testing.B, m *memory.StorageManager) uuid.UUID {
	w := memory.NewWriter(m)
	for i := 0; i < benchKeys; i++ {
		mustSet(b, w, "prefix", uint32(i), fmt.Sprintf("value-%d", i))
	}
	mustCommit(b, w)
	return w.ID()
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Set with distinct keys from parallel goroutines
func benchmarkSet(b *testing.B, m *memory.StorageManager) {
	w := memory.NewWriter(m)
	var counter atomic.Uint32

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			k := counter.Add(1)
			if err := memory.Set(w, "prefix", k, "value"); err != nil {
				b.Errorf("Set failed: %v", err)
				return
			}
		}
	})
}

// Benchmark for Set of encoded records
func benchmarkSetRecord(b *testing.B, m *memory.StorageManager) {
	w := memory.NewWriter(m)
	embedding := make([]float32, 128)
	for i := range embedding {
		embedding[i] = rand.Float32()
	}
	record := types.DataRecord{
		ID:        "record",
		Embedding: embedding,
		Metadata:  types.Metadata{"source": types.String("bench"), "page": types.Int(1)},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := memory.Set(w, "records", uint32(i), record); err != nil {
			b.Fatalf("Set failed: %v", err)
		}
	}
}

// Benchmark for Commit of a 1000 entry instance (including the writes)
func benchmarkCommit(b *testing.B, m *memory.StorageManager) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := memory.NewWriter(m)
		for k := 0; k < 1000; k++ {
			mustSet(b, w, "prefix", uint32(k), "value")
		}
		mustCommit(b, w)
		m.Drop(w.ID())
	}
}

// Benchmark for Get with random keys from parallel goroutines
func benchmarkGet(b *testing.B, m *memory.StorageManager) {
	r := mustOpen[uint32, string](b, m, committedNumbered(b, m))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rng := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			if _, err := r.Get("prefix", uint32(rng.Intn(benchKeys))); err != nil {
				b.Errorf("Get failed: %v", err)
				return
			}
		}
	})
}

// Benchmark for Get of bitmaps (includes the clone)
func benchmarkGetBitmap(b *testing.B, m *memory.StorageManager) {
	w := memory.NewWriter(m)
	for i := 0; i < 100; i++ {
		bm := roaring.New()
		bm.AddRange(uint64(i*1000), uint64(i*1000+500))
		mustSet(b, w, "postings", fmt.Sprintf("term-%d", i), bm)
	}
	mustCommit(b, w)
	r := mustOpen[string, *roaring.Bitmap](b, m, w.ID())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Get("postings", fmt.Sprintf("term-%d", i%100)); err != nil {
			b.Fatalf("Get failed: %v", err)
		}
	}
}

// Benchmark for GetByPrefix over benchKeys entries
func benchmarkGetByPrefix(b *testing.B, m *memory.StorageManager) {
	r := mustOpen[uint32, string](b, m, committedNumbered(b, m))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.GetByPrefix("prefix"); err != nil {
			b.Fatalf("GetByPrefix failed: %v", err)
		}
	}
}

// Benchmark for GetGte returning the upper 1% of the keys
func benchmarkGetGte(b *testing.B, m *memory.StorageManager) {
	r := mustOpen[uint32, string](b, m, committedNumbered(b, m))
	bound := uint32(benchKeys - benchKeys/100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.GetGte("prefix", bound); err != nil {
			b.Fatalf("GetGte failed: %v", err)
		}
	}
}

// Benchmark for OpenReader on a committed instance
func benchmarkOpenReader(b *testing.B, m *memory.StorageManager) {
	id := committedNumbered(b, m)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := memory.OpenReader[uint32, string](m, id); err != nil {
				b.Errorf("OpenReader failed: %v", err)
				return
			}
		}
	})
}
