package memory_test

import (
	"testing"

	"github.com/ValentinKolb/blockfile/lib/blockstore/memory"
	bftesting "github.com/ValentinKolb/blockfile/lib/blockstore/testing"
)

func Test(t *testing.T) {
	bftesting.RunBlockfileTests(t, "Memory", func() *memory.StorageManager {
		return memory.NewStorageManager()
	})
}

func Benchmark(b *testing.B) {
	bftesting.RunBlockfileBenchmarks(b, "Memory", func() *memory.StorageManager {
		return memory.NewStorageManager()
	})
}
