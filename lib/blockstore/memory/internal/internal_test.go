package internal

import (
	"testing"

	"github.com/ValentinKolb/blockfile/lib/blockstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sk[K blockstore.Key](prefix string, key K) StorageKey {
	return StorageKey{Prefix: prefix, Key: blockstore.WrapKey(key)}
}

func keys(run []Entry[string]) []string {
	out := make([]string, len(run))
	for i, e := range run {
		out[i] = e.Key.String()
	}
	return out
}

func TestFreezeSortsPerPrefix(t *testing.T) {
	p := NewPartition[string]()
	p.Data.Store(sk("a", uint32(3)), "a3")
	p.Data.Store(sk("a", uint32(1)), "a1")
	p.Data.Store(sk("b", uint32(2)), "b2")
	p.Data.Store(sk("a", uint32(2)), "a2")

	table := p.Freeze()
	assert.Equal(t, 4, table.Len())
	assert.Equal(t, map[string]int{"a": 3, "b": 1}, table.Prefixes())

	run := table.Prefix("a", blockstore.KeyKindUint32)
	assert.Equal(t, []string{"uint32(1)", "uint32(2)", "uint32(3)"}, keys(run))

	// later writes to the partition do not change the table
	p.Data.Store(sk("a", uint32(0)), "a0")
	assert.Len(t, table.Prefix("a", blockstore.KeyKindUint32), 3)
}

func TestTableGet(t *testing.T) {
	p := NewPartition[string]()
	p.Data.Store(sk("p", "x"), "x")
	p.Data.Store(sk("p", "y"), "y")
	table := p.Freeze()

	v, ok := table.Get("p", blockstore.WrapKey("y"))
	require.True(t, ok)
	assert.Equal(t, "y", v)

	_, ok = table.Get("p", blockstore.WrapKey("z"))
	assert.False(t, ok)
	_, ok = table.Get("q", blockstore.WrapKey("x"))
	assert.False(t, ok)
	// same ordinal, different kind
	_, ok = table.Get("p", blockstore.WrapKey(true))
	assert.False(t, ok)
}

func TestTableMixedKinds(t *testing.T) {
	p := NewPartition[string]()
	p.Data.Store(sk("p", "1"), "s")
	p.Data.Store(sk("p", true), "b")
	p.Data.Store(sk("p", uint32(1)), "u")
	p.Data.Store(sk("p", float32(1)), "f")
	table := p.Freeze()

	for _, kind := range []blockstore.KeyKind{
		blockstore.KeyKindString, blockstore.KeyKindBool, blockstore.KeyKindUint32, blockstore.KeyKindFloat32,
	} {
		run := table.Prefix("p", kind)
		require.Len(t, run, 1, kind.String())
		assert.Equal(t, kind, run[0].Key.Kind())
	}

	// ranges never cross into another kind
	assert.Len(t, table.Range("p", blockstore.WrapKey(uint32(0)), RangeGt), 1)
	assert.Len(t, table.Range("p", blockstore.WrapKey(float32(5)), RangeLt), 1)
	assert.Empty(t, table.Range("p", blockstore.WrapKey(uint32(1)), RangeGt))
}

func TestTableRange(t *testing.T) {
	p := NewPartition[string]()
	for _, k := range []uint32{10, 20, 30} {
		p.Data.Store(sk("p", k), "")
	}
	table := p.Freeze()

	tests := []struct {
		op    RangeOp
		bound uint32
		want  []string
	}{
		{RangeGt, 20, []string{"uint32(30)"}},
		{RangeGt, 30, []string{}},
		{RangeGt, 5, []string{"uint32(10)", "uint32(20)", "uint32(30)"}},
		{RangeGte, 20, []string{"uint32(20)", "uint32(30)"}},
		{RangeGte, 21, []string{"uint32(30)"}},
		{RangeGte, 31, []string{}},
		{RangeLt, 20, []string{"uint32(10)"}},
		{RangeLt, 10, []string{}},
		{RangeLt, 31, []string{"uint32(10)", "uint32(20)", "uint32(30)"}},
		{RangeLte, 20, []string{"uint32(10)", "uint32(20)"}},
		{RangeLte, 19, []string{"uint32(10)"}},
		{RangeLte, 9, []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.op.String(), func(t *testing.T) {
			got := table.Range("p", blockstore.WrapKey(tc.bound), tc.op)
			assert.Equal(t, tc.want, keys(got), "%s %d", tc.op, tc.bound)
		})
	}

	assert.Empty(t, table.Range("missing", blockstore.WrapKey(uint32(1)), RangeGte))
	assert.Nil(t, table.Range("p", blockstore.WrapKey(uint32(1)), RangeOp(99)))
}

func TestTableValues(t *testing.T) {
	p := NewPartition[int]()
	for i := 0; i < 10; i++ {
		p.Data.Store(sk("p", uint32(i)), i)
	}
	table := p.Freeze()

	sum := 0
	table.Values(func(v int) bool {
		sum += v
		return true
	})
	assert.Equal(t, 45, sum)

	seen := 0
	table.Values(func(int) bool {
		seen++
		return seen < 3
	})
	assert.Equal(t, 3, seen)
}
