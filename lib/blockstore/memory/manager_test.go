package memory

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ValentinKolb/blockfile/lib/blockstore"
	"github.com/ValentinKolb/blockfile/lib/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewStorageManager()

	builder := m.Create()
	assert.NotEqual(t, uuid.Nil, builder.ID())

	_, err := m.Get(builder.ID())
	assert.ErrorIs(t, err, blockstore.ErrNotFound)

	require.NoError(t, m.Commit(builder.ID()))

	storage, err := m.Get(builder.ID())
	require.NoError(t, err)
	assert.Equal(t, builder.ID(), storage.ID())
	assert.Equal(t, 0, storage.Len())

	assert.ErrorIs(t, m.Commit(builder.ID()), blockstore.ErrInstanceNotBuilding)
	assert.ErrorIs(t, m.Commit(uuid.New()), blockstore.ErrInstanceNotBuilding)
}

func TestManagerDrop(t *testing.T) {
	m := NewStorageManager()

	w := NewWriter(m)
	require.NoError(t, Set(w, "p", "k", "v"))
	require.NoError(t, w.Commit())

	r, err := OpenReader[string, string](m, w.ID())
	require.NoError(t, err)

	assert.True(t, m.Drop(w.ID()))
	assert.False(t, m.Drop(w.ID()))

	_, err = OpenReader[string, string](m, w.ID())
	assert.True(t, blockstore.IsNotFound(err))

	// an open reader keeps its storage
	v, err := r.Get("p", "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	// a dropped builder rejects writes and commits
	building := NewWriter(m)
	assert.True(t, m.Drop(building.ID()))
	assert.ErrorIs(t, Set(building, "p", "k", "v"), blockstore.ErrInstanceNotBuilding)
	assert.ErrorIs(t, building.Commit(), blockstore.ErrInstanceNotBuilding)
}

func TestManagerConcurrentCommit(t *testing.T) {
	m := NewStorageManager()
	w := NewWriter(m)
	require.NoError(t, Set(w, "p", uint32(1), "v"))

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w.Commit() == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())

	r := MustOpenReader[uint32, string](m, w.ID())
	assert.Equal(t, 1, r.Count("p"))
}

func TestManagerInfo(t *testing.T) {
	m := NewStorageManager()

	building := NewWriter(m)
	require.NoError(t, Set(building, "p", "a", "1"))
	require.NoError(t, Set(building, "p", "b", uint32(2)))

	committed := NewWriter(m)
	require.NoError(t, Set(committed, "p", "a", "1"))
	require.NoError(t, committed.Commit())

	info := m.Info()
	assert.Equal(t, ManagerInfo{Building: 1, Committed: 1, StagedEntries: 2, StoredEntries: 1}, info)
}

func TestManagerMetrics(t *testing.T) {
	m := NewStorageManager()

	w := NewWriter(m)
	require.NoError(t, w.Commit())
	assert.Error(t, w.Commit())
	_, err := OpenReader[string, string](m, w.ID())
	require.NoError(t, err)
	NewWriter(m)

	var buf bytes.Buffer
	m.WritePrometheus(&buf)
	out := buf.String()

	assert.Contains(t, out, "blockfile_instances_created_total 2")
	assert.Contains(t, out, "blockfile_instances_committed_total 1")
	assert.Contains(t, out, "blockfile_commit_failures_total 1")
	assert.Contains(t, out, "blockfile_reader_opens_total 1")
	assert.Contains(t, out, `blockfile_instances{state="building"} 1`)
	assert.Contains(t, out, `blockfile_instances{state="committed"} 1`)
}

func TestStorageInfo(t *testing.T) {
	m := NewStorageManager()
	w := NewWriter(m)

	for i := 0; i < 10; i++ {
		require.NoError(t, Set(w, "strings", uint32(i), "0123456789"))
	}
	require.NoError(t, Set(w, "vectors", "v", []float32{1, 2, 3, 4}))
	require.NoError(t, Set(w, "bitmaps", "b", roaring.BitmapOf(1, 2, 3)))
	require.NoError(t, Set(w, "records", "r", types.DataRecord{ID: "r"}))
	require.NoError(t, w.Commit())

	storage, err := m.Get(w.ID())
	require.NoError(t, err)
	assert.Equal(t, 13, storage.Len())

	info := storage.Info()
	assert.Equal(t, w.ID(), info.ID)
	assert.Equal(t, 4, info.Prefixes)
	assert.Equal(t, map[string]int{"string": 10, "vector": 1, "bitmap": 1, "record": 1}, info.Entries)
	assert.Equal(t, 10.0, info.ByKind["string"].Mean)
	assert.Equal(t, 16.0, info.ByKind["vector"].Max)
	assert.Greater(t, info.ValueBytes, int64(100+16))
	assert.Equal(t, int64(13), info.Values)
	assert.Equal(t, int(info.ValueBytes/info.Values), info.MeanBytes)
	assert.Equal(t, 12, info.MedianBytes) // midpoint of the 8-16 bucket
	assert.Equal(t, 10.0, info.PrefixDist.Max)
	assert.NotEmpty(t, info.SizeBuckets)
}

func TestNilBitmapIsStoredEmpty(t *testing.T) {
	m := NewStorageManager()
	w := NewWriter(m)
	require.NoError(t, Set[string, *roaring.Bitmap](w, "p", "nil", nil))
	require.NoError(t, w.Commit())

	bm, err := MustOpenReader[string, *roaring.Bitmap](m, w.ID()).Get("p", "nil")
	require.NoError(t, err)
	require.NotNil(t, bm)
	assert.True(t, bm.IsEmpty())
}

func TestReaderErrorsCarryContext(t *testing.T) {
	m := NewStorageManager()
	w := NewWriter(m)
	require.NoError(t, Set(w, "p", uint32(1), "v"))
	require.NoError(t, w.Commit())
	r := MustOpenReader[uint32, string](m, w.ID())

	_, err := r.GetGt("p", 1)
	require.Error(t, err)
	assert.True(t, blockstore.IsNotFound(err))
	assert.Contains(t, err.Error(), `Gt 1 in prefix "p"`)

	_, err = r.Get("p", 2)
	assert.Contains(t, err.Error(), `key 2 in prefix "p"`)
}
