package testing

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ValentinKolb/blockfile/lib/blockstore"
	"github.com/ValentinKolb/blockfile/lib/blockstore/memory"
	"github.com/ValentinKolb/blockfile/lib/types"
	"github.com/google/uuid"
)

// ManagerFactory is a function that creates a new, empty storage manager
type ManagerFactory func() *memory.StorageManager

// RunBlockfileTests runs the conformance test suite for a blockfile
// implementation.
func RunBlockfileTests(t *testing.T, name string, factory ManagerFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("StringKeyStringValue", func(t *testing.T) {
			testStringKeyStringValue(t, factory())
		})

		t.Run("StringKeyBitmapValue", func(t *testing.T) {
			testStringKeyBitmapValue(t, factory())
		})

		t.Run("StringKeyRecordValue", func(t *testing.T) {
			testStringKeyRecordValue(t, factory())
		})

		t.Run("ScalarKeys", func(t *testing.T) {
			testScalarKeys(t, factory())
		})

		t.Run("VectorAndUint32Values", func(t *testing.T) {
			testVectorAndUint32Values(t, factory())
		})

		t.Run("GetByPrefix", func(t *testing.T) {
			testGetByPrefix(t, factory())
		})

		t.Run("RangeQueries", func(t *testing.T) {
			testRangeQueries(t, factory)
		})

		t.Run("FractionalFloatBounds", func(t *testing.T) {
			testFractionalFloatBounds(t, factory())
		})

		t.Run("StringRangeOrder", func(t *testing.T) {
			testStringRangeOrder(t, factory())
		})

		t.Run("NotCommitted", func(t *testing.T) {
			testNotCommitted(t, factory())
		})

		t.Run("WriterMisuse", func(t *testing.T) {
			testWriterMisuse(t, factory())
		})

		t.Run("LastWriteWins", func(t *testing.T) {
			testLastWriteWins(t, factory())
		})

		t.Run("OwnedCopies", func(t *testing.T) {
			testOwnedCopies(t, factory())
		})

		t.Run("IdempotentReads", func(t *testing.T) {
			testIdempotentReads(t, factory())
		})

		t.Run("IsolatedInstances", func(t *testing.T) {
			testIsolatedInstances(t, factory())
		})

		t.Run("ConcurrentWritersAndReaders", func(t *testing.T) {
			testConcurrentWritersAndReaders(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// mustSet writes one entry and fails the test on error
func mustSet[K blockstore.Key, V blockstore.Value](t testing.TB, w *memory.Writer, prefix string, key K, value V) {
	t.Helper()
	if err := memory.Set(w, prefix, key, value); err != nil {
		t.Fatalf("Set(%q, %v) failed: %v", prefix, key, err)
	}
}

// mustCommit commits the writer and fails the test on error
func mustCommit(t testing.TB, w *memory.Writer) {
	t.Helper()
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
}

// mustOpen opens a reader and fails the test on error
func mustOpen[K blockstore.Key, V blockstore.Value](t testing.TB, m *memory.StorageManager, id uuid.UUID) *memory.Reader[K, V] {
	t.Helper()
	r, err := memory.OpenReader[K, V](m, id)
	if err != nil {
		t.Fatalf("OpenReader(%s) failed: %v", id, err)
	}
	return r
}

// keysOf returns the keys of entries in result order
func keysOf[K blockstore.Key, V blockstore.Value](entries []blockstore.Entry[K, V]) []K {
	keys := make([]K, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// writeNumbered writes keys 1..3 with values "value1".."value3" under "prefix"
func writeNumbered[K uint32 | float32](t testing.TB, m *memory.StorageManager) uuid.UUID {
	w := memory.NewWriter(m)
	for i := 1; i <= 3; i++ {
		mustSet(t, w, "prefix", K(i), fmt.Sprintf("value%d", i))
	}
	mustCommit(t, w)
	return w.ID()
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testStringKeyStringValue(t *testing.T, m *memory.StorageManager) {
	w := memory.NewWriter(m)
	mustSet(t, w, "prefix", "key1", "value1")
	mustCommit(t, w)

	r := mustOpen[string, string](t, m, w.ID())
	if r.ID() != w.ID() {
		t.Errorf("Expected reader id %s, got %s", w.ID(), r.ID())
	}

	value, err := r.Get("prefix", "key1")
	if err != nil {
		t.Fatalf("Expected key1 to exist, got %v", err)
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %q", value)
	}

	if _, err := r.Get("prefix", "missing"); !blockstore.IsNotFound(err) {
		t.Errorf("Expected NotFound for missing key, got %v", err)
	}
	if _, err := r.Get("other", "key1"); !blockstore.IsNotFound(err) {
		t.Errorf("Expected NotFound for other prefix, got %v", err)
	}
}

func testStringKeyBitmapValue(t *testing.T, m *memory.StorageManager) {
	w := memory.NewWriter(m)
	mustSet(t, w, "prefix", "bitmap1", roaring.BitmapOf(1, 2, 3))
	mustCommit(t, w)

	r := mustOpen[string, *roaring.Bitmap](t, m, w.ID())
	value, err := r.Get("prefix", "bitmap1")
	if err != nil {
		t.Fatalf("Expected bitmap1 to exist, got %v", err)
	}
	for _, x := range []uint32{1, 2, 3} {
		if !value.Contains(x) {
			t.Errorf("Expected bitmap to contain %d", x)
		}
	}
	if value.GetCardinality() != 3 {
		t.Errorf("Expected cardinality 3, got %d", value.GetCardinality())
	}
}

func testStringKeyRecordValue(t *testing.T, m *memory.StorageManager) {
	w := memory.NewWriter(m)

	doc := "a document"
	first := types.DataRecord{ID: uuid.NewString(), Embedding: []float32{1, 2, 3}}
	mustSet(t, w, "prefix", "key1", first)

	records := []types.DataRecord{
		{ID: "embedding_id_1", Embedding: []float32{1, 2, 3}},
		{ID: "embedding_id_2", Embedding: []float32{4, 5, 6}, Document: &doc},
		{ID: "embedding_id_3", Embedding: []float32{7, 8, 9}, Metadata: types.Metadata{"page": types.Int(7)}},
	}
	for _, record := range records {
		mustSet(t, w, "prefix", record.ID, record)
	}
	mustCommit(t, w)

	r := mustOpen[string, types.DataRecord](t, m, w.ID())
	for _, want := range records {
		got, err := r.Get("prefix", want.ID)
		if err != nil {
			t.Fatalf("Expected record %s to exist, got %v", want.ID, err)
		}
		if !got.Equal(want) {
			t.Errorf("Expected record %+v, got %+v", want, got)
		}
	}

	got, err := r.Get("prefix", "key1")
	if err != nil || !got.Equal(first) {
		t.Errorf("Expected record %+v, got %+v (err %v)", first, got, err)
	}

	if n := r.Count("prefix"); n != 4 {
		t.Errorf("Expected 4 records, got %d", n)
	}
}

func testScalarKeys(t *testing.T, m *memory.StorageManager) {
	w := memory.NewWriter(m)
	mustSet(t, w, "prefix", true, "value-true")
	mustSet(t, w, "prefix", false, "value-false")
	mustSet(t, w, "prefix", uint32(1), "value-u32")
	mustSet(t, w, "prefix", float32(1.0), "value-f32")
	mustSet(t, w, "prefix", "1", "value-str")
	mustCommit(t, w)

	if v, err := mustOpen[bool, string](t, m, w.ID()).Get("prefix", true); err != nil || v != "value-true" {
		t.Errorf("bool key: expected value-true, got %q (err %v)", v, err)
	}
	if v, err := mustOpen[uint32, string](t, m, w.ID()).Get("prefix", 1); err != nil || v != "value-u32" {
		t.Errorf("uint32 key: expected value-u32, got %q (err %v)", v, err)
	}
	if v, err := mustOpen[float32, string](t, m, w.ID()).Get("prefix", 1.0); err != nil || v != "value-f32" {
		t.Errorf("float32 key: expected value-f32, got %q (err %v)", v, err)
	}
	if v, err := mustOpen[string, string](t, m, w.ID()).Get("prefix", "1"); err != nil || v != "value-str" {
		t.Errorf("string key: expected value-str, got %q (err %v)", v, err)
	}

	// every reader only sees the keys of its own type
	entries, err := mustOpen[bool, string](t, m, w.ID()).GetByPrefix("prefix")
	if err != nil {
		t.Fatalf("GetByPrefix failed: %v", err)
	}
	if got := keysOf(entries); !slices.Equal(got, []bool{false, true}) {
		t.Errorf("Expected bool keys [false true], got %v", got)
	}
	if n := mustOpen[float32, string](t, m, w.ID()).Count("prefix"); n != 1 {
		t.Errorf("Expected 1 float32 key, got %d", n)
	}

	// -0 and +0 are the same key
	w2 := memory.NewWriter(m)
	mustSet(t, w2, "prefix", float32(math.Copysign(0, -1)), "zero")
	mustCommit(t, w2)
	if v, err := mustOpen[float32, string](t, m, w2.ID()).Get("prefix", 0); err != nil || v != "zero" {
		t.Errorf("Expected -0 and +0 to be the same key, got %q (err %v)", v, err)
	}
}

func testVectorAndUint32Values(t *testing.T, m *memory.StorageManager) {
	w := memory.NewWriter(m)
	mustSet(t, w, "vectors", uint32(1), []float32{0.1, 0.2})
	mustSet(t, w, "vectors", uint32(2), []float32{})
	mustSet(t, w, "offsets", "user-1", uint32(42))
	mustCommit(t, w)

	vectors := mustOpen[uint32, []float32](t, m, w.ID())
	v, err := vectors.Get("vectors", 1)
	if err != nil || !slices.Equal(v, []float32{0.1, 0.2}) {
		t.Errorf("Expected [0.1 0.2], got %v (err %v)", v, err)
	}
	v, err = vectors.Get("vectors", 2)
	if err != nil || len(v) != 0 {
		t.Errorf("Expected empty vector, got %v (err %v)", v, err)
	}

	offsets := mustOpen[string, uint32](t, m, w.ID())
	o, err := offsets.Get("offsets", "user-1")
	if err != nil || o != 42 {
		t.Errorf("Expected 42, got %d (err %v)", o, err)
	}

	// a reader of another value type does not see these entries
	if _, err := mustOpen[uint32, string](t, m, w.ID()).GetByPrefix("vectors"); !blockstore.IsNotFound(err) {
		t.Errorf("Expected NotFound for string values in vector prefix, got %v", err)
	}
}

func testGetByPrefix(t *testing.T, m *memory.StorageManager) {
	w := memory.NewWriter(m)
	mustSet(t, w, "prefix", "key2", "value2")
	mustSet(t, w, "prefix", "key1", "value1")
	mustSet(t, w, "different_prefix", "key3", "value3")
	mustCommit(t, w)

	r := mustOpen[string, string](t, m, w.ID())
	entries, err := r.GetByPrefix("prefix")
	if err != nil {
		t.Fatalf("GetByPrefix failed: %v", err)
	}

	want := []blockstore.Entry[string, string]{
		{Prefix: "prefix", Key: "key1", Value: "value1"},
		{Prefix: "prefix", Key: "key2", Value: "value2"},
	}
	if !slices.Equal(entries, want) {
		t.Errorf("Expected %v, got %v", want, entries)
	}

	if _, err := r.GetByPrefix("missing"); !blockstore.IsNotFound(err) {
		t.Errorf("Expected NotFound for missing prefix, got %v", err)
	}
	if n := r.Count("missing"); n != 0 {
		t.Errorf("Expected count 0 for missing prefix, got %d", n)
	}
}

// rangeCase is one row of the range query matrix. want == nil means the
// query must fail with NotFound.
type rangeCase struct {
	name  string
	op    string
	bound int
	want  []int
}

var rangeCases = []rangeCase{
	{"gt none returned", "gt", 3, nil},
	{"gt all returned", "gt", 0, []int{1, 2, 3}},
	{"gt some returned", "gt", 1, []int{2, 3}},
	{"gte none returned", "gte", 4, nil},
	{"gte all returned", "gte", 1, []int{1, 2, 3}},
	{"gte some returned", "gte", 2, []int{2, 3}},
	{"lt none returned", "lt", 1, nil},
	{"lt all returned", "lt", 4, []int{1, 2, 3}},
	{"lt some returned", "lt", 3, []int{1, 2}},
	{"lte none returned", "lte", 0, nil},
	{"lte all returned", "lte", 3, []int{1, 2, 3}},
	{"lte some returned", "lte", 2, []int{1, 2}},
}

func testRangeQueries(t *testing.T, factory ManagerFactory) {
	for _, tc := range rangeCases {
		t.Run("uint32 "+tc.name, func(t *testing.T) {
			checkRange[uint32](t, factory(), tc)
		})
		t.Run("float32 "+tc.name, func(t *testing.T) {
			checkRange[float32](t, factory(), tc)
		})
	}
}

func checkRange[K uint32 | float32](t *testing.T, m *memory.StorageManager, tc rangeCase) {
	id := writeNumbered[K](t, m)
	r := mustOpen[K, string](t, m, id)

	query := map[string]func(string, K) ([]blockstore.Entry[K, string], error){
		"gt":  r.GetGt,
		"gte": r.GetGte,
		"lt":  r.GetLt,
		"lte": r.GetLte,
	}[tc.op]

	entries, err := query("prefix", K(tc.bound))
	if tc.want == nil {
		if !blockstore.IsNotFound(err) {
			t.Errorf("Expected NotFound, got %v (entries %v)", err, entries)
		}
		return
	}
	if err != nil {
		t.Fatalf("Expected entries, got %v", err)
	}

	if len(entries) != len(tc.want) {
		t.Fatalf("Expected %d entries, got %d: %v", len(tc.want), len(entries), entries)
	}
	for i, k := range tc.want {
		e := entries[i]
		if e.Prefix != "prefix" || e.Key != K(k) || e.Value != fmt.Sprintf("value%d", k) {
			t.Errorf("Entry %d: expected (prefix, %d, value%d), got %+v", i, k, k, e)
		}
	}

	// ranges never leave their prefix
	if _, err := query("other", K(tc.bound)); !blockstore.IsNotFound(err) {
		t.Errorf("Expected NotFound for other prefix, got %v", err)
	}
}

// fractionalCases query keys 1.0, 2.0 and 3.0 with bounds between the keys
var fractionalCases = []struct {
	op    string
	bound float32
	want  []float32
}{
	{"gt", 1.5, []float32{2, 3}},
	{"gt", 0.5, []float32{1, 2, 3}},
	{"gt", 3.5, nil},
	{"gte", 2.5, []float32{3}},
	{"gte", 3.5, nil},
	{"lt", 2.5, []float32{1, 2}},
	{"lt", 0.5, nil},
	{"lte", 0.5, nil},
	{"lte", 1.25, []float32{1}},
	{"lte", 3.5, []float32{1, 2, 3}},
}

func testFractionalFloatBounds(t *testing.T, m *memory.StorageManager) {
	r := mustOpen[float32, string](t, m, writeNumbered[float32](t, m))

	query := map[string]func(string, float32) ([]blockstore.Entry[float32, string], error){
		"gt":  r.GetGt,
		"gte": r.GetGte,
		"lt":  r.GetLt,
		"lte": r.GetLte,
	}

	for _, tc := range fractionalCases {
		entries, err := query[tc.op]("prefix", tc.bound)
		if tc.want == nil {
			if !blockstore.IsNotFound(err) {
				t.Errorf("%s %v: expected NotFound, got %v (entries %v)", tc.op, tc.bound, err, entries)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s %v: expected entries, got %v", tc.op, tc.bound, err)
			continue
		}
		if got := keysOf(entries); !slices.Equal(got, tc.want) {
			t.Errorf("%s %v: expected keys %v, got %v", tc.op, tc.bound, tc.want, got)
		}
	}
}

func testStringRangeOrder(t *testing.T, m *memory.StorageManager) {
	w := memory.NewWriter(m)
	for _, k := range []string{"b", "a", "ab", "B", "c"} {
		mustSet(t, w, "prefix", k, "v-"+k)
	}
	mustCommit(t, w)

	r := mustOpen[string, string](t, m, w.ID())

	entries, err := r.GetGte("prefix", "a")
	if err != nil {
		t.Fatalf("GetGte failed: %v", err)
	}
	if got := keysOf(entries); !slices.Equal(got, []string{"a", "ab", "b", "c"}) {
		t.Errorf("Expected [a ab b c], got %v", got)
	}

	entries, err = r.GetLt("prefix", "a")
	if err != nil {
		t.Fatalf("GetLt failed: %v", err)
	}
	if got := keysOf(entries); !slices.Equal(got, []string{"B"}) {
		t.Errorf("Expected [B] (byte order), got %v", got)
	}

	// NaN bounds match nothing
	f := memory.NewWriter(m)
	mustSet(t, f, "prefix", float32(1), "one")
	mustCommit(t, f)
	nan := float32(math.NaN())
	if _, err := mustOpen[float32, string](t, m, f.ID()).GetLte("prefix", nan); !blockstore.IsNotFound(err) {
		t.Errorf("Expected NotFound for NaN bound, got %v", err)
	}
}

func testNotCommitted(t *testing.T, m *memory.StorageManager) {
	w := memory.NewWriter(m)
	mustSet(t, w, "prefix", "key1", "value1")

	if _, err := memory.OpenReader[string, string](m, w.ID()); !blockstore.IsNotFound(err) {
		t.Errorf("Expected NotFound for building instance, got %v", err)
	}
	if _, err := memory.OpenReader[string, string](m, uuid.New()); !blockstore.IsNotFound(err) {
		t.Errorf("Expected NotFound for unknown instance, got %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("Expected MustOpenReader to panic for a building instance")
			}
		}()
		memory.MustOpenReader[string, string](m, w.ID())
	}()

	mustCommit(t, w)
	if v, err := memory.MustOpenReader[string, string](m, w.ID()).Get("prefix", "key1"); err != nil || v != "value1" {
		t.Errorf("Expected value1 after commit, got %q (err %v)", v, err)
	}
}

func testWriterMisuse(t *testing.T, m *memory.StorageManager) {
	w := memory.NewWriter(m)

	if err := memory.Set(w, "", "key", "value"); !errors.Is(err, blockstore.ErrInvalidPrefix) {
		t.Errorf("Expected ErrInvalidPrefix, got %v", err)
	}
	if err := memory.Set(w, "prefix", float32(math.NaN()), "value"); !errors.Is(err, blockstore.ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}

	mustCommit(t, w)

	if err := memory.Set(w, "prefix", "late", "value"); !errors.Is(err, blockstore.ErrInstanceNotBuilding) {
		t.Errorf("Expected ErrInstanceNotBuilding for write after commit, got %v", err)
	}
	if err := w.Commit(); !errors.Is(err, blockstore.ErrInstanceNotBuilding) {
		t.Errorf("Expected ErrInstanceNotBuilding for second commit, got %v", err)
	}
	if err := m.Commit(uuid.New()); !errors.Is(err, blockstore.ErrInstanceNotBuilding) {
		t.Errorf("Expected ErrInstanceNotBuilding for unknown instance, got %v", err)
	}

	// nothing the failed calls did is visible
	r := mustOpen[string, string](t, m, w.ID())
	if _, err := r.GetByPrefix("prefix"); !blockstore.IsNotFound(err) {
		t.Errorf("Expected empty instance, got %v", err)
	}
}

func testLastWriteWins(t *testing.T, m *memory.StorageManager) {
	w := memory.NewWriter(m)
	mustSet(t, w, "prefix", uint32(7), "first")
	mustSet(t, w, "prefix", uint32(7), "second")
	mustCommit(t, w)

	r := mustOpen[uint32, string](t, m, w.ID())
	if v, err := r.Get("prefix", 7); err != nil || v != "second" {
		t.Errorf("Expected second, got %q (err %v)", v, err)
	}
	if n := r.Count("prefix"); n != 1 {
		t.Errorf("Expected 1 entry, got %d", n)
	}
}

func testOwnedCopies(t *testing.T, m *memory.StorageManager) {
	w := memory.NewWriter(m)

	vector := []float32{1, 2, 3}
	bitmap := roaring.BitmapOf(1, 2)
	doc := "doc"
	record := types.DataRecord{ID: "r", Embedding: []float32{1}, Metadata: types.Metadata{"k": types.Int(1)}, Document: &doc}
	want := record.Clone()

	mustSet(t, w, "p", "vector", vector)
	mustSet(t, w, "p", "bitmap", bitmap)
	mustSet(t, w, "p", "record", record)

	// changes by the writer after Set are not visible
	vector[0] = 100
	bitmap.Add(100)
	record.Embedding[0] = 100
	record.Metadata["k"] = types.Int(100)
	doc = "changed"

	mustCommit(t, w)

	vectors := mustOpen[string, []float32](t, m, w.ID())
	got, _ := vectors.Get("p", "vector")
	if !slices.Equal(got, []float32{1, 2, 3}) {
		t.Errorf("Expected [1 2 3], got %v", got)
	}
	// changes by a reader are not visible to other reads
	got[0] = 200
	again, _ := vectors.Get("p", "vector")
	if again[0] != 1 {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	bitmaps := mustOpen[string, *roaring.Bitmap](t, m, w.ID())
	bm, _ := bitmaps.Get("p", "bitmap")
	if bm.Contains(100) {
		t.Errorf("Expected bitmap without 100")
	}
	bm.Add(200)
	bm, _ = bitmaps.Get("p", "bitmap")
	if bm.Contains(200) {
		t.Errorf("Get should return a copy of the bitmap")
	}

	records := mustOpen[string, types.DataRecord](t, m, w.ID())
	rec, _ := records.Get("p", "record")
	if !rec.Equal(want) {
		t.Errorf("Expected record %+v, got %+v", want, rec)
	}
}

func testIdempotentReads(t *testing.T, m *memory.StorageManager) {
	id := writeNumbered[uint32](t, m)
	r := mustOpen[uint32, string](t, m, id)

	first, err := r.GetGte("prefix", 2)
	if err != nil {
		t.Fatalf("GetGte failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := r.GetGte("prefix", 2)
		if err != nil || !slices.Equal(first, again) {
			t.Fatalf("Expected identical results, got %v and %v (err %v)", first, again, err)
		}
	}

	// a second reader on the same instance sees the same data
	other := mustOpen[uint32, string](t, m, id)
	all, err := other.GetByPrefix("prefix")
	if err != nil || len(all) != 3 {
		t.Errorf("Expected 3 entries, got %v (err %v)", all, err)
	}
}

func testIsolatedInstances(t *testing.T, m *memory.StorageManager) {
	a := memory.NewWriter(m)
	b := memory.NewWriter(m)
	if a.ID() == b.ID() {
		t.Fatalf("Expected distinct instance ids")
	}

	mustSet(t, a, "prefix", "key", "from-a")
	mustSet(t, b, "prefix", "key", "from-b")
	mustCommit(t, a)

	if v, err := mustOpen[string, string](t, m, a.ID()).Get("prefix", "key"); err != nil || v != "from-a" {
		t.Errorf("Expected from-a, got %q (err %v)", v, err)
	}
	if _, err := memory.OpenReader[string, string](m, b.ID()); !blockstore.IsNotFound(err) {
		t.Errorf("Expected b to be invisible before its commit, got %v", err)
	}

	mustCommit(t, b)
	if v, err := mustOpen[string, string](t, m, b.ID()).Get("prefix", "key"); err != nil || v != "from-b" {
		t.Errorf("Expected from-b, got %q (err %v)", v, err)
	}
}

func testConcurrentWritersAndReaders(t *testing.T, m *memory.StorageManager) {
	const (
		writers = 8
		keys    = 500
	)

	ids := make([]uuid.UUID, writers)
	var wg sync.WaitGroup

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := memory.NewWriter(m)
			ids[i] = w.ID()

			// the same builder is written from two goroutines
			var inner sync.WaitGroup
			for half := 0; half < 2; half++ {
				inner.Add(1)
				go func(half int) {
					defer inner.Done()
					for k := half; k < keys; k += 2 {
						if err := memory.Set(w, "prefix", uint32(k), fmt.Sprintf("%d-%d", i, k)); err != nil {
							t.Errorf("Set failed: %v", err)
							return
						}
					}
				}(half)
			}
			inner.Wait()

			if err := w.Commit(); err != nil {
				t.Errorf("Commit failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			r, err := memory.OpenReader[uint32, string](m, id)
			if err != nil {
				t.Errorf("OpenReader failed: %v", err)
				return
			}
			entries, err := r.GetLt("prefix", keys)
			if err != nil || len(entries) != keys {
				t.Errorf("Expected %d entries, got %d (err %v)", keys, len(entries), err)
				return
			}
			for k, e := range entries {
				if e.Key != uint32(k) || e.Value != fmt.Sprintf("%d-%d", i, k) {
					t.Errorf("Unexpected entry %+v at %d", e, k)
					return
				}
			}
		}(i, id)
	}
	wg.Wait()
}
