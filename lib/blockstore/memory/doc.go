// Package memory implements the in-memory blockfile: a prefix-scoped, sorted
// key-value container with typed keys and typed values, built once and then
// read concurrently by any number of readers.
//
// The package focuses on:
//   - One ordering and lookup abstraction for all key types (string, bool,
//     uint32, float32) through blockstore.KeyWrapper
//   - One storage abstraction for all value types (string, uint32, []float32,
//     *roaring.Bitmap, types.DataRecord) through per-type capability tables
//   - A strict builder -> commit -> reader lifecycle where the committed
//     content is published exactly once and never modified afterwards
//   - Owned copies: nothing a writer or reader holds aliases committed data
//
// Key Components:
//
//   - StorageManager: The registry of all instances, keyed by a random
//     uuid.UUID. It creates builders, commits them and resolves ids to
//     committed storages. Instances are kept in an xsync.MapOf so that lookups
//     of unrelated instances never contend. The manager owns a private
//     VictoriaMetrics metrics set (instances created, committed, dropped,
//     failed commits, reader opens and gauges for instances per state).
//
//   - StorageBuilder: The mutable write-staging container of one instance.
//     Entries are staged per value kind in xsync maps keyed by the composite
//     (prefix, key), so concurrent writers are safe and duplicate writes keep
//     the last value. A builder is sealed on commit and rejects all further
//     writes with blockstore.ErrInstanceNotBuilding.
//
//   - Storage: The immutable committed container. For every value kind and
//     prefix it holds one run of entries sorted by key. Exact lookups and the
//     bound of every range query are found by binary search, and range
//     results are sub-slices of a run, so all reads are O(log n + k).
//
//   - Writer / Reader: Typed façades over builder and storage. Set is a
//     generic function (Go methods cannot carry their own type parameters),
//     Reader[K, V] is a generic type opened on a committed instance.
//
// Internal Mechanisms:
//
//   - Commit: The builder is sealed first (no write can interleave), then
//     frozen into a Storage outside of any registry lock, and finally swapped
//     into the registry with xsync.MapOf.Compute. A reader therefore either
//     sees no committed instance or the complete storage. Committing an
//     unknown, already committed or concurrently dropped instance fails.
//
//   - Value capabilities: Every value type has exactly one valueOps
//     implementation. Plain values are stored as they are, vectors and
//     bitmaps are cloned on write and on read and records are stored in their
//     binary encoding (package codec) and decoded on read. The reader picks
//     the implementation once when it is opened.
//
//   - Key kinds: A prefix may hold keys of several kinds. Runs are ordered by
//     (key kind, key), and every reader only sees the sub-run of its own key
//     kind. Entries written with a different key or value type are invisible
//     to a reader, they are never misinterpreted.
//
//   - Empty results: Get, GetByPrefix and the four range queries return
//     blockstore.ErrNotFound (wrapped with context, match it with errors.Is or
//     blockstore.IsNotFound) instead of an empty slice.
//
// Usage Example:
//
//	manager := memory.NewStorageManager()
//
//	writer := memory.NewWriter(manager)
//	_ = memory.Set(writer, "postings", "apple", bitmap)
//	_ = memory.Set(writer, "postings", "banana", other)
//	if err := writer.Commit(); err != nil {
//		return err
//	}
//
//	reader, err := memory.OpenReader[string, *roaring.Bitmap](manager, writer.ID())
//	if err != nil {
//		return err
//	}
//	entries, err := reader.GetGte("postings", "b")
//
// Thread Safety:
//
//	All exported types are safe for concurrent use. Committed storages are
//	read without any locking.
//
// Non-goals:
//
//	The blockfile is not persisted and not shared between processes. Dropping
//	an instance (or the manager) frees its memory.
package memory
