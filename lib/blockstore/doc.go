// Package blockstore defines the type system shared by all blockfile
// implementations: which key and value types a blockfile supports, how keys
// are ordered and which errors callers can expect.
//
// A blockfile is a prefix-scoped, sorted key-value container. Every entry is
// addressed by a (prefix, key) pair, all queries are scoped to exactly one
// prefix and results are ordered by key.
//
// The package focuses on:
//   - A closed set of key types with one total order per type
//   - A closed set of value types
//   - A structured error system with return codes
//
// Key Components:
//
//   - Key Constraint: string, bool, uint32 and float32. Strings are ordered
//     byte-wise, false sorts before true, numbers are ordered numerically.
//     NaN is not a valid float32 key and -0 is the same key as +0.
//
//   - KeyWrapper: A type-erased key carrying exactly one concrete key and its
//     KeyKind. Wrappers are comparable with == (and can therefore be used as
//     map keys) and ordered with Compare. Wrappers of different kinds are
//     ordered by kind, so a mixed slice can always be sorted, but such an order
//     carries no meaning. WrapKey and UnwrapKey convert between concrete keys
//     and wrappers.
//
//   - Value Constraint: string, uint32, []float32, *roaring.Bitmap and
//     types.DataRecord. Implementations store values by copy and hand out
//     copies.
//
//   - Entry: A (prefix, key, value) triple as returned by prefix and range
//     queries.
//
//   - Error System: Errors are *Error values carrying a RetCode. Two errors
//     match with errors.Is if their codes match, so a NotFound error wrapped
//     with context (the prefix, the key) still matches ErrNotFound.
//
// Error Semantics:
//
//   - ErrNotFound is the only "nothing there" condition a reader reports: for
//     an exact-key miss, an empty prefix or range result and for an instance
//     that does not exist or is not committed yet. Readers never return an
//     empty result together with a nil error.
//   - ErrInvalidPrefix and ErrInvalidKey reject writes that could never be
//     read back in order (empty prefix, NaN key).
//   - ErrInstanceNotBuilding rejects writes and commits on instances that are
//     already committed, dropped or unknown.
//
// Implementations:
//
//	memory: The in-memory blockfile (see package memory).
package blockstore
