package blockstore

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
//
// Two errors are considered equal by errors.Is if their codes match, so a
// NotFound error carrying extra context (e.g. the prefix that was queried)
// still matches ErrNotFound.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("BlockfileError (code %s): %s", e.Code, e.Msg)
}

// Is reports whether target is a *Error with the same return code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new BlockfileError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess          RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                   // 1: Operation failed due to an internal error.
	RetCNotFound                        // 2: No such key, no matching range or no such instance.
	RetCInvalidPrefix                   // 3: The prefix is not valid (e.g. empty).
	RetCInvalidKey                      // 4: The key is not valid (e.g. NaN).
	RetCInvalidOperation                // 5: Operation is not allowed in the current instance state.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCNotFound:
		return "NotFound"
	case RetCInvalidPrefix:
		return "InvalidPrefix"
	case RetCInvalidKey:
		return "InvalidKey"
	case RetCInvalidOperation:
		return "InvalidOperation"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Sentinel Errors
// --------------------------------------------------------------------------

var (
	// ErrNotFound is the single "nothing there" condition exposed to readers.
	// It is returned for exact-key misses, empty range or prefix results and
	// for instances that are unknown or not yet committed.
	ErrNotFound = NewError(RetCNotFound, "not found")

	// ErrInvalidPrefix is returned by writers for an empty prefix.
	ErrInvalidPrefix = NewError(RetCInvalidPrefix, "prefix must not be empty")

	// ErrInvalidKey is returned by writers for keys that have no place in the
	// total order of their type (NaN floats).
	ErrInvalidKey = NewError(RetCInvalidKey, "key is not orderable")

	// ErrInstanceNotBuilding is returned when a write or commit targets an
	// instance that is unknown or already committed.
	ErrInstanceNotBuilding = NewError(RetCInvalidOperation, "instance is not in building state")
)

// IsNotFound is a shorthand for errors.Is(err, ErrNotFound).
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
