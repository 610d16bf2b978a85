package blockstore

import (
	"cmp"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Key Types
// --------------------------------------------------------------------------

// Key is the closed family of key types a blockfile can be keyed by.
// Every member has a total order:
//   - string: byte-wise lexicographic order
//   - bool: false < true
//   - uint32: numeric order
//   - float32: numeric IEEE order (NaN is not a valid key, -0 == +0)
type Key interface {
	string | bool | uint32 | float32
}

// KeyKind identifies the concrete key type held by a KeyWrapper.
type KeyKind uint8

const (
	KeyKindInvalid KeyKind = iota
	KeyKindString
	KeyKindBool
	KeyKindUint32
	KeyKindFloat32
)

func (k KeyKind) String() string {
	switch k {
	case KeyKindString:
		return "string"
	case KeyKindBool:
		return "bool"
	case KeyKindUint32:
		return "uint32"
	case KeyKindFloat32:
		return "float32"
	default:
		return "invalid"
	}
}

// KindOf returns the KeyKind of the key type K.
func KindOf[K Key]() KeyKind {
	var zero K
	switch any(zero).(type) {
	case string:
		return KeyKindString
	case bool:
		return KeyKindBool
	case uint32:
		return KeyKindUint32
	case float32:
		return KeyKindFloat32
	default:
		return KeyKindInvalid
	}
}

// --------------------------------------------------------------------------
// Key Wrapper (type-erased key)
// --------------------------------------------------------------------------

// KeyWrapper carries exactly one concrete key value together with its kind.
// It is comparable with == (and therefore usable as a map key) and ordered
// with Compare. Ordering is only meaningful between wrappers of the same kind,
// wrappers of different kinds are ordered by their kind tag.
type KeyWrapper struct {
	kind KeyKind
	str  string
	u32  uint32
	f32  float32
	b    bool
}

// WrapKey converts a concrete key into its type-erased form.
func WrapKey[K Key](key K) KeyWrapper {
	switch k := any(key).(type) {
	case string:
		return KeyWrapper{kind: KeyKindString, str: k}
	case bool:
		return KeyWrapper{kind: KeyKindBool, b: k}
	case uint32:
		return KeyWrapper{kind: KeyKindUint32, u32: k}
	case float32:
		// -0 and +0 are the same key
		if k == 0 {
			k = 0
		}
		return KeyWrapper{kind: KeyKindFloat32, f32: k}
	default:
		return KeyWrapper{}
	}
}

// UnwrapKey converts a wrapper back into the concrete key type K.
// The boolean is false if the wrapper holds a key of another kind.
func UnwrapKey[K Key](w KeyWrapper) (K, bool) {
	var v any
	switch w.kind {
	case KeyKindString:
		v = w.str
	case KeyKindBool:
		v = w.b
	case KeyKindUint32:
		v = w.u32
	case KeyKindFloat32:
		v = w.f32
	}
	k, ok := v.(K)
	return k, ok
}

// Kind returns the kind of the wrapped key.
func (w KeyWrapper) Kind() KeyKind {
	return w.kind
}

// Valid reports whether the wrapped key has a place in the total order of
// its kind. Zero wrappers and NaN floats are not valid.
func (w KeyWrapper) Valid() bool {
	switch w.kind {
	case KeyKindInvalid:
		return false
	case KeyKindFloat32:
		return !math.IsNaN(float64(w.f32))
	default:
		return true
	}
}

func (w KeyWrapper) String() string {
	var sb strings.Builder
	sb.WriteString(w.kind.String())
	sb.WriteString("(")
	switch w.kind {
	case KeyKindString:
		sb.WriteString(strconv.Quote(w.str))
	case KeyKindBool:
		sb.WriteString(strconv.FormatBool(w.b))
	case KeyKindUint32:
		sb.WriteString(strconv.FormatUint(uint64(w.u32), 10))
	case KeyKindFloat32:
		sb.WriteString(strconv.FormatFloat(float64(w.f32), 'g', -1, 32))
	}
	sb.WriteString(")")
	return sb.String()
}

// --------------------------------------------------------------------------
// Ordering
// --------------------------------------------------------------------------

// Compare returns -1, 0 or +1 depending on whether a is less than, equal to
// or greater than b.
func Compare(a, b KeyWrapper) int {
	if a.kind != b.kind {
		return cmp.Compare(a.kind, b.kind)
	}

	switch a.kind {
	case KeyKindString:
		return strings.Compare(a.str, b.str)
	case KeyKindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	case KeyKindUint32:
		return cmp.Compare(a.u32, b.u32)
	case KeyKindFloat32:
		return cmp.Compare(a.f32, b.f32)
	default:
		return 0
	}
}
