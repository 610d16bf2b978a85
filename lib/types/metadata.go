package types

import (
	"math"
	"strconv"
)

// MetadataKind identifies the concrete type stored in a MetadataValue.
type MetadataKind uint8

const (
	MetadataKindInvalid MetadataKind = iota
	MetadataKindInt
	MetadataKindFloat
	MetadataKindString
	MetadataKindBool
)

func (k MetadataKind) String() string {
	switch k {
	case MetadataKindInt:
		return "int"
	case MetadataKindFloat:
		return "float"
	case MetadataKindString:
		return "string"
	case MetadataKindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// MetadataValue is a small tagged value attached to a record's metadata.
// Only the field matching Kind is meaningful.
type MetadataValue struct {
	Kind MetadataKind `json:"k"`
	I64  int64        `json:"i,omitempty"`
	F64  float64      `json:"f,omitempty"`
	S    string       `json:"s,omitempty"`
	B    bool         `json:"b,omitempty"`
}

// Int creates an integer metadata value.
func Int(v int64) MetadataValue { return MetadataValue{Kind: MetadataKindInt, I64: v} }

// Float creates a float metadata value.
func Float(v float64) MetadataValue { return MetadataValue{Kind: MetadataKindFloat, F64: v} }

// String creates a string metadata value.
func String(v string) MetadataValue { return MetadataValue{Kind: MetadataKindString, S: v} }

// Bool creates a boolean metadata value.
func Bool(v bool) MetadataValue { return MetadataValue{Kind: MetadataKindBool, B: v} }

// Equal compares two values by kind and payload. Floats are compared by
// their bit pattern so NaN payloads survive a round trip.
func (v MetadataValue) Equal(o MetadataValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case MetadataKindInt:
		return v.I64 == o.I64
	case MetadataKindFloat:
		return math.Float64bits(v.F64) == math.Float64bits(o.F64)
	case MetadataKindString:
		return v.S == o.S
	case MetadataKindBool:
		return v.B == o.B
	default:
		return true
	}
}

func (v MetadataValue) String() string {
	switch v.Kind {
	case MetadataKindInt:
		return strconv.FormatInt(v.I64, 10)
	case MetadataKindFloat:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case MetadataKindString:
		return strconv.Quote(v.S)
	case MetadataKindBool:
		return strconv.FormatBool(v.B)
	default:
		return "<invalid>"
	}
}

// Metadata is the optional key-value metadata of a record.
type Metadata map[string]MetadataValue

// Equal reports whether both maps hold the same keys with equal values.
// A nil map equals an empty map.
func (m Metadata) Equal(o Metadata) bool {
	if len(m) != len(o) {
		return false
	}
	for k, v := range m {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
