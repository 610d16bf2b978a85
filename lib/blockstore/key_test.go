package blockstore

import (
	"math"
	"slices"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/ValentinKolb/blockfile/lib/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestWrapUnwrap(t *testing.T) {
	s, ok := UnwrapKey[string](WrapKey("key"))
	assert.True(t, ok)
	assert.Equal(t, "key", s)

	b, ok := UnwrapKey[bool](WrapKey(true))
	assert.True(t, ok)
	assert.True(t, b)

	u, ok := UnwrapKey[uint32](WrapKey(uint32(math.MaxUint32)))
	assert.True(t, ok)
	assert.Equal(t, uint32(math.MaxUint32), u)

	f, ok := UnwrapKey[float32](WrapKey(float32(-1.5)))
	assert.True(t, ok)
	assert.Equal(t, float32(-1.5), f)

	// wrong kind
	_, ok = UnwrapKey[uint32](WrapKey("1"))
	assert.False(t, ok)
	_, ok = UnwrapKey[string](KeyWrapper{})
	assert.False(t, ok)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KeyKindString, KindOf[string]())
	assert.Equal(t, KeyKindBool, KindOf[bool]())
	assert.Equal(t, KeyKindUint32, KindOf[uint32]())
	assert.Equal(t, KeyKindFloat32, KindOf[float32]())

	assert.Equal(t, ValueKindString, ValueKindOf[string]())
	assert.Equal(t, ValueKindUint32, ValueKindOf[uint32]())
	assert.Equal(t, ValueKindVector, ValueKindOf[[]float32]())
	assert.Equal(t, ValueKindBitmap, ValueKindOf[*roaring.Bitmap]())
	assert.Equal(t, ValueKindRecord, ValueKindOf[types.DataRecord]())
}

func TestWrapperEquality(t *testing.T) {
	assert.Equal(t, WrapKey(float32(0)), WrapKey(float32(math.Copysign(0, -1))))
	assert.NotEqual(t, WrapKey(uint32(1)), WrapKey(float32(1)))
	assert.NotEqual(t, WrapKey("true"), WrapKey(true))

	set := map[KeyWrapper]int{WrapKey("a"): 1}
	set[WrapKey("a")]++
	assert.Equal(t, 2, set[WrapKey("a")])
}

func TestValid(t *testing.T) {
	assert.True(t, WrapKey("").Valid())
	assert.True(t, WrapKey(float32(math.Inf(1))).Valid())
	assert.False(t, WrapKey(float32(math.NaN())).Valid())
	assert.False(t, KeyWrapper{}.Valid())
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b KeyWrapper
		want int
	}{
		{"string less", WrapKey("a"), WrapKey("b"), -1},
		{"string prefix", WrapKey("a"), WrapKey("ab"), -1},
		{"string bytes", WrapKey("Z"), WrapKey("a"), -1},
		{"string equal", WrapKey("x"), WrapKey("x"), 0},
		{"bool", WrapKey(false), WrapKey(true), -1},
		{"bool equal", WrapKey(true), WrapKey(true), 0},
		{"uint32", WrapKey(uint32(10)), WrapKey(uint32(9)), 1},
		{"float32 negative", WrapKey(float32(-2)), WrapKey(float32(-1)), -1},
		{"float32 zeros", WrapKey(float32(0)), WrapKey(float32(math.Copysign(0, -1))), 0},
		{"float32 inf", WrapKey(float32(math.Inf(1))), WrapKey(float32(math.MaxFloat32)), 1},
		{"kinds", WrapKey("z"), WrapKey(false), -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compare(tc.a, tc.b))
			assert.Equal(t, -tc.want, Compare(tc.b, tc.a))
		})
	}

	keys := []KeyWrapper{WrapKey(float32(3)), WrapKey(float32(-1)), WrapKey(float32(0.5))}
	slices.SortFunc(keys, Compare)
	assert.Equal(t, []KeyWrapper{WrapKey(float32(-1)), WrapKey(float32(0.5)), WrapKey(float32(3))}, keys)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, `string("a")`, WrapKey("a").String())
	assert.Equal(t, "bool(true)", WrapKey(true).String())
	assert.Equal(t, "uint32(7)", WrapKey(uint32(7)).String())
	assert.Equal(t, "float32(1.5)", WrapKey(float32(1.5)).String())
}

func TestErrors(t *testing.T) {
	wrapped := errors.Wrapf(ErrNotFound, "prefix %q", "p")
	assert.True(t, IsNotFound(wrapped))
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, ErrInvalidKey)

	// errors with the same code match
	assert.ErrorIs(t, NewError(RetCNotFound, "other message"), ErrNotFound)

	assert.Equal(t, "BlockfileError (code InvalidPrefix): prefix must not be empty", ErrInvalidPrefix.Error())
	assert.Equal(t, "InvalidOperation", RetCInvalidOperation.String())
	assert.False(t, IsNotFound(nil))
}
