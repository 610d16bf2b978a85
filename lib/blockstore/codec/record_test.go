package codec

import (
	"math"
	"testing"

	"github.com/ValentinKolb/blockfile/lib/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestRecordRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		record types.DataRecord
	}{
		{"id only", types.DataRecord{ID: "embedding_id_1"}},
		{"embedding", types.DataRecord{ID: "embedding_id_1", Embedding: []float32{1.0, 2.0, 3.0}}},
		{"empty embedding", types.DataRecord{ID: "e", Embedding: []float32{}}},
		{"empty id", types.DataRecord{ID: "", Embedding: []float32{-1.5}}},
		{"document", types.DataRecord{ID: "doc", Document: ptr("hello world")}},
		{"empty document", types.DataRecord{ID: "doc", Document: ptr("")}},
		{"empty metadata", types.DataRecord{ID: "m", Metadata: types.Metadata{}}},
		{"full", types.DataRecord{
			ID:        "full",
			Embedding: []float32{0.25, math.MaxFloat32, -0},
			Metadata: types.Metadata{
				"int":    types.Int(-42),
				"float":  types.Float(3.14),
				"string": types.String("value"),
				"bool":   types.Bool(true),
				"false":  types.Bool(false),
			},
			Document: ptr("the document"),
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := EncodeRecord(tc.record)
			require.NoError(t, err)

			decoded, err := DecodeRecord(data)
			require.NoError(t, err)

			assert.True(t, tc.record.Equal(decoded), "expected %+v, got %+v", tc.record, decoded)
			assert.Equal(t, tc.record.Embedding == nil, decoded.Embedding == nil)
			assert.Equal(t, tc.record.Metadata == nil, decoded.Metadata == nil)
			assert.Equal(t, tc.record.Document == nil, decoded.Document == nil)
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	record := types.DataRecord{
		ID: "r",
		Metadata: types.Metadata{
			"a": types.Int(1), "b": types.Int(2), "c": types.Int(3), "d": types.Int(4),
		},
	}

	first, err := EncodeRecord(record)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := EncodeRecord(record)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestDecodeDoesNotAliasInput(t *testing.T) {
	data, err := EncodeRecord(types.DataRecord{ID: "alias", Embedding: []float32{1, 2}, Document: ptr("doc")})
	require.NoError(t, err)

	decoded, err := DecodeRecord(data)
	require.NoError(t, err)

	for i := range data {
		data[i] = 0
	}
	assert.Equal(t, "alias", decoded.ID)
	assert.Equal(t, []float32{1, 2}, decoded.Embedding)
	assert.Equal(t, "doc", *decoded.Document)
}

func TestEncodeRejectsInvalidMetadataKind(t *testing.T) {
	_, err := EncodeRecord(types.DataRecord{ID: "x", Metadata: types.Metadata{"bad": {}}})
	assert.Error(t, err)
}

func TestDecodeCorruptData(t *testing.T) {
	data, err := EncodeRecord(types.DataRecord{
		ID:        "corrupt",
		Embedding: []float32{1, 2, 3},
		Metadata:  types.Metadata{"k": types.String("v")},
		Document:  ptr("doc"),
	})
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := DecodeRecord(nil)
		assert.Error(t, err)
	})

	t.Run("wrong version", func(t *testing.T) {
		bad := append([]byte{}, data...)
		bad[0] = recordVersion + 1
		_, err := DecodeRecord(bad)
		assert.Error(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		for n := 2; n < len(data); n++ {
			_, err := DecodeRecord(data[:n])
			assert.Error(t, err, "truncated at %d bytes", n)
		}
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := DecodeRecord(append(append([]byte{}, data...), 0xFF))
		assert.Error(t, err)
	})
}
