package codec

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/ValentinKolb/blockfile/lib/types"
	"github.com/pkg/errors"
)

// recordVersion is written as the first byte of every encoded record
const recordVersion byte = 1

// Bit flags to indicate which optional fields are present
const (
	hasEmbedding byte = 1 << 0
	hasMetadata  byte = 1 << 1
	hasDocument  byte = 1 << 2
)

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// EncodeRecord serializes a DataRecord into a self-contained byte slice.
//
// Layout (big endian):
//
//	version (1) | flags (1) | idLen (4) | id
//	[ dim (4) | dim * float32 bits (4) ]                          if hasEmbedding
//	[ count (4) | count * (keyLen (4) | key | kind (1) | payload) ] if hasMetadata
//	[ docLen (4) | doc ]                                           if hasDocument
//
// The payload of a metadata value is 8 bytes for int and float, 1 byte for
// bool and a length-prefixed string for string values.
func EncodeRecord(r types.DataRecord) ([]byte, error) {
	size, err := recordSize(r)
	if err != nil {
		return nil, err
	}
	result := make([]byte, size)

	result[0] = recordVersion

	var flags byte = 0
	pos := 2 // Start after version and flags

	// Handle ID
	pos = putString(result, pos, r.ID)

	// Handle Embedding
	if r.Embedding != nil {
		flags |= hasEmbedding
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(r.Embedding)))
		pos += 4
		for _, f := range r.Embedding {
			binary.BigEndian.PutUint32(result[pos:pos+4], math.Float32bits(f))
			pos += 4
		}
	}

	// Handle Metadata
	if r.Metadata != nil {
		flags |= hasMetadata
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(r.Metadata)))
		pos += 4
		keys := make([]string, 0, len(r.Metadata))
		for k := range r.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, key := range keys {
			value := r.Metadata[key]
			pos = putString(result, pos, key)
			result[pos] = byte(value.Kind)
			pos++
			switch value.Kind {
			case types.MetadataKindInt:
				binary.BigEndian.PutUint64(result[pos:pos+8], uint64(value.I64))
				pos += 8
			case types.MetadataKindFloat:
				binary.BigEndian.PutUint64(result[pos:pos+8], math.Float64bits(value.F64))
				pos += 8
			case types.MetadataKindString:
				pos = putString(result, pos, value.S)
			case types.MetadataKindBool:
				if value.B {
					result[pos] = 1
				}
				pos++
			}
		}
	}

	// Handle Document
	if r.Document != nil {
		flags |= hasDocument
		pos = putString(result, pos, *r.Document)
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags

	return result, nil
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// DecodeRecord deserializes a record produced by EncodeRecord.
// The returned record does not share memory with data.
func DecodeRecord(data []byte) (types.DataRecord, error) {
	var r types.DataRecord

	// Check minimum size (version + flags)
	if len(data) < 2 {
		return r, errors.New("data too short for record header")
	}
	if data[0] != recordVersion {
		return r, errors.Errorf("unsupported record version: %d (expected %d)", data[0], recordVersion)
	}

	flags := data[1]
	d := decoder{data: data, pos: 2}

	// Read ID
	id, err := d.string("id")
	if err != nil {
		return r, err
	}
	r.ID = id

	// Read Embedding if present
	if flags&hasEmbedding != 0 {
		dim, err := d.uint32("embedding dimension")
		if err != nil {
			return r, err
		}
		if err := d.need(int(dim)*4, "embedding"); err != nil {
			return r, err
		}
		r.Embedding = make([]float32, dim)
		for i := range r.Embedding {
			r.Embedding[i] = math.Float32frombits(binary.BigEndian.Uint32(data[d.pos : d.pos+4]))
			d.pos += 4
		}
	}

	// Read Metadata if present
	if flags&hasMetadata != 0 {
		count, err := d.uint32("metadata count")
		if err != nil {
			return r, err
		}
		r.Metadata = make(types.Metadata, count)
		for i := uint32(0); i < count; i++ {
			key, err := d.string("metadata key")
			if err != nil {
				return r, err
			}
			value, err := d.metadataValue()
			if err != nil {
				return r, errors.Wrapf(err, "metadata %q", key)
			}
			r.Metadata[key] = value
		}
	}

	// Read Document if present
	if flags&hasDocument != 0 {
		doc, err := d.string("document")
		if err != nil {
			return r, err
		}
		r.Document = &doc
	}

	if d.pos != len(data) {
		return r, errors.Errorf("%d trailing bytes after record", len(data)-d.pos)
	}

	return r, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// recordSize calculates the total size needed for serialization
func recordSize(r types.DataRecord) (int, error) {
	// 1 byte for version + 1 byte for flags
	size := 2

	size += 4 + len(r.ID)

	if r.Embedding != nil {
		size += 4 + 4*len(r.Embedding)
	}

	if r.Metadata != nil {
		size += 4
		for key, value := range r.Metadata {
			size += 4 + len(key) + 1
			switch value.Kind {
			case types.MetadataKindInt, types.MetadataKindFloat:
				size += 8
			case types.MetadataKindString:
				size += 4 + len(value.S)
			case types.MetadataKindBool:
				size += 1
			default:
				return 0, errors.Errorf("metadata %q has invalid kind %d", key, value.Kind)
			}
		}
	}

	if r.Document != nil {
		size += 4 + len(*r.Document)
	}

	return size, nil
}

// putString writes a length-prefixed string and returns the new position
func putString(buf []byte, pos int, s string) int {
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(s)))
	pos += 4
	copy(buf[pos:pos+len(s)], s)
	return pos + len(s)
}

// decoder tracks the read position within an encoded record
type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) need(n int, field string) error {
	if n < 0 || d.pos+n > len(d.data) {
		return errors.Errorf("data too short for %s", field)
	}
	return nil
}

func (d *decoder) uint32(field string) (uint32, error) {
	if err := d.need(4, field); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(d.data[d.pos : d.pos+4])
	d.pos += 4
	return v, nil
}

func (d *decoder) string(field string) (string, error) {
	n, err := d.uint32(field + " length")
	if err != nil {
		return "", err
	}
	if err := d.need(int(n), field); err != nil {
		return "", err
	}
	s := string(d.data[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s, nil
}

func (d *decoder) metadataValue() (types.MetadataValue, error) {
	if err := d.need(1, "metadata kind"); err != nil {
		return types.MetadataValue{}, err
	}
	kind := types.MetadataKind(d.data[d.pos])
	d.pos++

	switch kind {
	case types.MetadataKindInt, types.MetadataKindFloat:
		if err := d.need(8, "metadata value"); err != nil {
			return types.MetadataValue{}, err
		}
		bits := binary.BigEndian.Uint64(d.data[d.pos : d.pos+8])
		d.pos += 8
		if kind == types.MetadataKindInt {
			return types.Int(int64(bits)), nil
		}
		return types.Float(math.Float64frombits(bits)), nil
	case types.MetadataKindString:
		s, err := d.string("metadata value")
		if err != nil {
			return types.MetadataValue{}, err
		}
		return types.String(s), nil
	case types.MetadataKindBool:
		if err := d.need(1, "metadata value"); err != nil {
			return types.MetadataValue{}, err
		}
		b := d.data[d.pos] != 0
		d.pos++
		return types.Bool(b), nil
	default:
		return types.MetadataValue{}, errors.Errorf("invalid metadata kind %d", kind)
	}
}
