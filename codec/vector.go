package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Float32VectorCodec encodes a fixed- or variable-length []float32 as a
// length-prefixed sequence of little-endian 4-byte floats. This is the
// natural key/value codec for the similarity-search domain the engine
// targets (the same []float32 payload shape the teacher's hnsw/pqivf/rpt
// indexes all store).
type Float32VectorCodec struct{}

func (Float32VectorCodec) ToBytes(item []float32) ([]byte, error) {
	if item == nil {
		return nil, nil
	}
	buf := make([]byte, 4+4*len(item))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(item)))
	for i, f := range item {
		binary.LittleEndian.PutUint32(buf[4+4*i:8+4*i], math.Float32bits(f))
	}
	return buf, nil
}

func (Float32VectorCodec) FromBytes(b []byte) ([]float32, error) {
	if b == nil {
		return nil, nil
	}
	if len(b) < 4 {
		return nil, fmt.Errorf("codec: Float32VectorCodec: buffer too short (%d bytes)", len(b))
	}
	n := binary.LittleEndian.Uint32(b[0:4])
	want := 4 + 4*int(n)
	if len(b) != want {
		return nil, fmt.Errorf("codec: Float32VectorCodec: expected %d bytes, got %d", want, len(b))
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4+4*i : 8+4*i]))
	}
	return out, nil
}

// Float64VectorCodec is the float64 analogue of Float32VectorCodec, for
// callers who need double precision coordinates.
type Float64VectorCodec struct{}

func (Float64VectorCodec) ToBytes(item []float64) ([]byte, error) {
	if item == nil {
		return nil, nil
	}
	buf := make([]byte, 4+8*len(item))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(item)))
	for i, f := range item {
		binary.LittleEndian.PutUint64(buf[4+8*i:12+8*i], math.Float64bits(f))
	}
	return buf, nil
}

func (Float64VectorCodec) FromBytes(b []byte) ([]float64, error) {
	if b == nil {
		return nil, nil
	}
	if len(b) < 4 {
		return nil, fmt.Errorf("codec: Float64VectorCodec: buffer too short (%d bytes)", len(b))
	}
	n := binary.LittleEndian.Uint32(b[0:4])
	want := 4 + 8*int(n)
	if len(b) != want {
		return nil, fmt.Errorf("codec: Float64VectorCodec: expected %d bytes, got %d", want, len(b))
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[4+8*i : 12+8*i]))
	}
	return out, nil
}
