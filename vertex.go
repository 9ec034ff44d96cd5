package dot

import (
	"encoding/binary"
	"fmt"
	"math"
)

// floatSize is the byte size of one vertex component.
const floatSize = 4

// VertexList is an ordered sequence of (x, y) pairs in normalized device
// coordinates, stored interleaved: x0, y0, x1, y1, ...
type VertexList []float32

// DefaultVertices is the scene drawn by Run: a single point at the center.
var DefaultVertices = VertexList{0.0, 0.0}

// Len returns the number of points in the list.
func (v VertexList) Len() int {
	return len(v) / 2
}

// At returns the i-th point.
func (v VertexList) At(i int) (x, y float32) {
	return v[2*i], v[2*i+1]
}

// Validate reports whether v is a whole number of finite pairs.
// Points outside [-1, 1] are accepted and clipped at rasterization.
func (v VertexList) Validate() error {
	if len(v)%2 != 0 {
		return fmt.Errorf("%w: odd component count %d", ErrInvalidVertexList, len(v))
	}
	for i, c := range v {
		if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
			return fmt.Errorf("%w: component %d is not finite", ErrInvalidVertexList, i)
		}
	}
	return nil
}

// ValidateStrict is Validate plus a [-1, 1] range check on every component.
func (v VertexList) ValidateStrict() error {
	if err := v.Validate(); err != nil {
		return err
	}
	for i, c := range v {
		if c < -1 || c > 1 {
			return fmt.Errorf("%w: component %d = %g outside [-1, 1]", ErrInvalidVertexList, i, c)
		}
	}
	return nil
}

// ByteLen returns the size of the encoded list: 4 * 2 * Len().
func (v VertexList) ByteLen() int {
	return v.Len() * 2 * floatSize
}

// Bytes returns the raw little-endian float32 encoding uploaded to the
// vertex buffer.
func (v VertexList) Bytes() []byte {
	buf := make([]byte, v.ByteLen())
	for i := 0; i < v.Len()*2; i++ {
		binary.LittleEndian.PutUint32(buf[i*floatSize:], math.Float32bits(v[i]))
	}
	return buf
}

// DecodeVertexList is the inverse of VertexList.Bytes.
func DecodeVertexList(b []byte) (VertexList, error) {
	if len(b)%(2*floatSize) != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of points", ErrInvalidVertexList, len(b))
	}
	v := make(VertexList, len(b)/floatSize)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*floatSize:]))
	}
	return v, nil
}
