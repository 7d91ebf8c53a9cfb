// Package vecutil encodes embedding vectors into the fixed-width binary
// column format used by the embeddings table: a little-endian float32
// array, 4 bytes per component.
package vecutil

import (
	"encoding/binary"
	"fmt"
	"math"

	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

func Encode(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func Decode(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a float32 array", appErr.ErrDimensionMismatch, len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

// L2Distance returns the Euclidean distance between two vectors of the
// same length. Length validation is the caller's job.
func L2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
