package vecutil

import (
	"errors"
	"math"
	"testing"

	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	vec := []float32{0, 1, -1, 0.5, math.MaxFloat32, math.SmallestNonzeroFloat32}
	data := Encode(vec)
	if len(data) != len(vec)*4 {
		t.Fatalf("encoded length = %d, want %d", len(data), len(vec)*4)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("component %d = %v, want %v", i, got[i], vec[i])
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	if !errors.Is(err, appErr.ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestL2Distance(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}
	if got := L2Distance(a, b); got != 5 {
		t.Fatalf("distance = %v, want 5", got)
	}
	if got := L2Distance(b, b); got != 0 {
		t.Fatalf("self distance = %v, want 0", got)
	}
}
