package vector

import (
	"errors"
	"math"
	"testing"
)

func TestCosineSelfSimilarity(t *testing.T) {
	a := []float32{0.3, -1.2, 4.5, 0.01}
	got, err := CosineSimilarity(a, a)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-1) > 1e-9 {
		t.Fatalf("cos(a,a) = %v, want 1", got)
	}
}

func TestCosineSymmetric(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-4, 0.5, 2}

	ab, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := CosineSimilarity(b, a)
	if err != nil {
		t.Fatal(err)
	}
	if ab != ba {
		t.Fatalf("cos(a,b)=%v != cos(b,a)=%v", ab, ba)
	}
}

func TestCosineOpposite(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{-1, 0}
	got, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got+1) > 1e-9 {
		t.Fatalf("cos = %v, want -1", got)
	}
}

func TestCosineOrthogonal(t *testing.T) {
	got, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Fatalf("cos = %v, want 0", got)
	}
}

func TestCosineZeroNorm(t *testing.T) {
	// Zero vectors are defined as similarity 0, not an error.
	got, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Fatalf("cos with zero vector = %v, want 0", got)
	}
}

func TestCosineDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1}, []float32{1, 2})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
