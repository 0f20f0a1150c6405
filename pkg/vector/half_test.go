package vector

import (
	"math"
	"testing"
)

// Reference pairs from the IEEE-754 binary16 conversion tables.
var halfTable = []struct {
	f float32
	h uint16
}{
	{0, 0x0000},
	{1, 0x3C00},
	{-1, 0xBC00},
	{2, 0x4000},
	{0.5, 0x3800},
	{-0.5, 0xB800},
	{65504, 0x7BFF},                 // largest normal half
	{6.103515625e-05, 0x0400},       // smallest normal half (2^-14)
	{5.960464477539063e-08, 0x0001}, // smallest subnormal half (2^-24)
	{0.333251953125, 0x3555},        // nearest half to 1/3
}

func TestFloat32ToHalfTable(t *testing.T) {
	for _, tc := range halfTable {
		if got := Float32ToHalf(tc.f); got != tc.h {
			t.Errorf("Float32ToHalf(%v) = %#04x, want %#04x", tc.f, got, tc.h)
		}
	}
}

func TestHalfToFloat32Table(t *testing.T) {
	for _, tc := range halfTable {
		if got := HalfToFloat32(tc.h); got != tc.f {
			t.Errorf("HalfToFloat32(%#04x) = %v, want %v", tc.h, got, tc.f)
		}
	}
}

func TestHalfSpecials(t *testing.T) {
	if got := Float32ToHalf(float32(math.Inf(1))); got != 0x7C00 {
		t.Errorf("+Inf = %#04x, want 0x7c00", got)
	}
	if got := Float32ToHalf(float32(math.Inf(-1))); got != 0xFC00 {
		t.Errorf("-Inf = %#04x, want 0xfc00", got)
	}
	if got := Float32ToHalf(float32(math.NaN())) &^ halfSignMask; got != halfNaN {
		t.Errorf("NaN = %#04x, want canonical %#04x", got, halfNaN)
	}

	if !math.IsInf(float64(HalfToFloat32(0x7C00)), 1) {
		t.Error("0x7c00 should decode to +Inf")
	}
	if !math.IsInf(float64(HalfToFloat32(0xFC00)), -1) {
		t.Error("0xfc00 should decode to -Inf")
	}
	if !math.IsNaN(float64(HalfToFloat32(0x7E00))) {
		t.Error("0x7e00 should decode to NaN")
	}
}

func TestHalfSignedZero(t *testing.T) {
	// Sign of zero must survive the round trip bit-exactly.
	negZero := math.Float32frombits(0x80000000)

	if got := Float32ToHalf(negZero); got != 0x8000 {
		t.Fatalf("-0 = %#04x, want 0x8000", got)
	}
	if got := math.Float32bits(HalfToFloat32(0x8000)); got != 0x80000000 {
		t.Fatalf("decode(-0) bits = %#08x, want 0x80000000", got)
	}
	if got := Float32ToHalf(0); got != 0 {
		t.Fatalf("+0 = %#04x, want 0x0000", got)
	}
}

func TestHalfUnderflowToZero(t *testing.T) {
	// Below the smallest subnormal: flushes to signed zero.
	if got := Float32ToHalf(1e-10); got != 0 {
		t.Errorf("1e-10 = %#04x, want +0", got)
	}
	if got := Float32ToHalf(-1e-10); got != 0x8000 {
		t.Errorf("-1e-10 = %#04x, want -0", got)
	}
}

func TestHalfOverflowToInf(t *testing.T) {
	if got := Float32ToHalf(1e6); got != 0x7C00 {
		t.Errorf("1e6 = %#04x, want +Inf", got)
	}
	if got := Float32ToHalf(-1e6); got != 0xFC00 {
		t.Errorf("-1e6 = %#04x, want -Inf", got)
	}
}

func TestRoundTripBoundedError(t *testing.T) {
	// Normal-range values round-trip within 2^-10 relative error.
	values := []float32{0.001, 0.1, 0.25, 1, 1.5, 3.14159, 42, 999.5, 60000,
		-0.001, -2.71828, -12345}
	for _, f := range values {
		back := HalfToFloat32(Float32ToHalf(f))
		rel := math.Abs(float64(back-f)) / math.Abs(float64(f))
		if rel > math.Pow(2, -10) {
			t.Errorf("round trip of %v drifted by %v (relative)", f, rel)
		}
	}
}

func TestRoundTripSubnormals(t *testing.T) {
	// Every subnormal half bit pattern decodes and re-encodes exactly.
	for h := uint16(1); h < 0x0400; h++ {
		f := HalfToFloat32(h)
		if got := Float32ToHalf(f); got != h {
			t.Fatalf("subnormal %#04x -> %v -> %#04x", h, f, got)
		}
	}
}

func TestRoundTripAllNormals(t *testing.T) {
	// Every finite half bit pattern survives decode/encode unchanged.
	for h := uint16(0); h < 0x7C00; h++ {
		for _, sign := range []uint16{0, halfSignMask} {
			hs := h | sign
			if got := Float32ToHalf(HalfToFloat32(hs)); got != hs {
				t.Fatalf("half %#04x round-tripped to %#04x", hs, got)
			}
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	v := []float32{1, -2, 0.5, 0}
	blob := Encode(v)
	if len(blob) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(blob))
	}

	back, err := Decode(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 4 {
		t.Fatalf("expected 4 components, got %d", len(back))
	}
	for i := range v {
		if back[i] != v[i] {
			t.Errorf("component %d: got %v, want %v", i, back[i], v[i])
		}
	}
}

func TestDecodeOddLength(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for odd-length blob")
	}
}
