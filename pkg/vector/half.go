// Package vector implements the on-disk codec for embedding vectors:
// IEEE-754 half-precision quantization plus cosine similarity.
//
// Embedding vectors dominate the size of the store, so components are
// packed to 16 bits each. The conversion is lossy but bounded: values in
// half precision's normal range round-trip within 2^-10 relative error.
package vector

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// Half-precision layout: 1 sign bit, 5 exponent bits (bias 15),
// 10 mantissa bits. Single precision: 8 exponent bits (bias 127),
// 23 mantissa bits.
const (
	halfSignMask = 0x8000
	halfExpMask  = 0x7C00
	halfManMask  = 0x03FF
	halfNaN      = 0x7E00 // canonical quiet NaN
	halfInf      = 0x7C00
)

// Float32ToHalf converts a single float32 to its half-precision bit pattern.
// NaN maps to the canonical half NaN (sign preserved), infinities map to
// signed half infinity, exponent overflow saturates to signed infinity, and
// exponent underflow produces a signed zero or subnormal half.
func Float32ToHalf(f float32) uint16 {
	b := math.Float32bits(f)
	sign := uint16(b>>16) & halfSignMask
	exp := int32(b>>23) & 0xFF
	man := b & 0x7FFFFF

	if exp == 0xFF {
		if man != 0 {
			return sign | halfNaN
		}
		return sign | halfInf
	}

	// Rebias from 127 to 15.
	newExp := exp - 127 + 15

	if newExp >= 0x1F {
		return sign | halfInf
	}

	if newExp <= 0 {
		// Too small even for a half subnormal.
		if newExp < -10 {
			return sign
		}
		// Subnormal: restore the implicit leading bit, then shift the
		// 24-bit significand down into the 10-bit mantissa field.
		man |= 0x800000
		return sign | uint16(man>>uint32(14-newExp))
	}

	return sign | uint16(newExp)<<10 | uint16(man>>13)
}

// HalfToFloat32 is the exact inverse of Float32ToHalf.
func HalfToFloat32(h uint16) float32 {
	sign := uint32(h&halfSignMask) << 16
	exp := int32(h>>10) & 0x1F
	man := uint32(h & halfManMask)

	if exp == 0x1F {
		if man != 0 {
			// NaN: widen the payload, which also keeps the quiet bit set
			// for the canonical pattern.
			return math.Float32frombits(sign | 0x7F800000 | man<<13)
		}
		return math.Float32frombits(sign | 0x7F800000)
	}

	if exp == 0 {
		if man == 0 {
			return math.Float32frombits(sign) // signed zero
		}
		// Subnormal: normalize by the leading-zero count of the 10-bit
		// mantissa, then rebias. bits.Len16 gives the top set bit.
		shift := 11 - bits.Len16(uint16(man))
		man = (man << uint(shift)) & halfManMask
		e := int32(-14 - shift)
		return math.Float32frombits(sign | uint32(e+127)<<23 | man<<13)
	}

	return math.Float32frombits(sign | uint32(exp-15+127)<<23 | man<<13)
}

// Quantize packs a float32 vector into half-precision components.
func Quantize(v []float32) []uint16 {
	out := make([]uint16, len(v))
	for i, f := range v {
		out[i] = Float32ToHalf(f)
	}
	return out
}

// Dequantize expands half-precision components back to float32.
func Dequantize(h []uint16) []float32 {
	out := make([]float32, len(h))
	for i, x := range h {
		out[i] = HalfToFloat32(x)
	}
	return out
}

// Encode serializes a float32 vector to its persisted form: a stream of
// little-endian half-precision components, 2 bytes each.
func Encode(v []float32) []byte {
	buf := make([]byte, 2*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint16(buf[2*i:], Float32ToHalf(f))
	}
	return buf
}

// Decode reverses Encode. The blob length must be even; trailing odd bytes
// indicate a corrupt record and are reported as an error by the caller side
// via ErrBadBlob.
func Decode(blob []byte) ([]float32, error) {
	if len(blob)%2 != 0 {
		return nil, ErrBadBlob
	}
	out := make([]float32, len(blob)/2)
	for i := range out {
		out[i] = HalfToFloat32(binary.LittleEndian.Uint16(blob[2*i:]))
	}
	return out, nil
}
