// Package gguf - Dequantisierung: Native/Numerische Kerne
//
// Dieses Modul enthaelt die Dequantisierungs-Dispatch-Funktion und die Kerne
// fuer native (unquantisierte) numerische Typen:
// - dequantize: Dispatcht anhand des Type auf den passenden Kern
// - dequantizeF32/F64/I8/I16/I32/I64: Reinterpretation nativer Zahlentypen
// - dequantizeF16/BF16: IEEE-754-Binary16 bzw. Brain-Float16 Dekodierung
package gguf

import (
	"encoding/binary"
	"math"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// dequantize expands packed bytes of the given type into nElements float32
// values (spec §4.5). It validates that nElements is a whole number of
// blocks and that packed carries enough bytes for that many blocks before
// touching any kernel; both are Truncated/InvalidSize failures a caller can
// distinguish from a successful decode.
func dequantize(tag Type, packed []byte, nElements uint64) ([]float32, error) {
	bs := blockSize(tag)
	if nElements%bs != 0 {
		return nil, errInvalidSize(tag, nElements)
	}
	want, err := byteSizeFor(tag, nElements)
	if err != nil {
		return nil, err
	}
	if uint64(len(packed)) < want {
		return nil, errTruncated(tag.String(), int64(want), int64(len(packed)))
	}
	packed = packed[:want]

	switch tag {
	case TypeF32:
		return dequantizeF32(packed, nElements), nil
	case TypeF64:
		return dequantizeF64(packed, nElements), nil
	case TypeI8:
		return dequantizeI8(packed, nElements), nil
	case TypeI16:
		return dequantizeI16(packed, nElements), nil
	case TypeI32:
		return dequantizeI32(packed, nElements), nil
	case TypeI64:
		return dequantizeI64(packed, nElements), nil
	case TypeF16:
		return dequantizeF16(packed, nElements), nil
	case TypeBF16:
		return dequantizeBF16(packed, nElements), nil
	case TypeQ4_0:
		return dequantizeQ4_0(packed, nElements), nil
	case TypeQ8_0:
		return dequantizeQ8_0(packed, nElements), nil
	case TypeQ4_K:
		return dequantizeQ4_K(packed, nElements), nil
	case TypeQ6_K:
		return dequantizeQ6_K(packed, nElements), nil
	default:
		return nil, errUnsupportedQuant(tag)
	}
}

// dequantizeF32 reinterprets little-endian f32 words as-is.
func dequantizeF32(b []byte, n uint64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func dequantizeF64(b []byte, n uint64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:])))
	}
	return out
}

func dequantizeI8(b []byte, n uint64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(int8(b[i]))
	}
	return out
}

func dequantizeI16(b []byte, n uint64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(b[i*2:])))
	}
	return out
}

func dequantizeI32(b []byte, n uint64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(int32(binary.LittleEndian.Uint32(b[i*4:])))
	}
	return out
}

func dequantizeI64(b []byte, n uint64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(int64(binary.LittleEndian.Uint64(b[i*8:])))
	}
	return out
}

// dequantizeF16 decodes IEEE 754 binary16 words via x448/float16, which
// implements the exact zero/subnormal/infinity/NaN cases spec §4.5 spells
// out (this is the teacher's own chosen float16 library, see
// x/ml/backend/mlx/quant.go).
func dequantizeF16(b []byte, n uint64) []float32 {
	out := make([]float32, n)
	for i := range out {
		bits := binary.LittleEndian.Uint16(b[i*2:])
		out[i] = float16.Frombits(bits).Float32()
	}
	return out
}

// dequantizeBF16 decodes bfloat16 words via d4l3k/go-bfloat16, which
// performs the left-shift-and-reinterpret spec §4.5 describes over the
// whole packed buffer in one call.
func dequantizeBF16(b []byte, n uint64) []float32 {
	return bfloat16.DecodeFloat32(b[:n*2])
}
