// MODUL: dequant_test
// ZWECK: Bit-exakte Tests fuer die Dequantisierungskerne
// INPUT: Handgebaute Bloecke (F32, Q4_0, Q8_0, Q4_K, Q6_K, F16) mit bekannten Bits
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing, errors, math
// HINWEISE: Skalen/Minima sind konstant gewaehlt, damit sich der erwartete Wert
//   von Hand nachrechnen laesst statt denselben Kern erneut aufzurufen
package gguf

import (
	"errors"
	"math"
	"testing"
)

// negByte converts a negative int8 value to its byte (two's complement) bit
// pattern. Routed through a function call so the conversion happens at
// runtime instead of being rejected as an overflowing constant expression.
func negByte(i int8) byte {
	return byte(i)
}

func approxEqual(t *testing.T, got, want float32) {
	t.Helper()
	if math.Abs(float64(got-want)) > 1e-3 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDequantizeF32Native(t *testing.T) {
	raw := []byte{0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0x40} // 1.0, 2.0
	got, err := dequantize(TypeF32, raw, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != 1.0 || got[1] != 2.0 {
		t.Fatalf("got %v", got)
	}
}

func TestDequantizeQ4_0(t *testing.T) {
	// One block of 32 values. Scale = 2.0 (f16 bits 0x4000).
	block := make([]byte, 18)
	block[0] = 0x00
	block[1] = 0x40
	for i := 2; i < 18; i++ {
		block[i] = 0xD3 // low nibble 0x3 (3), high nibble 0xD (13)
	}

	got := dequantizeQ4_0(block, 32)
	if len(got) != 32 {
		t.Fatalf("len=%d", len(got))
	}
	// low nibbles (indices 0..15): 3-8 = -5, scaled by 2.0 -> -10
	for i := 0; i < 16; i++ {
		approxEqual(t, got[i], 2.0*-5)
	}
	// high nibbles (indices 16..31): 13-8 = 5, scaled by 2.0 -> 10
	for i := 16; i < 32; i++ {
		approxEqual(t, got[i], 2.0*5)
	}
}

func TestDequantizeQ8_0(t *testing.T) {
	block := make([]byte, 34)
	block[0] = 0x00
	block[1] = 0x3c // f16 1.0
	for i := 0; i < 32; i++ {
		block[2+i] = negByte(-7) // all quants -7
	}

	got := dequantizeQ8_0(block, 32)
	for _, v := range got {
		approxEqual(t, v, -7)
	}
}

func TestDequantizeQ4_K(t *testing.T) {
	block := make([]byte, 144)
	// d = 1.0, dmin = 0.0
	block[0], block[1] = 0x00, 0x3c
	block[2], block[3] = 0x00, 0x00

	scalesPacked := block[4:16]
	for j := 0; j < 4; j++ {
		scalesPacked[j] = 2 // s[0..3] = 2
	}
	for j := 4; j < 8; j++ {
		scalesPacked[j] = 0 // m[0..3] = 0, dmin is 0 anyway
	}
	for j := 8; j < 12; j++ {
		scalesPacked[j] = 2 // low nibble feeds s[4..7] = 2
	}

	qs := block[16:144]
	for i := range qs {
		qs[i] = 0x55 // lo=5, hi=5
	}

	got := dequantizeQ4_K(block, 256)
	if len(got) != 256 {
		t.Fatalf("len=%d", len(got))
	}
	for i, v := range got {
		approxEqual(t, v, 2*5)
		if t.Failed() {
			t.Fatalf("first mismatch at index %d", i)
		}
	}
}

func TestDequantizeQ6_K(t *testing.T) {
	block := make([]byte, 210)
	// ql and qh all zero, so every q1..q4 == -32.
	scales := block[192:208]
	for i := range scales {
		scales[i] = 3 // int8(3)
	}
	block[208], block[209] = 0x00, 0x3c // d = 1.0

	got := dequantizeQ6_K(block, 256)
	if len(got) != 256 {
		t.Fatalf("len=%d", len(got))
	}
	for i, v := range got {
		approxEqual(t, v, 3*-32)
		if t.Failed() {
			t.Fatalf("first mismatch at index %d", i)
		}
	}
}

func TestDequantizeF16(t *testing.T) {
	raw := []byte{0x00, 0x3c, 0x00, 0x40} // 1.0, 2.0
	got := dequantizeF16(raw, 2)
	approxEqual(t, got[0], 1.0)
	approxEqual(t, got[1], 2.0)
}

func TestDequantizeUnsupportedQuant(t *testing.T) {
	raw := make([]byte, 22) // one Q5_0 block
	_, err := dequantize(TypeQ5_0, raw, 32)
	if err == nil {
		t.Fatal("expected error")
	}
	var e *Error
	if !errors.As(err, &e) || e.Tag != TypeQ5_0 {
		t.Fatalf("got %v", err)
	}
	if !errors.Is(err, ErrUnsupportedQuant) {
		t.Fatalf("expected ErrUnsupportedQuant, got %v", err)
	}
}

func TestDequantizeInvalidSize(t *testing.T) {
	raw := make([]byte, 18)
	_, err := dequantize(TypeQ4_0, raw, 30) // not a multiple of block size 32
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDequantizeTruncated(t *testing.T) {
	raw := make([]byte, 10) // short of the 18 bytes a single Q4_0 block needs
	_, err := dequantize(TypeQ4_0, raw, 32)
	if err == nil {
		t.Fatal("expected error")
	}
}
