// Package gguf - Dequantisierung: Block-Quantisierungskerne
//
// Dieses Modul enthaelt die Block-Dequantisierungskerne fuer quantisierte Typen:
// - dequantizeQ4_0/Q8_0: Einfache Blockskalierung mit gemeinsamem f16-Scale
// - unpackQ4KScales: Entpackt die 6-Bit-gepackten Sub-Block-Skalen/Minima
// - dequantizeQ4_K/Q6_K: K-Quant-Bloecke mit Sub-Block-Skalen und -Minima
package gguf

import (
	"encoding/binary"

	"github.com/x448/float16"
)

// dequantizeQ4_0 decodes 18-byte blocks of 32 4-bit values sharing one f16
// scale (spec §4.5). Unlike the interleaved layout llama.cpp's own Q4_0
// uses on the wire elsewhere, this format's output order is all 16
// low-nibble values followed by all 16 high-nibble values, per spec.
func dequantizeQ4_0(packed []byte, n uint64) []float32 {
	const bs = 32
	const bpb = 18
	out := make([]float32, n)
	nBlocks := n / bs
	for b := uint64(0); b < nBlocks; b++ {
		block := packed[b*bpb : b*bpb+bpb]
		scale := float16.Frombits(binary.LittleEndian.Uint16(block[0:2])).Float32()
		quants := block[2:18]
		base := b * bs
		for i := 0; i < 16; i++ {
			lo := int8(quants[i]&0x0F) - 8
			hi := int8(quants[i]>>4) - 8
			out[base+uint64(i)] = scale * float32(lo)
			out[base+16+uint64(i)] = scale * float32(hi)
		}
	}
	return out
}

// dequantizeQ8_0 decodes 34-byte blocks of 32 signed int8 values sharing
// one f16 scale (spec §4.5).
func dequantizeQ8_0(packed []byte, n uint64) []float32 {
	const bs = 32
	const bpb = 34
	out := make([]float32, n)
	nBlocks := n / bs
	for b := uint64(0); b < nBlocks; b++ {
		block := packed[b*bpb : b*bpb+bpb]
		scale := float16.Frombits(binary.LittleEndian.Uint16(block[0:2])).Float32()
		quants := block[2:34]
		base := b * bs
		for i := 0; i < bs; i++ {
			out[base+uint64(i)] = scale * float32(int8(quants[i]))
		}
	}
	return out
}

// unpackQ4KScales decodes the 8 sub-block 6-bit scales and 6-bit mins
// packed into Q4_K's 12-byte scales_packed field, per spec §4.5's exact
// mask/shift formula (do not rewrite algebraically — must match the
// reference kernel bit for bit).
func unpackQ4KScales(scalesPacked []byte) (s, m [8]uint8) {
	for j := 0; j < 4; j++ {
		s[j] = scalesPacked[j] & 0x3F
		m[j] = scalesPacked[j+4] & 0x3F
	}
	for j := 4; j < 8; j++ {
		s[j] = (scalesPacked[j+4] & 0x0F) | ((scalesPacked[j-4] >> 6) << 4)
		m[j] = (scalesPacked[j+4] >> 4) | ((scalesPacked[j] >> 6) << 4)
	}
	return s, m
}

// dequantizeQ4_K decodes 144-byte super-blocks of 256 values split into 8
// sub-blocks of 32, each with its own 6-bit scale and min (spec §4.5).
func dequantizeQ4_K(packed []byte, n uint64) []float32 {
	const bs = 256
	const bpb = 144
	out := make([]float32, n)
	nBlocks := n / bs
	for b := uint64(0); b < nBlocks; b++ {
		block := packed[b*bpb : b*bpb+bpb]
		d := float16.Frombits(binary.LittleEndian.Uint16(block[0:2])).Float32()
		dmin := float16.Frombits(binary.LittleEndian.Uint16(block[2:4])).Float32()
		scalesPacked := block[4:16]
		qs := block[16:144]

		s, m := unpackQ4KScales(scalesPacked)

		base := b * bs
		for c := 0; c < 4; c++ {
			evenSub := 2 * c
			oddSub := 2*c + 1
			chunk := qs[c*32 : c*32+32]
			for k := 0; k < 32; k++ {
				lo := chunk[k] & 0x0F
				hi := chunk[k] >> 4

				out[base+uint64(evenSub*32+k)] = d*float32(s[evenSub])*float32(lo) - dmin*float32(m[evenSub])
				out[base+uint64(oddSub*32+k)] = d*float32(s[oddSub])*float32(hi) - dmin*float32(m[oddSub])
			}
		}
	}
	return out
}

// dequantizeQ6_K decodes 210-byte super-blocks of 256 6-bit values split
// into two 128-value chunks, each carrying 8 of the block's 16 int8 scales
// (spec §4.5).
func dequantizeQ6_K(packed []byte, n uint64) []float32 {
	const bs = 256
	const bpb = 210
	out := make([]float32, n)
	nBlocks := n / bs
	for b := uint64(0); b < nBlocks; b++ {
		block := packed[b*bpb : b*bpb+bpb]
		ql := block[0:128]
		qh := block[128:192]
		scales := block[192:208]
		d := float16.Frombits(binary.LittleEndian.Uint16(block[208:210])).Float32()

		base := b * bs
		for c := 0; c < 2; c++ {
			qlChunk := ql[c*64 : c*64+64]
			qhChunk := qh[c*32 : c*32+32]
			scChunk := scales[c*8 : c*8+8]
			outBase := base + uint64(c*128)

			for l := 0; l < 32; l++ {
				is := l / 16
				qh4 := qhChunk[l]

				q1 := int8((qlChunk[l]&0x0F)|(((qh4>>0)&3)<<4)) - 32
				q2 := int8((qlChunk[l+32]&0x0F)|(((qh4>>2)&3)<<4)) - 32
				q3 := int8((qlChunk[l]>>4)|(((qh4>>4)&3)<<4)) - 32
				q4 := int8((qlChunk[l+32]>>4)|(((qh4>>6)&3)<<4)) - 32

				out[outBase+uint64(l)] = d * float32(int8(scChunk[is+0])) * float32(q1)
				out[outBase+uint64(l+32)] = d * float32(int8(scChunk[is+2])) * float32(q2)
				out[outBase+uint64(l+64)] = d * float32(int8(scChunk[is+4])) * float32(q3)
				out[outBase+uint64(l+96)] = d * float32(int8(scChunk[is+6])) * float32(q4)
			}
		}
	}
	return out
}
