// Package gguf - GGUF Tensor-Type Definitionen
//
// Dieses Modul enthaelt den Type-Typ und die Block-Registry fuer GGUF-Tensoren:
// - Type: Enum der on-disk Tensor-Datentypen (F32, F16, Q4_0, Q4_K, ...)
// - typeFromID: Parst eine numerische Type-ID
// - byteSizeFor: Berechnet die Byte-Groesse fuer eine Elementanzahl
// - maybeNativeNumericType/isQuantized: Klassifizierung eines Type
package gguf

import "fmt"

// Type is a symbolic GGML element type tag, the decoded form of the on-disk
// uint32 type id in a tensor-info entry.
type Type uint32

const (
	TypeF32  Type = 0
	TypeF16  Type = 1
	TypeQ4_0 Type = 2
	TypeQ4_1 Type = 3
	TypeQ5_0 Type = 6
	TypeQ5_1 Type = 7
	TypeQ8_0 Type = 8
	TypeQ8_1 Type = 9
	TypeQ2_K Type = 10
	TypeQ3_K Type = 11
	TypeQ4_K Type = 12
	TypeQ5_K Type = 13
	TypeQ6_K Type = 14
	TypeQ8_K Type = 15

	TypeIQ2_XXS Type = 16
	TypeIQ2_XS  Type = 17
	TypeIQ3_XXS Type = 18
	TypeIQ1_S   Type = 19
	TypeIQ4_NL  Type = 20
	TypeIQ3_S   Type = 21
	TypeIQ2_S   Type = 22
	TypeIQ4_XS  Type = 23

	TypeI8  Type = 24
	TypeI16 Type = 25
	TypeI32 Type = 26
	TypeI64 Type = 27
	TypeF64 Type = 28

	TypeIQ1_M Type = 29
	TypeBF16  Type = 30
)

// blockLayout is the (block_size, bytes_per_block) pair for a type per
// spec §4.1's table. IQ* rows carry the reference llama.cpp block byte sizes
// even though only F32/F16/BF16/F64/I*/Q4_0/Q8_0/Q4_K/Q6_K have kernels —
// from_id and byte_size_for must succeed for every recognised type; only
// dequantize refuses the unimplemented ones with UnsupportedQuant.
type blockLayout struct {
	blockSize     uint64
	bytesPerBlock uint64
}

var registry = map[Type]blockLayout{
	TypeF32:  {1, 4},
	TypeF16:  {1, 2},
	TypeQ4_0: {32, 18},
	TypeQ4_1: {32, 20},
	TypeQ5_0: {32, 22},
	TypeQ5_1: {32, 24},
	TypeQ8_0: {32, 34},
	TypeQ8_1: {32, 36},
	TypeQ2_K: {256, 84},
	TypeQ3_K: {256, 110},
	TypeQ4_K: {256, 144},
	TypeQ5_K: {256, 176},
	TypeQ6_K: {256, 210},
	TypeQ8_K: {256, 292},

	TypeIQ2_XXS: {256, 66},
	TypeIQ2_XS:  {256, 74},
	TypeIQ3_XXS: {256, 98},
	TypeIQ1_S:   {256, 50},
	TypeIQ4_NL:  {32, 18},
	TypeIQ3_S:   {256, 110},
	TypeIQ2_S:   {256, 82},
	TypeIQ4_XS:  {256, 136},
	TypeIQ1_M:   {256, 56},

	TypeI8:   {1, 1},
	TypeI16:  {1, 2},
	TypeI32:  {1, 4},
	TypeI64:  {1, 8},
	TypeF64:  {1, 8},
	TypeBF16: {1, 2},
}

var typeNames = map[Type]string{
	TypeF32: "F32", TypeF16: "F16",
	TypeQ4_0: "Q4_0", TypeQ4_1: "Q4_1", TypeQ5_0: "Q5_0", TypeQ5_1: "Q5_1",
	TypeQ8_0: "Q8_0", TypeQ8_1: "Q8_1",
	TypeQ2_K: "Q2_K", TypeQ3_K: "Q3_K", TypeQ4_K: "Q4_K", TypeQ5_K: "Q5_K",
	TypeQ6_K: "Q6_K", TypeQ8_K: "Q8_K",
	TypeIQ2_XXS: "IQ2_XXS", TypeIQ2_XS: "IQ2_XS", TypeIQ3_XXS: "IQ3_XXS",
	TypeIQ1_S: "IQ1_S", TypeIQ4_NL: "IQ4_NL", TypeIQ3_S: "IQ3_S",
	TypeIQ2_S: "IQ2_S", TypeIQ4_XS: "IQ4_XS", TypeIQ1_M: "IQ1_M",
	TypeI8: "I8", TypeI16: "I16", TypeI32: "I32", TypeI64: "I64",
	TypeF64: "F64", TypeBF16: "BF16",
}

// String renders the symbolic tag name, or "unknown(id)" for an id that
// from_id would reject.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint32(t))
}

// typeFromID maps an on-disk GGML type id to its symbolic Type, or
// UnknownTensorType when the id isn't in the registry.
func typeFromID(id uint32) (Type, error) {
	t := Type(id)
	if _, ok := registry[t]; !ok {
		return 0, errUnknownTensorType(id)
	}
	return t, nil
}

// blockSize returns the element count per block for tag.
func blockSize(tag Type) uint64 {
	return registry[tag].blockSize
}

// bytesPerBlock returns the packed byte count per block for tag.
func bytesPerBlock(tag Type) uint64 {
	return registry[tag].bytesPerBlock
}

// byteSizeFor computes the exact packed byte size for nElements of tag,
// failing when nElements isn't a whole number of blocks.
func byteSizeFor(tag Type, nElements uint64) (uint64, error) {
	layout, ok := registry[tag]
	if !ok {
		return 0, errUnknownTensorType(uint32(tag))
	}
	if nElements%layout.blockSize != 0 {
		return 0, errInvalidSize(tag, nElements)
	}
	return (nElements / layout.blockSize) * layout.bytesPerBlock, nil
}

// maybeNativeNumericType reports whether tag is a plain numeric element
// type (no scale/min unpacking needed) rather than a quantized block
// format that must go through a dequantization kernel.
func maybeNativeNumericType(tag Type) bool {
	switch tag {
	case TypeF32, TypeF16, TypeBF16, TypeF64, TypeI8, TypeI16, TypeI32, TypeI64:
		return true
	default:
		return false
	}
}

// isQuantized reports the complement of maybeNativeNumericType.
func isQuantized(tag Type) bool {
	return !maybeNativeNumericType(tag)
}
