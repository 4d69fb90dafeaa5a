// Package gguf - Metadaten-Wert und Metadaten-Map
//
// Dieses Modul enthaelt den getaggten Metadaten-Wert und die geordnete Map:
// - Value: Getaggte Summe ueber die 13 GGUF-Metadaten-Skalar/Array-Kinds
// - Value.Kind/Uint/Int/Float/Bool/String/Array: Typisierte Zugriffsmethoden
// - Metadata: Geordnete Key/Value-Map mit Last-Wins bei Duplikaten
// - Metadata.Get/Len/Keys/Alignment: Zugriffsmethoden
package gguf

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// valueKind is the on-disk GGUF metadata type id (spec §6's 0..12 table).
type valueKind uint32

const (
	kindU8 valueKind = iota
	kindI8
	kindU16
	kindI16
	kindU32
	kindI32
	kindF32
	kindBool
	kindString
	kindArray
	kindU64
	kindI64
	kindF64
)

// Value is a tagged sum over the thirteen GGUF metadata scalar/array kinds
// (spec §3's MetadataValue). Exactly one of the typed fields is meaningful,
// selected by kind; an array additionally carries elemKind, the tag every
// element in arr shares (itself possibly kindArray, for nested arrays).
type Value struct {
	kind valueKind

	u64 uint64 // backs U8/I8/U16/I16/U32/I32/U64/I64 (sign-extended/widened)
	f64 float64
	b   bool
	s   string

	elemKind valueKind
	arr      []Value
}

func (v Value) Kind() string {
	switch v.kind {
	case kindU8:
		return "U8"
	case kindI8:
		return "I8"
	case kindU16:
		return "U16"
	case kindI16:
		return "I16"
	case kindU32:
		return "U32"
	case kindI32:
		return "I32"
	case kindU64:
		return "U64"
	case kindI64:
		return "I64"
	case kindF32:
		return "F32"
	case kindF64:
		return "F64"
	case kindBool:
		return "Bool"
	case kindString:
		return "String"
	case kindArray:
		return "Array"
	default:
		return "unknown"
	}
}

func (v Value) IsArray() bool { return v.kind == kindArray }

// Uint returns the value as a uint64 for any of the unsigned/signed integer
// kinds, and ok=false otherwise. Negative signed values widen with sign
// extension already applied by the decoder, so callers wanting an
// unsigned interpretation should check the original Kind first.
func (v Value) Uint() (uint64, bool) {
	switch v.kind {
	case kindU8, kindU16, kindU32, kindU64, kindI8, kindI16, kindI32, kindI64:
		return v.u64, true
	default:
		return 0, false
	}
}

// Int returns the value as an int64 for any integer kind.
func (v Value) Int() (int64, bool) {
	u, ok := v.Uint()
	return int64(u), ok
}

func (v Value) Float() (float64, bool) {
	switch v.kind {
	case kindF32, kindF64:
		return v.f64, true
	default:
		return 0, false
	}
}

func (v Value) Bool() (bool, bool) {
	if v.kind != kindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) String() (string, bool) {
	if v.kind != kindString {
		return "", false
	}
	return v.s, true
}

// Array returns the nested element sequence for an Array value.
func (v Value) Array() ([]Value, bool) {
	if v.kind != kindArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) GoString() string {
	switch v.kind {
	case kindString:
		return fmt.Sprintf("%q", v.s)
	case kindArray:
		return fmt.Sprintf("Array[%d]", len(v.arr))
	case kindBool:
		return fmt.Sprintf("%v", v.b)
	case kindF32, kindF64:
		return fmt.Sprintf("%v", v.f64)
	default:
		return fmt.Sprintf("%v", v.u64)
	}
}

// Metadata is the ordered key/value mapping spec §3 describes: duplicate
// keys keep the last value written but insertion order (of the key's first
// occurrence's slot) is preserved for deterministic iteration, exactly the
// shape github.com/wk8/go-ordered-map/v2 provides.
type Metadata struct {
	m *orderedmap.OrderedMap[string, Value]
}

func newMetadata() *Metadata {
	return &Metadata{m: orderedmap.New[string, Value]()}
}

func (m *Metadata) set(key string, v Value) {
	m.m.Set(key, v)
}

// Get returns the value for key and whether it was present.
func (m *Metadata) Get(key string) (Value, bool) {
	return m.m.Get(key)
}

func (m *Metadata) Len() int {
	return m.m.Len()
}

// Keys returns keys in insertion order.
func (m *Metadata) Keys() []string {
	keys := make([]string, 0, m.m.Len())
	for pair := m.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Alignment resolves general.alignment per spec §3/§9: a positive integer
// override, or 32 when the key is absent, non-positive, or not an integer.
func (m *Metadata) Alignment() uint64 {
	const def = 32
	v, ok := m.Get("general.alignment")
	if !ok {
		return def
	}
	n, ok := v.Uint()
	if !ok || int64(n) <= 0 {
		return def
	}
	return n
}
