// Package gguf - Metadaten-Dekodierung
//
// Dieses Modul enthaelt die Dekodier-Funktionen fuer GGUF Key-Value-Metadaten:
// - decodeValue: Liest einen typisierten Wert fuer ein gegebenes valueKind
// - decodeArray: Liest ein Array (Element-Typ, Anzahl, Elemente)
// - decodeKeyValue: Liest ein vollstaendiges Key/Typ/Wert-Tripel
// - decodeMetadata: Liest count Key/Value-Paare in eine geordnete Metadata-Map
package gguf

import "fmt"

// decodeValue reads one typed value given its already-decoded valueKind.
// It is used both for top-level KV values and, recursively, for array
// elements — an array's element kind may itself be kindArray, in which case
// each element carries its own nested element-kind prefix (spec §3/§9).
func decodeValue(c cursor, pos int, version uint32, kind valueKind) (Value, int, error) {
	switch kind {
	case kindU8:
		v, next, err := readU8(c, pos)
		return Value{kind: kindU8, u64: uint64(v)}, next, err
	case kindI8:
		v, next, err := readI8(c, pos)
		return Value{kind: kindI8, u64: uint64(int64(v))}, next, err
	case kindU16:
		v, next, err := readU16(c, pos)
		return Value{kind: kindU16, u64: uint64(v)}, next, err
	case kindI16:
		v, next, err := readI16(c, pos)
		return Value{kind: kindI16, u64: uint64(int64(v))}, next, err
	case kindU32:
		v, next, err := readU32(c, pos)
		return Value{kind: kindU32, u64: uint64(v)}, next, err
	case kindI32:
		v, next, err := readI32(c, pos)
		return Value{kind: kindI32, u64: uint64(int64(v))}, next, err
	case kindU64:
		v, next, err := readU64(c, pos)
		return Value{kind: kindU64, u64: v}, next, err
	case kindI64:
		v, next, err := readI64(c, pos)
		return Value{kind: kindI64, u64: uint64(v)}, next, err
	case kindF32:
		v, next, err := readF32(c, pos)
		return Value{kind: kindF32, f64: float64(v)}, next, err
	case kindF64:
		v, next, err := readF64(c, pos)
		return Value{kind: kindF64, f64: v}, next, err
	case kindBool:
		v, next, err := readBool(c, pos)
		return Value{kind: kindBool, b: v}, next, err
	case kindString:
		v, next, err := readString(c, pos, version)
		return Value{kind: kindString, s: v}, next, err
	case kindArray:
		return decodeArray(c, pos, version)
	default:
		return Value{}, pos, errUnknownMetadataType(uint32(kind))
	}
}

// decodeArray reads an array value: a u32 element-type tag, a u64 element
// count, then that many elements decoded via decodeValue (spec §4.3).
func decodeArray(c cursor, pos int, version uint32) (Value, int, error) {
	elemType, pos, err := readU32(c, pos)
	if err != nil {
		return Value{}, pos, fmt.Errorf("failed to read array element type: %w", err)
	}
	n, pos, err := readU64(c, pos)
	if err != nil {
		return Value{}, pos, fmt.Errorf("failed to read array element count: %w", err)
	}

	elemKind := valueKind(elemType)
	if elemKind > kindF64 {
		return Value{}, pos, errUnknownMetadataType(elemType)
	}

	elems := make([]Value, 0, n)
	for i := uint64(0); i < n; i++ {
		var v Value
		v, pos, err = decodeValue(c, pos, version, elemKind)
		if err != nil {
			return Value{}, pos, fmt.Errorf("failed to read array element %d: %w", i, err)
		}
		elems = append(elems, v)
	}

	return Value{kind: kindArray, elemKind: elemKind, arr: elems}, pos, nil
}

// decodeKeyValue reads one key/type/value triple (spec §4.3).
func decodeKeyValue(c cursor, pos int, version uint32) (string, Value, int, error) {
	key, pos, err := readString(c, pos, version)
	if err != nil {
		return "", Value{}, pos, fmt.Errorf("failed to read metadata key: %w", err)
	}

	typeID, pos, err := readU32(c, pos)
	if err != nil {
		return "", Value{}, pos, fmt.Errorf("failed to read metadata type for %q: %w", key, err)
	}

	kind := valueKind(typeID)
	if kind > kindF64 {
		return "", Value{}, pos, errUnknownMetadataType(typeID)
	}

	v, pos, err := decodeValue(c, pos, version, kind)
	if err != nil {
		return "", Value{}, pos, fmt.Errorf("failed to read metadata value for %q: %w", key, err)
	}
	return key, v, pos, nil
}

// decodeMetadata reads count key/value pairs sequentially into an ordered
// Metadata map, last-wins on duplicate keys (spec §3).
func decodeMetadata(c cursor, pos int, version uint32, count uint64) (*Metadata, int, error) {
	md := newMetadata()
	for i := uint64(0); i < count; i++ {
		key, v, next, err := decodeKeyValue(c, pos, version)
		if err != nil {
			return nil, pos, fmt.Errorf("failed to read metadata entry %d: %w", i, err)
		}
		pos = next
		md.set(key, v)
	}
	return md, pos, nil
}
