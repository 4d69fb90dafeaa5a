// Package gguf - Low-Level Primitive Lese-Funktionen
//
// Dieses Modul enthaelt die grundlegenden Byte-Lesefunktionen fuer GGUF-Dateien:
// - cursor: Positionsloser Wrapper um den vollstaendigen Datei-Buffer
// - readU8/readI8/readU16/.../readF64/readBool: Primitive Little-Endian Leser
// - readString: Versionsabhaengige String-Deserialisierung (u32- vs. u64-Laenge)
package gguf

import (
	"encoding/binary"
	"math"
)

// cursor is the primitive decoder's read head over an in-memory buffer.
// Every read* function takes and returns a byte offset explicitly rather
// than mutating shared state, so callers can retry or branch without
// rewinding: spec §4.2 describes reads as "(value, new_cursor) or Truncated".
type cursor struct {
	buf []byte
}

func need(c cursor, pos int, width int, context string) error {
	if pos < 0 || width < 0 || pos+width > len(c.buf) {
		return errTruncated(context, int64(width), int64(max(0, len(c.buf)-pos)))
	}
	return nil
}

func readU8(c cursor, pos int) (uint8, int, error) {
	if err := need(c, pos, 1, "u8"); err != nil {
		return 0, pos, err
	}
	return c.buf[pos], pos + 1, nil
}

func readI8(c cursor, pos int) (int8, int, error) {
	v, next, err := readU8(c, pos)
	return int8(v), next, err
}

func readU16(c cursor, pos int) (uint16, int, error) {
	if err := need(c, pos, 2, "u16"); err != nil {
		return 0, pos, err
	}
	return binary.LittleEndian.Uint16(c.buf[pos:]), pos + 2, nil
}

func readI16(c cursor, pos int) (int16, int, error) {
	v, next, err := readU16(c, pos)
	return int16(v), next, err
}

func readU32(c cursor, pos int) (uint32, int, error) {
	if err := need(c, pos, 4, "u32"); err != nil {
		return 0, pos, err
	}
	return binary.LittleEndian.Uint32(c.buf[pos:]), pos + 4, nil
}

func readI32(c cursor, pos int) (int32, int, error) {
	v, next, err := readU32(c, pos)
	return int32(v), next, err
}

func readU64(c cursor, pos int) (uint64, int, error) {
	if err := need(c, pos, 8, "u64"); err != nil {
		return 0, pos, err
	}
	return binary.LittleEndian.Uint64(c.buf[pos:]), pos + 8, nil
}

func readI64(c cursor, pos int) (int64, int, error) {
	v, next, err := readU64(c, pos)
	return int64(v), next, err
}

func readF32(c cursor, pos int) (float32, int, error) {
	v, next, err := readU32(c, pos)
	return math.Float32frombits(v), next, err
}

func readF64(c cursor, pos int) (float64, int, error) {
	v, next, err := readU64(c, pos)
	return math.Float64frombits(v), next, err
}

func readBool(c cursor, pos int) (bool, int, error) {
	v, next, err := readU8(c, pos)
	return v != 0, next, err
}

// readString decodes a length-prefixed byte string. version selects the
// length width per spec §3/§6: v2 uses a u32 length, v3 (and anything else,
// defensively) a u64 length. The returned string is a fresh copy, never a
// NUL-terminated C string.
func readString(c cursor, pos int, version uint32) (string, int, error) {
	var n uint64
	var next int
	var err error
	if version == 2 {
		var n32 uint32
		n32, next, err = readU32(c, pos)
		n = uint64(n32)
	} else {
		n, next, err = readU64(c, pos)
	}
	if err != nil {
		return "", pos, err
	}
	if err := need(c, next, int(n), "string"); err != nil {
		return "", pos, err
	}
	s := string(c.buf[next : next+int(n)])
	return s, next + int(n), nil
}
