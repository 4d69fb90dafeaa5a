// MODUL: encode_test
// ZWECK: Test-only Referenz-Encoder (inverser Parser) fuer Round-Trip-Tests
// INPUT: fixtureBuilder-Aufrufe (KV-Paare, Tensor-Fixtures) aus anderen Testdateien
// OUTPUT: Serialisiertes GGUF-Byte-Image bzw. eine Fixture-Datei
// NEBENEFFEKTE: schreibt eine temporaere Datei ueber t.TempDir
// ABHAENGIGKEITEN: testing, bytes, encoding/binary, os, path/filepath, golang.org/x/sync/errgroup
// HINWEISE: gehoert nicht zur oeffentlichen API; Gegenstueck zu decodeMetadata/decodeTensorInfos
package gguf

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sync/errgroup"
)

// This file is the test-only "inverse encoder" spec.md §1 places outside
// the library's runtime contract and §8 requires for round-trip testing.
// It is grounded on fs/ggml/gguf_write.go's WriteGGUF: same binary.Write
// calls, same alignment/padding bookkeeping, same errgroup-based
// parallel tensor-payload fan-out — generalized to emit both v2 (u32
// string length) and v3 (u64 string length) fixtures.

// fixtureValue is the encoder-side counterpart of Value: a tiny tagged
// union built by the fXxx constructors below and never exposed outside
// tests.
type fixtureValue struct {
	kind valueKind

	u64 uint64
	f64 float64
	b   bool
	s   string

	elemKind valueKind
	arr      []fixtureValue
}

func fu8(v uint8) fixtureValue   { return fixtureValue{kind: kindU8, u64: uint64(v)} }
func fi8(v int8) fixtureValue    { return fixtureValue{kind: kindI8, u64: uint64(int64(v))} }
func fu16(v uint16) fixtureValue { return fixtureValue{kind: kindU16, u64: uint64(v)} }
func fi16(v int16) fixtureValue  { return fixtureValue{kind: kindI16, u64: uint64(int64(v))} }
func fu32(v uint32) fixtureValue { return fixtureValue{kind: kindU32, u64: uint64(v)} }
func fi32(v int32) fixtureValue  { return fixtureValue{kind: kindI32, u64: uint64(int64(v))} }
func fu64(v uint64) fixtureValue { return fixtureValue{kind: kindU64, u64: v} }
func fi64(v int64) fixtureValue  { return fixtureValue{kind: kindI64, u64: uint64(v)} }
func ff32(v float32) fixtureValue { return fixtureValue{kind: kindF32, f64: float64(v)} }
func ff64(v float64) fixtureValue { return fixtureValue{kind: kindF64, f64: v} }
func fbool(v bool) fixtureValue  { return fixtureValue{kind: kindBool, b: v} }
func fstr(v string) fixtureValue { return fixtureValue{kind: kindString, s: v} }

func farray(elemKind valueKind, elems ...fixtureValue) fixtureValue {
	return fixtureValue{kind: kindArray, elemKind: elemKind, arr: elems}
}

type kvEntry struct {
	key string
	val fixtureValue
}

type tensorFixture struct {
	name string
	// shape is row-major (outermost-first), matching what Load returns;
	// the encoder reverses it before writing dims on disk.
	shape []uint64
	typ   Type
	raw   []byte
}

type fixtureBuilder struct {
	version uint32
	kv      []kvEntry
	tensors []tensorFixture
}

func newFixture(version uint32) *fixtureBuilder {
	return &fixtureBuilder{version: version}
}

func (b *fixtureBuilder) kvPair(key string, v fixtureValue) *fixtureBuilder {
	b.kv = append(b.kv, kvEntry{key: key, val: v})
	return b
}

func (b *fixtureBuilder) tensor(name string, shape []uint64, typ Type, raw []byte) *fixtureBuilder {
	b.tensors = append(b.tensors, tensorFixture{name: name, shape: shape, typ: typ, raw: raw})
	return b
}

func (b *fixtureBuilder) alignment() uint64 {
	for _, e := range b.kv {
		if e.key == "general.alignment" {
			return e.val.u64
		}
	}
	return 32
}

func encWriteString(w *bytes.Buffer, version uint32, s string) {
	if version == 2 {
		binary.Write(w, binary.LittleEndian, uint32(len(s)))
	} else {
		binary.Write(w, binary.LittleEndian, uint64(len(s)))
	}
	w.WriteString(s)
}

func encWriteValue(w *bytes.Buffer, version uint32, v fixtureValue) {
	switch v.kind {
	case kindU8:
		binary.Write(w, binary.LittleEndian, uint8(v.u64))
	case kindI8:
		binary.Write(w, binary.LittleEndian, int8(v.u64))
	case kindU16:
		binary.Write(w, binary.LittleEndian, uint16(v.u64))
	case kindI16:
		binary.Write(w, binary.LittleEndian, int16(v.u64))
	case kindU32:
		binary.Write(w, binary.LittleEndian, uint32(v.u64))
	case kindI32:
		binary.Write(w, binary.LittleEndian, int32(v.u64))
	case kindU64:
		binary.Write(w, binary.LittleEndian, v.u64)
	case kindI64:
		binary.Write(w, binary.LittleEndian, int64(v.u64))
	case kindF32:
		binary.Write(w, binary.LittleEndian, float32(v.f64))
	case kindF64:
		binary.Write(w, binary.LittleEndian, v.f64)
	case kindBool:
		var b uint8
		if v.b {
			b = 1
		}
		binary.Write(w, binary.LittleEndian, b)
	case kindString:
		encWriteString(w, version, v.s)
	case kindArray:
		binary.Write(w, binary.LittleEndian, uint32(v.elemKind))
		binary.Write(w, binary.LittleEndian, uint64(len(v.arr)))
		for _, e := range v.arr {
			encWriteValue(w, version, e)
		}
	}
}

func encWriteKV(w *bytes.Buffer, version uint32, e kvEntry) {
	encWriteString(w, version, e.key)
	binary.Write(w, binary.LittleEndian, uint32(e.val.kind))
	encWriteValue(w, version, e.val)
}

func encPadding(offset, alignment uint64) uint64 {
	if alignment == 0 {
		return 0
	}
	rem := offset % alignment
	if rem == 0 {
		return 0
	}
	return alignment - rem
}

// build serializes the fixture and returns the full GGUF byte image.
func (b *fixtureBuilder) build(t *testing.T) []byte {
	t.Helper()

	var header bytes.Buffer
	header.WriteString("GGUF")
	binary.Write(&header, binary.LittleEndian, b.version)
	binary.Write(&header, binary.LittleEndian, uint64(len(b.tensors)))
	binary.Write(&header, binary.LittleEndian, uint64(len(b.kv)))

	for _, e := range b.kv {
		encWriteKV(&header, b.version, e)
	}

	alignment := b.alignment()

	// First pass: compute each tensor's data offset the way the teacher's
	// WriteGGUF does (running size + padding); the second pass writes the
	// tensor-info entries with those offsets.
	offsets := make([]uint64, len(b.tensors))
	var runningSize uint64
	for i, tf := range b.tensors {
		offsets[i] = runningSize
		runningSize += uint64(len(tf.raw))
		runningSize += encPadding(runningSize, alignment)
	}

	for i, tf := range b.tensors {
		encWriteString(&header, b.version, tf.name)
		dims := reverse(tf.shape)
		binary.Write(&header, binary.LittleEndian, uint32(len(dims)))
		for _, d := range dims {
			binary.Write(&header, binary.LittleEndian, d)
		}
		binary.Write(&header, binary.LittleEndian, uint32(tf.typ))
		binary.Write(&header, binary.LittleEndian, offsets[i])
	}

	prefixLen := uint64(header.Len())
	baseOffset := alignUp(prefixLen, alignment)

	out := make([]byte, baseOffset+runningSize)
	copy(out, header.Bytes())

	// Tensor payloads never overlap, so each goroutine owns a disjoint
	// slice of out — the same shape as WriteGGUF's parallel offset writers.
	var g errgroup.Group
	for i, tf := range b.tensors {
		i, tf := i, tf
		g.Go(func() error {
			dst := out[baseOffset+offsets[i] : baseOffset+offsets[i]+uint64(len(tf.raw))]
			copy(dst, tf.raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("encode tensor payloads: %v", err)
	}

	return out
}

// buildFile writes the fixture to a temp file and returns its path.
func (b *fixtureBuilder) buildFile(t *testing.T) string {
	t.Helper()
	data := b.build(t)
	path := filepath.Join(t.TempDir(), "fixture.gguf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
