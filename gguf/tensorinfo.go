// Package gguf - Tensor-Directory-Eintraege
//
// Dieses Modul enthaelt die Tensor-Info-Struktur und deren Dekodierung:
// - TensorInfo: Ein Tensor-Directory-Eintrag (Name, Shape, Typ, Offset)
// - TensorDirectory: Map von Tensor-Namen zu TensorInfo
// - decodeTensorInfo: Liest einen einzelnen Tensor-Info-Eintrag
// - decodeTensorInfos: Liest count Tensor-Info-Eintraege in Einfuegereihenfolge
// - reverse: Kehrt eine Shape-Dimension-Liste um (on-disk vs. row-major)
package gguf

import "fmt"

// TensorInfo describes one tensor's directory entry: its name, row-major
// shape, element type, and its byte offset/size within the tensor-data
// section (spec §3). Offset is relative to the section, not the file.
type TensorInfo struct {
	Name     string
	Shape    []uint64
	Type     Type
	Offset   uint64
	ByteSize uint64
}

// NumElements is the product of Shape.
func (t TensorInfo) NumElements() uint64 {
	n := uint64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// TensorDirectory maps tensor name to its descriptor. Names are unique
// (last tensor-info entry wins on a duplicate); iteration order over the
// map itself is irrelevant for correctness (spec §3) — callers that need
// on-disk order use Model.TensorNames instead.
type TensorDirectory map[string]TensorInfo

// decodeTensorInfo reads one tensor-info entry: name, dim count, dims
// (innermost-first on disk), type id, and offset (spec §4.4). The returned
// shape is reversed to row-major / outermost-first per spec §3's invariant.
func decodeTensorInfo(c cursor, pos int, version uint32) (TensorInfo, int, error) {
	name, pos, err := readString(c, pos, version)
	if err != nil {
		return TensorInfo{}, pos, fmt.Errorf("failed to read tensor name: %w", err)
	}

	nDims, pos, err := readU32(c, pos)
	if err != nil {
		return TensorInfo{}, pos, fmt.Errorf("failed to read tensor dimension count for %q: %w", name, err)
	}

	dims := make([]uint64, nDims)
	for i := range dims {
		dims[i], pos, err = readU64(c, pos)
		if err != nil {
			return TensorInfo{}, pos, fmt.Errorf("failed to read tensor shape for %q: %w", name, err)
		}
	}

	typeID, pos, err := readU32(c, pos)
	if err != nil {
		return TensorInfo{}, pos, fmt.Errorf("failed to read tensor type for %q: %w", name, err)
	}

	offset, pos, err := readU64(c, pos)
	if err != nil {
		return TensorInfo{}, pos, fmt.Errorf("failed to read tensor offset for %q: %w", name, err)
	}

	tag, err := typeFromID(typeID)
	if err != nil {
		return TensorInfo{}, pos, fmt.Errorf("failed to resolve tensor type for %q: %w", name, err)
	}

	shape := reverse(dims)

	nElements := uint64(1)
	for _, d := range shape {
		nElements *= d
	}

	byteSize, err := byteSizeFor(tag, nElements)
	if err != nil {
		return TensorInfo{}, pos, fmt.Errorf("failed to compute byte size for %q: %w", name, err)
	}

	return TensorInfo{
		Name:     name,
		Shape:    shape,
		Type:     tag,
		Offset:   offset,
		ByteSize: byteSize,
	}, pos, nil
}

func reverse(s []uint64) []uint64 {
	out := make([]uint64, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

// decodeTensorInfos reads count tensor-info entries, returning both the
// name-keyed directory (last entry with a given name wins, mirroring
// Metadata's duplicate-key rule) and the on-disk order of names.
func decodeTensorInfos(c cursor, pos int, version uint32, count uint64) (TensorDirectory, []string, int, error) {
	dir := make(TensorDirectory, count)
	order := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		info, next, err := decodeTensorInfo(c, pos, version)
		if err != nil {
			return nil, nil, pos, fmt.Errorf("failed to read tensor info entry %d: %w", i, err)
		}
		pos = next
		if _, dup := dir[info.Name]; !dup {
			order = append(order, info.Name)
		}
		dir[info.Name] = info
	}
	return dir, order, pos, nil
}
