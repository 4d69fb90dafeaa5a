// Package gguf - Laden von GGUF-Dateien
//
// Dieses Modul enthaelt die oeffentliche Lade-API und den Dekodier-Ablauf:
// - LoadOptions/Option/WithLazy/WithTensorFilter/WithDequantize: Functional Options
// - Load: Oeffnet, dekodiert und materialisiert eine GGUF-Datei
// - Peek: Dekodiert nur Header/Metadata/Directory, ohne Tensordaten zu lesen
// - decodeStructure/verifyTensorRegions: Interner Header/Metadata/Directory-Ablauf
// - decodeAllTensors/decodeTensor: Tensor-Materialisierung (eager, parallelisiert)
// - FetchTensor/TensorNames/MetadataOf: Zugriff auf ein geladenes Model
package gguf

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var magic = [4]byte{'G', 'G', 'U', 'F'}

// LoadOptions configures Load (spec §4.6). The functional-options builder
// mirrors the teacher's own vision.LoadOptions/vision.Option pattern.
type LoadOptions struct {
	Lazy         bool
	TensorFilter func(name string) bool
	Dequantize   bool
}

// Option is a functional option for LoadOptions.
type Option func(*LoadOptions)

// DefaultLoadOptions returns Load's defaults: eager, no filter (accept
// all), dequantize quantized tensors to f32.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Lazy:         false,
		TensorFilter: func(string) bool { return true },
		Dequantize:   true,
	}
}

// WithLazy toggles lazy loading. When true, Load parses structure only and
// defers all tensor-byte reads to FetchTensor.
func WithLazy(lazy bool) Option {
	return func(o *LoadOptions) { o.Lazy = lazy }
}

// WithTensorFilter restricts which tensors are materialised during eager
// Load. Rejected tensors still appear in the returned Model's
// TensorDirectory; only their data is skipped. A nil predicate is treated
// as accept-all.
func WithTensorFilter(f func(name string) bool) Option {
	return func(o *LoadOptions) {
		if f == nil {
			f = func(string) bool { return true }
		}
		o.TensorFilter = f
	}
}

// WithDequantize toggles whether quantized tensors are expanded to f32.
// When false, natively-numeric tensors are still produced as typed
// buffers, but quantized tensors surface as raw byte buffers instead.
func WithDequantize(enabled bool) Option {
	return func(o *LoadOptions) { o.Dequantize = enabled }
}

func (o *LoadOptions) apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// Load opens path, decodes its header, metadata and tensor directory, and
// — unless WithLazy(true) is set — dequantizes every tensor that passes
// the tensor filter (spec §4.6). On any decode failure the returned Model
// is nil; no partial state is observable (spec §7).
func Load(path string, opts ...Option) (*Model, error) {
	o := DefaultLoadOptions()
	o.apply(opts...)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	header, md, dir, order, baseOffset, err := decodeStructure(buf)
	if err != nil {
		return nil, err
	}

	fileSize := int64(len(buf))
	if err := verifyTensorRegions(dir, baseOffset, fileSize); err != nil {
		return nil, err
	}

	model := &Model{
		Version:         header.Version,
		Metadata:        md,
		TensorDirectory: dir,
		TensorNames:     order,

		tensorDataBaseOffset: baseOffset,
		lazy:                 o.Lazy,
	}

	if o.Lazy {
		model.sourcePath = path
		return model, nil
	}

	tensors, err := decodeAllTensors(buf, dir, order, baseOffset, o)
	if err != nil {
		return nil, err
	}
	model.Tensors = tensors

	return model, nil
}

// Peek parses structure only and rejects every tensor's data, equivalent
// to Load(path, WithLazy(true), WithTensorFilter(reject-all)) (spec §4.6).
func Peek(path string) (*Model, error) {
	return Load(path, WithLazy(true), WithTensorFilter(func(string) bool { return false }))
}

// decodeStructure parses the header, metadata, and tensor-info sections and
// computes the tensor-data base offset (spec §3/§4.4/§9): general.alignment
// must be read from metadata, which precedes tensor info on disk, but the
// base offset itself can only be computed once tensor-info parsing ends.
func decodeStructure(buf []byte) (Header, *Metadata, TensorDirectory, []string, uint64, error) {
	c := cursor{buf: buf}
	pos := 0

	if len(buf) < 4 || [4]byte(buf[0:4]) != magic {
		return Header{}, nil, nil, nil, 0, errInvalidMagic()
	}
	pos = 4

	version, pos, err := readU32(c, pos)
	if err != nil {
		return Header{}, nil, nil, nil, 0, fmt.Errorf("failed to read gguf version: %w", err)
	}
	if version != 2 && version != 3 {
		return Header{}, nil, nil, nil, 0, errUnsupportedVersion(version)
	}

	tensorCount, pos, err := readU64(c, pos)
	if err != nil {
		return Header{}, nil, nil, nil, 0, fmt.Errorf("failed to read tensor count: %w", err)
	}
	kvCount, pos, err := readU64(c, pos)
	if err != nil {
		return Header{}, nil, nil, nil, 0, fmt.Errorf("failed to read metadata kv count: %w", err)
	}

	header := Header{Version: version, TensorCount: tensorCount, MetadataKVCount: kvCount}

	md, pos, err := decodeMetadata(c, pos, version, kvCount)
	if err != nil {
		return Header{}, nil, nil, nil, 0, fmt.Errorf("failed to read metadata: %w", err)
	}

	dir, order, pos, err := decodeTensorInfos(c, pos, version, tensorCount)
	if err != nil {
		return Header{}, nil, nil, nil, 0, fmt.Errorf("failed to read tensor infos: %w", err)
	}

	alignment := md.Alignment()
	baseOffset := alignUp(uint64(pos), alignment)

	slog.Debug("gguf: parsed structure", "version", version, "tensors", tensorCount,
		"metadata_kv", kvCount, "alignment", alignment, "base_offset", baseOffset)

	return header, md, dir, order, baseOffset, nil
}

func alignUp(offset, alignment uint64) uint64 {
	if alignment == 0 {
		return offset
	}
	rem := offset % alignment
	if rem == 0 {
		return offset
	}
	return offset + (alignment - rem)
}

// verifyTensorRegions confirms every tensor's absolute byte range lies
// within the file before Load returns success (spec §3's invariant; see
// SPEC_FULL.md §4 for why this runs eagerly rather than being deferred to
// first access, following the teacher's own post-parse verification pass).
func verifyTensorRegions(dir TensorDirectory, baseOffset uint64, fileSize int64) error {
	for name, info := range dir {
		start := int64(baseOffset + info.Offset)
		end := start + int64(info.ByteSize)
		if start < 0 || end < start || end > fileSize {
			return errTruncated(fmt.Sprintf("tensor %q data", name), end-start, fileSize-start)
		}
	}
	return nil
}

// decodeAllTensors dequantizes (or copies raw) every filtered tensor
// concurrently, bounded by GOMAXPROCS — the same errgroup.Group pattern
// the teacher's WriteGGUF uses to fan out parallel tensor I/O
// (fs/ggml/gguf_write.go).
func decodeAllTensors(buf []byte, dir TensorDirectory, order []string, baseOffset uint64, o LoadOptions) (map[string]Tensor, error) {
	type result struct {
		name   string
		tensor Tensor
	}

	names := make([]string, 0, len(order))
	for _, name := range order {
		if o.TensorFilter(name) {
			names = append(names, name)
		} else {
			slog.Debug("gguf: tensor filtered out", "name", name)
		}
	}

	results := make([]result, len(names))
	var g errgroup.Group
	g.SetLimit(max(1, runtime.GOMAXPROCS(0)))

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			info := dir[name]
			start := baseOffset + info.Offset
			end := start + info.ByteSize
			if end > uint64(len(buf)) {
				return errTruncated(fmt.Sprintf("tensor %q data", name), int64(info.ByteSize), int64(len(buf))-int64(start))
			}
			raw := buf[start:end]

			t, err := decodeTensor(info, raw, o.Dequantize)
			if err != nil {
				return fmt.Errorf("tensor %q: %w", name, err)
			}
			results[i] = result{name: name, tensor: t}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	tensors := make(map[string]Tensor, len(results))
	for _, r := range results {
		tensors[r.name] = r.tensor
	}
	return tensors, nil
}

// decodeTensor produces a Tensor from a tensor's raw packed bytes,
// honoring the dequantize option (spec §4.6): native numeric types always
// decode to f32; quantized types decode to f32 unless dequantize is false,
// in which case they surface as an opaque raw buffer.
func decodeTensor(info TensorInfo, raw []byte, dequantizeQuantized bool) (Tensor, error) {
	if !dequantizeQuantized && isQuantized(info.Type) {
		cp := make([]byte, len(raw))
		copy(cp, raw)
		return Tensor{Shape: info.Shape, Type: info.Type, Raw: cp}, nil
	}

	data, err := dequantize(info.Type, raw, info.NumElements())
	if err != nil {
		return Tensor{}, err
	}
	return Tensor{Shape: info.Shape, Type: info.Type, Data: data}, nil
}

// FetchTensor materialises a single tensor. For a lazy Model it opens the
// file, performs one positioned read of exactly ByteSize bytes at
// tensor_data_base_offset+info.Offset, and closes the file before
// returning (spec §4.6/§5) — safe to call concurrently from multiple
// goroutines against the same Model, provided the Model itself isn't
// mutated concurrently. For an eager Model it returns the already
// materialised tensor.
func FetchTensor(m *Model, name string) (Tensor, error) {
	info, ok := m.TensorDirectory[name]
	if !ok {
		return Tensor{}, errTensorNotFound(name)
	}

	if !m.lazy {
		t, ok := m.Tensors[name]
		if !ok {
			return Tensor{}, errTensorNotFound(name)
		}
		return t, nil
	}

	f, err := os.Open(m.sourcePath)
	if err != nil {
		return Tensor{}, err
	}
	defer f.Close()

	raw := make([]byte, info.ByteSize)
	start := int64(m.tensorDataBaseOffset + info.Offset)
	if _, err := f.ReadAt(raw, start); err != nil {
		if errors.Is(err, io.EOF) {
			return Tensor{}, errTruncated(fmt.Sprintf("tensor %q data", name), int64(info.ByteSize), 0)
		}
		return Tensor{}, err
	}

	slog.Debug("gguf: fetched tensor", "name", name, "offset", start, "bytes", info.ByteSize)

	return decodeTensor(info, raw, true)
}

// TensorNames returns tensor names in on-disk tensor-info order.
func TensorNames(m *Model) []string { return m.TensorNames }

// MetadataOf returns the Model's metadata mapping.
func MetadataOf(m *Model) *Metadata { return m.Metadata }
