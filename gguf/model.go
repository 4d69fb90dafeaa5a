// Package gguf - GGUF Modell-Hauptstruktur
//
// Dieses Modul enthaelt die oeffentlichen Kernstrukturen des dekodierten Modells:
// - Header: Das feste 24-Byte GGUF-Praefix (Magic, Version, Zaehler)
// - Tensor: Ein materialisierter Tensor (Shape, Typ, Daten)
// - Model: Vollstaendig dekodiertes GGUF-Modell (Header, Metadata, Tensors)
// - Model.TensorDataBaseOffset/IsLazy: Zugriffsmethoden
package gguf

// Header is the fixed 24-byte GGUF preamble (spec §3/§6): magic bytes
// (validated, not stored), version, and the two directory counts needed to
// drive the metadata and tensor-info decoders.
type Header struct {
	Version         uint32
	TensorCount     uint64
	MetadataKVCount uint64
}

// Tensor is a fully materialised, dequantized element buffer plus its
// shape — the eager-load or fetch_tensor result (spec §3's Model.tensors
// entries). Data holds float32 values, except when LoadOptions.Dequantize
// is false and the tensor's type is quantized: then Data is nil and Raw
// holds the packed source bytes verbatim.
type Tensor struct {
	Shape []uint64
	Type  Type
	Data  []float32
	Raw   []byte
}

// Model is the result of Load or Peek (spec §3). TensorNames preserves
// on-disk tensor-info order for deterministic iteration; Tensors is nil in
// lazy mode. sourcePath is set only for lazy models, since FetchTensor
// needs it to reopen the file per call.
type Model struct {
	Version         uint32
	Metadata        *Metadata
	TensorDirectory TensorDirectory
	TensorNames     []string
	Tensors         map[string]Tensor

	tensorDataBaseOffset uint64
	sourcePath           string
	lazy                 bool
}

// TensorDataBaseOffset is the absolute file offset where packed tensor
// bytes begin (spec §3's tensor_data_base_offset).
func (m *Model) TensorDataBaseOffset() uint64 { return m.tensorDataBaseOffset }

// IsLazy reports whether Tensors is absent and FetchTensor must be used.
func (m *Model) IsLazy() bool { return m.lazy }
