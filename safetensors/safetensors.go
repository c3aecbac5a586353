// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package safetensors reads and writes safetensors files as tensordebug
// tensors.
//
// The file format is described at https://github.com/huggingface/safetensors.
package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/maruel/tensordebug"
	"github.com/pkg/errors"
)

const maxHeaderSize = 100_000_000

// File is the content of a safetensors file.
//
// When returned by Parse, the tensors' Data alias the parsed buffer.
type File struct {
	Tensors  []tensordebug.Tensor
	Metadata map[string]string
}

// Parse parses a byte-buffer representing the whole safetensors file.
//
// No tensor data is copied.
func Parse(b []byte) (*File, error) {
	size := uint64(len(b))
	if size < 8 {
		return nil, errors.Errorf("invalid header: too small (%d bytes)", size)
	}
	n := binary.LittleEndian.Uint64(b)
	if n > maxHeaderSize {
		return nil, errors.Errorf("invalid header: too large max %d, actual %d", maxHeaderSize, n)
	}
	stop := n + 8
	if stop > size {
		return nil, errors.Errorf("invalid header: invalid length %d", stop)
	}
	h := header{}
	if err := json.Unmarshal(b[8:stop], &h); err != nil {
		return nil, errors.Wrap(err, "invalid header")
	}
	end, err := h.validate()
	if err != nil {
		return nil, errors.Wrap(err, "invalid metadata")
	}
	if end+stop != size {
		return nil, errors.Errorf("metadata incomplete buffer: %d != %d", end+stop, size)
	}
	data := b[stop:]
	f := &File{Tensors: make([]tensordebug.Tensor, len(h.entries)), Metadata: h.metadata}
	for i, en := range h.entries {
		s, e := en.DataOffsets[0], en.DataOffsets[1]
		f.Tensors[i] = tensordebug.Tensor{Name: en.name, DType: en.DType, Shape: en.Shape, Data: data[s:e:e]}
	}
	return f, nil
}

// Tensor returns the tensor with the given name, or nil if not found.
func (f *File) Tensor(name string) *tensordebug.Tensor {
	// Linear search; files rarely have more than a few hundred tensors.
	for i := range f.Tensors {
		if f.Tensors[i].Name == name {
			return &f.Tensors[i]
		}
	}
	return nil
}

// Serialize writes the tensors in order, then their data.
func (f *File) Serialize(w io.Writer) error {
	h := header{metadata: f.Metadata, entries: make([]entry, len(f.Tensors))}
	offset := uint64(0)
	for i := range f.Tensors {
		t := &f.Tensors[i]
		if err := t.Validate(); err != nil {
			return errors.Wrapf(err, "tensor %q", t.Name)
		}
		n := uint64(len(t.Data))
		shape := t.Shape
		if shape == nil {
			shape = []uint64{}
		}
		h.entries[i] = entry{
			name:        t.Name,
			DType:       t.DType,
			Shape:       shape,
			DataOffsets: [2]uint64{offset, offset + n},
		}
		offset += n
	}
	buf, err := json.Marshal(&h)
	if err != nil {
		return errors.Wrap(err, "failed to JSON-marshal metadata")
	}
	// Force alignment to 8 bytes.
	if extra := (8 - len(buf)%8) % 8; extra > 0 {
		buf = append(buf, "       "[:extra]...)
	}

	var nbArr [8]byte
	binary.LittleEndian.PutUint64(nbArr[:], uint64(len(buf)))
	if _, err = w.Write(nbArr[:]); err != nil {
		return err
	}
	if _, err = w.Write(buf); err != nil {
		return err
	}
	for i := range f.Tensors {
		if _, err = w.Write(f.Tensors[i].Data); err != nil {
			return err
		}
	}
	return nil
}
