// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package safetensors

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/maruel/tensordebug"
	"github.com/pkg/errors"
)

const metadataKey = "__metadata__"

// header is the JSON header of a safetensors file.
type header struct {
	metadata map[string]string
	entries  []entry
}

// entry describes one tensor in the header.
type entry struct {
	name        string
	DType       tensordebug.DType `json:"dtype"`
	Shape       []uint64          `json:"shape"`
	DataOffsets [2]uint64         `json:"data_offsets"`
}

// rawEntry detects missing keys.
type rawEntry struct {
	DType       *tensordebug.DType `json:"dtype"`
	Shape       *[]uint64          `json:"shape"`
	DataOffsets *[2]uint64         `json:"data_offsets"`
}

func (h *header) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	h.metadata = nil
	h.entries = make([]entry, 0, len(raw))
	for k, v := range raw {
		if k == metadataKey {
			if err := json.Unmarshal(v, &h.metadata); err != nil {
				return errors.Wrapf(err, "invalid %q", metadataKey)
			}
			continue
		}
		r := rawEntry{}
		d := json.NewDecoder(bytes.NewReader(v))
		d.DisallowUnknownFields()
		if err := d.Decode(&r); err != nil {
			return errors.Wrapf(err, "tensor %q", k)
		}
		switch {
		case r.DType == nil:
			return errors.Errorf(`tensor %q: missing "dtype"`, k)
		case r.Shape == nil:
			return errors.Errorf(`tensor %q: missing "shape"`, k)
		case r.DataOffsets == nil:
			return errors.Errorf(`tensor %q: missing "data_offsets"`, k)
		}
		h.entries = append(h.entries, entry{name: k, DType: *r.DType, Shape: *r.Shape, DataOffsets: *r.DataOffsets})
	}

	// Files written by other implementations may be ordered by name or in any
	// order; the data is what matters.
	sort.Slice(h.entries, func(i, j int) bool {
		a := h.entries[i].DataOffsets
		b := h.entries[j].DataOffsets
		return a[0] < b[0] || (a[0] == b[0] && a[1] < b[1]) || (a == b && h.entries[i].name < h.entries[j].name)
	})
	return nil
}

func (h *header) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(h.entries)+1)
	if len(h.metadata) > 0 {
		obj[metadataKey] = h.metadata
	}
	for i := range h.entries {
		obj[h.entries[i].name] = &h.entries[i]
	}
	return json.Marshal(obj)
}

// validate returns the end offset of the last tensor, which must be the end
// of the data buffer.
func (h *header) validate() (uint64, error) {
	start := uint64(0)
	for i := range h.entries {
		e := &h.entries[i]
		s, end := e.DataOffsets[0], e.DataOffsets[1]
		if s != start || end < s {
			return 0, errors.Errorf("tensor %q #%d: invalid offset", e.name, i)
		}
		start = end
		t := tensordebug.Tensor{DType: e.DType, Shape: e.Shape}
		n, err := t.NumBytes()
		if err != nil {
			return 0, errors.Wrapf(err, "tensor %q #%d", e.name, i)
		}
		if end-s != n {
			return 0, errors.Errorf("tensor %q #%d: info data offsets mismatch", e.name, i)
		}
	}
	return start, nil
}
