// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensordebug

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// DefaultEdgeItems is the number of elements shown at each end of a run
// before the middle is elided.
const DefaultEdgeItems = 3

// ErrUnsupportedDType is returned when the content of a tensor cannot be
// rendered because of its data type.
var ErrUnsupportedDType = errors.New("unsupported type")

// elementPrinter appends the element at flat index i.
type elementPrinter func(b []byte, i int) []byte

// elementPrinterFor returns the printer for the data type of t.
//
// Each printer decodes a typed little-endian view of t.Data; indexing past
// the buffer panics like any other slice access.
func elementPrinterFor(t *Tensor) (elementPrinter, error) {
	data := t.Data
	switch t.DType {
	case F16:
		return func(b []byte, i int) []byte {
			v := float16.Frombits(binary.LittleEndian.Uint16(data[2*i : 2*i+2]))
			return strconv.AppendFloat(b, float64(v.Float32()), 'f', 6, 32)
		}, nil
	case F32:
		return func(b []byte, i int) []byte {
			v := math.Float32frombits(binary.LittleEndian.Uint32(data[4*i : 4*i+4]))
			return strconv.AppendFloat(b, float64(v), 'f', 6, 32)
		}, nil
	case I32:
		return func(b []byte, i int) []byte {
			v := int32(binary.LittleEndian.Uint32(data[4*i : 4*i+4]))
			return strconv.AppendInt(b, int64(v), 10)
		}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedDType, "%s", t.DType)
	}
}

// Format renders the content of t as nested brackets, one level per
// dimension.
//
// Runs longer than 2*edgeItems are elided in the middle. indent is the
// column at which the first bracket is printed, so that wrapped lines align
// under their opening bracket. The first line is not indented.
func Format(t *Tensor, edgeItems, indent int) (string, error) {
	b, err := appendContent(nil, t, edgeItems, indent)
	return string(b), err
}

func appendContent(b []byte, t *Tensor, edgeItems, indent int) ([]byte, error) {
	p, err := elementPrinterFor(t)
	if err != nil {
		return b, err
	}
	if err = t.Validate(); err != nil {
		return b, err
	}
	if edgeItems <= 0 {
		edgeItems = DefaultEdgeItems
	}
	dims := make([]int, 0, MaxDims)
	for _, d := range t.Shape {
		dims = append(dims, int(d))
	}
	if len(dims) == 0 {
		dims = append(dims, 1)
	}
	f := formatter{buf: b, print: p, rank: len(dims), edge: edgeItems, indent: indent}
	f.format(dims, 0)
	return f.buf, nil
}

// formatter recursively renders a flat buffer as nested runs.
type formatter struct {
	buf    []byte
	print  elementPrinter
	rank   int
	edge   int
	indent int
}

// format renders the sub-array described by dims starting at flat index
// offset.
func (f *formatter) format(dims []int, offset int) {
	n := dims[0]
	inner := 1
	for _, d := range dims[1:] {
		inner *= d
	}
	f.buf = append(f.buf, '[')
	for i := 0; i < n; i++ {
		if n > 2*f.edge && i == f.edge {
			skip := n - 2*f.edge
			f.buf = append(f.buf, "... ("...)
			f.buf = strconv.AppendInt(f.buf, int64(skip), 10)
			f.buf = append(f.buf, " more)"...)
			f.separator(len(dims))
			i += skip - 1
			continue
		}
		if len(dims) > 1 {
			f.format(dims[1:], offset+i*inner)
		} else {
			f.buf = f.print(f.buf, offset+i)
		}
		if i < n-1 {
			f.separator(len(dims))
		}
	}
	f.buf = append(f.buf, ']')
}

// separator is written between two siblings of a run. remaining is the
// number of dimensions left, including the one being iterated.
func (f *formatter) separator(remaining int) {
	if remaining == 1 {
		f.buf = append(f.buf, ", "...)
		return
	}
	f.buf = append(f.buf, ',')
	for i := 0; i < remaining-1; i++ {
		f.buf = append(f.buf, '\n')
	}
	for i := 0; i < f.rank-remaining+1+f.indent; i++ {
		f.buf = append(f.buf, ' ')
	}
}
