// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensordebug

import (
	"github.com/pkg/errors"
)

// MaxDims is the maximum number of dimensions of a Tensor.
const MaxDims = 4

// Tensor is a read-only view of a tensor to inspect.
//
// Endianness is assumed to be little-endian. Ordering is assumed to be 'C',
// Shape[0] is the outermost dimension.
type Tensor struct {
	Name  string
	Op    Op
	DType DType
	Shape []uint64
	Data  []byte
	// Src are the tensors that were used as inputs to compute this one. Both
	// are optional.
	Src [2]*Tensor
}

// Rank returns the number of dimensions of the tensor.
//
// A scalar has rank 1.
func (t *Tensor) Rank() int {
	return max(len(t.Shape), 1)
}

// Dims returns the shape padded with 1 up to MaxDims.
func (t *Tensor) Dims() [MaxDims]uint64 {
	d := [MaxDims]uint64{1, 1, 1, 1}
	copy(d[:], t.Shape)
	return d
}

// NumElements returns the number of elements described by the shape.
func (t *Tensor) NumElements() (uint64, error) {
	n := uint64(1)
	for _, v := range t.Shape {
		var err error
		if n, err = checkedMul(n, v); err != nil {
			return 0, errors.Wrap(err, "failed to compute num elements from shape")
		}
	}
	return n, nil
}

// NumBytes returns the expected length of Data.
func (t *Tensor) NumBytes() (uint64, error) {
	n, err := t.NumElements()
	if err != nil {
		return 0, err
	}
	b, err := checkedMul(n, t.DType.WordSize())
	if err != nil {
		return 0, errors.Wrap(err, "failed to compute num bytes from num elements")
	}
	return b, nil
}

// Validate verifies that Data matches DType and Shape.
func (t *Tensor) Validate() error {
	if err := t.DType.Validate(); err != nil {
		return err
	}
	if len(t.Shape) > MaxDims {
		return errors.Errorf("too many dimensions: max %d, actual %d", MaxDims, len(t.Shape))
	}
	n, err := t.NumBytes()
	if err != nil {
		return err
	}
	if l := uint64(len(t.Data)); l != n {
		return errors.Errorf("invalid tensor: dtype=%s shape=%+v len(data)=%d", t.DType, t.Shape, l)
	}
	return nil
}

// checkedMul multiplies a and b and checks for overflow.
func checkedMul(a, b uint64) (uint64, error) {
	c := a * b
	if a > 1 && b > 1 && c/a != b {
		return c, errors.Errorf("multiplication overflow: %d * %d", a, b)
	}
	return c, nil
}
