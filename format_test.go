// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensordebug

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormat(t *testing.T) {
	data := []struct {
		name   string
		tensor *Tensor
		indent int
		want   string
	}{
		{
			"elided run",
			i32Tensor("t", []uint64{10}, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10),
			0,
			"[1, 2, 3, ... (4 more), 8, 9, 10]",
		},
		{
			"matrix",
			f32Tensor("t", []uint64{2, 2}, 1, 2, 3, 4),
			0,
			"[[1.000000, 2.000000],\n [3.000000, 4.000000]]",
		},
		{
			"matrix indented",
			i32Tensor("t", []uint64{2, 2}, 1, 2, 3, 4),
			4,
			"[[1, 2],\n     [3, 4]]",
		},
		{
			"cube",
			i32Tensor("t", []uint64{2, 2, 2}, iota32(8)...),
			0,
			"[[[0, 1],\n  [2, 3]],\n\n [[4, 5],\n  [6, 7]]]",
		},
		{
			"elided rows",
			i32Tensor("t", []uint64{8, 1}, iota32(8)...),
			0,
			"[[0],\n [1],\n [2],\n ... (2 more),\n [5],\n [6],\n [7]]",
		},
		{
			"seven",
			i32Tensor("t", []uint64{7}, iota32(7)...),
			0,
			"[0, 1, 2, ... (1 more), 4, 5, 6]",
		},
		{
			"six",
			i32Tensor("t", []uint64{6}, iota32(6)...),
			0,
			"[0, 1, 2, 3, 4, 5]",
		},
		{
			"half",
			f16Tensor("t", []uint64{3}, 1.5, -2, 0.25),
			0,
			"[1.500000, -2.000000, 0.250000]",
		},
		{
			"negative",
			i32Tensor("t", []uint64{2}, -7, 2147483647),
			0,
			"[-7, 2147483647]",
		},
		{
			"scalar",
			i32Tensor("t", nil, 42),
			0,
			"[42]",
		},
		{
			"zero sized",
			i32Tensor("t", []uint64{2, 0}),
			0,
			"[[],\n []]",
		},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			got, err := Format(line.tensor, DefaultEdgeItems, line.indent)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(line.want, got); diff != "" {
				t.Fatalf("(-want,+got)\n%s", diff)
			}
		})
	}
}

func TestFormat_EdgeItems(t *testing.T) {
	tensor := i32Tensor("t", []uint64{5}, iota32(5)...)
	got, err := Format(tensor, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if want := "[0, ... (3 more), 4]"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
	// Non-positive values use the default.
	if got, err = Format(tensor, 0, 0); err != nil {
		t.Fatal(err)
	}
	if want := "[0, 1, 2, 3, 4]"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestFormat_Runs(t *testing.T) {
	for n := 1; n <= 20; n++ {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			got, err := Format(i32Tensor("t", []uint64{uint64(n)}, iota32(n)...), DefaultEdgeItems, 0)
			if err != nil {
				t.Fatal(err)
			}
			var want []string
			if n <= 2*DefaultEdgeItems {
				if strings.Contains(got, "...") {
					t.Fatalf("unexpected ellipsis: %s", got)
				}
				for i := 0; i < n; i++ {
					want = append(want, strconv.Itoa(i))
				}
			} else {
				if c := strings.Count(got, "..."); c != 1 {
					t.Fatalf("want one ellipsis, got %d: %s", c, got)
				}
				want = []string{"0", "1", "2", fmt.Sprintf("... (%d more)", n-6)}
				for i := n - 3; i < n; i++ {
					want = append(want, strconv.Itoa(i))
				}
			}
			if diff := cmp.Diff("["+strings.Join(want, ", ")+"]", got); diff != "" {
				t.Fatalf("(-want,+got)\n%s", diff)
			}
		})
	}
}

func TestFormat_Nesting(t *testing.T) {
	shapes := [][]uint64{{4}, {3, 8}, {2, 2, 9}, {3, 8, 2, 9}}
	for _, shape := range shapes {
		t.Run(fmt.Sprint(shape), func(t *testing.T) {
			tensor := i32Tensor("t", shape)
			n, err := tensor.NumElements()
			if err != nil {
				t.Fatal(err)
			}
			tensor = i32Tensor("t", shape, iota32(int(n))...)
			got, err := Format(tensor, DefaultEdgeItems, 0)
			if err != nil {
				t.Fatal(err)
			}
			if d := bracketDepth(got); d != tensor.Rank() {
				t.Fatalf("depth %d != rank %d\n%s", d, tensor.Rank(), got)
			}
		})
	}
}

func TestFormat_EllipsisCount(t *testing.T) {
	// 3 outer rows each elide 2 of 8 rows; 3*6*2 printed leaf runs each elide
	// 3 of 9 elements.
	tensor := i32Tensor("t", []uint64{3, 8, 2, 9}, iota32(3*8*2*9)...)
	got, err := Format(tensor, DefaultEdgeItems, 0)
	if err != nil {
		t.Fatal(err)
	}
	if c := strings.Count(got, "... (2 more)"); c != 3 {
		t.Fatalf("want 3, got %d", c)
	}
	if c := strings.Count(got, "... (3 more)"); c != 36 {
		t.Fatalf("want 36, got %d", c)
	}
	// The last element is printed once, at the very end.
	if !strings.HasSuffix(got, ", 431]]]]") {
		t.Fatalf("unexpected end: %q", got[len(got)-20:])
	}
}

func TestFormat_Errors(t *testing.T) {
	_, err := Format(&Tensor{Name: "t", DType: BF16, Shape: []uint64{1}, Data: make([]byte, 2)}, DefaultEdgeItems, 0)
	if !errors.Is(err, ErrUnsupportedDType) {
		t.Fatalf("unexpected error: %v", err)
	}
	if err.Error() != "BF16: unsupported type" {
		t.Fatal(err)
	}
	_, err = Format(&Tensor{Name: "t", DType: F32, Shape: []uint64{4}, Data: make([]byte, 8)}, DefaultEdgeItems, 0)
	if err == nil || err.Error() != "invalid tensor: dtype=F32 shape=[4] len(data)=8" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func bracketDepth(s string) int {
	depth, deepest := 0, 0
	for _, c := range s {
		switch c {
		case '[':
			depth++
			deepest = max(deepest, depth)
		case ']':
			depth--
		}
	}
	return deepest
}
