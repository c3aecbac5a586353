// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensordebug

import (
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// PrimaryPrefix marks the tensor being inspected.
	PrimaryPrefix = ">>> "
	// InputPrefix marks the tensors that were used to compute it.
	InputPrefix = " ?? "
	// DefaultIndent is the indentation of the content rendering.
	DefaultIndent = 4
)

// Inspector writes human readable reports about tensors.
//
// A report is assembled in memory and written with a single Write call, so
// concurrent reports on the same Inspector do not interleave.
type Inspector struct {
	// Verbose enables the rendering of the content of the tensors.
	Verbose bool
	// EdgeItems is the number of elements shown at each end of a run.
	// Defaults to DefaultEdgeItems.
	EdgeItems int
	// Indent is the number of spaces before the content rendering.
	Indent int

	mu sync.Mutex
	w  io.Writer
}

// New returns an Inspector writing to w with the default settings.
func New(w io.Writer, verbose bool) *Inspector {
	return &Inspector{Verbose: verbose, EdgeItems: DefaultEdgeItems, Indent: DefaultIndent, w: w}
}

// Debug prints t and its inputs to stderr.
//
// Write errors are logged, not returned.
func Debug(t *Tensor, verbose bool) {
	if err := New(os.Stderr, verbose).Inspect(t); err != nil {
		klog.Warningf("tensordebug: %v", err)
	}
}

// Inspect writes the summary of t, then the summary of each of its inputs.
func (in *Inspector) Inspect(t *Tensor) error {
	b := in.appendSummary(nil, t, PrimaryPrefix)
	for _, src := range t.Src {
		if src != nil {
			b = in.appendSummary(b, src, InputPrefix)
		}
	}
	return in.write(b)
}

// Summarize writes one summary line for t prefixed by prefix.
//
// When Verbose is set, the content of t follows on the next line.
func (in *Inspector) Summarize(t *Tensor, prefix string) error {
	return in.write(in.appendSummary(nil, t, prefix))
}

func (in *Inspector) write(b []byte) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, err := in.w.Write(b); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	return nil
}

func (in *Inspector) appendSummary(b []byte, t *Tensor, prefix string) []byte {
	b = append(b, prefix...)
	b = append(b, t.Name...)
	b = append(b, ' ')
	b = append(b, t.Op.String()...)
	b = append(b, " ("...)
	b = append(b, string(t.DType)...)
	b = append(b, "): ["...)
	for i, d := range t.Dims() {
		if i != 0 {
			b = append(b, ' ')
		}
		b = strconv.AppendUint(b, d, 10)
	}
	b = append(b, "]\n"...)
	if !in.Verbose {
		return b
	}

	for i := 0; i < in.Indent; i++ {
		b = append(b, ' ')
	}
	content, err := appendContent(b, t, in.EdgeItems, in.Indent)
	switch {
	case errors.Is(err, ErrUnsupportedDType):
		klog.V(2).Infof("tensordebug: skipping content of %q: %v", t.Name, err)
		return append(b, "<unsupported type>\n"...)
	case err != nil:
		klog.V(2).Infof("tensordebug: skipping content of %q: %v", t.Name, err)
		b = append(b, '<')
		b = append(b, err.Error()...)
		return append(b, ">\n"...)
	}
	return append(content, '\n')
}
