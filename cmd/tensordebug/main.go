// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// tensordebug prints the tensors of a safetensors file.
//
// By default it prints one summary line per tensor to stderr. With -content it
// also prints their content, eliding long runs:
//
//	tensordebug -content -names token_embd.weight model.safetensors
//
// With -list it prints a table of all the tensors instead.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/maruel/tensordebug"
	"github.com/maruel/tensordebug/safetensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagVerbose = flag.Bool("content", false, "Print the content of the tensors.")
	flagList    = flag.Bool("list", false, "List the tensors of the file in a table instead of inspecting them.")
	flagNames   = flag.String("names", "", "Comma-separated list of tensors to inspect. Defaults to all.")
	flagInputs  = flag.String("inputs", "", "Comma-separated list of at most 2 tensors printed as inputs of each inspected tensor.")
	flagEdge    = flag.Int("edge", tensordebug.DefaultEdgeItems, "Number of elements shown at each end of a dimension before eliding.")
)

type options struct {
	verbose bool
	list    bool
	names   []string
	inputs  []string
	edge    int
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		klog.Errorf("Missing safetensors file to read from. See 'tensordebug -help'")
		os.Exit(1)
	}
	if len(args) > 1 {
		klog.Errorf("Too many arguments. See 'tensordebug -help'.")
		os.Exit(1)
	}
	opts := options{
		verbose: *flagVerbose,
		list:    *flagList,
		names:   splitList(*flagNames),
		inputs:  splitList(*flagInputs),
		edge:    *flagEdge,
	}
	if err := run(args[0], opts, os.Stdout, os.Stderr); err != nil {
		klog.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(path string, opts options, stdout, stderr io.Writer) error {
	m := safetensors.Mapped{}
	if err := m.Open(path); err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			klog.Warningf("failed to close %s: %v", path, err)
		}
	}()
	klog.V(1).Infof("%s: %d tensors, %s", path, len(m.Tensors), humanize.Bytes(uint64(m.Size)))

	if opts.list {
		_, err := fmt.Fprintln(stdout, listTable(m.File))
		return err
	}
	return inspect(m.File, opts, stderr)
}

func inspect(f *safetensors.File, opts options, w io.Writer) error {
	if len(opts.inputs) > 2 {
		return errors.Errorf("at most 2 inputs are supported, got %d", len(opts.inputs))
	}
	var src [2]*tensordebug.Tensor
	for i, name := range opts.inputs {
		if src[i] = f.Tensor(name); src[i] == nil {
			return errors.Errorf("input tensor %q not found", name)
		}
	}
	var selected []*tensordebug.Tensor
	if len(opts.names) == 0 {
		for i := range f.Tensors {
			selected = append(selected, &f.Tensors[i])
		}
	} else {
		for _, name := range opts.names {
			t := f.Tensor(name)
			if t == nil {
				return errors.Errorf("tensor %q not found", name)
			}
			selected = append(selected, t)
		}
	}

	in := tensordebug.New(w, opts.verbose)
	in.EdgeItems = opts.edge
	for _, t := range selected {
		// Shallow copy so the file's tensors keep no inputs.
		c := *t
		c.Src = src
		if err := in.Inspect(&c); err != nil {
			return err
		}
	}
	return nil
}

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).Padding(0, 2, 0, 2).Align(lipgloss.Center)
	rowStyle       = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
)

// listTable returns a table of the tensors and a total row.
func listTable(f *safetensors.File) string {
	table := lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers("name", "dtype", "shape", "size").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerRowStyle
			}
			if col == 3 {
				return rowStyle.Align(lipgloss.Right)
			}
			return rowStyle
		})
	var total uint64
	for i := range f.Tensors {
		t := &f.Tensors[i]
		n := uint64(len(t.Data))
		total += n
		table.Row(t.Name, string(t.DType), fmt.Sprint(t.Shape), humanize.Bytes(n))
	}
	table.Row(humanize.Comma(int64(len(f.Tensors)))+" tensors", "", "", humanize.Bytes(total))
	return table.Render()
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
