// Package debug formats indented trees used in surface dumps.
package debug

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// TreeWriter accumulates indented lines, two spaces per depth level.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes quoted value, empty values are written as is.
func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Fields writes label followed by key=value pairs sorted by key. Nothing is
// written for empty map.
func (tw TreeWriter) Fields(depth int, label string, fields map[string]string) {
	if len(fields) == 0 {
		return
	}
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(":")
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		tw.w.WriteByte(' ')
		tw.w.WriteString(k)
		tw.w.WriteByte('=')
		tw.w.WriteString(encodeText(fields[k]))
	}
	tw.w.WriteByte('\n')
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
