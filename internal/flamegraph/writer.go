package flamegraph

import (
	"fmt"
	"io"
	"sort"

	"github.com/jeheap-analysis/pkg/writer"
)

// Writer serializes a flame graph.
type Writer interface {
	Write(fg *FlameGraph, w io.Writer) error
	WriteToFile(fg *FlameGraph, filepath string) error
}

// JSONWriter writes flame graphs as JSON.
type JSONWriter struct {
	inner *writer.JSONWriter[*FlameGraph]
}

// NewJSONWriter creates a compact JSON flame graph writer.
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{inner: writer.NewJSONWriter[*FlameGraph]()}
}

// NewPrettyJSONWriter creates a pretty printing JSON flame graph writer.
func NewPrettyJSONWriter() *JSONWriter {
	return &JSONWriter{inner: writer.NewPrettyJSONWriter[*FlameGraph]()}
}

func (w *JSONWriter) Write(fg *FlameGraph, out io.Writer) error {
	return w.inner.Write(fg, out)
}

func (w *JSONWriter) WriteToFile(fg *FlameGraph, filepath string) error {
	return w.inner.WriteToFile(fg, filepath)
}

// GzipWriter writes flame graphs as gzipped JSON.
type GzipWriter struct {
	inner *writer.GzipWriter[*FlameGraph]
}

// NewGzipWriter creates a gzipped JSON flame graph writer.
func NewGzipWriter() *GzipWriter {
	return &GzipWriter{inner: writer.NewGzipWriter[*FlameGraph]()}
}

func (w *GzipWriter) Write(fg *FlameGraph, out io.Writer) error {
	return w.inner.Write(fg, out)
}

func (w *GzipWriter) WriteToFile(fg *FlameGraph, filepath string) error {
	return w.inner.WriteToFile(fg, filepath)
}

// WriteToFileWithStats writes the flame graph and reports sizes.
func (w *GzipWriter) WriteToFileWithStats(fg *FlameGraph, filepath string) (*writer.WriteResult, error) {
	return w.inner.WriteToFileWithStats(fg, filepath)
}

// FoldedWriter writes flame graphs in the collapsed stack format
// understood by flamegraph.pl and speedscope.
type FoldedWriter struct{}

// NewFoldedWriter creates a folded stack writer.
func NewFoldedWriter() *FoldedWriter {
	return &FoldedWriter{}
}

func (w *FoldedWriter) Write(fg *FlameGraph, out io.Writer) error {
	if fg == nil || fg.Root == nil {
		return nil
	}
	return writeFolded(fg.Root, "", out)
}

func writeFolded(node *Node, prefix string, out io.Writer) error {
	path := prefix
	if node.Frame != "root" || prefix != "" {
		if path != "" {
			path += ";"
		}
		path += node.Frame
	}

	// Self value is what the children do not account for.
	childSum := uint64(0)
	keys := make([]string, 0, len(node.Children))
	for key, child := range node.Children {
		childSum += child.Value
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if self := node.Value - childSum; self > 0 && path != "" {
		if _, err := fmt.Fprintf(out, "%s %d\n", path, self); err != nil {
			return err
		}
	}

	for _, key := range keys {
		if err := writeFolded(node.Children[key], path, out); err != nil {
			return err
		}
	}
	return nil
}
