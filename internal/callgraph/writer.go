package callgraph

import (
	"io"

	"github.com/jeheap-analysis/pkg/writer"
)

// JSONWriter writes call graph data as JSON.
type JSONWriter struct {
	w *writer.JSONWriter[*CallGraph]
}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{w: writer.NewJSONWriter[*CallGraph]()}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter() *JSONWriter {
	return &JSONWriter{w: writer.NewPrettyJSONWriter[*CallGraph]()}
}

// Write writes the call graph as JSON to the writer.
func (w *JSONWriter) Write(cg *CallGraph, out io.Writer) error {
	return w.w.Write(cg, out)
}

// WriteToFile writes the call graph as JSON to a file.
func (w *JSONWriter) WriteToFile(cg *CallGraph, path string) error {
	return w.w.WriteToFile(cg, path)
}
