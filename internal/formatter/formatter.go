// Package formatter provides result formatting for different analysis types.
package formatter

import (
	"fmt"

	"github.com/jeheap-analysis/pkg/model"
	"github.com/jeheap-analysis/pkg/utils"
)

// ResultFormatter is the interface for formatting analysis results.
type ResultFormatter interface {
	// Format outputs the analysis result to the logger.
	Format(resp *model.AnalysisResponse, log utils.Logger)

	// FormatSummary returns a summary map for serialization.
	FormatSummary(resp *model.AnalysisResponse) map[string]interface{}

	// SupportedTypes returns the data types this formatter supports.
	SupportedTypes() []model.DataType
}

// Registry manages formatter instances.
type Registry struct {
	formatters map[model.DataType]ResultFormatter
	fallback   ResultFormatter
}

// NewRegistry creates a new formatter registry with default formatters.
func NewRegistry() *Registry {
	r := &Registry{
		formatters: make(map[model.DataType]ResultFormatter),
		fallback:   &DefaultFormatter{},
	}

	r.Register(&HeapFormatter{})
	r.Register(&DiffFormatter{})

	return r
}

// Register registers a formatter.
func (r *Registry) Register(f ResultFormatter) {
	for _, t := range f.SupportedTypes() {
		r.formatters[t] = f
	}
}

// Get returns the formatter for a data type.
func (r *Registry) Get(dataType model.DataType) ResultFormatter {
	if f, ok := r.formatters[dataType]; ok {
		return f
	}
	return r.fallback
}

// Format formats the analysis response using the appropriate formatter.
func (r *Registry) Format(resp *model.AnalysisResponse, log utils.Logger) {
	if resp == nil {
		return
	}

	if resp.Data == nil {
		r.fallback.Format(resp, log)
		return
	}

	f := r.Get(resp.Data.Type())
	f.Format(resp, log)
}

// FormatSummary returns a summary map using the appropriate formatter.
func (r *Registry) FormatSummary(resp *model.AnalysisResponse) map[string]interface{} {
	if resp == nil {
		return nil
	}

	if resp.Data == nil {
		return r.fallback.FormatSummary(resp)
	}

	f := r.Get(resp.Data.Type())
	return f.FormatSummary(resp)
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func firstFrame(frames []string) string {
	if len(frames) == 0 {
		return "(no frames)"
	}
	return frames[0]
}
