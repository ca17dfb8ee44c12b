// Package analyzer defines the core analyzer interfaces.
package analyzer

import (
	"context"
	"io"

	"github.com/jeheap-analysis/pkg/model"
)

// Analyzer is the interface for all heap dump analyzers.
type Analyzer interface {
	// Analyze performs the analysis on the given request.
	Analyze(ctx context.Context, req *model.AnalysisRequest) (*model.AnalysisResponse, error)

	// AnalyzeFromReader performs the analysis using a reader.
	AnalyzeFromReader(ctx context.Context, req *model.AnalysisRequest, dataReader io.Reader) (*model.AnalysisResponse, error)

	// SupportedFormats returns the dump formats supported by this analyzer.
	SupportedFormats() []model.DumpFormat

	// Name returns the name of this analyzer.
	Name() string
}

// Manager manages analyzer instances and routes tasks to appropriate analyzers.
type Manager struct {
	analyzers map[model.DumpFormat]Analyzer
}

// NewManager creates a new analyzer Manager.
func NewManager() *Manager {
	return &Manager{
		analyzers: make(map[model.DumpFormat]Analyzer),
	}
}

// Register registers an analyzer for its supported dump formats.
func (m *Manager) Register(analyzer Analyzer) {
	for _, format := range analyzer.SupportedFormats() {
		m.analyzers[format] = analyzer
	}
}

// GetAnalyzer returns the appropriate analyzer for a dump format.
func (m *Manager) GetAnalyzer(format model.DumpFormat) (Analyzer, bool) {
	analyzer, ok := m.analyzers[format]
	return analyzer, ok
}

// AnalyzeTask routes a task to the appropriate analyzer and performs analysis.
func (m *Manager) AnalyzeTask(ctx context.Context, req *model.AnalysisRequest, dataReader io.Reader) (*model.AnalysisResponse, error) {
	analyzer, ok := m.GetAnalyzer(req.Format)
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	return analyzer.AnalyzeFromReader(ctx, req, dataReader)
}

// ListAnalyzers returns all registered analyzers.
func (m *Manager) ListAnalyzers() []Analyzer {
	seen := make(map[string]bool)
	var result []Analyzer
	for _, analyzer := range m.analyzers {
		if !seen[analyzer.Name()] {
			seen[analyzer.Name()] = true
			result = append(result, analyzer)
		}
	}
	return result
}
