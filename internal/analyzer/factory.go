package analyzer

import (
	"github.com/jeheap-analysis/pkg/model"
)

// Factory creates analyzers based on dump format.
type Factory struct {
	config *BaseAnalyzerConfig
}

// NewFactory creates a new analyzer factory.
func NewFactory(config *BaseAnalyzerConfig) *Factory {
	if config == nil {
		config = DefaultBaseAnalyzerConfig()
	}
	return &Factory{config: config}
}

// CreateAnalyzer creates an analyzer for the given dump format.
func (f *Factory) CreateAnalyzer(format model.DumpFormat) (Analyzer, error) {
	switch format {
	case model.DumpFormatHeapV2:
		return NewHeapAnalyzer(f.config), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// CreateManager creates a new analyzer manager with all registered analyzers.
func (f *Factory) CreateManager() *Manager {
	manager := NewManager()
	manager.Register(NewHeapAnalyzer(f.config))
	return manager
}
