package analyzer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeheap-analysis/internal/flamegraph"
	"github.com/jeheap-analysis/internal/statistics"
	"github.com/jeheap-analysis/pkg/model"
	"github.com/jeheap-analysis/pkg/utils"
)

// BaseAnalyzerConfig holds configuration for the base analyzer.
type BaseAnalyzerConfig struct {
	// OutputDir is the directory for output files.
	OutputDir string

	// TopN configures how many stacks are kept in the result.
	TopN int

	// MaxThreads limits the per-thread statistics, 0 keeps all.
	MaxThreads int

	// WriteFolded additionally writes a collapsed stack file next to
	// the flame graph.
	WriteFolded bool

	// Logger is used for debug logging. If nil, logs are suppressed.
	Logger utils.Logger
}

// DefaultBaseAnalyzerConfig returns default configuration.
func DefaultBaseAnalyzerConfig() *BaseAnalyzerConfig {
	return &BaseAnalyzerConfig{
		TopN: 15,
	}
}

// BaseAnalyzer provides common functionality for all analyzers.
type BaseAnalyzer struct {
	config          *BaseAnalyzerConfig
	topStacksCalc   *statistics.TopStacksCalculator
	threadStatsCalc *statistics.ThreadStatsCalculator
}

// NewBaseAnalyzer creates a new base analyzer.
func NewBaseAnalyzer(config *BaseAnalyzerConfig) *BaseAnalyzer {
	if config == nil {
		config = DefaultBaseAnalyzerConfig()
	}
	if config.TopN <= 0 {
		config.TopN = 15
	}

	return &BaseAnalyzer{
		config:          config,
		topStacksCalc:   statistics.NewTopStacksCalculator(statistics.WithTopN(config.TopN)),
		threadStatsCalc: statistics.NewThreadStatsCalculator(statistics.WithMaxThreads(config.MaxThreads)),
	}
}

// Logger returns the configured logger, defaulting to a null logger.
func (a *BaseAnalyzer) Logger() utils.Logger {
	if a.config.Logger != nil {
		return a.config.Logger
	}
	return &utils.NullLogger{}
}

// CalculateTopStacks ranks the profile's call chains by live bytes.
func (a *BaseAnalyzer) CalculateTopStacks(profile *model.Profile) *statistics.TopStacksResult {
	return a.topStacksCalc.Calculate(profile)
}

// CalculateThreadStats calculates per-thread statistics.
func (a *BaseAnalyzer) CalculateThreadStats(profile *model.Profile) *statistics.ThreadStatsResult {
	return a.threadStatsCalc.Calculate(profile)
}

// WriteFlameGraphGzip writes a flame graph to a gzip JSON file.
func (a *BaseAnalyzer) WriteFlameGraphGzip(fg *flamegraph.FlameGraph, outputPath string) error {
	writer := flamegraph.NewGzipWriter()
	return writer.WriteToFile(fg, outputPath)
}

// WriteFoldedStacks writes a flame graph in collapsed stack format.
func (a *BaseAnalyzer) WriteFoldedStacks(fg *flamegraph.FlameGraph, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create folded file: %w", err)
	}
	defer file.Close()

	return flamegraph.NewFoldedWriter().Write(fg, file)
}

// EnsureOutputDir ensures the per-task output directory exists.
func (a *BaseAnalyzer) EnsureOutputDir(taskUUID string) (string, error) {
	outputDir := a.config.OutputDir
	if outputDir == "" {
		outputDir = os.TempDir()
	}

	taskDir := filepath.Join(outputDir, taskUUID)
	if err := os.MkdirAll(taskDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	return taskDir, nil
}

// CleanupOutputDir removes the output directory.
func (a *BaseAnalyzer) CleanupOutputDir(taskDir string) error {
	return os.RemoveAll(taskDir)
}
