package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeheap-analysis/internal/advisor"
	"github.com/jeheap-analysis/internal/analyzer"
	"github.com/jeheap-analysis/internal/formatter"
	"github.com/jeheap-analysis/pkg/model"
)

var (
	inputFile   string
	outputDir   string
	dumpFormat  string
	taskUUID    string
	topN        int
	writeFolded bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a jemalloc heap profile dump",
	Long: `Analyze a heap_v2 dump file and generate flame graph and call graph
artifacts along with a summary of the heaviest call chains, threads and
libraries. Gzip and zstd compressed dumps are decompressed automatically.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Set dynamic example using actual binary name
	binName := BinName()
	analyzeCmd.Example = `  # Analyze a heap_v2 dump
  ` + binName + ` analyze -i ./jeprof.12345.0.f.heap -o ./output

  # Analyze a compressed dump with verbose output
  ` + binName + ` analyze -i ./dump.heap.gz -v

  # Also write the collapsed stack file next to the flame graph
  ` + binName + ` analyze -i ./dump.heap --folded

  # Specify custom task UUID
  ` + binName + ` analyze -i ./dump.heap --uuid my-analysis-001`

	// Input/Output flags
	analyzeCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input heap dump file (required)")
	analyzeCmd.Flags().StringVarP(&outputDir, "output", "o", "./output", "Output directory for generated files")
	analyzeCmd.MarkFlagRequired("input")

	// Analysis configuration flags
	analyzeCmd.Flags().StringVarP(&dumpFormat, "format", "f", "heap_v2", "Dump format: heap_v2")
	analyzeCmd.Flags().StringVar(&taskUUID, "uuid", "", "Task UUID (auto-generated if empty)")
	analyzeCmd.Flags().IntVarP(&topN, "top", "n", 15, "Number of top call chains to report")
	analyzeCmd.Flags().BoolVar(&writeFolded, "folded", false, "Additionally write a collapsed stack file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	// Validate input file
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputFile)
	}

	// Generate task UUID if not provided
	uuid := taskUUID
	if uuid == "" {
		uuid = generateUUID()
	}

	// Parse dump format
	format, err := parseDumpFormat(dumpFormat)
	if err != nil {
		return fmt.Errorf("invalid dump format: %w", err)
	}

	// Create output directory
	taskOutputDir := filepath.Join(outputDir, uuid)
	if err := os.MkdirAll(taskOutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	log.Info("=== Heap Analysis CLI ===")
	log.Info("Input file:  %s", inputFile)
	log.Info("Output dir:  %s", taskOutputDir)
	log.Info("Dump format: %s", format)
	log.Info("Task UUID:   %s", uuid)
	log.Info("")

	// Create analyzer configuration
	config := &analyzer.BaseAnalyzerConfig{
		OutputDir:   outputDir,
		TopN:        topN,
		WriteFolded: writeFolded,
		Logger:      log,
	}

	// Create analyzer using factory
	factory := analyzer.NewFactory(config)
	ana, err := factory.CreateAnalyzer(format)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}

	log.Info("Using analyzer: %s", ana.Name())
	log.Info("")

	// Create analysis request
	req := &model.AnalysisRequest{
		TaskID:    1,
		TaskUUID:  uuid,
		Format:    format,
		InputFile: inputFile,
		OutputDir: taskOutputDir,
		TopN:      topN,
	}

	// Run analysis
	log.Info("Starting analysis...")
	ctx := context.Background()
	startTime := time.Now()
	result, err := ana.Analyze(ctx, req)
	analysisTime := time.Since(startTime)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	log.Info("Analysis completed successfully!")
	log.Info("")

	// Print results
	printResults(result)

	// Print tuning suggestions derived from the result
	printSuggestions(result)

	// Save result summary with metadata
	metadata := &AnalysisMetadata{
		Format:         int(format),
		FormatName:     format.String(),
		InputFile:      filepath.Base(inputFile),
		CreatedAt:      startTime.Format(time.RFC3339),
		AnalysisTimeMs: analysisTime.Milliseconds(),
	}
	saveSummary(result, taskOutputDir, metadata)

	log.Info("")
	log.Info("=== Analysis Complete ===")
	log.Info("Output files are in: %s", taskOutputDir)

	return nil
}

func parseDumpFormat(s string) (model.DumpFormat, error) {
	switch strings.ToLower(s) {
	case "heap_v2", "heapv2", "0":
		return model.DumpFormatHeapV2, nil
	default:
		return 0, fmt.Errorf("unknown dump format: %s (valid: heap_v2)", s)
	}
}

func generateUUID() string {
	return fmt.Sprintf("local-%d", os.Getpid())
}

func printResults(result *model.AnalysisResponse) {
	// Use the formatter registry to format results based on data type
	registry := formatter.NewRegistry()
	registry.Format(result, GetLogger())
}

func printSuggestions(result *model.AnalysisResponse) {
	data, ok := result.Data.(*model.HeapAnalysisData)
	if !ok {
		return
	}

	suggestions := advisor.NewAdvisor().Advise(data)
	if len(suggestions) == 0 {
		return
	}

	log := GetLogger()
	log.Info("")
	log.Info("Suggestions:")
	for _, s := range suggestions {
		log.Info("  [%s] %s", s.Severity, s.Message)
	}
}

func saveSummary(result *model.AnalysisResponse, outputDir string, metadata *AnalysisMetadata) {
	// Use the formatter registry to generate summary
	registry := formatter.NewRegistry()
	summary := registry.FormatSummary(result)

	// Add metadata if provided
	if metadata != nil {
		summary["metadata"] = map[string]interface{}{
			"format":           metadata.Format,
			"format_name":      metadata.FormatName,
			"input_file":       metadata.InputFile,
			"created_at":       metadata.CreatedAt,
			"analysis_time_ms": metadata.AnalysisTimeMs,
		}
	}

	// Include suggestions so the saved summary matches the service output
	if data, ok := result.Data.(*model.HeapAnalysisData); ok {
		if suggestions := advisor.NewAdvisor().Advise(data); len(suggestions) > 0 {
			summary["suggestions"] = suggestions
		}
	}

	summaryFile := filepath.Join(outputDir, "summary.json")
	data, _ := json.MarshalIndent(summary, "", "  ")
	os.WriteFile(summaryFile, data, 0644)
}

// AnalysisMetadata holds metadata about the analysis task
type AnalysisMetadata struct {
	Format         int    `json:"format"`
	FormatName     string `json:"format_name"`
	InputFile      string `json:"input_file"`
	CreatedAt      string `json:"created_at"`
	AnalysisTimeMs int64  `json:"analysis_time_ms"`
}
