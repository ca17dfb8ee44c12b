package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeheap-analysis/internal/analyzer"
	"github.com/jeheap-analysis/internal/formatter"
	"github.com/jeheap-analysis/internal/parser/heapv2"
	"github.com/jeheap-analysis/pkg/compression"
	"github.com/jeheap-analysis/pkg/model"
)

var (
	diffTopN   int
	diffOutput string
)

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff <before> <after>",
	Short: "Compare two heap dumps of the same process",
	Long: `Compare two heap_v2 dumps and report the call chains whose live bytes
changed the most between them. Growing chains are candidates for memory
leaks. Both dumps may be gzip or zstd compressed.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	binName := BinName()
	diffCmd.Example = `  # Show the biggest live byte deltas between two dumps
  ` + binName + ` diff ./before.heap ./after.heap

  # Keep the top 30 deltas and save the full report
  ` + binName + ` diff ./before.heap ./after.heap -n 30 -o ./diff.json`

	diffCmd.Flags().IntVarP(&diffTopN, "top", "n", 15, "Number of top deltas to report")
	diffCmd.Flags().StringVarP(&diffOutput, "output", "o", "", "Write the diff report to a JSON file")
}

func runDiff(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	before, err := loadDump(args[0])
	if err != nil {
		return fmt.Errorf("failed to load before dump: %w", err)
	}
	after, err := loadDump(args[1])
	if err != nil {
		return fmt.Errorf("failed to load after dump: %w", err)
	}

	log.Info("=== Heap Diff ===")
	log.Info("Before: %s (%d live bytes)", args[0], before.LiveBytes())
	log.Info("After:  %s (%d live bytes)", args[1], after.LiveBytes())
	log.Info("")

	data := analyzer.DiffProfiles(before, after, diffTopN)

	resp := &model.AnalysisResponse{
		Format: model.DumpFormatHeapV2,
		Data:   data,
	}

	registry := formatter.NewRegistry()
	registry.Format(resp, log)

	if diffOutput != "" {
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode diff report: %w", err)
		}
		if err := os.WriteFile(diffOutput, out, 0644); err != nil {
			return fmt.Errorf("failed to write diff report: %w", err)
		}
		log.Info("")
		log.Info("Diff report saved to: %s", diffOutput)
	}

	return nil
}

func loadDump(path string) (*model.Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	raw, err = compression.MaybeDecompress(raw)
	if err != nil {
		return nil, err
	}

	return heapv2.Parse(string(raw))
}
