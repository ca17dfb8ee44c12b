package formatter

import (
	"os"

	"github.com/jeheap-analysis/pkg/model"
	"github.com/jeheap-analysis/pkg/utils"
)

// DefaultFormatter is a fallback formatter for unknown data types.
type DefaultFormatter struct{}

// SupportedTypes returns an empty slice as this is a fallback formatter.
func (f *DefaultFormatter) SupportedTypes() []model.DataType {
	return nil
}

// Format outputs a generic analysis result to the logger.
func (f *DefaultFormatter) Format(resp *model.AnalysisResponse, log utils.Logger) {
	log.Info("=== Analysis Results ===")
	log.Info("Task UUID:     %s", resp.TaskUUID)
	log.Info("Format:        %s", resp.Format.String())
	log.Info("Total Stacks:  %d", resp.TotalStacks)
	log.Info("")

	if resp.Error != "" {
		log.Info("Error: %s", resp.Error)
		log.Info("")
	}

	printOutputFiles(resp, log)
	printWarnings(resp, log)
}

// FormatSummary returns a summary map for serialization.
func (f *DefaultFormatter) FormatSummary(resp *model.AnalysisResponse) map[string]interface{} {
	summary := map[string]interface{}{
		"task_uuid":    resp.TaskUUID,
		"format":       resp.Format.String(),
		"total_stacks": resp.TotalStacks,
	}

	if resp.Data != nil {
		summary["data_type"] = resp.Data.Type()
		summary["data"] = resp.Data
	}
	if resp.Error != "" {
		summary["error"] = resp.Error
	}

	summary["output_files"] = resp.OutputFiles
	summary["warnings_count"] = len(resp.Warnings)

	return summary
}

func printOutputFiles(resp *model.AnalysisResponse, log utils.Logger) {
	if len(resp.OutputFiles) == 0 {
		return
	}
	log.Info("=== Output Files ===")
	for _, file := range resp.OutputFiles {
		log.Info("  %s: %s", file.Kind, file.Path)
		if info, err := os.Stat(file.Path); err == nil {
			log.Info("    Size: %d bytes", info.Size())
		}
	}
	log.Info("")
}

func printWarnings(resp *model.AnalysisResponse, log utils.Logger) {
	if len(resp.Warnings) == 0 {
		return
	}
	log.Info("=== Warnings ===")
	for i, w := range resp.Warnings {
		if i >= 5 {
			log.Info("  ... and %d more warnings", len(resp.Warnings)-5)
			break
		}
		log.Info("  - %s", truncateString(w.Message, 100))
	}
	log.Info("")
}
