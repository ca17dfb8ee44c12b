package formatter

import (
	"github.com/jeheap-analysis/pkg/model"
	"github.com/jeheap-analysis/pkg/utils"
)

// DiffFormatter formats two-dump comparison results.
type DiffFormatter struct{}

// SupportedTypes returns the data types this formatter supports.
func (f *DiffFormatter) SupportedTypes() []model.DataType {
	return []model.DataType{model.DataTypeHeapDiff}
}

// Format outputs the diff result to the logger.
func (f *DiffFormatter) Format(resp *model.AnalysisResponse, log utils.Logger) {
	log.Info("=== Heap Diff Results ===")
	log.Info("Task UUID:     %s", resp.TaskUUID)
	log.Info("")

	data, ok := resp.Data.(*model.HeapDiffData)
	if !ok {
		log.Info("(No detailed data available)")
		return
	}

	log.Info("=== Diff Summary ===")
	log.Info("  Before: %s (%d bytes)", formatBytes(data.TotalBefore), data.TotalBefore)
	log.Info("  After:  %s (%d bytes)", formatBytes(data.TotalAfter), data.TotalAfter)
	delta := int64(data.TotalAfter) - int64(data.TotalBefore)
	log.Info("  Delta:  %s", formatDelta(delta))
	log.Info("")

	if len(data.Entries) > 0 {
		log.Info("=== Top Stack Deltas ===")
		count := min(10, len(data.Entries))
		for i := 0; i < count; i++ {
			e := data.Entries[i]
			log.Info("  %2d. %12s  %s", i+1, formatDelta(e.DeltaBytes), truncateString(firstFrame(e.Frames), 60))
			log.Info("              Before: %s, After: %s", formatBytes(e.BeforeBytes), formatBytes(e.AfterBytes))
		}
		log.Info("")
	}

	printOutputFiles(resp, log)
	printWarnings(resp, log)
}

// FormatSummary returns a summary map for serialization.
func (f *DiffFormatter) FormatSummary(resp *model.AnalysisResponse) map[string]interface{} {
	summary := map[string]interface{}{
		"task_uuid": resp.TaskUUID,
	}

	data, ok := resp.Data.(*model.HeapDiffData)
	if !ok {
		summary["output_files"] = resp.OutputFiles
		return summary
	}

	summary["total_before"] = data.TotalBefore
	summary["total_after"] = data.TotalAfter
	summary["delta_bytes"] = int64(data.TotalAfter) - int64(data.TotalBefore)

	entries := data.Entries
	if len(entries) > 20 {
		entries = entries[:20]
	}
	summary["entries"] = entries

	summary["output_files"] = resp.OutputFiles
	return summary
}

func formatDelta(delta int64) string {
	if delta < 0 {
		return "-" + formatBytes(uint64(-delta))
	}
	return "+" + formatBytes(uint64(delta))
}
