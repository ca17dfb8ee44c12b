package formatter

import (
	"github.com/jeheap-analysis/pkg/model"
	"github.com/jeheap-analysis/pkg/utils"
)

// HeapFormatter formats single-dump heap analysis results.
type HeapFormatter struct{}

// SupportedTypes returns the data types this formatter supports.
func (f *HeapFormatter) SupportedTypes() []model.DataType {
	return []model.DataType{model.DataTypeHeapV2}
}

// Format outputs the heap analysis result to the logger.
func (f *HeapFormatter) Format(resp *model.AnalysisResponse, log utils.Logger) {
	log.Info("=== Heap Analysis Results ===")
	log.Info("Task UUID:     %s", resp.TaskUUID)
	log.Info("Format:        %s", resp.Format.String())
	log.Info("")

	data, ok := resp.Data.(*model.HeapAnalysisData)
	if !ok {
		log.Info("(No detailed data available)")
		return
	}

	log.Info("=== Heap Summary ===")
	log.Info("  Sampling Rate:   %d bytes", data.SamplingRate)
	log.Info("  Live Objects:    %d", data.LiveObjects)
	log.Info("  Live Bytes:      %s (%d bytes)", formatBytes(data.LiveBytes), data.LiveBytes)
	if data.EstimatedBytes > 0 {
		log.Info("  Estimated Bytes: %s (unsampled)", formatBytes(uint64(data.EstimatedBytes)))
	}
	log.Info("  Total Stacks:    %d", resp.TotalStacks)
	log.Info("")

	if len(data.ThreadStats) > 0 {
		log.Info("=== Top Threads by Live Bytes ===")
		count := min(10, len(data.ThreadStats))
		for i := 0; i < count; i++ {
			ts := data.ThreadStats[i]
			log.Info("  %2d. %6.2f%%  t%s", i+1, ts.Percent, ts.ThreadID)
			log.Info("              Live: %s, Objects: %d", formatBytes(ts.LiveBytes), ts.LiveObjects)
		}
		log.Info("")
	}

	if len(data.TopStacks) > 0 {
		log.Info("=== Top Stacks by Live Bytes ===")
		count := min(10, len(data.TopStacks))
		for i := 0; i < count; i++ {
			s := data.TopStacks[i]
			log.Info("  %2d. %6.2f%%  %s", i+1, s.Percent, truncateString(firstFrame(s.Frames), 60))
			log.Info("              Live: %s, Objects: %d, Depth: %d", formatBytes(s.LiveBytes), s.LiveObjects, len(s.Addrs))
		}
		log.Info("")
	}

	if len(data.LibraryUsage) > 0 {
		log.Info("=== Live Bytes by Library ===")
		count := min(10, len(data.LibraryUsage))
		for i := 0; i < count; i++ {
			lib := data.LibraryUsage[i]
			name := lib.Path
			if name == "" {
				name = "(unresolved)"
			}
			log.Info("  %2d. %6.2f%%  %-12s %s", i+1, lib.Percent, lib.Category, truncateString(name, 60))
		}
		log.Info("")
	}

	printOutputFiles(resp, log)
	printWarnings(resp, log)
}

// FormatSummary returns a lightweight summary map for serialization.
func (f *HeapFormatter) FormatSummary(resp *model.AnalysisResponse) map[string]interface{} {
	summary := map[string]interface{}{
		"task_uuid":    resp.TaskUUID,
		"format":       resp.Format.String(),
		"total_stacks": resp.TotalStacks,
	}

	data, ok := resp.Data.(*model.HeapAnalysisData)
	if !ok {
		summary["output_files"] = resp.OutputFiles
		return summary
	}

	overview := map[string]interface{}{
		"sampling_rate":   data.SamplingRate,
		"live_objects":    data.LiveObjects,
		"live_bytes":      data.LiveBytes,
		"estimated_bytes": data.EstimatedBytes,
	}
	if data.FlameGraphFile != "" {
		overview["flamegraph_file"] = data.FlameGraphFile
	}
	if data.CallGraphFile != "" {
		overview["callgraph_file"] = data.CallGraphFile
	}
	summary["data"] = overview

	topStacks := data.TopStacks
	if len(topStacks) > 15 {
		topStacks = topStacks[:15]
	}
	summary["top_stacks"] = topStacks
	summary["thread_stats"] = data.ThreadStats
	summary["library_usage"] = data.LibraryUsage

	summary["output_files"] = resp.OutputFiles
	if len(resp.Warnings) > 0 {
		summary["warnings"] = resp.Warnings
	}

	return summary
}
