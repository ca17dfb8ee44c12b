package analyzer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jeheap-analysis/internal/callgraph"
	"github.com/jeheap-analysis/internal/flamegraph"
	"github.com/jeheap-analysis/internal/parser/heapv2"
	"github.com/jeheap-analysis/internal/statistics"
	"github.com/jeheap-analysis/internal/symbolize"
	"github.com/jeheap-analysis/pkg/compression"
	"github.com/jeheap-analysis/pkg/model"
	"github.com/jeheap-analysis/pkg/utils"
)

// HeapAnalyzer analyzes jemalloc heap_v2 dump data.
type HeapAnalyzer struct {
	*BaseAnalyzer
}

// NewHeapAnalyzer creates a new heap_v2 analyzer.
func NewHeapAnalyzer(config *BaseAnalyzerConfig) *HeapAnalyzer {
	return &HeapAnalyzer{
		BaseAnalyzer: NewBaseAnalyzer(config),
	}
}

// Name returns the analyzer name.
func (a *HeapAnalyzer) Name() string {
	return "heap_v2_analyzer"
}

// SupportedFormats returns the dump formats supported by this analyzer.
func (a *HeapAnalyzer) SupportedFormats() []model.DumpFormat {
	return []model.DumpFormat{model.DumpFormatHeapV2}
}

// Analyze performs heap analysis using an input file.
func (a *HeapAnalyzer) Analyze(ctx context.Context, req *model.AnalysisRequest) (*model.AnalysisResponse, error) {
	file, err := os.Open(req.InputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return a.AnalyzeFromReader(ctx, req, file)
}

// AnalyzeFromReader performs heap analysis from a reader. Gzip and zstd
// compressed dumps are decompressed transparently.
func (a *HeapAnalyzer) AnalyzeFromReader(ctx context.Context, req *model.AnalysisRequest, dataReader io.Reader) (*model.AnalysisResponse, error) {
	raw, err := io.ReadAll(dataReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptyData
	}

	raw, err = compression.MaybeDecompress(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress dump: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timer := utils.NewTimer("Heap Analysis", utils.WithLogger(a.Logger()), utils.WithEnabled(a.config.Logger != nil))

	pt := timer.Start("Parse dump")
	profile, err := heapv2.Parse(string(raw))
	pt.Stop()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}

	taskDir := req.OutputDir
	if taskDir == "" {
		taskDir, err = a.EnsureOutputDir(req.TaskUUID)
		if err != nil {
			return nil, err
		}
	}

	resolver := symbolize.NewResolver(profile.MappedLibraries)

	var threadStats *statistics.ThreadStatsResult
	var topStacks *statistics.TopStacksResult
	var estimated float64
	timer.TimeFunc("Compute statistics", func() {
		threadStats = a.CalculateThreadStats(profile)
		topStacks = a.CalculateTopStacks(profile)
		for i := range topStacks.Stacks {
			topStacks.Stacks[i].Frames = resolver.Labels(topStacks.Stacks[i].Addrs)
		}

		for _, s := range profile.Stacks {
			estimated += statistics.Unsample(s.InuseCount(), s.InuseSpace(), profile.SamplingRate)
		}
	})

	data := &model.HeapAnalysisData{
		SamplingRate:   profile.SamplingRate,
		LiveObjects:    profile.LiveObjects(),
		LiveBytes:      profile.LiveBytes(),
		EstimatedBytes: estimated,
		ThreadStats:    threadStats.Threads,
		TopStacks:      topStacks.Stacks,
		LibraryUsage:   resolver.LibraryUsage(profile),
	}

	resp := &model.AnalysisResponse{
		TaskUUID:    req.TaskUUID,
		Format:      req.Format,
		TotalStacks: len(profile.Stacks),
		Data:        data,
	}

	pt = timer.Start("Generate flame graph")
	fg := flamegraph.NewGenerator(resolver).Generate(profile)
	pt.Stop()

	flameGraphFile := filepath.Join(taskDir, "flamegraph.json.gz")
	if err := a.WriteFlameGraphGzip(fg, flameGraphFile); err != nil {
		return nil, fmt.Errorf("failed to write flame graph: %w", err)
	}
	data.FlameGraphFile = flameGraphFile
	resp.OutputFiles = append(resp.OutputFiles, outputFileEntry("flamegraph", flameGraphFile))

	pt = timer.Start("Generate call graph")
	cg := callgraph.NewGenerator(nil, resolver).Generate(profile)
	pt.Stop()

	callGraphFile := filepath.Join(taskDir, "callgraph.json")
	if err := callgraph.NewJSONWriter().WriteToFile(cg, callGraphFile); err != nil {
		return nil, fmt.Errorf("failed to write call graph: %w", err)
	}
	data.CallGraphFile = callGraphFile
	resp.OutputFiles = append(resp.OutputFiles, outputFileEntry("callgraph", callGraphFile))

	if a.config.WriteFolded {
		foldedFile := filepath.Join(taskDir, "stacks.folded")
		if err := a.WriteFoldedStacks(fg, foldedFile); err != nil {
			return nil, fmt.Errorf("failed to write folded stacks: %w", err)
		}
		resp.OutputFiles = append(resp.OutputFiles, outputFileEntry("folded", foldedFile))
	}

	if sum := stackBytesSum(profile); sum != data.LiveBytes {
		resp.Warnings = append(resp.Warnings, model.Warning{
			Message: fmt.Sprintf("totals record %d live bytes but stacks sum to %d", data.LiveBytes, sum),
		})
	}

	timer.PrintSummary()
	a.Logger().Info("analyzed heap dump: %d stacks, %d live bytes", resp.TotalStacks, data.LiveBytes)

	return resp, nil
}

func stackBytesSum(profile *model.Profile) uint64 {
	var sum uint64
	for _, s := range profile.Stacks {
		sum += s.InuseSpace()
	}
	return sum
}

func outputFileEntry(kind, path string) model.OutputFile {
	entry := model.OutputFile{Kind: kind, Path: path}
	if info, err := os.Stat(path); err == nil {
		entry.Size = info.Size()
	}
	return entry
}
