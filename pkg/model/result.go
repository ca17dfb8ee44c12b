package model

import "time"

// ParseResult holds the outcome of parsing one profiler dump.
type ParseResult struct {
	// Format is the detected dump format name, e.g. "heap_v2".
	Format string `json:"format"`

	// Profile is the parsed document.
	Profile *Profile `json:"profile"`

	// ParsedAt records when parsing finished.
	ParsedAt time.Time `json:"parsed_at"`
}

// AnalysisRequest represents a request to analyze a heap dump.
type AnalysisRequest struct {
	TaskID    int64
	TaskUUID  string
	Format    DumpFormat
	InputFile string
	OutputDir string
	COSBucket string
	TopN      int
}

// AnalysisResponse represents the response from an analysis.
type AnalysisResponse struct {
	TaskUUID     string       `json:"task_uuid"`
	Format       DumpFormat   `json:"format"`
	TotalStacks  int          `json:"total_stacks"`
	OutputFiles  []OutputFile `json:"output_files"`
	Data         AnalysisData `json:"data"`
	Warnings     []Warning    `json:"warnings,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// OutputFile describes one artifact written during analysis.
type OutputFile struct {
	Kind string `json:"kind"` // e.g. "flamegraph", "summary"
	Path string `json:"path"`
	Size int64  `json:"size,omitempty"`
}

// Warning is a non-fatal observation attached to an analysis result.
type Warning struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
	Library string `json:"library,omitempty"`
}

// AnalysisResult is the persisted form of one completed analysis.
type AnalysisResult struct {
	TaskUUID string                 `json:"tid"`
	Summary  map[string]interface{} `json:"summary"`
	Version  string                 `json:"version"`
}

// DataType identifies the concrete AnalysisData payload.
type DataType int

const (
	DataTypeUnknown  DataType = 0
	DataTypeHeapV2   DataType = 1
	DataTypeHeapDiff DataType = 2
)

// AnalysisData is the typed payload of an AnalysisResponse.
type AnalysisData interface {
	Type() DataType
}

// ThreadUsage is per-thread live memory attribution.
type ThreadUsage struct {
	ThreadID    string  `json:"thread_id"`
	LiveObjects uint64  `json:"live_objects"`
	LiveBytes   uint64  `json:"live_bytes"`
	Percent     float64 `json:"percent"`
}

// StackUsage is per-call-chain live memory attribution.
type StackUsage struct {
	Frames         []string `json:"frames"`
	Addrs          []uint64 `json:"addrs"`
	LiveObjects    uint64   `json:"live_objects"`
	LiveBytes      uint64   `json:"live_bytes"`
	EstimatedBytes float64  `json:"estimated_bytes"`
	Percent        float64  `json:"percent"`
}

// LibraryUsage is live memory attributed to one mapped library.
type LibraryUsage struct {
	Path        string  `json:"path"`
	Category    string  `json:"category,omitempty"`
	LiveObjects uint64  `json:"live_objects"`
	LiveBytes   uint64  `json:"live_bytes"`
	Percent     float64 `json:"percent"`
}

// HeapAnalysisData is the analysis payload for a single heap_v2 dump.
type HeapAnalysisData struct {
	SamplingRate   uint64         `json:"sampling_rate"`
	LiveObjects    uint64         `json:"live_objects"`
	LiveBytes      uint64         `json:"live_bytes"`
	EstimatedBytes float64        `json:"estimated_bytes"`
	ThreadStats    []ThreadUsage  `json:"thread_stats"`
	TopStacks      []StackUsage   `json:"top_stacks"`
	LibraryUsage   []LibraryUsage `json:"library_usage"`
	FlameGraphFile string         `json:"flamegraph_file,omitempty"`
	CallGraphFile  string         `json:"callgraph_file,omitempty"`
}

// Type implements AnalysisData.
func (d *HeapAnalysisData) Type() DataType { return DataTypeHeapV2 }

// DiffEntry is the live-byte delta of one call chain between two dumps.
type DiffEntry struct {
	Key         string   `json:"key"`
	Frames      []string `json:"frames"`
	BeforeBytes uint64   `json:"before_bytes"`
	AfterBytes  uint64   `json:"after_bytes"`
	DeltaBytes  int64    `json:"delta_bytes"`
}

// HeapDiffData is the analysis payload for a two-dump comparison.
type HeapDiffData struct {
	TotalBefore uint64      `json:"total_before"`
	TotalAfter  uint64      `json:"total_after"`
	Entries     []DiffEntry `json:"entries"`
}

// Type implements AnalysisData.
func (d *HeapDiffData) Type() DataType { return DataTypeHeapDiff }
