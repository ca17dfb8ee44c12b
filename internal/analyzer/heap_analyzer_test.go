package analyzer

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeheap-analysis/pkg/model"
)

const testDump = "heap_v2/131072\n" +
	"  t*: 3: 700 [10: 2000]\n" +
	"  t7: 2: 500 [6: 1200]\n" +
	"  t9: 1: 200 [4: 800]\n" +
	"@ 0x30 0x20 0x10\n" +
	"  t*: 2: 500 [5: 1000]\n" +
	"  t7: 2: 500 [5: 1000]\n" +
	"@ 0x40 0x20 0x10\n" +
	"  t*: 1: 200 [5: 1000]\n" +
	"  t9: 1: 200 [5: 1000]\n" +
	"MAPPED_LIBRARIES:\n" +
	"00000010-00000050 r-xp 00000000 08:01 12345 /usr/lib/libapp.so\n"

func testRequest(t *testing.T) *model.AnalysisRequest {
	t.Helper()
	return &model.AnalysisRequest{
		TaskUUID:  "test-task",
		Format:    model.DumpFormatHeapV2,
		OutputDir: t.TempDir(),
		TopN:      10,
	}
}

func TestHeapAnalyzer_AnalyzeFromReader(t *testing.T) {
	a := NewHeapAnalyzer(nil)
	req := testRequest(t)

	resp, err := a.AnalyzeFromReader(context.Background(), req, strings.NewReader(testDump))
	require.NoError(t, err)

	assert.Equal(t, "test-task", resp.TaskUUID)
	assert.Equal(t, 2, resp.TotalStacks)

	data, ok := resp.Data.(*model.HeapAnalysisData)
	require.True(t, ok)
	assert.Equal(t, uint64(131072), data.SamplingRate)
	assert.Equal(t, uint64(700), data.LiveBytes)
	assert.Equal(t, uint64(3), data.LiveObjects)
	assert.Greater(t, data.EstimatedBytes, float64(700))

	require.Len(t, data.ThreadStats, 2)
	assert.Equal(t, "7", data.ThreadStats[0].ThreadID)
	assert.InDelta(t, 71.4, data.ThreadStats[0].Percent, 0.1)

	require.Len(t, data.TopStacks, 2)
	assert.Equal(t, uint64(500), data.TopStacks[0].LiveBytes)
	assert.Equal(t, []string{"libapp.so+0x20", "libapp.so+0x10", "libapp.so+0x0"}, data.TopStacks[0].Frames)

	require.NotEmpty(t, data.LibraryUsage)
	assert.Equal(t, "/usr/lib/libapp.so", data.LibraryUsage[0].Path)

	require.Len(t, resp.OutputFiles, 2)
	assert.Equal(t, "flamegraph", resp.OutputFiles[0].Kind)
	assert.Equal(t, "callgraph", resp.OutputFiles[1].Kind)
	assert.FileExists(t, data.FlameGraphFile)
	assert.FileExists(t, data.CallGraphFile)
}

func TestHeapAnalyzer_Analyze_FromFile(t *testing.T) {
	dir := t.TempDir()
	inputFile := filepath.Join(dir, "dump.heap")
	require.NoError(t, os.WriteFile(inputFile, []byte(testDump), 0644))

	req := testRequest(t)
	req.InputFile = inputFile

	resp, err := NewHeapAnalyzer(nil).Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalStacks)
}

func TestHeapAnalyzer_GzippedInput(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(testDump))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	resp, err := NewHeapAnalyzer(nil).AnalyzeFromReader(context.Background(), testRequest(t), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalStacks)
}

func TestHeapAnalyzer_WriteFolded(t *testing.T) {
	a := NewHeapAnalyzer(&BaseAnalyzerConfig{WriteFolded: true})
	req := testRequest(t)

	resp, err := a.AnalyzeFromReader(context.Background(), req, strings.NewReader(testDump))
	require.NoError(t, err)

	require.Len(t, resp.OutputFiles, 3)
	assert.Equal(t, "folded", resp.OutputFiles[2].Kind)
	assert.FileExists(t, resp.OutputFiles[2].Path)
}

func TestHeapAnalyzer_EmptyInput(t *testing.T) {
	_, err := NewHeapAnalyzer(nil).AnalyzeFromReader(context.Background(), testRequest(t), strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyData)
}

func TestHeapAnalyzer_MalformedInput(t *testing.T) {
	_, err := NewHeapAnalyzer(nil).AnalyzeFromReader(context.Background(), testRequest(t), strings.NewReader("not a heap dump"))
	assert.ErrorIs(t, err, ErrParseError)
}

func TestHeapAnalyzer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHeapAnalyzer(nil).AnalyzeFromReader(ctx, testRequest(t), strings.NewReader(testDump))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManager_RoutesByFormat(t *testing.T) {
	manager := NewFactory(nil).CreateManager()

	a, ok := manager.GetAnalyzer(model.DumpFormatHeapV2)
	require.True(t, ok)
	assert.Equal(t, "heap_v2_analyzer", a.Name())

	req := testRequest(t)
	resp, err := manager.AnalyzeTask(context.Background(), req, strings.NewReader(testDump))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalStacks)
}

func TestManager_UnsupportedFormat(t *testing.T) {
	manager := NewManager()

	_, err := manager.AnalyzeTask(context.Background(), &model.AnalysisRequest{Format: model.DumpFormat(99)}, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
