package flamegraph

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeheap-analysis/internal/symbolize"
	"github.com/jeheap-analysis/pkg/model"
)

func testProfile() *model.Profile {
	return &model.Profile{
		SamplingRate: 1,
		Totals: []model.Thread{
			{ID: model.AggregateThreadID, InuseCount: 3, InuseSpace: 700},
		},
		Stacks: []model.Stack{
			{
				Addrs: []uint64{0x30, 0x20, 0x10},
				Threads: []model.Thread{
					{ID: model.AggregateThreadID, InuseCount: 2, InuseSpace: 500},
				},
			},
			{
				Addrs: []uint64{0x40, 0x20, 0x10},
				Threads: []model.Thread{
					{ID: model.AggregateThreadID, InuseCount: 1, InuseSpace: 200},
				},
			},
		},
		MappedLibraries: []model.MappedLibrary{
			{First: 0x10, Last: 0x50, Path: "/usr/lib/libapp.so"},
		},
	}
}

func TestGenerator_Generate(t *testing.T) {
	profile := testProfile()
	gen := NewGenerator(symbolize.NewResolver(profile.MappedLibraries))

	fg := gen.Generate(profile)

	assert.Equal(t, uint64(700), fg.TotalBytes)
	assert.Equal(t, 2, fg.TotalStacks)
	assert.Equal(t, 3, fg.MaxDepth)
	assert.Equal(t, uint64(700), fg.Root.Value)

	// Stacks share the outer frames 0x10 and 0x20.
	require.Len(t, fg.Root.Children, 1)
	outer, ok := fg.Root.Children["libapp.so+0x0"]
	require.True(t, ok)
	assert.Equal(t, uint64(700), outer.Value)
	assert.Equal(t, "/usr/lib/libapp.so", outer.Library)

	mid, ok := outer.Children["libapp.so+0x10"]
	require.True(t, ok)
	assert.Equal(t, uint64(700), mid.Value)
	require.Len(t, mid.Children, 2)
	assert.Equal(t, uint64(500), mid.Children["libapp.so+0x20"].Value)
	assert.Equal(t, uint64(200), mid.Children["libapp.so+0x30"].Value)
}

func TestGenerator_NilResolverUsesProfileMappings(t *testing.T) {
	profile := testProfile()
	fg := NewGenerator(nil).Generate(profile)

	assert.Equal(t, uint64(700), fg.TotalBytes)
	_, ok := fg.Root.Children["libapp.so+0x0"]
	assert.True(t, ok)
}

func TestGenerator_UnresolvedAddrs(t *testing.T) {
	profile := &model.Profile{
		Stacks: []model.Stack{
			{
				Addrs: []uint64{0xdeadbeef},
				Threads: []model.Thread{
					{ID: model.AggregateThreadID, InuseCount: 1, InuseSpace: 64},
				},
			},
		},
	}

	fg := NewGenerator(nil).Generate(profile)

	require.Len(t, fg.Root.Children, 1)
	node, ok := fg.Root.Children["0x00000000deadbeef"]
	require.True(t, ok)
	assert.Empty(t, node.Library)
	assert.Equal(t, uint64(64), node.Value)
}

func TestGenerator_SkipsEmptyStacks(t *testing.T) {
	profile := &model.Profile{
		Stacks: []model.Stack{
			{
				Addrs: []uint64{0x10},
				Threads: []model.Thread{
					{ID: model.AggregateThreadID},
				},
			},
		},
	}

	fg := NewGenerator(nil).Generate(profile)
	assert.Equal(t, 0, fg.TotalStacks)
	assert.Nil(t, fg.Root.Children)
}

func TestFlameGraph_Cleanup(t *testing.T) {
	fg := NewFlameGraph()
	child := fg.Root.AddChild("frame", "")
	require.NotNil(t, child.Children)

	fg.Cleanup()
	assert.Nil(t, child.Children)
}

func TestJSONWriter_RoundTrip(t *testing.T) {
	fg := NewGenerator(nil).Generate(testProfile())

	var buf bytes.Buffer
	require.NoError(t, NewJSONWriter().Write(fg, &buf))

	var got FlameGraph
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, uint64(700), got.TotalBytes)
	assert.Equal(t, 2, got.TotalStacks)
}

func TestGzipWriter_RoundTrip(t *testing.T) {
	fg := NewGenerator(nil).Generate(testProfile())

	var buf bytes.Buffer
	require.NoError(t, NewGzipWriter().Write(fg, &buf))

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	raw, err := io.ReadAll(gz)
	require.NoError(t, err)

	var got FlameGraph
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, uint64(700), got.TotalBytes)
}

func TestFoldedWriter(t *testing.T) {
	fg := NewGenerator(nil).Generate(testProfile())

	var buf bytes.Buffer
	require.NoError(t, NewFoldedWriter().Write(fg, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Contains(t, lines, "libapp.so+0x0;libapp.so+0x10;libapp.so+0x20 500")
	assert.Contains(t, lines, "libapp.so+0x0;libapp.so+0x10;libapp.so+0x30 200")
}
