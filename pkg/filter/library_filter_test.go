package filter

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLibraryFilter_Classify(t *testing.T) {
	f := NewLibraryFilter()

	tests := []struct {
		path string
		want LibraryCategory
	}{
		{"", CategoryUnknown},
		{"/usr/lib/libjemalloc.so.2", CategoryAllocator},
		{"/usr/lib64/libtcmalloc_minimal.so.4", CategoryAllocator},
		{"/lib/x86_64-linux-gnu/libc.so.6", CategorySystem},
		{"/lib/x86_64-linux-gnu/libc-2.31.so", CategorySystem},
		{"/lib/x86_64-linux-gnu/libpthread-2.31.so", CategorySystem},
		{"/lib64/ld-linux-x86-64.so.2", CategorySystem},
		{"/usr/lib/libstdc++.so.6.0.28", CategorySystem},
		{"/usr/java/jdk-17/lib/server/libjvm.so", CategoryRuntime},
		{"/usr/lib/libpython3.9.so.1.0", CategoryRuntime},
		{"/opt/app/bin/server", CategoryApplication},
		{"/opt/app/lib/libbusiness.so", CategoryApplication},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Classify(tt.path))
		})
	}
}

func TestLibraryFilter_CategoryString(t *testing.T) {
	assert.Equal(t, "allocator", CategoryAllocator.String())
	assert.Equal(t, "system", CategorySystem.String())
	assert.Equal(t, "runtime", CategoryRuntime.String())
	assert.Equal(t, "application", CategoryApplication.String())
	assert.Equal(t, "unknown", CategoryUnknown.String())
}

func TestLibraryFilter_Predicates(t *testing.T) {
	f := NewLibraryFilter()

	assert.True(t, f.IsAllocator("/usr/lib/libjemalloc.so.2"))
	assert.True(t, f.IsSystem("/lib/libc.so.6"))
	assert.True(t, f.IsApplication("/opt/app/libworker.so"))
	assert.False(t, f.IsApplication("/lib/libc.so.6"))
}

func TestLibraryFilter_ApplicationPrefixes(t *testing.T) {
	f := NewLibraryFilter()

	// Built-in rule puts libpython under runtime
	assert.Equal(t, CategoryRuntime, f.Classify("/opt/app/libpython3.9.so"))

	// Custom prefix overrides the built-in rule, stale cache included
	f.AddApplicationPrefixes("libpython")
	assert.Equal(t, CategoryApplication, f.Classify("/opt/app/libpython3.9.so"))
}

func TestLibraryFilter_CacheBound(t *testing.T) {
	f := NewLibraryFilter()
	f.categoryCacheSize = 8

	for i := 0; i < 32; i++ {
		f.Classify(fmt.Sprintf("/opt/app/lib%d.so", i))
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	assert.LessOrEqual(t, len(f.categoryCache), 8)
}

func TestLibraryFilter_ConcurrentAccess(t *testing.T) {
	f := NewLibraryFilter()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.Classify(fmt.Sprintf("/opt/app/lib%d.so", j%10))
				f.Classify("/lib/libc.so.6")
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, CategorySystem, f.Classify("/lib/libc.so.6"))
}

func TestClassify_DefaultFilter(t *testing.T) {
	assert.Equal(t, CategoryAllocator, Classify("/usr/lib/libjemalloc.so.2"))
	assert.Equal(t, CategoryUnknown, Classify(""))
}
