// Package filter provides unified library classification logic for heap analysis.
// This package consolidates categorization rules for allocator, system, runtime
// and application libraries found in a dump's memory map.
package filter

import (
	"path/filepath"
	"strings"
	"sync"
)

// LibraryCategory represents the category of a mapped library.
type LibraryCategory int

const (
	// CategoryUnknown indicates the library could not be categorized,
	// typically an unresolved frame with no mapped library.
	CategoryUnknown LibraryCategory = iota
	// CategoryAllocator indicates the memory allocator itself.
	CategoryAllocator
	// CategorySystem indicates base system libraries.
	CategorySystem
	// CategoryRuntime indicates language runtime libraries.
	CategoryRuntime
	// CategoryApplication indicates application-level libraries.
	CategoryApplication
)

// String returns the string representation of the category.
func (c LibraryCategory) String() string {
	switch c {
	case CategoryAllocator:
		return "allocator"
	case CategorySystem:
		return "system"
	case CategoryRuntime:
		return "runtime"
	case CategoryApplication:
		return "application"
	default:
		return "unknown"
	}
}

// LibraryFilter categorizes mapped library paths.
// It is safe for concurrent use.
type LibraryFilter struct {
	mu sync.RWMutex

	// Allocator library name fragments
	allocatorContains []string

	// System library basename prefixes
	systemPrefixes []string

	// Language runtime basename prefixes
	runtimePrefixes []string

	// Custom application library prefixes, matched before the built-in
	// system and runtime rules
	applicationPrefixes []string

	// Cache for frequently queried paths
	categoryCache     map[string]LibraryCategory
	categoryCacheSize int
}

// NewLibraryFilter creates a new LibraryFilter with default rules.
func NewLibraryFilter() *LibraryFilter {
	f := &LibraryFilter{
		categoryCache:     make(map[string]LibraryCategory),
		categoryCacheSize: 4096,
	}
	f.initDefaults()
	return f
}

// initDefaults initializes default categorization rules.
func (f *LibraryFilter) initDefaults() {
	// The allocator's own frames sit at the bottom of nearly every stack
	// and are almost never the root cause
	f.allocatorContains = []string{
		"jemalloc",
		"tcmalloc",
		"mimalloc",
	}

	// Base system libraries
	f.systemPrefixes = []string{
		"libc.",
		"libc-",
		"libm.",
		"libm-",
		"libdl.",
		"libdl-",
		"librt.",
		"librt-",
		"libpthread",
		"libresolv",
		"libnss_",
		"ld-linux",
		"ld-musl",
		"ld.so",
		"ld-",
		"libgcc_s",
		"libstdc++",
		"libutil.",
		"vdso",
	}

	// Language runtime libraries
	f.runtimePrefixes = []string{
		"libjvm",
		"libjava",
		"libjli",
		"libzip",
		"libverify",
		"libpython",
		"libruby",
		"libperl",
		"libv8",
		"libnode",
		"libgo.",
		"libart",
		"libmono",
		"libcoreclr",
	}
}

// AddApplicationPrefixes registers custom application library basename
// prefixes. Paths matching them categorize as application regardless of
// the built-in rules.
func (f *LibraryFilter) AddApplicationPrefixes(prefixes ...string) {
	f.mu.Lock()
	f.applicationPrefixes = append(f.applicationPrefixes, prefixes...)
	// Cached answers may change once custom prefixes are added
	f.categoryCache = make(map[string]LibraryCategory)
	f.mu.Unlock()
}

// Classify returns the category of a mapped library path.
func (f *LibraryFilter) Classify(path string) LibraryCategory {
	if path == "" {
		return CategoryUnknown
	}

	// Check cache first
	f.mu.RLock()
	if cat, ok := f.categoryCache[path]; ok {
		f.mu.RUnlock()
		return cat
	}
	f.mu.RUnlock()

	// Compute category
	cat := f.classifyUncached(path)

	// Update cache (with size limit)
	f.mu.Lock()
	if len(f.categoryCache) < f.categoryCacheSize {
		f.categoryCache[path] = cat
	}
	f.mu.Unlock()

	return cat
}

// classifyUncached computes the category without using cache.
func (f *LibraryFilter) classifyUncached(path string) LibraryCategory {
	base := strings.ToLower(filepath.Base(path))

	// Check custom application prefixes
	f.mu.RLock()
	applicationPrefixes := f.applicationPrefixes
	f.mu.RUnlock()

	for _, prefix := range applicationPrefixes {
		if strings.HasPrefix(base, prefix) {
			return CategoryApplication
		}
	}

	// Check allocator fragments
	for _, fragment := range f.allocatorContains {
		if strings.Contains(base, fragment) {
			return CategoryAllocator
		}
	}

	// Check system prefixes
	for _, prefix := range f.systemPrefixes {
		if strings.HasPrefix(base, prefix) {
			return CategorySystem
		}
	}

	// Check runtime prefixes
	for _, prefix := range f.runtimePrefixes {
		if strings.HasPrefix(base, prefix) {
			return CategoryRuntime
		}
	}

	// Default to application level (the process's own code and its
	// direct dependencies)
	return CategoryApplication
}

// IsAllocator returns true if the library is the memory allocator.
func (f *LibraryFilter) IsAllocator(path string) bool {
	return f.Classify(path) == CategoryAllocator
}

// IsSystem returns true if the library is a base system library.
func (f *LibraryFilter) IsSystem(path string) bool {
	return f.Classify(path) == CategorySystem
}

// IsApplication returns true if the library is application-level code.
func (f *LibraryFilter) IsApplication(path string) bool {
	return f.Classify(path) == CategoryApplication
}

var defaultFilter = NewLibraryFilter()

// Classify categorizes a path using the default filter.
func Classify(path string) LibraryCategory {
	return defaultFilter.Classify(path)
}
