// Package heapv2 implements parsing of jemalloc's version-2 ASCII heap
// profile dumps.
//
// A dump has the shape:
//
//	heap_v2/<sampling_rate>
//	  t*: 4385: 810327 [0: 0]
//	  t5: 468: 42015 [0: 0]
//	@ 0x7f2bfe4cdd2f 0x7f2bfe4c0f44
//	  t*: 1: 224 [0: 0]
//	  t5: 1: 224 [0: 0]
//	MAPPED_LIBRARIES:
//	7f2bfe400000-7f2bfe42c000 r--p 00000000 103:02 5000 /usr/lib/libc.so.6
//
// The grammar is decoded in a single greedy left-to-right pass with no
// backtracking across section boundaries and no error recovery: a dump
// parses completely or not at all.
package heapv2
