// Package profiling provides common utilities for profiling data analysis.
package profiling

import "strings"

// SplitFrameLabel splits a resolved frame into library name and offset text.
// Frame format: "libName+0xoffset" or a bare hex address.
func SplitFrameLabel(frame string) (library, offset string) {
	plus := strings.LastIndex(frame, "+0x")
	if plus == -1 {
		return "", frame
	}
	return frame[:plus], frame[plus+1:]
}

// FrameLibrary returns the library name of a resolved frame, or "" for a
// bare address.
func FrameLibrary(frame string) string {
	library, _ := SplitFrameLabel(frame)
	return library
}

// IsUnresolvedFrame checks if the frame is a bare address with no mapped
// library.
func IsUnresolvedFrame(frame string) bool {
	return strings.HasPrefix(frame, "0x")
}

// StackToString converts a call chain to a semicolon-separated string.
func StackToString(stack []string) string {
	if len(stack) == 0 {
		return ""
	}
	return strings.Join(stack, ";")
}

// StringToStack converts a semicolon-separated string back to a call chain.
func StringToStack(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ";")
}
