package profiling

import "testing"

func TestSplitFrameLabel(t *testing.T) {
	tests := []struct {
		frame   string
		library string
		offset  string
	}{
		{"libapp.so+0x20", "libapp.so", "0x20"},
		{"libstdc++.so.6+0x9f1a0", "libstdc++.so.6", "0x9f1a0"},
		{"0x00007f0000001000", "", "0x00007f0000001000"},
		{"", "", ""},
	}

	for _, tt := range tests {
		library, offset := SplitFrameLabel(tt.frame)
		if library != tt.library || offset != tt.offset {
			t.Errorf("SplitFrameLabel(%q) = (%q, %q), want (%q, %q)",
				tt.frame, library, offset, tt.library, tt.offset)
		}
	}
}

func TestFrameLibrary(t *testing.T) {
	if got := FrameLibrary("libc.so.6+0x1234"); got != "libc.so.6" {
		t.Errorf("Expected libc.so.6, got %q", got)
	}
	if got := FrameLibrary("0xdeadbeef"); got != "" {
		t.Errorf("Expected empty library, got %q", got)
	}
}

func TestIsUnresolvedFrame(t *testing.T) {
	if !IsUnresolvedFrame("0x00007f0000001000") {
		t.Error("Expected bare address to be unresolved")
	}
	if IsUnresolvedFrame("libapp.so+0x20") {
		t.Error("Expected resolved frame to not be unresolved")
	}
}

func TestStackRoundTrip(t *testing.T) {
	stack := []string{"libapp.so+0x10", "libapp.so+0x20", "libc.so.6+0x30"}

	s := StackToString(stack)
	if s != "libapp.so+0x10;libapp.so+0x20;libc.so.6+0x30" {
		t.Errorf("Unexpected string form: %q", s)
	}

	back := StringToStack(s)
	if len(back) != 3 || back[1] != "libapp.so+0x20" {
		t.Errorf("Unexpected round trip: %v", back)
	}

	if StackToString(nil) != "" {
		t.Error("Expected empty string for nil stack")
	}
	if StringToStack("") != nil {
		t.Error("Expected nil stack for empty string")
	}
}
