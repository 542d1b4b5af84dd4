//go:build !windows

package config

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"doc-1", "doc-1"},
		{"a/b:c", "abc"},
		{"../secret", "secret"},
		{"...", "_bad_file_name_"},
		{"", "_bad_file_name_"},
	}
	for _, tt := range tests {
		if got := CleanFileName(tt.in); got != tt.want {
			t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanFileName_Long(t *testing.T) {
	got := CleanFileName(strings.Repeat("ж", 150))
	if len(got) > maxFileName || !utf8.ValidString(got) {
		t.Errorf("CleanFileName() = %d bytes, valid utf8 %v", len(got), utf8.ValidString(got))
	}
}
