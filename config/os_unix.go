//go:build !windows

package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// CleanFileName makes in usable as a single path element: separators are
// dropped, leading dots removed so result is never hidden or relative.
func CleanFileName(in string) string {
	out := strings.Map(func(r rune) rune {
		if r == os.PathSeparator || r == os.PathListSeparator || r == 0 {
			return -1
		}
		return r
	}, in)
	return fileNameOrDefault(strings.TrimLeft(out, "."))
}

// EnableColorOutput reports whether stream is a terminal.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
