package ui

import (
	"os"
	"regexp"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/term"
)

// AnsiRegex matches SGR color sequences.
var AnsiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

const termWidthCacheTTL = 500 * time.Millisecond

var (
	termWidthMu         sync.Mutex
	cachedTermWidth     int
	cachedTermWidthTime time.Time
)

// GetTermWidth returns the terminal width, cached briefly. Falls back to 80.
func GetTermWidth() int {
	termWidthMu.Lock()
	defer termWidthMu.Unlock()
	if time.Since(cachedTermWidthTime) <= termWidthCacheTTL && cachedTermWidth > 0 {
		return cachedTermWidth
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width == 0 {
		width = 80
	}
	cachedTermWidth = width
	cachedTermWidthTime = time.Now()
	return width
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// StripAnsiCodes removes color sequences from s.
func StripAnsiCodes(s string) string {
	return AnsiRegex.ReplaceAllString(s, "")
}

// VisibleLength returns the rune count of s without color sequences.
func VisibleLength(s string) int {
	return utf8.RuneCountInString(StripAnsiCodes(s))
}

// TruncateWithEllipsis shortens s to maxLen runes, ending with "...".
func TruncateWithEllipsis(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

const minLineWidth = 20

// FitLine shortens s so it fits on one line of the given width. Truncated
// lines lose their color sequences.
func FitLine(s string, width int) string {
	width = max(width, minLineWidth)
	if VisibleLength(s) <= width {
		return s
	}
	return TruncateWithEllipsis(StripAnsiCodes(s), width)
}
