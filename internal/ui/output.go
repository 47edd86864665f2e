package ui

import (
	"fmt"
	"os"
	"path/filepath"
)

// PrintError prints an error message to stderr.
func PrintError(msg string) {
	fmt.Fprintf(os.Stderr, "%s%s%s %s\n", ColorRed, SymbolCross, ColorReset, msg)
}

// PrintWarning prints a warning message.
func PrintWarning(msg string) {
	fmt.Printf("%s%s%s %s\n", ColorYellow, SymbolWarning, ColorReset, msg)
}

// PrintDownload prints a download message cut to the terminal width.
func PrintDownload(msg string) {
	msg = FitLine(msg, GetTermWidth()-2)
	fmt.Printf("%s%s%s %s\n", ColorCyan, SymbolDownload, ColorReset, msg)
}

// PrintTiming prints a stage timing summary.
func PrintTiming(msg string) {
	fmt.Printf("%s%s%s %s\n", ColorBlue, SymbolClock, ColorReset, msg)
}

// PrintSaved prints the final saved path as a clickable link when stdout is a terminal.
func PrintSaved(path string) {
	link := path
	if IsTerminal(os.Stdout) {
		link = Hyperlink(path)
	}
	fmt.Printf("%s%s%s Saved to: %s%s%s\n", ColorGreen, SymbolCheck, ColorReset, ColorBold, link, ColorReset)
}

// Hyperlink wraps path in an OSC 8 escape so terminals render it as a file:// link.
// The visible text stays the path as given.
func Hyperlink(path string) string {
	target := path
	if abs, err := filepath.Abs(path); err == nil {
		target = abs
	}
	return "\x1b]8;;file://" + filepath.ToSlash(target) + "\x07" + path + "\x1b]8;;\x07"
}
