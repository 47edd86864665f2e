package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI sequences used by the Print helpers. Empty when colors are disabled.
var (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[91m"
	ColorGreen  = "\033[92m"
	ColorYellow = "\033[93m"
	ColorBlue   = "\033[94m"
	ColorCyan   = "\033[96m"
	ColorBold   = "\033[1m"
	ActiveTheme = "nordonedark"
)

var (
	SymbolCheck    = "✓"
	SymbolCross    = "✗"
	SymbolDownload = "⬇"
	SymbolWarning  = "⚠"
	SymbolClock    = "⏱"
)

// palette holds red, green, yellow, blue and cyan in that order.
type palette [5]string

// themes maps a theme name to its truecolor, 256-color and basic palettes.
// An empty palette keeps the defaults above.
var themes = map[string][3]palette{
	"vivid": {
		{"\033[1;38;2;255;76;102m", "\033[1;38;2;80;250;123m", "\033[1;38;2;255;221;87m", "\033[1;38;2;110;196;255m", "\033[1;38;2;0;245;255m"},
		{"\033[1;91m", "\033[1;92m", "\033[1;93m", "\033[1;94m", "\033[1;96m"},
		{"\033[1;91m", "\033[1;92m", "\033[1;93m", "\033[1;94m", "\033[1;96m"},
	},
	"nordonedark": {
		{"\033[1;38;2;224;108;117m", "\033[1;38;2;152;195;121m", "\033[1;38;2;229;192;123m", "\033[1;38;2;143;188;255m", "\033[1;38;2;136;220;255m"},
		{"\033[1;38;5;210m", "\033[1;38;5;114m", "\033[1;38;5;222m", "\033[1;38;5;111m", "\033[1;38;5;159m"},
		{},
	},
}

func init() {
	InitColorPalette()
}

// InitColorPalette applies the theme named by VODGRAB_THEME (default nordonedark).
// Colors are disabled when NO_COLOR is set or stdout is not a terminal.
func InitColorPalette() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok || !term.IsTerminal(int(os.Stdout.Fd())) {
		ColorReset, ColorRed, ColorGreen, ColorYellow = "", "", "", ""
		ColorBlue, ColorCyan, ColorBold = "", "", ""
		return
	}
	if theme := strings.ToLower(strings.TrimSpace(os.Getenv("VODGRAB_THEME"))); theme != "" {
		ActiveTheme = theme
	}
	variants, ok := themes[ActiveTheme]
	if !ok {
		ActiveTheme = "nordonedark"
		variants = themes[ActiveTheme]
	}
	p := variants[2]
	switch {
	case SupportsTruecolor():
		p = variants[0]
	case Supports256Color():
		p = variants[1]
	}
	if p[0] == "" {
		return
	}
	ColorRed, ColorGreen, ColorYellow, ColorBlue, ColorCyan = p[0], p[1], p[2], p[3], p[4]
}

// BarColor returns the progress bar fill color for the active theme.
func BarColor() string {
	if ActiveTheme == "vivid" {
		return "#6EC4FF"
	}
	return "#8FBCFF"
}

// SupportsTruecolor checks if the terminal supports 24-bit color.
func SupportsTruecolor() bool {
	termName := strings.ToLower(os.Getenv("TERM"))
	colorTerm := strings.ToLower(os.Getenv("COLORTERM"))
	return strings.Contains(colorTerm, "truecolor") ||
		strings.Contains(colorTerm, "24bit") ||
		strings.Contains(termName, "truecolor") ||
		strings.Contains(termName, "24bit")
}

// Supports256Color checks if the terminal supports 256 colors.
func Supports256Color() bool {
	return strings.Contains(strings.ToLower(os.Getenv("TERM")), "256color")
}
