package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/jmagar/vodgrab/internal/model"
)

// MediaExt is the extension given to every saved file, including
// concatenated transport-stream segments.
const MediaExt = ".mp4"

// Sanitise keeps only alphanumeric runes and whitespace so a title can be used as a
// filename. Numbers include fractions and numerals; combining marks are kept so
// scripts that attach vowel signs to letters survive intact.
func Sanitise(title string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.In(r, unicode.Mn, unicode.Mc) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, title)
}

// FileStem returns the sanitized, trimmed title, falling back to the content id.
func FileStem(title, id string) string {
	stem := strings.TrimSpace(Sanitise(title))
	if stem == "" {
		stem = strings.TrimSpace(Sanitise(id))
	}
	if stem == "" {
		stem = "download"
	}
	return stem
}

// OutputDir returns the directory a reference of the given kind is saved into.
func OutputDir(cfg *model.Config, kind model.SourceKind) string {
	return filepath.Join(cfg.OutPath, filepath.FromSlash(cfg.DirectoryFor(kind)))
}

// OutputFile composes the full destination path for ref with the given title.
func OutputFile(cfg *model.Config, ref model.MediaReference, title string) string {
	return filepath.Join(OutputDir(cfg, ref.Kind), FileStem(title, ref.ID)+MediaExt)
}

// MakeDirs creates directories recursively.
func MakeDirs(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return WrapIO("create directory", path, err)
	}
	return nil
}

// ValidatePath checks that a path does not contain dangerous characters.
func ValidatePath(path string) error {
	if strings.ContainsAny(path, "\x00\n\r") {
		return fmt.Errorf("%w: path contains invalid characters", model.ErrIO)
	}
	return nil
}
