package ui

import (
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/term"
)

var (
	unicodeOnce sync.Once
	unicodeOK   bool
)

// UnicodeTerminal reports whether stderr can render Unicode glyphs.
// It is false for pipes, TERM=dumb, and legacy Windows consoles.
func UnicodeTerminal() bool {
	unicodeOnce.Do(func() {
		if os.Getenv("TERM") == "dumb" || !term.IsTerminal(int(os.Stderr.Fd())) {
			return
		}
		if runtime.GOOS == "windows" {
			// Windows Terminal sets WT_SESSION; conhost does not.
			unicodeOK = os.Getenv("WT_SESSION") != ""
			return
		}
		unicodeOK = true
	})
	return unicodeOK
}

// SanitizeString makes scanner-supplied text safe to print. Control
// characters (including the ESC that starts terminal escape sequences) are
// always removed. When the terminal cannot render Unicode, runes outside
// Latin-1 and the Latin script are dropped as well.
func SanitizeString(s string) string {
	keepAll := UnicodeTerminal()
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			return -1
		case keepAll, r <= 0xFF, unicode.Is(unicode.Latin, r):
			return r
		}
		return -1
	}, s)
}

// IsTerminal reports whether w is a terminal. Writers other than *os.File
// are never terminals.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ColorEnabled reports whether styled output should be written to w.
func ColorEnabled(w io.Writer) bool {
	if IsNoColor() || os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return IsTerminal(w)
}
