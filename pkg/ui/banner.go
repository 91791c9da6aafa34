package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/waftester/nucleibudget/pkg/defaults"
)

var (
	noColorMode bool
	uiMu        sync.RWMutex
)

// SetNoColor disables colored output
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor returns whether color is disabled
func IsNoColor() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return noColorMode
}

const bannerSeparator = "________________________________________________"

// PrintBanner writes the minimal banner (ffuf-style box).
func PrintBanner(w io.Writer) {
	fmt.Fprintln(w, BannerStyle.Render(bannerSeparator))
	fmt.Fprintf(w, "\n %s %s\n", BannerStyle.Render(defaults.ToolName), VersionStyle.Render("v"+defaults.Version))
	fmt.Fprintln(w, BannerStyle.Render(bannerSeparator))
	fmt.Fprintln(w)
}

// Option is one row of the configuration banner.
type Option struct {
	Name  string
	Value string
}

// PrintConfigBanner writes the non-empty options in order:
//
//	:: Mode                 : budget
func PrintConfigBanner(w io.Writer, options []Option) {
	for _, opt := range options {
		if opt.Value == "" {
			continue
		}
		fmt.Fprintf(w, " :: %-20s : %s\n",
			ConfigLabelStyle.Render(opt.Name), ConfigValueStyle.Render(SanitizeString(opt.Value)))
	}
	fmt.Fprintf(w, "%s\n\n", DividerStyle.Render(strings.Repeat("_", len(bannerSeparator))))
}
