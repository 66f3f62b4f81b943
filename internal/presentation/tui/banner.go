package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the hangar banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	colors := []string{"#38bdf8", "#60a5fa", "#818cf8", "#a78bfa"}
	lines := []string{
		"  _                                 ",
		" | |__   __ _ _ __   __ _  __ _ _ __ ",
		" | '_ \\ / _` | '_ \\ / _` |/ _` | '__|",
		" | | | | (_| | | | | (_| | (_| | |   ",
		" |_| |_|\\__,_|_| |_|\\__, |\\__,_|_|   ",
		"                    |___/            ",
	}

	fmt.Fprintln(w)
	for i, line := range lines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(colors[i%len(colors)])))
	}
	fmt.Fprintf(w, "  %s\n\n", out.String("v"+strings.TrimSpace(version)).Faint())
}
