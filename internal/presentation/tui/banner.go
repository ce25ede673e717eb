package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{` _                       _   `, "#34d399"},
	{`(_)_ __   __ _  ___  ___| |_ `, "#2dd4bf"},
	{`| | '_ \ / _' |/ _ \/ __| __|`, "#22d3ee"},
	{`| | | | | (_| |  __/\__ \ |_ `, "#38bdf8"},
	{`|_|_| |_|\__, |\___||___/\__|`, "#60a5fa"},
	{`          |___/               `, "#818cf8"},
}

// PrintBanner writes the ingest banner and version to w.
// Colours are dropped when w does not support them.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, out.String("  v"+version).Faint())
	}
	fmt.Fprintln(w)
}
