package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the application banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Teal to blue, like a map legend
	lines := []struct {
		text  string
		color string
	}{
		{" ____            _                 ", "#2dd4bf"},
		{"|  _ \\ ___  __ _(_) ___  _ __  ___ ", "#22d3ee"},
		{"| |_) / _ \\/ _` | |/ _ \\| '_ \\/ __|", "#38bdf8"},
		{"|  _ <  __/ (_| | | (_) | | | \\__ \\", "#60a5fa"},
		{"|_| \\_\\___|\\__, |_|\\___/|_| |_|___/", "#818cf8"},
		{"           |___/                   ", "#a78bfa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Styler colours status lines when the output is a terminal.
type Styler struct {
	profile termenv.Profile
}

// NewStyler picks the colour profile of the current terminal.
// Pass plain=true to disable colours (pipes, tests).
func NewStyler(plain bool) Styler {
	if plain {
		return Styler{profile: termenv.Ascii}
	}
	return Styler{profile: termenv.ColorProfile()}
}

// Error renders an error line.
func (s Styler) Error(msg string) string {
	return s.profile.String("✗ " + msg).Foreground(s.profile.Color("#f87171")).Bold().String()
}

// Info renders a neutral status line.
func (s Styler) Info(msg string) string {
	return s.profile.String(msg).Foreground(s.profile.Color("#94a3b8")).String()
}

// Prompt renders the input prompt.
func (s Styler) Prompt(label string) string {
	return s.profile.String(label + "> ").Foreground(s.profile.Color("#2dd4bf")).Bold().String()
}
