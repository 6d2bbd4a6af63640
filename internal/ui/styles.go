package ui

import (
	"fmt"

	"github.com/alfredjeanlab/trellis/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent  = 74  // blue
	colorCmd     = 250 // light gray
	colorMuted   = 245 // medium gray
	colorError   = 203 // red
	colorClock   = 179 // amber
	colorWeather = 80  // cyan
	colorNote    = 150 // green
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderError returns s in red.
func RenderError(s string) string { return paint(colorError, s) }

// RenderKind returns the tile kind name in its own color.
func RenderKind(k model.Kind) string {
	switch k {
	case model.KindClock:
		return paint(colorClock, k.String())
	case model.KindWeather:
		return paint(colorWeather, k.String())
	case model.KindNote:
		return paint(colorNote, k.String())
	}
	return k.String()
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
