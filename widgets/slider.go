package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ap-task/theme"
)

// Position maps value in [min, max] to 0..1
func Position(value, min, max int) float64 {
	if max <= min {
		return 0
	}
	return math.Max(0, math.Min(1, float64(value-min)/float64(max-min)))
}

// Cell is the column (0..width-1) a 0..1 position lands on
func Cell(pos float64, width int) int {
	if width <= 1 {
		return 0
	}
	return int(math.Round(pos * float64(width-1)))
}

// Snap maps a 0..1 position onto the lattice min, min+step, ... max
func Snap(pos float64, min, max, step int) int {
	if step <= 0 || max <= min {
		return min
	}
	n := (max - min) / step
	i := int(math.Round(math.Max(0, math.Min(1, pos)) * float64(n)))
	return min + i*step
}

// RenderSlider draws a track with a knob and no value labels, so the
// participant has only the sound to go by
func RenderSlider(pos float64, width int, th *theme.Theme) string {
	if width < 2 {
		width = 2
	}
	knobAt := Cell(pos, width)
	track := lipgloss.NewStyle().Foreground(th.Muted())
	knob := lipgloss.NewStyle().Foreground(th.Knob()).Bold(true)

	var out strings.Builder
	out.WriteString(track.Render(strings.Repeat(string(th.Symbols.Track), knobAt)))
	out.WriteString(knob.Render(string(th.Symbols.Knob)))
	out.WriteString(track.Render(strings.Repeat(string(th.Symbols.Track), width-knobAt-1)))
	return out.String()
}

// RenderMeter draws a level from 0 to 1 as a bar with a percentage
func RenderMeter(level float64, width int, th *theme.Theme) string {
	level = math.Max(0, math.Min(1, level))
	on := int(math.Round(level * float64(width)))
	bar := lipgloss.NewStyle().Foreground(th.Color(0.3 + 0.5*level)).
		Render(strings.Repeat(string(th.Symbols.MeterOn), on))
	rest := lipgloss.NewStyle().Foreground(th.Surface()).
		Render(strings.Repeat(string(th.Symbols.MeterOff), width-on))
	return fmt.Sprintf("%s%s %3d%%", bar, rest, int(math.Round(level*100)))
}

// RenderButton draws a button label, dimmed when disabled
func RenderButton(label string, enabled bool, th *theme.Theme) string {
	style := lipgloss.NewStyle().Padding(0, 2).Bold(true)
	if enabled {
		style = style.Foreground(th.BG()).Background(th.Accent())
	} else {
		style = style.Foreground(th.Muted()).Background(th.Surface())
	}
	return style.Render(label)
}

// RenderParagraphs wraps each paragraph to width with a blank line between them
func RenderParagraphs(paragraphs []string, width int, th *theme.Theme) string {
	style := lipgloss.NewStyle().Foreground(th.FG()).Width(width)
	rendered := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		rendered[i] = style.Render(p)
	}
	return strings.Join(rendered, "\n\n")
}
