package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"ap-task/theme"
)

func TestPosition(t *testing.T) {
	assert.Equal(t, 0.0, Position(-48, -48, 2848))
	assert.Equal(t, 1.0, Position(2848, -48, 2848))
	assert.InDelta(t, 0.5, Position(1400, -48, 2848), 1e-9)
	assert.Equal(t, 0.0, Position(5, 10, 10))
	assert.Equal(t, 1.0, Position(9999, 0, 10))
}

func TestSnapStaysOnLattice(t *testing.T) {
	cases := []struct {
		pos  float64
		want int
	}{
		{0, -48},
		{1, 2848},
		{0.5, 1400},
		{-3, -48},
		{0.0001, -48},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Snap(tc.pos, -48, 2848, 4), "pos %v", tc.pos)
	}
}

func TestRenderSliderHasOneKnob(t *testing.T) {
	th := theme.New(theme.Default())
	for _, pos := range []float64{0, 0.3, 1} {
		out := RenderSlider(pos, 40, th)
		assert.Equal(t, 1, strings.Count(out, "●"))
		assert.Equal(t, 40, lipgloss.Width(out))
	}
	assert.True(t, strings.HasPrefix(stripStyle(RenderSlider(0, 10, th)), "●"))
	assert.True(t, strings.HasSuffix(stripStyle(RenderSlider(1, 10, th)), "●"))
}

func TestCell(t *testing.T) {
	assert.Equal(t, 0, Cell(0, 60))
	assert.Equal(t, 59, Cell(1, 60))
	assert.Equal(t, 0, Cell(0.7, 1))
}

func TestRenderMeter(t *testing.T) {
	th := theme.New(theme.Default())
	out := RenderMeter(0.25, 20, th)
	assert.Equal(t, 5, strings.Count(out, "█"))
	assert.Equal(t, 15, strings.Count(out, "░"))
	assert.Contains(t, out, " 25%")
}

// stripStyle keeps only the slider runes
func stripStyle(s string) string {
	var out strings.Builder
	for _, r := range s {
		if r == '●' || r == '─' {
			out.WriteRune(r)
		}
	}
	return out.String()
}
