package pitch

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyFromCentsAtZeroIsBase(t *testing.T) {
	assert.Equal(t, 196.0, FrequencyFromCents(0, 196))
	assert.InDelta(t, 392.0, FrequencyFromCents(1200, 196), 1e-9)
	assert.InDelta(t, 98.0, FrequencyFromCents(-1200, 196), 1e-9)
}

func TestFrequencyFromCentsIsMonotonic(t *testing.T) {
	prev := FrequencyFromCents(-48, 196)
	for c := -44; c <= 2848; c += 4 {
		f := FrequencyFromCents(float64(c), 196)
		if f <= prev {
			t.Fatalf("frequency not increasing at %d cents: %v <= %v", c, f, prev)
		}
		prev = f
	}
}

func TestCentsFromFrequencyInvertsFrequency(t *testing.T) {
	for _, c := range []float64{-48, 0, 350, 1200, 2848} {
		assert.InDelta(t, c, CentsFromFrequency(FrequencyFromCents(c, 196), 196), 1e-9)
	}
}

func TestNotesAreTwelveDistinct(t *testing.T) {
	ns := Notes()
	assert := assert.New(t)
	assert.Len(ns, NumNotes)

	names := make(map[string]bool)
	cents := make(map[int]bool)
	for i, n := range ns {
		names[n.Name] = true
		cents[n.Cents] = true
		assert.Equal(i, n.Index())
	}
	assert.Len(names, NumNotes)
	assert.Len(cents, NumNotes)
}

func TestNoteByName(t *testing.T) {
	g, ok := NoteByName("G")
	assert.True(t, ok)
	assert.Equal(t, 0, g.Cents)

	_, ok = NoteByName("H")
	assert.False(t, ok)
}

func TestAdjacentWrapsAround(t *testing.T) {
	ab, _ := NoteByName("A♭")
	a, _ := NoteByName("A")
	g, _ := NoteByName("G")
	fs, _ := NoteByName("F#")
	c, _ := NoteByName("C")

	cases := []struct {
		x, y Note
		want bool
	}{
		{ab, a, true},
		{a, ab, true},
		{ab, g, true},
		{g, ab, true},
		{g, fs, true},
		{fs, g, true},
		{g, a, false},
		{c, g, false},
		{c, c, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s-%s", tc.x, tc.y), func(t *testing.T) {
			assert.Equal(t, tc.want, Adjacent(tc.x, tc.y))
			assert.Equal(t, tc.want, IndexDistance(tc.x, tc.y) == 1)
		})
	}
}

func TestAdjacencyMatchesSemitones(t *testing.T) {
	for _, x := range Notes() {
		for _, y := range Notes() {
			semis := CyclicCentsDistance(x.Cents, y) / CentsPerSemitone
			assert.Equal(t, semis == 1, Adjacent(x, y), "%s %s", x, y)
		}
	}
}

func TestCyclicCentsDistance(t *testing.T) {
	g, _ := NoteByName("G")
	a, _ := NoteByName("A")
	cases := []struct {
		cents int
		note  Note
		want  int
	}{
		{0, g, 0},
		{1150, g, 50},
		{-48, g, 48},
		{1250, g, 50},
		{2750, g, 350},
		{3096, g, 504},
		{2600, a, 0},
		{-248, a, 448},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d-%s", tc.cents, tc.note), func(t *testing.T) {
			assert.Equal(t, tc.want, CyclicCentsDistance(tc.cents, tc.note))
		})
	}
}

func TestOnNote(t *testing.T) {
	assert.True(t, OnNote(0))
	assert.True(t, OnNote(-100))
	assert.True(t, OnNote(2800))
	assert.False(t, OnNote(-48))
	assert.False(t, OnNote(2848))
}

func TestLattice(t *testing.T) {
	l := Lattice{Min: -48, Max: 2848, Step: 4}
	assert := assert.New(t)
	assert.Equal(725, l.Len())
	assert.Equal(-48, l.At(0))
	assert.Equal(2848, l.At(l.Len()-1))
	assert.True(l.Contains(0))
	assert.False(l.Contains(2))
	assert.False(l.Contains(2852))

	shifted := l.Shift(-248)
	assert.Equal(-296, shifted.Min)
	assert.Equal(2600, shifted.Max)
	assert.Equal(l.Len(), shifted.Len())

	offsets := Lattice{Min: -248, Max: 248, Step: 4}
	assert.Equal(125, offsets.Len())
	assert.Len(offsets.Values(), 125)
}

func TestLatticeRandomStaysOnLattice(t *testing.T) {
	l := Lattice{Min: -48, Max: 2848, Step: 4}
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		assert.True(t, l.Contains(l.Random(r)))
	}
}
