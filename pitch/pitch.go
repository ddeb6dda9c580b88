package pitch

import (
	"math"

	"ap-task/util"
)

// CentsPerOctave is the size of the pitch-class circle
const CentsPerOctave = 1200

// CentsPerSemitone is the spacing between adjacent notes
const CentsPerSemitone = 100

// Note is a pitch class with its canonical offset in cents from the base frequency
type Note struct {
	Name  string
	Cents int
}

// notes in canonical order; adjacency on this ordering (with wrap-around)
// is what makes two notes "musically adjacent"
var notes = []Note{
	{Name: "A♭", Cents: 100},
	{Name: "A", Cents: 200},
	{Name: "B♭", Cents: 300},
	{Name: "B", Cents: 400},
	{Name: "C", Cents: 500},
	{Name: "C#", Cents: 600},
	{Name: "D", Cents: 700},
	{Name: "E♭", Cents: 800},
	{Name: "E", Cents: 900},
	{Name: "F", Cents: 1000},
	{Name: "F#", Cents: 1100},
	{Name: "G", Cents: 0},
}

// NumNotes is the number of pitch classes
const NumNotes = 12

// Notes returns a copy of the ordered note list
func Notes() []Note {
	out := make([]Note, len(notes))
	copy(out, notes)
	return out
}

// NoteByName looks up a note by its display name
func NoteByName(name string) (Note, bool) {
	for _, n := range notes {
		if n.Name == name {
			return n, true
		}
	}
	return Note{}, false
}

// Index returns the note's position in the canonical ordering, or -1
func (n Note) Index() int {
	for i, o := range notes {
		if o == n {
			return i
		}
	}
	return -1
}

func (n Note) String() string {
	return n.Name
}

// IndexDistance is the cyclic distance between two notes on the 12-note ordering
func IndexDistance(a, b Note) int {
	d := util.Mod(a.Index()-b.Index(), NumNotes)
	return util.Min(d, NumNotes-d)
}

// Adjacent reports whether two notes are neighbours on the note circle.
// Both ends of the ordering are handled explicitly: the first note is
// adjacent to the last one.
func Adjacent(a, b Note) bool {
	ia, ib := a.Index(), b.Index()
	last := NumNotes - 1
	switch ia {
	case 0:
		return ib == last || ib == 1
	case last:
		return ib == last-1 || ib == 0
	default:
		return ib == ia-1 || ib == ia+1
	}
}

// FrequencyFromCents converts a cents offset from base into Hz
func FrequencyFromCents(cents float64, base float64) float64 {
	return base * math.Pow(2, cents/CentsPerOctave)
}

// CentsFromFrequency is the inverse of FrequencyFromCents
func CentsFromFrequency(freq float64, base float64) float64 {
	return CentsPerOctave * math.Log2(freq/base)
}

// CyclicCentsDistance is the shortest distance between cents and the note on
// the pitch-class circle, whatever octave cents falls in.
func CyclicCentsDistance(cents int, n Note) int {
	d := util.Mod(cents-n.Cents, CentsPerOctave)
	return util.Min(d, CentsPerOctave-d)
}

// OnNote reports whether cents coincides exactly with some note
func OnNote(cents int) bool {
	return util.Mod(cents, CentsPerSemitone) == 0
}
