package design

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"ap-task/debug"
	"ap-task/pitch"
	"ap-task/util"
)

// SequenceGenerator produces the note order for a block
type SequenceGenerator struct {
	Notes          []pitch.Note // notes to permute, in canonical order
	Anchors        []pitch.Note // excluded from the first PracticeLength practice positions
	PracticeLength int
	MaxAttempts    int
}

// NewSequenceGenerator uses all 12 notes
func NewSequenceGenerator(anchors []pitch.Note, practiceLength, maxAttempts int) SequenceGenerator {
	return SequenceGenerator{
		Notes:          pitch.Notes(),
		Anchors:        anchors,
		PracticeLength: practiceLength,
		MaxAttempts:    maxAttempts,
	}
}

// Generate returns a permutation of all notes such that no two consecutive
// notes, starting from previous, are adjacent. For practice blocks none of
// the first PracticeLength notes is an anchor. Callers truncate the result.
func (g SequenceGenerator) Generate(r Source, previous pitch.Note, practice bool) ([]pitch.Note, error) {
	maxAttempts := g.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	cand := make([]pitch.Note, len(g.Notes))
	copy(cand, g.Notes)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		r.Shuffle(len(cand), func(i, j int) {
			cand[i], cand[j] = cand[j], cand[i]
		})
		if g.Valid(previous, cand, practice) {
			debug.Log("design", "sequence after %d attempts: %v (prev=%s practice=%v)", attempt, cand, previous, practice)
			out := make([]pitch.Note, len(cand))
			copy(out, cand)
			return out, nil
		}
	}

	debug.Log("design", "sequence unsatisfiable after %d attempts (prev=%s practice=%v)", maxAttempts, previous, practice)
	return nil, fault.New(
		fmt.Sprintf("no valid note sequence after %d attempts", maxAttempts),
		fmsg.With("generate sequence"),
		ftag.With(KindUnsatisfiable),
	)
}

// Valid checks seq against the adjacency and practice constraints.
// The previous note is prepended so the pair crossing the block boundary
// is checked too.
func (g SequenceGenerator) Valid(previous pitch.Note, seq []pitch.Note, practice bool) bool {
	test := append([]pitch.Note{previous}, seq...)
	for i := 1; i < len(test); i++ {
		if pitch.Adjacent(test[i], test[i-1]) {
			return false
		}
		if practice && i <= g.PracticeLength && util.Contains(g.Anchors, test[i]) {
			return false
		}
	}
	return true
}
