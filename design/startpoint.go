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

// StartPointGenerator picks the initial slider value of a trial
type StartPointGenerator struct {
	Scale          pitch.Lattice // unshifted response scale
	MinDelta       int           // start must be further than this from the previous response
	PracticeRadius int           // practice starts must be further than this from every anchor
	Anchors        []pitch.Note
	MaxAttempts    int
}

// Generate draws a start value from the scale shifted by scaleOffset
func (g StartPointGenerator) Generate(r Source, previousResponse, scaleOffset int, practice bool) (int, error) {
	maxAttempts := g.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	scale := g.Scale.Shift(scaleOffset)
	if scale.Len() == 0 {
		return 0, fault.New("empty response scale", ftag.With(KindUnsatisfiable))
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		cand := scale.Random(r)
		if g.Accept(cand, previousResponse, practice) {
			return cand, nil
		}
	}

	debug.Log("design", "start point unsatisfiable after %d attempts (prev=%d offset=%d practice=%v)", maxAttempts, previousResponse, scaleOffset, practice)
	return 0, fault.New(
		fmt.Sprintf("no valid start point after %d attempts", maxAttempts),
		fmsg.With("generate start point"),
		ftag.With(KindUnsatisfiable),
	)
}

// Accept is the rejection predicate of Generate
func (g StartPointGenerator) Accept(cand, previousResponse int, practice bool) bool {
	if util.Abs(cand-previousResponse) <= g.MinDelta {
		return false
	}
	if pitch.OnNote(cand) {
		return false
	}
	if practice {
		for _, a := range g.Anchors {
			if pitch.CyclicCentsDistance(cand, a) <= g.PracticeRadius {
				return false
			}
		}
	}
	return true
}
