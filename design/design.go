// Package design generates the randomized trial parameters of a block: the
// order in which notes are presented and the slider start point of each trial.
//
// Both generators are rejection samplers over an injected random source, so a
// seeded source reproduces the same design. Attempts are capped; a generator
// that cannot find a valid candidate within the cap returns an error tagged
// KindUnsatisfiable instead of looping forever.
package design

import (
	"github.com/Southclaws/fault/ftag"
)

// Source is the randomness a generator consumes. *math/rand/v2.Rand satisfies it.
type Source interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// KindUnsatisfiable tags errors from exhausting the attempt cap
const KindUnsatisfiable ftag.Kind = "CONSTRAINT_UNSATISFIABLE"

// DefaultMaxAttempts bounds each rejection-sampling loop
const DefaultMaxAttempts = 10000
