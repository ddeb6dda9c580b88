package experiment

import (
	"context"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"ap-task/debug"
	"ap-task/design"
	"ap-task/model"
	"ap-task/pitch"
)

// Carry is the state one block hands to the next: the last presented note
// and the last chosen response
type Carry struct {
	Note     pitch.Note
	Response int
}

// CarryFrom takes the carry-over from the last record of a block
func CarryFrom(b model.BlockResult) *Carry {
	last, ok := b.Last()
	if !ok {
		return nil
	}
	return &Carry{Note: last.Note, Response: last.ChosenCents}
}

// BlockRunner runs the trials of one block
type BlockRunner struct {
	Trials         TrialExecutor
	Sequence       design.SequenceGenerator
	Start          design.StartPointGenerator
	Offsets        pitch.Lattice // drawn per trial when OffsetEnabled
	OffsetEnabled  bool
	PracticeTrials int
	Rand           design.Source
}

// Length is the number of trials in a practice or main block
func (b *BlockRunner) Length(practice bool) int {
	if practice {
		return min(b.PracticeTrials, len(b.Sequence.Notes))
	}
	return len(b.Sequence.Notes)
}

// Run generates the block's notes and runs one trial per note. A nil carry
// (the first block of a session) is seeded at random. Each start point is
// drawn against the response actually given in the trial before it.
func (b *BlockRunner) Run(ctx context.Context, blockNumber int, practice bool, carry *Carry) (model.BlockResult, error) {
	if carry == nil {
		carry = b.seed()
		debug.Log("block", "block %d seeded carry note=%s response=%d", blockNumber, carry.Note, carry.Response)
	}

	sequence, err := b.Sequence.Generate(b.Rand, carry.Note, practice)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("block note sequence"))
	}
	sequence = sequence[:b.Length(practice)]

	previous := carry.Response
	result := make(model.BlockResult, 0, len(sequence))
	for i, note := range sequence {
		offset := 0
		if b.OffsetEnabled {
			offset = b.Offsets.Random(b.Rand)
		}

		start, err := b.Start.Generate(b.Rand, previous, offset, practice)
		if err != nil {
			return nil, fault.Wrap(err, fmsg.With("trial start point"))
		}

		rec, err := b.Trials.Run(ctx, model.TrialSpec{
			Note:             note,
			StartCents:       start,
			ScaleOffsetCents: offset,
			BlockNumber:      blockNumber,
			TrialNumber:      i + 1,
			IsPractice:       practice,
		})
		if err != nil {
			return nil, err
		}

		result = append(result, rec)
		previous = rec.ChosenCents
	}

	debug.Log("block", "block %d practice=%v done, %d trials", blockNumber, practice, len(result))
	return result, nil
}

func (b *BlockRunner) seed() *Carry {
	notes := b.Sequence.Notes
	return &Carry{
		Note:     notes[b.Rand.IntN(len(notes))],
		Response: b.Start.Scale.Random(b.Rand),
	}
}
