package experiment

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"ap-task/config"
	"ap-task/debug"
	"ap-task/model"
	"ap-task/pitch"
)

// Timing holds the phase durations of a trial
type Timing struct {
	NoteDisplay   time.Duration // note shown alone before the tone starts
	MaxResponse   time.Duration // response window; running out forces a response
	Fade          time.Duration // fade in and fade out
	FadeHold      time.Duration // silence kept after the fade out before disconnecting
	CountdownTick time.Duration
}

// TimingFromConfig converts the configured durations
func TimingFromConfig(c config.TimingConfig) Timing {
	return Timing{
		NoteDisplay:   c.NoteDisplay.D(),
		MaxResponse:   c.MaxResponse.D(),
		Fade:          c.Fade.D(),
		FadeHold:      c.FadeHold.D(),
		CountdownTick: c.CountdownTick.D(),
	}
}

// TrialExecutor runs one trial to completion
type TrialExecutor interface {
	Run(ctx context.Context, spec model.TrialSpec) (model.TrialRecord, error)
}

// TrialRunner presents a note, lets the participant tune the tone and
// records the response
type TrialRunner struct {
	UI       TrialSurface
	Audio    AudioControl
	Scale    pitch.Lattice // unshifted response scale
	BaseFreq float64
	Timing   Timing
	Now      func() time.Time // record timestamps, time.Now when nil
}

func (t *TrialRunner) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Run executes the phases of a trial. A response window that runs out is not
// an error: the slider value at that instant becomes the response and the
// record is marked TimedOut. The audio surface is silent and disconnected
// when Run returns, whatever the outcome.
func (t *TrialRunner) Run(ctx context.Context, spec model.TrialSpec) (rec model.TrialRecord, err error) {
	scale := t.Scale.Shift(spec.ScaleOffsetCents)
	ui := t.UI

	debug.Log("trial", "block %d trial %d practice=%v note=%s start=%d offset=%d",
		spec.BlockNumber, spec.TrialNumber, spec.IsPractice, spec.Note, spec.StartCents, spec.ScaleOffsetCents)

	// Phase 1: the note alone
	ui.SetResponseRange(scale.Min, scale.Max, scale.Step)
	ui.SetResponseValue(spec.StartCents)
	ui.SetResponseVisible(false)
	drain(ui.ResponseChanges())
	ui.ShowNote(spec.Note.Name)
	ui.ShowScreen(pitchScreen(spec.Note.Name))
	defer func() {
		if rerr := t.release(); rerr != nil && err == nil {
			err = collaboratorErr(ctx, rerr, "release audio after trial")
		}
	}()

	if err := t.Audio.SetDetuneCents(spec.StartCents); err != nil {
		return rec, collaboratorErr(ctx, err, "set start detune")
	}
	if err := wait(ctx, t.Timing.NoteDisplay); err != nil {
		return rec, fault.Wrap(err, fmsg.With("note display"), ftag.With(ftag.Cancelled))
	}

	// Phase 2: tone and controls
	ui.SetResponseVisible(true)
	if err := t.Audio.Connect(SourceTone); err != nil {
		return rec, collaboratorErr(ctx, err, "connect tone")
	}
	if err := t.Audio.Resume(); err != nil {
		return rec, collaboratorErr(ctx, err, "resume playback")
	}
	started := t.now()
	if err := t.Audio.FadeVolume(ctx, FadeIn, t.Timing.Fade); err != nil {
		return rec, collaboratorErr(ctx, err, "fade in")
	}

	// Phase 3: response or timeout
	finished, timedOut, err := t.awaitResponse(ctx, started)
	if err != nil {
		return rec, err
	}
	ui.SetResponseVisible(false)
	chosen := ui.ReadResponseValue()

	// Phase 4: fade out and hold; release runs in the deferred call
	if err := t.Audio.FadeVolume(ctx, FadeOut, t.Timing.Fade); err != nil {
		return rec, collaboratorErr(ctx, err, "fade out")
	}
	if err := wait(ctx, t.Timing.FadeHold); err != nil {
		return rec, fault.Wrap(err, fmsg.With("fade hold"), ftag.With(ftag.Cancelled))
	}

	// Phase 5: the record
	rec = model.TrialRecord{
		TrialSpec:           spec,
		StartDate:           started,
		FinishDate:          finished,
		ResponseTimeSeconds: finished.Sub(started).Seconds(),
		ChosenCents:         chosen,
		ChosenFreq:          pitch.FrequencyFromCents(float64(chosen), t.BaseFreq),
		StartFreq:           pitch.FrequencyFromCents(float64(spec.StartCents), t.BaseFreq),
		ScaleMinCents:       scale.Min,
		ScaleMaxCents:       scale.Max,
		ScaleMinFreq:        pitch.FrequencyFromCents(float64(scale.Min), t.BaseFreq),
		ScaleMaxFreq:        pitch.FrequencyFromCents(float64(scale.Max), t.BaseFreq),
		TimedOut:            timedOut,
	}
	debug.Log("trial", "chosen=%d rt=%.3fs timedOut=%v", chosen, rec.ResponseTimeSeconds, timedOut)
	return rec, nil
}

// awaitResponse serves slider changes and the countdown until the pitch
// control is confirmed or the response window, counted from started, runs out
func (t *TrialRunner) awaitResponse(ctx context.Context, started time.Time) (time.Time, bool, error) {
	respCtx, cancel := context.WithDeadline(ctx, started.Add(t.Timing.MaxResponse))
	defer cancel()

	confirmed := awaitAsync(respCtx, t.UI, ControlPitchContinue)
	changes := t.UI.ResponseChanges()

	var tick <-chan time.Time
	if t.Timing.CountdownTick > 0 {
		ticker := time.NewTicker(t.Timing.CountdownTick)
		defer ticker.Stop()
		tick = ticker.C
	}
	t.UI.SetCountdown(t.remaining(started))

	for {
		select {
		case v := <-changes:
			debug.LogEvery(10, "trial", "slider at %d", v)
			if err := t.Audio.SetDetuneCents(v); err != nil {
				return time.Time{}, false, collaboratorErr(ctx, err, "set detune")
			}
		case <-tick:
			t.UI.SetCountdown(t.remaining(started))
		case c := <-confirmed:
			switch {
			case c.err == nil:
				return c.at, false, nil
			case ctx.Err() != nil:
				return time.Time{}, false, fault.Wrap(ctx.Err(), fmsg.With("await response"), ftag.With(ftag.Cancelled))
			case errors.Is(c.err, context.DeadlineExceeded):
				t.UI.SetCountdown(0)
				return t.now(), true, nil
			default:
				return time.Time{}, false, collaboratorErr(ctx, c.err, "await response")
			}
		}
	}
}

// drain discards slider values left over from an earlier trial
func drain(ch <-chan int) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func (t *TrialRunner) remaining(started time.Time) int {
	left := t.Timing.MaxResponse - t.now().Sub(started)
	return max(0, int(math.Round(left.Seconds())))
}

// release restores the silent, disconnected baseline. Every step is tried
// even if an earlier one fails.
func (t *TrialRunner) release() error {
	t.UI.SetResponseVisible(false)
	t.UI.HideScreen(ScreenPitch)
	return errors.Join(
		t.Audio.Disconnect(SourceTone),
		t.Audio.Suspend(),
	)
}
