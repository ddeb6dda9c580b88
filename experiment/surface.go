// Package experiment runs the pitch reproduction session: the per-trial phase
// sequence, blocks of trials with carried-over state, and the session state
// machine from the start screen to the final screen.
//
// Everything the participant sees, touches or hears goes through the
// capability interfaces in this file. The session is a single goroutine; the
// interfaces are its only suspension points.
package experiment

import (
	"context"
	"time"
)

// ScreenID names a screen of the session
type ScreenID string

const (
	ScreenStart        ScreenID = "start"
	ScreenInstructions ScreenID = "instructions"
	ScreenVolume       ScreenID = "volume"
	ScreenRecording    ScreenID = "recording"
	ScreenPractice     ScreenID = "practice"
	ScreenMain         ScreenID = "main"
	ScreenBreak        ScreenID = "break"
	ScreenPitch        ScreenID = "pitch"
	ScreenFinish       ScreenID = "finish"
	ScreenFinal        ScreenID = "final"
	ScreenFatal        ScreenID = "fatal"
)

// ControlID names a confirmable control
type ControlID string

const (
	ControlContinue       ControlID = "continue"        // button of the text screens
	ControlVolumeContinue ControlID = "volume-continue" // leaves volume calibration
	ControlPitchContinue  ControlID = "pitch-continue"  // submits a trial response
)

// Screen is the content of one screen. Button is empty for screens that
// cannot be confirmed.
type Screen struct {
	ID      ScreenID
	Title   string
	Body    []string
	Button  string
	Control ControlID
}

// Presenter shows screens and waits for their controls
type Presenter interface {
	ShowScreen(s Screen)
	HideScreen(id ScreenID)
	SetControlEnabled(id ControlID, enabled bool)
	// AwaitConfirmation blocks until the control is confirmed and returns the
	// instant of confirmation, or ctx's error.
	AwaitConfirmation(ctx context.Context, id ControlID) (time.Time, error)
}

// TrialDisplay is the note and countdown part of the pitch screen
type TrialDisplay interface {
	ShowNote(name string)
	SetResponseVisible(visible bool)
	SetCountdown(seconds int)
}

// ResponseControl is the pitch slider, in cents
type ResponseControl interface {
	SetResponseRange(min, max, step int)
	SetResponseValue(cents int)
	ReadResponseValue() int
	// ResponseChanges delivers every value the participant moves the slider to
	ResponseChanges() <-chan int
}

// CalibrationControl is the volume slider and play/pause button
type CalibrationControl interface {
	SetGainLevel(gain float64)
	GainChanges() <-chan float64
	PlaybackToggles() <-chan struct{}
	SetPlaying(playing bool)
}

// TrialSurface is what a single trial needs from the UI
type TrialSurface interface {
	Presenter
	TrialDisplay
	ResponseControl
}

// Surface is the whole participant-facing UI
type Surface interface {
	TrialSurface
	CalibrationControl
}

// Source is a sound generator of the audio surface
type Source int

const (
	SourceTone Source = iota
	SourceNoise
)

func (s Source) String() string {
	switch s {
	case SourceTone:
		return "tone"
	case SourceNoise:
		return "noise"
	}
	return "unknown"
}

// FadeDirection selects a fade in or out
type FadeDirection int

const (
	FadeIn FadeDirection = iota
	FadeOut
)

func (d FadeDirection) String() string {
	if d == FadeIn {
		return "in"
	}
	return "out"
}

// AudioControl is the control surface of the sound output. Sources are
// started once, routed to the output with Connect, and only audible while
// the playback clock runs (Resume/Suspend).
type AudioControl interface {
	Connect(src Source) error
	Disconnect(src Source) error
	SetDetuneCents(cents int) error
	SetGain(gain float64) error
	// FadeVolume ramps the master level and returns when the ramp is done
	FadeVolume(ctx context.Context, dir FadeDirection, d time.Duration) error
	StartPlayback(src Source) error
	StopPlayback() error
	Resume() error
	Suspend() error
	Close() error
}

// OpenAudioFunc opens the audio surface when the session first needs sound
type OpenAudioFunc func(ctx context.Context) (AudioControl, error)

// wait sleeps for d or until ctx is done
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type confirmation struct {
	at  time.Time
	err error
}

// awaitAsync runs AwaitConfirmation in the background so the caller can keep
// serving slider events. The channel is buffered; the goroutine never leaks
// once ctx is cancelled.
func awaitAsync(ctx context.Context, p Presenter, id ControlID) <-chan confirmation {
	ch := make(chan confirmation, 1)
	go func() {
		at, err := p.AwaitConfirmation(ctx, id)
		ch <- confirmation{at: at, err: err}
	}()
	return ch
}
