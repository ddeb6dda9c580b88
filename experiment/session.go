package experiment

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/google/uuid"

	"ap-task/config"
	"ap-task/debug"
	"ap-task/design"
	"ap-task/model"
)

// State is a step of the session
type State int

const (
	StateIdle State = iota
	StateStart
	StateInstructions
	StateVolumeCalibration
	StateRecordingPrompt
	StatePractice
	StateMain
	StateFinish
	StateFinal
)

var stateNames = map[State]string{
	StateIdle:              "idle",
	StateStart:             "start",
	StateInstructions:      "instructions",
	StateVolumeCalibration: "volume-calibration",
	StateRecordingPrompt:   "recording-prompt",
	StatePractice:          "practice",
	StateMain:              "main",
	StateFinish:            "finish",
	StateFinal:             "final",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Exporter persists the session result and returns where it went
type Exporter interface {
	Export(result model.SessionResult) (string, error)
}

// Options configures a Session
type Options struct {
	Config    *config.Config
	UI        Surface
	OpenAudio OpenAudioFunc
	Exporter  Exporter
	Seed      uint64 // 0 picks a random seed
	Timing    *Timing
}

// Session is the state machine of one participant's run
type Session struct {
	cfg       *config.Config
	ui        Surface
	openAudio OpenAudioFunc
	exporter  Exporter
	timing    Timing
	rng       *rand.Rand
	blocks    *BlockRunner

	state  State
	audio  AudioControl
	result model.SessionResult
	path   string

	// OnTransition observes every state change
	OnTransition func(from, to State)
}

// NewSession validates the configuration and builds the runners
func NewSession(opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fault.Wrap(err, fmsg.With("invalid configuration"), ftag.With(ftag.InvalidArgument))
	}
	if opts.UI == nil || opts.OpenAudio == nil || opts.Exporter == nil {
		return nil, fault.New("session needs a UI, an audio opener and an exporter", ftag.With(ftag.InvalidArgument))
	}
	anchors, err := cfg.Anchors()
	if err != nil {
		return nil, fault.Wrap(err, ftag.With(ftag.InvalidArgument))
	}

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	timing := TimingFromConfig(cfg.Timing)
	if opts.Timing != nil {
		timing = *opts.Timing
	}

	e := cfg.Experiment
	s := &Session{
		cfg:       cfg,
		ui:        opts.UI,
		openAudio: opts.OpenAudio,
		exporter:  opts.Exporter,
		timing:    timing,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		result: model.SessionResult{
			ID:   uuid.New(),
			Seed: seed,
		},
	}
	s.blocks = &BlockRunner{
		Sequence: design.NewSequenceGenerator(anchors, e.PracticeTrials, e.MaxAttempts),
		Start: design.StartPointGenerator{
			Scale:          e.Scale,
			MinDelta:       e.MinStartDeltaCents,
			PracticeRadius: e.PracticeRadius,
			Anchors:        anchors,
			MaxAttempts:    e.MaxAttempts,
		},
		Offsets:        e.ScaleOffset,
		OffsetEnabled:  e.ScaleOffsetEnabled,
		PracticeTrials: e.PracticeTrials,
		Rand:           s.rng,
	}
	return s, nil
}

// ID identifies the session in its results
func (s *Session) ID() uuid.UUID {
	return s.result.ID
}

// Seed reproduces the session's design when passed back in Options
func (s *Session) Seed() uint64 {
	return s.result.Seed
}

// State is the current state
func (s *Session) State() State {
	return s.state
}

// Path is where the results were exported, once Finish has run
func (s *Session) Path() string {
	return s.path
}

func (s *Session) enter(next State) {
	prev := s.state
	s.state = next
	debug.Log("session", "%s -> %s", prev, next)
	if s.OnTransition != nil {
		s.OnTransition(prev, next)
	}
}

// Run drives the session from Start to Final. Any error halts it: the
// participant sees a fatal screen and nothing is exported.
func (s *Session) Run(ctx context.Context) (model.SessionResult, error) {
	if s.state != StateIdle {
		return model.SessionResult{}, fault.New("session already ran", ftag.With(ftag.InvalidArgument))
	}
	defer s.closeAudio()

	steps := []struct {
		state State
		run   func(context.Context) error
	}{
		{StateStart, s.runStart},
		{StateInstructions, s.runInstructions},
		{StateVolumeCalibration, s.runVolume},
		{StateRecordingPrompt, s.runRecording},
		{StatePractice, s.runPractice},
		{StateMain, s.runMain},
		{StateFinish, s.runFinish},
		{StateFinal, s.runFinal},
	}

	for _, step := range steps {
		s.enter(step.state)
		if err := step.run(ctx); err != nil {
			err = fault.Wrap(err, fmsg.With(step.state.String()))
			debug.Log("session", "halted in %s: %v", step.state, err)
			s.ui.ShowScreen(fatalScreen(err))
			return model.SessionResult{}, err
		}
	}
	return s.result, nil
}

// confirm shows a text screen and waits for its button
func (s *Session) confirm(ctx context.Context, screen Screen) error {
	s.ui.ShowScreen(screen)
	defer s.ui.HideScreen(screen.ID)
	if _, err := s.ui.AwaitConfirmation(ctx, screen.Control); err != nil {
		return collaboratorErr(ctx, err, "await "+string(screen.ID))
	}
	return nil
}

func (s *Session) runStart(ctx context.Context) error {
	return s.confirm(ctx, startScreen())
}

func (s *Session) runInstructions(ctx context.Context) error {
	e := s.cfg.Experiment
	return s.confirm(ctx, instructionsScreen(e.PracticeTrials, e.MainBlocks))
}

// runVolume opens the audio surface and lets the participant set the gain
// on a noise source. Continue stays disabled until playback was started once.
func (s *Session) runVolume(ctx context.Context) error {
	audio, err := s.openAudio(ctx)
	if err != nil {
		return collaboratorErr(ctx, err, "open audio")
	}
	s.audio = audio

	s.blocks.Trials = &TrialRunner{
		UI:       s.ui,
		Audio:    audio,
		Scale:    s.cfg.Experiment.Scale,
		BaseFreq: s.cfg.Experiment.BaseFreq,
		Timing:   s.timing,
	}

	gain := s.cfg.Audio.StartGain
	if err := errors.Join(
		audio.SetGain(gain),
		audio.StartPlayback(SourceTone),
		audio.Connect(SourceNoise),
	); err != nil {
		return collaboratorErr(ctx, err, "prepare volume calibration")
	}

	screen := volumeScreen()
	s.ui.SetGainLevel(gain)
	s.ui.SetPlaying(false)
	s.ui.SetControlEnabled(screen.Control, false)
	s.ui.ShowScreen(screen)
	defer s.ui.HideScreen(screen.ID)

	calCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	playing, started := false, false
	confirmed := awaitAsync(calCtx, s.ui, screen.Control)
	for {
		select {
		case g := <-s.ui.GainChanges():
			if err := audio.SetGain(g); err != nil {
				return collaboratorErr(ctx, err, "set gain")
			}
			debug.Log("session", "gain %.3f", g)

		case <-s.ui.PlaybackToggles():
			var err error
			if playing {
				err = audio.Suspend()
			} else {
				err = audio.Resume()
				if err == nil && !started {
					err = audio.StartPlayback(SourceNoise)
					started = true
					s.ui.SetControlEnabled(screen.Control, true)
				}
			}
			if err != nil {
				return collaboratorErr(ctx, err, "toggle playback")
			}
			playing = !playing
			s.ui.SetPlaying(playing)

		case c := <-confirmed:
			if c.err != nil {
				return collaboratorErr(ctx, c.err, "await volume")
			}
			if !started {
				// the UI let a disabled control through
				confirmed = awaitAsync(calCtx, s.ui, screen.Control)
				continue
			}
			return errors.Join(
				collaboratorErr(ctx, audio.Suspend(), "suspend after calibration"),
				collaboratorErr(ctx, audio.Disconnect(SourceNoise), "disconnect noise"),
			)
		}
	}
}

func (s *Session) runRecording(ctx context.Context) error {
	return s.confirm(ctx, recordingScreen())
}

func (s *Session) runPractice(ctx context.Context) error {
	if err := s.confirm(ctx, practiceScreen(s.cfg.Experiment.PracticeTrials)); err != nil {
		return err
	}
	block, err := s.blocks.Run(ctx, 1, true, nil)
	if err != nil {
		return err
	}
	s.result.Append(block)
	return nil
}

func (s *Session) runMain(ctx context.Context) error {
	n := s.cfg.Experiment.MainBlocks
	if err := s.confirm(ctx, mainScreen(n, s.blocks.Length(false))); err != nil {
		return err
	}

	carry := CarryFrom(s.result.Records)
	for k := 1; k <= n; k++ {
		block, err := s.blocks.Run(ctx, k, false, carry)
		if err != nil {
			return err
		}
		s.result.Append(block)
		carry = CarryFrom(block)

		if k < n {
			if err := s.confirm(ctx, breakScreen(k, n)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Session) runFinish(ctx context.Context) error {
	if err := s.confirm(ctx, finishScreen()); err != nil {
		return err
	}
	path, err := s.exporter.Export(s.result)
	if err != nil {
		return fault.Wrap(err,
			fmsg.WithDesc("export results", "The results file could not be written."),
			ftag.With(KindCollaborator))
	}
	s.path = path
	return nil
}

// runFinal shows the closing screen and silences the output. Final has no
// outgoing transition.
func (s *Session) runFinal(ctx context.Context) error {
	s.ui.ShowScreen(finalScreen(s.path))
	return errors.Join(
		collaboratorErr(ctx, s.audio.StopPlayback(), "stop playback"),
		collaboratorErr(ctx, s.audio.Suspend(), "suspend playback"),
	)
}

func (s *Session) closeAudio() {
	if s.audio == nil {
		return
	}
	if err := s.audio.Close(); err != nil {
		debug.Log("session", "close audio: %v", err)
	}
	s.audio = nil
}
