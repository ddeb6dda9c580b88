package midi

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"

	"ap-task/config"
	"ap-task/debug"
	"ap-task/experiment"
	"ap-task/util"
)

// Controller numbers
const (
	ccVolume      uint8 = 7
	ccExpression  uint8 = 11
	ccDataEntry   uint8 = 6
	ccDataFine    uint8 = 38
	ccRPNLSB      uint8 = 100
	ccRPNMSB      uint8 = 101
	ccAllNotesOff uint8 = 123
)

const (
	toneVelocity uint8 = 100
	noiseNote    uint8 = 60
	maxBend            = 8191
)

// Options configure a Synth. Channels are 1-16 like on the device.
type Options struct {
	Channel       uint8
	NoiseChannel  uint8
	ToneProgram   uint8
	NoiseProgram  uint8
	BendRange     int // semitones
	BaseFreq      float64
	NoiseVelocity uint8
	FadeSteps     int
}

// OptionsFromConfig takes the synth options from the audio config
func OptionsFromConfig(cfg *config.Config) Options {
	a := cfg.Audio
	return Options{
		Channel:       a.Channel,
		NoiseChannel:  a.NoiseChannel,
		ToneProgram:   a.ToneProgram,
		NoiseProgram:  a.NoiseProgram,
		BendRange:     a.BendRange,
		BaseFreq:      cfg.Experiment.BaseFreq,
		NoiseVelocity: a.NoiseVelocity,
		FadeSteps:     a.FadeSteps,
	}
}

// Synth plays the tone and the calibration noise on a GM synthesizer.
//
// The tone is a held note on one channel; detune picks the nearest key and
// bends the rest. Gain is channel volume, fades ramp expression. A source
// only sounds while it is started, connected and the clock is running, and
// notes are switched on and off as that changes.
type Synth struct {
	mu    sync.Mutex
	send  func(msg gomidi.Message) error
	close func() error
	opts  Options

	toneCh, noiseCh uint8 // 0-based
	baseNote        uint8
	baseCents       int // base frequency above baseNote

	connected  map[experiment.Source]bool
	started    map[experiment.Source]bool
	running    bool
	sounding   map[experiment.Source]int // key currently on, -1 for none
	detune     int
	expression uint8
}

// NewSynth sets up both channels through send
func NewSynth(send func(msg gomidi.Message) error, opts Options) (*Synth, error) {
	if opts.FadeSteps < 1 {
		opts.FadeSteps = 1
	}
	if opts.BendRange < 1 {
		opts.BendRange = 2
	}

	key := 69 + 12*math.Log2(opts.BaseFreq/440)
	baseNote := math.Round(key)
	s := &Synth{
		send:      send,
		opts:      opts,
		toneCh:    opts.Channel - 1,
		noiseCh:   opts.NoiseChannel - 1,
		baseNote:  uint8(util.Clamp(baseNote, 0, 127)),
		baseCents: int(math.Round((key - baseNote) * 100)),
		connected: make(map[experiment.Source]bool),
		started:   make(map[experiment.Source]bool),
		sounding: map[experiment.Source]int{
			experiment.SourceTone:  -1,
			experiment.SourceNoise: -1,
		},
		expression: 127,
	}

	if err := s.setup(); err != nil {
		return nil, fault.Wrap(err, fmsg.With("set up synth channels"))
	}
	debug.Log("audio", "synth ready: base note %d%+d cents, tone ch %d, noise ch %d", s.baseNote, s.baseCents, opts.Channel, opts.NoiseChannel)
	return s, nil
}

// Open connects to the output port matching portName
func Open(ctx context.Context, portName string, opts Options) (*Synth, error) {
	out, err := FindOut(ctx, portName)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("open output", "The MIDI output "+out.String()+" could not be opened."))
	}
	debug.Log("audio", "opened output %s", out.String())

	s, err := NewSynth(send, opts)
	if err != nil {
		out.Close()
		return nil, err
	}
	s.close = out.Close
	return s, nil
}

func (s *Synth) setup() error {
	var msgs []gomidi.Message
	for _, ch := range []uint8{s.toneCh, s.noiseCh} {
		program := s.opts.ToneProgram
		if ch == s.noiseCh {
			program = s.opts.NoiseProgram
		}
		msgs = append(msgs,
			gomidi.ControlChange(ch, ccAllNotesOff, 0),
			gomidi.ProgramChange(ch, program),
			// pitch bend sensitivity (RPN 0), then null the RPN
			gomidi.ControlChange(ch, ccRPNMSB, 0),
			gomidi.ControlChange(ch, ccRPNLSB, 0),
			gomidi.ControlChange(ch, ccDataEntry, uint8(util.Clamp(s.opts.BendRange, 1, 24))),
			gomidi.ControlChange(ch, ccDataFine, 0),
			gomidi.ControlChange(ch, ccRPNMSB, 127),
			gomidi.ControlChange(ch, ccRPNLSB, 127),
			gomidi.Pitchbend(ch, 0),
			gomidi.ControlChange(ch, ccExpression, s.expression),
		)
	}
	return s.sendAll(msgs...)
}

func (s *Synth) sendAll(msgs ...gomidi.Message) error {
	for _, msg := range msgs {
		if err := s.send(msg); err != nil {
			return err
		}
	}
	return nil
}

// toneKey splits a detune into the key to play and the pitch bend on top
func (s *Synth) toneKey(cents int) (uint8, int16) {
	total := cents + s.baseCents
	semis := int(math.Round(float64(total) / 100))
	rest := total - semis*100

	key := util.Clamp(int(s.baseNote)+semis, 0, 127)
	// a clamped key leaves more than the bend range to cover; bend as far as it goes
	rest += (int(s.baseNote) + semis - key) * 100
	bend := float64(rest) / float64(s.opts.BendRange*100) * maxBend
	return uint8(key), int16(util.Clamp(math.Round(bend), -maxBend-1, maxBend))
}

// sync switches src's note to match whether it should sound
func (s *Synth) sync(src experiment.Source) error {
	want := -1
	if s.connected[src] && s.started[src] && s.running {
		if src == experiment.SourceTone {
			key, _ := s.toneKey(s.detune)
			want = int(key)
		} else {
			want = int(noiseNote)
		}
	}

	have := s.sounding[src]
	if have == want {
		return nil
	}

	ch, velocity := s.toneCh, toneVelocity
	if src == experiment.SourceNoise {
		ch, velocity = s.noiseCh, s.opts.NoiseVelocity
	}
	if have >= 0 {
		if err := s.send(gomidi.NoteOff(ch, uint8(have))); err != nil {
			return err
		}
	}
	if want >= 0 {
		if err := s.send(gomidi.NoteOn(ch, uint8(want), velocity)); err != nil {
			return err
		}
	}
	s.sounding[src] = want
	return nil
}

func (s *Synth) syncAll() error {
	if err := s.sync(experiment.SourceTone); err != nil {
		return err
	}
	return s.sync(experiment.SourceNoise)
}

func (s *Synth) Connect(src experiment.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected[src] = true
	return s.sync(src)
}

func (s *Synth) Disconnect(src experiment.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected[src] = false
	return s.sync(src)
}

// SetDetuneCents bends the tone; the pitch bend goes out before any key change
func (s *Synth) SetDetuneCents(cents int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detune = cents
	_, bend := s.toneKey(cents)
	if err := s.send(gomidi.Pitchbend(s.toneCh, bend)); err != nil {
		return err
	}
	return s.sync(experiment.SourceTone)
}

// SetGain maps a linear amplitude onto channel volume. GM volume is
// 40·log10(v/127) dB, so amplitude g needs v = 127·√g.
func (s *Synth) SetGain(gain float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := uint8(util.Clamp(math.Round(127*math.Sqrt(util.Clamp(gain, 0, 1))), 0, 127))
	return s.sendAll(
		gomidi.ControlChange(s.toneCh, ccVolume, v),
		gomidi.ControlChange(s.noiseCh, ccVolume, v),
	)
}

// FadeVolume ramps expression on both channels in FadeSteps steps over d
func (s *Synth) FadeVolume(ctx context.Context, dir experiment.FadeDirection, d time.Duration) error {
	s.mu.Lock()
	from := s.expression
	s.mu.Unlock()

	to := uint8(0)
	if dir == experiment.FadeIn {
		to = 127
	}
	steps := s.opts.FadeSteps
	interval := d / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		if i > 1 {
			if err := sleep(ctx, interval); err != nil {
				return err
			}
		}
		v := uint8(math.Round(float64(from) + (float64(to)-float64(from))*float64(i)/float64(steps)))
		s.mu.Lock()
		s.expression = v
		err := s.sendAll(
			gomidi.ControlChange(s.toneCh, ccExpression, v),
			gomidi.ControlChange(s.noiseCh, ccExpression, v),
		)
		s.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return sleep(ctx, interval)
}

func (s *Synth) StartPlayback(src experiment.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[src] = true
	return s.sync(src)
}

func (s *Synth) StopPlayback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = make(map[experiment.Source]bool)
	return s.syncAll()
}

func (s *Synth) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	return s.syncAll()
}

func (s *Synth) Suspend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return s.syncAll()
}

// Close silences both channels and closes the port
func (s *Synth) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	err := s.syncAll()
	if serr := s.sendAll(
		gomidi.ControlChange(s.toneCh, ccAllNotesOff, 0),
		gomidi.ControlChange(s.noiseCh, ccAllNotesOff, 0),
		gomidi.Pitchbend(s.toneCh, 0),
	); err == nil {
		err = serr
	}
	if s.close != nil {
		if cerr := s.close(); err == nil {
			err = cerr
		}
		s.close = nil
	}
	debug.Log("audio", "synth closed")
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// OpenAudio adapts Open to the session's audio opener
func OpenAudio(portName string, opts Options) experiment.OpenAudioFunc {
	return func(ctx context.Context) (experiment.AudioControl, error) {
		s, err := Open(ctx, portName, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
