package experiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ap-task/config"
	"ap-task/model"
	"ap-task/pitch"
	"ap-task/util"
)

type recordingExporter struct {
	calls  int
	result model.SessionResult
	err    error
}

func (e *recordingExporter) Export(result model.SessionResult) (string, error) {
	e.calls++
	e.result = result
	if e.err != nil {
		return "", e.err
	}
	return "/tmp/ap_task_results.csv", nil
}

type sessionHarness struct {
	ui          *fakeUI
	audio       *SilentAudio
	exporter    *recordingExporter
	session     *Session
	transitions []State
}

func newHarness(t *testing.T, seed uint64) *sessionHarness {
	t.Helper()
	h := &sessionHarness{
		ui:       newFakeUI(),
		audio:    NewSilentAudio(),
		exporter: &recordingExporter{},
	}
	timing := fastTiming()
	s, err := NewSession(Options{
		Config: config.DefaultConfig(),
		UI:     h.ui,
		OpenAudio: func(ctx context.Context) (AudioControl, error) {
			return h.audio, nil
		},
		Exporter: h.exporter,
		Seed:     seed,
		Timing:   &timing,
	})
	require.NoError(t, err)
	s.OnTransition = func(from, to State) {
		h.transitions = append(h.transitions, to)
	}
	h.session = s
	return h
}

func TestFullSessionProducesAllRecords(t *testing.T) {
	h := newHarness(t, 42)
	h.ui.responses = []int{96, 2704, 1452, 2200, 8}

	result, err := h.session.Run(context.Background())
	require.NoError(t, err)

	assert := assert.New(t)
	require.Len(t, result.Records, 39)
	assert.Equal(uint64(42), result.Seed)
	assert.Equal(h.session.ID(), result.ID)

	for i, rec := range result.Records {
		switch {
		case i < 3:
			assert.True(rec.IsPractice)
			assert.Equal(1, rec.BlockNumber)
			assert.Equal(i+1, rec.TrialNumber)
		default:
			j := i - 3
			assert.False(rec.IsPractice)
			assert.Equal(j/12+1, rec.BlockNumber)
			assert.Equal(j%12+1, rec.TrialNumber)
		}
	}

	// constraints hold across every consecutive pair, block boundaries included
	for i := 1; i < len(result.Records); i++ {
		prev, cur := result.Records[i-1], result.Records[i]
		assert.False(pitch.Adjacent(prev.Note, cur.Note), "records %d,%d: %s then %s", i-1, i, prev.Note, cur.Note)
		assert.Greater(util.Abs(cur.StartCents-prev.ChosenCents), 1250, "record %d", i)
		assert.False(pitch.OnNote(cur.StartCents))
	}

	assert.Equal([]State{
		StateStart,
		StateInstructions,
		StateVolumeCalibration,
		StateRecordingPrompt,
		StatePractice,
		StateMain,
		StateFinish,
		StateFinal,
	}, h.transitions)
	assert.Equal(StateFinal, h.session.State())

	breaks := 0
	for _, id := range h.ui.shown() {
		if id == ScreenBreak {
			breaks++
		}
	}
	assert.Equal(2, breaks)
	assert.Equal(ScreenFinal, h.ui.shown()[len(h.ui.shown())-1])

	assert.Equal(1, h.exporter.calls)
	assert.Equal(result, h.exporter.result)
	assert.Equal("/tmp/ap_task_results.csv", h.session.Path())

	assert.True(h.audio.Closed())
	assert.True(h.audio.Baseline())
	assert.InDelta(0.05, h.audio.Gain(), 1e-9)
	assert.InDelta(0.05, h.ui.gainLevel, 1e-9)
	assert.True(h.ui.enabled[ControlVolumeContinue])
	assert.True(h.ui.playing)
}

func TestSessionIsDeterministicForSeed(t *testing.T) {
	run := func() []model.TrialRecord {
		h := newHarness(t, 1234)
		result, err := h.session.Run(context.Background())
		require.NoError(t, err)
		return result.Records
	}
	a, b := run(), run()
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Note, b[i].Note)
		assert.Equal(t, a[i].StartCents, b[i].StartCents)
	}
}

func TestAudioFailureHaltsBeforePractice(t *testing.T) {
	h := newHarness(t, 1)
	h.session.openAudio = func(ctx context.Context) (AudioControl, error) {
		return nil, fault.New("no output ports", fmsg.WithDesc("open port", "No MIDI output port was found."))
	}

	_, err := h.session.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindCollaborator, ftag.Get(err))
	assert.Equal(t, []State{StateStart, StateInstructions, StateVolumeCalibration}, h.transitions)
	assert.NotContains(t, h.ui.shown(), ScreenPitch)
	assert.Equal(t, ScreenFatal, h.ui.shown()[len(h.ui.shown())-1])
	assert.Zero(t, h.exporter.calls)

	msg := FatalMessage(err)
	assert.Contains(t, msg, "could not be used")
	assert.Contains(t, msg, "No MIDI output port was found.")
}

func TestExportFailureIsFatal(t *testing.T) {
	h := newHarness(t, 2)
	h.exporter.err = errors.New("disk full")

	_, err := h.session.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindCollaborator, ftag.Get(err))
	assert.Equal(t, StateFinish, h.session.State())
	assert.True(t, h.audio.Closed())
}

func TestCancelDuringTrialStopsSession(t *testing.T) {
	h := newHarness(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.ui.pitchAwait = func(actx context.Context) (time.Time, error) {
		cancel()
		<-actx.Done()
		return time.Time{}, actx.Err()
	}

	_, err := h.session.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, ftag.Cancelled, ftag.Get(err))
	assert.Equal(t, StatePractice, h.session.State())
	assert.Zero(t, h.exporter.calls)
	assert.True(t, h.audio.Baseline())
	assert.True(t, h.audio.Closed())
}

func TestSessionRunsOnce(t *testing.T) {
	h := newHarness(t, 4)
	_, err := h.session.Run(context.Background())
	require.NoError(t, err)
	_, err = h.session.Run(context.Background())
	assert.Error(t, err)
}

func TestNewSessionRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Experiment.MainBlocks = 0
	_, err := NewSession(Options{
		Config:    cfg,
		UI:        newFakeUI(),
		OpenAudio: OpenSilent,
		Exporter:  &recordingExporter{},
	})
	require.Error(t, err)
	assert.Equal(t, ftag.InvalidArgument, ftag.Get(err))
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "volume-calibration", StateVolumeCalibration.String())
	assert.Equal(t, "unknown", State(99).String())
}
