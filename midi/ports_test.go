package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestMatchName(t *testing.T) {
	names := []string{"Midi Through Port-0", "FluidSynth virtual port (1234)", "fluid"}
	cases := []struct {
		want string
		idx  int
	}{
		{"", 0},
		{"fluid", 2},
		{"FLUIDSYNTH", 1},
		{"through", 0},
		{"launchpad", -1},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.idx, matchName(names, tc.want))
		})
	}
	assert.Equal(t, -1, matchName(nil, ""))
}

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		msg  gomidi.Message
		ev   InputEvent
		ok   bool
	}{
		{"configured cc turns", gomidi.ControlChange(0, 1, 64), InputEvent{Kind: InputTurn, Value: 64}, true},
		{"other cc ignored", gomidi.ControlChange(0, 7, 64), InputEvent{}, false},
		{"key press", gomidi.NoteOn(3, 60, 90), InputEvent{Kind: InputPress, Value: 90}, true},
		{"zero velocity is a release", gomidi.NoteOn(3, 60, 0), InputEvent{}, false},
		{"note off ignored", gomidi.NoteOff(3, 60), InputEvent{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, ok := decode(tc.msg, 1)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.ev, ev)
		})
	}
}

func TestInputEventFraction(t *testing.T) {
	assert.Equal(t, 0.0, InputEvent{Value: 0}.Fraction())
	assert.Equal(t, 1.0, InputEvent{Value: 127}.Fraction())
}
