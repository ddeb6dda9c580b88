package midi

import (
	"context"
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"

	"ap-task/debug"
)

// InputKind is what the participant did on the controller
type InputKind int

const (
	InputTurn  InputKind = iota // the configured knob or slider moved
	InputPress                  // a key or pad was pressed
)

// InputEvent is one controller action. Value is 0-127.
type InputEvent struct {
	Kind  InputKind
	Value uint8
}

// Fraction is Value scaled to 0..1
func (e InputEvent) Fraction() float64 {
	return float64(e.Value) / 127
}

// decode maps a message onto an InputEvent. Only the configured controller
// number turns; any key press with velocity presses.
func decode(msg gomidi.Message, cc uint8) (InputEvent, bool) {
	var channel, key, velocity, controller, value uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
		return InputEvent{Kind: InputPress, Value: velocity}, true
	case msg.GetControlChange(&channel, &controller, &value) && controller == cc:
		return InputEvent{Kind: InputTurn, Value: value}, true
	}
	return InputEvent{}, false
}

// Input listens to a MIDI controller
type Input struct {
	name   string
	events chan InputEvent
	stop   func()
	once   sync.Once
}

// OpenInput listens on the input port matching portName
func OpenInput(ctx context.Context, portName string, cc uint8) (*Input, error) {
	port, err := FindIn(ctx, portName)
	if err != nil {
		return nil, err
	}

	in := &Input{
		name:   port.String(),
		events: make(chan InputEvent, 32),
	}
	stop, err := gomidi.ListenTo(port, func(msg gomidi.Message, timestampms int32) {
		ev, ok := decode(msg, cc)
		if !ok {
			return
		}
		select {
		case in.events <- ev:
		default:
			// drop when the UI is behind; the next turn carries the position
		}
	})
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("listen to input", "The MIDI controller "+port.String()+" could not be opened."))
	}
	in.stop = stop
	debug.Log("midi", "listening to %s (cc %d)", in.name, cc)
	return in, nil
}

func (in *Input) Name() string {
	return in.name
}

func (in *Input) Events() <-chan InputEvent {
	return in.events
}

// Close stops listening and closes Events
func (in *Input) Close() error {
	in.once.Do(func() {
		if in.stop != nil {
			in.stop()
		}
		close(in.events)
	})
	return nil
}
