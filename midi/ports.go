// Package midi drives a General MIDI synthesizer as the sound output of the
// task and reads an optional MIDI controller as a second way to move the
// response slider.
package midi

import (
	"context"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// PortTimeout bounds port enumeration; CoreMIDI can hang
const PortTimeout = 3 * time.Second

// Ports is a snapshot of the available ports
type Ports struct {
	Ins  []drivers.In
	Outs []drivers.Out
}

// InNames returns the input port names in driver order
func (p Ports) InNames() []string {
	names := make([]string, len(p.Ins))
	for i, in := range p.Ins {
		names[i] = in.String()
	}
	return names
}

// OutNames returns the output port names in driver order
func (p Ports) OutNames() []string {
	names := make([]string, len(p.Outs))
	for i, out := range p.Outs {
		names[i] = out.String()
	}
	return names
}

// Scan enumerates ports, giving up after PortTimeout or when ctx is done
func Scan(ctx context.Context) (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		ch <- Ports{
			Ins:  gomidi.GetInPorts(),
			Outs: gomidi.GetOutPorts(),
		}
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-ctx.Done():
		return Ports{}, fault.Wrap(ctx.Err(), ftag.With(ftag.Cancelled))
	case <-time.After(PortTimeout):
		// on macOS: sudo killall coreaudiod midiserver
		return Ports{}, fault.New("MIDI port scan timed out",
			fmsg.WithDesc("scan ports", "The MIDI system did not answer. Restarting the MIDI service usually fixes this."))
	}
}

// matchName picks the index of the port whose name contains want
// (case-insensitive). An empty want picks the first port.
func matchName(names []string, want string) int {
	if len(names) == 0 {
		return -1
	}
	if want == "" {
		return 0
	}
	want = strings.ToLower(want)
	for i, name := range names {
		if strings.ToLower(name) == want {
			return i
		}
	}
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), want) {
			return i
		}
	}
	return -1
}

// FindOut returns the output port matching name
func FindOut(ctx context.Context, name string) (drivers.Out, error) {
	ports, err := Scan(ctx)
	if err != nil {
		return nil, err
	}
	i := matchName(ports.OutNames(), name)
	if i < 0 {
		return nil, fault.New("no matching MIDI output port",
			fmsg.WithDesc("find output "+name, noPortIssue("output", name)),
			ftag.With(ftag.NotFound))
	}
	return ports.Outs[i], nil
}

// FindIn returns the input port matching name
func FindIn(ctx context.Context, name string) (drivers.In, error) {
	ports, err := Scan(ctx)
	if err != nil {
		return nil, err
	}
	i := matchName(ports.InNames(), name)
	if i < 0 {
		return nil, fault.New("no matching MIDI input port",
			fmsg.WithDesc("find input "+name, noPortIssue("input", name)),
			ftag.With(ftag.NotFound))
	}
	return ports.Ins[i], nil
}

func noPortIssue(kind, name string) string {
	if name == "" {
		return "No MIDI " + kind + " port was found. Connect a synthesizer or start a software synth."
	}
	return "No MIDI " + kind + " port matching \"" + name + "\" was found."
}
