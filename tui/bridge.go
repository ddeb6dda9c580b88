package tui

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"

	"ap-task/debug"
	"ap-task/experiment"
	"ap-task/util"
	"ap-task/widgets"
)

// GainStep is how far one key press moves the volume slider
const GainStep = 0.01

// View is a snapshot of everything the model renders
type View struct {
	Screen          experiment.Screen
	ScreenVisible   bool
	ControlEnabled  bool // the current screen's control
	Note            string
	ResponseVisible bool
	Countdown       int
	Min, Max, Step  int
	Value           int
	Gain            float64
	Playing         bool
}

// Bridge connects the session goroutine to the bubbletea program. The
// session calls the experiment.Surface methods; the model reads Snapshot
// and forwards key presses. UpdateChan is signalled after every change.
type Bridge struct {
	mu       sync.Mutex
	view     View
	disabled map[experiment.ControlID]bool
	waiting  map[experiment.ControlID]chan time.Time

	changes chan int
	gains   chan float64
	toggles chan struct{}

	settle func(func())
	now    func() time.Time

	UpdateChan chan struct{}
}

func NewBridge() *Bridge {
	return &Bridge{
		disabled:   make(map[experiment.ControlID]bool),
		waiting:    make(map[experiment.ControlID]chan time.Time),
		changes:    make(chan int, 64),
		gains:      make(chan float64, 64),
		toggles:    make(chan struct{}, 4),
		settle:     debounce.New(400 * time.Millisecond),
		now:        time.Now,
		UpdateChan: make(chan struct{}, 1),
	}
}

func (b *Bridge) notify() {
	select {
	case b.UpdateChan <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the view state
func (b *Bridge) Snapshot() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.view
	v.ControlEnabled = v.Screen.Control != "" && !b.disabled[v.Screen.Control]
	return v
}

// Session side (experiment.Surface)

func (b *Bridge) ShowScreen(s experiment.Screen) {
	b.mu.Lock()
	b.view.Screen = s
	b.view.ScreenVisible = true
	b.mu.Unlock()
	debug.Log("ui", "show %s", s.ID)
	b.notify()
}

func (b *Bridge) HideScreen(id experiment.ScreenID) {
	b.mu.Lock()
	if b.view.Screen.ID == id {
		b.view.ScreenVisible = false
	}
	b.mu.Unlock()
	b.notify()
}

func (b *Bridge) SetControlEnabled(id experiment.ControlID, enabled bool) {
	b.mu.Lock()
	b.disabled[id] = !enabled
	b.mu.Unlock()
	b.notify()
}

func (b *Bridge) AwaitConfirmation(ctx context.Context, id experiment.ControlID) (time.Time, error) {
	ch := make(chan time.Time, 1)
	b.mu.Lock()
	b.waiting[id] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		if b.waiting[id] == ch {
			delete(b.waiting, id)
		}
		b.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	case at := <-ch:
		return at, nil
	}
}

func (b *Bridge) ShowNote(name string) {
	b.mu.Lock()
	b.view.Note = name
	b.mu.Unlock()
	b.notify()
}

func (b *Bridge) SetResponseVisible(visible bool) {
	b.mu.Lock()
	b.view.ResponseVisible = visible
	b.mu.Unlock()
	b.notify()
}

func (b *Bridge) SetCountdown(seconds int) {
	b.mu.Lock()
	b.view.Countdown = seconds
	b.mu.Unlock()
	b.notify()
}

func (b *Bridge) SetResponseRange(min, max, step int) {
	b.mu.Lock()
	b.view.Min, b.view.Max, b.view.Step = min, max, step
	b.mu.Unlock()
	b.notify()
}

func (b *Bridge) SetResponseValue(cents int) {
	b.mu.Lock()
	b.view.Value = cents
	b.mu.Unlock()
	b.notify()
}

func (b *Bridge) ReadResponseValue() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view.Value
}

func (b *Bridge) ResponseChanges() <-chan int {
	return b.changes
}

func (b *Bridge) SetGainLevel(gain float64) {
	b.mu.Lock()
	b.view.Gain = gain
	b.mu.Unlock()
	b.notify()
}

func (b *Bridge) GainChanges() <-chan float64 {
	return b.gains
}

func (b *Bridge) PlaybackToggles() <-chan struct{} {
	return b.toggles
}

func (b *Bridge) SetPlaying(playing bool) {
	b.mu.Lock()
	b.view.Playing = playing
	b.mu.Unlock()
	b.notify()
}

// UI side

// Confirm presses the current screen's button. It reports whether the
// session was waiting for it. Confirming the pitch control hides the
// slider, so the value read afterwards is the one confirmed.
func (b *Bridge) Confirm() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	control := b.view.Screen.Control
	if !b.view.ScreenVisible || control == "" || b.disabled[control] {
		return false
	}
	if control == experiment.ControlPitchContinue && !b.view.ResponseVisible {
		return false
	}
	ch, ok := b.waiting[control]
	if !ok {
		return false
	}
	delete(b.waiting, control)
	if control == experiment.ControlPitchContinue {
		b.view.ResponseVisible = false
		b.notify()
	}
	ch <- b.now()
	debug.Log("ui", "confirmed %s at %d", control, b.view.Value)
	return true
}

// Nudge moves whichever slider the current screen shows by steps
func (b *Bridge) Nudge(steps int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.responseActive():
		b.setResponse(b.view.Value + steps*b.view.Step)
	case b.volumeActive():
		b.setGain(b.view.Gain + float64(steps)*GainStep)
	}
}

// SetFraction moves the current slider to an absolute position in 0..1
func (b *Bridge) SetFraction(pos float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.responseActive():
		b.setResponse(widgets.Snap(pos, b.view.Min, b.view.Max, b.view.Step))
	case b.volumeActive():
		b.setGain(pos)
	}
}

// TogglePlayback presses play/pause on the volume screen
func (b *Bridge) TogglePlayback() bool {
	b.mu.Lock()
	active := b.volumeActive()
	b.mu.Unlock()
	if !active {
		return false
	}
	select {
	case b.toggles <- struct{}{}:
		return true
	default:
		return false
	}
}

func (b *Bridge) responseActive() bool {
	return b.view.ScreenVisible && b.view.Screen.ID == experiment.ScreenPitch && b.view.ResponseVisible
}

func (b *Bridge) volumeActive() bool {
	return b.view.ScreenVisible && b.view.Screen.ID == experiment.ScreenVolume
}

// setResponse expects b.mu held
func (b *Bridge) setResponse(v int) {
	v = util.Clamp(v, b.view.Min, b.view.Max)
	if v == b.view.Value {
		return
	}
	b.view.Value = v
	pushLatest(b.changes, v)
	b.settle(func() { debug.Log("ui", "slider settled at %d", v) })
	b.notify()
}

// setGain expects b.mu held
func (b *Bridge) setGain(g float64) {
	g = util.Clamp(g, 0, 1)
	if g == b.view.Gain {
		return
	}
	b.view.Gain = g
	pushLatest(b.gains, g)
	b.notify()
}

// pushLatest sends v, dropping the oldest pending value when the session
// is behind. The newest value always gets through.
func pushLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

var _ experiment.Surface = (*Bridge)(nil)
