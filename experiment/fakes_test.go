package experiment

import (
	"context"
	"sync"
	"time"
)

// fakeUI is a scripted participant. Text screens are confirmed at once,
// the volume screen after pressing play, and each trial after moving the
// slider to the next scripted response (if any).
type fakeUI struct {
	mu sync.Mutex

	screens   []ScreenID
	hidden    []ScreenID
	notes     []string
	countdown []int
	enabled   map[ControlID]bool
	visible   bool
	playing   bool
	gainLevel float64

	value     int
	min, max  int
	responses []int

	// pitchAwait replaces the pitch confirmation when set
	pitchAwait func(ctx context.Context) (time.Time, error)
	// awaitErr fails every confirmation of the given control
	awaitErr map[ControlID]error

	changes   chan int
	gains     chan float64
	toggles   chan struct{}
	enabledCh chan struct{}
}

func newFakeUI() *fakeUI {
	return &fakeUI{
		enabled:   make(map[ControlID]bool),
		awaitErr:  make(map[ControlID]error),
		changes:   make(chan int, 16),
		gains:     make(chan float64, 16),
		toggles:   make(chan struct{}, 1),
		enabledCh: make(chan struct{}, 1),
	}
}

func (f *fakeUI) ShowScreen(s Screen) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screens = append(f.screens, s.ID)
}

func (f *fakeUI) HideScreen(id ScreenID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hidden = append(f.hidden, id)
}

func (f *fakeUI) SetControlEnabled(id ControlID, enabled bool) {
	f.mu.Lock()
	f.enabled[id] = enabled
	f.mu.Unlock()
	if enabled && id == ControlVolumeContinue {
		select {
		case f.enabledCh <- struct{}{}:
		default:
		}
	}
}

func (f *fakeUI) AwaitConfirmation(ctx context.Context, id ControlID) (time.Time, error) {
	f.mu.Lock()
	err := f.awaitErr[id]
	f.mu.Unlock()
	if err != nil {
		return time.Time{}, err
	}

	switch id {
	case ControlVolumeContinue:
		f.toggles <- struct{}{}
		select {
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		case <-f.enabledCh:
		}
	case ControlPitchContinue:
		if f.pitchAwait != nil {
			return f.pitchAwait(ctx)
		}
		f.mu.Lock()
		if len(f.responses) > 0 {
			f.value = f.responses[0]
			f.responses = f.responses[1:]
		}
		f.mu.Unlock()
	}

	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	return time.Now(), nil
}

func (f *fakeUI) ShowNote(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, name)
}

func (f *fakeUI) SetResponseVisible(visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = visible
}

func (f *fakeUI) SetCountdown(seconds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countdown = append(f.countdown, seconds)
}

func (f *fakeUI) SetResponseRange(min, max, step int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.min, f.max = min, max
}

func (f *fakeUI) SetResponseValue(cents int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = cents
}

func (f *fakeUI) ReadResponseValue() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// move is the participant dragging the slider
func (f *fakeUI) move(cents int) {
	f.mu.Lock()
	f.value = cents
	f.mu.Unlock()
	f.changes <- cents
}

func (f *fakeUI) ResponseChanges() <-chan int {
	return f.changes
}

func (f *fakeUI) SetGainLevel(gain float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gainLevel = gain
}

func (f *fakeUI) GainChanges() <-chan float64 {
	return f.gains
}

func (f *fakeUI) PlaybackToggles() <-chan struct{} {
	return f.toggles
}

func (f *fakeUI) SetPlaying(playing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = playing
}

func (f *fakeUI) shown() []ScreenID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ScreenID, len(f.screens))
	copy(out, f.screens)
	return out
}

// fastTiming skips every wait except the response window
func fastTiming() Timing {
	return Timing{
		MaxResponse:   time.Minute,
		CountdownTick: time.Hour,
	}
}
