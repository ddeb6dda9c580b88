package experiment

import (
	"context"
	"sync"
	"time"

	"ap-task/debug"
)

// SilentAudio is an AudioControl without a device. It keeps the state a real
// output would be in, for dry runs and for checking the baseline in tests.
type SilentAudio struct {
	mu        sync.Mutex
	connected map[Source]bool
	started   map[Source]bool
	running   bool
	detune    int
	detunes   []int
	gain      float64
	level     float64
	closed    bool
}

func NewSilentAudio() *SilentAudio {
	return &SilentAudio{
		connected: make(map[Source]bool),
		started:   make(map[Source]bool),
		level:     1,
	}
}

// OpenSilent is an OpenAudioFunc for SilentAudio
func OpenSilent(ctx context.Context) (AudioControl, error) {
	debug.Log("audio", "using silent audio")
	return NewSilentAudio(), nil
}

func (a *SilentAudio) Connect(src Source) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected[src] = true
	return nil
}

func (a *SilentAudio) Disconnect(src Source) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected[src] = false
	return nil
}

func (a *SilentAudio) SetDetuneCents(cents int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detune = cents
	a.detunes = append(a.detunes, cents)
	return nil
}

func (a *SilentAudio) SetGain(gain float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gain = gain
	return nil
}

func (a *SilentAudio) FadeVolume(ctx context.Context, dir FadeDirection, d time.Duration) error {
	if err := wait(ctx, d); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if dir == FadeIn {
		a.level = 1
	} else {
		a.level = 0
	}
	return nil
}

func (a *SilentAudio) StartPlayback(src Source) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started[src] = true
	return nil
}

func (a *SilentAudio) StopPlayback() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started = make(map[Source]bool)
	return nil
}

func (a *SilentAudio) Resume() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = true
	return nil
}

func (a *SilentAudio) Suspend() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
	return nil
}

func (a *SilentAudio) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.running = false
	return nil
}

// Baseline reports whether nothing is routed to the output and the clock is stopped
func (a *SilentAudio) Baseline() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, on := range a.connected {
		if on {
			return false
		}
	}
	return !a.running
}

// Audible reports whether src would currently be heard
func (a *SilentAudio) Audible(src Source) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected[src] && a.started[src] && a.running && a.level > 0
}

// Detunes returns every detune value set so far
func (a *SilentAudio) Detunes() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]int, len(a.detunes))
	copy(out, a.detunes)
	return out
}

func (a *SilentAudio) Gain() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gain
}

func (a *SilentAudio) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}
