package tui

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ap-task/experiment"
)

func newTestBridge() *Bridge {
	b := NewBridge()
	b.settle = func(func()) {}
	return b
}

func pitchBridge(t *testing.T) *Bridge {
	t.Helper()
	b := newTestBridge()
	b.SetResponseRange(-48, 2848, 4)
	b.SetResponseValue(1400)
	b.ShowNote("A")
	b.ShowScreen(experiment.Screen{ID: experiment.ScreenPitch, Title: "A", Button: "Continue", Control: experiment.ControlPitchContinue})
	b.SetResponseVisible(true)
	return b
}

func awaitInBackground(b *Bridge, ctx context.Context, id experiment.ControlID) <-chan error {
	errc := make(chan error, 1)
	go func() {
		_, err := b.AwaitConfirmation(ctx, id)
		errc <- err
	}()
	return errc
}

func TestConfirmReleasesWaiter(t *testing.T) {
	b := newTestBridge()
	b.ShowScreen(experiment.Screen{ID: experiment.ScreenStart, Button: "Begin task", Control: experiment.ControlContinue})

	assert.False(t, b.Confirm(), "nobody waiting yet")

	errc := awaitInBackground(b, context.Background(), experiment.ControlContinue)
	require.Eventually(t, b.Confirm, time.Second, time.Millisecond)
	require.NoError(t, <-errc)

	assert.False(t, b.Confirm(), "one press per wait")
}

func TestConfirmHonoursDisabledControl(t *testing.T) {
	b := newTestBridge()
	b.ShowScreen(experiment.Screen{ID: experiment.ScreenVolume, Button: "Continue", Control: experiment.ControlVolumeContinue})
	b.SetControlEnabled(experiment.ControlVolumeContinue, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := awaitInBackground(b, ctx, experiment.ControlVolumeContinue)

	time.Sleep(10 * time.Millisecond)
	assert.False(t, b.Confirm())
	assert.False(t, b.Snapshot().ControlEnabled)

	b.SetControlEnabled(experiment.ControlVolumeContinue, true)
	assert.True(t, b.Snapshot().ControlEnabled)
	require.Eventually(t, b.Confirm, time.Second, time.Millisecond)
	require.NoError(t, <-errc)
}

func TestConfirmNeedsVisibleResponse(t *testing.T) {
	b := pitchBridge(t)
	b.SetResponseVisible(false)
	ctx, cancel := context.WithCancel(context.Background())
	errc := awaitInBackground(b, ctx, experiment.ControlPitchContinue)

	time.Sleep(10 * time.Millisecond)
	assert.False(t, b.Confirm())

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}

func TestConfirmFreezesPitchResponse(t *testing.T) {
	b := pitchBridge(t)
	b.Nudge(150)
	require.Equal(t, 2000, b.ReadResponseValue())
	for len(b.ResponseChanges()) > 0 {
		<-b.ResponseChanges()
	}

	errc := awaitInBackground(b, context.Background(), experiment.ControlPitchContinue)
	require.Eventually(t, b.Confirm, time.Second, time.Millisecond)
	require.NoError(t, <-errc)
	assert.False(t, b.Snapshot().ResponseVisible)

	// keys still arriving after the press
	for i := 0; i < 2000; i++ {
		b.Nudge(1)
	}
	b.SetFraction(0)

	assert.Equal(t, 2000, b.ReadResponseValue())
	assert.Zero(t, len(b.ResponseChanges()))
}

func TestNudgeMovesResponseByLatticeSteps(t *testing.T) {
	b := pitchBridge(t)

	b.Nudge(1)
	assert.Equal(t, 1404, b.ReadResponseValue())
	assert.Equal(t, 1404, <-b.ResponseChanges())

	b.Nudge(-10)
	assert.Equal(t, 1364, b.ReadResponseValue())

	b.Nudge(-10000)
	assert.Equal(t, -48, b.ReadResponseValue())
	b.Nudge(10000)
	assert.Equal(t, 2848, b.ReadResponseValue())
}

func TestNudgeIgnoredWhileResponseHidden(t *testing.T) {
	b := pitchBridge(t)
	b.SetResponseVisible(false)
	b.Nudge(5)
	assert.Equal(t, 1400, b.ReadResponseValue())
	assert.Empty(t, b.ResponseChanges())
}

func TestSetFractionSnaps(t *testing.T) {
	b := pitchBridge(t)
	b.SetFraction(0)
	assert.Equal(t, -48, b.ReadResponseValue())
	b.SetFraction(1)
	assert.Equal(t, 2848, b.ReadResponseValue())
	b.SetFraction(0.5)
	assert.Equal(t, 1400, b.ReadResponseValue())
	assert.Zero(t, (b.ReadResponseValue()+48)%4)
}

func TestVolumeScreenControls(t *testing.T) {
	b := newTestBridge()
	assert.False(t, b.TogglePlayback(), "not on the volume screen")

	b.ShowScreen(experiment.Screen{ID: experiment.ScreenVolume, Control: experiment.ControlVolumeContinue})
	b.SetGainLevel(0.05)

	b.Nudge(2)
	assert.InDelta(t, 0.07, <-b.GainChanges(), 1e-9)
	b.SetFraction(3)
	assert.Equal(t, 1.0, <-b.GainChanges())
	assert.Equal(t, 1.0, b.Snapshot().Gain)

	assert.True(t, b.TogglePlayback())
	<-b.PlaybackToggles()
}

func TestResponseChangesKeepNewest(t *testing.T) {
	b := pitchBridge(t)
	for i := 0; i < 200; i++ {
		b.Nudge(1)
	}
	var last int
	for len(b.ResponseChanges()) > 0 {
		last = <-b.ResponseChanges()
	}
	assert.Equal(t, b.ReadResponseValue(), last)
}

func TestHideScreenOnlyHidesCurrent(t *testing.T) {
	b := pitchBridge(t)
	b.HideScreen(experiment.ScreenVolume)
	assert.True(t, b.Snapshot().ScreenVisible)
	b.HideScreen(experiment.ScreenPitch)
	assert.False(t, b.Snapshot().ScreenVisible)
}

func TestUpdatesAreSignalled(t *testing.T) {
	b := newTestBridge()
	b.SetCountdown(15)
	b.SetCountdown(14)
	select {
	case <-b.UpdateChan:
	default:
		t.Fatal("expected an update")
	}
	assert.Equal(t, 14, b.Snapshot().Countdown)
}
