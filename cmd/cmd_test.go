package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ap-task/config"
	"ap-task/experiment"
	"ap-task/export"
	"ap-task/midi"
	"ap-task/model"
	"ap-task/pitch"
	"ap-task/tui"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		configPath = ""
		forceInit = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeResults(t *testing.T, dir string) string {
	t.Helper()
	g, _ := pitch.NoteByName("G")
	start := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	path, err := export.NewExporter(dir, config.ResultsFilename, 196).Export(model.SessionResult{
		ID: uuid.MustParse("0f6f3d2c-1b5a-4f1e-8a43-6d2e5c1b9a70"),
		Records: []model.TrialRecord{{
			TrialSpec:   model.TrialSpec{Note: g, StartCents: 1800, BlockNumber: 1, TrialNumber: 1},
			StartDate:   start,
			FinishDate:  start.Add(4 * time.Second),
			ChosenCents: 1000,
		}},
	})
	require.NoError(t, err)
	return path
}

func TestVerifyCommand(t *testing.T) {
	path := writeResults(t, t.TempDir())

	out, err := execute(t, "verify", path)
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "session 0f6f3d2c-1b5a-4f1e-8a43-6d2e5c1b9a70")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, bytes.Replace(data, []byte(",1000,"), []byte(",1004,"), 1), 0644))

	out, err = execute(t, "verify", path)
	assert.Error(t, err)
	assert.Contains(t, out, "MISMATCH")
}

func TestVerifyMissingFile(t *testing.T) {
	out, err := execute(t, "verify", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
	assert.Contains(t, out, "nope.csv")
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "config", "init", "--config", path)
	assert.Error(t, err, "refuses to overwrite")

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	out, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"baseFreq": 196`)

	out, err = execute(t, "config", "path", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestApplyFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, rootCmd.Flags().Set("out", "/tmp/results"))
	require.NoError(t, rootCmd.Flags().Set("port", "FluidSynth"))
	t.Cleanup(func() {
		rootCmd.Flags().Lookup("out").Changed = false
		rootCmd.Flags().Lookup("port").Changed = false
	})

	applyFlags(rootCmd, cfg)
	assert.Equal(t, "/tmp/results", cfg.Export.Dir)
	assert.Equal(t, "FluidSynth", cfg.Audio.PortName)
	assert.Empty(t, cfg.Controller.PortName)
}

func TestForwardInput(t *testing.T) {
	bridge := tui.NewBridge()
	bridge.SetResponseRange(-48, 2848, 4)
	bridge.ShowScreen(experiment.Screen{ID: experiment.ScreenPitch, Control: experiment.ControlPitchContinue})
	bridge.SetResponseVisible(true)

	events := make(chan midi.InputEvent, 2)
	events <- midi.InputEvent{Kind: midi.InputTurn, Value: 127}
	close(events)
	forwardInput(events, bridge)
	assert.Equal(t, 2848, bridge.ReadResponseValue())

	bridge.ShowScreen(experiment.Screen{ID: experiment.ScreenVolume, Control: experiment.ControlVolumeContinue})
	events = make(chan midi.InputEvent, 1)
	events <- midi.InputEvent{Kind: midi.InputPress, Value: 100}
	close(events)
	forwardInput(events, bridge)
	select {
	case <-bridge.PlaybackToggles():
	default:
		t.Fatal("press on the volume screen should start the sound")
	}
}
