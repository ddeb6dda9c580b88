package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ap-task/config"
	"ap-task/debug"
	"ap-task/experiment"
	"ap-task/export"
	"ap-task/midi"
	"ap-task/theme"
	"ap-task/tui"
)

var (
	seed           uint64
	silent         bool
	outputPort     string
	controllerPort string
	resultsDir     string
)

func init() {
	f := rootCmd.Flags()
	f.Uint64Var(&seed, "seed", 0, "seed for the trial design (0 picks one)")
	f.BoolVar(&silent, "silent", false, "run without sound, for trying out the screens")
	f.StringVar(&outputPort, "port", "", "MIDI output port (substring of its name)")
	f.StringVar(&controllerPort, "controller", "", "MIDI controller input port (substring of its name)")
	f.StringVar(&resultsDir, "out", "", "directory to write results to")
}

// applyFlags overrides config values given on the command line
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("port") {
		cfg.Audio.PortName = outputPort
	}
	if f.Changed("controller") {
		cfg.Controller.PortName = controllerPort
	}
	if f.Changed("out") {
		cfg.Export.Dir = resultsDir
	}
}

func runTask(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	stopDebug, err := enableDebug(cfg)
	if err != nil {
		return err
	}
	defer stopDebug()

	palette, err := theme.Load(cfg.UI.Palette)
	if err != nil {
		return err
	}
	dir, err := cfg.ResultsDir()
	if err != nil {
		return err
	}

	open := midi.OpenAudio(cfg.Audio.PortName, midi.OptionsFromConfig(cfg))
	if silent {
		open = experiment.OpenSilent
	}

	bridge := tui.NewBridge()
	session, err := experiment.NewSession(experiment.Options{
		Config:    cfg,
		UI:        bridge,
		OpenAudio: open,
		Exporter:  export.NewExporter(dir, cfg.Export.Filename, cfg.Experiment.BaseFreq),
		Seed:      seed,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Controller.PortName != "" {
		in, err := midi.OpenInput(ctx, cfg.Controller.PortName, cfg.Controller.CC)
		if err != nil {
			return err
		}
		defer in.Close()
		go forwardInput(in.Events(), bridge)
	}

	debug.Log("main", "session %s seed %d", session.ID(), session.Seed())

	m := tui.NewModel(ctx, bridge, theme.New(palette), func(ctx context.Context) error {
		_, err := session.Run(ctx)
		return err
	})
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session %s (seed %d)\n", session.ID(), session.Seed())
	if fm, ok := final.(tui.Model); ok && fm.Err() != nil {
		fmt.Fprintln(out, experiment.FatalMessage(fm.Err()))
		return fm.Err()
	}
	if path := session.Path(); path != "" {
		fmt.Fprintf(out, "results saved to %s\n", path)
	}
	return nil
}

// forwardInput moves the slider with controller turns. A press starts the
// calibration sound if it is not playing yet and otherwise presses the
// screen's button.
func forwardInput(events <-chan midi.InputEvent, bridge *tui.Bridge) {
	for ev := range events {
		switch ev.Kind {
		case midi.InputTurn:
			bridge.SetFraction(ev.Fraction())
		case midi.InputPress:
			v := bridge.Snapshot()
			if v.Screen.ID == experiment.ScreenVolume && !v.Playing {
				bridge.TogglePlayback()
				continue
			}
			bridge.Confirm()
		}
	}
}
