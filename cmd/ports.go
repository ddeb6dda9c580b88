package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"ap-task/midi"
)

var watchPorts bool

func init() {
	portsCmd.Flags().BoolVarP(&watchPorts, "watch", "w", false, "keep polling and report ports as they come and go")
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports",
	Long:  `Lists the MIDI input and output ports. Use a port name (or part of one) with --port and --controller.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if watchPorts {
			return pollPorts(ctx, cmd.OutOrStdout(), 2*time.Second)
		}
		ports, err := midi.Scan(ctx)
		if err != nil {
			return err
		}
		printPorts(cmd.OutOrStdout(), ports.InNames(), ports.OutNames())
		return nil
	},
}

func printPorts(w io.Writer, ins, outs []string) {
	fmt.Fprintln(w, "=== MIDI Input Ports ===")
	for i, name := range ins {
		fmt.Fprintf(w, "  %d: %s\n", i, name)
	}
	fmt.Fprintln(w, "\n=== MIDI Output Ports ===")
	for i, name := range outs {
		fmt.Fprintf(w, "  %d: %s\n", i, name)
	}
}

func pollPorts(ctx context.Context, w io.Writer, every time.Duration) error {
	fmt.Fprintf(w, "Polling for port changes every %s. Ctrl+C to exit.\n", every)

	var lastIn, lastOut []string
	first := true
	for {
		ports, err := midi.Scan(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		ins, outs := ports.InNames(), ports.OutNames()
		if first || !slices.Equal(ins, lastIn) || !slices.Equal(outs, lastOut) {
			fmt.Fprintf(w, "\n[%s] ports changed\n", time.Now().Format("15:04:05"))
			printPorts(w, ins, outs)
			lastIn, lastOut, first = ins, outs, false
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(every):
		}
	}
}
