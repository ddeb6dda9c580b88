// Package cmd is the ap-task command line.
package cmd

import (
	"github.com/spf13/cobra"

	"ap-task/config"
	"ap-task/debug"
)

var (
	configPath string
	debugLog   bool
)

var rootCmd = &cobra.Command{
	Use:   "ap-task",
	Short: "Absolute pitch reproduction task",
	Long: `Runs the absolute pitch reproduction task: the participant is shown a note
name and tunes a tone until it matches. Results are written to a CSV file with
an MD5 digest header.`,
	SilenceUsage: true,
	RunE:         runTask,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/ap-task/config.json)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "write a debug log next to the config")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// loadConfig reads --config, or the default config file
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// enableDebug turns on the debug log when asked for. The returned func
// turns it off again.
func enableDebug(cfg *config.Config) (func(), error) {
	if !debugLog && !cfg.Debug {
		return func() {}, nil
	}
	path, err := config.DebugLogPath()
	if err != nil {
		return nil, err
	}
	if err := debug.Enable(path); err != nil {
		return nil, err
	}
	return debug.Disable, nil
}
