package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"ap-task/server"
)

var (
	serveAddr    string
	serveOrigins []string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to listen on")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "allowed CORS origins (default any)")
	serveCmd.Flags().StringVar(&resultsDir, "out", "", "results directory to serve")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve results files over HTTP",
	Long: `Serves the results directory so a study coordinator can collect files:

  GET /results                 list files and whether their digest checks out
  GET /results/{name}          download a file
  GET /results/{name}/verify   digest report for a file`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("out") {
			cfg.Export.Dir = resultsDir
		}
		stopDebug, err := enableDebug(cfg)
		if err != nil {
			return err
		}
		defer stopDebug()

		dir, err := cfg.ResultsDir()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "serving %s on %s\n", dir, serveAddr)
		return server.New(dir, serveOrigins).ListenAndServe(ctx, serveAddr)
	},
}
